package model

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// ParseWord parses a 256-bit word given in decimal or 0x-prefixed hex.
// Leading zeros are accepted in both forms.
func ParseWord(s string) (*uint256.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidWord)
	}

	if hex, ok := strings.CutPrefix(strings.ToLower(s), "0x"); ok {
		hex = strings.TrimLeft(hex, "0")
		if hex == "" {
			hex = "0"
		}
		v, err := uint256.FromHex("0x" + hex)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidWord, s, err)
		}
		return v, nil
	}

	trimmed := strings.TrimLeft(s, "0")
	if trimmed == "" {
		trimmed = "0"
	}
	v, err := uint256.FromDecimal(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidWord, s, err)
	}
	return v, nil
}

// ParseGameID parses a game id in decimal or 0x-prefixed hex
func ParseGameID(s string) (*uint256.Int, error) {
	id, err := ParseWord(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidGameID, s)
	}
	return id, nil
}
