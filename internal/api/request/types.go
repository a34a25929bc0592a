package request

// DecodeHandRequest carries the decrypted hand words of one player.
// Each word is a decimal or 0x-hex 256-bit integer.
type DecodeHandRequest struct {
	ClearWord0 string `json:"clear_word0"`
	ClearWord1 string `json:"clear_word1"`
}
