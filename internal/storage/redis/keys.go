package redis

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
)

// Key prefix for all cached chain data
const keyPrefix = "whot"

// keyspace builds Redis keys, optionally scoped to a namespace so that
// several contracts can share one Redis
type keyspace struct {
	prefix string
}

func newKeyspace(namespace string) keyspace {
	namespace = strings.ToLower(strings.TrimSpace(namespace))
	if namespace == "" {
		return keyspace{prefix: keyPrefix}
	}
	return keyspace{prefix: keyPrefix + ":" + namespace}
}

// game returns the Redis key for a game snapshot
func (k keyspace) game(id *uint256.Int) string {
	return fmt.Sprintf("%s:game:%s", k.prefix, id.Dec())
}

// hand returns the Redis key for a revealed hand
func (k keyspace) hand(gameID *uint256.Int, playerIndex int) string {
	return fmt.Sprintf("%s:hand:%s:%d", k.prefix, gameID.Dec(), playerIndex)
}

// handsForGame returns the Redis key for the SET of hand keys of a game
func (k keyspace) handsForGame(gameID *uint256.Int) string {
	return fmt.Sprintf("%s:idx:hands_for_game:%s", k.prefix, gameID.Dec())
}
