package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReferenceDeck(t *testing.T) {
	deck := ReferenceDeck()
	assert.Len(t, deck, 54)
	assert.Equal(t, NewCard(ShapeCircle, 1), deck[0])
	assert.Equal(t, NewCard(ShapeWhot, 20), deck[53])

	counts := make(map[Shape]int)
	for _, c := range deck {
		counts[c.Shape()]++
	}
	assert.Equal(t, 12, counts[ShapeCircle])
	assert.Equal(t, 9, counts[ShapeCross])
	assert.Equal(t, 12, counts[ShapeTriangle])
	assert.Equal(t, 9, counts[ShapeSquare])
	assert.Equal(t, 7, counts[ShapeStar])
	assert.Equal(t, 5, counts[ShapeWhot])
}

func TestCardParts(t *testing.T) {
	c := NewCard(ShapeStar, 7)
	assert.Equal(t, Card(0x87), c)
	assert.Equal(t, ShapeStar, c.Shape())
	assert.Equal(t, uint8(7), c.Number())
	assert.Equal(t, "star 7", c.String())
	assert.Equal(t, "none", Card(0).String())
}

func TestGameStatusString(t *testing.T) {
	assert.Equal(t, "open", GameStatusOpen.String())
	assert.Equal(t, "ended", GameStatusEnded.String())
	assert.Equal(t, "unknown(255)", GameStatus(255).String())
	assert.False(t, GameStatus(3).Known())
}

func TestSeatTaken(t *testing.T) {
	g := GameRecord{SeatOccupancy: 0b1011}
	assert.False(t, g.SeatTaken(0), "sentinel bit is never a seat")
	assert.True(t, g.SeatTaken(1))
	assert.False(t, g.SeatTaken(2))
	assert.True(t, g.SeatTaken(3))
	assert.False(t, g.SeatTaken(16))
}
