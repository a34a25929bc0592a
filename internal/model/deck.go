package model

import (
	"fmt"

	"github.com/holiman/uint256"
)

// DeckMap is a bit-packed card collection: a card width plus a presence bitmask
type DeckMap struct {
	Raw         uint256.Int `json:"raw"`
	CardBitSize int         `json:"card_bit_size"`
	MapBits     uint256.Int `json:"map_bits"`
}

// Shape is the suit of a Whot card
type Shape uint8

const (
	ShapeCircle Shape = iota
	ShapeCross
	ShapeTriangle
	ShapeSquare
	ShapeStar
	ShapeWhot
)

var shapeNames = [...]string{"circle", "cross", "triangle", "square", "star", "whot"}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("shape(%d)", uint8(s))
}

// Card is a Whot card code: shape in the top three bits, number in the low five
type Card uint32

// NewCard builds a card code from a shape and number
func NewCard(shape Shape, number uint8) Card {
	return Card(uint32(shape)<<5 | uint32(number&0x1f))
}

// Shape returns the card's shape
func (c Card) Shape() Shape {
	return Shape((c >> 5) & 0x7)
}

// Number returns the card's face number
func (c Card) Number() uint8 {
	return uint8(c & 0x1f)
}

// IsNone reports whether this is the zero "no card" code
func (c Card) IsNone() bool {
	return c == 0
}

func (c Card) String() string {
	if c.IsNone() {
		return "none"
	}
	return fmt.Sprintf("%s %d", c.Shape(), c.Number())
}

// referenceNumbers lists the face numbers of each shape in reference deck order
var referenceNumbers = []struct {
	shape   Shape
	numbers []uint8
}{
	{ShapeCircle, []uint8{1, 2, 3, 4, 5, 7, 8, 10, 11, 12, 13, 14}},
	{ShapeCross, []uint8{1, 2, 3, 5, 7, 10, 11, 13, 14}},
	{ShapeTriangle, []uint8{1, 2, 3, 4, 5, 7, 8, 10, 11, 12, 13, 14}},
	{ShapeSquare, []uint8{1, 2, 3, 5, 7, 10, 11, 13, 14}},
	{ShapeStar, []uint8{1, 2, 3, 4, 5, 7, 8}},
	{ShapeWhot, []uint8{20, 20, 20, 20, 20}},
}

// ReferenceDeck returns the 54-card ordering that market deck map bits index into
func ReferenceDeck() []Card {
	deck := make([]Card, 0, 54)
	for _, group := range referenceNumbers {
		for _, n := range group.numbers {
			deck = append(deck, NewCard(group.shape, n))
		}
	}
	return deck
}
