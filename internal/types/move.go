/*
 * FrankyGo - UCI chess engine in GO for learning purposes
 *
 * MIT License
 *
 * Copyright (c) 2018-2020 Frank Kopp
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package types

import (
	"fmt"
	"strings"

	"github.com/kovalenko/chesscore/internal/assert"
)

// Move packs a chess move into a single 64-bit primitive: from/to squares,
// move type, the promotion piece type, the captured piece type (so a move
// carries enough information to be undone without re-probing the board)
// and a 32-bit sort value used by the move picker.
//  BITMAP 64-bit
//  |-------- sort value (32 bit) --|---------------- move (32 bit) ----|
//                                                           1 1 1 1 1 1  to       bits  0- 5
//                                                   1 1 1 1 1 1          from     bits  6-11
//                                             1 1 1                     promo pt bits 12-14
//                                       1 1 1                           capt pt  bits 15-17
//                                 1 1 1                                 type     bits 18-20
//  1...1                                                                value    bits 32-63
type Move uint64

const (
	// MoveNone is the empty, invalid move.
	MoveNone Move = 0

	toShift       uint = 0
	fromShift     uint = 6
	promTypeShift uint = 12
	capturedShift uint = 15
	typeShift     uint = 18
	valueShift    uint = 32

	squareMask   Move = 0x3F
	pieceMask    Move = 0x7
	moveTypeMask Move = 0x7

	toMask       = squareMask << toShift
	fromMask     = squareMask << fromShift
	promTypeMaskBits Move = pieceMask << promTypeShift
	capturedMask Move = pieceMask << capturedShift
	typeMask     Move = moveTypeMask << typeShift
	moveOnlyMask Move = (1 << valueShift) - 1
)

// CreateMove returns an encoded Move instance with no sort value and no
// captured piece recorded (quiet, non-capturing moves).
func CreateMove(from Square, to Square, t MoveType, promType PieceType) Move {
	return CreateCapturingMove(from, to, t, promType, PtNone)
}

// CreateCapturingMove returns an encoded Move instance which also records
// the type of the piece captured on 'to' (PtNone if the move is quiet).
func CreateCapturingMove(from Square, to Square, t MoveType, promType PieceType, captured PieceType) Move {
	return Move(to)<<toShift |
		Move(from)<<fromShift |
		Move(promType)<<promTypeShift |
		Move(captured)<<capturedShift |
		Move(t)<<typeShift
}

// CreateMoveValue returns an encoded Move instance including a sort value.
func CreateMoveValue(from Square, to Square, t MoveType, promType PieceType, captured PieceType, value Value) Move {
	m := CreateCapturingMove(from, to, t, promType, captured)
	m.SetValue(value)
	return m
}

// MoveType returns the type of the move.
func (m Move) MoveType() MoveType {
	return MoveType((m & typeMask) >> typeShift)
}

// PromotionType returns the PieceType considered for promotion. Only
// meaningful when MoveType() == Promotion.
func (m Move) PromotionType() PieceType {
	return PieceType((m & promTypeMaskBits) >> promTypeShift)
}

// CapturedPiece returns the PieceType captured by this move, or PtNone
// for a quiet (non-capturing) move.
func (m Move) CapturedPiece() PieceType {
	return PieceType((m & capturedMask) >> capturedShift)
}

// IsCapture reports whether the move captures a piece (includes en passant).
func (m Move) IsCapture() bool {
	return m.CapturedPiece() != PtNone
}

// To returns the to-Square of the move
func (m Move) To() Square {
	return Square((m & toMask) >> toShift)
}

// From returns the from-Square of the move
func (m Move) From() Square {
	return Square((m & fromMask) >> fromShift)
}

// MoveOf returns the move without its sort value.
func (m Move) MoveOf() Move {
	return m & moveOnlyMask
}

// ValueOf returns the sort value encoded into the move.
func (m Move) ValueOf() Value {
	return Value(int32(m>>valueShift)) + ValueNA
}

// SetValue encodes the given value into the high bits of the move.
func (m *Move) SetValue(v Value) Move {
	if assert.DEBUG {
		assert.Assert(v == ValueNA || v.IsValid(), "invalid move sort value: %d", v)
	}
	if *m == MoveNone {
		return *m
	}
	*m = *m&moveOnlyMask | Move(uint32(v-ValueNA))<<valueShift
	return *m
}

// IsValid checks if the move has valid squares, promotion type and move type.
// MoveNone is not considered valid.
func (m Move) IsValid() bool {
	return m != MoveNone &&
		m.From().IsValid() &&
		m.To().IsValid() &&
		m.From() != m.To() &&
		m.MoveType().IsValid() &&
		(m.MoveType() != Promotion || (m.PromotionType() >= Knight && m.PromotionType() <= Queen))
}

// String returns a verbose representation of the move.
func (m Move) String() string {
	if m == MoveNone {
		return "Move: { MoveNone }"
	}
	return fmt.Sprintf("Move: { %-5s  type:%-14s  prom:%1s  capt:%1s  value:%-6d }",
		m.StringUci(), m.MoveType().String(), m.PromotionType().Char(), m.CapturedPiece().Char(), m.ValueOf())
}

// StringUci returns the pure coordinate notation for the move (e.g. "e2e4",
// "e7e8q"), the form used on the wire and in perft output.
func (m Move) StringUci() string {
	if m == MoveNone {
		return "0000"
	}
	var os strings.Builder
	os.WriteString(m.From().String())
	os.WriteString(m.To().String())
	if m.MoveType() == Promotion {
		os.WriteString(m.PromotionType().CharLower())
	}
	return os.String()
}
