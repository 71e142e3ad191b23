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

// MoveType classifies the kind of a Move. Unlike a plain "Normal vs
// special" split, castling and the pawn double push are each given
// their own tag so the mover does not need to re-derive them from the
// from/to squares.
type MoveType uint8

const (
	Normal MoveType = iota
	DoublePawnPush
	Promotion
	EnPassant
	KingCastle
	QueenCastle
	moveTypeLength
)

// IsValid checks whether mt is one of the defined move types.
func (mt MoveType) IsValid() bool {
	return mt < moveTypeLength
}

var moveTypeToString = [moveTypeLength]string{
	"Normal", "DoublePawnPush", "Promotion", "EnPassant", "KingCastle", "QueenCastle",
}

// String returns a human-readable name for the move type.
func (mt MoveType) String() string {
	return moveTypeToString[mt]
}

// IsCastling reports whether mt is one of the two castling move types.
func (mt MoveType) IsCastling() bool {
	return mt == KingCastle || mt == QueenCastle
}
