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

// Key is a Zobrist hash key identifying a chess position.
type Key uint64

// zobrist holds all the random numbers used to incrementally compute a
// position's Zobrist Key as pieces move, castling rights change, the en
// passant file changes or the side to move changes.
type zobrist struct {
	pieces         [PieceLength][SqLength]Key
	castlingRights [CastlingLength]Key
	enPassantFile  [8]Key
	nextPlayer     Key
}

var zobristBase = zobrist{}

// initZobrist fills zobristBase with random keys using the same
// xorshift64star generator used to find the magic bitboard constants.
func initZobrist() {
	r := newPrnG(1070372)
	for pc := PieceNone; pc < PieceLength; pc++ {
		for sq := SqA1; sq <= SqH8; sq++ {
			zobristBase.pieces[pc][sq] = Key(r.rand64())
		}
	}
	for cr := CastlingNone; cr <= CastlingAny; cr++ {
		zobristBase.castlingRights[cr] = Key(r.rand64())
	}
	for f := FileA; f <= FileH; f++ {
		zobristBase.enPassantFile[f] = Key(r.rand64())
	}
	zobristBase.nextPlayer = Key(r.rand64())
}

// ZobristPiece returns the random key for a piece standing on a square.
func ZobristPiece(p Piece, sq Square) Key {
	return zobristBase.pieces[p][sq]
}

// ZobristCastling returns the random key for a castling rights state.
func ZobristCastling(cr CastlingRights) Key {
	return zobristBase.castlingRights[cr]
}

// ZobristEnPassant returns the random key for an en passant capture file.
func ZobristEnPassant(f File) Key {
	return zobristBase.enPassantFile[f]
}

// ZobristNextPlayer returns the random key XORed in whenever the side to
// move changes.
func ZobristNextPlayer() Key {
	return zobristBase.nextPlayer
}
