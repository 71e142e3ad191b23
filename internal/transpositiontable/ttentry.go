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

package transpositiontable

import (
	. "github.com/kovalenko/chesscore/internal/types"
)

// TtEntry is the decoded, caller-facing view of one transposition table
// slot. The table itself never stores this struct directly -- see
// bucket in tt.go and packData below for the packed, lock-free
// in-bucket layout. This
// type is what Probe returns after a bucket has been validated and
// unpacked.
type TtEntry struct {
	Move  Move
	Eval  Value
	Value Value
	Depth int8
	Vtype ValueType
	Age   int8
}

const (
	// TtEntrySize is the size in bytes of one bucket's two atomic words.
	TtEntrySize = 16 // 2 * 8 bytes

	moveBits  = 21
	moveMask  = uint64(1)<<moveBits - 1
	evalShift = 0
	valShift  = 16
	moveShift = 32
	metaShift = 32 + moveBits
	ageBits   = 2
	ageMask   = uint64(1)<<ageBits - 1
	vtypeBits = 2
	vtypeMask = uint64(1)<<vtypeBits - 1
)

// packData encodes eval/value/move/depth/vtype/age into the single
// 64-bit payload word that gets XORed with the Zobrist key to form the
// bucket's lock-free checksum. Layout, low to high bit:
//
//	[0:16)  eval  (int16 bit pattern)
//	[16:32) value (int16 bit pattern)
//	[32:53) move  (21 bits -- the full significant range of Move.MoveOf())
//	[53:55) age   (2 bits)
//	[55:57) vtype (2 bits)
//	[57:64) depth (7 bits, 0-127)
func packData(move Move, depth int8, value ValueType, eval Value, searchVal Value, age int8) uint64 {
	return uint64(uint16(eval))<<evalShift |
		uint64(uint16(searchVal))<<valShift |
		(uint64(move.MoveOf())&moveMask)<<moveShift |
		(uint64(uint8(age))&ageMask)<<metaShift |
		(uint64(uint8(value))&vtypeMask)<<(metaShift+ageBits) |
		uint64(uint8(depth))<<(metaShift+ageBits+vtypeBits)
}

func unpackData(data uint64) TtEntry {
	return TtEntry{
		Move:  Move((data >> moveShift) & moveMask),
		Eval:  Value(int16(uint16(data >> evalShift))),
		Value: Value(int16(uint16(data >> valShift))),
		Age:   int8((data >> metaShift) & ageMask),
		Vtype: ValueType((data >> (metaShift + ageBits)) & vtypeMask),
		Depth: int8(data >> (metaShift + ageBits + vtypeBits)),
	}
}
