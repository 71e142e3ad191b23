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

// Package picker extracts move ordering into its own staged component,
// separate from move generation. A MovePicker is created per search
// node and hands out moves one at a time through Next() in the order
// the search wants to try them: the transposition table move first (it
// is the most likely best move and, on a cutoff, lets the search skip
// generation entirely), then captures ordered by MVV/LVA (most
// valuable victim, least valuable attacker, via Move's packed sort
// value), then queen promotions, then the remaining quiet moves --
// killer moves among them already pulled to the front of that batch by
// the underlying Movegen.
package picker

import (
	"github.com/kovalenko/chesscore/internal/movegen"
	"github.com/kovalenko/chesscore/internal/moveslice"
	"github.com/kovalenko/chesscore/internal/position"
	. "github.com/kovalenko/chesscore/internal/types"
)

type stage int8

const (
	stageTT stage = iota
	stageCaptures
	stagePromotions
	stageQuiet
	stageDone
)

// MovePicker hands out the pseudo-legal moves of one position in
// search order. Not safe for concurrent use or reuse across positions;
// callers create a fresh MovePicker per node (or call Reset).
type MovePicker struct {
	mg     *movegen.Movegen
	pos    *position.Position
	ttMove Move
	stage  stage

	onlyCaptures      bool
	includePromotions bool

	captures *moveslice.MoveSlice
	capIndex int

	quietsLoaded bool
	promos       []Move
	promoIndex   int
	quiets       []Move
	quietIndex   int
}

// New creates a move picker for pos. ttMove is the move read back from
// the transposition table probe for this position, or MoveNone if
// there was no hit or the entry carried no move.
func New(mg *movegen.Movegen, pos *position.Position, ttMove Move) *MovePicker {
	mp := &MovePicker{mg: mg, pos: pos, stage: stageCaptures}
	ttMove = ttMove.MoveOf()
	if ttMove != MoveNone && pos.IsLegalMove(ttMove) {
		mp.ttMove = ttMove
		mp.stage = stageTT
	}
	return mp
}

// NewCapturesOnly creates a move picker restricted to captures and
// capturing promotions -- the move source for quiescence search, which
// never looks at quiet moves. When includePromotions is true, non
// capturing queen promotions are handed out after captures as well,
// since a promotion to queen is rarely a move quiescence should skip.
func NewCapturesOnly(mg *movegen.Movegen, pos *position.Position, includePromotions bool) *MovePicker {
	return &MovePicker{mg: mg, pos: pos, stage: stageCaptures, onlyCaptures: true, includePromotions: includePromotions}
}

// Next returns the next move in search order, or MoveNone once every
// stage is exhausted.
func (mp *MovePicker) Next() Move {
	for {
		switch mp.stage {

		case stageTT:
			mp.stage = stageCaptures
			return mp.ttMove

		case stageCaptures:
			if mp.captures == nil {
				mp.captures = mp.mg.GeneratePseudoLegalMoves(mp.pos, movegen.GenCap).Clone()
				mp.scoreCaptures()
				mp.captures.Sort()
			}
			for mp.capIndex < mp.captures.Len() {
				m := mp.captures.At(mp.capIndex).MoveOf()
				mp.capIndex++
				if m == mp.ttMove {
					continue
				}
				return m
			}
			if mp.onlyCaptures && !mp.includePromotions {
				mp.stage = stageDone
				continue
			}
			mp.stage = stagePromotions

		case stagePromotions:
			mp.loadQuiets()
			if mp.promoIndex < len(mp.promos) {
				m := mp.promos[mp.promoIndex]
				mp.promoIndex++
				return m
			}
			if mp.onlyCaptures {
				mp.stage = stageDone
				continue
			}
			mp.stage = stageQuiet

		case stageQuiet:
			if mp.quietIndex < len(mp.quiets) {
				m := mp.quiets[mp.quietIndex]
				mp.quietIndex++
				return m
			}
			mp.stage = stageDone

		case stageDone:
			return MoveNone
		}
	}
}

// scoreCaptures overwrites each capture's packed sort value with its
// MVV/LVA score so MoveSlice.Sort (descending on that value) produces
// best-victim-first order.
func (mp *MovePicker) scoreCaptures() {
	mp.captures.ForEach(func(i int) {
		m := mp.captures.At(i)
		victim := m.CapturedPiece()
		attacker := mp.pos.GetPiece(m.From()).TypeOf()
		score := victim.ValueOf()*10 - attacker.ValueOf()
		if m.MoveOf() == mp.ttMove {
			score = ValueMax
		}
		mv := m.MoveOf()
		mp.captures.Set(i, mv.SetValue(score))
	})
}

// loadQuiets generates the non-capturing batch once and splits it into
// queen promotions and everything else. Castling, double pawn pushes
// and normal quiet moves all land in quiets, in the order the
// underlying Movegen produced them (which already carries killer moves
// to the front of that batch).
func (mp *MovePicker) loadQuiets() {
	if mp.quietsLoaded {
		return
	}
	mp.quietsLoaded = true
	raw := mp.mg.GeneratePseudoLegalMoves(mp.pos, movegen.GenNonCap)
	raw.ForEach(func(i int) {
		m := raw.At(i).MoveOf()
		if m == mp.ttMove {
			return
		}
		if m.MoveType() == Promotion && m.PromotionType() == Queen {
			mp.promos = append(mp.promos, m)
		} else {
			mp.quiets = append(mp.quiets, m)
		}
	})
}
