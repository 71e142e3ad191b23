//
// FrankyGo - UCI chess engine in GO for learning purposes
//
// MIT License
//
// Copyright (c) 2018-2020 Frank Kopp
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.
//

package search

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/op/go-logging"

	"github.com/kovalenko/chesscore/internal/config"
	myLogging "github.com/kovalenko/chesscore/internal/logging"
	"github.com/kovalenko/chesscore/internal/moveslice"
	"github.com/kovalenko/chesscore/internal/openingbook"
	"github.com/kovalenko/chesscore/internal/position"
	"github.com/kovalenko/chesscore/internal/transpositiontable"
	. "github.com/kovalenko/chesscore/internal/types"
	"github.com/kovalenko/chesscore/internal/uciInterface"
)

// //////////////////////////////////////////////////////
// GlobalInfo
// //////////////////////////////////////////////////////

// GlobalInfo is the shared result board every worker in a Lazy-SMP pool
// reports into. Workers search the same position independently and at
// their own pace, reporting whenever they finish an iteration. A report
// is only accepted if the worker searched at least as deep as whatever
// is already recorded, so a shallow worker finishing late can never
// overwrite a deeper worker's move.
type GlobalInfo struct {
	mu        sync.Mutex
	bestMove  Move
	bestValue Value
	bookMove  bool
	depth     int
	pv        moveslice.MoveSlice

	nodes uint64
	stop  int32
}

func newGlobalInfo() *GlobalInfo {
	return &GlobalInfo{bestMove: MoveNone, bestValue: ValueNA}
}

// report accepts a worker's finished-iteration result if and only if
// its depth is at least as deep as the currently recorded depth.
func (g *GlobalInfo) report(depth int, result *Result) {
	if result.BestMove == MoveNone {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if depth >= g.depth {
		g.depth = depth
		g.bestValue = result.BestValue
		g.bestMove = result.BestMove
		g.bookMove = result.BookMove
		g.pv = result.Pv
	}
}

func (g *GlobalInfo) addNodes(n uint64) {
	atomic.AddUint64(&g.nodes, n)
}

// Nodes returns the summed node count across all workers for the
// search this GlobalInfo was created for.
func (g *GlobalInfo) Nodes() uint64 {
	return atomic.LoadUint64(&g.nodes)
}

func (g *GlobalInfo) requestStop() {
	atomic.StoreInt32(&g.stop, 1)
}

func (g *GlobalInfo) stopRequested() bool {
	return atomic.LoadInt32(&g.stop) == 1
}

// BestMove returns the move reported by the deepest worker so far.
func (g *GlobalInfo) BestMove() Move {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bestMove
}

// BestValue returns the evaluation that came with BestMove.
func (g *GlobalInfo) BestValue() Value {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.bestValue
}

// Depth returns the deepest iteration any worker has completed so far.
func (g *GlobalInfo) Depth() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.depth
}

// //////////////////////////////////////////////////////
// Engine
// //////////////////////////////////////////////////////

// Engine runs a Lazy-SMP search: a pool of Search workers sharing one
// transposition table and opening book, each driving its own iterative
// deepening ladder, reporting into a shared GlobalInfo as they finish
// iterations. The deepest-completed worker's move wins.
//
// This is a simplified Lazy-SMP: each worker re-enters NewSearch's own
// iterativeDeepening loop from depth 1 every time it is asked to reach
// a new target depth, rather than resuming a single long-lived search
// thread across a persistent depth barrier. The shared transposition
// table still lets later workers profit from earlier workers' and
// their own previous iterations, which is where Lazy-SMP gets its
// speedup; what is given up is the fully fledged barrier-synchronised
// thread model.
type Engine struct {
	log *logging.Logger

	uciHandlerPtr uciInterface.UciDriver

	workers []*Search
	tt      *transpositiontable.TtTable
	book    *openingbook.Book
	global  *GlobalInfo

	initSemaphore *semaphore.Weighted
	isRunning     *semaphore.Weighted

	board *position.Position
}

// NewEngine creates an Engine with config.Settings.Search.NumWorkers
// worker Search instances sharing one transposition table and, if
// configured, one opening book.
func NewEngine() *Engine {
	numWorkers := config.Settings.Search.NumWorkers
	if numWorkers < 1 {
		numWorkers = 1
	}

	sizeInMByte := config.Settings.Search.TTSize
	if sizeInMByte == 0 {
		sizeInMByte = 64
	}

	e := &Engine{
		log:           myLogging.GetLog(),
		workers:       make([]*Search, numWorkers),
		global:        newGlobalInfo(),
		initSemaphore: semaphore.NewWeighted(int64(1)),
		isRunning:     semaphore.NewWeighted(int64(1)),
		board:         position.NewPosition(),
	}

	if config.Settings.Search.UseTT {
		e.tt = transpositiontable.NewTtTable(sizeInMByte)
	}

	if config.Settings.Search.UseBook {
		e.book = openingbook.NewBook()
		bookFormat, found := openingbook.FormatFromString[config.Settings.Search.BookFormat]
		if !found {
			e.log.Warningf("Book format invalid %s", config.Settings.Search.BookFormat)
			e.book = nil
		} else if err := e.book.Initialize(config.Settings.Search.BookPath, config.Settings.Search.BookFile, bookFormat, true, false); err != nil {
			e.log.Warningf("Book could not be initialized: %s", err)
			e.book = nil
		}
	}

	for i := range e.workers {
		w := NewSearch()
		if e.tt != nil {
			w.SetSharedTT(e.tt)
		}
		if e.book != nil {
			w.SetSharedBook(e.book)
		}
		e.workers[i] = w
	}

	return e
}

// StartSearch sets the position to search and launches the pool, the
// same entry point Search.StartSearch offers so uci.UciHandler can use
// Engine as a drop-in pool-backed replacement for a single Search.
func (e *Engine) StartSearch(p position.Position, sl Limits) {
	e.board = &p
	e.Start(sl)
}

// StopSearch stops the pool and waits for it to become idle, mirroring
// Search.StopSearch.
func (e *Engine) StopSearch() {
	e.Stop()
}

// IsReady reports readiness to the installed UCI handler. The shared
// transposition table and opening book are already built eagerly in
// NewEngine, so there is no lazy initialization left to perform here.
func (e *Engine) IsReady() {
	if e.uciHandlerPtr != nil {
		e.uciHandlerPtr.SendReadyOk()
	}
}

// PonderHit forwards a ponderhit to every worker; only the ones
// currently pondering act on it.
func (e *Engine) PonderHit() {
	for _, w := range e.workers {
		w.PonderHit()
	}
}

// NewGame stops the pool and clears the shared transposition table so
// the next search starts with no stale entries from a previous game.
func (e *Engine) NewGame() {
	e.Stop()
	if e.tt != nil {
		e.tt.Clear()
	}
}

// SetUciHandler installs a UCI handler on every worker so search
// progress and the final result of the pool are reported to the GUI.
func (e *Engine) SetUciHandler(h uciInterface.UciDriver) {
	e.uciHandlerPtr = h
	for _, w := range e.workers {
		w.SetUciHandler(h)
	}
}

// GetUciHandlerPtr returns the current UciHandler or nil if none is set.
func (e *Engine) GetUciHandlerPtr() uciInterface.UciDriver {
	return e.uciHandlerPtr
}

// ClearHash clears the shared transposition table. Ignored with a
// warning while the pool is searching.
func (e *Engine) ClearHash() {
	if e.IsSearching() {
		if e.uciHandlerPtr != nil {
			e.uciHandlerPtr.SendInfoString("Can't clear hash while searching.")
		}
		e.log.Warning("Can't clear hash while searching.")
		return
	}
	if e.tt != nil {
		e.tt.Clear()
		if e.uciHandlerPtr != nil {
			e.uciHandlerPtr.SendInfoString("Hash cleared")
		}
	}
}

// ResizeCache rebuilds the shared transposition table at
// config.Settings.Search.TTSize and re-points every worker at it.
// Ignored with a warning while the pool is searching.
func (e *Engine) ResizeCache() {
	if e.IsSearching() {
		if e.uciHandlerPtr != nil {
			e.uciHandlerPtr.SendInfoString("Can't resize hash while searching.")
		}
		e.log.Warning("Can't resize hash while searching.")
		return
	}
	sizeInMByte := config.Settings.Search.TTSize
	if sizeInMByte == 0 {
		sizeInMByte = 64
	}
	e.tt = transpositiontable.NewTtTable(sizeInMByte)
	for _, w := range e.workers {
		w.SetSharedTT(e.tt)
	}
	if e.uciHandlerPtr != nil {
		e.uciHandlerPtr.SendInfoString(out.Sprintf("Hash resized: %s", e.tt.String()))
	}
}

// WriteBoard replaces the position the engine will search from the
// next time Start is called. Ignored with a warning while searching.
func (e *Engine) WriteBoard(p *position.Position) {
	if e.IsSearching() {
		e.log.Warning("Can't write board while engine pool is searching")
		return
	}
	e.board = p
}

// ReadBoard returns the position the engine currently holds.
func (e *Engine) ReadBoard() *position.Position {
	return e.board
}

// GetBestMove returns the move reported by the deepest worker to have
// finished an iteration so far in the current or last search.
func (e *Engine) GetBestMove() Move {
	return e.global.BestMove()
}

// GetBestValue returns the evaluation that came with GetBestMove.
func (e *Engine) GetBestValue() Value {
	return e.global.BestValue()
}

// GetCurrentDepth returns the deepest iteration completed by any
// worker so far in the current or last search.
func (e *Engine) GetCurrentDepth() int {
	return e.global.Depth()
}

// NodesVisited returns the summed node count across all workers for
// the current or last search.
func (e *Engine) NodesVisited() uint64 {
	return e.global.Nodes()
}

// LastSearchResult returns the deepest result reported by any worker
// in the current or last pool search, in the same shape a single
// Search would report for a non-pooled search.
func (e *Engine) LastSearchResult() Result {
	e.global.mu.Lock()
	defer e.global.mu.Unlock()
	return Result{
		BestMove:  e.global.bestMove,
		BestValue: e.global.bestValue,
		BookMove:  e.global.bookMove,
		Pv:        e.global.pv,
	}
}

// IsSearching reports whether a pool search is currently running.
func (e *Engine) IsSearching() bool {
	if !e.isRunning.TryAcquire(1) {
		return true
	}
	e.isRunning.Release(1)
	return false
}

// WaitWhileSearching blocks until the running pool search has stopped.
func (e *Engine) WaitWhileSearching() {
	_ = e.isRunning.Acquire(context.TODO(), 1)
	e.isRunning.Release(1)
}

// Start launches every worker in the pool against the current board
// with the given search limits, staggering each worker's depth ladder
// so they diverge in move ordering early on and converge through the
// shared transposition table as the search deepens. Returns once every
// worker has been launched; use WaitWhileSearching or GetBestMove to
// read progress and results.
func (e *Engine) Start(sl Limits) {
	_ = e.initSemaphore.Acquire(context.TODO(), 1)
	e.global = newGlobalInfo()
	go e.run(sl)
	_ = e.initSemaphore.Acquire(context.TODO(), 1)
	e.initSemaphore.Release(1)
}

// Stop halts every worker in the pool as quickly as possible and waits
// for the pool to become idle before returning.
func (e *Engine) Stop() {
	e.global.requestStop()
	for _, w := range e.workers {
		w.StopSearch()
	}
	e.WaitWhileSearching()
}

// run is the pool's coordinator goroutine: it fans the search out to
// every worker and waits for all of them to finish their ladders.
func (e *Engine) run(sl Limits) {
	if !e.isRunning.TryAcquire(1) {
		e.log.Error("Engine pool already searching")
		e.initSemaphore.Release(1)
		return
	}
	defer e.isRunning.Release(1)

	var wg sync.WaitGroup
	wg.Add(len(e.workers))
	e.initSemaphore.Release(1)

	// one deadline for the whole pool, as every ladder step restarts a worker's own timer
	if sl.TimeControl && !sl.Ponder {
		limit := e.workers[0].setupTimeControl(e.board, &sl)
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-time.After(limit):
				e.Stop()
			case <-done:
			}
		}()
	}

	for i, w := range e.workers {
		go e.runWorker(i, w, sl, &wg)
	}
	wg.Wait()

	if e.uciHandlerPtr != nil {
		e.uciHandlerPtr.SendResult(e.global.BestMove(), MoveNone)
	}
}

// runWorker drives one worker through a ladder of increasing depths,
// staggered by the worker's index so not every worker searches the
// same ply at the same instant, reporting every finished iteration
// into the shared GlobalInfo until told to stop or the ladder runs out
// of depth.
func (e *Engine) runWorker(index int, w *Search, sl Limits, wg *sync.WaitGroup) {
	defer wg.Done()

	maxDepth := MaxDepth
	if sl.Depth > 0 {
		maxDepth = sl.Depth
	}

	start := 1 + (index % 2)
	for depth := start; depth <= maxDepth; depth++ {
		if e.global.stopRequested() {
			return
		}

		workerLimits := sl
		workerLimits.Depth = depth
		w.StartSearch(*e.board, workerLimits)
		w.WaitWhileSearching()

		e.global.addNodes(w.NodesVisited())

		if e.global.stopRequested() {
			return
		}

		result := w.LastSearchResult()
		e.global.report(depth, &result)
	}
}
