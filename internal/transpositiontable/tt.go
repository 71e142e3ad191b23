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

// Package transpositiontable implements a lock-free transposition table
// (cache) for a chess engine search. Unlike a mutex- or RWMutex-guarded
// table, every bucket is read and written through two independent
// atomic words -- a data word and a checksum word holding
// Zobrist-key-XOR-data. A torn read (one word observed before, the
// other observed after, a concurrent writer's update) XORs back out to
// something other than the probing key and is treated as a miss, never
// as corrupted data. Multiple search worker goroutines can therefore
// Probe and Put concurrently with no external synchronization; only
// Resize and Clear still require the caller to ensure no search is
// running, since they replace the backing array itself.
package transpositiontable

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"github.com/op/go-logging"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	myLogging "github.com/kovalenko/chesscore/internal/logging"
	. "github.com/kovalenko/chesscore/internal/types"
	"github.com/kovalenko/chesscore/internal/util"
)

var out = message.NewPrinter(language.German)

const (
	// MaxSizeInMB maximal memory usage of tt
	MaxSizeInMB = 65_536
)

// bucket is one lock-free transposition table slot. data and checksum
// are each written/read with a single atomic 64-bit op; checksum
// always equals Zobrist key XOR data for a bucket that was written
// in full. data must be the first field so 64-bit atomic access stays
// aligned on 32-bit platforms too.
type bucket struct {
	data     uint64
	checksum uint64
}

// TtTable is the actual transposition table object holding data and
// state. Create with NewTtTable().
type TtTable struct {
	log                *logging.Logger
	data               []bucket
	sizeInByte         uint64
	hashKeyMask        uint64
	maxNumberOfEntries uint64
	numberOfEntries    int64
	Stats              TtStats
}

// TtStats holds statistical data on tt usage. All counters are
// accessed with atomic ops since Probe/Put may run concurrently from
// any number of search workers.
type TtStats struct {
	numberOfPuts       int64
	numberOfCollisions int64
	numberOfOverwrites int64
	numberOfUpdates    int64
	numberOfProbes     int64
	numberOfHits       int64
	numberOfMisses     int64
}

// NewTtTable creates a new TtTable with the given number of bytes
// as a maximum of memory usage. Actual size will be determined
// by the number of elements fitting into this size which need
// to be a power of 2 for efficient hashing/addressing via bit
// masks.
func NewTtTable(sizeInMByte int) *TtTable {
	tt := TtTable{
		log: myLogging.GetLog(),
	}
	tt.Resize(sizeInMByte)
	return &tt
}

// Resize resizes the tt table. All entries will be cleared.
// Not safe to call concurrently with a running search -- the caller
// (the Engine, between sessions) must ensure no worker is probing or
// putting while Resize runs.
func (tt *TtTable) Resize(sizeInMByte int) {
	if sizeInMByte > MaxSizeInMB {
		tt.log.Error(out.Sprintf("Requested size for TT of %d MB reduced to max of %d MB", sizeInMByte, MaxSizeInMB))
		sizeInMByte = MaxSizeInMB
	}

	// calculate the maximum power of 2 of entries fitting into the given size in MB
	tt.sizeInByte = uint64(sizeInMByte) * MB
	tt.maxNumberOfEntries = 1 << uint64(math.Floor(math.Log2(float64(tt.sizeInByte/TtEntrySize))))
	tt.hashKeyMask = tt.maxNumberOfEntries - 1 // --> 0x0001111....111

	// if TT is resized to 0 we can't have any entries.
	if tt.sizeInByte == 0 {
		tt.maxNumberOfEntries = 0
	}

	// calculate the real memory usage
	tt.sizeInByte = tt.maxNumberOfEntries * TtEntrySize

	// Create new slice/array - garbage collection takes care of cleanup
	tt.data = make([]bucket, tt.maxNumberOfEntries)

	tt.log.Info(out.Sprintf("TT Size %d MByte, Capacity %d entries (size=%dByte) (Requested were %d MBytes)",
		tt.sizeInByte/MB, tt.maxNumberOfEntries, unsafe.Sizeof(bucket{}), sizeInMByte))
	tt.log.Debug(util.MemStat())
}

// Probe returns the decoded entry for key and true, or a zero entry
// and false if the slot is empty, belongs to a different position, or
// a concurrent write was observed mid-flight (a torn read). A torn
// read is indistinguishable from a miss by design -- the caller just
// searches the node as if nothing were cached.
func (tt *TtTable) Probe(key Key) (TtEntry, bool) {
	atomic.AddInt64(&tt.Stats.numberOfProbes, 1)
	if tt.maxNumberOfEntries == 0 {
		atomic.AddInt64(&tt.Stats.numberOfMisses, 1)
		return TtEntry{}, false
	}
	b := &tt.data[tt.hash(key)]
	data := atomic.LoadUint64(&b.data)
	checksum := atomic.LoadUint64(&b.checksum)
	if checksum^data != uint64(key) {
		atomic.AddInt64(&tt.Stats.numberOfMisses, 1)
		return TtEntry{}, false
	}
	atomic.AddInt64(&tt.Stats.numberOfHits, 1)
	return unpackData(data), true
}

// Put stores an entry for key, lock-free. The replacement policy keeps
// the deepest, freshest search result per slot: a colliding key only
// overwrites an existing entry when the new entry searched strictly
// deeper, or searched the same depth and the existing entry is from an
// older search generation.
func (tt *TtTable) Put(key Key, move Move, depth int8, value Value, valueType ValueType, eval Value, age int8) {
	if tt.maxNumberOfEntries == 0 {
		return
	}

	b := &tt.data[tt.hash(key)]
	atomic.AddInt64(&tt.Stats.numberOfPuts, 1)

	oldData := atomic.LoadUint64(&b.data)
	oldChecksum := atomic.LoadUint64(&b.checksum)
	occupied := oldChecksum^oldData == uint64(key) && oldData != 0
	sameKeyButEmpty := oldData == 0 && oldChecksum == uint64(key)

	switch {
	case occupied:
		// same position already cached -- merge, preserving fields the
		// caller chose not to overwrite (MoveNone / ValueNA sentinels)
		old := unpackData(oldData)
		if move == MoveNone {
			move = old.Move
		}
		if eval == ValueNA {
			eval = old.Eval
		}
		if value == ValueNA {
			value = old.Value
			depth = old.Depth
			valueType = old.Vtype
		}
		atomic.AddInt64(&tt.Stats.numberOfUpdates, 1)
	case !sameKeyButEmpty && oldData != 0:
		// different position hashed to the same slot
		old := unpackData(oldData)
		atomic.AddInt64(&tt.Stats.numberOfCollisions, 1)
		if !(depth > old.Depth || (depth == old.Depth && old.Age > 0)) {
			return
		}
		atomic.AddInt64(&tt.Stats.numberOfOverwrites, 1)
	default:
		// empty slot
		atomic.AddInt64(&tt.numberOfEntries, 1)
	}

	newData := packData(move, depth, valueType, eval, value, age)
	// Write data before checksum. A reader racing this Put sees either
	// the old, fully consistent pair, or (old data, new checksum) /
	// (new data, old checksum) -- both XOR to something other than key
	// and are rejected as a miss by Probe.
	atomic.StoreUint64(&b.data, newData)
	atomic.StoreUint64(&b.checksum, uint64(key)^newData)
}

// Clear clears all entries of the tt. Not safe to call concurrently
// with a running search.
func (tt *TtTable) Clear() {
	tt.data = make([]bucket, tt.maxNumberOfEntries)
	atomic.StoreInt64(&tt.numberOfEntries, 0)
	tt.Stats = TtStats{}
}

// Hashfull returns how full the transposition table is in permill as per UCI
func (tt *TtTable) Hashfull() int {
	if tt.maxNumberOfEntries == 0 {
		return 0
	}
	return int((1000 * atomic.LoadInt64(&tt.numberOfEntries)) / int64(tt.maxNumberOfEntries))
}

// String returns a string representation of this TtTable instance
func (tt *TtTable) String() string {
	probes := atomic.LoadInt64(&tt.Stats.numberOfProbes)
	hits := atomic.LoadInt64(&tt.Stats.numberOfHits)
	misses := atomic.LoadInt64(&tt.Stats.numberOfMisses)
	return out.Sprintf("TT: size %d MB max entries %d of size %d Bytes entries %d (%d%%) puts %d "+
		"updates %d collisions %d overwrites %d probes %d hits %d (%d%%) misses %d (%d%%)",
		tt.sizeInByte/MB, tt.maxNumberOfEntries, unsafe.Sizeof(bucket{}), tt.Len(), tt.Hashfull()/10,
		atomic.LoadInt64(&tt.Stats.numberOfPuts), atomic.LoadInt64(&tt.Stats.numberOfUpdates),
		atomic.LoadInt64(&tt.Stats.numberOfCollisions), atomic.LoadInt64(&tt.Stats.numberOfOverwrites),
		probes, hits, (hits*100)/(1+probes), misses, (misses*100)/(1+probes))
}

// Len returns the number of non empty entries in the tt
func (tt *TtTable) Len() uint64 {
	return uint64(atomic.LoadInt64(&tt.numberOfEntries))
}

// AgeEntries ages each occupied entry by re-packing it with Age
// incremented by one (saturating), so entries from the previous search
// generation lose replacement priority to entries from this one. Fans
// the work out across goroutines the same way the table's Zobrist
// sibling in internal/types fans out magic-number search -- a plain
// sync.WaitGroup join over equal slices of the backing array.
func (tt *TtTable) AgeEntries() {
	startTime := time.Now()
	n := tt.Len()
	if n > 0 {
		numberOfGoroutines := uint64(32) // arbitrary - uses up to 32 goroutines
		if numberOfGoroutines > tt.maxNumberOfEntries {
			numberOfGoroutines = 1
		}
		var wg sync.WaitGroup
		wg.Add(int(numberOfGoroutines))
		slice := tt.maxNumberOfEntries / numberOfGoroutines
		for i := uint64(0); i < numberOfGoroutines; i++ {
			go func(i uint64) {
				defer wg.Done()
				start := i * slice
				end := start + slice
				if i == numberOfGoroutines-1 {
					end = tt.maxNumberOfEntries
				}
				for k := start; k < end; k++ {
					b := &tt.data[k]
					data := atomic.LoadUint64(&b.data)
					checksum := atomic.LoadUint64(&b.checksum)
					key := checksum ^ data
					if data == 0 {
						continue
					}
					e := unpackData(data)
					if e.Age < 3 {
						e.Age++
					}
					newData := packData(e.Move, e.Depth, e.Vtype, e.Eval, e.Value, e.Age)
					atomic.StoreUint64(&b.data, newData)
					atomic.StoreUint64(&b.checksum, key^newData)
				}
			}(i)
		}
		wg.Wait()
	}
	elapsed := time.Since(startTime)
	tt.log.Debug(out.Sprintf("Aged %d entries of %d in %d ms\n", n, len(tt.data), elapsed.Milliseconds()))
}

// ///////////////////////////////////////////////////////////
// Private
// ///////////////////////////////////////////////////////////

// hash generates the internal hash key for the data array
func (tt *TtTable) hash(key Key) uint64 {
	return uint64(key) & tt.hashKeyMask
}
