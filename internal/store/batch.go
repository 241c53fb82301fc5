package store

import (
	"context"
	"sync"

	"github.com/ppy/osu-performance/pkg/logger"
)

// Execer runs a non-query statement on some underlying connection. Both
// MySQL and Fake implement it, letting batch.go stay storage-agnostic.
type Execer interface {
	ExecContext(ctx context.Context, stmt string) error
}

// batch implements Batch over an Execer. hwm == 0 means "flush every
// append", used by the low-latency live path; a positive hwm defers flush
// to amortize round-trips during full rebuild.
//
// mu guards pending and is private to AppendAndCommit/Flush/PendingCount.
// seqMu is the lock Mutex() hands out: a caller driving several
// AppendAndCommit calls that must land together (e.g. one user's per-score
// UPDATEs) holds seqMu for the whole sequence so another goroutine sharing
// this batch can't interleave its own statements in between. The two locks
// are distinct so a caller holding seqMu doesn't deadlock against
// AppendAndCommit's own internal locking of mu.
type batch struct {
	mu      sync.Mutex
	pending []string
	hwm     int
	exec    Execer
	log     logger.Logger

	seqMu sync.Mutex
}

func newBatch(exec Execer, hwm int, log logger.Logger) *batch {
	return &batch{exec: exec, hwm: hwm, log: log}
}

func (b *batch) Mutex() *sync.Mutex { return &b.seqMu }

func (b *batch) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

func (b *batch) AppendAndCommit(ctx context.Context, stmt string) error {
	b.mu.Lock()
	b.pending = append(b.pending, stmt)
	over := len(b.pending) > b.hwm
	b.mu.Unlock()

	if over {
		return b.Flush(ctx)
	}
	return nil
}

func (b *batch) Flush(ctx context.Context) error {
	b.mu.Lock()
	stmts := b.pending
	b.pending = nil
	b.mu.Unlock()

	for _, stmt := range stmts {
		if err := b.exec.ExecContext(ctx, stmt); err != nil {
			if b.log != nil {
				b.log.Error(ctx, "batch flush statement failed", logger.Error(err), logger.String("stmt", stmt))
			}
			return err
		}
	}
	return nil
}
