// Package snowflake generates unique 64-bit message ids that sort by
// creation time, with a per-node sequence breaking ties within the same
// millisecond.
package snowflake

import (
	"errors"
	"sync"
	"time"
)

const (
	nodeBits = 10
	seqBits  = 12

	maxNode = -1 ^ (-1 << nodeBits)
	seqMask = -1 ^ (-1 << seqBits)

	timeShift = nodeBits + seqBits
	nodeShift = seqBits

	epoch int64 = 1704067200000 // 2024-01-01 00:00:00 UTC
)

// Generator is safe for concurrent use.
type Generator struct {
	mu   sync.Mutex
	now  func() int64
	node int64
	last int64
	seq  int64
}

// New returns a Generator for the given node number. Node numbers must be
// unique across processes sharing a store.
func New(node int64) (*Generator, error) {
	if node < 0 || node > maxNode {
		return nil, errors.New("snowflake: node number must be between 0 and 1023")
	}
	return &Generator{
		now:  func() int64 { return time.Now().UnixMilli() },
		node: node,
	}, nil
}

// Next returns a fresh id. Ids from one Generator are strictly increasing.
func (g *Generator) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ts := g.now()
	if ts < g.last {
		// Clock went backwards; hold the last timestamp rather than
		// risk colliding with ids already handed out.
		ts = g.last
	}

	if ts == g.last {
		g.seq = (g.seq + 1) & seqMask
		if g.seq == 0 {
			for ts <= g.last {
				ts = g.now()
			}
		}
	} else {
		g.seq = 0
	}
	g.last = ts

	return ((ts - epoch) << timeShift) | (g.node << nodeShift) | g.seq
}
