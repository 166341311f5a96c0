// Package snowflake generates server-assigned message ids: 41 bits of
// millisecond time, 10 bits of node, 12 bits of sequence. Ids are rendered
// as decimal strings so they sort roughly by creation time and can never
// collide with client-side provisional ids, which carry a prefix.
package snowflake

import (
	"errors"
	"strconv"
	"sync"
	"time"
)

const (
	nodeBits  = 10
	stepBits  = 12
	nodeMax   = -1 ^ (-1 << nodeBits)
	stepMask  = -1 ^ (-1 << stepBits)
	timeShift = nodeBits + stepBits
	nodeShift = stepBits

	epoch int64 = 1704067200000 // 2024-01-01 00:00:00 UTC
)

type Generator struct {
	mu   sync.Mutex
	last int64
	node int64
	step int64
}

func NewGenerator(node int64) (*Generator, error) {
	if node < 0 || node > nodeMax {
		return nil, errors.New("node number must be between 0 and 1023")
	}
	return &Generator{node: node}, nil
}

// NextID returns a new id as a decimal string.
func (g *Generator) NextID() string {
	return strconv.FormatInt(g.next(), 10)
}

func (g *Generator) next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now().UnixMilli()
	if now < g.last {
		// Clock moved backwards, hold at the last observed time.
		now = g.last
	}

	if now == g.last {
		g.step = (g.step + 1) & stepMask
		if g.step == 0 {
			for now <= g.last {
				now = time.Now().UnixMilli()
			}
		}
	} else {
		g.step = 0
	}

	g.last = now
	return ((now - epoch) << timeShift) | (g.node << nodeShift) | g.step
}
