package trellis

import (
	"fmt"
	"os"
	"time"
)

// frameStats tracks repaint activity. Only populated when Canvas.debug is
// true; release frames skip the bookkeeping entirely.
type frameStats struct {
	repaints     int
	fullRepaints int
	lastLog      time.Time
	lastNodes    int
	lastConns    int
}

// record notes one repaint and logs a rolling summary to stderr at most once
// per second.
func (fs *frameStats) record(nodes, conns int, full bool) {
	fs.repaints++
	if full {
		fs.fullRepaints++
	}
	fs.lastNodes = nodes
	fs.lastConns = conns

	now := time.Now()
	if now.Sub(fs.lastLog) < time.Second {
		return
	}
	fs.lastLog = now
	_, _ = fmt.Fprintf(os.Stderr,
		"[trellis] repaints: %d (%d full) | nodes: %d | connections: %d\n",
		fs.repaints, fs.fullRepaints, fs.lastNodes, fs.lastConns)
	fs.repaints = 0
	fs.fullRepaints = 0
}

// debugCheckMetrics warns on stderr when a node references an unregistered
// type. Called only in debug mode; release builds skip unknown nodes
// silently.
func (c *Canvas) debugCheckMetrics() {
	if !c.debug {
		return
	}
	for _, n := range c.graph.Nodes {
		if c.catalog.Spec(n.TypeID) == nil {
			_, _ = fmt.Fprintf(os.Stderr,
				"[trellis] warning: node %q has unregistered type %q\n", n.ID, n.TypeID)
		}
	}
}
