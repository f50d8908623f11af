package telemetry

import (
	"fmt"
	"io"
	"time"
)

// formatTimingTree prints a tree like:
//
//	Total: 125ms
//	├─ loader.load main.ledger: 85ms
//	│  └─ parser.parse main.ledger: 45ms
//	└─ book.process (812 postings, 20.3/ms): 40ms
func formatTimingTree(w io.Writer, root *timerNode) {
	_, _ = fmt.Fprintf(w, "%s: %s\n", labelFor(root), formatDuration(root.end.Sub(root.start)))
	for i, child := range root.children {
		formatNode(w, child, "", i == len(root.children)-1)
	}
}

func formatNode(w io.Writer, node *timerNode, prefix string, isLast bool) {
	branch, extension := "├─ ", "│  "
	if isLast {
		branch, extension = "└─ ", "   "
	}
	_, _ = fmt.Fprintf(w, "%s%s%s: %s\n", prefix, branch, labelFor(node), formatDuration(node.end.Sub(node.start)))
	childPrefix := prefix + extension
	for i, child := range node.children {
		formatNode(w, child, childPrefix, i == len(node.children)-1)
	}
}

// labelFor appends a throughput suffix to structured timers, e.g.
// "book.process (812 postings, 20.3/ms)".
func labelFor(node *timerNode) string {
	if node.config == nil || node.config.Count <= 0 {
		return node.name
	}
	duration := node.end.Sub(node.start)
	durationMs := float64(duration.Nanoseconds()) / 1e6
	if durationMs <= 0 {
		return fmt.Sprintf("%s (%d %s)", node.name, node.config.Count, node.config.Unit)
	}
	perMs := float64(node.config.Count) / durationMs
	return fmt.Sprintf("%s (%d %s, %.1f/ms)", node.name, node.config.Count, node.config.Unit, perMs)
}

// formatDuration shows microseconds below 1ms, milliseconds below 1s, and
// seconds otherwise, matching the resolution a profiling read actually needs.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%.0fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	default:
		return fmt.Sprintf("%.2fs", float64(d)/float64(time.Second))
	}
}
