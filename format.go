package callz

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// RenderOptions controls tree rendering.
type RenderOptions struct {
	// Colorize wraps names, durations, and error markers in ANSI codes.
	// It decorates only; the underlying text is unchanged.
	Colorize bool
	// ShowErrors prints an Error: line under each failed call.
	ShowErrors bool
}

// noCallsMessage is the fixed output for an empty hierarchy.
const noCallsMessage = "No calls recorded."

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
	ansiCyan   = "\x1b[36m"
)

const (
	branchMid   = "├── "
	branchLast  = "└── "
	prefixCont  = "│   "
	prefixBlank = "    "
	ruleWidth   = 50
)

// FormatDuration renders d in the most readable unit: seconds at up to
// three decimals (trailing zeros trimmed, at least one kept), milliseconds
// at one decimal, whole microseconds below that. The millisecond decimal
// follows fmt's round-half-to-even convention; microseconds round half away
// from zero.
func FormatDuration(d time.Duration) string {
	seconds := d.Seconds()
	switch {
	case seconds >= 1.0:
		return formatSeconds(seconds)
	case seconds >= 0.001:
		return fmt.Sprintf("%.1fms", seconds*1e3)
	default:
		return fmt.Sprintf("%dµs", int64(math.Round(seconds*1e6)))
	}
}

func formatSeconds(seconds float64) string {
	rounded := math.Round(seconds*1000) / 1000
	s := strconv.FormatFloat(rounded, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "s"
}

// Render produces the human-readable call hierarchy followed by aggregate
// statistics computed from the snapshot itself. Render is pure: it never
// mutates the snapshot and is safe to call from any goroutine. An empty
// snapshot yields only the no-calls message.
func Render(roots []*CallRecord, opts RenderOptions) string {
	if len(roots) == 0 {
		return noCallsMessage
	}

	var b strings.Builder
	rule := strings.Repeat("=", ruleWidth)

	b.WriteString("Call Hierarchy\n")
	b.WriteString(rule + "\n")
	for _, root := range roots {
		renderNode(&b, root, "", true, true, opts)
	}
	b.WriteString(rule + "\n")
	renderStats(&b, treeStats(roots))

	return b.String()
}

// renderNode writes one record line plus its subtree. Non-last siblings get
// the mid connector and a continuation prefix for their descendants; last
// siblings get the last connector and blank padding.
func renderNode(b *strings.Builder, rec *CallRecord, prefix string, last, root bool, opts RenderOptions) {
	if root {
		b.WriteString(renderLine(rec, opts) + "\n")
	} else {
		connector := branchMid
		if last {
			connector = branchLast
		}
		b.WriteString(prefix + connector + renderLine(rec, opts) + "\n")
	}

	childPrefix := prefix
	if !root {
		if last {
			childPrefix += prefixBlank
		} else {
			childPrefix += prefixCont
		}
	}

	if opts.ShowErrors && rec.Status == StatusError && rec.Err != nil {
		errLine := fmt.Sprintf("Error: %T: %v", rec.Err, rec.Err)
		if opts.Colorize {
			errLine = ansiRed + errLine + ansiReset
		}
		b.WriteString(childPrefix + prefixBlank + errLine + "\n")
	}

	for i, child := range rec.Children {
		renderNode(b, child, childPrefix, i == len(rec.Children)-1, false, opts)
	}
}

// renderLine formats "name duration" with an inline marker on error nodes.
func renderLine(rec *CallRecord, opts RenderOptions) string {
	name := rec.Name
	duration := FormatDuration(rec.Duration)
	if opts.Colorize {
		name = ansiCyan + name + ansiReset
		duration = ansiYellow + duration + ansiReset
	}

	line := name + " " + duration
	if rec.Status == StatusError {
		marker := "✗"
		if opts.Colorize {
			marker = ansiRed + marker + ansiReset
		}
		line += " " + marker
	}
	return line
}

// treeStats flattens the snapshot and aggregates it, so the rendered
// statistics always describe exactly the tree above them.
func treeStats(roots []*CallRecord) Stats {
	var flat []*CallRecord
	var walk func(*CallRecord)
	walk = func(rec *CallRecord) {
		flat = append(flat, rec)
		for _, child := range rec.Children {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return computeStats(flat)
}

func renderStats(b *strings.Builder, stats Stats) {
	fmt.Fprintf(b, "Total calls: %d\n", stats.TotalCalls)
	fmt.Fprintf(b, "Total time: %s\n", FormatDuration(stats.TotalTime))
	fmt.Fprintf(b, "Unique methods: %d\n", stats.UniqueMethods)
	fmt.Fprintf(b, "Max depth: %d\n", stats.MaxDepth)

	if len(stats.Slowest) > 0 {
		b.WriteString("\nSlowest methods (by average):\n")
		for i, ms := range topStats(stats.Slowest, 5) {
			fmt.Fprintf(b, "  %d. %s: %s\n", i+1, ms.Name, FormatDuration(ms.Average))
		}
	}
	if len(stats.MostCalled) > 0 {
		b.WriteString("\nMost called methods:\n")
		for i, ms := range topStats(stats.MostCalled, 5) {
			fmt.Fprintf(b, "  %d. %s: %d calls\n", i+1, ms.Name, ms.Count)
		}
	}
}
