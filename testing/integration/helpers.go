package integration

import (
	"testing"

	"github.com/zoobzio/callz"
)

// newTracer builds an EnhancedTracer with output silenced for tests.
func newTracer(t *testing.T, cfg callz.Config) *callz.EnhancedTracer {
	t.Helper()
	tracer, err := callz.NewEnhancedTracer(cfg)
	if err != nil {
		t.Fatalf("NewEnhancedTracer failed: %v", err)
	}
	return tracer.WithLogger(callz.NopLogger{})
}

// countNodes walks a hierarchy snapshot and counts every record in it.
func countNodes(roots []*callz.CallRecord) int {
	total := 0
	var walk func(*callz.CallRecord)
	walk = func(rec *callz.CallRecord) {
		total++
		for _, child := range rec.Children {
			walk(child)
		}
	}
	for _, root := range roots {
		walk(root)
	}
	return total
}
