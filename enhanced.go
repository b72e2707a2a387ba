package callz

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/zoobzio/clockz"
)

// EnhancedResults is the combined snapshot of the flat ledger and the call
// hierarchy.
type EnhancedResults struct {
	CallHierarchy []*CallRecord `json:"call_hierarchy"`
	FlatCalls     Results       `json:"flat_calls"`
	Stats         Stats         `json:"statistics"`
}

// EnhancedTracer records flat call timings and, in parallel, maintains a
// CallTree so nested instrumented operations are captured as parent and
// child. Safe for concurrent use by multiple goroutines.
//
// The recursion guard is per operation name: nested calls to different
// operations are kept - the hierarchy depends on them - while re-entrant
// calls to the same name on one logical execution context are collapsed so
// self-recursion is not double-timed.
type EnhancedTracer struct {
	flat *Tracer
	tree *CallTree
}

// NewEnhancedTracer creates a hierarchical tracer with a validated config.
func NewEnhancedTracer(cfg Config) (*EnhancedTracer, error) {
	flat, err := NewTracer(cfg)
	if err != nil {
		return nil, err
	}
	return &EnhancedTracer{
		flat: flat,
		tree: NewCallTree(),
	}, nil
}

// WithClock replaces the clock on both the flat path and the call tree.
// Enables clock injection for deterministic testing.
func (t *EnhancedTracer) WithClock(clock clockz.Clock) *EnhancedTracer {
	t.flat.WithClock(clock)
	t.tree = t.tree.WithClock(clock)
	return t
}

// WithLogger replaces the auto-output sink.
func (t *EnhancedTracer) WithLogger(logger Logger) *EnhancedTracer {
	t.flat.WithLogger(logger)
	return t
}

// Tree exposes the underlying call tree for direct inspection.
func (t *EnhancedTracer) Tree() *CallTree {
	return t.tree
}

// Start opens an instrumented operation, forwarding it to both the flat
// ledger path and the call tree when hierarchy tracking is enabled.
func (t *EnhancedTracer) Start(ctx context.Context, name Key) (context.Context, *Call) {
	ctx, sc := scopeFrom(ctx)
	outermost := sc.enter(string(name))

	call := &Call{
		tracer:     t.flat,
		scope:      sc,
		name:       string(name),
		start:      t.flat.clock.Now(),
		suppressed: !outermost,
	}

	if !call.suppressed && t.flat.cfg.TrackHierarchy {
		call.tree = t.tree
		t.tree.StartCallScoped(sc.id, name)
	}

	return ctx, call
}

// Trace runs fn as an instrumented operation. The error from fn is returned
// unchanged; a panic inside fn is recorded as a failed call and re-raised.
func (t *EnhancedTracer) Trace(ctx context.Context, name Key, fn func(context.Context) error) error {
	ctx, call := t.Start(ctx, name)
	return runTraced(ctx, call, fn)
}

// RecordCall forwards a pre-measured call to the flat ledger path. It does
// not touch the call tree; hierarchy requires Start/End pairing.
func (t *EnhancedTracer) RecordCall(name Key, duration time.Duration, status Status, err error) {
	t.flat.RecordCall(name, duration, status, err)
}

// FlatTracer exposes the flat-ledger path.
func (t *EnhancedTracer) FlatTracer() *Tracer {
	return t.flat
}

// FetchResults returns the flat-ledger snapshot.
func (t *EnhancedTracer) FetchResults() Results {
	return t.flat.FetchResults()
}

// FetchEnhancedResults returns the flat snapshot together with the call
// hierarchy and its statistics. Each piece is copied out under its own
// lock.
func (t *EnhancedTracer) FetchEnhancedResults() EnhancedResults {
	return EnhancedResults{
		FlatCalls:     t.flat.FetchResults(),
		CallHierarchy: t.tree.CallHierarchy(),
		Stats:         t.tree.Statistics(),
	}
}

// ClearResults clears both the flat ledger and the call tree.
func (t *EnhancedTracer) ClearResults() {
	t.flat.ClearResults()
	t.tree.Clear()
}

// CurrentDepth reports how many instrumented calls are open on ctx's
// logical execution context. Returns 0 for contexts that never passed
// through Start.
func (t *EnhancedTracer) CurrentDepth(ctx context.Context) int {
	if ctx == nil {
		return 0
	}
	if sc, ok := ctx.Value(scopeKey).(*callScope); ok {
		return t.tree.ScopeDepth(sc.id)
	}
	return 0
}

// IsEmpty reports whether no instrumented call is in flight anywhere.
func (t *EnhancedTracer) IsEmpty() bool {
	return t.tree.IsEmpty()
}

// FormatTree renders the current hierarchy snapshot.
func (t *EnhancedTracer) FormatTree(opts RenderOptions) string {
	return Render(t.tree.CallHierarchy(), opts)
}

// PrintTree writes the rendered hierarchy to w, or to stdout when w is nil.
func (t *EnhancedTracer) PrintTree(w io.Writer, opts RenderOptions) {
	if w == nil {
		w = os.Stdout
	}
	fmt.Fprintln(w, t.FormatTree(opts))
}

// Close releases the call tree's ID pool.
func (t *EnhancedTracer) Close() {
	t.tree.Close()
}
