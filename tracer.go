package callz

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/xid"
	"github.com/zoobzio/clockz"
)

// scopeKeyType is a private type for context keys to avoid collisions.
type scopeKeyType string

const scopeKey scopeKeyType = "callz"

// callScope is the per-logical-execution-context state carried through
// context.Context: a stable identity for the call tree's active stack and
// the set of operation names currently in flight on this path. It replaces
// thread-local re-entrancy flags with an explicit context-scoped value.
type callScope struct {
	inFlight map[string]int
	id       string
	mu       sync.Mutex
}

func newCallScope() *callScope {
	return &callScope{
		id:       xid.New().String(),
		inFlight: make(map[string]int),
	}
}

// scopeFrom returns the scope carried by ctx, or creates one and returns a
// derived context carrying it. A nil ctx starts a fresh context.
func scopeFrom(ctx context.Context) (context.Context, *callScope) {
	if ctx == nil {
		ctx = context.Background()
	}
	if sc, ok := ctx.Value(scopeKey).(*callScope); ok {
		return ctx, sc
	}
	sc := newCallScope()
	return context.WithValue(ctx, scopeKey, sc), sc
}

// enter marks name as in flight and reports whether this is the outermost
// invocation of name on this scope.
func (s *callScope) enter(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inFlight[name]++
	return s.inFlight[name] == 1
}

// exit unmarks one invocation of name.
func (s *callScope) exit(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inFlight[name] <= 1 {
		delete(s.inFlight, name)
		return
	}
	s.inFlight[name]--
}

// Result is one entry in the flat tracer's bounded ledger.
//
//nolint:govet // Field alignment optimized for JSON serialization order
type Result struct {
	Timestamp time.Time     `json:"timestamp"`
	Duration  time.Duration `json:"duration"`
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Err       error         `json:"-"`
}

// Results is a point-in-time snapshot of the flat ledger. The slice is a
// copy; mutating it does not affect the tracer.
type Results struct {
	Calls      []Result      `json:"calls"`
	TotalCalls int           `json:"total_calls"`
	TotalTime  time.Duration `json:"total_time"`
}

// Tracer records threshold-filtered call timings into a bounded FIFO
// ledger. Safe for concurrent use by multiple goroutines.
type Tracer struct {
	calls  []Result
	cfg    Config
	clock  clockz.Clock
	logger Logger
	mu     sync.Mutex
}

// NewTracer creates a flat tracer. The configuration is validated here; an
// invalid configuration is a construction error, not a runtime surprise.
func NewTracer(cfg Config) (*Tracer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Tracer{
		cfg:    cfg,
		clock:  clockz.RealClock,
		logger: NewLogger(os.Stderr),
	}, nil
}

// WithClock replaces the tracer's clock.
// Enables clock injection for deterministic testing.
func (t *Tracer) WithClock(clock clockz.Clock) *Tracer {
	t.clock = clock
	return t
}

// WithLogger replaces the auto-output sink. A nil logger discards output.
func (t *Tracer) WithLogger(logger Logger) *Tracer {
	if logger == nil {
		logger = NopLogger{}
	}
	t.logger = logger
	return t
}

// Config returns the tracer's configuration.
func (t *Tracer) Config() Config {
	return t.cfg
}

// Call is the token returned by Start for one in-flight operation. End
// completes it; End is safe to call multiple times, subsequent calls are
// no-ops. A Call suppressed by the recursion guard carries no measurement
// and records nothing.
type Call struct {
	tracer     *Tracer
	tree       *CallTree
	scope      *callScope
	start      time.Time
	name       string
	mu         sync.Mutex
	suppressed bool
	finished   bool
}

// Suppressed reports whether the recursion guard collapsed this call into
// an enclosing invocation of the same operation.
func (c *Call) Suppressed() bool {
	return c.suppressed
}

// Start opens an instrumented operation on ctx's logical execution context
// and returns the derived context plus the call token. If the same
// operation name is already in flight on this context, the returned token
// is suppressed: the operation still runs, only the outermost invocation is
// timed and recorded.
func (t *Tracer) Start(ctx context.Context, name Key) (context.Context, *Call) {
	ctx, sc := scopeFrom(ctx)
	outermost := sc.enter(string(name))

	return ctx, &Call{
		tracer:     t,
		scope:      sc,
		name:       string(name),
		start:      t.clock.Now(),
		suppressed: !outermost,
	}
}

// End completes the call. A nil err marks success, non-nil marks error; the
// error is captured on the record but never swallowed - the caller still
// owns propagating it.
func (c *Call) End(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.finished {
		return
	}
	c.finished = true
	c.scope.exit(c.name)

	if c.suppressed {
		return
	}

	status := StatusSuccess
	if err != nil {
		status = StatusError
	}

	if c.tree != nil {
		c.tree.EndCallScoped(c.scope.id, status, err)
	}
	c.tracer.RecordCall(c.name, c.tracer.clock.Now().Sub(c.start), status, err)
}

// Trace runs fn as an instrumented operation. The error from fn is returned
// unchanged; a panic inside fn is recorded as a failed call and re-raised.
func (t *Tracer) Trace(ctx context.Context, name Key, fn func(context.Context) error) error {
	ctx, call := t.Start(ctx, name)
	return runTraced(ctx, call, fn)
}

// runTraced executes fn and completes call with its outcome. Bookkeeping
// never masks the operation's own result.
func runTraced(ctx context.Context, call *Call, fn func(context.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			call.End(fmt.Errorf("panic: %v", r))
			panic(r)
		}
		call.End(err)
	}()
	return fn(ctx)
}

// RecordCall appends one completed call to the bounded ledger. Calls
// shorter than the configured threshold are discarded; they ran, they just
// are not stored. When the ledger is full the oldest entry is evicted
// first.
func (t *Tracer) RecordCall(name Key, duration time.Duration, status Status, err error) {
	if duration < t.cfg.Threshold {
		return
	}

	res := Result{
		Name:      string(name),
		Duration:  duration,
		Status:    status,
		Err:       err,
		Timestamp: t.clock.Now(),
	}

	t.mu.Lock()
	if len(t.calls) >= t.cfg.MaxCalls {
		n := copy(t.calls, t.calls[1:])
		t.calls = t.calls[:n]
	}
	t.calls = append(t.calls, res)
	t.mu.Unlock()

	if t.cfg.AutoOutput {
		t.logCall(res)
	}
}

// logCall emits one line per recorded call: info for success, warning for
// error.
func (t *Tracer) logCall(res Result) {
	if res.Status == StatusError {
		t.logger.Warnf("%s failed in %s: %v", res.Name, FormatDuration(res.Duration), res.Err)
		return
	}
	t.logger.Infof("%s completed in %s", res.Name, FormatDuration(res.Duration))
}

// FetchResults returns a point-in-time snapshot of the bounded ledger,
// taken under the same lock as writes.
func (t *Tracer) FetchResults() Results {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := Results{Calls: make([]Result, len(t.calls))}
	copy(out.Calls, t.calls)
	out.TotalCalls = len(out.Calls)
	for _, call := range out.Calls {
		out.TotalTime += call.Duration
	}
	return out
}

// ClearResults atomically empties the bounded ledger.
func (t *Tracer) ClearResults() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.calls = nil
}
