package callz

import (
	"sync"

	"github.com/zoobzio/clockz"
)

// DefaultScope is the scope used by the unscoped CallTree operations.
// Callers driving the tree from a single logical execution context can
// ignore scoping entirely.
const DefaultScope = ""

// idPoolCapacity is sized for bursts of call starts between refills.
const idPoolCapacity = 256

// CallTree maintains the active call stacks, the root-call hierarchy, and a
// flat ledger of completed calls. Safe for concurrent use by multiple
// goroutines.
//
// Active stacks are keyed by scope identity so concurrent logical execution
// contexts never interleave into one another's LIFO discipline. The flat
// ledger is logically unbounded; it is meant to be read through Statistics
// and released with Clear. A call that never ends stays pending on its
// stack indefinitely - that is caller misuse, not something the tree times
// out on its own.
type CallTree struct {
	stacks map[string][]*CallRecord
	roots  []*CallRecord
	ledger []*CallRecord
	clock  clockz.Clock
	idPool *IDPool
	idOnce sync.Once
	mu     sync.Mutex
}

// NewCallTree creates an empty call tree using the real clock.
func NewCallTree() *CallTree {
	return &CallTree{
		stacks: make(map[string][]*CallRecord),
		clock:  clockz.RealClock,
	}
}

// WithClock returns a new call tree with the specified clock.
// Enables clock injection for deterministic testing.
func (*CallTree) WithClock(clock clockz.Clock) *CallTree {
	return &CallTree{
		stacks: make(map[string][]*CallRecord),
		clock:  clock,
	}
}

// ensureIDPool initializes the record ID pool if not already created.
func (t *CallTree) ensureIDPool() {
	t.idOnce.Do(func() {
		t.idPool = NewIDPool(idPoolCapacity, nil)
	})
}

// StartCall opens a pending call on the default scope.
func (t *CallTree) StartCall(name Key) *CallRecord {
	return t.StartCallScoped(DefaultScope, name)
}

// StartCallScoped creates a pending call record on the given scope's stack.
// The record's depth is the stack size at start and its parent is the
// current stack top; root calls join the root list. The returned record is
// the caller's token and must be treated as read-only.
func (t *CallTree) StartCallScoped(scope string, name Key) *CallRecord {
	t.ensureIDPool()
	id := t.idPool.Get()
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	stack := t.stacks[scope]
	rec := &CallRecord{
		ID:        id,
		Name:      string(name),
		Depth:     len(stack),
		StartTime: now,
		Status:    StatusPending,
	}

	if n := len(stack); n > 0 {
		top := stack[n-1]
		rec.parent = top
		rec.ParentID = top.ID
		top.Children = append(top.Children, rec)
	} else {
		t.roots = append(t.roots, rec)
	}
	t.stacks[scope] = append(stack, rec)

	return rec
}

// EndCall completes the innermost call on the default scope.
func (t *CallTree) EndCall(status Status, err error) *CallRecord {
	return t.EndCallScoped(DefaultScope, status, err)
}

// EndCallScoped pops the given scope's stack, stamps status, error, and
// duration on the record, and appends it to the flat ledger. An end with no
// matching start returns nil without touching any state: unbalanced calls
// are a caller bug that must not crash the host program.
func (t *CallTree) EndCallScoped(scope string, status Status, err error) *CallRecord {
	now := t.clock.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	stack := t.stacks[scope]
	n := len(stack)
	if n == 0 {
		return nil
	}

	rec := stack[n-1]
	if n == 1 {
		delete(t.stacks, scope)
	} else {
		t.stacks[scope] = stack[:n-1]
	}

	rec.Status = status
	rec.Err = err
	rec.Duration = now.Sub(rec.StartTime)
	if rec.Duration < 0 {
		rec.Duration = 0
	}
	t.ledger = append(t.ledger, rec)

	return rec
}

// CurrentDepth returns the number of in-flight calls on the default scope.
func (t *CallTree) CurrentDepth() int {
	return t.ScopeDepth(DefaultScope)
}

// ScopeDepth returns the number of in-flight calls on the given scope.
func (t *CallTree) ScopeDepth(scope string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stacks[scope])
}

// IsEmpty reports whether no call is currently in flight on any scope.
func (t *CallTree) IsEmpty() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.stacks) == 0
}

// CallHierarchy returns a deep-copied snapshot of the root-call list.
// The snapshot never observes later mutation of the live tree.
func (t *CallTree) CallHierarchy() []*CallRecord {
	t.mu.Lock()
	defer t.mu.Unlock()

	if len(t.roots) == 0 {
		return nil
	}
	out := make([]*CallRecord, len(t.roots))
	for i, root := range t.roots {
		out[i] = root.clone(nil)
	}
	return out
}

// Statistics aggregates the flat ledger. An empty ledger yields zero totals
// and empty rankings.
func (t *CallTree) Statistics() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	return computeStats(t.ledger)
}

// Clear atomically empties the ledger, every active stack, and the root
// list.
func (t *CallTree) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stacks = make(map[string][]*CallRecord)
	t.roots = nil
	t.ledger = nil
}

// Close releases the ID pool goroutine. The tree remains usable afterward;
// IDs are then generated inline.
func (t *CallTree) Close() {
	t.ensureIDPool()
	t.idPool.Close()
}
