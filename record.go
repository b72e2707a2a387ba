package callz

import "time"

// Status describes the lifecycle state of a call record.
type Status string

const (
	// StatusPending marks a call that is still on an active stack.
	StatusPending Status = "pending"
	// StatusSuccess marks a call that completed normally.
	StatusSuccess Status = "success"
	// StatusError marks a call whose operation failed.
	StatusError Status = "error"
)

// CallRecord is one observed invocation of an instrumented operation.
// Records are created and completed by a CallTree. Records returned from
// CallHierarchy are deep copies and safe to hold; the live record returned
// by StartCall must be treated as read-only by the caller.
//
//nolint:govet // Field alignment optimized for JSON serialization order
type CallRecord struct {
	Children  []*CallRecord `json:"children,omitempty"`
	StartTime time.Time     `json:"start_time"`
	Duration  time.Duration `json:"duration"`
	ID        string        `json:"id"`
	ParentID  string        `json:"parent_id,omitempty"`
	Name      string        `json:"name"`
	Status    Status        `json:"status"`
	Err       error         `json:"-"`
	Depth     int           `json:"depth"`

	// parent is a weak back-link for display and debugging. Ownership flows
	// one way, root to children; parent is never used to free or copy nodes.
	parent *CallRecord
}

// Parent returns the enclosing call record, or nil for a root call.
func (r *CallRecord) Parent() *CallRecord {
	return r.parent
}

// Failed reports whether the call completed with an error.
func (r *CallRecord) Failed() bool {
	return r.Status == StatusError
}

// clone deep-copies the record and its subtree, rewiring parent links so the
// copy never aliases live tree state. Err values are shared; errors are not
// mutated after capture.
func (r *CallRecord) clone(parent *CallRecord) *CallRecord {
	if r == nil {
		return nil
	}

	cp := *r
	cp.parent = parent
	if len(r.Children) > 0 {
		cp.Children = make([]*CallRecord, len(r.Children))
		for i, child := range r.Children {
			cp.Children[i] = child.clone(&cp)
		}
	}
	return &cp
}
