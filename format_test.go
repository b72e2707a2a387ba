package callz

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/clockz"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		in   time.Duration
		want string
	}{
		{time.Second, "1.0s"},
		{1500 * time.Millisecond, "1.5s"},
		{2345678 * time.Microsecond, "2.346s"},
		{12300 * time.Microsecond, "12.3ms"},
		{time.Millisecond, "1.0ms"},
		{999 * time.Millisecond, "999.0ms"},
		{100 * time.Microsecond, "100µs"},
		{999 * time.Microsecond, "999µs"},
		{0, "0µs"},
	}

	for _, tc := range cases {
		if got := FormatDuration(tc.in); got != tc.want {
			t.Errorf("FormatDuration(%v): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestRenderEmptyHierarchy(t *testing.T) {
	if got := Render(nil, RenderOptions{}); got != "No calls recorded." {
		t.Errorf("Expected no-calls message, got %q", got)
	}
	if got := Render([]*CallRecord{}, RenderOptions{}); got != "No calls recorded." {
		t.Errorf("Expected no-calls message for empty slice, got %q", got)
	}
}

// buildRenderTree constructs:
//
//	Service#process
//	├── Repo#load
//	│   └── DB#query
//	└── Cache#put (error)
func buildRenderTree(t *testing.T) []*CallRecord {
	t.Helper()

	fakeClock := clockz.NewFakeClock()
	tree := NewCallTree().WithClock(fakeClock)
	defer tree.Close()

	tree.StartCall("Service#process")
	tree.StartCall("Repo#load")
	tree.StartCall("DB#query")
	fakeClock.Advance(800 * time.Microsecond)
	tree.EndCall(StatusSuccess, nil)
	fakeClock.Advance(200 * time.Microsecond)
	tree.EndCall(StatusSuccess, nil)
	tree.StartCall("Cache#put")
	fakeClock.Advance(200 * time.Microsecond)
	tree.EndCall(StatusError, errors.New("cache full"))
	fakeClock.Advance(300 * time.Microsecond)
	tree.EndCall(StatusSuccess, nil)

	return tree.CallHierarchy()
}

func TestRenderTreeStructure(t *testing.T) {
	out := Render(buildRenderTree(t), RenderOptions{ShowErrors: true})
	lines := strings.Split(out, "\n")

	if lines[0] != "Call Hierarchy" {
		t.Errorf("Expected header, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "====") {
		t.Errorf("Expected separator rule, got %q", lines[1])
	}

	assertContains := func(want string) {
		t.Helper()
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q\noutput:\n%s", want, out)
		}
	}

	assertContains("Service#process 1.5ms\n")
	assertContains("├── Repo#load 1.0ms\n")
	assertContains("│   └── DB#query 800µs\n")
	assertContains("└── Cache#put 200µs ✗\n")
	assertContains("    Error: *errors.errorString: cache full\n")

	assertContains("Total calls: 4\n")
	assertContains("Total time: 3.5ms\n")
	assertContains("Unique methods: 4\n")
	assertContains("Max depth: 2\n")
	assertContains("Slowest methods (by average):\n")
	assertContains("Most called methods:\n")
	assertContains("1. Service#process: 1.5ms\n")
}

func TestRenderErrorLineHiddenByDefault(t *testing.T) {
	out := Render(buildRenderTree(t), RenderOptions{})

	if !strings.Contains(out, "✗") {
		t.Error("Expected inline error marker regardless of ShowErrors")
	}
	if strings.Contains(out, "Error:") {
		t.Error("Expected no Error: line when ShowErrors is off")
	}
}

func TestRenderColorizeDecoratesOnly(t *testing.T) {
	roots := buildRenderTree(t)

	plain := Render(roots, RenderOptions{ShowErrors: true})
	colored := Render(roots, RenderOptions{ShowErrors: true, Colorize: true})

	if plain == colored {
		t.Error("Expected colorized output to differ")
	}
	if stripANSI(colored) != plain {
		t.Errorf("Expected colorization to decorate only\nplain:\n%s\nstripped:\n%s",
			plain, stripANSI(colored))
	}
}

func stripANSI(s string) string {
	for _, code := range []string{ansiReset, ansiRed, ansiYellow, ansiCyan} {
		s = strings.ReplaceAll(s, code, "")
	}
	return s
}

func TestRenderSiblingConnectors(t *testing.T) {
	tree := NewCallTree()
	defer tree.Close()

	tree.StartCall("root")
	for _, name := range []string{"one", "two", "three"} {
		tree.StartCall(name)
		tree.EndCall(StatusSuccess, nil)
	}
	tree.EndCall(StatusSuccess, nil)

	out := Render(tree.CallHierarchy(), RenderOptions{})

	if !strings.Contains(out, "├── one") || !strings.Contains(out, "├── two") {
		t.Errorf("Expected mid connectors for non-last siblings:\n%s", out)
	}
	if !strings.Contains(out, "└── three") {
		t.Errorf("Expected last connector for final sibling:\n%s", out)
	}
	if strings.Contains(out, "└── one") || strings.Contains(out, "├── three") {
		t.Errorf("Connector assignment wrong:\n%s", out)
	}
}

func TestRenderTopFiveLimit(t *testing.T) {
	fakeClock := clockz.NewFakeClock()
	tree := NewCallTree().WithClock(fakeClock)
	defer tree.Close()

	names := []string{"m1", "m2", "m3", "m4", "m5", "m6", "m7"}
	for _, name := range names {
		tree.StartCall(name)
		fakeClock.Advance(time.Millisecond)
		tree.EndCall(StatusSuccess, nil)
	}

	out := Render(tree.CallHierarchy(), RenderOptions{})

	if !strings.Contains(out, "  5. ") {
		t.Errorf("Expected five ranked entries:\n%s", out)
	}
	if strings.Contains(out, "  6. ") {
		t.Errorf("Expected ranking capped at five:\n%s", out)
	}
}
