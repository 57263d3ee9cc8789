package verify

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/codehunt/internal/challenge"
	"github.com/abhisek/codehunt/internal/editor"
)

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

// fire runs the newest timer that has not been stopped.
func (c *fakeClock) fire(t *testing.T) {
	t.Helper()
	c.mu.Lock()
	var next *fakeTimer
	for i := len(c.timers) - 1; i >= 0; i-- {
		if !c.timers[i].stopped {
			next = c.timers[i]
			break
		}
	}
	c.mu.Unlock()
	if next == nil {
		t.Fatal("no armed timer")
	}
	next.stopped = true
	next.f()
}

func (c *fakeClock) armed() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped {
			n++
		}
	}
	return n
}

type recorder struct {
	results []Result
}

func (r *recorder) callback(res Result) { r.results = append(r.results, res) }

const sampleSource = `package users

type UserService struct{}

func (s *UserService) FindUser(id int) error {
	return nil
}
`

type fixture struct {
	hub   *editor.Hub
	docs  *editor.Buffers
	clock *fakeClock
}

func newFixture() *fixture {
	f := &fixture{hub: editor.NewHub(), docs: editor.NewBuffers(nil), clock: &fakeClock{}}
	f.docs.Update("/ws/src/users.go", sampleSource)
	return f
}

func (f *fixture) navigation() *NavigationVerifier {
	return NewNavigationVerifier(f.hub, f.docs, Options{AfterFunc: f.clock.AfterFunc}, zerolog.Nop())
}

func (f *fixture) modification() *ModificationVerifier {
	return NewModificationVerifier(f.hub, f.docs, Options{AfterFunc: f.clock.AfterFunc}, zerolog.Nop())
}

func navChallenge(target challenge.Target) *challenge.Challenge {
	return &challenge.Challenge{ID: "c1", Kind: challenge.KindNavigation, Title: "t", Target: target}
}

func TestNavigation_LineTolerance(t *testing.T) {
	tests := []struct {
		line    int
		success bool
	}{
		{42, true},
		{45, true},
		{39, true},
		{46, false},
		{38, false},
	}
	for _, tt := range tests {
		f := newFixture()
		v := f.navigation()
		var rec recorder
		v.Start(navChallenge(challenge.Target{FilePath: "src/users.go", LineNumber: 42}), rec.callback)

		f.hub.PublishSelection(editor.SelectionEvent{Path: "/ws/src/users.go", Line: tt.line})
		got := len(rec.results) == 1 && rec.results[0].Success
		if got != tt.success {
			t.Errorf("line %d: success = %v, want %v (results %+v)", tt.line, got, tt.success, rec.results)
		}
		if tt.success && rec.results[0].Message != "You found it!" {
			t.Errorf("line %d: message = %q", tt.line, rec.results[0].Message)
		}
	}
}

func TestNavigation_ContentMatches(t *testing.T) {
	tests := []struct {
		name   string
		target challenge.Target
		line   int
		want   string
	}{
		{"pattern", challenge.Target{FilePath: "users.go", Pattern: `func \(s \*UserService\)`}, 5, "Pattern matched!"},
		{"function", challenge.Target{FilePath: "users.go", FunctionName: "FindUser"}, 5, "Function found!"},
		{"class", challenge.Target{FilePath: "users.go", ClassName: "UserService"}, 3, "Class found!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			v := f.navigation()
			var rec recorder
			v.Start(navChallenge(tt.target), rec.callback)

			f.hub.PublishSelection(editor.SelectionEvent{Path: "/ws/src/users.go", Line: 1})
			if len(rec.results) != 0 {
				t.Fatalf("line 1 should not match, got %+v", rec.results)
			}
			f.hub.PublishActiveEditor(editor.EditorEvent{Path: "/ws/src/users.go", Line: tt.line})
			if len(rec.results) != 1 || !rec.results[0].Success || rec.results[0].Message != tt.want {
				t.Fatalf("results = %+v, want success %q", rec.results, tt.want)
			}
			if v.Active() {
				t.Error("verifier still active after success")
			}
			if f.hub.Listeners() != 0 {
				t.Errorf("listeners = %d after success", f.hub.Listeners())
			}
		})
	}
}

func TestNavigation_OtherFileIgnored(t *testing.T) {
	f := newFixture()
	f.docs.Update("/ws/src/other.go", sampleSource)
	v := f.navigation()
	var rec recorder
	v.Start(navChallenge(challenge.Target{FilePath: "users.go", LineNumber: 5}), rec.callback)

	f.hub.PublishSelection(editor.SelectionEvent{Path: "/ws/src/other.go", Line: 5})
	if len(rec.results) != 0 {
		t.Fatalf("expected no result, got %+v", rec.results)
	}
}

func TestNavigation_Timeout(t *testing.T) {
	f := newFixture()
	v := f.navigation()
	var rec recorder
	v.Start(navChallenge(challenge.Target{FilePath: "users.go", LineNumber: 5}), rec.callback)

	if d := f.clock.timers[0].d; d != DefaultNavigationTimeout {
		t.Fatalf("timeout = %v, want %v", d, DefaultNavigationTimeout)
	}
	f.clock.fire(t)
	if len(rec.results) != 1 || rec.results[0].Success {
		t.Fatalf("results = %+v, want one failure", rec.results)
	}
	if rec.results[0].Outcome() != "timeout" {
		t.Errorf("Outcome = %q, want timeout", rec.results[0].Outcome())
	}
	if rec.results[0].Message != MsgTimeLimit || rec.results[0].Details != MsgTimeLimitDetail {
		t.Errorf("unexpected failure %+v", rec.results[0])
	}

	// Late events are ignored.
	f.hub.PublishSelection(editor.SelectionEvent{Path: "/ws/src/users.go", Line: 5})
	if len(rec.results) != 1 {
		t.Fatalf("callback ran %d times", len(rec.results))
	}
}

func TestNavigation_CancelIsSilent(t *testing.T) {
	f := newFixture()
	v := f.navigation()
	var rec recorder
	v.Start(navChallenge(challenge.Target{FilePath: "users.go", LineNumber: 5}), rec.callback)
	v.Cancel()
	v.Cancel()

	f.hub.PublishSelection(editor.SelectionEvent{Path: "/ws/src/users.go", Line: 5})
	if len(rec.results) != 0 {
		t.Fatalf("expected no callback, got %+v", rec.results)
	}
	if f.clock.armed() != 0 {
		t.Errorf("timer still armed after cancel")
	}
	if f.hub.Listeners() != 0 {
		t.Errorf("listeners = %d after cancel", f.hub.Listeners())
	}
}

func TestNavigation_RestartReplacesPrevious(t *testing.T) {
	f := newFixture()
	v := f.navigation()
	var first, second recorder
	v.Start(navChallenge(challenge.Target{FilePath: "users.go", LineNumber: 5}), first.callback)
	v.Start(navChallenge(challenge.Target{FilePath: "users.go", LineNumber: 3}), second.callback)

	f.hub.PublishSelection(editor.SelectionEvent{Path: "/ws/src/users.go", Line: 3})
	if len(first.results) != 0 {
		t.Errorf("replaced verification called back: %+v", first.results)
	}
	if len(second.results) != 1 || !second.results[0].Success {
		t.Errorf("second results = %+v", second.results)
	}
}

func modChallenge(pattern string) *challenge.Challenge {
	return &challenge.Challenge{
		ID:     "m1",
		Kind:   challenge.KindModification,
		Title:  "t",
		Target: challenge.Target{FilePath: "/ws/src/users.go", LineNumber: 5, Pattern: pattern},
	}
}

func TestModification_AdditionSucceeds(t *testing.T) {
	f := newFixture()
	v := f.modification()
	var rec recorder
	c := modChallenge("")
	v.Start(c, rec.callback)

	if d := f.clock.timers[0].d; d != DefaultModificationTimeout {
		t.Fatalf("timeout = %v, want %v", d, DefaultModificationTimeout)
	}

	// Unchanged text is no decision.
	f.hub.PublishDocument(editor.DocumentEvent{Path: "/ws/src/users.go", Text: sampleSource})
	if len(rec.results) != 0 {
		t.Fatalf("unchanged document resolved: %+v", rec.results)
	}

	edited := strings.Replace(sampleSource, "\treturn nil\n", "\t// lookup\n\treturn nil\n", 1)
	f.docs.Update("/ws/src/users.go", edited)
	f.hub.PublishDocument(editor.DocumentEvent{Path: "/ws/src/users.go", Text: edited})
	if len(rec.results) != 1 || !rec.results[0].Success || rec.results[0].Message != "Code successfully modified!" {
		t.Fatalf("results = %+v", rec.results)
	}

	out, ok := v.GetDiff(c)
	if !ok {
		t.Fatal("GetDiff reported no snapshot after success")
	}
	if !strings.Contains(out, "+\t// lookup") {
		t.Errorf("diff missing added line:\n%s", out)
	}
	if !strings.Contains(out, "--- a/ws/src/users.go") || !strings.Contains(out, "+++ b/ws/src/users.go") {
		t.Errorf("diff missing file header:\n%s", out)
	}
}

func TestModification_DeletionOnlyDoesNotSucceed(t *testing.T) {
	f := newFixture()
	v := f.modification()
	var rec recorder
	v.Start(modChallenge(""), rec.callback)

	edited := strings.Replace(sampleSource, "type UserService struct{}\n", "", 1)
	f.hub.PublishDocument(editor.DocumentEvent{Path: "/ws/src/users.go", Text: edited})
	if len(rec.results) != 0 {
		t.Fatalf("deletion resolved verification: %+v", rec.results)
	}
	if !v.Active() {
		t.Error("verifier should keep listening")
	}
}

func TestModification_Pattern(t *testing.T) {
	f := newFixture()
	v := f.modification()
	var rec recorder
	v.Start(modChallenge(`ctx context\.Context`), rec.callback)

	// A change that does not satisfy the pattern is no decision.
	other := sampleSource + "\n// note\n"
	f.hub.PublishDocument(editor.DocumentEvent{Path: "/ws/src/users.go", Text: other})
	if len(rec.results) != 0 {
		t.Fatalf("non-matching edit resolved: %+v", rec.results)
	}

	// Removing lines still succeeds once the pattern matches.
	edited := strings.Replace(sampleSource, "FindUser(id int)", "FindUser(ctx context.Context, id int)", 1)
	edited = strings.Replace(edited, "type UserService struct{}\n", "", 1)
	f.hub.PublishDocument(editor.DocumentEvent{Path: "/ws/src/users.go", Text: edited})
	if len(rec.results) != 1 || !rec.results[0].Success || rec.results[0].Message != "Pattern found in code!" {
		t.Fatalf("results = %+v", rec.results)
	}
}

func TestModification_OpenFailure(t *testing.T) {
	f := newFixture()
	v := f.modification()
	var rec recorder
	c := modChallenge("")
	c.Target.FilePath = "/ws/missing/nowhere.go"
	v.Start(c, rec.callback)

	if len(rec.results) != 1 || rec.results[0].Success {
		t.Fatalf("results = %+v, want immediate failure", rec.results)
	}
	if !errors.Is(rec.results[0].Err, ErrTargetFileMissing) || rec.results[0].Outcome() != "missing_file" {
		t.Errorf("Err = %v, want ErrTargetFileMissing", rec.results[0].Err)
	}
	if rec.results[0].Message != MsgOpenFailed || rec.results[0].Details != MsgOpenFailedHint {
		t.Errorf("unexpected failure %+v", rec.results[0])
	}
	if f.hub.Listeners() != 0 || len(f.clock.timers) != 0 {
		t.Error("listeners or timer armed after open failure")
	}
	if v.Active() {
		t.Error("verifier active after open failure")
	}
}

func TestModification_CancelDropsSnapshot(t *testing.T) {
	f := newFixture()
	v := f.modification()
	var rec recorder
	c := modChallenge("")
	v.Start(c, rec.callback)

	if _, ok := v.Snapshot(c.ID); !ok {
		t.Fatal("expected snapshot")
	}
	v.Cancel()
	if _, ok := v.GetDiff(c); ok {
		t.Error("GetDiff after cancel should report no snapshot")
	}
	if len(rec.results) != 0 {
		t.Errorf("cancel invoked callback: %+v", rec.results)
	}
}

func TestModification_Timeout(t *testing.T) {
	f := newFixture()
	v := f.modification()
	var rec recorder
	v.Start(modChallenge(""), rec.callback)

	f.clock.fire(t)
	if len(rec.results) != 1 || rec.results[0].Message != MsgTimeLimit {
		t.Fatalf("results = %+v", rec.results)
	}
	if f.hub.Listeners() != 0 {
		t.Errorf("listeners = %d after timeout", f.hub.Listeners())
	}
}

func TestRenderDiff(t *testing.T) {
	out, err := RenderDiff("/x/a.go", "one\ntwo\nthree\n", "one\n2\nthree\n")
	if err != nil {
		t.Fatalf("RenderDiff: %v", err)
	}
	for _, want := range []string{"@@ -1,3 +1,3 @@", " one\n", "-two\n", "+2\n", " three\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff missing %q:\n%s", want, out)
		}
	}

	out, err = RenderDiff("/x/a.go", "same\n", "same\n")
	if err != nil || out != "" {
		t.Errorf("unchanged = (%q, %v), want empty", out, err)
	}
}

func TestCountChanges(t *testing.T) {
	added, removed := CountChanges(DiffLines("a\nb\n", "a\nc\nd\n"))
	if added != 2 || removed != 1 {
		t.Errorf("CountChanges = (%d, %d), want (2, 1)", added, removed)
	}
}
