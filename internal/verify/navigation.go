package verify

import (
	"regexp"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/abhisek/codehunt/internal/challenge"
	"github.com/abhisek/codehunt/internal/editor"
)

// LineTolerance is how far the cursor may be from the target line.
const LineTolerance = 3

// NavigationVerifier succeeds when the cursor lands on the challenge target.
type NavigationVerifier struct {
	events editor.Events
	docs   editor.Documents
	opts   Options
	log    zerolog.Logger

	mu     sync.Mutex
	active *navRecord
}

type navRecord struct {
	challenge *challenge.Challenge
	pattern   *regexp.Regexp
	callback  func(Result)
	subs      []editor.Subscription
	timer     Timer
	resolved  bool
}

// NewNavigationVerifier creates a verifier over an editor.
func NewNavigationVerifier(events editor.Events, docs editor.Documents, opts Options, log zerolog.Logger) *NavigationVerifier {
	return &NavigationVerifier{
		events: events,
		docs:   docs,
		opts:   opts.withDefaults(DefaultNavigationTimeout),
		log:    log.With().Str("verifier", "navigation").Logger(),
	}
}

// Start begins watching for c. A verification already running is cancelled
// silently. The callback runs at most once, on the goroutine that resolved
// the verification.
func (v *NavigationVerifier) Start(c *challenge.Challenge, callback func(Result)) {
	v.Cancel()

	rec := &navRecord{challenge: c, callback: callback}
	if c.Target.Pattern != "" {
		re, err := regexp.Compile(c.Target.Pattern)
		if err != nil {
			callback(Failed(MsgBadPattern, err.Error(), err))
			return
		}
		rec.pattern = re
	}

	v.mu.Lock()
	v.active = rec
	v.mu.Unlock()

	subs := []editor.Subscription{
		v.events.OnActiveEditorChanged(func(ev editor.EditorEvent) {
			v.check(rec, ev.Path, ev.Line)
		}),
		v.events.OnSelectionChanged(func(ev editor.SelectionEvent) {
			v.check(rec, ev.Path, ev.Line)
		}),
	}
	timer := v.opts.AfterFunc(v.opts.Timeout, func() {
		v.resolve(rec, timedOut())
	})

	v.mu.Lock()
	rec.subs, rec.timer = subs, timer
	stale := rec.resolved
	v.mu.Unlock()
	if stale {
		// Resolved or cancelled while arming.
		release(subs, timer)
		return
	}

	v.log.Debug().Str("challenge", c.ID).Str("target", c.Target.FilePath).Msg("navigation verification started")
}

// Cancel stops the running verification without invoking its callback.
func (v *NavigationVerifier) Cancel() {
	v.mu.Lock()
	rec := v.active
	v.active = nil
	if rec == nil {
		v.mu.Unlock()
		return
	}
	rec.resolved = true
	subs, timer := rec.subs, rec.timer
	v.mu.Unlock()

	release(subs, timer)
}

// Active reports whether a verification is running.
func (v *NavigationVerifier) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active != nil
}

func (v *NavigationVerifier) current(rec *navRecord) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active == rec && !rec.resolved
}

func (v *NavigationVerifier) check(rec *navRecord, path string, line int) {
	if !v.current(rec) || line < 1 {
		return
	}
	target := rec.challenge.Target
	if !strings.Contains(path, target.FilePath) {
		return
	}

	if target.LineNumber > 0 && abs(line-target.LineNumber) <= LineTolerance {
		v.resolve(rec, Succeeded("You found it!", rec.challenge.ExpectedAction))
		return
	}

	text, ok := v.lineText(path, line)
	if !ok {
		return
	}
	switch {
	case rec.pattern != nil && rec.pattern.MatchString(text):
		v.resolve(rec, Succeeded("Pattern matched!", rec.challenge.ExpectedAction))
	case target.FunctionName != "" && strings.Contains(text, target.FunctionName):
		v.resolve(rec, Succeeded("Function found!", rec.challenge.ExpectedAction))
	case target.ClassName != "" && strings.Contains(text, target.ClassName):
		v.resolve(rec, Succeeded("Class found!", rec.challenge.ExpectedAction))
	}
}

func (v *NavigationVerifier) lineText(path string, line int) (string, bool) {
	doc, err := v.docs.OpenDocument(path)
	if err != nil {
		v.log.Debug().Err(err).Str("path", path).Msg("cannot read cursor line")
		return "", false
	}
	return doc.LineAt(line)
}

func (v *NavigationVerifier) resolve(rec *navRecord, r Result) {
	v.mu.Lock()
	if rec.resolved || v.active != rec {
		v.mu.Unlock()
		return
	}
	rec.resolved = true
	v.active = nil
	subs, timer := rec.subs, rec.timer
	v.mu.Unlock()

	release(subs, timer)
	v.log.Debug().Str("challenge", rec.challenge.ID).Bool("success", r.Success).Msg("navigation verification resolved")
	rec.callback(r)
}

// release drops the listeners and timer of a finished verification.
func release(subs []editor.Subscription, timer Timer) {
	for _, s := range subs {
		s.Unsubscribe()
	}
	if timer != nil {
		timer.Stop()
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
