package verify

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/codehunt/internal/challenge"
	"github.com/abhisek/codehunt/internal/editor"
)

// ModificationVerifier succeeds when the target file is edited the way the
// challenge asks.
type ModificationVerifier struct {
	events editor.Events
	docs   editor.Documents
	opts   Options
	log    zerolog.Logger

	mu       sync.Mutex
	active   *modRecord
	snapshot *Snapshot
}

// Snapshot is the target file's text when verification started.
type Snapshot struct {
	ChallengeID string
	Path        string
	Text        string
	TakenAt     time.Time
}

type modRecord struct {
	challenge *challenge.Challenge
	pattern   *regexp.Regexp
	before    string
	callback  func(Result)
	subs      []editor.Subscription
	timer     Timer
	resolved  bool
}

// NewModificationVerifier creates a verifier over an editor.
func NewModificationVerifier(events editor.Events, docs editor.Documents, opts Options, log zerolog.Logger) *ModificationVerifier {
	return &ModificationVerifier{
		events: events,
		docs:   docs,
		opts:   opts.withDefaults(DefaultModificationTimeout),
		log:    log.With().Str("verifier", "modification").Logger(),
	}
}

// Start snapshots the target file and watches it for edits. If the file
// cannot be opened the callback runs immediately with a failure.
func (v *ModificationVerifier) Start(c *challenge.Challenge, callback func(Result)) {
	v.Cancel()

	doc, err := v.docs.OpenDocument(c.Target.FilePath)
	if err != nil {
		v.log.Warn().Err(err).Str("path", c.Target.FilePath).Msg("cannot open modification target")
		callback(Failed(MsgOpenFailed, MsgOpenFailedHint, fmt.Errorf("%w: %w", ErrTargetFileMissing, err)))
		return
	}

	rec := &modRecord{challenge: c, before: doc.Text, callback: callback}
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
	v.snapshot = &Snapshot{
		ChallengeID: c.ID,
		Path:        doc.Path,
		Text:        doc.Text,
		TakenAt:     time.Now(),
	}
	v.mu.Unlock()

	subs := []editor.Subscription{
		v.events.OnDocumentChanged(func(ev editor.DocumentEvent) {
			v.check(rec, ev)
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
		release(subs, timer)
		return
	}

	v.log.Debug().Str("challenge", c.ID).Str("target", c.Target.FilePath).Msg("modification verification started")
}

// Cancel stops the running verification without invoking its callback and
// discards the snapshot.
func (v *ModificationVerifier) Cancel() {
	v.mu.Lock()
	rec := v.active
	v.active = nil
	v.snapshot = nil
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
func (v *ModificationVerifier) Active() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.active != nil
}

// Snapshot returns the snapshot taken for the challenge with id.
func (v *ModificationVerifier) Snapshot(id string) (Snapshot, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.snapshot == nil || v.snapshot.ChallengeID != id {
		return Snapshot{}, false
	}
	return *v.snapshot, true
}

// GetDiff renders the changes made to c's target since its verification
// started. It reports false when there is no snapshot for c or nothing
// changed.
func (v *ModificationVerifier) GetDiff(c *challenge.Challenge) (string, bool) {
	if c == nil {
		return "", false
	}
	snap, ok := v.Snapshot(c.ID)
	if !ok {
		return "", false
	}
	doc, err := v.docs.OpenDocument(snap.Path)
	if err != nil {
		v.log.Debug().Err(err).Str("path", snap.Path).Msg("cannot reopen target for diff")
		return "", false
	}
	out, err := RenderDiff(snap.Path, snap.Text, doc.Text)
	if err != nil {
		v.log.Warn().Err(err).Msg("render diff")
		return "", false
	}
	return out, out != ""
}

func (v *ModificationVerifier) check(rec *modRecord, ev editor.DocumentEvent) {
	v.mu.Lock()
	live := v.active == rec && !rec.resolved
	v.mu.Unlock()
	if !live || !strings.Contains(ev.Path, rec.challenge.Target.FilePath) {
		return
	}

	added, removed := CountChanges(DiffLines(rec.before, ev.Text))
	if added == 0 && removed == 0 {
		return
	}

	if rec.pattern != nil {
		if rec.pattern.MatchString(ev.Text) {
			v.resolve(rec, Succeeded("Pattern found in code!", rec.challenge.ExpectedAction))
		}
		return
	}
	if added > 0 {
		v.resolve(rec, Succeeded("Code successfully modified!", rec.challenge.ExpectedAction))
	}
}

func (v *ModificationVerifier) resolve(rec *modRecord, r Result) {
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
	v.log.Debug().Str("challenge", rec.challenge.ID).Bool("success", r.Success).Msg("modification verification resolved")
	rec.callback(r)
}
