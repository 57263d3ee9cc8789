// Package session runs the challenge loop: it generates challenges, arms
// the matching verifier, and applies results to the score.
package session

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"

	"github.com/abhisek/codehunt/internal/challenge"
	"github.com/abhisek/codehunt/internal/codecontext"
	"github.com/abhisek/codehunt/internal/editor"
	"github.com/abhisek/codehunt/internal/game"
	"github.com/abhisek/codehunt/internal/metrics"
	"github.com/abhisek/codehunt/internal/verify"
)

// Default delays before a new challenge starts on its own.
const (
	DefaultSkipRestartDelay   = 1 * time.Second
	DefaultResultRestartDelay = 2 * time.Second
)

// ErrStopped is returned when the orchestrator loop is not running.
var ErrStopped = errors.New("session stopped")

// Extractor builds a code digest from root directories.
type Extractor interface {
	Extract(ctx context.Context, roots []string) (*codecontext.CodeContext, error)
}

// Differ renders the edits made to a modification challenge's target.
type Differ interface {
	GetDiff(c *challenge.Challenge) (string, bool)
}

// Deps are the collaborators an Orchestrator drives.
type Deps struct {
	Extractor    Extractor
	Generator    challenge.Generator
	Navigation   verify.Verifier
	Modification verify.Verifier

	// Differ backs Diff. Optional.
	Differ Differ

	// Documents reveals modification targets in the editor. Optional.
	Documents editor.Documents

	Presenter Presenter

	// Game is the score to play against. Nil starts a fresh session.
	Game *game.Manager

	Metrics *metrics.Metrics
}

// Config tunes an Orchestrator.
type Config struct {
	// Roots are the directories challenges are drawn from.
	Roots []string

	SkipRestartDelay   time.Duration
	ResultRestartDelay time.Duration

	// AfterFunc schedules restarts. Nil uses verify.SystemAfterFunc.
	AfterFunc verify.AfterFunc
}

// Orchestrator serialises commands, generation results, and verification
// results onto one goroutine, so the challenge and game state are only ever
// touched from Run.
type Orchestrator struct {
	deps Deps
	cfg  Config
	log  zerolog.Logger

	inbox chan func()
	done  chan struct{}
	ctx   context.Context

	challenges *ChallengeStateManager
	game       *game.Manager

	generating bool
	genSeq     uint64

	restart    verify.Timer
	restartSeq uint64
}

// New creates an Orchestrator. Call Run to start processing.
func New(deps Deps, cfg Config, log zerolog.Logger) *Orchestrator {
	if cfg.SkipRestartDelay <= 0 {
		cfg.SkipRestartDelay = DefaultSkipRestartDelay
	}
	if cfg.ResultRestartDelay <= 0 {
		cfg.ResultRestartDelay = DefaultResultRestartDelay
	}
	if cfg.AfterFunc == nil {
		cfg.AfterFunc = verify.SystemAfterFunc
	}
	if deps.Presenter == nil {
		deps.Presenter = Presenters{}
	}
	g := deps.Game
	if g == nil {
		g = game.NewManager(deps.Metrics)
	}
	return &Orchestrator{
		deps:       deps,
		cfg:        cfg,
		log:        log.With().Str("component", "session").Logger(),
		inbox:      make(chan func(), 64),
		done:       make(chan struct{}),
		ctx:        context.Background(),
		challenges: NewChallengeStateManager(),
		game:       g,
	}
}

// Run processes work until ctx is done. In-flight verifications and a
// pending restart are cancelled on the way out.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.ctx = ctx
	defer close(o.done)
	defer o.shutdown()

	o.log.Info().Strs("roots", o.cfg.Roots).Msg("session started")
	o.render()
	for {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-o.inbox:
			fn()
		}
	}
}

// Dispatch queues a command.
func (o *Orchestrator) Dispatch(ctx context.Context, cmd Command) error {
	if !cmd.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}
	return o.post(ctx, func() { o.handle(cmd) })
}

// Snapshot returns the current game and challenge state.
func (o *Orchestrator) Snapshot(ctx context.Context) (Snapshot, error) {
	return call(ctx, o, o.snapshot)
}

// Diff renders the edits made so far to the current modification target.
// It reports false when there is nothing to show.
func (o *Orchestrator) Diff(ctx context.Context) (string, bool, error) {
	type result struct {
		text string
		ok   bool
	}
	r, err := call(ctx, o, func() result {
		text, ok := o.diff()
		return result{text, ok}
	})
	return r.text, r.ok, err
}

// Summary summarises the session so far.
func (o *Orchestrator) Summary(ctx context.Context) (*Summary, error) {
	return call(ctx, o, func() *Summary {
		return BuildSummary(o.game.State(), o.challenges.State(), time.Now())
	})
}

func call[T any](ctx context.Context, o *Orchestrator, fn func() T) (T, error) {
	var zero T
	reply := make(chan T, 1)
	if err := o.post(ctx, func() { reply <- fn() }); err != nil {
		return zero, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-o.done:
		return zero, ErrStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (o *Orchestrator) post(ctx context.Context, fn func()) error {
	select {
	case <-o.done:
		return ErrStopped
	default:
	}
	select {
	case o.inbox <- fn:
		return nil
	case <-o.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// postAsync queues fn without blocking the caller, which may be the loop
// itself.
func (o *Orchestrator) postAsync(fn func()) {
	select {
	case o.inbox <- fn:
	default:
		go o.post(context.Background(), fn)
	}
}

func (o *Orchestrator) handle(cmd Command) {
	o.log.Debug().Str("command", string(cmd)).Msg("command")
	switch cmd {
	case CommandStart:
		o.start()
	case CommandSubmit:
		o.submit()
	case CommandHint:
		o.hint()
	case CommandSkip:
		o.skip()
	}
}

func (o *Orchestrator) start() {
	o.cancelRestart()
	if len(o.cfg.Roots) == 0 {
		o.message("No workspace folder open", SeverityError)
		return
	}
	if o.generating {
		o.message("A challenge is already being generated", SeverityInfo)
		return
	}

	o.generating = true
	o.genSeq++
	seq := o.genSeq
	level := o.game.State().Level
	roots := slices.Clone(o.cfg.Roots)
	ctx := o.ctx

	o.message("Generating challenge...", SeverityInfo)
	o.render()

	started := time.Now()
	go func() {
		c, err := o.generate(ctx, roots, level)
		_ = o.post(context.Background(), func() {
			o.finishStart(seq, c, err, time.Since(started))
		})
	}()
}

func (o *Orchestrator) generate(ctx context.Context, roots []string, level int) (*challenge.Challenge, error) {
	cc, err := o.deps.Extractor.Extract(ctx, roots)
	if err != nil {
		return nil, fmt.Errorf("extract context: %w", err)
	}
	return o.deps.Generator.Generate(ctx, challenge.GenerateInput{Context: cc, Level: level})
}

func (o *Orchestrator) finishStart(seq uint64, c *challenge.Challenge, err error, elapsed time.Duration) {
	if seq != o.genSeq || !o.generating {
		return
	}
	o.generating = false
	o.deps.Metrics.ObserveGeneration(elapsed.Seconds())

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		o.deps.Metrics.GenerationFailed(failureReason(err))
		o.log.Warn().Err(err).Msg("challenge generation failed")
		o.message(failureMessage(err), SeverityError)
		o.render()
		return
	}

	o.deps.Metrics.Generated(string(c.Kind), string(c.Difficulty))
	o.log.Info().
		Str("challenge", c.ID).
		Str("kind", string(c.Kind)).
		Str("difficulty", string(c.Difficulty)).
		Str("target", c.Target.FilePath).
		Dur("elapsed", elapsed).
		Msg("challenge generated")

	// A restart scheduled by the challenge this one replaces is stale.
	o.cancelRestart()
	o.cancelVerifiers()
	o.challenges.SetCurrent(c)
	o.arm(c)
	o.message("Challenge started! "+c.Title, SeverityInfo)
	o.render()
}

func (o *Orchestrator) arm(c *challenge.Challenge) {
	v := o.verifierFor(c.Kind)
	if v == nil {
		o.log.Error().Str("kind", string(c.Kind)).Msg("no verifier for challenge kind")
		return
	}

	id, kind := c.ID, c.Kind
	o.challenges.SetAwaiting(true)
	v.Start(c, func(r verify.Result) {
		o.postAsync(func() { o.onResult(id, kind, r) })
	})

	if kind == challenge.KindModification && v.Active() && o.deps.Documents != nil {
		if err := o.deps.Documents.RevealLine(c.Target.FilePath, max(c.Target.LineNumber, 1)); err != nil {
			o.log.Warn().Err(err).Str("path", c.Target.FilePath).Msg("reveal target")
		}
	}
}

func (o *Orchestrator) onResult(id string, kind challenge.Kind, r verify.Result) {
	cur := o.challenges.Current()
	if cur == nil || cur.ID != id {
		o.log.Debug().Str("challenge", id).Msg("ignoring result for superseded challenge")
		return
	}
	o.deps.Metrics.Verified(string(kind), r.Outcome())
	if r.Success {
		o.succeed(r)
		return
	}
	o.fail(r)
}

func (o *Orchestrator) succeed(r verify.Result) {
	o.cancelVerifiers()
	usedHint := o.challenges.HintsUsed() > 0
	done := o.challenges.Complete()
	res := o.game.CompleteChallenge(usedHint)
	st := o.game.State()

	o.log.Info().
		Str("challenge", done.ID).
		Int("reward", res.Reward).
		Int("points", st.Points).
		Int("streak", st.Streak).
		Msg("challenge completed")

	o.deps.Presenter.Celebrate()
	o.message(r.Message, SeveritySuccess)
	if res.Milestone {
		o.message(fmt.Sprintf("%d challenge streak!", st.Streak), SeveritySuccess)
	}
	if res.LevelUp {
		o.message(fmt.Sprintf("Level up! You reached level %d", st.Level), SeveritySuccess)
	}
	o.render()
	o.scheduleRestart(o.cfg.ResultRestartDelay)
}

func (o *Orchestrator) fail(r verify.Result) {
	o.cancelVerifiers()
	done := o.challenges.Fail()
	o.game.FailChallenge()

	o.log.Info().Str("challenge", done.ID).Err(r.Err).Msg("challenge failed")

	text := r.Message
	if r.Details != "" {
		text += ". " + r.Details
	}
	o.message(text, SeverityError)
	o.render()
	o.scheduleRestart(o.cfg.ResultRestartDelay)
}

func (o *Orchestrator) submit() {
	cur := o.challenges.Current()
	if cur == nil {
		o.message("No active challenge", SeverityInfo)
		return
	}
	o.deps.Metrics.Verified(string(cur.Kind), "submitted")
	o.succeed(verify.Succeeded("Challenge submitted successfully!", cur.ExpectedAction))
}

func (o *Orchestrator) hint() {
	if o.challenges.Current() == nil {
		o.message("No active challenge", SeverityInfo)
		return
	}
	hint, ok := o.challenges.UseHint()
	if !ok {
		o.message("No more hints available", SeverityError)
		return
	}
	o.game.UseHint()
	o.message("Hint used! -10 points", SeverityInfo)
	o.message("Hint: "+hint, SeverityInfo)
	o.render()
}

func (o *Orchestrator) skip() {
	cur := o.challenges.Current()
	if cur == nil {
		o.message("No active challenge", SeverityInfo)
		return
	}
	o.cancelVerifiers()
	o.challenges.Skip()
	o.game.SkipChallenge()
	o.log.Info().Str("challenge", cur.ID).Msg("challenge skipped")

	o.message("Challenge skipped (-25 points)", SeverityInfo)
	o.render()
	o.scheduleRestart(o.cfg.SkipRestartDelay)
}

func (o *Orchestrator) diff() (string, bool) {
	cur := o.challenges.Current()
	if cur == nil || cur.Kind != challenge.KindModification || o.deps.Differ == nil {
		return "", false
	}
	return o.deps.Differ.GetDiff(cur)
}

func (o *Orchestrator) verifierFor(k challenge.Kind) verify.Verifier {
	switch k {
	case challenge.KindNavigation:
		return o.deps.Navigation
	case challenge.KindModification:
		return o.deps.Modification
	default:
		return nil
	}
}

func (o *Orchestrator) cancelVerifiers() {
	if o.deps.Navigation != nil {
		o.deps.Navigation.Cancel()
	}
	if o.deps.Modification != nil {
		o.deps.Modification.Cancel()
	}
}

func (o *Orchestrator) scheduleRestart(d time.Duration) {
	o.cancelRestart()
	seq := o.restartSeq
	o.restart = o.cfg.AfterFunc(d, func() {
		_ = o.post(context.Background(), func() {
			if seq != o.restartSeq {
				return
			}
			o.restart = nil
			o.start()
		})
	})
}

func (o *Orchestrator) cancelRestart() {
	o.restartSeq++
	if o.restart != nil {
		o.restart.Stop()
		o.restart = nil
	}
}

func (o *Orchestrator) shutdown() {
	o.cancelVerifiers()
	o.cancelRestart()
	o.log.Info().Msg("session stopped")
}

func (o *Orchestrator) snapshot() Snapshot {
	return Snapshot{
		Game:       o.game.State(),
		Challenge:  o.challenges.State(),
		Generating: o.generating,
	}
}

func (o *Orchestrator) render() {
	o.deps.Presenter.Render(o.snapshot())
}

func (o *Orchestrator) message(text string, sev Severity) {
	o.deps.Presenter.ShowMessage(text, sev)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, challenge.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, challenge.ErrProviderUnavailable):
		return "provider_unavailable"
	case errors.Is(err, challenge.ErrNoSourceFiles):
		return "no_source_files"
	case errors.Is(err, challenge.ErrEmptyGeneration):
		return "empty"
	case errors.Is(err, challenge.ErrInvalidGeneration):
		return "invalid"
	default:
		return "other"
	}
}

func failureMessage(err error) string {
	if errors.Is(err, challenge.ErrRateLimited) {
		return "The challenge provider is rate limiting requests. Wait a moment, then start again."
	}
	return fmt.Sprintf("Failed to generate challenge: %v", err)
}
