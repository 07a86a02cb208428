// Package workflow drives the str8up Map assessment:
// Info -> Onboarding -> Processing -> Results -> CTA.
//
// The workflow owns the session, the polling loop against the analysis
// service and every stage transition. Presentation code reads Snapshot and
// calls back into the exported methods; it never mutates state directly.
package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/str8up"
)

type Stage string

const (
	StageInfo       Stage = "info"
	StageOnboarding Stage = "onboarding"
	StageProcessing Stage = "processing"
	StageResults    Stage = "results"
	StageCTA        Stage = "cta"
)

const DefaultPollInterval = 2 * time.Second

// Messages shown to the visitor.
const (
	MsgStartFailed    = "We couldn't start your analysis. Please refresh and try again."
	MsgPollFailed     = "Lost contact with the analysis service. Please refresh and retry."
	MsgAnalysisFailed = "The analysis could not be completed. Please refresh and retry."
	MsgFetchFailed    = "Your analysis finished but the results could not be loaded. Please refresh and retry."
	MsgLeadFailed     = "Failed to submit form. Please try again or contact us directly."
	MsgSessionMissing = "Session expired. Please restart the assessment."
	MsgEmailFailed    = "We couldn't email your results. Please try again."
	MsgPDFFailed      = "We couldn't download your PDF report. Please try again."
)

var (
	ErrInvalidTransition = errors.New("workflow: action not allowed in current stage")
	ErrSessionMissing    = errors.New("workflow: no active session")
	ErrLeadFailed        = errors.New("workflow: lead submission failed")
	ErrEmailFailed       = errors.New("workflow: results email failed")
	ErrPDFFailed         = errors.New("workflow: pdf download failed")
	ErrClosed            = errors.New("workflow: closed")
)

// Gateway is the remote analysis service.
type Gateway interface {
	StartAnalysis(ctx context.Context, in str8up.OnboardingInput) (string, error)
	CheckStatus(ctx context.Context, sessionID string) (str8up.ProcessingStatus, error)
	FetchResults(ctx context.Context, sessionID string) (json.RawMessage, error)
	SubmitLead(ctx context.Context, lead str8up.LeadSubmission) (string, error)
	EmailResults(ctx context.Context, sessionID, email, recipientName string) error
	DownloadPDF(ctx context.Context, sessionID string) ([]byte, error)
}

type Options struct {
	PollInterval time.Duration
	Logger       logger.Logger
	Now          func() time.Time
}

// Snapshot is an immutable view of the workflow for rendering. Version
// increases with every state change.
type Snapshot struct {
	Version       uint64
	Stage         Stage
	Input         str8up.OnboardingInput
	SessionID     string
	Status        str8up.ProcessingStatus
	Report        *str8up.AnalysisReport
	Error         string
	Submitting    bool
	LeadID        string
	LeadSubmitted bool
	EmailSent     bool
}

type Workflow struct {
	gw       Gateway
	log      logger.Logger
	interval time.Duration
	now      func() time.Time

	root     context.Context
	shutdown context.CancelFunc
	wg       sync.WaitGroup

	mu        sync.Mutex
	closed    bool
	epoch     uint64
	cancel    context.CancelFunc
	poll      *poller
	fetched   bool
	state     Snapshot
	listeners []func(Snapshot)
	changed   chan struct{}
}

func New(gw Gateway, opts Options) *Workflow {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	root, shutdown := context.WithCancel(context.Background())
	w := &Workflow{
		gw:       gw,
		log:      opts.Logger,
		interval: opts.PollInterval,
		now:      opts.Now,
		root:     root,
		shutdown: shutdown,
		state:    Snapshot{Stage: StageInfo},
		changed:  make(chan struct{}, 1),
	}
	w.wg.Add(1)
	go w.dispatch()
	return w
}

// OnChange registers a listener for state changes. Listeners are called
// from a single goroutine, one snapshot at a time, and never receive a
// snapshot older than one already delivered. Bursts of changes may be
// coalesced into the latest snapshot.
func (w *Workflow) OnChange(fn func(Snapshot)) {
	w.mu.Lock()
	w.listeners = append(w.listeners, fn)
	w.mu.Unlock()
}

func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Begin moves from Info to Onboarding.
func (w *Workflow) Begin() error {
	w.log.UserAction("start_assessment")
	return w.transition(StageInfo, StageOnboarding, nil)
}

// ViewCTA moves from Results to the contact form, keeping the session.
func (w *Workflow) ViewCTA() error {
	w.log.UserAction("view_cta")
	return w.transition(StageResults, StageCTA, nil)
}

// SubmitOnboarding validates the form, enters Processing and starts the
// analysis in the background. Validation errors leave the stage unchanged.
func (w *Workflow) SubmitOnboarding(in str8up.OnboardingInput) error {
	w.log.UserAction("submit_onboarding", "cloud_provider", in.CloudProvider, "budget", in.BudgetBracket)
	if err := in.Validate(); err != nil {
		return err
	}

	var (
		ctx   context.Context
		epoch uint64
	)
	err := w.transition(StageOnboarding, StageProcessing, func() {
		w.epoch++
		epoch = w.epoch
		ctx, w.cancel = context.WithCancel(w.root)
		w.fetched = false
		w.state.Input = in
		w.state.Error = ""
		w.state.Status = str8up.ProcessingStatus{Status: str8up.StatusPending}
		w.wg.Add(1)
	})
	if err != nil {
		return err
	}

	go w.run(ctx, epoch, in)
	return nil
}

// SubmitLead sends the contact form. Without a session nothing is sent.
func (w *Workflow) SubmitLead(ctx context.Context, contact str8up.LeadSubmission) error {
	w.log.UserAction("submit_lead")

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.state.SessionID == "" {
		w.state.Error = MsgSessionMissing
		w.publishLocked()
		w.mu.Unlock()
		w.log.Warn("lead submission blocked", "reason", "session missing")
		w.notify()
		return ErrSessionMissing
	}
	if w.state.Stage != StageCTA || w.state.Submitting || w.state.LeadSubmitted {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	contact.SessionID = w.state.SessionID
	if err := contact.Validate(); err != nil {
		w.mu.Unlock()
		return err
	}
	epoch := w.epoch
	w.state.Submitting = true
	w.state.Error = ""
	w.publishLocked()
	w.mu.Unlock()
	w.notify()

	leadID, err := w.gw.SubmitLead(ctx, contact)

	var result error
	w.commit(epoch, func() {
		w.state.Submitting = false
		if err != nil {
			w.state.Error = MsgLeadFailed
			result = fmt.Errorf("%w: %v", ErrLeadFailed, err)
			return
		}
		w.state.LeadID = leadID
		w.state.LeadSubmitted = true
	})
	if err != nil {
		w.log.Error("lead submission failed", "session_id", contact.SessionID, "error", err)
		if result == nil {
			result = fmt.Errorf("%w: %v", ErrLeadFailed, err)
		}
	}
	return result
}

// EmailResults asks the service to email the report to the visitor.
func (w *Workflow) EmailResults(ctx context.Context, email, recipientName string) error {
	w.log.UserAction("email_results")

	w.mu.Lock()
	if w.state.SessionID == "" {
		w.mu.Unlock()
		return ErrSessionMissing
	}
	if w.state.Stage != StageResults && w.state.Stage != StageCTA {
		w.mu.Unlock()
		return ErrInvalidTransition
	}
	sessionID, epoch := w.state.SessionID, w.epoch
	w.mu.Unlock()

	err := w.gw.EmailResults(ctx, sessionID, email, recipientName)
	w.commit(epoch, func() {
		if err != nil {
			w.state.Error = MsgEmailFailed
			return
		}
		w.state.EmailSent = true
	})
	if err != nil {
		w.log.Error("results email failed", "session_id", sessionID, "error", err)
		return fmt.Errorf("%w: %v", ErrEmailFailed, err)
	}
	return nil
}

// DownloadPDF fetches the rendered report of the current session.
func (w *Workflow) DownloadPDF(ctx context.Context) ([]byte, error) {
	w.log.UserAction("download_pdf")

	w.mu.Lock()
	if w.state.SessionID == "" {
		w.mu.Unlock()
		return nil, ErrSessionMissing
	}
	if w.state.Stage != StageResults && w.state.Stage != StageCTA {
		w.mu.Unlock()
		return nil, ErrInvalidTransition
	}
	sessionID := w.state.SessionID
	w.mu.Unlock()

	pdf, err := w.gw.DownloadPDF(ctx, sessionID)
	if err != nil {
		w.log.Error("pdf download failed", "session_id", sessionID, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPDFFailed, err)
	}
	w.log.Info("pdf downloaded", "session_id", sessionID, "bytes", len(pdf))
	return pdf, nil
}

// Reset abandons the current session and returns to Info. Responses still
// in flight for the old session are discarded when they arrive.
func (w *Workflow) Reset() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	from := w.state.Stage
	w.teardownLocked()
	w.state = Snapshot{Version: w.state.Version, Stage: StageInfo}
	w.publishLocked()
	w.mu.Unlock()

	w.log.StageTransition(string(from), string(StageInfo), "reason", "reset")
	w.notify()
}

// Close stops all background work and waits for it to exit.
func (w *Workflow) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		w.teardownLocked()
		w.shutdown()
	}
	w.mu.Unlock()
	w.wg.Wait()
}

func (w *Workflow) teardownLocked() {
	w.epoch++
	if w.poll != nil {
		w.poll.Stop()
		w.poll = nil
	}
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
	w.fetched = false
}

// transition moves from -> to, applying mutate under the lock.
func (w *Workflow) transition(from, to Stage, mutate func()) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	if w.state.Stage != from {
		current := w.state.Stage
		w.mu.Unlock()
		return fmt.Errorf("%w: %s -> %s from %s", ErrInvalidTransition, from, to, current)
	}
	if mutate != nil {
		mutate()
	}
	w.state.Stage = to
	snap := w.publishLocked()
	w.mu.Unlock()

	w.log.StageTransition(string(from), string(to), "session_id", snap.SessionID)
	w.notify()
	return nil
}

// commit applies mutate only if epoch is still current.
func (w *Workflow) commit(epoch uint64, mutate func()) bool {
	w.mu.Lock()
	if w.closed || w.epoch != epoch {
		w.mu.Unlock()
		return false
	}
	mutate()
	w.publishLocked()
	w.mu.Unlock()

	w.notify()
	return true
}

// publishLocked stamps the state with the next version.
func (w *Workflow) publishLocked() Snapshot {
	w.state.Version++
	return w.state
}

// notify wakes the dispatcher without blocking the caller.
func (w *Workflow) notify() {
	select {
	case w.changed <- struct{}{}:
	default:
	}
}

// dispatch delivers the latest state to the listeners until Close.
func (w *Workflow) dispatch() {
	defer w.wg.Done()

	var delivered uint64
	for {
		select {
		case <-w.root.Done():
			return
		case <-w.changed:
		}

		w.mu.Lock()
		snap := w.state
		listeners := append([]func(Snapshot){}, w.listeners...)
		w.mu.Unlock()

		if snap.Version <= delivered {
			continue
		}
		delivered = snap.Version
		for _, fn := range listeners {
			fn(snap)
		}
	}
}
