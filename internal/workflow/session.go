package workflow

import (
	"context"

	"github.com/zahlentech/str8up_server/internal/str8up"
)

// run executes one session: start, poll until terminal, fetch once.
func (w *Workflow) run(ctx context.Context, epoch uint64, in str8up.OnboardingInput) {
	defer w.wg.Done()

	sessionID, err := w.gw.StartAnalysis(ctx, in)
	if err != nil {
		w.log.Error("start analysis failed", "error", err)
		w.commit(epoch, func() { w.state.Error = MsgStartFailed })
		return
	}

	if !w.commit(epoch, func() { w.state.SessionID = sessionID }) {
		return
	}
	w.log.Info("analysis started", "session_id", sessionID)

	p := w.startPolling(ctx, epoch, sessionID)
	if p == nil {
		return
	}
	<-p.Done()

	if w.claimFetch(epoch) {
		w.fetch(ctx, epoch, sessionID, in)
	}
}

func (w *Workflow) startPolling(ctx context.Context, epoch uint64, sessionID string) *poller {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.epoch != epoch {
		return nil
	}
	w.poll = startPoller(ctx, w.interval, func(ctx context.Context) bool {
		return w.pollOnce(ctx, epoch, sessionID)
	})
	return w.poll
}

// pollOnce performs one status check and reports whether to keep polling.
func (w *Workflow) pollOnce(ctx context.Context, epoch uint64, sessionID string) bool {
	st, err := w.gw.CheckStatus(ctx, sessionID)

	keepPolling := false
	applied := w.commit(epoch, func() {
		if err != nil {
			w.state.Error = MsgPollFailed
			return
		}
		if st.Progress < w.state.Status.Progress {
			st.Progress = w.state.Status.Progress
		}
		switch st.Status {
		case str8up.StatusCompleted:
			st.Progress = 100
		case str8up.StatusFailed:
			w.state.Error = MsgAnalysisFailed
		default:
			keepPolling = true
		}
		w.state.Status = st
	})
	if !applied {
		// stale: the session was reset or the workflow closed
		return false
	}

	switch {
	case err != nil:
		w.log.Error("status poll failed", "session_id", sessionID, "error", err)
	case st.Status == str8up.StatusFailed:
		w.log.Warn("analysis failed", "session_id", sessionID)
	default:
		w.log.Debug("status polled", "session_id", sessionID, "status", st.Status, "progress", st.Progress)
	}
	return keepPolling
}

// claimFetch sets the has-fetched flag once the session has completed.
func (w *Workflow) claimFetch(epoch uint64) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed || w.epoch != epoch || w.fetched || w.state.Status.Status != str8up.StatusCompleted {
		return false
	}
	w.fetched = true
	w.poll = nil
	return true
}

func (w *Workflow) fetch(ctx context.Context, epoch uint64, sessionID string, in str8up.OnboardingInput) {
	raw, err := w.gw.FetchResults(ctx, sessionID)
	if err != nil {
		w.log.Error("fetch results failed", "session_id", sessionID, "error", err)
		w.commit(epoch, func() { w.state.Error = MsgFetchFailed })
		return
	}

	report := str8up.Transform(sessionID, raw, in, w.now())
	moved := w.commit(epoch, func() {
		w.state.Report = report
		w.state.Stage = StageResults
	})
	if moved {
		w.log.StageTransition(string(StageProcessing), string(StageResults), "session_id", sessionID, "overall_score", report.Meta.OverallScore)
	}
}
