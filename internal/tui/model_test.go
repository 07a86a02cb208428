package tui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zahlentech/str8up_server/internal/str8up"
	"github.com/zahlentech/str8up_server/internal/workflow"
)

type fakeController struct {
	mu        sync.Mutex
	snap      workflow.Snapshot
	submitted *str8up.OnboardingInput
	lead      *str8up.LeadSubmission
	emailedTo string
	resets    int
	leadErr   error
	pdfErr    error
}

func newFakeController() *fakeController {
	return &fakeController{snap: workflow.Snapshot{Stage: workflow.StageInfo}}
}

func (f *fakeController) Snapshot() workflow.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snap
}

func (f *fakeController) move(from, to workflow.Stage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.snap.Stage != from {
		return workflow.ErrInvalidTransition
	}
	f.snap.Stage = to
	return nil
}

func (f *fakeController) Begin() error   { return f.move(workflow.StageInfo, workflow.StageOnboarding) }
func (f *fakeController) ViewCTA() error { return f.move(workflow.StageResults, workflow.StageCTA) }

func (f *fakeController) SubmitOnboarding(in str8up.OnboardingInput) error {
	if err := in.Validate(); err != nil {
		return err
	}
	f.mu.Lock()
	f.submitted = &in
	f.mu.Unlock()
	return f.move(workflow.StageOnboarding, workflow.StageProcessing)
}

func (f *fakeController) SubmitLead(_ context.Context, contact str8up.LeadSubmission) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lead = &contact
	if f.leadErr != nil {
		f.snap.Error = workflow.MsgLeadFailed
		return f.leadErr
	}
	f.snap.LeadSubmitted = true
	f.snap.LeadID = "lead-1"
	return nil
}

func (f *fakeController) EmailResults(_ context.Context, email, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailedTo = email
	f.snap.EmailSent = true
	return nil
}

func (f *fakeController) DownloadPDF(context.Context) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pdfErr != nil {
		return nil, f.pdfErr
	}
	return []byte("%PDF-1.3 " + f.snap.SessionID), nil
}

func (f *fakeController) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets++
	f.snap = workflow.Snapshot{Stage: workflow.StageInfo}
}

func (f *fakeController) set(snap workflow.Snapshot) {
	f.mu.Lock()
	f.snap = snap
	f.mu.Unlock()
}

func key(k string) tea.KeyMsg {
	switch k {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	case "ctrl+c":
		return tea.KeyMsg{Type: tea.KeyCtrlC}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

// press sends keys and runs the workflow commands they return.
func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(key(k))
		m = next.(Model)
		m = drain(m, cmd)
	}
	return m
}

// drain feeds back SnapshotMsg and actionDoneMsg results. Cursor blinks are
// dropped.
func drain(m Model, cmd tea.Cmd) Model {
	if cmd == nil {
		return m
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()

	var msg tea.Msg
	select {
	case msg = <-done:
	case <-time.After(50 * time.Millisecond):
		return m
	}
	switch msg.(type) {
	case SnapshotMsg, actionDoneMsg:
		next, _ := m.Update(msg)
		return next.(Model)
	}
	return m
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return next.(Model)
}

func newTestModel(wf Controller) Model {
	m := New(wf)
	m.render = func(md string, _ int) string { return md }
	return m
}

func TestModel_InfoToOnboarding(t *testing.T) {
	wf := newFakeController()
	m := newTestModel(wf)
	assert.Contains(t, m.View(), "str8up Map")

	m = press(t, m, "enter")
	assert.Equal(t, workflow.StageOnboarding, m.snap.Stage)
	assert.Contains(t, m.View(), "Step 1 of 4")
}

func TestModel_OnboardingValidatesEachStep(t *testing.T) {
	wf := newFakeController()
	m := press(t, newTestModel(wf), "enter")

	m = press(t, m, "enter")
	assert.Equal(t, 0, m.form.page)
	assert.Contains(t, m.View(), "Please answer every question")

	// size: small, provider: aws
	m = press(t, m, "right", "down", "right", "enter")
	assert.Equal(t, 1, m.form.page)
	assert.NotContains(t, m.View(), "Please answer every question")

	// complexity 50 -> 60
	m = press(t, m, "right", "right", "enter")
	assert.Equal(t, 2, m.form.page)

	// budget: over5m via wrap-around
	m = press(t, m, "left", "enter")
	assert.Equal(t, 3, m.form.page)

	m = press(t, m, "esc")
	assert.Equal(t, 2, m.form.page)
	m = press(t, m, "enter")

	// risk: low, compliance: multiple
	m = press(t, m, "right", "down", "left", "enter")

	require.NotNil(t, wf.submitted)
	assert.Equal(t, str8up.OnboardingInput{
		BusinessSize:  str8up.BusinessSmall,
		CloudProvider: str8up.CloudAWS,
		Complexity:    60,
		BudgetBracket: str8up.BudgetOver5m,
		RiskTolerance: str8up.RiskLow,
		Compliance:    str8up.ComplianceMultiple,
	}, *wf.submitted)
	assert.Equal(t, workflow.StageProcessing, m.snap.Stage)
}

func TestModel_EscOnFirstStepResets(t *testing.T) {
	wf := newFakeController()
	m := press(t, newTestModel(wf), "enter", "esc")
	assert.Equal(t, 1, wf.resets)
	assert.Equal(t, workflow.StageInfo, m.snap.Stage)
}

func TestModel_ComplexityClamped(t *testing.T) {
	f := newOnboardingForm()
	f.page = 1
	for i := 0; i < 30; i++ {
		f.adjust(1)
	}
	assert.Equal(t, 100, f.complexity)
	for i := 0; i < 30; i++ {
		f.adjust(-1)
	}
	assert.Equal(t, 0, f.complexity)
	assert.NoError(t, f.validatePage())
}

func TestModel_ProcessingView(t *testing.T) {
	wf := newFakeController()
	m := newTestModel(wf)

	next, _ := m.Update(SnapshotMsg(workflow.Snapshot{
		Stage: workflow.StageProcessing,
		Status: str8up.ProcessingStatus{
			Status:                    str8up.StatusProcessing,
			Progress:                  45,
			CurrentStep:               "Benchmarking spend against similar organizations",
			EstimatedSecondsRemaining: 6,
		},
	}))
	m = next.(Model)
	view := m.View()
	assert.Contains(t, view, "Benchmarking spend")
	assert.Contains(t, view, "45%")
	assert.Contains(t, view, "About 6s remaining")

	next, _ = m.Update(SnapshotMsg(workflow.Snapshot{
		Stage: workflow.StageProcessing,
		Error: workflow.MsgPollFailed,
	}))
	assert.Contains(t, next.(Model).View(), workflow.MsgPollFailed)
}

func TestModel_ResultsToCTAToThankYou(t *testing.T) {
	wf := newFakeController()
	in := str8up.OnboardingInput{
		BusinessSize:  str8up.BusinessMedium,
		CloudProvider: str8up.CloudAzure,
		Complexity:    60,
		BudgetBracket: str8up.Budget500kTo1m,
		RiskTolerance: str8up.RiskMedium,
		Compliance:    str8up.ComplianceNone,
	}
	report := str8up.GenerateReport("sess-1", in, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	wf.set(workflow.Snapshot{Stage: workflow.StageResults, SessionID: "sess-1", Report: report})

	m := newTestModel(wf)
	next, _ := m.Update(SnapshotMsg(wf.Snapshot()))
	m = next.(Model)
	assert.Contains(t, m.View(), "str8up Map Analysis")

	m = press(t, m, "c")
	assert.Equal(t, workflow.StageCTA, m.snap.Stage)
	assert.Contains(t, m.View(), "Talk to a str8up architect")

	// empty name is rejected locally
	m = press(t, m, "tab", "tab", "tab", "enter")
	assert.Nil(t, wf.lead)
	assert.Contains(t, m.View(), "valid email")

	m = press(t, m, "tab")
	assert.Equal(t, ctaName, m.ctaFocus)
	m = typeText(t, m, "Dana")
	m = press(t, m, "tab")
	m = typeText(t, m, "dana@example.com")
	m = press(t, m, "enter", "enter", "enter")

	require.NotNil(t, wf.lead)
	assert.Equal(t, "Dana", wf.lead.Name)
	assert.Equal(t, "dana@example.com", wf.lead.Email)
	assert.Contains(t, m.View(), "Thank you!")

	m = press(t, m, "m")
	assert.Equal(t, "dana@example.com", wf.emailedTo)
	assert.Contains(t, m.View(), "on their way")
}

func TestModel_ResultsSavePDF(t *testing.T) {
	wf := newFakeController()
	report := str8up.GenerateReport("sess-1", str8up.OnboardingInput{
		BusinessSize: str8up.BusinessSmall, CloudProvider: str8up.CloudAWS, Complexity: 40,
		BudgetBracket: str8up.Budget100kTo500, RiskTolerance: str8up.RiskLow, Compliance: str8up.ComplianceNone,
	}, time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC))
	wf.set(workflow.Snapshot{Stage: workflow.StageResults, SessionID: "sess-1", Report: report})

	m := newTestModel(wf)
	m.pdfDir = t.TempDir()
	next, _ := m.Update(SnapshotMsg(wf.Snapshot()))
	m = next.(Model)

	m = press(t, m, "p")
	path := filepath.Join(m.pdfDir, "sess-1.pdf")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 sess-1", string(data))
	assert.Contains(t, m.View(), "Saved report to "+path)

	wf.mu.Lock()
	wf.pdfErr = fmt.Errorf("%w: 409", workflow.ErrPDFFailed)
	wf.mu.Unlock()
	m = press(t, m, "p")
	assert.Contains(t, m.View(), workflow.MsgPDFFailed)

	m = press(t, m, "r")
	assert.Equal(t, workflow.StageInfo, m.snap.Stage)
	assert.Empty(t, m.notice)
}

func TestModel_LeadFailureShowsError(t *testing.T) {
	wf := newFakeController()
	wf.leadErr = fmt.Errorf("%w: boom", workflow.ErrLeadFailed)
	wf.set(workflow.Snapshot{Stage: workflow.StageCTA, SessionID: "sess-1"})

	m := newTestModel(wf)
	m = typeText(t, m, "Dana")
	m = press(t, m, "tab")
	m = typeText(t, m, "dana@example.com")
	m = press(t, m, "tab", "tab", "enter")

	require.NotNil(t, wf.lead)
	view := m.View()
	assert.Contains(t, view, workflow.MsgLeadFailed)
	assert.NotContains(t, view, "Thank you!")
}

func TestModel_CtrlCQuits(t *testing.T) {
	m := newTestModel(newFakeController())
	next, cmd := m.Update(key("ctrl+c"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, next.(Model).View())
}

func TestModel_ResultsRenderedOncePerSession(t *testing.T) {
	wf := newFakeController()
	calls := 0
	m := New(wf)
	m.render = func(md string, _ int) string {
		calls++
		return md
	}

	report := str8up.GenerateReport("sess-1", str8up.OnboardingInput{
		BusinessSize: str8up.BusinessSmall, CloudProvider: str8up.CloudGCP, Complexity: 20,
		BudgetBracket: str8up.BudgetUnder100k, RiskTolerance: str8up.RiskLow, Compliance: str8up.ComplianceGDPR,
	}, time.Now())
	snap := workflow.Snapshot{Stage: workflow.StageResults, SessionID: "sess-1", Report: report}
	for i := 0; i < 3; i++ {
		next, _ := m.Update(SnapshotMsg(snap))
		m = next.(Model)
	}
	assert.Equal(t, 1, calls)
	assert.True(t, strings.Contains(m.View(), "Overall score"))
}

func TestModel_DropsOlderSnapshots(t *testing.T) {
	m := newTestModel(newFakeController())

	next, _ := m.Update(SnapshotMsg(workflow.Snapshot{Version: 5, Stage: workflow.StageInfo}))
	m = next.(Model)
	next, _ = m.Update(SnapshotMsg(workflow.Snapshot{
		Version:   3,
		Stage:     workflow.StageProcessing,
		SessionID: "sess-old",
		Status:    str8up.ProcessingStatus{Status: str8up.StatusProcessing, Progress: 20},
	}))
	m = next.(Model)

	assert.Equal(t, workflow.StageInfo, m.snap.Stage)
	assert.Equal(t, uint64(5), m.snap.Version)
	assert.Empty(t, m.snap.SessionID)

	next, _ = m.Update(SnapshotMsg(workflow.Snapshot{Version: 6, Stage: workflow.StageOnboarding}))
	assert.Equal(t, workflow.StageOnboarding, next.(Model).snap.Stage)
}

func TestRenderMarkdown(t *testing.T) {
	out := ansi.Strip(renderMarkdown("# Hello\n\nplain text", 40))
	for _, word := range []string{"Hello", "plain", "text"} {
		assert.Contains(t, out, word)
	}
}
