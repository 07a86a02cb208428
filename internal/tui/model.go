// Package tui is the terminal front end of the assessment. The view is a
// function of the workflow snapshot plus local form state; every action is
// a call back into the workflow.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/zahlentech/str8up_server/internal/str8up"
	"github.com/zahlentech/str8up_server/internal/workflow"
)

// Controller is the part of the workflow the UI drives.
type Controller interface {
	Snapshot() workflow.Snapshot
	Begin() error
	SubmitOnboarding(in str8up.OnboardingInput) error
	ViewCTA() error
	SubmitLead(ctx context.Context, contact str8up.LeadSubmission) error
	EmailResults(ctx context.Context, email, recipientName string) error
	DownloadPDF(ctx context.Context) ([]byte, error)
	Reset()
}

// SnapshotMsg carries a workflow state change into the program.
type SnapshotMsg workflow.Snapshot

type actionDoneMsg struct {
	action string
	err    error
}

const (
	ctaName = iota
	ctaEmail
	ctaCompany
	ctaPhone
	ctaFields
)

type Model struct {
	wf     Controller
	snap   workflow.Snapshot
	styles Styles

	form     onboardingForm
	formErr  string
	bar      progress.Model
	results  viewport.Model
	rendered string // session whose report is in the viewport
	render   func(md string, width int) string

	contact  [ctaFields]textinput.Model
	ctaFocus int
	ctaErr   string
	notice   string
	pdfDir   string
	pdfPath  string
	width    int
	height   int
	quitting bool
}

func New(wf Controller) Model {
	m := Model{
		wf:      wf,
		snap:    wf.Snapshot(),
		styles:  DefaultStyles(),
		form:    newOnboardingForm(),
		bar:     progress.New(progress.WithDefaultGradient()),
		results: viewport.New(80, 20),
		render:  renderMarkdown,
		pdfDir:  ".",
		width:   80,
		height:  24,
	}

	placeholders := [ctaFields]string{"Full name", "Work email", "Company (optional)", "Phone (optional)"}
	for i := range m.contact {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 200
		m.contact[i] = ti
	}
	m.contact[ctaName].Focus()
	return m
}

func renderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return out
}

// apply keeps the newest snapshot; deliveries that lost a race are dropped.
func (m *Model) apply(s workflow.Snapshot) {
	if s.Version < m.snap.Version {
		return
	}
	m.snap = s
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.bar.Width = msg.Width - 8
		m.results.Width = msg.Width
		m.results.Height = msg.Height - 4
		m.rendered = ""
		m.syncResults()
		return m, nil

	case SnapshotMsg:
		m.apply(workflow.Snapshot(msg))
		m.syncResults()
		return m, nil

	case actionDoneMsg:
		m.apply(m.wf.Snapshot())
		if msg.err != nil {
			m.notice = ""
			if msg.action == "pdf" {
				m.notice = workflow.MsgPDFFailed
			}
			if errors.Is(msg.err, str8up.ErrInvalidLead) {
				m.ctaErr = msg.err.Error()
			}
			return m, nil
		}
		switch msg.action {
		case "email":
			m.notice = "Results sent to " + strings.TrimSpace(m.contact[ctaEmail].Value())
		case "pdf":
			m.notice = "Saved report to " + m.pdfPath
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.quitting = true
			return m, tea.Quit
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.snap.Stage {
	case workflow.StageInfo:
		switch msg.String() {
		case "enter", " ":
			m.form = newOnboardingForm()
			m.formErr = ""
			return m, m.call(m.wf.Begin)
		case "q", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case workflow.StageOnboarding:
		return m.updateOnboarding(msg)

	case workflow.StageProcessing:
		switch msg.String() {
		case "r":
			m.reset()
		case "q":
			m.quitting = true
			return m, tea.Quit
		}

	case workflow.StageResults:
		switch msg.String() {
		case "c", "enter":
			m.notice = ""
			return m, m.call(m.wf.ViewCTA)
		case "p":
			return m.savePDF()
		case "r":
			m.reset()
		case "q":
			m.quitting = true
			return m, tea.Quit
		default:
			var cmd tea.Cmd
			m.results, cmd = m.results.Update(msg)
			return m, cmd
		}

	case workflow.StageCTA:
		return m.updateCTA(msg)
	}
	return m, nil
}

func (m *Model) reset() {
	m.wf.Reset()
	m.snap = m.wf.Snapshot()
	m.notice = ""
	m.pdfPath = ""
}

// savePDF downloads the report into pdfDir as <session>.pdf.
func (m Model) savePDF() (tea.Model, tea.Cmd) {
	path := filepath.Join(m.pdfDir, filepath.Base(m.snap.SessionID)+".pdf")
	m.pdfPath = path
	m.notice = "Downloading PDF..."
	wf := m.wf
	return m, m.async("pdf", func(ctx context.Context) error {
		pdf, err := wf.DownloadPDF(ctx)
		if err != nil {
			return err
		}
		return os.WriteFile(path, pdf, 0o644)
	})
}

func (m Model) updateOnboarding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "shift+tab", "k":
		m.form.moveFocus(-1)
	case "down", "tab", "j":
		m.form.moveFocus(1)
	case "left", "h":
		m.form.adjust(-1)
		m.formErr = ""
	case "right", "l":
		m.form.adjust(1)
		m.formErr = ""
	case "esc":
		if !m.form.back() {
			m.reset()
		}
		m.formErr = ""
	case "enter":
		if err := m.form.validatePage(); err != nil {
			m.formErr = "Please answer every question on this step."
			return m, nil
		}
		m.formErr = ""
		if !m.form.lastPage() {
			m.form.next()
			return m, nil
		}
		in := m.form.input()
		return m, m.call(func() error { return m.wf.SubmitOnboarding(in) })
	}
	return m, nil
}

func (m Model) updateCTA(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.snap.LeadSubmitted {
		switch msg.String() {
		case "m":
			email := strings.TrimSpace(m.contact[ctaEmail].Value())
			name := strings.TrimSpace(m.contact[ctaName].Value())
			m.notice = "Sending..."
			return m, m.async("email", func(ctx context.Context) error {
				return m.wf.EmailResults(ctx, email, name)
			})
		case "r":
			m.reset()
			return m, nil
		case "q", "esc", "enter":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch msg.String() {
	case "up", "shift+tab":
		m.focusContact(m.ctaFocus - 1)
		return m, nil
	case "down", "tab":
		m.focusContact(m.ctaFocus + 1)
		return m, nil
	case "enter":
		if m.ctaFocus < ctaFields-1 {
			m.focusContact(m.ctaFocus + 1)
			return m, nil
		}
		return m.submitLead()
	}

	var cmd tea.Cmd
	m.contact[m.ctaFocus], cmd = m.contact[m.ctaFocus].Update(msg)
	return m, cmd
}

func (m *Model) focusContact(i int) {
	i = (i + ctaFields) % ctaFields
	m.contact[m.ctaFocus].Blur()
	m.ctaFocus = i
	m.contact[m.ctaFocus].Focus()
}

func (m Model) submitLead() (tea.Model, tea.Cmd) {
	if m.snap.Submitting {
		return m, nil
	}
	contact := str8up.LeadSubmission{
		Name:    strings.TrimSpace(m.contact[ctaName].Value()),
		Email:   strings.TrimSpace(m.contact[ctaEmail].Value()),
		Company: strings.TrimSpace(m.contact[ctaCompany].Value()),
		Phone:   strings.TrimSpace(m.contact[ctaPhone].Value()),
	}
	if err := contact.Validate(); err != nil {
		m.ctaErr = "Please enter your name and a valid email."
		return m, nil
	}
	m.ctaErr = ""
	return m, m.async("lead", func(ctx context.Context) error {
		return m.wf.SubmitLead(ctx, contact)
	})
}

// call runs a synchronous workflow transition and reports the new state.
func (m Model) call(fn func() error) tea.Cmd {
	wf := m.wf
	return func() tea.Msg {
		err := fn()
		if err != nil {
			return actionDoneMsg{err: err}
		}
		return SnapshotMsg(wf.Snapshot())
	}
}

func (m Model) async(action string, fn func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(context.Background())}
	}
}

// syncResults renders the report once per session.
func (m *Model) syncResults() {
	if m.snap.Report == nil {
		m.rendered = ""
		return
	}
	if m.rendered == m.snap.Report.SessionID && m.rendered != "" {
		return
	}
	m.results.SetContent(m.render(str8up.RenderMarkdown(m.snap.Report), m.width))
	m.results.GotoTop()
	m.rendered = m.snap.Report.SessionID
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body, help string
	switch m.snap.Stage {
	case workflow.StageInfo:
		body = m.viewInfo()
		help = "enter: start  q: quit"
	case workflow.StageOnboarding:
		body = m.form.view(m.styles)
		if m.formErr != "" {
			body += m.styles.Error.Render(m.formErr) + "\n"
		}
		help = "up/down: field  left/right: choose  enter: next  esc: back"
	case workflow.StageProcessing:
		body = m.viewProcessing()
		help = "r: start over  q: quit"
	case workflow.StageResults:
		body = m.results.View()
		if m.notice != "" {
			body += "\n" + m.styles.Notice.Render(m.notice) + "\n"
		}
		help = "up/down: scroll  p: save PDF  c: talk to us  r: start over  q: quit"
	case workflow.StageCTA:
		body = m.viewCTA()
		if m.snap.LeadSubmitted {
			help = "m: email my results  r: start over  q: quit"
		} else {
			help = "tab: next field  enter: submit"
		}
	}
	return body + m.styles.Help.Render(help) + "\n"
}

func (m Model) viewInfo() string {
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("str8up Map"))
	b.WriteString("\n")
	b.WriteString("A two-minute assessment of your cloud spend, risk and modernization path.\n\n")
	b.WriteString("  - Four short questions about your organization\n")
	b.WriteString("  - A live analysis against similar companies\n")
	b.WriteString("  - A personalized savings projection and roadmap\n")
	return m.styles.Box.Render(b.String()) + "\n"
}

func (m Model) viewProcessing() string {
	st := m.snap.Status
	var b strings.Builder
	b.WriteString(m.styles.Title.Render("Analyzing your infrastructure"))
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(float64(st.Progress) / 100))
	b.WriteString("\n\n")

	step := st.CurrentStep
	if step == "" {
		step = "Waiting for an analyst slot"
	}
	fmt.Fprintf(&b, "%s  %d%%\n", step, st.Progress)
	if st.EstimatedSecondsRemaining > 0 {
		b.WriteString(m.styles.Subtitle.Render(fmt.Sprintf("About %ds remaining", st.EstimatedSecondsRemaining)))
		b.WriteString("\n")
	}
	if m.snap.Error != "" {
		b.WriteString("\n")
		b.WriteString(m.styles.Error.Render(m.snap.Error))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewCTA() string {
	var b strings.Builder
	if m.snap.LeadSubmitted {
		b.WriteString(m.styles.Title.Render("Thank you!"))
		b.WriteString("\n")
		b.WriteString("We'll be in touch within 24 hours.\n")
		if m.snap.EmailSent {
			b.WriteString(m.styles.Notice.Render("Your results are on their way."))
			b.WriteString("\n")
		} else if m.notice != "" {
			b.WriteString(m.styles.Notice.Render(m.notice))
			b.WriteString("\n")
		}
		if m.snap.Error != "" {
			b.WriteString(m.styles.Error.Render(m.snap.Error))
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString(m.styles.Title.Render("Talk to a str8up architect"))
	b.WriteString("\n")
	for i := range m.contact {
		b.WriteString(m.contact[i].View())
		b.WriteString("\n")
	}
	if m.snap.Submitting {
		b.WriteString(m.styles.Subtitle.Render("Submitting..."))
		b.WriteString("\n")
	}
	for _, e := range []string{m.ctaErr, m.snap.Error} {
		if e != "" {
			b.WriteString(m.styles.Error.Render(e))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// Run starts the program and forwards workflow changes into it.
func Run(ctx context.Context, wf *workflow.Workflow, opts ...tea.ProgramOption) error {
	options := append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	p := tea.NewProgram(New(wf), options...)
	wf.OnChange(func(s workflow.Snapshot) {
		p.Send(SnapshotMsg(s))
	})
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
