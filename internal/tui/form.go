package tui

import (
	"fmt"
	"strings"

	"github.com/zahlentech/str8up_server/internal/str8up"
)

type fieldID int

const (
	fieldBusinessSize fieldID = iota
	fieldCloudProvider
	fieldComplexity
	fieldBudget
	fieldRiskTolerance
	fieldCompliance
)

const (
	complexityStep    = 5
	defaultComplexity = 50
)

type option struct {
	value string
	label string
}

type field struct {
	id      fieldID
	label   string
	options []option // nil for the complexity slider
}

// onboardingPages groups the fields the way ValidateStep checks them.
var onboardingPages = [str8up.OnboardingSteps][]field{
	{
		{id: fieldBusinessSize, label: "Business size", options: []option{
			{"small", "Small (1-50)"}, {"medium", "Medium (51-500)"}, {"large", "Large (500+)"},
		}},
		{id: fieldCloudProvider, label: "Primary cloud", options: []option{
			{"aws", "AWS"}, {"azure", "Azure"}, {"gcp", "Google Cloud"}, {"hybrid", "Hybrid / multi-cloud"},
		}},
	},
	{
		{id: fieldComplexity, label: "Infrastructure complexity"},
	},
	{
		{id: fieldBudget, label: "Annual cloud budget", options: []option{
			{"under100k", "Under $100k"}, {"100k-500k", "$100k - $500k"}, {"500k-1m", "$500k - $1M"},
			{"1m-5m", "$1M - $5M"}, {"over5m", "Over $5M"},
		}},
	},
	{
		{id: fieldRiskTolerance, label: "Risk tolerance", options: []option{
			{"low", "Low"}, {"medium", "Medium"}, {"high", "High"},
		}},
		{id: fieldCompliance, label: "Compliance", options: []option{
			{"none", "None"}, {"hipaa", "HIPAA"}, {"pci", "PCI DSS"}, {"sox", "SOX"},
			{"gdpr", "GDPR"}, {"multiple", "Multiple"},
		}},
	},
}

var pageTitles = [str8up.OnboardingSteps]string{
	"Tell us about your organization",
	"How complex is your infrastructure?",
	"What do you spend on cloud each year?",
	"Risk and compliance",
}

// onboardingForm holds the visitor's answers. A choice of -1 is unanswered.
type onboardingForm struct {
	page       int
	focus      int
	choices    map[fieldID]int
	complexity int
}

func newOnboardingForm() onboardingForm {
	return onboardingForm{
		choices: map[fieldID]int{
			fieldBusinessSize:  -1,
			fieldCloudProvider: -1,
			fieldBudget:        -1,
			fieldRiskTolerance: -1,
			fieldCompliance:    -1,
		},
		complexity: defaultComplexity,
	}
}

func (f *onboardingForm) fields() []field {
	return onboardingPages[f.page]
}

func (f *onboardingForm) focused() field {
	return f.fields()[f.focus]
}

func (f *onboardingForm) moveFocus(delta int) {
	n := len(f.fields())
	f.focus = (f.focus + delta + n) % n
}

// adjust cycles the focused option or moves the slider.
func (f *onboardingForm) adjust(delta int) {
	fd := f.focused()
	if fd.options == nil {
		f.complexity += delta * complexityStep
		if f.complexity < 0 {
			f.complexity = 0
		}
		if f.complexity > 100 {
			f.complexity = 100
		}
		return
	}
	cur := f.choices[fd.id]
	if cur < 0 {
		if delta > 0 {
			cur = -1
		} else {
			cur = 0
		}
	}
	f.choices[fd.id] = (cur + delta + len(fd.options)) % len(fd.options)
}

func (f *onboardingForm) value(id fieldID) string {
	for _, page := range onboardingPages {
		for _, fd := range page {
			if fd.id != id {
				continue
			}
			if idx := f.choices[id]; idx >= 0 && idx < len(fd.options) {
				return fd.options[idx].value
			}
		}
	}
	return ""
}

func (f *onboardingForm) input() str8up.OnboardingInput {
	return str8up.OnboardingInput{
		BusinessSize:  str8up.BusinessSize(f.value(fieldBusinessSize)),
		CloudProvider: str8up.CloudProvider(f.value(fieldCloudProvider)),
		Complexity:    f.complexity,
		BudgetBracket: str8up.BudgetBracket(f.value(fieldBudget)),
		RiskTolerance: str8up.RiskLevel(f.value(fieldRiskTolerance)),
		Compliance:    str8up.Compliance(f.value(fieldCompliance)),
	}
}

// validatePage checks the current page only.
func (f *onboardingForm) validatePage() error {
	return str8up.ValidateStep(f.page+1, f.input())
}

func (f *onboardingForm) lastPage() bool {
	return f.page == str8up.OnboardingSteps-1
}

func (f *onboardingForm) next() {
	if !f.lastPage() {
		f.page++
		f.focus = 0
	}
}

func (f *onboardingForm) back() bool {
	if f.page == 0 {
		return false
	}
	f.page--
	f.focus = 0
	return true
}

func (f *onboardingForm) view(s Styles) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", s.Subtitle.Render(fmt.Sprintf("Step %d of %d", f.page+1, str8up.OnboardingSteps)))
	b.WriteString(s.Title.Render(pageTitles[f.page]))
	b.WriteString("\n")

	for i, fd := range f.fields() {
		label := s.Label.Render(fd.label)
		if i == f.focus {
			label = s.Focused.Render("> " + fd.label)
		}
		b.WriteString(label)
		b.WriteString("\n")

		if fd.options == nil {
			b.WriteString(complexityBar(f.complexity))
			b.WriteString("\n\n")
			continue
		}
		opts := make([]string, 0, len(fd.options))
		for j, o := range fd.options {
			if f.choices[fd.id] == j {
				opts = append(opts, s.Selected.Render(o.label))
			} else {
				opts = append(opts, s.Option.Render(o.label))
			}
		}
		b.WriteString(strings.Join(opts, " "))
		b.WriteString("\n\n")
	}
	return b.String()
}

func complexityBar(v int) string {
	const width = 20
	filled := v * width / 100
	return fmt.Sprintf("[%s%s] %d/100", strings.Repeat("#", filled), strings.Repeat("-", width-filled), v)
}
