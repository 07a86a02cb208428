package str8up

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
)

// OnboardingSteps is the number of pages in the onboarding form.
const OnboardingSteps = 4

var (
	ErrInvalidInput = errors.New("invalid onboarding input")
	ErrInvalidLead  = errors.New("invalid lead submission")
)

func oneOf[T ~string](v T, allowed []T) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func invalid(field string, v interface{}) error {
	return fmt.Errorf("%w: %s %v", ErrInvalidInput, field, v)
}

// ValidateStep checks the fields collected on one onboarding page.
// Step 1: business size and cloud provider; step 2: complexity;
// step 3: budget; step 4: risk tolerance and compliance.
func ValidateStep(step int, in OnboardingInput) error {
	switch step {
	case 1:
		if !oneOf(in.BusinessSize, BusinessSizes) {
			return invalid("business_size", fmt.Sprintf("%q", in.BusinessSize))
		}
		if !oneOf(in.CloudProvider, CloudProviders) {
			return invalid("cloud_provider", fmt.Sprintf("%q", in.CloudProvider))
		}
	case 2:
		if in.Complexity < 0 || in.Complexity > 100 {
			return invalid("complexity", in.Complexity)
		}
	case 3:
		if !oneOf(in.BudgetBracket, BudgetBrackets) {
			return invalid("budget", fmt.Sprintf("%q", in.BudgetBracket))
		}
	case 4:
		if !oneOf(in.RiskTolerance, RiskLevels) {
			return invalid("risk_tolerance", fmt.Sprintf("%q", in.RiskTolerance))
		}
		if !oneOf(in.Compliance, Compliances) {
			return invalid("compliance", fmt.Sprintf("%q", in.Compliance))
		}
	default:
		return fmt.Errorf("unknown onboarding step %d", step)
	}
	return nil
}

// Validate checks a complete onboarding form.
func (in OnboardingInput) Validate() error {
	for step := 1; step <= OnboardingSteps; step++ {
		if err := ValidateStep(step, in); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the contact fields. The session is checked by the caller.
func (l LeadSubmission) Validate() error {
	if strings.TrimSpace(l.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidLead)
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(l.Email)); err != nil {
		return fmt.Errorf("%w: email %q", ErrInvalidLead, l.Email)
	}
	return nil
}
