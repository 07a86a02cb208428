package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zahlentech/str8up_server/internal/str8up"
)

type previewOptions struct {
	input     str8up.OnboardingInput
	sessionID string
	format    string
}

var preview = previewOptions{}

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Print the offline report for an onboarding input",
	Long: `Generates the report locally, without contacting a server.

Formats: markdown (default), json, yaml.`,
	RunE: runPreview,
}

func init() {
	f := previewCmd.Flags()
	f.StringVar((*string)(&preview.input.BusinessSize), "size", "medium", "business size: small, medium, large")
	f.StringVar((*string)(&preview.input.CloudProvider), "provider", "aws", "cloud provider: aws, azure, gcp, hybrid")
	f.IntVar(&preview.input.Complexity, "complexity", 50, "infrastructure complexity 0-100")
	f.StringVar((*string)(&preview.input.BudgetBracket), "budget", "500k-1m", "budget: under100k, 100k-500k, 500k-1m, 1m-5m, over5m")
	f.StringVar((*string)(&preview.input.RiskTolerance), "risk", "medium", "risk tolerance: low, medium, high")
	f.StringVar((*string)(&preview.input.Compliance), "compliance", "none", "compliance: none, hipaa, pci, sox, gdpr, multiple")
	f.StringVar(&preview.sessionID, "session", "preview", "session id printed in the report")
	f.StringVarP(&preview.format, "format", "f", "markdown", "output format: markdown, json, yaml")
}

func runPreview(cmd *cobra.Command, _ []string) error {
	if err := preview.input.Validate(); err != nil {
		return err
	}
	report := str8up.GenerateReport(preview.sessionID, preview.input, time.Now().UTC())

	out, err := formatReport(report, preview.format)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

func formatReport(r *str8up.AnalysisReport, format string) (string, error) {
	switch format {
	case "markdown", "md", "":
		return str8up.RenderMarkdown(r), nil
	case "json":
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil
	case "yaml", "yml":
		data, err := yaml.Marshal(r)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown format %q", format)
	}
}
