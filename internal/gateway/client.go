// Package gateway is the HTTP client the assessment workflow uses to reach
// the str8up analysis service.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/zahlentech/str8up_server/config"
	"github.com/zahlentech/str8up_server/internal/model/dto"
	"github.com/zahlentech/str8up_server/internal/pkg/logger"
	"github.com/zahlentech/str8up_server/internal/str8up"
)

const (
	defaultTimeout = 15 * time.Second
	maxErrorBody   = 64 << 10
)

var ErrMalformedResponse = errors.New("malformed response from analysis service")

// APIError is returned for any non-2xx response.
type APIError struct {
	StatusCode int
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("analysis service returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("analysis service returned %d", e.StatusCode)
}

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     logger.Logger
}

type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	log     logger.Logger
}

func New(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("gateway base url required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("gateway base url: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		timeout: timeout,
		client:  client,
		log:     log,
	}, nil
}

// NewFromConfig builds a client from the gateway config section.
func NewFromConfig(cfg config.GatewayConfig, log logger.Logger) (*Client, error) {
	return New(Config{BaseURL: cfg.BaseURL, Timeout: cfg.RequestTimeout, Logger: log})
}

// StartAnalysis submits the onboarding form and returns the session id.
func (c *Client) StartAnalysis(ctx context.Context, in str8up.OnboardingInput) (string, error) {
	complexity := in.Complexity
	req := dto.StartAnalysisRequest{
		BusinessSize:  string(in.BusinessSize),
		CloudProvider: string(in.CloudProvider),
		Complexity:    &complexity,
		Budget:        string(in.BudgetBracket),
		RiskTolerance: string(in.RiskTolerance),
		Compliance:    string(in.Compliance),
	}

	var resp dto.StartAnalysisResponse
	if err := c.doJSON(ctx, http.MethodPost, "/onboarding/start", req, &resp); err != nil {
		return "", err
	}
	if resp.SessionID == "" {
		return "", fmt.Errorf("%w: empty session id", ErrMalformedResponse)
	}
	return resp.SessionID, nil
}

// CheckStatus polls the processing status of a session.
func (c *Client) CheckStatus(ctx context.Context, sessionID string) (str8up.ProcessingStatus, error) {
	var resp dto.ProcessingStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/processing/"+url.PathEscape(sessionID), nil, &resp); err != nil {
		return str8up.ProcessingStatus{}, err
	}

	status, err := str8up.ParseStatus(resp.Status)
	if err != nil {
		return str8up.ProcessingStatus{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	progress := resp.Progress
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	return str8up.ProcessingStatus{
		Status:                    status,
		Progress:                  progress,
		CurrentStep:               resp.CurrentStep,
		EstimatedSecondsRemaining: resp.EstimatedTimeRemaining,
	}, nil
}

// FetchResults returns the raw analysis document for the transformer.
func (c *Client) FetchResults(ctx context.Context, sessionID string) (json.RawMessage, error) {
	var resp dto.AnalysisResultResponse
	if err := c.doJSON(ctx, http.MethodGet, "/analysis/"+url.PathEscape(sessionID), nil, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: missing analysis data", ErrMalformedResponse)
	}
	return resp.Data, nil
}

// SubmitLead sends the CTA form and returns the lead id.
func (c *Client) SubmitLead(ctx context.Context, lead str8up.LeadSubmission) (string, error) {
	req := dto.CaptureLeadRequest{
		SessionID: lead.SessionID,
		Name:      lead.Name,
		Email:     lead.Email,
		Company:   lead.Company,
		Phone:     lead.Phone,
	}

	var resp dto.CaptureLeadResponse
	if err := c.doJSON(ctx, http.MethodPost, "/leads/capture", req, &resp); err != nil {
		return "", err
	}
	if !resp.Success {
		return "", fmt.Errorf("%w: lead not accepted", ErrMalformedResponse)
	}
	return resp.LeadID, nil
}

// EmailResults asks the service to email the report.
func (c *Client) EmailResults(ctx context.Context, sessionID, email, recipientName string) error {
	req := dto.EmailResultsRequest{Email: email, RecipientName: recipientName}
	var resp dto.EmailResultsResponse
	if err := c.doJSON(ctx, http.MethodPost, "/results/"+url.PathEscape(sessionID)+"/email", req, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%w: %s", ErrMalformedResponse, resp.Message)
	}
	return nil
}

// DownloadPDF returns the rendered PDF report.
func (c *Client) DownloadPDF(ctx context.Context, sessionID string) ([]byte, error) {
	var pdf []byte
	err := c.do(ctx, http.MethodGet, "/results/"+url.PathEscape(sessionID)+"/pdf", nil, "application/pdf", func(body io.Reader) error {
		var err error
		pdf, err = io.ReadAll(body)
		return err
	})
	return pdf, err
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}
	return c.do(ctx, method, path, body, "application/json", func(r io.Reader) error {
		if err := json.NewDecoder(r).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		return nil
	})
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, accept string, decode func(io.Reader) error) (err error) {
	start := time.Now()
	call := logger.APICall{Method: method, Endpoint: path}
	defer func() {
		call.Duration = time.Since(start)
		call.Err = err
		c.log.APIRequest("analysis service call", call)
	}()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", accept)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	call.StatusCode = resp.StatusCode

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	return decode(resp.Body)
}

// decodeAPIError reads the {code,message,data} envelope when present.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	var envelope struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Message != "" {
		apiErr.Code = envelope.Code
		apiErr.Message = envelope.Message
	} else {
		apiErr.Message = strings.TrimSpace(http.StatusText(resp.StatusCode))
	}
	return apiErr
}
