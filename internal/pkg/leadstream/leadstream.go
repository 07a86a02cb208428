// Package leadstream publishes captured leads to Kafka for the CRM.
package leadstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/zahlentech/str8up_server/config"
)

const EventLeadCaptured = "lead.captured"

// LeadEvent is the message value written for every captured lead.
type LeadEvent struct {
	Type         string    `json:"type"`
	LeadID       string    `json:"lead_id"`
	SessionID    string    `json:"session_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Company      string    `json:"company,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	OverallScore int       `json:"overall_score"`
	CapturedAt   time.Time `json:"captured_at"`
}

// Publisher is what the lead service depends on.
type Publisher interface {
	PublishLead(ctx context.Context, ev LeadEvent) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers      []string
	Topic        string
	MaxAttempts  int
	WriteTimeout time.Duration
}

// Kafka writes lead events keyed by session id.
type Kafka struct {
	writer      messageWriter
	maxAttempts int
	timeout     time.Duration
	backoff     time.Duration
}

func NewKafka(cfg Config) (*Kafka, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka: topic required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 5 * time.Second
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		RequiredAcks: kafka.RequireOne,
	}
	return newKafka(w, cfg.MaxAttempts, cfg.WriteTimeout), nil
}

// NewFromConfig returns a Nop publisher when Kafka is not configured.
func NewFromConfig(cfg config.KafkaConfig) (Publisher, error) {
	if !cfg.Enabled() {
		return Nop{}, nil
	}
	return NewKafka(Config{Brokers: cfg.Brokers, Topic: cfg.Topic})
}

func newKafka(w messageWriter, attempts int, timeout time.Duration) *Kafka {
	return &Kafka{writer: w, maxAttempts: attempts, timeout: timeout, backoff: 100 * time.Millisecond}
}

// PublishLead writes ev, retrying with exponential backoff.
func (k *Kafka) PublishLead(ctx context.Context, ev LeadEvent) error {
	ev.Type = EventLeadCaptured
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal lead event: %w", err)
	}
	msg := kafka.Message{Key: []byte(ev.SessionID), Value: value, Time: ev.CapturedAt}

	var lastErr error
	backoff := k.backoff
	for attempt := 1; attempt <= k.maxAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, k.timeout)
		lastErr = k.writer.WriteMessages(attemptCtx, msg)
		cancel()
		if lastErr == nil {
			return nil
		}
		if attempt == k.maxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}
	return fmt.Errorf("publish lead failed after %d attempts: %w", k.maxAttempts, lastErr)
}

func (k *Kafka) Close() error {
	if k == nil || k.writer == nil {
		return nil
	}
	return k.writer.Close()
}

// Nop discards events.
type Nop struct{}

func (Nop) PublishLead(context.Context, LeadEvent) error { return nil }
func (Nop) Close() error                                 { return nil }
