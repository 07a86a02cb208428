package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelProgress = "str8up_progress"

	TypeProgress = "analysis_progress"
)

// ProgressMessage is one progress update for a session.
type ProgressMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	JobID     int64  `json:"job_id"`
	Status    string `json:"status"`
	Step      string `json:"step"`
	Progress  int    `json:"progress"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Analysis steps in execution order.
const (
	StepCollecting   = "collecting"
	StepBenchmarking = "benchmarking"
	StepScoring      = "scoring"
	StepRoadmap      = "roadmap"
	StepDone         = "done"
)

var Steps = []string{StepCollecting, StepBenchmarking, StepScoring, StepRoadmap, StepDone}

var StepProgress = map[string]int{
	StepCollecting:   20,
	StepBenchmarking: 45,
	StepScoring:      70,
	StepRoadmap:      90,
	StepDone:         100,
}

var StepMessages = map[string]string{
	StepCollecting:   "Collecting infrastructure profile",
	StepBenchmarking: "Benchmarking spend against similar organizations",
	StepScoring:      "Scoring security, compliance and cost efficiency",
	StepRoadmap:      "Drafting your implementation roadmap",
	StepDone:         "Analysis complete",
}

// Fill sets Type and, when missing, the progress and message for the step.
func (m *ProgressMessage) Fill() {
	m.Type = TypeProgress
	if m.Progress == 0 && m.Step != "" {
		if progress, ok := StepProgress[m.Step]; ok {
			m.Progress = progress
		}
	}
	if m.Message == "" && m.Step != "" {
		if message, ok := StepMessages[m.Step]; ok {
			m.Message = message
		}
	}
}

type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishProgress fills and publishes msg on ChannelProgress.
func (p *Publisher) PublishProgress(ctx context.Context, msg *ProgressMessage) error {
	msg.Fill()

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal progress message: %w", err)
	}

	return p.client.Publish(ctx, ChannelProgress, data).Err()
}

type Subscriber struct {
	client *redis.Client
}

func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe calls handler for every progress message until ctx is done.
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*ProgressMessage)) error {
	ps := s.client.Subscribe(ctx, ChannelProgress)
	defer ps.Close()

	if _, err := ps.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}
	ch := ps.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var progressMsg ProgressMessage
			if err := json.Unmarshal([]byte(msg.Payload), &progressMsg); err != nil {
				continue
			}

			handler(&progressMsg)
		}
	}
}
