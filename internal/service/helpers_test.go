package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"carepathiq-be/internal/dto"
	"carepathiq-be/pkg/llm"
)

// Shared fakes for the service tests.

type nopLogger struct{}

func (nopLogger) Debug(string, string, map[string]interface{}) {}
func (nopLogger) Info(string, string, map[string]interface{})  {}
func (nopLogger) Warn(string, string, map[string]interface{})  {}
func (nopLogger) Error(string, string, map[string]interface{}) {}
func (nopLogger) Sync() error                                  { return nil }

// recordingPublisher captures published payloads instead of using the bus.
type recordingPublisher struct {
	payloads [][]byte
	fail     bool
}

func (p *recordingPublisher) Publish(_ context.Context, payload []byte) error {
	if p.fail {
		return errors.New("bus down")
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

// scriptedProvider returns canned replies, or an error when failing is set.
type scriptedProvider struct {
	reply     string
	failing   bool
	histories [][]llm.Message
}

func (p *scriptedProvider) Chat(_ context.Context, history []llm.Message, _ ...llm.Option) (string, error) {
	p.histories = append(p.histories, history)
	if p.failing {
		return "", errors.New("model unreachable")
	}
	return p.reply, nil
}

func (p *scriptedProvider) ChatStream(ctx context.Context, history []llm.Message, handler llm.StreamHandler, opts ...llm.Option) (string, error) {
	if p.failing {
		return "", errors.New("model unreachable")
	}
	if handler != nil {
		handler(p.reply)
	}
	p.histories = append(p.histories, history)
	return p.reply, nil
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}})
}

// recordingStream captures stream events.
type recordingStream struct {
	fragments []string
	progress  []*dto.PublishProgressMessage
}

func (s *recordingStream) SendFragment(_ uuid.UUID, _ string, fragment string) {
	s.fragments = append(s.fragments, fragment)
}

func (s *recordingStream) SendProgress(message *dto.PublishProgressMessage) {
	s.progress = append(s.progress, message)
}
