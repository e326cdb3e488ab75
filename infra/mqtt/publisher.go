package mqtt

import (
	"context"
	"fmt"
	"sync"

	coremqtt "github.com/kilianp07/eosched/core/mqtt"
)

// Publisher mirrors the core mqtt.SchedulePublisher interface.
type Publisher = coremqtt.SchedulePublisher

// MockPublisher records published schedules in memory.
type MockPublisher struct {
	Messages []coremqtt.ScheduleMessage
	// FailVariants makes publishing fail for the listed variants.
	FailVariants map[string]bool
	mu           sync.Mutex
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailVariants: make(map[string]bool)}
}

// PublishSchedule records the message or fails if configured to.
func (m *MockPublisher) PublishSchedule(ctx context.Context, msg coremqtt.ScheduleMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailVariants[msg.Variant] {
		return fmt.Errorf("%w: variant %s", coremqtt.ErrPublish, msg.Variant)
	}
	m.Messages = append(m.Messages, msg)
	return nil
}

// Published returns a copy of the recorded messages.
func (m *MockPublisher) Published() []coremqtt.ScheduleMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]coremqtt.ScheduleMessage(nil), m.Messages...)
}
