package service

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/tinylink-dev/tinylink/internal/app/model"
)

// ClickPublisher emits a click event to JetStream for every counted visit.
// It is optional wiring: when NATS is not configured the handlers simply
// run without one.
type ClickPublisher struct {
	js nats.JetStreamContext
}

// NewClickPublisher ensures the click stream exists and returns a publisher
// bound to it.
func NewClickPublisher(js nats.JetStreamContext) (*ClickPublisher, error) {
	if _, err := js.StreamInfo(model.ClickStreamName); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:     model.ClickStreamName,
			Subjects: []string{model.ClickStreamSubject},
			MaxBytes: model.ClickStreamMaxBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("click publisher: create stream: %w", err)
		}
	}
	return &ClickPublisher{js: js}, nil
}

// Publish sends a single click event.
func (p *ClickPublisher) Publish(code, ip, userAgent string) error {
	event := model.ClickEvent{
		ID:        uuid.New().String(),
		Code:      code,
		IP:        ip,
		UserAgent: userAgent,
		Timestamp: time.Now(),
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_, err = p.js.Publish(model.ClickStreamSubject, data)
	return err
}
