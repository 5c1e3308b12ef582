package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// BedEvent admission lifecycle event published after a successful commit.
type BedEvent struct {
	Event     string    `json:"event"` // "admit" | "discharge"
	PatientID int       `json:"pid"`
	StayID    int       `json:"bid"`
	BedID     int       `json:"bed,omitempty"`
	At        time.Time `json:"at"`
}

// EventSink receives bed events. Publication is best effort and never part
// of the allocation transaction.
type EventSink interface {
	Publish(ctx context.Context, ev BedEvent) error
}

// WebhookNotifier POSTs bed events to a configured endpoint (ward systems,
// audit collectors).
type WebhookNotifier struct {
	client *resty.Client
	logger *zap.Logger
}

func NewWebhookNotifier(url string, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetBaseURL(url).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &WebhookNotifier{client: client, logger: logger}
}

var _ EventSink = (*WebhookNotifier)(nil)

func (n *WebhookNotifier) Publish(ctx context.Context, ev BedEvent) error {
	resp, err := n.client.R().
		SetContext(ctx).
		SetBody(ev).
		Post("")
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode())
	}
	return nil
}

// MQTTBroker the publishing surface of the mqtt client wrapper.
type MQTTBroker interface {
	Publish(payload []byte) error
}

// MQTTNotifier pushes bed events to the ward-display topic.
type MQTTNotifier struct {
	broker MQTTBroker
}

func NewMQTTNotifier(broker MQTTBroker) *MQTTNotifier {
	return &MQTTNotifier{broker: broker}
}

var _ EventSink = (*MQTTNotifier)(nil)

func (n *MQTTNotifier) Publish(_ context.Context, ev BedEvent) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal bed event: %w", err)
	}
	return n.broker.Publish(payload)
}
