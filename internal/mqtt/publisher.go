package mqtt

import (
	"fmt"

	"github.com/chxru/sem5-webdev/internal/config"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Publisher thin wrapper pushing bed-board events to the ward-display topic.
type Publisher struct {
	client mqtt.Client
	topic  string
}

func NewPublisher(cfg *config.MQTTConfig) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	return &Publisher{client: client, topic: cfg.Topic}, nil
}

func (p *Publisher) Publish(payload []byte) error {
	token := p.client.Publish(p.topic, 1, false, payload)
	token.Wait()

	if token.Error() != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", p.topic, token.Error())
	}
	return nil
}

func (p *Publisher) Disconnect() {
	p.client.Disconnect(250)
}

func (p *Publisher) IsConnected() bool {
	return p.client.IsConnected()
}
