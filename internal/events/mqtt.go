package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/ukydev/anchor/internal/models"
)

const (
	defaultQoS     byte = 1
	publishTimeout      = 5 * time.Second
)

// LocationTopic returns the topic a user's location changes are sent to.
func LocationTopic(userID string) string {
	return fmt.Sprintf("anchor/users/%s/location", userID)
}

type publishClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher publishes location changes to an MQTT broker.
type MQTTPublisher struct {
	client  publishClient
	timeout time.Duration
}

// ConnectMQTT connects to broker and returns a publisher using it.
func ConnectMQTT(broker, clientID string) (*MQTTPublisher, mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(10 * time.Second)

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, nil, fmt.Errorf("mqtt connect to %s: timed out", broker)
	}
	if err := token.Error(); err != nil {
		return nil, nil, fmt.Errorf("mqtt connect to %s: %w", broker, err)
	}
	return NewMQTTPublisher(client), client, nil
}

// NewMQTTPublisher wraps an already connected client.
func NewMQTTPublisher(client publishClient) *MQTTPublisher {
	return &MQTTPublisher{client: client, timeout: publishTimeout}
}

// PublishLocationChanged sends event as JSON with QoS 1. It gives up when
// ctx is done or the broker does not acknowledge in time.
func (p *MQTTPublisher) PublishLocationChanged(ctx context.Context, event models.LocationChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal location event: %w", err)
	}

	token := p.client.Publish(LocationTopic(event.UserID), defaultQoS, false, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish location event: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("publish location event: timed out after %s", p.timeout)
	}
}
