package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/anchor/internal/models"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error, complete bool) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	if complete {
		close(t.done)
	}
	return t
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }

func (t *fakeToken) Done() <-chan struct{} { return t.done }

func (t *fakeToken) Error() error { return t.err }

type fakeClient struct {
	token    *fakeToken
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	c.topic = topic
	c.qos = qos
	c.retained = retained
	c.payload = payload.([]byte)
	return c.token
}

func TestLocationTopic(t *testing.T) {
	assert.Equal(t, "anchor/users/abc/location", LocationTopic("abc"))
}

func TestMQTTPublisher_PublishLocationChanged(t *testing.T) {
	event := models.LocationChanged{
		UserID:    "507f1f77bcf86cd799439011",
		Location:  models.Location{City: "Pune", Coordinates: []float64{18.52, 73.85}},
		UpdatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	t.Run("publishes json payload", func(t *testing.T) {
		client := &fakeClient{token: newFakeToken(nil, true)}
		pub := NewMQTTPublisher(client)

		require.NoError(t, pub.PublishLocationChanged(context.Background(), event))
		assert.Equal(t, "anchor/users/507f1f77bcf86cd799439011/location", client.topic)
		assert.Equal(t, byte(1), client.qos)
		assert.False(t, client.retained)

		var got models.LocationChanged
		require.NoError(t, json.Unmarshal(client.payload, &got))
		assert.Equal(t, event, got)
	})

	t.Run("broker error", func(t *testing.T) {
		client := &fakeClient{token: newFakeToken(errors.New("not connected"), true)}
		err := NewMQTTPublisher(client).PublishLocationChanged(context.Background(), event)
		assert.ErrorContains(t, err, "not connected")
	})

	t.Run("context cancelled", func(t *testing.T) {
		client := &fakeClient{token: newFakeToken(nil, false)}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := NewMQTTPublisher(client).PublishLocationChanged(ctx, event)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("timeout", func(t *testing.T) {
		client := &fakeClient{token: newFakeToken(nil, false)}
		pub := NewMQTTPublisher(client)
		pub.timeout = 10 * time.Millisecond
		err := pub.PublishLocationChanged(context.Background(), event)
		assert.ErrorContains(t, err, "timed out")
	})
}
