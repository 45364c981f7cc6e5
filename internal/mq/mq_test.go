package mq

import (
	"context"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/incident-service/internal/config"
)

func TestNewWithoutDriverReturnsNil(t *testing.T) {
	backend, err := New(context.Background(), config.MQConfig{Driver: config.MQDriverNone})
	require.NoError(t, err)
	require.Nil(t, backend)
}

func TestNewRejectsUnknownDriver(t *testing.T) {
	_, err := New(context.Background(), config.MQConfig{Driver: "kafka"})
	require.Error(t, err)
}

func TestRabbitRequiresURL(t *testing.T) {
	_, err := NewRabbitMQClient(config.MQConfig{})
	require.ErrorContains(t, err, "url")
}

func TestPubSubRequiresProject(t *testing.T) {
	_, err := NewPubSubClient(context.Background(), config.MQConfig{})
	require.ErrorContains(t, err, "project")
}

func TestHeadersToAttributes(t *testing.T) {
	require.Nil(t, headersToAttributes(nil))
	attrs := headersToAttributes(amqp.Table{
		"event_type": "report_submitted",
		"raw":        []byte("bytes"),
		"n":          int32(3),
	})
	require.Equal(t, map[string]string{
		"event_type": "report_submitted",
		"raw":        "bytes",
		"n":          "3",
	}, attrs)
}
