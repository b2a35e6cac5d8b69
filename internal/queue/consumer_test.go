package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foliolab/folio-worker/internal/logging"
	"github.com/foliolab/folio-worker/internal/tasks"
)

func validConsumerConfig() *ConsumerConfig {
	log := logging.NewLogger("test")
	return &ConsumerConfig{
		RedisURL:     "redis://localhost:6379",
		Concurrency:  2,
		Coordinator:  tasks.NewOCRCoordinator(nil, nil, log),
		Orchestrator: tasks.NewTranslationOrchestrator(nil, nil, log),
		Sweeper:      tasks.NewRetentionSweeper(nil, 0, log),
		Logger:       log,
	}
}

func TestNewConsumerValid(t *testing.T) {
	consumer, err := NewConsumer(validConsumerConfig())
	require.NoError(t, err)
	require.NotNil(t, consumer)
	defer consumer.Stop()
}

func TestNewConsumerRequiresRedisURL(t *testing.T) {
	cfg := validConsumerConfig()
	cfg.RedisURL = ""
	_, err := NewConsumer(cfg)
	assert.Error(t, err)
}

func TestNewConsumerRejectsMalformedRedisURL(t *testing.T) {
	cfg := validConsumerConfig()
	cfg.RedisURL = "not-a-redis-uri"
	_, err := NewConsumer(cfg)
	assert.Error(t, err)
}

func TestNewConsumerRequiresServices(t *testing.T) {
	cfg := validConsumerConfig()
	cfg.Coordinator = nil
	_, err := NewConsumer(cfg)
	assert.Error(t, err)

	cfg = validConsumerConfig()
	cfg.Sweeper = nil
	_, err = NewConsumer(cfg)
	assert.Error(t, err)
}

func TestNewConsumerRequiresLogger(t *testing.T) {
	cfg := validConsumerConfig()
	cfg.Logger = nil
	_, err := NewConsumer(cfg)
	assert.Error(t, err)
}

func TestNewConsumerFloorsConcurrency(t *testing.T) {
	cfg := validConsumerConfig()
	cfg.Concurrency = 0
	consumer, err := NewConsumer(cfg)
	require.NoError(t, err)
	defer consumer.Stop()
	assert.Equal(t, 1, cfg.Concurrency)
}
