package producer

import (
	"context"
	"encoding/json"
	"fmt"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/image-uploader/internal/config"
	"github.com/aliskhannn/image-uploader/internal/model"
)

// Producer submits accepted uploads to the processing topic.
type Producer struct {
	Client   *wbfkafka.Producer
	strategy retry.Strategy
	cfg      *config.Kafka
}

// New creates a new Producer.
// - cfg: Kafka configuration struct
// - s: retry strategy
func New(
	cfg *config.Kafka,
	s retry.Strategy,
) *Producer {
	producer := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)

	return &Producer{
		Client:   producer,
		cfg:      cfg,
		strategy: s,
	}
}

// Produce serializes the Task to JSON and sends it to Kafka.
// The image id is the message key, so every delivery of one image lands on one partition.
func (p *Producer) Produce(ctx context.Context, task model.Task) error {
	key, data, err := Encode(task)
	if err != nil {
		return err
	}

	if err = p.Client.SendWithRetry(ctx, p.strategy, key, data); err != nil {
		return fmt.Errorf("failed to send task: %w", err)
	}

	return nil
}

// Encode returns the Kafka key and value for task.
func Encode(task model.Task) ([]byte, []byte, error) {
	data, err := json.Marshal(task)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	return []byte(task.ImageID.String()), data, nil
}
