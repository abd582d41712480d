// Package kafka consumes compilation requests from a Kafka topic and bridges
// them into the job queue, as an alternative intake to the HTTP API.
package kafka

import (
	"context"
	"encoding/json"
	"log"

	"github.com/IBM/sarama"

	"clipforge/queue"
)

// Submitter enqueues a validated payload and returns the job id.
type Submitter interface {
	Submit(ctx context.Context, payload *queue.Payload) (string, error)
}

// ConsumerConfig holds Kafka consumer configuration.
type ConsumerConfig struct {
	Brokers []string
	Topic   string
	GroupID string
	Queue   Submitter
}

// Consumer reads compilation requests from a consumer group and submits
// them as jobs.
type Consumer struct {
	group   sarama.ConsumerGroup
	topic   string
	groupID string
	queue   Submitter
	ready   chan struct{}
}

// NewConsumer creates a consumer-group client for the configured topic.
func NewConsumer(cfg ConsumerConfig) (*Consumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	saramaConfig.Consumer.Return.Errors = true

	group, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, err
	}

	return &Consumer{
		group:   group,
		topic:   cfg.Topic,
		groupID: cfg.GroupID,
		queue:   cfg.Queue,
		ready:   make(chan struct{}),
	}, nil
}

// Start begins consuming. It returns once the consumer group session is
// established; consumption continues until the context is canceled.
func (c *Consumer) Start(ctx context.Context) error {
	handler := &groupHandler{queue: c.queue, ready: c.ready}

	go func() {
		for {
			if err := c.group.Consume(ctx, []string{c.topic}, handler); err != nil {
				if err == context.Canceled {
					return
				}
				log.Printf("kafka consume error: %v", err)
			}
			if ctx.Err() != nil {
				return
			}
			handler.ready = make(chan struct{})
		}
	}()

	<-c.ready
	log.Printf("kafka consumer started (group: %s, topic: %s)", c.groupID, c.topic)

	go func() {
		for err := range c.group.Errors() {
			log.Printf("kafka consumer error: %v", err)
		}
	}()

	return nil
}

// Close shuts the consumer group down.
func (c *Consumer) Close() error {
	return c.group.Close()
}

type groupHandler struct {
	queue Submitter
	ready chan struct{}
}

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	close(h.ready)
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *groupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message := <-claim.Messages():
			if message == nil {
				return nil
			}
			h.handle(session.Context(), message)
			// Malformed requests are marked too: redelivering them cannot
			// succeed.
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *groupHandler) handle(ctx context.Context, message *sarama.ConsumerMessage) {
	var payload queue.Payload
	if err := json.Unmarshal(message.Value, &payload); err != nil {
		log.Printf("kafka: dropping malformed request (offset %d): %v", message.Offset, err)
		return
	}
	if err := payload.Validate(); err != nil {
		log.Printf("kafka: dropping invalid request (offset %d): %v", message.Offset, err)
		return
	}

	jobID, err := h.queue.Submit(ctx, &payload)
	if err != nil {
		log.Printf("kafka: submit failed (offset %d): %v", message.Offset, err)
		return
	}
	log.Printf("kafka: request at offset %d submitted as job %s", message.Offset, jobID)
}
