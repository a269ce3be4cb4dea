package service

import (
	"encoding/json"

	"github.com/IBM/sarama"
	"github.com/bibliotech/library-service/pkg/kafka"
	"go.uber.org/zap"
)

// Publisher emits audit events after a lifecycle transition has committed.
// Publishing is best effort and never fails the originating operation.
type Publisher interface {
	Publish(event kafka.Event)
}

type kafkaPublisher struct {
	producer sarama.SyncProducer
	log      *zap.Logger
}

func NewPublisher(producer sarama.SyncProducer, log *zap.Logger) Publisher {
	return &kafkaPublisher{
		producer: producer,
		log:      log.Named("publisher"),
	}
}

func (p *kafkaPublisher) Publish(event kafka.Event) {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("marshal event", zap.Error(err))
		return
	}
	msg := &sarama.ProducerMessage{Topic: kafka.EventsTopic, Value: sarama.StringEncoder(data)}
	if _, _, err := p.producer.SendMessage(msg); err != nil {
		p.log.Error("publish event", zap.String("type", string(event.EventType)), zap.Error(err))
	}
}

type noopPublisher struct{}

// NewNoopPublisher is used when Kafka is not configured.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) Publish(kafka.Event) {}
