package kafka

import (
	"context"
	"time"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

type Config struct {
	Addrs []string `yaml:"addrs" envconfig:"KAFKA_ADDRS"`
}

const (
	EventsTopic = "library-events"

	AuditConsumerGroup = "audit"
)

type EventType string

const (
	EventCheckout   EventType = "CHECKOUT"
	EventReturn     EventType = "RETURN"
	EventReserve    EventType = "RESERVE"
	EventCancel     EventType = "CANCEL"
	EventFineIssued EventType = "FINE_ISSUED"
	EventFinePaid   EventType = "FINE_PAID"
)

// Event is the audit record published after every committed lifecycle
// transition.
type Event struct {
	Timestamp      time.Time `json:"timestamp"`
	Username       string    `json:"username"`
	BookUid        string    `json:"bookUid,omitempty"`
	LoanUid        string    `json:"loanUid,omitempty"`
	ReservationUid string    `json:"reservationUid,omitempty"`
	FineUid        string    `json:"fineUid,omitempty"`
	Amount         float64   `json:"amount,omitempty"`
	EventType      EventType `json:"eventType"`
}

func NewProducer(cfg Config) (sarama.SyncProducer, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Producer.RequiredAcks = sarama.WaitForAll
	defaultCfg.Producer.Return.Successes = true

	return sarama.NewSyncProducer(cfg.Addrs, defaultCfg)
}

func NewConsumer(cfg Config, group string) (sarama.ConsumerGroup, error) {
	defaultCfg := sarama.NewConfig()

	defaultCfg.Consumer.Group.Rebalance.GroupStrategies = []sarama.BalanceStrategy{sarama.NewBalanceStrategyRoundRobin()}
	defaultCfg.Consumer.Offsets.Initial = sarama.OffsetOldest

	return sarama.NewConsumerGroup(cfg.Addrs, group, defaultCfg)
}

// Consume runs the handler loop until the consumer group is closed.
func Consume(consumer sarama.ConsumerGroup, handler sarama.ConsumerGroupHandler, topic string) {
	ctx := context.Background()
	for {
		if err := consumer.Consume(ctx, []string{topic}, handler); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}
