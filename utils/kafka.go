package utils

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/shiftwise/shiftwise-backend/config"
)

var issueWriter *kafka.Writer

// InitializeKafka sets up the writer for the issue-updates topic.
func InitializeKafka(cfg *config.Config) {
	issueWriter = &kafka.Writer{
		Addr:         kafka.TCP(strings.Split(cfg.KafkaBrokers, ",")...),
		Topic:        cfg.KafkaIssueTopic,
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 50 * time.Millisecond,
	}
	log.Printf("✅ Kafka writer ready (topic=%s)", cfg.KafkaIssueTopic)
}

// PublishIssueEvent queues an issue-update event. The write is best-effort:
// notification fan-out must never block or fail the mutation that triggered it.
func PublishIssueEvent(key string, payload []byte) {
	if issueWriter == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := issueWriter.WriteMessages(ctx, kafka.Message{
		Key:   []byte(key),
		Value: payload,
	}); err != nil {
		log.Printf("⚠️  Kafka publish failed for issue %s: %v", key, err)
	}
}

// NewIssueReader builds a consumer for the issue-updates topic.
func NewIssueReader(cfg *config.Config) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers: strings.Split(cfg.KafkaBrokers, ","),
		Topic:   cfg.KafkaIssueTopic,
		GroupID: cfg.KafkaGroupID,
	})
}
