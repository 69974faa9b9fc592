package kafka

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
	"github.com/Edgar-Del/malaria-predict-mono/internal/observability"
)

// RecordSink persists ingested weekly records.
type RecordSink interface {
	UpsertWeeklyRecord(ctx context.Context, rec models.WeeklyRecord) error
}

// Consumer ingests weekly-record JSON messages into the store. Records are
// deduplicated by the sink's (municipality, year, week) upsert.
type Consumer struct {
	reader  *kafka.Reader
	sink    RecordSink
	logger  *logrus.Logger
	metrics *observability.Metrics
}

func NewConsumer(brokers []string, topic, groupID string, sink RecordSink, logger *logrus.Logger, metrics *observability.Metrics) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     brokers,
		Topic:       topic,
		GroupID:     groupID,
		StartOffset: kafka.FirstOffset,
	})
	return &Consumer{reader: reader, sink: sink, logger: logger, metrics: metrics}
}

// Run consumes until the context is cancelled. Malformed or invalid
// messages are logged, committed, and skipped; sink failures are retried by
// not committing the offset.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Infof("kafka consumer started: topic=%s", c.reader.Config().Topic)
	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}

		var rec models.WeeklyRecord
		if err := json.Unmarshal(msg.Value, &rec); err != nil {
			c.logger.Errorf("unmarshal weekly record failed at offset %d: %v", msg.Offset, err)
			c.commit(ctx, msg)
			continue
		}
		if err := rec.Validate(); err != nil {
			c.logger.Errorf("invalid weekly record at offset %d: %v", msg.Offset, err)
			c.commit(ctx, msg)
			continue
		}

		if err := c.sink.UpsertWeeklyRecord(ctx, rec); err != nil {
			c.logger.Errorf("persist weekly record %s %s failed: %v", rec.Municipality, rec.EpiWeek(), err)
			continue
		}

		c.metrics.RecordsIngested.Inc()
		c.commit(ctx, msg)
	}
}

func (c *Consumer) commit(ctx context.Context, msg kafka.Message) {
	if err := c.reader.CommitMessages(ctx, msg); err != nil {
		c.logger.Warnf("commit offset %d failed: %v", msg.Offset, err)
	}
}

func (c *Consumer) Close() error {
	return c.reader.Close()
}
