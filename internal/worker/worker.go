package worker

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"

	"ecomsync/internal/config"
	"ecomsync/internal/events"
	"ecomsync/internal/logger"
)

// Processor handles one decoded event.
type Processor interface {
	Process(ctx context.Context, event events.Event) error
}

// MessageReader is the part of kafka.Reader the worker uses.
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Worker struct {
	logger    *logger.Logger
	reader    MessageReader
	processor Processor
	timeout   time.Duration
}

func New(cfg *config.Config, logger *logger.Logger, processor Processor) *Worker {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.Brokers(),
		GroupID:        cfg.KafkaGroupID,
		Topic:          cfg.KafkaTopic,
		MinBytes:       10e3, // 10KB
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
	})
	return NewWithReader(reader, logger, processor)
}

// NewWithReader builds a worker around an existing reader.
func NewWithReader(reader MessageReader, logger *logger.Logger, processor Processor) *Worker {
	return &Worker{
		logger:    logger,
		reader:    reader,
		processor: processor,
		timeout:   time.Minute,
	}
}

// Start consumes events until ctx is cancelled. Every message is committed
// once handled; failed events are logged and dropped.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Worker started, listening for events...")

	for {
		message, err := w.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			w.logger.Error("Failed to read message: %v", err)
			continue
		}

		w.handle(ctx, message)

		if err := w.reader.CommitMessages(ctx, message); err != nil && ctx.Err() == nil {
			w.logger.Error("Failed to commit message: %v", err)
		}
	}
}

func (w *Worker) handle(ctx context.Context, message kafka.Message) {
	w.logger.Debug("Received message at offset %d", message.Offset)

	event, err := events.Decode(message.Value)
	if err != nil {
		w.logger.Error("Failed to parse event: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	if err := w.processor.Process(ctx, event); err != nil {
		w.logger.Errorw("Failed to process event",
			"event", event.ID,
			"type", event.Type,
			"error", err)
		return
	}
	w.logger.Debug("Event %s processed successfully", event.ID)
}

func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	w.reader.Close()
}
