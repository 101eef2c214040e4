package worker

import (
	"context"
	"fmt"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"cadgen/internal/model"
	"cadgen/internal/platform/rabbitmq"
)

// EventHandler processes one decoded generation event.
type EventHandler func(ctx context.Context, event model.GenerationEvent) error

// GenerationAuditWorker drains the generation event queue into handler.
type GenerationAuditWorker struct {
	conn      *amqp.Connection
	queueName string
	handler   EventHandler
	logger    *zap.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewGenerationAuditWorker(conn *amqp.Connection, queueName string, handler EventHandler, logger *zap.Logger) *GenerationAuditWorker {
	return &GenerationAuditWorker{
		conn:      conn,
		queueName: queueName,
		handler:   handler,
		logger:    logger.With(zap.String("component", "audit_worker")),
	}
}

// LogHandler writes every event to the audit log.
func LogHandler(logger *zap.Logger) EventHandler {
	return func(_ context.Context, event model.GenerationEvent) error {
		logger.Info("generation event",
			zap.String("page", string(event.Page)),
			zap.String("description", event.Description),
			zap.String("format", string(event.Format)),
			zap.Int("documents", event.Documents),
			zap.Time("created_at", event.CreatedAt),
		)
		return nil
	}
}

func (w *GenerationAuditWorker) Start(ctx context.Context) error {
	if w.cancel != nil {
		return nil
	}

	workerCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	ch, err := w.conn.Channel()
	if err != nil {
		cancel()
		return fmt.Errorf("open worker channel failed: %w", err)
	}

	if _, err := ch.QueueDeclare(w.queueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("declare worker queue failed: %w", err)
	}

	deliveries, err := ch.Consume(w.queueName, "", false, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		cancel()
		return fmt.Errorf("consume queue failed: %w", err)
	}

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		defer ch.Close()

		for {
			select {
			case <-workerCtx.Done():
				return
			case d, ok := <-deliveries:
				if !ok {
					return
				}
				if err := w.handle(workerCtx, d.Body); err != nil {
					w.logger.Warn("drop generation event", zap.Error(err))
					_ = d.Nack(false, false)
					continue
				}
				_ = d.Ack(false)
			}
		}
	}()

	return nil
}

func (w *GenerationAuditWorker) handle(ctx context.Context, body []byte) error {
	event, err := rabbitmq.DecodeEvent(body)
	if err != nil {
		return err
	}
	return w.handler(ctx, event)
}

func (w *GenerationAuditWorker) Close() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
}
