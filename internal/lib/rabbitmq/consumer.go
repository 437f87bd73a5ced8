package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
)

// maxInFlight сколько сообщений одной очереди обрабатываются одновременно.
const maxInFlight = 10

// ErrPermanent помечает ошибку обработчика, после которой повторная доставка
// бессмысленна (например, тело сообщения не разбирается). Такое сообщение
// отклоняется без возврата в очередь.
var ErrPermanent = errors.New("permanent message failure")

// ConsumerMessage запускает потребителя очереди queueName.
//
// Успешно обработанное сообщение подтверждается. При ошибке handler
// сообщение возвращается в очередь, если ошибка не обёрнута в ErrPermanent.
// Потребление прекращается по ctx.
func ConsumerMessage(ctx context.Context, log *slog.Logger, ch *amqp.Channel, queueName string, handler func([]byte) error) error {
	const op = "rabbitmq.ConsumerMessage"

	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log = log.With(slog.String("op", op), slog.String("queue", queueName))
	sem := make(chan struct{}, maxInFlight)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					log.Info("delivery channel closed")
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					settle(log, d, handler(d.Body))
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

// settle подтверждает или отклоняет доставку по результату обработчика.
func settle(log *slog.Logger, d amqp.Delivery, err error) {
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Error("failed to ack message", sl.Err(ackErr))
		}
	case errors.Is(err, ErrPermanent):
		log.Error("dropping message that cannot be processed", sl.Err(err))
		if rejectErr := d.Reject(false); rejectErr != nil {
			log.Error("failed to reject message", sl.Err(rejectErr))
		}
	default:
		log.Error("failed to handle message, requeueing", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
	}
}
