// Package services отправляет пользователям письма о результате оплаты подписки.
package services

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/course-platform/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/lib/smtp"
	"github.com/magabrotheeeer/course-platform/internal/models"
)

const dateLayout = "02 Jan 2006"

// SenderService превращает события подписок в письма.
type SenderService struct {
	transport smtp.Mailer
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport smtp.Mailer) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// HandleSubscriptionEvent обрабатывает событие из очереди. Ошибка отправки
// возвращается как есть, и сообщение доставляется повторно. Неразбираемое
// тело помечается rabbitmq.ErrPermanent и в очередь не возвращается.
// Событие без адреса или с неожиданным статусом пропускается.
func (s *SenderService) HandleSubscriptionEvent(body []byte) error {
	const op = "services.HandleSubscriptionEvent"

	var event models.SubscriptionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w: %w", op, rabbitmq.ErrPermanent, err)
	}

	log := s.log.With(slog.String("subscription_id", event.SubscriptionID), slog.String("status", string(event.Status)))
	if event.Email == "" {
		log.Warn("subscription event without recipient, skipped")
		return nil
	}

	subject, text, ok := composeEmail(event)
	if !ok {
		log.Warn("no notification for subscription status, skipped")
		return nil
	}
	if err := s.sendEmail([]string{event.Email}, subject, text); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func composeEmail(event models.SubscriptionEvent) (subject, text string, ok bool) {
	name := event.Name
	if name == "" {
		name = "there"
	}
	switch event.Status {
	case models.StatusActive:
		return "Payment confirmed",
			fmt.Sprintf("Hi %s!\n\nYour payment for the %s plan is confirmed.\nYou have full access to all courses until %s.",
				name, event.PlanName, event.EndDate.Format(dateLayout)), true
	case models.StatusCancelled:
		return "Payment was not completed",
			fmt.Sprintf("Hi %s!\n\nYour payment for the %s plan was not completed.\nYou can start a new checkout at any time.",
				name, event.PlanName), true
	default:
		return "", "", false
	}
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	from := s.transport.From()
	msg := smtp.BuildMessage(from, to, subject, bodyText)

	client, err := s.transport.Dial()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write(msg); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
