// Package services содержит жизненный цикл подписок: оформление с переходом
// к оплате, сверку уведомлений платёжного шлюза и проверку доступа.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/course-platform/internal/cache"
	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/lib/period"
	"github.com/magabrotheeeer/course-platform/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/metrics"
	"github.com/magabrotheeeer/course-platform/internal/models"
	"github.com/magabrotheeeer/course-platform/internal/paymentprovider"
)

// Repository методы хранилища, нужные жизненному циклу подписки.
type Repository interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
	ListPlans(ctx context.Context) ([]*models.Plan, error)
	CreatePendingSubscription(ctx context.Context, sub *models.Subscription, now time.Time) error
	GetSubscription(ctx context.Context, id string) (*models.Subscription, error)
	LatestSubscription(ctx context.Context, userID string) (*models.Subscription, error)
	UpdateSubscriptionStatus(ctx context.Context, id string, status models.SubscriptionStatus,
		paymentID string, now time.Time) (models.StatusUpdate, error)
}

// Gateway платёжный шлюз.
type Gateway interface {
	Name() string
	CreateTransaction(ctx context.Context, req paymentprovider.TransactionRequest) (*paymentprovider.TransactionResponse, error)
}

// Publisher публикует события подписок в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Cache кеш каталога тарифов.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// Outcome результат сверки уведомления шлюза.
type Outcome string

const (
	// OutcomeApplied статус подписки изменился.
	OutcomeApplied Outcome = "applied"
	// OutcomeUnchanged повторная доставка или подписка уже в конечном статусе.
	OutcomeUnchanged Outcome = "unchanged"
	// OutcomeNotFound подписки с таким order_id нет.
	OutcomeNotFound Outcome = "not_found"
)

// SubscriptionService реализует жизненный цикл подписки.
type SubscriptionService struct {
	repo      Repository
	gateway   Gateway
	cache     Cache
	publisher Publisher
	plansTTL  time.Duration
	log       *slog.Logger
	now       func() time.Time
}

// NewSubscriptionService создаёт сервис. cache и publisher могут быть nil:
// тогда тарифы читаются из хранилища напрямую, а события не публикуются.
func NewSubscriptionService(repo Repository, gateway Gateway, cache Cache, publisher Publisher,
	plansTTL time.Duration, log *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		repo:      repo,
		gateway:   gateway,
		cache:     cache,
		publisher: publisher,
		plansTTL:  plansTTL,
		log:       log,
		now:       time.Now,
	}
}

// MapTransactionStatus переводит transaction_status шлюза в статус подписки.
// Сравнение регистрозависимое, неизвестные значения дают pending.
func MapTransactionStatus(providerStatus string) models.SubscriptionStatus {
	switch providerStatus {
	case "capture", "settlement", "captured":
		return models.StatusActive
	case "deny", "cancel", "expire":
		return models.StatusCancelled
	default:
		return models.StatusPending
	}
}

// CreateSubscription оформляет подписку пользователя на тариф: сохраняет
// её в статусе pending и создаёт транзакцию в шлюзе с order_id, равным id
// подписки. Отказ шлюза оставляет pending-запись и возвращает apperr.ErrUpstream.
func (s *SubscriptionService) CreateSubscription(ctx context.Context, userID, planID string) (*models.Checkout, error) {
	const op = "services.CreateSubscription"

	checkout, err := s.createSubscription(ctx, userID, planID)
	switch {
	case err == nil:
		metrics.RecordCheckout("created")
	case errors.Is(err, apperr.ErrConflict):
		metrics.RecordCheckout("conflict")
	case errors.Is(err, apperr.ErrNotFound):
		metrics.RecordCheckout("not_found")
	case errors.Is(err, apperr.ErrUpstream):
		metrics.RecordCheckout("upstream_error")
	default:
		metrics.RecordCheckout(metrics.ResultError)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return checkout, nil
}

func (s *SubscriptionService) createSubscription(ctx context.Context, userID, planID string) (*models.Checkout, error) {
	user, err := s.repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	plan, err := s.repo.GetPlan(ctx, planID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sub := &models.Subscription{
		ID:              uuid.NewString(),
		UserID:          user.ID,
		PlanID:          plan.ID,
		Status:          models.StatusPending,
		StartDate:       now,
		EndDate:         period.EndDate(now, plan.DurationDays),
		PaymentProvider: s.gateway.Name(),
	}
	if err := s.repo.CreatePendingSubscription(ctx, sub, now); err != nil {
		return nil, err
	}

	trx, err := s.gateway.CreateTransaction(ctx, paymentprovider.TransactionRequest{
		TransactionDetails: paymentprovider.TransactionDetails{OrderID: sub.ID, GrossAmount: plan.Price},
		CustomerDetails:    paymentprovider.CustomerDetails{FirstName: user.Name, Email: user.Email},
		ItemDetails: []paymentprovider.ItemDetails{
			{ID: plan.ID, Price: plan.Price, Quantity: 1, Name: plan.Name},
		},
	})
	if err != nil {
		s.log.Error("payment gateway rejected transaction",
			slog.String("subscription_id", sub.ID), slog.String("user_id", user.ID), sl.Err(err))
		if !errors.Is(err, apperr.ErrUpstream) {
			err = fmt.Errorf("%w: %w", apperr.ErrUpstream, err)
		}
		return nil, err
	}

	s.log.Info("subscription created",
		slog.String("subscription_id", sub.ID), slog.String("user_id", user.ID), slog.String("plan_id", plan.ID))
	return &models.Checkout{
		SubscriptionID: sub.ID,
		Token:          trx.Token,
		RedirectURL:    trx.RedirectURL,
	}, nil
}

// ReconcilePaymentNotification применяет уведомление шлюза к подписке order_id.
//
// Повторная доставка того же уведомления ничего не меняет, подписка в
// статусе active или cancelled другим статусом не перезаписывается.
// Неизвестный order_id не является ошибкой: возвращается OutcomeNotFound.
func (s *SubscriptionService) ReconcilePaymentNotification(ctx context.Context, orderID, providerStatus,
	providerTransactionID string) (Outcome, error) {
	const op = "services.ReconcilePaymentNotification"

	if orderID == "" || providerStatus == "" {
		return "", fmt.Errorf("%s: %w: order_id and transaction_status are required", op, apperr.ErrInvalidInput)
	}

	log := s.log.With(
		slog.String("op", op),
		slog.String("order_id", orderID),
		slog.String("transaction_status", providerStatus),
	)

	target := MapTransactionStatus(providerStatus)
	upd, err := s.repo.UpdateSubscriptionStatus(ctx, orderID, target, providerTransactionID, s.now())
	if errors.Is(err, apperr.ErrNotFound) {
		log.Warn("payment notification for unknown order")
		metrics.RecordWebhook(providerStatus, string(OutcomeNotFound))
		return OutcomeNotFound, nil
	}
	if err != nil {
		metrics.RecordWebhook(providerStatus, metrics.ResultError)
		return "", fmt.Errorf("%s: %w", op, err)
	}

	outcome := OutcomeApplied
	switch {
	case !upd.Updated:
		outcome = OutcomeUnchanged
		log.Warn("payment notification ignored, subscription already settled",
			slog.String("current_status", string(upd.Previous)))
	case upd.Previous == target:
		outcome = OutcomeUnchanged
		log.Debug("duplicate payment notification")
	default:
		log.Info("subscription status changed",
			slog.String("from", string(upd.Previous)), slog.String("to", string(target)))
	}
	metrics.RecordWebhook(providerStatus, string(outcome))

	if outcome == OutcomeApplied && target.Terminal() {
		s.publishStatusEvent(ctx, log, orderID)
	}
	return outcome, nil
}

// publishStatusEvent отправляет событие о смене статуса. Ошибки только логируются.
func (s *SubscriptionService) publishStatusEvent(ctx context.Context, log *slog.Logger, subscriptionID string) {
	if s.publisher == nil {
		return
	}

	sub, err := s.repo.GetSubscription(ctx, subscriptionID)
	if err != nil {
		log.Error("failed to load subscription for event", sl.Err(err))
		return
	}
	event := models.SubscriptionEvent{
		SubscriptionID: sub.ID,
		UserID:         sub.UserID,
		Status:         sub.Status,
		EndDate:        sub.EndDate,
	}
	if user, err := s.repo.GetUser(ctx, sub.UserID); err == nil {
		event.Email = user.Email
		event.Name = user.Name
	} else {
		log.Error("failed to load user for event", sl.Err(err))
	}
	if plan, err := s.repo.GetPlan(ctx, sub.PlanID); err == nil {
		event.PlanName = plan.Name
	} else {
		log.Error("failed to load plan for event", sl.Err(err))
	}

	routingKey := rabbitmq.RoutingKey(sub.Status)
	if err := s.publisher.Publish(ctx, routingKey, event); err != nil {
		metrics.RecordEventPublished(routingKey, metrics.ResultError)
		log.Error("failed to publish subscription event", slog.String("routing_key", routingKey), sl.Err(err))
		return
	}
	metrics.RecordEventPublished(routingKey, metrics.ResultOK)
}

// CheckEntitlement сообщает, есть ли у пользователя доступ к платному контенту:
// последняя подписка активна и её срок ещё не истёк.
func (s *SubscriptionService) CheckEntitlement(ctx context.Context, userID string) (bool, error) {
	const op = "services.CheckEntitlement"

	sub, err := s.repo.LatestSubscription(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return period.Entitled(sub.Status, sub.EndDate, s.now()), nil
}

// CurrentSubscription возвращает последнюю подписку пользователя с тарифом и
// статусом на текущий момент. Если подписок нет, Subscription в ответе nil.
func (s *SubscriptionService) CurrentSubscription(ctx context.Context, userID string) (*models.SubscriptionView, error) {
	const op = "services.CurrentSubscription"

	sub, err := s.repo.LatestSubscription(ctx, userID)
	if errors.Is(err, apperr.ErrNotFound) {
		return &models.SubscriptionView{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	view := &models.SubscriptionView{
		Subscription:    sub,
		EffectiveStatus: period.Effective(sub.Status, sub.EndDate, now),
		Entitled:        period.Entitled(sub.Status, sub.EndDate, now),
	}
	if view.Entitled {
		view.DaysLeft = period.DaysLeft(sub.EndDate, now)
	}

	plan, err := s.repo.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	view.Plan = plan
	return view, nil
}

// ListPlans возвращает каталог тарифов по возрастанию цены. Каталог
// кешируется, недоступность кеша не мешает ответу.
func (s *SubscriptionService) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	const op = "services.ListPlans"

	if s.cache != nil {
		var plans []*models.Plan
		found, err := s.cache.Get(ctx, cache.PlansKey, &plans)
		if err != nil {
			s.log.Warn("plans cache read failed", sl.Err(err))
		}
		if found {
			metrics.RecordPlanCache(metrics.ResultHit)
			return plans, nil
		}
		metrics.RecordPlanCache(metrics.ResultMiss)
	}

	plans, err := s.repo.ListPlans(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, cache.PlansKey, plans, s.plansTTL); err != nil {
			s.log.Warn("plans cache write failed", sl.Err(err))
		}
	}
	return plans, nil
}
