package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/models"
)

const subscriptionColumns = `id, user_id, plan_id, status, start_date, end_date,
	payment_provider, payment_id, created_at, updated_at`

func scanSubscription(row rowScanner) (*models.Subscription, error) {
	var (
		sub       models.Subscription
		paymentID sql.NullString
	)
	if err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.StartDate, &sub.EndDate,
		&sub.PaymentProvider, &paymentID, &sub.CreatedAt, &sub.UpdatedAt); err != nil {
		return nil, err
	}
	if paymentID.Valid {
		sub.PaymentID = &paymentID.String
	}
	return &sub, nil
}

// CreatePendingSubscription атомарно проверяет, что у пользователя нет
// действующей активной подписки, и сохраняет новую.
//
// Проверка и вставка выполняются в одной транзакции под advisory lock по
// user_id, поэтому параллельные оформления одного пользователя выполняются
// последовательно. Действующей считается подписка со статусом active и
// end_date позже now.
func (s *Storage) CreatePendingSubscription(ctx context.Context, sub *models.Subscription, now time.Time) error {
	const op = "storage.CreatePendingSubscription"
	if err := ctxErr(ctx, op); err != nil {
		return err
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sub.UserID); err != nil {
		return fmt.Errorf("%s: lock: %w", op, err)
	}

	var active bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (
			SELECT 1 FROM subscriptions
			WHERE user_id = $1 AND status = 'active' AND end_date > $2
		)`, sub.UserID, now).Scan(&active)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if active {
		return fmt.Errorf("%s: %w: user already has an active subscription", op, apperr.ErrConflict)
	}

	query := `INSERT INTO subscriptions (id, user_id, plan_id, status, start_date, end_date,
				  payment_provider, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)`
	_, err = tx.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.PlanID, string(sub.Status), sub.StartDate, sub.EndDate, sub.PaymentProvider, now)
	if err != nil {
		return translate(op, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	sub.CreatedAt = now
	sub.UpdatedAt = now
	return nil
}

// GetSubscription возвращает подписку по id.
func (s *Storage) GetSubscription(ctx context.Context, id string) (*models.Subscription, error) {
	const op = "storage.GetSubscription"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	sub, err := scanSubscription(s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = $1`, id))
	if err != nil {
		return nil, translate(op, err)
	}
	return sub, nil
}

// LatestSubscription возвращает последнюю созданную подписку пользователя.
// Если подписок нет, возвращает apperr.ErrNotFound.
func (s *Storage) LatestSubscription(ctx context.Context, userID string) (*models.Subscription, error) {
	const op = "storage.LatestSubscription"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	sub, err := scanSubscription(s.DB.QueryRowContext(ctx,
		`SELECT `+subscriptionColumns+`
		 FROM subscriptions
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`, userID))
	if err != nil {
		return nil, translate(op, err)
	}
	return sub, nil
}

// UpdateSubscriptionStatus меняет статус подписки одним UPDATE.
//
// Строка меняется, только если текущий статус pending или уже равен status,
// так что active и cancelled не перезаписываются другим статусом. Пустой
// paymentID сохраняет прежнее значение. Отсутствующая подписка возвращает
// apperr.ErrNotFound.
func (s *Storage) UpdateSubscriptionStatus(ctx context.Context, id string, status models.SubscriptionStatus,
	paymentID string, now time.Time) (models.StatusUpdate, error) {
	const op = "storage.UpdateSubscriptionStatus"
	if err := ctxErr(ctx, op); err != nil {
		return models.StatusUpdate{}, err
	}

	query := `WITH prev AS (
				  SELECT id, status FROM subscriptions WHERE id = $1 FOR UPDATE
			  )
			  UPDATE subscriptions s
			  SET status = $2,
				  payment_id = COALESCE($3, s.payment_id),
				  updated_at = $4
			  FROM prev
			  WHERE s.id = prev.id AND prev.status IN ('pending', $2)
			  RETURNING prev.status`

	var previous models.SubscriptionStatus
	err := s.DB.QueryRowContext(ctx, query,
		id, string(status), sql.NullString{String: paymentID, Valid: paymentID != ""}, now).Scan(&previous)
	if err == nil {
		return models.StatusUpdate{Previous: previous, Updated: true}, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.StatusUpdate{}, fmt.Errorf("%s: %w", op, err)
	}

	err = s.DB.QueryRowContext(ctx, `SELECT status FROM subscriptions WHERE id = $1`, id).Scan(&previous)
	if err != nil {
		return models.StatusUpdate{}, translate(op, err)
	}
	return models.StatusUpdate{Previous: previous, Updated: false}, nil
}
