package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/course-platform/internal/models"
)

// UpsertProgress создаёт или обновляет отметку урока по паре (user_id, lesson_id).
// completed_at проставляется при каждом вызове независимо от completed.
func (s *Storage) UpsertProgress(ctx context.Context, p *models.LessonProgress, now time.Time) error {
	const op = "storage.UpsertProgress"
	if err := ctxErr(ctx, op); err != nil {
		return err
	}

	query := `INSERT INTO user_progress (id, user_id, lesson_id, completed, completed_at, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5, $5, $5)
			  ON CONFLICT (user_id, lesson_id) DO UPDATE
			  SET completed = EXCLUDED.completed,
				  completed_at = EXCLUDED.completed_at,
				  updated_at = EXCLUDED.updated_at
			  RETURNING id`
	if err := s.DB.QueryRowContext(ctx, query, p.ID, p.UserID, p.LessonID, p.Completed, now).Scan(&p.ID); err != nil {
		return translate(op, err)
	}
	p.CompletedAt = &now
	p.UpdatedAt = now
	return nil
}

// ListProgress возвращает все отметки пользователя.
func (s *Storage) ListProgress(ctx context.Context, userID string) ([]*models.LessonProgress, error) {
	const op = "storage.ListProgress"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, user_id, lesson_id, completed, completed_at, updated_at
		FROM user_progress
		WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make([]*models.LessonProgress, 0)
	for rows.Next() {
		var (
			p           models.LessonProgress
			completedAt sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.LessonID, &p.Completed, &completedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if completedAt.Valid {
			p.CompletedAt = &completedAt.Time
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RecentProgress возвращает последние limit отметок пользователя с названиями урока и курса.
func (s *Storage) RecentProgress(ctx context.Context, userID string, limit int) ([]*models.ProgressItem, error) {
	const op = "storage.RecentProgress"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT l.id, l.title, c.title, c.slug, p.completed, p.completed_at
		FROM user_progress p
		JOIN lessons l ON l.id = p.lesson_id
		JOIN chapters ch ON ch.id = l.chapter_id
		JOIN courses c ON c.id = ch.course_id
		WHERE p.user_id = $1
		ORDER BY p.updated_at DESC
		LIMIT $2`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make([]*models.ProgressItem, 0)
	for rows.Next() {
		var (
			item        models.ProgressItem
			completedAt sql.NullTime
		)
		if err := rows.Scan(&item.LessonID, &item.LessonTitle, &item.CourseTitle, &item.CourseSlug,
			&item.Completed, &completedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if completedAt.Valid {
			item.CompletedAt = &completedAt.Time
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
