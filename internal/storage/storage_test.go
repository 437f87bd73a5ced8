package storage

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/migrations"
	"github.com/magabrotheeeer/course-platform/internal/models"
)

// setupTestStorage поднимает PostgreSQL в контейнере и применяет миграции проекта.
func setupTestStorage(t *testing.T) *Storage {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping PostgreSQL integration test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "failed to start container")
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = storage.Close() })

	root, err := filepath.Abs("../..")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, filepath.Join(root, "migrations")))
	require.NoError(t, storage.CheckDatabaseReady(ctx))

	return storage
}

func createTestUser(t *testing.T, s *Storage, email string) *models.User {
	t.Helper()
	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "hash",
		Role:         models.RoleStudent,
	}
	require.NoError(t, s.CreateUser(context.Background(), u))
	return u
}

func newPending(userID, planID string, start time.Time, days int) *models.Subscription {
	return &models.Subscription{
		ID:              uuid.NewString(),
		UserID:          userID,
		PlanID:          planID,
		Status:          models.StatusPending,
		StartDate:       start,
		EndDate:         start.Add(time.Duration(days) * 24 * time.Hour),
		PaymentProvider: "midtrans",
	}
}

func TestStorage_Users(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	u := createTestUser(t, s, "budi@example.com")
	assert.False(t, u.CreatedAt.IsZero())

	got, err := s.GetUserByEmail(ctx, "budi@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "hash", got.PasswordHash)

	got, err = s.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "budi@example.com", got.Email)

	dup := &models.User{ID: uuid.NewString(), Email: "budi@example.com", PasswordHash: "x", Role: models.RoleStudent}
	err = s.CreateUser(ctx, dup)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	_, err = s.GetUser(ctx, uuid.NewString())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStorage_Plans(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	plans, err := s.ListPlans(ctx)
	require.NoError(t, err)
	require.Len(t, plans, 2)
	assert.Equal(t, "Monthly", plans[0].Name)
	assert.Equal(t, int64(299900), plans[0].Price)
	assert.Equal(t, 30, plans[0].DurationDays)
	assert.Equal(t, "Full access to all courses", plans[0].Features[0])
	assert.Equal(t, "Yearly", plans[1].Name)

	p, err := s.GetPlan(ctx, "plan-yearly")
	require.NoError(t, err)
	assert.Equal(t, 365, p.DurationDays)
	assert.Len(t, p.Features, 5)

	_, err = s.GetPlan(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStorage_CreatePendingSubscription_Guard(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()
	u := createTestUser(t, s, "guard@example.com")
	now := time.Now().UTC()

	first := newPending(u.ID, "plan-monthly", now, 30)
	require.NoError(t, s.CreatePendingSubscription(ctx, first, now))

	// pending не блокирует повторное оформление
	second := newPending(u.ID, "plan-monthly", now.Add(time.Second), 30)
	require.NoError(t, s.CreatePendingSubscription(ctx, second, now.Add(time.Second)))

	upd, err := s.UpdateSubscriptionStatus(ctx, second.ID, models.StatusActive, "TX1", now.Add(2*time.Second))
	require.NoError(t, err)
	assert.True(t, upd.Updated)

	third := newPending(u.ID, "plan-monthly", now.Add(3*time.Second), 30)
	err = s.CreatePendingSubscription(ctx, third, now.Add(3*time.Second))
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// истёкшая активная подписка не блокирует продление
	later := now.Add(31 * 24 * time.Hour)
	renewal := newPending(u.ID, "plan-monthly", later, 30)
	require.NoError(t, s.CreatePendingSubscription(ctx, renewal, later))

	latest, err := s.LatestSubscription(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, renewal.ID, latest.ID)
}

func TestStorage_CreatePendingSubscription_UnknownPlan(t *testing.T) {
	s := setupTestStorage(t)
	u := createTestUser(t, s, "fk@example.com")
	now := time.Now().UTC()

	err := s.CreatePendingSubscription(context.Background(), newPending(u.ID, "no-such-plan", now, 30), now)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStorage_CreatePendingSubscription_Concurrent(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()
	now := time.Now().UTC()

	run := func(userID string, workers int) (created, conflicts int) {
		var (
			wg sync.WaitGroup
			mu sync.Mutex
		)
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := s.CreatePendingSubscription(ctx, newPending(userID, "plan-monthly", now, 30), now)
				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					created++
				case errors.Is(err, apperr.ErrConflict):
					conflicts++
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()
		return created, conflicts
	}

	t.Run("pending records do not block each other", func(t *testing.T) {
		u := createTestUser(t, s, "race-pending@example.com")
		created, conflicts := run(u.ID, 8)
		assert.Equal(t, 8, created)
		assert.Zero(t, conflicts)
	})

	t.Run("active record blocks every concurrent checkout", func(t *testing.T) {
		u := createTestUser(t, s, "race-active@example.com")
		sub := newPending(u.ID, "plan-monthly", now, 30)
		require.NoError(t, s.CreatePendingSubscription(ctx, sub, now))
		_, err := s.UpdateSubscriptionStatus(ctx, sub.ID, models.StatusActive, "TX1", now)
		require.NoError(t, err)

		created, conflicts := run(u.ID, 8)
		assert.Zero(t, created)
		assert.Equal(t, 8, conflicts)

		var total int
		require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM subscriptions WHERE user_id = $1`, u.ID).Scan(&total))
		assert.Equal(t, 1, total)
	})
}

func TestStorage_UpdateSubscriptionStatus(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()
	u := createTestUser(t, s, "webhook@example.com")
	now := time.Now().UTC()

	sub := newPending(u.ID, "plan-monthly", now, 30)
	require.NoError(t, s.CreatePendingSubscription(ctx, sub, now))

	// pending -> pending: строка трогается, статус прежний
	upd, err := s.UpdateSubscriptionStatus(ctx, sub.ID, models.StatusPending, "", now)
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpdate{Previous: models.StatusPending, Updated: true}, upd)

	upd, err = s.UpdateSubscriptionStatus(ctx, sub.ID, models.StatusActive, "TX1", now.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpdate{Previous: models.StatusPending, Updated: true}, upd)

	// повторная доставка
	upd, err = s.UpdateSubscriptionStatus(ctx, sub.ID, models.StatusActive, "TX1", now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpdate{Previous: models.StatusActive, Updated: true}, upd)

	// active не перезаписывается
	upd, err = s.UpdateSubscriptionStatus(ctx, sub.ID, models.StatusCancelled, "TX2", now.Add(3*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, models.StatusUpdate{Previous: models.StatusActive, Updated: false}, upd)

	upd, err = s.UpdateSubscriptionStatus(ctx, sub.ID, models.StatusPending, "TX3", now.Add(4*time.Minute))
	require.NoError(t, err)
	assert.False(t, upd.Updated)

	got, err := s.GetSubscription(ctx, sub.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	require.NotNil(t, got.PaymentID)
	assert.Equal(t, "TX1", *got.PaymentID)
	assert.WithinDuration(t, sub.EndDate, got.EndDate, time.Millisecond)

	_, err = s.UpdateSubscriptionStatus(ctx, "missing", models.StatusActive, "TX", now)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStorage_LatestSubscription_None(t *testing.T) {
	s := setupTestStorage(t)
	u := createTestUser(t, s, "none@example.com")

	_, err := s.LatestSubscription(context.Background(), u.ID)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStorage_Courses(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()

	courses, err := s.ListPublishedCourses(ctx)
	require.NoError(t, err)
	require.Len(t, courses, 2)
	assert.Equal(t, "content-creator-influencer-mastery", courses[0].Slug)
	assert.False(t, courses[0].IsFree)
	assert.True(t, courses[1].IsFree)

	course, err := s.GetCourseBySlug(ctx, "content-creator-influencer-mastery")
	require.NoError(t, err)

	chapters, err := s.ListChapters(ctx, course.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "influencer-fundamentals", chapters[0].Slug)
	require.Len(t, chapters[0].Lessons, 2)
	assert.Equal(t, "intro-to-influencer-industry", chapters[0].Lessons[0].Slug)
	assert.Len(t, chapters[1].Lessons, 1)

	lesson, err := s.GetLessonBySlug(ctx, course.ID, "influencer-industry-quiz")
	require.NoError(t, err)
	assert.Equal(t, models.LessonQuiz, lesson.Type)

	quiz, err := s.ListQuizQuestions(ctx, lesson.ID)
	require.NoError(t, err)
	require.Len(t, quiz, 1)
	assert.Equal(t, "A", quiz[0].CorrectAnswer)

	_, err = s.GetLessonBySlug(ctx, course.ID, "tiktok-account-setup")
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = s.GetCourseBySlug(ctx, "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestStorage_Progress(t *testing.T) {
	s := setupTestStorage(t)
	ctx := context.Background()
	u := createTestUser(t, s, "progress@example.com")
	now := time.Now().UTC()

	p := &models.LessonProgress{ID: uuid.NewString(), UserID: u.ID, LessonID: "lesson-intro-industry", Completed: true}
	require.NoError(t, s.UpsertProgress(ctx, p, now))
	firstID := p.ID

	// повторная отметка обновляет ту же строку и снова проставляет completed_at
	again := &models.LessonProgress{ID: uuid.NewString(), UserID: u.ID, LessonID: "lesson-intro-industry", Completed: false}
	require.NoError(t, s.UpsertProgress(ctx, again, now.Add(time.Hour)))
	assert.Equal(t, firstID, again.ID)

	other := &models.LessonProgress{ID: uuid.NewString(), UserID: u.ID, LessonID: "lesson-tiktok-setup", Completed: true}
	require.NoError(t, s.UpsertProgress(ctx, other, now.Add(2*time.Hour)))

	list, err := s.ListProgress(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, item := range list {
		require.NotNil(t, item.CompletedAt)
		if item.LessonID == "lesson-intro-industry" {
			assert.False(t, item.Completed)
			assert.WithinDuration(t, now.Add(time.Hour), *item.CompletedAt, time.Millisecond)
		}
	}

	recent, err := s.RecentProgress(ctx, u.ID, 5)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "lesson-tiktok-setup", recent[0].LessonID)
	assert.Equal(t, "TikTok Growth Crash Course", recent[0].CourseTitle)

	bad := &models.LessonProgress{ID: uuid.NewString(), UserID: u.ID, LessonID: "missing"}
	assert.ErrorIs(t, s.UpsertProgress(ctx, bad, now), apperr.ErrNotFound)
}

func TestStorage_ContextCancelled(t *testing.T) {
	s := &Storage{}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.GetUser(ctx, "id")
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.ListPlans(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	err = s.CreatePendingSubscription(ctx, &models.Subscription{}, time.Now())
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.UpdateSubscriptionStatus(ctx, "id", models.StatusActive, "", time.Now())
	assert.ErrorIs(t, err, context.Canceled)
}
