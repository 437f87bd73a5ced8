// Package services отдаёт каталог курсов с учётом доступа пользователя и
// ведёт отметки о прохождении уроков.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/models"
)

// RecentLimit число последних отметок на дашборде.
const RecentLimit = 5

// Repository методы хранилища для каталога и прогресса.
type Repository interface {
	ListPublishedCourses(ctx context.Context) ([]*models.Course, error)
	GetCourseBySlug(ctx context.Context, slug string) (*models.Course, error)
	ListChapters(ctx context.Context, courseID string) ([]*models.Chapter, error)
	GetLessonBySlug(ctx context.Context, courseID, lessonSlug string) (*models.Lesson, error)
	GetLesson(ctx context.Context, lessonID string) (*models.Lesson, error)
	ListQuizQuestions(ctx context.Context, lessonID string) ([]*models.QuizQuestion, error)
	UpsertProgress(ctx context.Context, p *models.LessonProgress, now time.Time) error
	ListProgress(ctx context.Context, userID string) ([]*models.LessonProgress, error)
	RecentProgress(ctx context.Context, userID string, limit int) ([]*models.ProgressItem, error)
}

// Entitlements проверка доступа к платному контенту.
type Entitlements interface {
	CheckEntitlement(ctx context.Context, userID string) (bool, error)
}

// CourseService сервис каталога и прогресса.
type CourseService struct {
	repo         Repository
	entitlements Entitlements
	log          *slog.Logger
	now          func() time.Time
}

// NewCourseService создаёт сервис.
func NewCourseService(repo Repository, entitlements Entitlements, log *slog.Logger) *CourseService {
	return &CourseService{
		repo:         repo,
		entitlements: entitlements,
		log:          log,
		now:          time.Now,
	}
}

// ListCourses возвращает опубликованные курсы.
func (s *CourseService) ListCourses(ctx context.Context) ([]*models.Course, error) {
	const op = "services.ListCourses"

	courses, err := s.repo.ListPublishedCourses(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return courses, nil
}

// GetCourse возвращает курс со структурой глав и прогрессом пользователя по нему.
func (s *CourseService) GetCourse(ctx context.Context, userID, slug string) (*models.CourseDetail, error) {
	const op = "services.GetCourse"

	course, err := s.repo.GetCourseBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	chapters, err := s.repo.ListChapters(ctx, course.ID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	done, err := s.completedLessons(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	detail := &models.CourseDetail{
		Course:    course,
		Chapters:  chapters,
		Completed: make(map[string]bool),
	}
	for _, ch := range chapters {
		for _, l := range ch.Lessons {
			detail.TotalLessons++
			if done[l.ID] {
				detail.Completed[l.ID] = true
				detail.CompletedLessons++
			}
		}
	}
	detail.ProgressPercent = percent(detail.CompletedLessons, detail.TotalLessons)
	return detail, nil
}

// GetLesson возвращает урок курса. Урок платного курса доступен только при
// действующей подписке, иначе apperr.ErrForbidden.
func (s *CourseService) GetLesson(ctx context.Context, userID, courseSlug, lessonSlug string) (*models.LessonDetail, error) {
	const op = "services.GetLesson"

	course, err := s.repo.GetCourseBySlug(ctx, courseSlug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !course.IsFree {
		ok, err := s.entitlements.CheckEntitlement(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if !ok {
			return nil, fmt.Errorf("%s: %w: active subscription required", op, apperr.ErrForbidden)
		}
	}

	lesson, err := s.repo.GetLessonBySlug(ctx, course.ID, lessonSlug)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	done, err := s.completedLessons(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	detail := &models.LessonDetail{
		Course:    course,
		Lesson:    lesson,
		Completed: done[lesson.ID],
	}
	if lesson.Type == models.LessonQuiz {
		detail.Quiz, err = s.repo.ListQuizQuestions(ctx, lesson.ID)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return detail, nil
}

// SetLessonCompletion отмечает урок пройденным или снимает отметку.
// Время отметки обновляется при каждом вызове.
func (s *CourseService) SetLessonCompletion(ctx context.Context, userID, lessonID string, completed bool) (*models.LessonProgress, error) {
	const op = "services.SetLessonCompletion"

	if _, err := s.repo.GetLesson(ctx, lessonID); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p := &models.LessonProgress{
		ID:        uuid.NewString(),
		UserID:    userID,
		LessonID:  lessonID,
		Completed: completed,
	}
	if err := s.repo.UpsertProgress(ctx, p, s.now()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("lesson progress saved",
		slog.String("user_id", userID), slog.String("lesson_id", lessonID), slog.Bool("completed", completed))
	return p, nil
}

// Dashboard собирает сводку обучения пользователя.
func (s *CourseService) Dashboard(ctx context.Context, userID string) (*models.Dashboard, error) {
	const op = "services.Dashboard"

	progress, err := s.repo.ListProgress(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	recent, err := s.repo.RecentProgress(ctx, userID, RecentLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	entitled, err := s.entitlements.CheckEntitlement(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	d := &models.Dashboard{
		TrackedLessons: len(progress),
		Recent:         recent,
		Entitled:       entitled,
	}
	for _, p := range progress {
		if p.Completed {
			d.CompletedLessons++
		}
	}
	return d, nil
}

func (s *CourseService) completedLessons(ctx context.Context, userID string) (map[string]bool, error) {
	progress, err := s.repo.ListProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	done := make(map[string]bool, len(progress))
	for _, p := range progress {
		if p.Completed {
			done[p.LessonID] = true
		}
	}
	return done, nil
}

// percent округляет долю до целого процента.
func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(part) * 100 / float64(total))
}
