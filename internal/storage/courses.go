package storage

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/course-platform/internal/models"
)

const courseColumns = `c.id, c.title, c.description, c.thumbnail, c.slug, c.status, c.is_free, c.sort_order, c.created_at`

func scanCourse(row rowScanner) (*models.Course, error) {
	var c models.Course
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Thumbnail, &c.Slug, &c.Status,
		&c.IsFree, &c.SortOrder, &c.CreatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

const lessonColumns = `l.id, l.chapter_id, l.title, l.description, l.content, l.video_url, l.type, l.slug, l.sort_order`

func scanLesson(row rowScanner) (*models.Lesson, error) {
	var l models.Lesson
	if err := row.Scan(&l.ID, &l.ChapterID, &l.Title, &l.Description, &l.Content, &l.VideoURL,
		&l.Type, &l.Slug, &l.SortOrder); err != nil {
		return nil, err
	}
	return &l, nil
}

// ListPublishedCourses возвращает опубликованные курсы в порядке сортировки.
func (s *Storage) ListPublishedCourses(ctx context.Context) ([]*models.Course, error) {
	const op = "storage.ListPublishedCourses"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT `+courseColumns+`
		FROM courses c
		WHERE c.status = $1
		ORDER BY c.sort_order, c.created_at`, models.CoursePublished)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make([]*models.Course, 0)
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetCourseBySlug возвращает опубликованный курс по slug.
func (s *Storage) GetCourseBySlug(ctx context.Context, slug string) (*models.Course, error) {
	const op = "storage.GetCourseBySlug"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	c, err := scanCourse(s.DB.QueryRowContext(ctx, `SELECT `+courseColumns+`
		FROM courses c
		WHERE c.slug = $1 AND c.status = $2`, slug, models.CoursePublished))
	if err != nil {
		return nil, translate(op, err)
	}
	return c, nil
}

// ListChapters возвращает главы курса с уроками, и те и другие в порядке сортировки.
func (s *Storage) ListChapters(ctx context.Context, courseID string) ([]*models.Chapter, error) {
	const op = "storage.ListChapters"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, course_id, title, description, slug, sort_order
		FROM chapters
		WHERE course_id = $1
		ORDER BY sort_order, created_at`, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	chapters := make([]*models.Chapter, 0)
	byID := make(map[string]*models.Chapter)
	for rows.Next() {
		ch := &models.Chapter{Lessons: make([]*models.Lesson, 0)}
		if err := rows.Scan(&ch.ID, &ch.CourseID, &ch.Title, &ch.Description, &ch.Slug, &ch.SortOrder); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		chapters = append(chapters, ch)
		byID[ch.ID] = ch
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	lessonRows, err := s.DB.QueryContext(ctx, `SELECT `+lessonColumns+`
		FROM lessons l
		JOIN chapters ch ON ch.id = l.chapter_id
		WHERE ch.course_id = $1
		ORDER BY l.sort_order, l.created_at`, courseID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer lessonRows.Close()

	for lessonRows.Next() {
		l, err := scanLesson(lessonRows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if ch, ok := byID[l.ChapterID]; ok {
			ch.Lessons = append(ch.Lessons, l)
		}
	}
	if err := lessonRows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return chapters, nil
}

// GetLessonBySlug возвращает урок курса по slug.
func (s *Storage) GetLessonBySlug(ctx context.Context, courseID, lessonSlug string) (*models.Lesson, error) {
	const op = "storage.GetLessonBySlug"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	l, err := scanLesson(s.DB.QueryRowContext(ctx, `SELECT `+lessonColumns+`
		FROM lessons l
		JOIN chapters ch ON ch.id = l.chapter_id
		WHERE ch.course_id = $1 AND l.slug = $2`, courseID, lessonSlug))
	if err != nil {
		return nil, translate(op, err)
	}
	return l, nil
}

// GetLesson возвращает урок по id.
func (s *Storage) GetLesson(ctx context.Context, lessonID string) (*models.Lesson, error) {
	const op = "storage.GetLesson"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	l, err := scanLesson(s.DB.QueryRowContext(ctx, `SELECT `+lessonColumns+`
		FROM lessons l
		WHERE l.id = $1`, lessonID))
	if err != nil {
		return nil, translate(op, err)
	}
	return l, nil
}

// ListQuizQuestions возвращает вопросы теста урока.
func (s *Storage) ListQuizQuestions(ctx context.Context, lessonID string) ([]*models.QuizQuestion, error) {
	const op = "storage.ListQuizQuestions"
	if err := ctxErr(ctx, op); err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, lesson_id, question, option_a, option_b, option_c, option_d,
			correct_answer, points, sort_order
		FROM quizzes
		WHERE lesson_id = $1
		ORDER BY sort_order, created_at`, lessonID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := make([]*models.QuizQuestion, 0)
	for rows.Next() {
		var q models.QuizQuestion
		if err := rows.Scan(&q.ID, &q.LessonID, &q.Question, &q.OptionA, &q.OptionB, &q.OptionC, &q.OptionD,
			&q.CorrectAnswer, &q.Points, &q.SortOrder); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
