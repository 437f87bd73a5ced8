package models

import "time"

// LessonProgress отметка о прохождении урока пользователем.
type LessonProgress struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	LessonID    string     `json:"lesson_id"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// ProgressItem строка последнего прогресса для дашборда.
type ProgressItem struct {
	LessonID    string     `json:"lesson_id"`
	LessonTitle string     `json:"lesson_title"`
	CourseTitle string     `json:"course_title"`
	CourseSlug  string     `json:"course_slug"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// ProgressRequest тело запроса на отметку урока.
type ProgressRequest struct {
	Completed *bool `json:"completed" validate:"required"`
}

// Dashboard сводка обучения пользователя.
type Dashboard struct {
	CompletedLessons int             `json:"completed_lessons"`
	TrackedLessons   int             `json:"tracked_lessons"`
	Recent           []*ProgressItem `json:"recent"`
	Entitled         bool            `json:"entitled"`
}
