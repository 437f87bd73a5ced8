package models

import "time"

// Типы уроков.
const (
	LessonVideo = "video"
	LessonText  = "text"
	LessonQuiz  = "quiz"
)

// CoursePublished статус опубликованного курса.
const CoursePublished = "published"

// Course курс. Бесплатные курсы не требуют подписки.
type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	Slug        string    `json:"slug"`
	Status      string    `json:"status"`
	IsFree      bool      `json:"is_free"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

// Chapter глава курса.
type Chapter struct {
	ID          string    `json:"id"`
	CourseID    string    `json:"course_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Slug        string    `json:"slug"`
	SortOrder   int       `json:"sort_order"`
	Lessons     []*Lesson `json:"lessons"`
}

// Lesson урок: видео, текст или тест.
type Lesson struct {
	ID          string `json:"id"`
	ChapterID   string `json:"chapter_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Content     string `json:"content,omitempty"`
	VideoURL    string `json:"video_url,omitempty"`
	Type        string `json:"type"`
	Slug        string `json:"slug"`
	SortOrder   int    `json:"sort_order"`
}

// QuizQuestion вопрос теста. Правильный ответ не отдаётся клиенту.
type QuizQuestion struct {
	ID            string `json:"id"`
	LessonID      string `json:"lesson_id"`
	Question      string `json:"question"`
	OptionA       string `json:"option_a"`
	OptionB       string `json:"option_b"`
	OptionC       string `json:"option_c"`
	OptionD       string `json:"option_d"`
	CorrectAnswer string `json:"-"`
	Points        int    `json:"points"`
	SortOrder     int    `json:"sort_order"`
}

// CourseDetail курс со структурой глав и прогрессом пользователя.
type CourseDetail struct {
	Course           *Course         `json:"course"`
	Chapters         []*Chapter      `json:"chapters"`
	Completed        map[string]bool `json:"completed"`
	CompletedLessons int             `json:"completed_lessons"`
	TotalLessons     int             `json:"total_lessons"`
	ProgressPercent  float64         `json:"progress_percent"`
}

// LessonDetail урок, доступный пользователю.
type LessonDetail struct {
	Course    *Course         `json:"course"`
	Lesson    *Lesson         `json:"lesson"`
	Completed bool            `json:"completed"`
	Quiz      []*QuizQuestion `json:"quiz,omitempty"`
}
