// Package lesson отдаёт урок курса с учётом доступа по подписке.
package lesson

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/course-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/http/response"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/models"
)

// Service чтение урока.
type Service interface {
	GetLesson(ctx context.Context, userID, courseSlug, lessonSlug string) (*models.LessonDetail, error)
}

// Handler обработчик урока.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Урок
// @Description Урок курса. Для платного курса нужна действующая подписка. Для теста возвращаются вопросы без ответов.
// @Tags Courses
// @Produce  json
// @Param slug path string true "Slug курса"
// @Param lessonSlug path string true "Slug урока"
// @Success 200 {object} response.Response{data=models.LessonDetail} "Урок"
// @Failure 401 {object} response.ErrorResponse "Пользователь не авторизован"
// @Failure 403 {object} response.ErrorResponse "Нужна подписка"
// @Failure 404 {object} response.ErrorResponse "Курс или урок не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /courses/{slug}/lessons/{lessonSlug} [get]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.course.lesson"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID, ok := middlewarectx.UserIDFromContext(r.Context())
	if !ok {
		log.Error("user id not found in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	courseSlug, lessonSlug := chi.URLParam(r, "slug"), chi.URLParam(r, "lessonSlug")
	lesson, err := h.service.GetLesson(r.Context(), userID, courseSlug, lessonSlug)
	if err != nil {
		log.Warn("failed to read lesson",
			slog.String("course", courseSlug), slog.String("lesson", lessonSlug), sl.Err(err))
		response.Fail(w, r, err)
		return
	}
	render.JSON(w, r, response.OKWithData(lesson))
}
