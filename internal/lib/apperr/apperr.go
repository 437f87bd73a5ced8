// Package apperr описывает таксономию ошибок бизнес-логики и её отображение
// в HTTP-статусы. Сервисы и хранилище оборачивают эти ошибки через %w,
// обработчики определяют код ответа через errors.Is.
package apperr

import (
	"errors"
	"net/http"
)

var (
	// ErrNotFound запрошенный пользователь, тариф, подписка или урок отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrConflict у пользователя уже есть активная подписка либо запись уже существует.
	ErrConflict = errors.New("conflict")
	// ErrInvalidInput входные данные не прошли проверку.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUpstream платёжный шлюз отклонил запрос или недоступен.
	ErrUpstream = errors.New("upstream failure")
	// ErrUnauthenticated запрос без валидной сессии.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials неверная пара email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrForbidden нет доступа к платному контенту.
	ErrForbidden = errors.New("subscription required")
)

// HTTPStatus возвращает HTTP-статус для ошибки из таксономии, иначе 500.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUpstream):
		return http.StatusBadGateway
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Message возвращает безопасный для клиента текст ошибки.
func Message(err error) string {
	switch HTTPStatus(err) {
	case http.StatusInternalServerError:
		return "internal error"
	case http.StatusBadGateway:
		return "payment provider error"
	case http.StatusNotFound:
		return "not found"
	case http.StatusConflict:
		return "already exists"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "active subscription required"
	default:
		return "invalid request"
	}
}
