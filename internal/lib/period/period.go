// Package period содержит чистые функции для расчёта срока действия подписки.
// Истечение вычисляется лениво, в момент запроса: статус expired никогда не
// записывается в хранилище.
package period

import (
	"time"

	"github.com/magabrotheeeer/course-platform/internal/models"
)

const day = 24 * time.Hour

// EndDate возвращает дату окончания подписки: start + durationDays суток.
func EndDate(start time.Time, durationDays int) time.Time {
	return start.Add(time.Duration(durationDays) * day)
}

// Effective возвращает статус подписки на момент now: активная подписка
// с end не позже now считается истёкшей.
func Effective(status models.SubscriptionStatus, end, now time.Time) models.SubscriptionStatus {
	if status == models.StatusActive && !end.After(now) {
		return models.StatusExpired
	}
	return status
}

// Entitled сообщает, даёт ли подписка доступ к платному контенту на момент now.
func Entitled(status models.SubscriptionStatus, end, now time.Time) bool {
	return Effective(status, end, now) == models.StatusActive
}

// DaysLeft количество полных и неполных суток до окончания, 0 если срок вышел.
func DaysLeft(end, now time.Time) int {
	if !end.After(now) {
		return 0
	}
	left := end.Sub(now)
	days := int(left / day)
	if left%day != 0 {
		days++
	}
	return days
}
