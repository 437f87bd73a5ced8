package plans

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) ListPlans(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	plans, _ := args.Get(0).([]*models.Plan)
	return plans, args.Error(1)
}

func TestPlansHandler(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("ListPlans", mock.Anything).Return([]*models.Plan{
			{ID: "plan-monthly", Name: "Monthly", Price: 299900, DurationDays: 30, Features: []string{"All courses"}},
		}, nil)

		rr := httptest.NewRecorder()
		New(sl.NewDiscardLogger(), svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"price":299900`)
		assert.Contains(t, rr.Body.String(), `"duration":30`)
		assert.Contains(t, rr.Body.String(), `"features":["All courses"]`)
	})

	t.Run("error", func(t *testing.T) {
		svc := new(ServiceMock)
		svc.On("ListPlans", mock.Anything).Return(nil, errors.New("db down"))

		rr := httptest.NewRecorder()
		New(sl.NewDiscardLogger(), svc).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/plans", nil))

		assert.Equal(t, http.StatusInternalServerError, rr.Code)
	})
}
