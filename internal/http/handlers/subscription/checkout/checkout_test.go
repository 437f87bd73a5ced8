package checkout

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/course-platform/internal/http/middlewarectx"
	"github.com/magabrotheeeer/course-platform/internal/lib/apperr"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/models"
)

type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) CreateSubscription(ctx context.Context, userID, planID string) (*models.Checkout, error) {
	args := m.Called(ctx, userID, planID)
	checkout, _ := args.Get(0).(*models.Checkout)
	return checkout, args.Error(1)
}

func TestCheckoutHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		userID     string
		setup      func(s *ServiceMock)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "success",
			body:   `{"plan_id":"plan-monthly"}`,
			userID: "user-1",
			setup: func(s *ServiceMock) {
				s.On("CreateSubscription", mock.Anything, "user-1", "plan-monthly").
					Return(&models.Checkout{SubscriptionID: "sub-1", Token: "tok", RedirectURL: "https://pay/tok"}, nil)
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"redirect_url":"https://pay/tok"`,
		},
		{
			name:       "unauthorized",
			body:       `{"plan_id":"plan-monthly"}`,
			setup:      func(*ServiceMock) {},
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:       "missing plan",
			body:       `{}`,
			userID:     "user-1",
			setup:      func(*ServiceMock) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   "field PlanID is a required field",
		},
		{
			name:   "already active",
			body:   `{"plan_id":"plan-monthly"}`,
			userID: "user-1",
			setup: func(s *ServiceMock) {
				s.On("CreateSubscription", mock.Anything, "user-1", "plan-monthly").
					Return(nil, fmt.Errorf("services.CreateSubscription: %w", apperr.ErrConflict))
			},
			wantStatus: http.StatusConflict,
		},
		{
			name:   "unknown plan",
			body:   `{"plan_id":"plan-weekly"}`,
			userID: "user-1",
			setup: func(s *ServiceMock) {
				s.On("CreateSubscription", mock.Anything, "user-1", "plan-weekly").
					Return(nil, fmt.Errorf("services.CreateSubscription: %w", apperr.ErrNotFound))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name:   "gateway failure",
			body:   `{"plan_id":"plan-monthly"}`,
			userID: "user-1",
			setup: func(s *ServiceMock) {
				s.On("CreateSubscription", mock.Anything, "user-1", "plan-monthly").
					Return(nil, fmt.Errorf("services.CreateSubscription: %w", apperr.ErrUpstream))
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   "payment provider error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(ServiceMock)
			tt.setup(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/subscriptions", bytes.NewBufferString(tt.body))
			if tt.userID != "" {
				req = req.WithContext(context.WithValue(req.Context(), middlewarectx.UserID, tt.userID))
			}
			rr := httptest.NewRecorder()
			New(sl.NewDiscardLogger(), svc).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Contains(t, rr.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
