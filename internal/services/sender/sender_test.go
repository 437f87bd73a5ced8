package services

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/course-platform/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/course-platform/internal/lib/sl"
	"github.com/magabrotheeeer/course-platform/internal/lib/smtp"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Dial() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) From() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	return m.Called(from).Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	return m.Called(to).Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	return m.Called().Error(0)
}

func (m *MockSMTPClient) Quit() error {
	return m.Called().Error(0)
}

// bufferWriter собирает тело письма для проверок.
type bufferWriter struct {
	strings.Builder
	closed bool
}

func (w *bufferWriter) Close() error {
	w.closed = true
	return nil
}

const (
	activatedEvent = `{"subscription_id":"sub-1","user_id":"user-1","email":"budi@example.com","name":"Budi",` +
		`"plan_name":"Monthly","status":"active","end_date":"2025-03-31T10:00:00Z"}`
	cancelledEvent = `{"subscription_id":"sub-1","user_id":"user-1","email":"budi@example.com","name":"Budi",` +
		`"plan_name":"Monthly","status":"cancelled","end_date":"2025-03-31T10:00:00Z"}`
)

func expectDelivery(t *MockTransport, w io.WriteCloser) *MockSMTPClient {
	client := new(MockSMTPClient)
	t.On("From").Return("noreply@example.com")
	t.On("Dial").Return(client, nil).Once()
	client.On("Mail", "noreply@example.com").Return(nil).Once()
	client.On("Rcpt", "budi@example.com").Return(nil).Once()
	client.On("Data").Return(w, nil).Once()
	client.On("Quit").Return(nil).Once()
	client.On("Close").Return(nil).Once()
	return client
}

func TestSenderService_HandleSubscriptionEvent(t *testing.T) {
	tests := []struct {
		name         string
		body         string
		wantSubject  string
		wantContains string
	}{
		{
			name:         "activated",
			body:         activatedEvent,
			wantSubject:  "Subject: Payment confirmed",
			wantContains: "until 31 Mar 2025",
		},
		{
			name:         "cancelled",
			body:         cancelledEvent,
			wantSubject:  "Subject: Payment was not completed",
			wantContains: "Monthly plan was not completed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			w := &bufferWriter{}
			client := expectDelivery(transport, w)

			err := NewSenderService(sl.NewDiscardLogger(), transport).HandleSubscriptionEvent([]byte(tt.body))
			assert.NoError(t, err)
			assert.True(t, w.closed)
			assert.Contains(t, w.String(), tt.wantSubject)
			assert.Contains(t, w.String(), "To: budi@example.com")
			assert.Contains(t, w.String(), tt.wantContains)
			transport.AssertExpectations(t)
			client.AssertExpectations(t)
		})
	}
}

func TestSenderService_HandleSubscriptionEvent_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		setupMocks    func(*MockTransport)
		wantErr       string
		wantPermanent bool
	}{
		{
			name:          "invalid JSON is not retried",
			body:          `invalid json`,
			setupMocks:    func(*MockTransport) {},
			wantErr:       "error unmarshalling message",
			wantPermanent: true,
		},
		{
			name:          "truncated body is not retried",
			body:          `{`,
			setupMocks:    func(*MockTransport) {},
			wantErr:       "error unmarshalling message",
			wantPermanent: true,
		},
		{
			name:       "no recipient is skipped",
			body:       `{"subscription_id":"sub-1","status":"active"}`,
			setupMocks: func(*MockTransport) {},
		},
		{
			name:       "pending status is skipped",
			body:       `{"subscription_id":"sub-1","email":"budi@example.com","status":"pending"}`,
			setupMocks: func(*MockTransport) {},
		},
		{
			name: "SMTP connection error",
			body: activatedEvent,
			setupMocks: func(t *MockTransport) {
				t.On("From").Return("noreply@example.com")
				t.On("Dial").Return(nil, errors.New("connection error")).Once()
			},
			wantErr: "connection error",
		},
		{
			name: "recipient rejected",
			body: activatedEvent,
			setupMocks: func(t *MockTransport) {
				client := new(MockSMTPClient)
				t.On("From").Return("noreply@example.com")
				t.On("Dial").Return(client, nil).Once()
				client.On("Mail", "noreply@example.com").Return(nil).Once()
				client.On("Rcpt", "budi@example.com").Return(errors.New("550 mailbox unavailable")).Once()
				client.On("Close").Return(nil).Once()
			},
			wantErr: "550 mailbox unavailable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			tt.setupMocks(transport)

			err := NewSenderService(sl.NewDiscardLogger(), transport).HandleSubscriptionEvent([]byte(tt.body))
			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Equal(t, tt.wantPermanent, errors.Is(err, rabbitmq.ErrPermanent))
			} else {
				assert.NoError(t, err)
			}
			transport.AssertExpectations(t)
		})
	}
}
