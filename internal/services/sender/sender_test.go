package sender

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/moodlog/moodlog-backend/internal/lib/smtp"
	"github.com/moodlog/moodlog-backend/internal/models"
)

type TransportMock struct{ mock.Mock }

func (m *TransportMock) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}
func (m *TransportMock) GetSMTPUser() string {
	return m.Called().String(0)
}

type ClientMock struct {
	mock.Mock
	body bytes.Buffer
}

func (m *ClientMock) Mail(from string) error { return m.Called(from).Error(0) }
func (m *ClientMock) Rcpt(to string) error   { return m.Called(to).Error(0) }
func (m *ClientMock) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}
func (m *ClientMock) Quit() error  { return m.Called().Error(0) }
func (m *ClientMock) Close() error { return m.Called().Error(0) }

type writeCloserMock struct{ buf *bytes.Buffer }

func (w *writeCloserMock) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *writeCloserMock) Close() error                { return nil }

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func noticeBody(t *testing.T) []byte {
	t.Helper()
	body, err := json.Marshal(models.ExpiringPlanNotice{
		UserUID:   "u1",
		Email:     "user@example.com",
		Plan:      models.PlanProMonth,
		ExpiresAt: time.Date(2025, 9, 16, 10, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	return body
}

func TestSenderService_SendExpiringPlanNotice(t *testing.T) {
	t.Run("письмо собирается и отправляется", func(t *testing.T) {
		transport := new(TransportMock)
		client := new(ClientMock)
		svc := NewSenderService(transport, newNoopLogger())

		wc := &writeCloserMock{buf: &client.body}
		transport.On("GetSMTPUser").Return("noreply@moodlog.kz")
		transport.On("Connect").Return(client, nil)
		client.On("Mail", "noreply@moodlog.kz").Return(nil)
		client.On("Rcpt", "user@example.com").Return(nil)
		client.On("Data").Return(wc, nil)
		client.On("Quit").Return(nil)
		client.On("Close").Return(nil)

		err := svc.SendExpiringPlanNotice(noticeBody(t))

		require.NoError(t, err)
		sent := client.body.String()
		assert.Contains(t, sent, "To: user@example.com")
		assert.Contains(t, sent, "Moodlog Pro (месяц)")
		assert.Contains(t, sent, "16.09.2025")
		client.AssertExpectations(t)
	})

	t.Run("битый JSON", func(t *testing.T) {
		svc := NewSenderService(new(TransportMock), newNoopLogger())

		err := svc.SendExpiringPlanNotice([]byte("{not json"))

		require.Error(t, err)
	})

	t.Run("ошибка соединения", func(t *testing.T) {
		transport := new(TransportMock)
		svc := NewSenderService(transport, newNoopLogger())

		transport.On("GetSMTPUser").Return("noreply@moodlog.kz")
		transport.On("Connect").Return(nil, errors.New("connection refused"))

		err := svc.SendExpiringPlanNotice(noticeBody(t))

		require.Error(t, err)
	})
}
