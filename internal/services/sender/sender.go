// Package sender отправляет письма об истекающих планах, читая
// уведомления из очереди RabbitMQ.
package sender

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/lib/smtp"
	"github.com/moodlog/moodlog-backend/internal/models"
)

// SenderService превращает сообщения очереди в письма.
type SenderService struct {
	transport smtp.TransportInterface
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(transport smtp.TransportInterface, log *slog.Logger) *SenderService {
	return &SenderService{transport: transport, log: log}
}

// SendExpiringPlanNotice отправляет письмо о скором окончании плана.
// body содержит JSON models.ExpiringPlanNotice из очереди.
func (s *SenderService) SendExpiringPlanNotice(body []byte) error {
	var notice models.ExpiringPlanNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		s.log.Error("failed to unmarshal notice", sl.Err(err))
		return fmt.Errorf("error unmarshalling message: %w", err)
	}

	subject := "Ваша подписка Moodlog скоро закончится"
	bodyText := fmt.Sprintf(`Здравствуйте!

Ваш план %s заканчивается %s. После этого AI-отчёты и расширенная
аналитика станут недоступны, а записи дневника останутся на месте.

Продлить подписку можно в настройках приложения.`,
		planTitle(notice.Plan), notice.ExpiresAt.Format("02.01.2006"))

	return s.sendEmail([]string{notice.Email}, subject, bodyText)
}

func planTitle(plan string) string {
	switch plan {
	case models.PlanTrial:
		return "пробный период"
	case models.PlanProMonth:
		return "Moodlog Pro (месяц)"
	case models.PlanProYear:
		return "Moodlog Pro (год)"
	default:
		return plan
	}
}

func (s *SenderService) sendEmail(to []string, subject, bodyText string) error {
	msg := strings.Join([]string{
		"From: " + s.transport.GetSMTPUser(),
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(s.transport.GetSMTPUser()); err != nil {
		s.log.Error("failed to set MAIL FROM", sl.Err(err))
		return err
	}
	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent", slog.String("to", strings.Join(to, ";")))
	return nil
}
