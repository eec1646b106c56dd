// Package scheduler находит пользователей с истекающими планами и
// публикует уведомления в очередь RabbitMQ.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/lib/rabbitmq"
	"github.com/moodlog/moodlog-backend/internal/models"
)

// Планы, об истечении которых уведомляем.
var notifiedPlans = []string{models.PlanTrial, models.PlanProMonth, models.PlanProYear}

const checkInterval = 24 * time.Hour

// UserRepository определяет выборку пользователей с истекающими планами.
type UserRepository interface {
	FindUsersWithPlanExpiringOn(ctx context.Context, day time.Time, plans []string) ([]*models.User, error)
}

// SchedulerService периодически ищет истекающие планы.
type SchedulerService struct {
	repo UserRepository
	log  *slog.Logger
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo UserRepository, log *slog.Logger) *SchedulerService {
	return &SchedulerService{repo: repo, log: log}
}

// Run проверяет истекающие планы сразу при старте и далее раз в сутки
// до отмены контекста.
func (s *SchedulerService) Run(ctx context.Context, channel rabbitmq.Publisher) {
	s.notifyExpiringTomorrow(ctx, channel)

	ticker := time.NewTicker(checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.notifyExpiringTomorrow(ctx, channel)
		}
	}
}

func (s *SchedulerService) notifyExpiringTomorrow(ctx context.Context, channel rabbitmq.Publisher) {
	s.log.Info("looking for plans expiring tomorrow")

	tomorrow := time.Now().UTC().AddDate(0, 0, 1)
	users, err := s.repo.FindUsersWithPlanExpiringOn(ctx, tomorrow, notifiedPlans)
	if err != nil {
		s.log.Error("failed to find users with expiring plans", sl.Err(err))
		return
	}
	if len(users) == 0 {
		s.log.Info("no expiring plans found")
		return
	}

	s.log.Info("found expiring plans", slog.Int("count", len(users)))
	for _, user := range users {
		notice := models.ExpiringPlanNotice{
			UserUID: user.UUID,
			Email:   user.Email,
			Plan:    user.Plan,
		}
		if user.PlanExpiresAt != nil {
			notice.ExpiresAt = *user.PlanExpiresAt
		}
		if err := rabbitmq.PublishMessage(channel, "notifications", "expiring", notice); err != nil {
			s.log.Error("failed to publish notice", sl.Err(err),
				slog.String("user_uid", user.UUID))
		}
	}
}
