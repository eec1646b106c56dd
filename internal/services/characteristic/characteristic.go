// Package characteristic строит AI-профили авторов дневника. Профили
// обновляются офлайн-прогоном по всем пользователям и отдаются через API
// в расшифрованном виде.
package characteristic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/moodlog/moodlog-backend/internal/lib/cryptoxor"
	"github.com/moodlog/moodlog-backend/internal/lib/sl"
	"github.com/moodlog/moodlog-backend/internal/models"
)

var (
	// ErrNotEnoughEntries возвращается, когда записей мало для профиля.
	ErrNotEnoughEntries = errors.New("not enough entries to build a profile")
	// ErrProfileNotFound возвращается, когда профиль еще не построен.
	ErrProfileNotFound = errors.New("profile not found")
)

const (
	// Профиль строится по записям за последние 90 дней.
	profileWindowDays = 90
	// Минимум записей для осмысленного профиля.
	minEntries = 3
	maxEntries = 60
	maxChars   = 1000
)

// CharacteristicRepository определяет операции хранилища для профилей.
type CharacteristicRepository interface {
	ListUserUIDs(ctx context.Context) ([]string, error)
	ListDiaryEntriesByDateRange(ctx context.Context, userUID string,
		from, to time.Time, includeDrafts bool) ([]*models.Entry, error)
	UpsertUserCharacteristic(ctx context.Context, userUID, encryptedProfile string) (*models.UserCharacteristic, error)
	GetUserCharacteristic(ctx context.Context, userUID string) (*models.UserCharacteristic, error)
}

// Keyring определяет доступ к ключам данных пользователей.
type Keyring interface {
	DataKey(ctx context.Context, userUID string) (string, error)
}

// ProfileGenerator определяет построение профиля по сжатым записям.
type ProfileGenerator interface {
	GenerateCharacteristic(ctx context.Context, condensedEntries string) (string, error)
}

// CharacteristicService строит и отдает AI-профили пользователей.
type CharacteristicService struct {
	repo    CharacteristicRepository
	keyring Keyring
	llm     ProfileGenerator
	log     *slog.Logger
}

// New создает сервис профилей.
func New(repo CharacteristicRepository, keyring Keyring, llm ProfileGenerator, log *slog.Logger) *CharacteristicService {
	return &CharacteristicService{repo: repo, keyring: keyring, llm: llm, log: log}
}

// GenerateAll обновляет профили всех пользователей. Ошибка по одному
// пользователю логируется и не прерывает прогон. Возвращает число
// обновлённых профилей.
func (s *CharacteristicService) GenerateAll(ctx context.Context) (int, error) {
	const op = "characteristic.GenerateAll"

	uids, err := s.repo.ListUserUIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	updated := 0
	for _, uid := range uids {
		if err := ctx.Err(); err != nil {
			return updated, fmt.Errorf("%s: %w", op, err)
		}
		if err := s.GenerateFor(ctx, uid); err != nil {
			if errors.Is(err, ErrNotEnoughEntries) {
				continue
			}
			s.log.Error("failed to build user profile", sl.Err(err),
				slog.String("user_uid", uid))
			continue
		}
		updated++
	}

	s.log.Info("profile generation finished",
		slog.Int("users", len(uids)),
		slog.Int("updated", updated))
	return updated, nil
}

// GenerateFor строит профиль одного пользователя по записям за
// последние 90 дней.
func (s *CharacteristicService) GenerateFor(ctx context.Context, userUID string) error {
	const op = "characteristic.GenerateFor"

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -profileWindowDays)
	entries, err := s.repo.ListDiaryEntriesByDateRange(ctx, userUID, from, to, false)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if len(entries) < minEntries {
		return ErrNotEnoughEntries
	}

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	condensed, err := condenseEntries(entries, dataKey)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	profile, err := s.llm.GenerateCharacteristic(ctx, condensed)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err = s.repo.UpsertUserCharacteristic(ctx, userUID, cryptoxor.Encrypt(profile, dataKey))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Profile возвращает расшифрованный профиль пользователя.
func (s *CharacteristicService) Profile(ctx context.Context, userUID string) (string, time.Time, error) {
	const op = "characteristic.Profile"

	c, err := s.repo.GetUserCharacteristic(ctx, userUID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	if c == nil {
		return "", time.Time{}, ErrProfileNotFound
	}

	dataKey, err := s.keyring.DataKey(ctx, userUID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	profile, err := cryptoxor.Decrypt(c.EncryptedProfile, dataKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return profile, c.GeneratedAt, nil
}

// condenseEntries сжимает записи в текст для LLM: берутся последние
// maxEntries записей, каждая усечена до maxChars символов.
func condenseEntries(entries []*models.Entry, dataKey string) (string, error) {
	if len(entries) > maxEntries {
		entries = entries[len(entries)-maxEntries:]
	}

	var sb strings.Builder
	for _, e := range entries {
		content, err := cryptoxor.Decrypt(e.EncryptedContent, dataKey)
		if err != nil {
			return "", err
		}
		if runes := []rune(content); len(runes) > maxChars {
			content = string(runes[:maxChars])
		}
		sb.WriteString(e.CreatedAt.Format("2006-01-02"))
		if e.MoodRating != nil {
			sb.WriteString(fmt.Sprintf(" (настроение %.1f)", *e.MoodRating))
		}
		sb.WriteString(": ")
		sb.WriteString(content)
		sb.WriteString("\n---\n")
	}
	return sb.String(), nil
}
