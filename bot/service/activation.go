package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/m3rciful/polbot/bot/domain"
	"github.com/m3rciful/polbot/bot/store"
	"github.com/m3rciful/polbot/core/logger"
)

// DefaultDisplayName replaces an empty sender name on registration.
const DefaultDisplayName = "User"

// Activation redeems one-time codes into user registrations.
type Activation struct {
	store *store.Store
}

// NewActivation builds the activation service.
func NewActivation(s *store.Store) *Activation {
	return &Activation{store: s}
}

// IsCode reports whether code is a known activation code, used or not.
func (a *Activation) IsCode(code string) bool {
	var ok bool
	a.store.View(func(doc *domain.Document) {
		_, ok = doc.ActivationCodes[code]
	})
	return ok
}

// Redeem marks code used and registers userID with its organization and role.
// Both changes are persisted together; an unknown or used code returns
// domain.ErrInvalidCode and changes nothing. A user redeeming a second code is
// re-registered with the new organization and role.
func (a *Activation) Redeem(ctx context.Context, userID int64, displayName, code string) (domain.User, error) {
	code = strings.TrimSpace(code)
	name := strings.TrimSpace(displayName)
	if name == "" {
		name = DefaultDisplayName
	}

	var user domain.User
	err := a.store.Update(ctx, func(doc *domain.Document) error {
		ac, ok := doc.ActivationCodes[code]
		if !ok || ac.Used {
			return domain.ErrInvalidCode
		}
		ac.Used = true
		doc.ActivationCodes[code] = ac
		user = domain.User{
			UserID:       userID,
			DisplayName:  name,
			Organization: ac.Organization,
			Role:         ac.Role,
		}
		doc.Users[userID] = user
		return nil
	})
	if err != nil {
		logger.LogEvent(ctx, logger.SVCActivation, slog.LevelInfo, "code.redeem",
			slog.String("status", "fail"),
			slog.Int64("user_id", userID),
			slog.String("err", err.Error()),
		)
		return domain.User{}, err
	}

	logger.LogEvent(ctx, logger.SVCActivation, slog.LevelInfo, "code.redeem",
		slog.String("status", "ok"),
		slog.Int64("user_id", userID),
		slog.String("org", user.Organization),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}
