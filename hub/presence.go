package hub

import (
	"log/slog"
	"time"

	"chat-hub/domain"
	"chat-hub/repositories"
)

// Presence persists online/offline transitions. Event propagation stays
// with the hub; this type only owns the directory writes.
type Presence struct {
	users repositories.IUserRepository
	log   *slog.Logger
	now   func() time.Time
}

func NewPresence(users repositories.IUserRepository, log *slog.Logger) *Presence {
	return &Presence{users: users, log: log, now: time.Now}
}

// MarkOnline records the Online transition and returns the refreshed
// user so callers broadcast current lastSeen values.
func (p *Presence) MarkOnline(user domain.User) domain.User {
	now := p.now().UTC()
	if err := p.users.UpdatePresence(user.ID, true, now); err != nil {
		p.log.Error("presence update failed", "user_id", user.ID, "error", err)
	}
	user.IsOnline = true
	user.LastSeen = now
	return user
}

// MarkOffline records the Offline transition. Callers guarantee
// idempotency: only the connection that still owns the session binding
// reaches here.
func (p *Presence) MarkOffline(userID string) {
	if err := p.users.UpdatePresence(userID, false, p.now().UTC()); err != nil {
		p.log.Error("presence update failed", "user_id", userID, "error", err)
	}
}
