package entities

import "time"

// Session - результат успешной аутентификации.
type Session struct {
	User         *User     `json:"user"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// SessionEventType - тип события изменения сессии.
type SessionEventType string

// Типы событий сессии.
const (
	EventSignedIn       SessionEventType = "SIGNED_IN"
	EventSignedOut      SessionEventType = "SIGNED_OUT"
	EventTokenRefreshed SessionEventType = "TOKEN_REFRESHED"
	EventUserUpdated    SessionEventType = "USER_UPDATED"
)

// SessionEvent доставляется подписчикам шлюза идентификации.
type SessionEvent struct {
	Type       SessionEventType `json:"type"`
	UserID     string           `json:"user_id"`
	Session    *Session         `json:"session,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
