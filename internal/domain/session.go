package domain

import "time"

// Session is the client-side view of an authenticated session: the opaque
// access token, its refresh token, and the expiry the backend announced.
// A session is "valid" when Token is present; expiry is enforced by the
// server, not checked locally.
type Session struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refreshToken,omitempty"`
	ExpiresAt    time.Time `json:"expiresAt"`
	User         User      `json:"user"`
}

// LoginResult is the wire payload of a successful login or refresh.
// ExpiresAt travels as an ISO-8601 datetime string.
type LoginResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken,omitempty"`
	ExpiresAt    string `json:"expiresAt"`
	User         User   `json:"user"`
}

// Session converts the wire payload into a Session, parsing the expiry.
// An unparseable expiry yields a zero ExpiresAt rather than an error; the
// proactive refresh timer is then simply not armed.
func (r LoginResult) Session() Session {
	expiresAt, err := time.Parse(time.RFC3339, r.ExpiresAt)
	if err != nil {
		expiresAt = time.Time{}
	}

	return Session{
		Token:        r.Token,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    expiresAt,
		User:         r.User,
	}
}

// RefreshTokenRecord is the server-side record of an issued refresh token.
// Tokens rotate: each successful refresh invalidates the presented token and
// issues a new one.
type RefreshTokenRecord struct {
	ID        string    // Opaque token value handed to the client
	UserID    int64     // Owning account
	ExpiresAt time.Time // Hard expiry; refresh past this fails
	CreatedAt time.Time
}
