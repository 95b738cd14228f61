package models

import "time"

// Session is the server-side record of one successful login.
// The User field is a snapshot taken at login time and may carry
// transient attributes (role info, current department).
type Session struct {
	UserID         string    `json:"user_id"`
	SessionID      string    `json:"session_id"`
	Token          string    `json:"token"`
	RefreshToken   string    `json:"refresh_token"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	IsRevoked      bool      `json:"is_revoked"`
	User           User      `json:"user"`
}

// RefreshBinding is the value stored under a refresh token key.
type RefreshBinding struct {
	SessionID string `json:"sessionId"`
}

// AuthResult is returned by every successful login or refresh.
type AuthResult struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	SessionID    string `json:"session_id"`
	User         User   `json:"user"`
}

// LoginStatus is the outcome of verifying an access token.
// User and Session are set only when IsValid is true.
type LoginStatus struct {
	IsValid bool     `json:"is_valid"`
	User    *User    `json:"user,omitempty"`
	Session *Session `json:"session,omitempty"`
}

// SessionView is the client-facing form of a [Session]; it never carries
// the access or refresh token.
type SessionView struct {
	UserID         string    `json:"user_id"`
	SessionID      string    `json:"session_id"`
	CreatedAt      time.Time `json:"created_at"`
	LastActivityAt time.Time `json:"last_activity_at"`
	IsRevoked      bool      `json:"is_revoked"`
	User           User      `json:"user"`
}

// View strips the credentials from s.
func (s Session) View() SessionView {
	return SessionView{
		UserID:         s.UserID,
		SessionID:      s.SessionID,
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivityAt,
		IsRevoked:      s.IsRevoked,
		User:           s.User,
	}
}

// LoginStatusResponse is the body of the verify endpoint.
type LoginStatusResponse struct {
	IsValid bool         `json:"is_valid"`
	User    *User        `json:"user,omitempty"`
	Session *SessionView `json:"session,omitempty"`
}

// Response converts the status into its response body.
func (s LoginStatus) Response() LoginStatusResponse {
	resp := LoginStatusResponse{IsValid: s.IsValid, User: s.User}
	if s.Session != nil {
		view := s.Session.View()
		resp.Session = &view
	}
	return resp
}
