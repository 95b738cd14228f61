package models

// LoginRequest is the body of a password login.
// Identifier matches either username or phone.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

// PhonePasswordRequest is the body of a member (phone + password) login.
type PhonePasswordRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// CodeLoginRequest is the body of SMS and email code logins.
type CodeLoginRequest struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
	Code  string `json:"code"`
}

// WechatLoginRequest carries a WeChat authorization code.
type WechatLoginRequest struct {
	Code string `json:"code"`
}

// RefreshRequest is the body of a token refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id"`
}

// DepartmentRequest selects the current department of a session.
type DepartmentRequest struct {
	DepartmentID int64 `json:"department_id"`
}

// OtpRequest identifies the target of a one-time code.
type OtpRequest struct {
	Identifier string `json:"identifier"`
	Purpose    string `json:"purpose"`
}

// UsernameRequest is the body of a username availability check.
type UsernameRequest struct {
	Username string `json:"username"`
}

// OtpBlacklistRequest blocks code delivery to an identifier for a while.
type OtpBlacklistRequest struct {
	Identifier      string `json:"identifier"`
	DurationSeconds int64  `json:"duration_seconds"`
}
