package models

// AppInfo is reported by the version endpoint.
type AppInfo struct {
	Version       string   `json:"version"`
	LoginMethods  []string `json:"login_methods"`
	SingleSession bool     `json:"single_session"`
}

// Login methods.
const (
	LoginMethodPassword   = "password"
	LoginMethodPhone      = "phone_password"
	LoginMethodSMS        = "sms"
	LoginMethodEmail      = "email"
	LoginMethodWechat     = "wechat"
	LoginMethodWechatMini = "wechat_mini"
	LoginMethodRefresh    = "refresh"
)
