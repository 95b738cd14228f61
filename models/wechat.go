package models

// WechatIdentity is the result of exchanging a WeChat authorization code.
// Profile fields are filled only by the web (OAuth) surface.
type WechatIdentity struct {
	OpenID    string
	UnionID   string
	Nickname  string
	AvatarURL string
}
