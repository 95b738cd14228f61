// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/utils"
	"github.com/MKhiriev/go-auth-keeper/models"
)

const (
	wechatAccessTokenPath  = "/sns/oauth2/access_token"
	wechatUserInfoPath     = "/sns/userinfo"
	wechatCode2SessionPath = "/sns/jscode2session"
)

// wechatStatus is embedded by every WeChat response. A non-zero ErrCode
// means the call failed even though the HTTP status is 200.
type wechatStatus struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (s wechatStatus) err(call string) error {
	if s.ErrCode == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: errcode %d: %s", ErrProviderRejected, call, s.ErrCode, s.ErrMsg)
}

type wechatAccessToken struct {
	wechatStatus
	AccessToken string `json:"access_token"`
	OpenID      string `json:"openid"`
	UnionID     string `json:"unionid"`
}

type wechatUserInfo struct {
	wechatStatus
	OpenID     string `json:"openid"`
	UnionID    string `json:"unionid"`
	Nickname   string `json:"nickname"`
	HeadImgURL string `json:"headimgurl"`
}

type wechatSession struct {
	wechatStatus
	OpenID  string `json:"openid"`
	UnionID string `json:"unionid"`
}

type wechatWebClient struct {
	client *utils.HTTPClient
	app    config.WechatApp
	logger *logger.Logger
}

type wechatMiniClient struct {
	client *utils.HTTPClient
	app    config.WechatApp
	logger *logger.Logger
}

// NewWechatWebClient constructs the [WechatClient] for the web (OAuth)
// surface using cfg.WechatWeb credentials. A client without credentials is
// still returned; its Exchange fails with [ErrDisabled].
func NewWechatWebClient(cfg config.Adapter, log *logger.Logger) (WechatClient, error) {
	client, err := newWechatHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &wechatWebClient{client: client, app: cfg.WechatWeb, logger: log}, nil
}

// NewWechatMiniClient constructs the [WechatClient] for the mini-program
// surface using cfg.WechatMini credentials.
func NewWechatMiniClient(cfg config.Adapter, log *logger.Logger) (WechatClient, error) {
	client, err := newWechatHTTPClient(cfg)
	if err != nil {
		return nil, err
	}
	return &wechatMiniClient{client: client, app: cfg.WechatMini, logger: log}, nil
}

func newWechatHTTPClient(cfg config.Adapter) (*utils.HTTPClient, error) {
	baseURL := cfg.WechatBaseURL
	if baseURL == "" {
		baseURL = config.DefaultWechatBaseURL
	}

	client, err := newClient(baseURL, cfg.RequestTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid wechat base url: %w", err)
	}
	return client, nil
}

// Exchange implements [WechatClient]. It trades code for an OAuth access
// token and then reads the user's public profile with it. A failing profile
// call is logged and the identity is returned without profile fields.
func (w *wechatWebClient) Exchange(ctx context.Context, code string) (models.WechatIdentity, error) {
	if !w.app.Enabled() {
		return models.WechatIdentity{}, fmt.Errorf("wechat web login: %w", ErrDisabled)
	}

	var token wechatAccessToken
	err := getJSON(ctx, w.client, wechatAccessTokenPath, map[string]string{
		"appid":      w.app.AppID,
		"secret":     w.app.AppSecret,
		"code":       strings.TrimSpace(code),
		"grant_type": "authorization_code",
	}, &token)
	if err != nil {
		return models.WechatIdentity{}, fmt.Errorf("wechat access token request: %w", err)
	}
	if err = token.err("access_token"); err != nil {
		return models.WechatIdentity{}, err
	}
	if token.OpenID == "" {
		return models.WechatIdentity{}, ErrEmptyOpenID
	}

	identity := models.WechatIdentity{OpenID: token.OpenID, UnionID: token.UnionID}

	var info wechatUserInfo
	err = getJSON(ctx, w.client, wechatUserInfoPath, map[string]string{
		"access_token": token.AccessToken,
		"openid":       token.OpenID,
		"lang":         "zh_CN",
	}, &info)
	if err == nil {
		err = info.err("userinfo")
	}
	if err != nil {
		w.logger.Warn().Err(err).
			Str("func", "*wechatWebClient.Exchange").
			Msg("wechat profile is unavailable, continuing with open id only")
		return identity, nil
	}

	identity.Nickname = info.Nickname
	identity.AvatarURL = info.HeadImgURL
	if identity.UnionID == "" {
		identity.UnionID = info.UnionID
	}
	return identity, nil
}

// Exchange implements [WechatClient] for the mini-program surface.
func (w *wechatMiniClient) Exchange(ctx context.Context, code string) (models.WechatIdentity, error) {
	if !w.app.Enabled() {
		return models.WechatIdentity{}, fmt.Errorf("wechat mini-program login: %w", ErrDisabled)
	}

	var session wechatSession
	err := getJSON(ctx, w.client, wechatCode2SessionPath, map[string]string{
		"appid":      w.app.AppID,
		"secret":     w.app.AppSecret,
		"js_code":    strings.TrimSpace(code),
		"grant_type": "authorization_code",
	}, &session)
	if err != nil {
		return models.WechatIdentity{}, fmt.Errorf("wechat code2session request: %w", err)
	}
	if err = session.err("jscode2session"); err != nil {
		return models.WechatIdentity{}, err
	}
	if session.OpenID == "" {
		return models.WechatIdentity{}, ErrEmptyOpenID
	}

	return models.WechatIdentity{OpenID: session.OpenID, UnionID: session.UnionID}, nil
}

// getJSON issues a GET and decodes the body into out. WeChat answers with
// text/plain content types, so the body is decoded explicitly.
func getJSON(ctx context.Context, client *utils.HTTPClient, path string, query map[string]string, out any) error {
	resp, err := client.R().
		SetContext(ctx).
		SetQueryParams(query).
		Get(path)
	if err != nil {
		return err
	}
	if err = mapHTTPError(resp); err != nil {
		return err
	}

	if err = json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}
