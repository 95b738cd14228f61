package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/MKhiriev/go-auth-keeper/models"
)

// StructuredJSONConfig mirrors [StructuredConfig] with JSON-friendly field
// types (durations as strings like "30s").
type StructuredJSONConfig struct {
	App struct {
		TokenSignKey         string   `json:"token_sign_key"`
		TokenIssuer          string   `json:"token_issuer"`
		TokenDuration        Duration `json:"token_duration"`
		RefreshTokenDuration Duration `json:"refresh_token_duration"`
		SingleSession        bool     `json:"single_session"`
		KeyPrefix            string   `json:"key_prefix"`
		PasswordHasher       string   `json:"password_hasher"`
		OtpCodeTTL           Duration `json:"otp_code_ttl"`
		OtpResendInterval    Duration `json:"otp_resend_interval"`
		LogLevel             string   `json:"log_level"`
		Version              string   `json:"version"`
	} `json:"app,omitempty"`

	Storage struct {
		DB struct {
			Driver  string `json:"driver"`
			DSN     string `json:"dsn"`
			Migrate bool   `json:"migrate"`
		} `json:"db,omitempty"`

		Redis struct {
			Address  string `json:"address"`
			Password string `json:"password"`
			DB       int    `json:"db"`
		} `json:"redis,omitempty"`
	} `json:"storage,omitempty"`

	Schema struct {
		UserTable  string           `json:"user_table"`
		Fields     FieldNames       `json:"fields"`
		Role       RoleSchema       `json:"role"`
		Department DepartmentSchema `json:"department"`
	} `json:"schema,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Adapter struct {
		WechatWeb struct {
			AppID     string `json:"app_id"`
			AppSecret string `json:"app_secret"`
		} `json:"wechat_web"`
		WechatMini struct {
			AppID     string `json:"app_id"`
			AppSecret string `json:"app_secret"`
		} `json:"wechat_mini"`
		WechatBaseURL  string   `json:"wechat_base_url"`
		SMSGatewayURL  string   `json:"sms_gateway_url"`
		SMSAPIKey      string   `json:"sms_api_key"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	SeedUsers []models.UserInput `json:"seed_users,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			TokenSignKey:         jsonCfg.App.TokenSignKey,
			TokenIssuer:          jsonCfg.App.TokenIssuer,
			TokenDuration:        time.Duration(jsonCfg.App.TokenDuration),
			RefreshTokenDuration: time.Duration(jsonCfg.App.RefreshTokenDuration),
			SingleSession:        jsonCfg.App.SingleSession,
			KeyPrefix:            jsonCfg.App.KeyPrefix,
			PasswordHasher:       jsonCfg.App.PasswordHasher,
			OtpCodeTTL:           time.Duration(jsonCfg.App.OtpCodeTTL),
			OtpResendInterval:    time.Duration(jsonCfg.App.OtpResendInterval),
			LogLevel:             jsonCfg.App.LogLevel,
			Version:              jsonCfg.App.Version,
		},
		Storage: Storage{
			DB: DB{
				Driver:  jsonCfg.Storage.DB.Driver,
				DSN:     jsonCfg.Storage.DB.DSN,
				Migrate: jsonCfg.Storage.DB.Migrate,
			},
			Redis: Redis{
				Address:  jsonCfg.Storage.Redis.Address,
				Password: jsonCfg.Storage.Redis.Password,
				DB:       jsonCfg.Storage.Redis.DB,
			},
		},
		Schema: Schema{
			UserTable:  jsonCfg.Schema.UserTable,
			Fields:     jsonCfg.Schema.Fields,
			Role:       jsonCfg.Schema.Role,
			Department: jsonCfg.Schema.Department,
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		Adapter: Adapter{
			WechatWeb: WechatApp{
				AppID:     jsonCfg.Adapter.WechatWeb.AppID,
				AppSecret: jsonCfg.Adapter.WechatWeb.AppSecret,
			},
			WechatMini: WechatApp{
				AppID:     jsonCfg.Adapter.WechatMini.AppID,
				AppSecret: jsonCfg.Adapter.WechatMini.AppSecret,
			},
			WechatBaseURL:  jsonCfg.Adapter.WechatBaseURL,
			SMSGatewayURL:  jsonCfg.Adapter.SMSGatewayURL,
			SMSAPIKey:      jsonCfg.Adapter.SMSAPIKey,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		SeedUsers:    jsonCfg.SeedUsers,
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
