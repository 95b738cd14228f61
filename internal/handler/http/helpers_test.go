package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/service"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// ─────────────────────────────────────────────
// Mock services
// ─────────────────────────────────────────────

// mockAuthService implements service.AuthService for handler tests.
// Each method field can be overridden per test case; calling a method
// whose field is nil panics through the embedded nil interface.
type mockAuthService struct {
	service.AuthService

	authenticateFn         func(ctx context.Context, identifier, password string) (models.AuthResult, error)
	passwordLoginFn        func(ctx context.Context, phone, password string) (models.AuthResult, error)
	smsLoginFn             func(ctx context.Context, phone, code string) (models.AuthResult, error)
	emailLoginFn           func(ctx context.Context, email, code string) (models.AuthResult, error)
	wechatLoginFn          func(ctx context.Context, code string) (models.AuthResult, error)
	wechatMiniLoginFn      func(ctx context.Context, code string) (models.AuthResult, error)
	verifyLoginFn          func(ctx context.Context, token string) models.LoginStatus
	refreshFn              func(ctx context.Context, refreshToken, userID string) (models.AuthResult, error)
	logoutFn               func(ctx context.Context, token string) error
	createUserFn           func(ctx context.Context, input models.UserInput) (models.User, error)
	updateUserFn           func(ctx context.Context, id int64, patch models.UserPatch) (models.User, error)
	deleteUserFn           func(ctx context.Context, id int64) error
	listUsersFn            func(ctx context.Context) ([]models.User, error)
	validateUsernameFn     func(ctx context.Context, username string) error
	getUserSessionsFn      func(ctx context.Context, userID string) ([]string, error)
	getUserDepartmentsFn   func(ctx context.Context, token string) ([]map[string]any, error)
	setCurrentDepartmentFn func(ctx context.Context, departmentID int64, token string) (models.User, error)
	canSendOtpFn           func(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, error)
	requestOtpFn           func(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, string, error)
	blacklistOtpTargetFn   func(ctx context.Context, identifier string, duration time.Duration) error
}

func (m *mockAuthService) Authenticate(ctx context.Context, identifier, password string) (models.AuthResult, error) {
	return m.authenticateFn(ctx, identifier, password)
}

func (m *mockAuthService) PasswordLogin(ctx context.Context, phone, password string) (models.AuthResult, error) {
	return m.passwordLoginFn(ctx, phone, password)
}

func (m *mockAuthService) SmsLogin(ctx context.Context, phone, code string) (models.AuthResult, error) {
	return m.smsLoginFn(ctx, phone, code)
}

func (m *mockAuthService) EmailLogin(ctx context.Context, email, code string) (models.AuthResult, error) {
	return m.emailLoginFn(ctx, email, code)
}

func (m *mockAuthService) WechatLogin(ctx context.Context, code string) (models.AuthResult, error) {
	return m.wechatLoginFn(ctx, code)
}

func (m *mockAuthService) WechatMiniLogin(ctx context.Context, code string) (models.AuthResult, error) {
	return m.wechatMiniLoginFn(ctx, code)
}

func (m *mockAuthService) VerifyLogin(ctx context.Context, token string) models.LoginStatus {
	if m.verifyLoginFn == nil {
		return models.LoginStatus{}
	}
	return m.verifyLoginFn(ctx, token)
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken, userID string) (models.AuthResult, error) {
	return m.refreshFn(ctx, refreshToken, userID)
}

func (m *mockAuthService) Logout(ctx context.Context, token string) error {
	return m.logoutFn(ctx, token)
}

func (m *mockAuthService) CreateUser(ctx context.Context, input models.UserInput) (models.User, error) {
	return m.createUserFn(ctx, input)
}

func (m *mockAuthService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.User, error) {
	return m.updateUserFn(ctx, id, patch)
}

func (m *mockAuthService) DeleteUser(ctx context.Context, id int64) error {
	return m.deleteUserFn(ctx, id)
}

func (m *mockAuthService) ListUsers(ctx context.Context) ([]models.User, error) {
	return m.listUsersFn(ctx)
}

func (m *mockAuthService) ValidateUsername(ctx context.Context, username string) error {
	return m.validateUsernameFn(ctx, username)
}

func (m *mockAuthService) GetUserSessions(ctx context.Context, userID string) ([]string, error) {
	return m.getUserSessionsFn(ctx, userID)
}

func (m *mockAuthService) GetUserDepartments(ctx context.Context, token string) ([]map[string]any, error) {
	return m.getUserDepartmentsFn(ctx, token)
}

func (m *mockAuthService) SetCurrentDepartment(ctx context.Context, departmentID int64, token string) (models.User, error) {
	return m.setCurrentDepartmentFn(ctx, departmentID, token)
}

func (m *mockAuthService) CanSendOtp(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, error) {
	return m.canSendOtpFn(ctx, identifier, purpose)
}

func (m *mockAuthService) RequestOtp(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, string, error) {
	return m.requestOtpFn(ctx, identifier, purpose)
}

func (m *mockAuthService) BlacklistOtpTarget(ctx context.Context, identifier string, duration time.Duration) error {
	return m.blacklistOtpTargetFn(ctx, identifier, duration)
}

type mockAppInfoService struct {
	info models.AppInfo
}

func (m *mockAppInfoService) GetAppInfo(_ context.Context) models.AppInfo {
	return m.info
}

// ─────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────

const validToken = "valid-token"

// newTestRouter builds the full router over auth.
func newTestRouter(t *testing.T, auth *mockAuthService) http.Handler {
	t.Helper()
	svcs := &service.Services{
		AuthService:    auth,
		AppInfoService: &mockAppInfoService{info: models.AppInfo{Version: "test"}},
	}
	return NewHandler(svcs, nil, logger.Nop()).Init()
}

// withValidSession makes auth accept validToken as a session of user 1.
func withValidSession(auth *mockAuthService) *mockAuthService {
	auth.verifyLoginFn = func(_ context.Context, token string) models.LoginStatus {
		if token != validToken {
			return models.LoginStatus{}
		}
		user := models.User{ID: 1, Username: "admin", DepartmentIDs: []int64{10}}
		return models.LoginStatus{
			IsValid: true,
			User:    &user,
			Session: &models.Session{UserID: "1", SessionID: "sid-1", Token: token, RefreshToken: "refresh-sid-1", User: user},
		}
	}
	return auth
}

func doRequest(t *testing.T, h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func stubResult(userID int64) models.AuthResult {
	return models.AuthResult{
		Token:        "access",
		RefreshToken: "refresh",
		SessionID:    "sid",
		User:         models.User{ID: userID, Username: "admin"},
	}
}
