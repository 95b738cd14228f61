package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/MKhiriev/go-auth-keeper/internal/adapter"
	"github.com/MKhiriev/go-auth-keeper/internal/config"
	"github.com/MKhiriev/go-auth-keeper/internal/crypto"
	"github.com/MKhiriev/go-auth-keeper/internal/logger"
	"github.com/MKhiriev/go-auth-keeper/internal/store"
	"github.com/MKhiriev/go-auth-keeper/models"
)

// AuthDeps groups the collaborators of the engine. DepartmentRepository
// and the WeChat clients may be nil.
type AuthDeps struct {
	UserRepository       store.UserRepository
	DepartmentRepository store.DepartmentRepository
	SessionStore         store.SessionStore
	TokenService         TokenService
	OtpService           OtpService
	RoleResolver         RoleResolver
	WechatWeb            adapter.WechatClient
	WechatMini           adapter.WechatClient
}

// authService is the concrete implementation of AuthService.
// Every login flow produces a verified user and hands it to completeLogin,
// which evicts old sessions when required, issues tokens and persists the
// new session.
type authService struct {
	userRepository       store.UserRepository
	departmentRepository store.DepartmentRepository
	sessionStore         store.SessionStore
	tokenService         TokenService
	otpService           OtpService
	roleResolver         RoleResolver
	wechatWeb            adapter.WechatClient
	wechatMini           adapter.WechatClient

	// singleSession evicts every other session of a user on login.
	singleSession bool

	// seedUsers are created by Initialize.
	seedUsers []models.UserInput

	locks  userLocks
	now    func() time.Time
	logger *logger.Logger
}

// NewAuthService constructs the engine. The returned service is safe for
// concurrent use.
func NewAuthService(deps AuthDeps, cfg config.App, seedUsers []models.UserInput, logger *logger.Logger) AuthService {
	return &authService{
		userRepository:       deps.UserRepository,
		departmentRepository: deps.DepartmentRepository,
		sessionStore:         deps.SessionStore,
		tokenService:         deps.TokenService,
		otpService:           deps.OtpService,
		roleResolver:         deps.RoleResolver,
		wechatWeb:            deps.WechatWeb,
		wechatMini:           deps.WechatMini,
		singleSession:        cfg.SingleSession,
		seedUsers:            seedUsers,
		now:                  time.Now,
		logger:               logger,
	}
}

// ── Login flows ─────────────────────────────────────────────────────────────

func (a *authService) Authenticate(ctx context.Context, identifier, password string) (models.AuthResult, error) {
	return a.login(ctx, models.LoginMethodPassword, func(ctx context.Context) (models.User, error) {
		if identifier == "" || password == "" {
			return models.User{}, ErrInvalidCredentials
		}

		user, err := a.userRepository.ValidateCredentials(ctx, identifier, password)
		if err != nil {
			return models.User{}, credentialsError("authenticate", err)
		}
		return user, nil
	})
}

// PasswordLogin accepts only the phone number as identifier.
func (a *authService) PasswordLogin(ctx context.Context, phone, password string) (models.AuthResult, error) {
	return a.login(ctx, models.LoginMethodPhone, func(ctx context.Context) (models.User, error) {
		if phone == "" || password == "" {
			return models.User{}, ErrInvalidCredentials
		}

		user, err := a.userRepository.ValidateCredentials(ctx, phone, password)
		if err != nil {
			return models.User{}, credentialsError("authenticate", err)
		}
		if user.Phone != phone {
			return models.User{}, ErrInvalidCredentials
		}
		return user, nil
	})
}

func (a *authService) SmsLogin(ctx context.Context, phone, code string) (models.AuthResult, error) {
	return a.login(ctx, models.LoginMethodSMS, func(ctx context.Context) (models.User, error) {
		if err := a.consumeLoginCode(ctx, phone, code); err != nil {
			return models.User{}, err
		}
		return a.findOrCreate(ctx, store.UserRepository.FindByPhone, phone, models.UserInput{
			Phone:    phone,
			Username: phone,
		})
	})
}

func (a *authService) EmailLogin(ctx context.Context, email, code string) (models.AuthResult, error) {
	return a.login(ctx, models.LoginMethodEmail, func(ctx context.Context) (models.User, error) {
		if err := a.consumeLoginCode(ctx, email, code); err != nil {
			return models.User{}, err
		}
		return a.findOrCreate(ctx, store.UserRepository.FindByEmail, email, models.UserInput{
			Email:    email,
			Username: email,
		})
	})
}

func (a *authService) WechatLogin(ctx context.Context, code string) (models.AuthResult, error) {
	return a.login(ctx, models.LoginMethodWechat, func(ctx context.Context) (models.User, error) {
		identity, err := exchangeWechatCode(ctx, a.wechatWeb, code)
		if err != nil {
			return models.User{}, err
		}
		return a.findOrCreate(ctx, store.UserRepository.FindByWxWebOpenID, identity.OpenID, models.UserInput{
			WxWebOpenID: identity.OpenID,
			Nickname:    identity.Nickname,
		})
	})
}

func (a *authService) WechatMiniLogin(ctx context.Context, code string) (models.AuthResult, error) {
	return a.login(ctx, models.LoginMethodWechatMini, func(ctx context.Context) (models.User, error) {
		identity, err := exchangeWechatCode(ctx, a.wechatMini, code)
		if err != nil {
			return models.User{}, err
		}
		return a.findOrCreate(ctx, store.UserRepository.FindByWxMiniOpenID, identity.OpenID, models.UserInput{
			WxMiniOpenID: identity.OpenID,
		})
	})
}

// Refresh exchanges a refresh token for a brand-new session. The session
// the token was bound to stays alive, also in single-session mode.
func (a *authService) Refresh(ctx context.Context, refreshToken, userID string) (models.AuthResult, error) {
	return a.login(ctx, models.LoginMethodRefresh, func(ctx context.Context) (models.User, error) {
		if refreshToken == "" || userID == "" {
			return models.User{}, ErrInvalidRefreshToken
		}

		sessionID, ok, err := a.sessionStore.IsRefreshTokenValid(ctx, userID, refreshToken)
		if err != nil {
			return models.User{}, infraError("refresh", err)
		}
		if !ok {
			return models.User{}, ErrInvalidRefreshToken
		}

		id, err := strconv.ParseInt(userID, 10, 64)
		if err != nil {
			return models.User{}, ErrInvalidRefreshToken
		}

		user, err := a.userRepository.Get(ctx, id)
		if errors.Is(err, store.ErrNoUserWasFound) {
			return models.User{}, ErrUserNotFound
		}
		if err != nil {
			return models.User{}, infraError("refresh", err)
		}

		logger.FromContext(ctx).Debug().
			Str("user_id", userID).
			Str("previous_session_id", sessionID).
			Msg("refresh token accepted")
		return user, nil
	})
}

// login runs verify and, on success, the shared session pipeline.
func (a *authService) login(ctx context.Context, method string, verify func(ctx context.Context) (models.User, error)) (models.AuthResult, error) {
	log := logger.FromContext(ctx)

	user, err := verify(ctx)
	if err != nil {
		loginsTotal.WithLabelValues(method, loginResult(err)).Inc()
		log.Err(err).Str("func", "*authService.login").Str("method", method).Msg("login rejected")
		return models.AuthResult{}, err
	}

	result, err := a.completeLogin(ctx, user, method != models.LoginMethodRefresh)
	if err != nil {
		loginsTotal.WithLabelValues(method, loginResult(err)).Inc()
		log.Err(err).Str("func", "*authService.login").Str("method", method).Int64("user_id", user.ID).Msg("login failed")
		return models.AuthResult{}, err
	}

	loginsTotal.WithLabelValues(method, resultSuccess).Inc()
	log.Info().Str("method", method).Int64("user_id", user.ID).Str("session_id", result.SessionID).Msg("user logged in")
	return result, nil
}

// completeLogin is the pipeline shared by every login flow. Steps that
// touch the user's sessions run under the user's lock. Existing sessions
// are evicted in single-session mode only when evict is set.
func (a *authService) completeLogin(ctx context.Context, user models.User, evict bool) (models.AuthResult, error) {
	if user.IsDisabled {
		return models.AuthResult{}, fmt.Errorf("%w: account is disabled", ErrUnauthorized)
	}

	userID := strconv.FormatInt(user.ID, 10)
	unlock := a.locks.lock(userID)
	defer unlock()

	if a.singleSession && evict {
		if err := a.evictSessions(ctx, userID); err != nil {
			return models.AuthResult{}, err
		}
	}

	if user.RoleID != nil && a.roleResolver != nil {
		user.RoleInfo = a.roleResolver.Resolve(ctx, *user.RoleID)
	}

	sessionID, err := crypto.NewSessionID()
	if err != nil {
		return models.AuthResult{}, infraError("login", err)
	}

	token, err := a.tokenService.IssueAccessToken(user, sessionID, user.RoleInfo)
	if err != nil {
		return models.AuthResult{}, infraError("login", err)
	}

	refreshToken, err := a.tokenService.IssueRefreshToken(ctx, userID, sessionID)
	if err != nil {
		return models.AuthResult{}, infraError("login", err)
	}

	now := a.now()
	session := models.Session{
		UserID:         userID,
		SessionID:      sessionID,
		Token:          token,
		RefreshToken:   refreshToken,
		CreatedAt:      now,
		LastActivityAt: now,
		User:           user,
	}
	if err = a.sessionStore.Save(ctx, session, a.tokenService.AccessTokenTTL()); err != nil {
		return models.AuthResult{}, infraError("login", err)
	}

	return models.AuthResult{
		Token:        token,
		RefreshToken: refreshToken,
		SessionID:    sessionID,
		User:         user,
	}, nil
}

func (a *authService) evictSessions(ctx context.Context, userID string) error {
	existing, err := a.sessionStore.ListUserSessions(ctx, userID)
	if err != nil {
		return infraError("login", err)
	}
	if err = a.sessionStore.InvalidateAllForUser(ctx, userID); err != nil {
		return infraError("login", err)
	}

	if len(existing) > 0 {
		sessionsEvictedTotal.Add(float64(len(existing)))
		logger.FromContext(ctx).Info().Str("user_id", userID).Int("sessions", len(existing)).Msg("previous sessions evicted")
	}
	return nil
}

func (a *authService) consumeLoginCode(ctx context.Context, identifier, code string) error {
	if identifier == "" || code == "" {
		return ErrInvalidCredentials
	}

	ok, err := a.otpService.Validate(ctx, identifier, code, models.OtpPurposeLogin)
	if err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCredentials
	}
	return nil
}

type userFinder func(store.UserRepository, context.Context, string) (models.User, error)

// findOrCreate returns the user matching value or creates one from input.
// A concurrent create of the same user shows up as a conflict, after
// which the lookup is repeated once.
func (a *authService) findOrCreate(ctx context.Context, find userFinder, value string, input models.UserInput) (models.User, error) {
	if value == "" {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := find(a.userRepository, ctx, value)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, store.ErrNoUserWasFound) {
		return models.User{}, infraError("find user", err)
	}

	user, err = a.userRepository.Create(ctx, input)
	if err == nil {
		logger.FromContext(ctx).Info().Int64("user_id", user.ID).Msg("user created on first login")
		return user, nil
	}
	if !errors.Is(err, store.ErrConflict) {
		return models.User{}, infraError("create user", err)
	}

	user, err = find(a.userRepository, ctx, value)
	if errors.Is(err, store.ErrNoUserWasFound) {
		return models.User{}, fmt.Errorf("%w: %w", ErrConflict, store.ErrConflict)
	}
	if err != nil {
		return models.User{}, infraError("find user", err)
	}
	return user, nil
}

func exchangeWechatCode(ctx context.Context, client adapter.WechatClient, code string) (models.WechatIdentity, error) {
	if code == "" {
		return models.WechatIdentity{}, ErrInvalidCredentials
	}
	if client == nil {
		return models.WechatIdentity{}, infraError("wechat login", adapter.ErrDisabled)
	}

	identity, err := client.Exchange(ctx, code)
	switch {
	case err == nil:
		return identity, nil
	case errors.Is(err, adapter.ErrProviderRejected), errors.Is(err, adapter.ErrEmptyOpenID):
		return models.WechatIdentity{}, fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	default:
		return models.WechatIdentity{}, infraError("wechat login", err)
	}
}

// credentialsError hides which part of the credentials was wrong.
func credentialsError(operation string, err error) error {
	if errors.Is(err, store.ErrNoUserWasFound) || errors.Is(err, store.ErrPasswordMismatch) {
		return ErrInvalidCredentials
	}
	return infraError(operation, err)
}

// ── Sessions ────────────────────────────────────────────────────────────────

// VerifyLogin returns the user snapshot stored in the session rather than
// a fresh repository read, so transient fields set on the session survive.
func (a *authService) VerifyLogin(ctx context.Context, token string) models.LoginStatus {
	log := logger.FromContext(ctx)

	claims, err := a.tokenService.VerifyAccessToken(token)
	if err != nil || claims.SessionID == "" {
		return models.LoginStatus{}
	}

	session, err := a.sessionStore.Get(ctx, claims.SessionID)
	if err != nil {
		if !errors.Is(err, store.ErrSessionNotFound) {
			log.Err(err).Str("func", "*authService.VerifyLogin").Msg("error reading session")
		}
		return models.LoginStatus{}
	}
	if session.IsRevoked || session.UserID != claims.UserID() {
		return models.LoginStatus{}
	}

	a.sessionStore.Touch(ctx, session.SessionID)

	user := session.User
	return models.LoginStatus{
		IsValid: true,
		User:    &user,
		Session: &session,
	}
}

// Logout invalidates the session named by the token. Malformed and
// expired tokens make it a no-op.
func (a *authService) Logout(ctx context.Context, token string) error {
	claims, err := a.tokenService.VerifyAccessToken(token)
	if err != nil || claims.SessionID == "" {
		logger.FromContext(ctx).Debug().Msg("logout with unusable token ignored")
		return nil
	}

	if err = a.sessionStore.Invalidate(ctx, claims.SessionID); err != nil {
		return infraError("logout", err)
	}

	logger.FromContext(ctx).Info().Str("user_id", claims.UserID()).Str("session_id", claims.SessionID).Msg("user logged out")
	return nil
}

func (a *authService) GetUserSessions(ctx context.Context, userID string) ([]string, error) {
	sessionIDs, err := a.sessionStore.ListUserSessions(ctx, userID)
	if err != nil {
		return nil, infraError("list sessions", err)
	}
	return sessionIDs, nil
}

// ── Users ───────────────────────────────────────────────────────────────────

// identityLookup pairs an identifying attribute of a new user with the
// repository lookup for it.
type identityLookup struct {
	value func(models.UserInput) string
	find  userFinder
}

// identityLookups is the order in which CreateUser looks for an existing user.
var identityLookups = []identityLookup{
	{func(in models.UserInput) string { return in.Username }, store.UserRepository.FindByUsername},
	{func(in models.UserInput) string { return in.Phone }, store.UserRepository.FindByPhone},
	{func(in models.UserInput) string { return in.Email }, store.UserRepository.FindByEmail},
	{func(in models.UserInput) string { return in.WxWebOpenID }, store.UserRepository.FindByWxWebOpenID},
	{func(in models.UserInput) string { return in.WxMiniOpenID }, store.UserRepository.FindByWxMiniOpenID},
}

// CreateUser returns the existing user when one of the identifying
// attributes of input already belongs to a user. Otherwise a new user is
// created.
func (a *authService) CreateUser(ctx context.Context, input models.UserInput) (models.User, error) {
	log := logger.FromContext(ctx)

	for _, lookup := range identityLookups {
		value := lookup.value(input)
		if value == "" {
			continue
		}

		user, err := lookup.find(a.userRepository, ctx, value)
		if err == nil {
			log.Info().Int64("user_id", user.ID).Msg("user already exists")
			return user, nil
		}
		if !errors.Is(err, store.ErrNoUserWasFound) {
			return models.User{}, infraError("create user", err)
		}
	}

	user, err := a.userRepository.Create(ctx, input)
	switch {
	case err == nil:
		log.Info().Int64("user_id", user.ID).Msg("user created")
		return user, nil
	case errors.Is(err, store.ErrConflict):
		return models.User{}, fmt.Errorf("%w: %w", ErrConflict, err)
	case errors.Is(err, store.ErrMissingIdentifier):
		return models.User{}, invalidData(err)
	default:
		return models.User{}, infraError("create user", err)
	}
}

// UpdateUser applies patch. A changed username must be free. Disabling a
// user ends all of their sessions.
func (a *authService) UpdateUser(ctx context.Context, id int64, patch models.UserPatch) (models.User, error) {
	if patch.Username != nil {
		current, err := a.getUser(ctx, id, "update user")
		if err != nil {
			return models.User{}, err
		}
		if *patch.Username != current.Username {
			if err = a.ValidateUsername(ctx, *patch.Username); err != nil {
				return models.User{}, err
			}
		}
	}

	user, err := a.userRepository.Update(ctx, id, patch)
	switch {
	case errors.Is(err, store.ErrNoUserWasFound):
		return models.User{}, ErrUserNotFound
	case errors.Is(err, store.ErrConflict):
		return models.User{}, fmt.Errorf("%w: %w", ErrConflict, err)
	case err != nil:
		return models.User{}, infraError("update user", err)
	}

	if patch.IsDisabled != nil && *patch.IsDisabled {
		if err = a.sessionStore.InvalidateAllForUser(ctx, strconv.FormatInt(id, 10)); err != nil {
			return models.User{}, infraError("update user", err)
		}
	}

	return user, nil
}

// DeleteUser ends all sessions of the user and then soft-deletes it.
func (a *authService) DeleteUser(ctx context.Context, id int64) error {
	if _, err := a.getUser(ctx, id, "delete user"); err != nil {
		return err
	}

	if err := a.sessionStore.InvalidateAllForUser(ctx, strconv.FormatInt(id, 10)); err != nil {
		return infraError("delete user", err)
	}

	err := a.userRepository.Delete(ctx, id)
	if errors.Is(err, store.ErrNoUserWasFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return infraError("delete user", err)
	}

	logger.FromContext(ctx).Info().Int64("user_id", id).Msg("user deleted")
	return nil
}

func (a *authService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := a.userRepository.List(ctx)
	if err != nil {
		return nil, infraError("list users", err)
	}
	return users, nil
}

// ValidateUsername fails with ErrConflict when the username is taken.
func (a *authService) ValidateUsername(ctx context.Context, username string) error {
	exists, err := a.userRepository.UsernameExists(ctx, username)
	if err != nil {
		return infraError("validate username", err)
	}
	if exists {
		return fmt.Errorf("%w: username %q is taken", ErrConflict, username)
	}
	return nil
}

func (a *authService) getUser(ctx context.Context, id int64, operation string) (models.User, error) {
	user, err := a.userRepository.Get(ctx, id)
	if errors.Is(err, store.ErrNoUserWasFound) {
		return models.User{}, ErrUserNotFound
	}
	if err != nil {
		return models.User{}, infraError(operation, err)
	}
	return user, nil
}

// ── Departments ─────────────────────────────────────────────────────────────

// GetUserDepartments returns the department rows of the logged-in user,
// an empty list when departments are not configured.
func (a *authService) GetUserDepartments(ctx context.Context, token string) ([]map[string]any, error) {
	status := a.VerifyLogin(ctx, token)
	if !status.IsValid {
		return nil, ErrInvalidToken
	}

	if a.departmentRepository == nil || len(status.User.DepartmentIDs) == 0 {
		return []map[string]any{}, nil
	}

	departments, err := a.departmentRepository.ListDepartments(ctx, status.User.DepartmentIDs)
	if err != nil {
		return nil, infraError("list departments", err)
	}
	return departments, nil
}

// SetCurrentDepartment stores departmentID on the session's user snapshot.
// The session keeps its remaining lifetime and is never extended; a
// session invalidated meanwhile is not brought back.
func (a *authService) SetCurrentDepartment(ctx context.Context, departmentID int64, token string) (models.User, error) {
	status := a.VerifyLogin(ctx, token)
	if !status.IsValid {
		return models.User{}, ErrInvalidToken
	}

	if !status.Session.User.BelongsToDepartment(departmentID) {
		return models.User{}, fmt.Errorf("%w: department %d is not assigned to the user", ErrUnauthorized, departmentID)
	}

	session, err := a.sessionStore.Update(ctx, status.Session.SessionID, func(stored *models.Session) error {
		stored.User.CurrentDepartmentID = &departmentID
		return nil
	})
	if errors.Is(err, store.ErrSessionNotFound) {
		return models.User{}, ErrSessionExpired
	}
	if err != nil {
		return models.User{}, infraError("set current department", err)
	}

	return session.User, nil
}

// ── One-time codes ──────────────────────────────────────────────────────────

func (a *authService) CanSendOtp(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, error) {
	return a.otpService.CanSend(ctx, identifier, purpose)
}

func (a *authService) StoreOtp(ctx context.Context, identifier, code, purpose string, expiresAt time.Time) error {
	return a.otpService.Store(ctx, identifier, code, purpose, expiresAt)
}

func (a *authService) RequestOtp(ctx context.Context, identifier, purpose string) (models.OtpSendCheck, string, error) {
	return a.otpService.RequestCode(ctx, identifier, purpose)
}

func (a *authService) SendSms(ctx context.Context, phone, content string) error {
	return a.otpService.SendSms(ctx, phone, content)
}

func (a *authService) BlacklistOtpTarget(ctx context.Context, identifier string, duration time.Duration) error {
	return a.otpService.Blacklist(ctx, identifier, duration)
}

// ── Initialization ──────────────────────────────────────────────────────────

// Initialize creates the seed users. Existing users are left untouched, so
// running it again is harmless.
func (a *authService) Initialize(ctx context.Context) error {
	log := logger.FromContext(ctx)

	var errs []error
	for i, input := range a.seedUsers {
		user, err := a.CreateUser(ctx, input)
		if err != nil {
			log.Err(err).Str("func", "*authService.Initialize").Int("seed", i).Msg("error applying seed user")
			errs = append(errs, fmt.Errorf("seed user %d: %w", i, err))
			continue
		}
		log.Debug().Int64("user_id", user.ID).Msg("seed user applied")
	}

	return errors.Join(errs...)
}
