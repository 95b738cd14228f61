package utils

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/go-auth-keeper/models"
	"github.com/golang-jwt/jwt/v5"
)

func testClaims(issuer string) *models.TokenClaims {
	claims := &models.TokenClaims{
		Username:  "alice",
		SessionID: "session-1",
		RoleInfo:  &models.RoleInfo{RoleID: 3, MenuIDs: []int64{1, 2}},
	}
	claims.Subject = "123"
	claims.Issuer = issuer
	return claims
}

func TestGenerateJWTToken_Success(t *testing.T) {
	claims := testClaims("test-issuer")

	signed, err := GenerateJWTToken(claims, time.Hour, "secret-key")

	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if signed == "" {
		t.Fatal("expected non-empty signed token")
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("expected iat and exp to be set")
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != time.Hour {
		t.Errorf("expected exp-iat = 1h, got %s", got)
	}
}

func TestGenerateJWTToken_InvalidParams(t *testing.T) {
	noSubject := testClaims("")
	noSubject.Subject = ""

	tests := []struct {
		name     string
		claims   *models.TokenClaims
		duration time.Duration
		key      string
	}{
		{"nil claims", nil, time.Hour, "key"},
		{"empty subject", noSubject, time.Hour, "key"},
		{"zero duration", testClaims(""), 0, "key"},
		{"empty key", testClaims(""), time.Hour, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := GenerateJWTToken(tt.claims, tt.duration, tt.key)
			if err == nil {
				t.Error("expected error for invalid parameters, got nil")
			}
		})
	}
}

func TestValidateAndParseJWTToken_Success(t *testing.T) {
	signed, err := GenerateJWTToken(testClaims("test-issuer"), 5*time.Minute, "secret-key")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateAndParseJWTToken(signed, "secret-key", "test-issuer")

	if err != nil {
		t.Fatalf("expected token to be valid, got error: %v", err)
	}
	if claims.UserID() != "123" {
		t.Errorf("expected user id 123, got %s", claims.UserID())
	}
	if claims.SessionID != "session-1" || claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.RoleInfo == nil || claims.RoleInfo.RoleID != 3 {
		t.Errorf("expected role info to survive the round trip, got %+v", claims.RoleInfo)
	}
}

func TestValidateAndParseJWTToken_NoIssuerConfigured(t *testing.T) {
	signed, _ := GenerateJWTToken(testClaims("anyone"), time.Hour, "key")

	if _, err := ValidateAndParseJWTToken(signed, "key", ""); err != nil {
		t.Fatalf("expected token to be valid without issuer check, got: %v", err)
	}
}

func TestValidateAndParseJWTToken_InvalidKey(t *testing.T) {
	signed, _ := GenerateJWTToken(testClaims(""), time.Hour, "correct-key")

	_, err := ValidateAndParseJWTToken(signed, "wrong-key", "")
	if !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
		t.Errorf("expected signature error, got %v", err)
	}
}

func TestValidateAndParseJWTToken_Expired(t *testing.T) {
	// expired one second ago
	signed, _ := GenerateJWTToken(testClaims(""), -time.Second, "key")

	_, err := ValidateAndParseJWTToken(signed, "key", "")
	if !errors.Is(err, jwt.ErrTokenExpired) {
		t.Errorf("expected expired error, got %v", err)
	}
}

func TestValidateAndParseJWTToken_WrongIssuer(t *testing.T) {
	signed, _ := GenerateJWTToken(testClaims("real-issuer"), time.Hour, "key")

	_, err := ValidateAndParseJWTToken(signed, "key", "fake-issuer")
	if err == nil {
		t.Error("expected error for issuer mismatch, got nil")
	}
}

func TestValidateAndParseJWTToken_WrongAlgorithm(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, testClaims(""))
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}

	if _, err = ValidateAndParseJWTToken(signed, "key", ""); err == nil {
		t.Error("expected error for alg none, got nil")
	}
}

func TestValidateAndParseJWTToken_MissingExpiry(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, testClaims(""))
	signed, _ := token.SignedString([]byte("key"))

	if _, err := ValidateAndParseJWTToken(signed, "key", ""); err == nil {
		t.Error("expected error for token without exp, got nil")
	}
}

func TestValidateAndParseJWTToken_NonNumericSubject(t *testing.T) {
	claims := testClaims("")
	claims.Subject = "alice"
	signed, _ := GenerateJWTToken(claims, time.Hour, "key")

	if _, err := ValidateAndParseJWTToken(signed, "key", ""); err == nil {
		t.Error("expected error for non-numeric subject, got nil")
	}
}

func TestValidateAndParseJWTToken_Malformed(t *testing.T) {
	_, err := ValidateAndParseJWTToken("not.a.token", "key", "iss")
	if err == nil {
		t.Error("expected error for malformed token string, got nil")
	}
}

func TestParseBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "  bearer   abc  ", want: "abc"},
		{header: "Basic abc", wantErr: true},
		{header: "Bearer", wantErr: true},
		{header: "", wantErr: true},
		{header: "Bearer a b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.header), func(t *testing.T) {
			got, err := ParseBearerToken(tt.header)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error for %q", tt.header)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("ParseBearerToken(%q) = %q, %v", tt.header, got, err)
			}
		})
	}
}
