package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAccessToken_ReturnsValidToken(t *testing.T) {
	token, err := GenerateAccessToken("test-secret", Profile{UserID: "user-123"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Fatal("expected non-empty token")
	}
}

func TestGenerateAccessToken_CarriesProfile(t *testing.T) {
	token, err := GenerateAccessToken("test-secret", Profile{
		UserID: "user-123",
		Name:   "Ana",
		Email:  "ana@example.com",
		Roles:  []string{RoleAdmin},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := ValidateToken("test-secret", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.TokenType != "access" {
		t.Errorf("expected token type %q, got %q", "access", claims.TokenType)
	}
	if claims.Name != "Ana" || claims.Email != "ana@example.com" {
		t.Errorf("unexpected profile claims %+v", claims)
	}
	if !claims.IsAdmin() {
		t.Error("expected admin role")
	}
}

func TestValidateToken_WrongSecret(t *testing.T) {
	token, _ := GenerateAccessToken("secret-one", Profile{UserID: "user-123"})

	_, err := ValidateToken("secret-two", token)
	if err == nil {
		t.Error("expected error for wrong secret, got nil")
	}
}

func TestValidateToken_ExpiredToken(t *testing.T) {
	claims := &Claims{
		UserID:    "user-123",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-1 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("unexpected error signing token: %v", err)
	}

	_, err = ValidateToken("test-secret", signed)
	if err == nil {
		t.Error("expected error for expired token, got nil")
	}
}

func TestValidateToken_MissingUserID(t *testing.T) {
	token, _ := GenerateAccessToken("test-secret", Profile{})
	if _, err := ValidateToken("test-secret", token); err == nil {
		t.Error("expected error for token without user id")
	}
}

func TestValidateToken_InvalidString(t *testing.T) {
	_, err := ValidateToken("test-secret", "not-a-valid-jwt")
	if err == nil {
		t.Error("expected error for invalid token string, got nil")
	}
}

func TestAccessToken_HasCorrectDuration(t *testing.T) {
	token, _ := GenerateAccessToken("test-secret", Profile{UserID: "user-123"})

	claims, err := ValidateToken("test-secret", token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expectedExpiry := time.Now().Add(AccessTokenDuration)
	actualExpiry := claims.ExpiresAt.Time
	delta := expectedExpiry.Sub(actualExpiry).Abs()

	if delta > 2*time.Second {
		t.Errorf("access token expiry off by %v; expected ~%v, got %v", delta, expectedExpiry, actualExpiry)
	}
}

func TestValidateToken_RejectsNonHMACSigning(t *testing.T) {
	claims := &Claims{
		UserID:    "user-123",
		TokenType: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodNone, claims)
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("unexpected error signing token: %v", err)
	}

	_, err = ValidateToken("test-secret", signed)
	if err == nil {
		t.Error("expected error for non-HMAC signing method, got nil")
	}
}
