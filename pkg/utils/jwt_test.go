package utils

import (
	"testing"
	"time"
)

func TestGenerateAndValidateToken(t *testing.T) {
	token, err := GenerateToken("test_secret", "operator", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	claims, err := ValidateToken("test_secret", token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if claims.Subject != "operator" {
		t.Fatalf("subject = %q", claims.Subject)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("test_secret", "operator", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ValidateToken("other_secret", token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	token, err := GenerateToken("test_secret", "operator", -time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if _, err := ValidateToken("test_secret", token); err == nil {
		t.Fatal("expired token must be rejected")
	}
}
