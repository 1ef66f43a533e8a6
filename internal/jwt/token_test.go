package jwt

import (
	"testing"
	"time"
)

func TestGenerateAndValidate(t *testing.T) {
	svc := NewService("test-secret", time.Hour)

	token, err := svc.GenerateToken("driver-7", RoleDriver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if claims.Sub != "driver-7" || claims.Role != RoleDriver {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestGenerateToken_RejectsUnknownRole(t *testing.T) {
	svc := NewService("test-secret", time.Hour)
	if _, err := svc.GenerateToken("someone", "admin"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	svc := NewService("test-secret", -time.Minute)

	token, err := svc.GenerateToken("driver-7", RoleDriver)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.ValidateToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestValidateToken_RejectsForeignSecret(t *testing.T) {
	token, err := NewService("secret-a", time.Hour).GenerateToken("staff-1", RoleStaff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := NewService("secret-b", time.Hour).ValidateToken(token); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}
