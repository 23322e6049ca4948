package utils

import "testing"

func TestSignAndParseJWT(t *testing.T) {
	token, err := SignJWT("test-secret", "user-123", "seeker", 60)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}

	claims, err := ParseJWT("test-secret", token)
	if err != nil {
		t.Fatalf("ParseJWT: %v", err)
	}
	if claims.UserID != "user-123" {
		t.Errorf("UserID = %q, want user-123", claims.UserID)
	}
	if claims.Role != "seeker" {
		t.Errorf("Role = %q, want seeker", claims.Role)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	token, err := SignJWT("secret-a", "user-123", "provider", 60)
	if err != nil {
		t.Fatalf("SignJWT: %v", err)
	}
	if _, err := ParseJWT("secret-b", token); err == nil {
		t.Error("expected error for token signed with a different secret")
	}
}

func TestPasswordHashRoundTrip(t *testing.T) {
	hashed, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if !CheckPassword(hashed, "hunter22") {
		t.Error("CheckPassword rejected the original password")
	}
	if CheckPassword(hashed, "hunter23") {
		t.Error("CheckPassword accepted a wrong password")
	}
}
