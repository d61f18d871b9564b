package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/leadflow/leadflow-backend/internal/models"
)

const testSecret = "test-secret-key-minimum-32-characters-long-for-hmac"

func testAgent() *models.Agent {
	return &models.Agent{
		ID:        "agent-123",
		AgentCode: "AG-1042",
		Email:     "agent@example.com",
		Role:      RoleAgent,
	}
}

func TestIssueToken(t *testing.T) {
	token, err := IssueToken(testSecret, 7*24*time.Hour, testAgent())
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	if token == "" {
		t.Error("Token should not be empty")
	}

	claims, err := VerifyToken(testSecret, token)
	if err != nil {
		t.Fatalf("Failed to verify token: %v", err)
	}
	if claims.AgentID != "agent-123" {
		t.Errorf("Expected AgentID agent-123, got %s", claims.AgentID)
	}
	if claims.AgentCode != "AG-1042" {
		t.Errorf("Expected AgentCode AG-1042, got %s", claims.AgentCode)
	}
	if claims.Role != RoleAgent {
		t.Errorf("Expected Role %s, got %s", RoleAgent, claims.Role)
	}
	if claims.Email != "agent@example.com" {
		t.Errorf("Expected Email agent@example.com, got %s", claims.Email)
	}
	if claims.ExpiresAt == nil {
		t.Error("Token should carry its own expiry")
	}
}

func TestIssueToken_EmptySecret(t *testing.T) {
	if _, err := IssueToken("", time.Hour, testAgent()); err == nil {
		t.Error("Expected error for empty secret")
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	token, err := IssueToken(testSecret, time.Hour, testAgent())
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	if _, err := VerifyToken("a-completely-different-secret-value-here", token); err == nil {
		t.Error("Expected error for wrong secret")
	}
}

func TestVerifyToken_Malformed(t *testing.T) {
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := VerifyToken(testSecret, tok); err == nil {
			t.Errorf("Expected error for malformed token %q", tok)
		}
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	token, err := IssueToken(testSecret, -time.Minute, testAgent())
	if err != nil {
		t.Fatalf("Failed to issue token: %v", err)
	}
	_, err = VerifyToken(testSecret, token)
	if !errors.Is(err, ErrExpiredToken) {
		t.Errorf("Expected ErrExpiredToken, got %v", err)
	}
}
