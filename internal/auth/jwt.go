package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/leadflow/leadflow-backend/internal/models"
)

var ErrExpiredToken = errors.New("token expired")
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of the stateless bearer credential. Token validity
// never implies session validity; both are checked when a session id is
// presented.
type Claims struct {
	jwt.RegisteredClaims
	AgentID   string `json:"aid"`
	AgentCode string `json:"agent_id"`
	Role      string `json:"role"`
	Email     string `json:"email"`
}

// IssueToken returns a signed JWT for the agent, expiring after ttl.
func IssueToken(secret string, ttl time.Duration, agent *models.Agent) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   agent.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        fmt.Sprintf("%d", now.UnixNano()),
		},
		AgentID:   agent.ID,
		AgentCode: agent.AgentCode,
		Role:      agent.Role,
		Email:     agent.Email,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tok.SignedString([]byte(secret))
}

// VerifyToken parses and validates the token string. Verification fails
// closed: malformed, unsigned, or expired tokens never yield partial claims.
func VerifyToken(secret, tokenString string) (*Claims, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	tok, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}
	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
