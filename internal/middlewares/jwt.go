package middlewares

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/onurcolak/unified-inbox-service/pkg/response"
)

const userIDKey = "userID"

// JWTAuth verifies an HS256 operator token and stores its subject as the user id.
func JWTAuth(secret string) echo.MiddlewareFunc {
	if secret == "" {
		return misconfigured("JWT secret")
	}
	key := []byte(secret)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return response.Unauthorized(c)
			}

			subject, err := parseSubject(raw, key)
			if err != nil {
				c.Logger().Debugf("rejected operator token: %v", err)
				return response.Unauthorized(c)
			}

			c.Set(userIDKey, subject)
			return next(c)
		}
	}
}

func parseSubject(raw string, key []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}
	if claims.Subject == "" {
		return "", fmt.Errorf("token has no subject")
	}
	return claims.Subject, nil
}

// UserID returns the operator id set by JWTAuth, or "" outside an authenticated group.
func UserID(c echo.Context) string {
	id, _ := c.Get(userIDKey).(string)
	return id
}

// IssueToken signs an operator token. Used by the seed tool and tests.
func IssueToken(secret, userID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
