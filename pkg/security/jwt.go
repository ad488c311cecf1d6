package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
)

var ErrTokenClaims = errors.New("authorization token is missing claims")

// MakeAuthToken signs an HS256 auth token for userID with jwt.secret
func MakeAuthToken(userID string, now time.Time, ttl time.Duration) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"type":    "auth",
		"iat":     now.Unix(),
		"exp":     now.Add(ttl).Unix(),
	})

	return t.SignedString([]byte(viper.GetString("jwt.secret")))
}

// ParseAuthToken checks the signature and expiry of an auth token and
// returns the user ID it was issued for.
func ParseAuthToken(tokenStr string) (string, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return []byte(viper.GetString("jwt.secret")), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return "", err
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrTokenClaims
	}

	if typ, _ := claims["type"].(string); typ != "auth" {
		return "", ErrTokenClaims
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return "", ErrTokenClaims
	}

	return userID, nil
}
