package jwtverify

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims is the verified payload of an access token.
type Claims struct {
	UserID      string
	Roles       []string
	Permissions []string
	ExpiresAt   time.Time
}

func ParseToken(tokenString string, secret []byte) (Claims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !parsed.Valid {
		if err == nil {
			err = errors.New("token is not valid")
		}
		return Claims{}, err
	}

	mapClaims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, errors.New("invalid claims type")
	}

	id, _ := mapClaims["id"].(string)
	if id == "" {
		return Claims{}, errors.New("missing id claim")
	}

	exp, _ := mapClaims["exp"].(float64)
	if exp == 0 {
		return Claims{}, errors.New("missing exp claim")
	}

	return Claims{
		UserID:      id,
		Roles:       stringSlice(mapClaims["roles"]),
		Permissions: stringSlice(mapClaims["permissions"]),
		ExpiresAt:   time.Unix(int64(exp), 0),
	}, nil
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
