package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// jwtClaims is the on-wire claim set: registered claims plus the user id.
type jwtClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"user_id"`
}

// JWTManager signs access and refresh tokens with symmetric HMAC keys.
type JWTManager struct {
	accessSecret  []byte
	refreshSecret []byte
	method        jwt.SigningMethod
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewJWTManager(accessSecret, refreshSecret []byte, algorithm string, accessTTL, refreshTTL time.Duration) (*JWTManager, error) {
	method := jwt.GetSigningMethod(algorithm)
	if method == nil {
		return nil, fmt.Errorf("unknown signing algorithm %q", algorithm)
	}
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("signing algorithm %q is not symmetric", algorithm)
	}

	return &JWTManager{
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
		method:        method,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

func (m *JWTManager) CreateAccessToken(userID uuid.UUID) (string, error) {
	return m.create(userID, m.accessSecret, m.accessTTL)
}

func (m *JWTManager) CreateRefreshToken(userID uuid.UUID) (string, error) {
	return m.create(userID, m.refreshSecret, m.refreshTTL)
}

func (m *JWTManager) DecodeAccessToken(tokenStr string) (*Claims, error) {
	return m.decode(tokenStr, m.accessSecret)
}

func (m *JWTManager) DecodeRefreshToken(tokenStr string) (*Claims, error) {
	return m.decode(tokenStr, m.refreshSecret)
}

func (m *JWTManager) create(userID uuid.UUID, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()

	t := jwt.NewWithClaims(m.method, jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID: userID.String(),
	})

	signed, err := t.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

func (m *JWTManager) decode(tokenStr string, secret []byte) (*Claims, error) {
	claims := new(jwtClaims)

	t, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{m.method.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !t.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, ErrInvalidToken
	}

	parsed := &Claims{UserID: userID}
	if claims.IssuedAt != nil {
		parsed.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		parsed.ExpiresAt = claims.ExpiresAt.Time
	}

	return parsed, nil
}
