package token

import (
	"errors"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/google/uuid"
)

// PasetoManager is the PASETO v4.local alternative to JWTManager.
// Uses symmetric encryption with XChaCha20-Poly1305, one independent
// 32-byte key per token class.
type PasetoManager struct {
	accessKey  paseto.V4SymmetricKey
	refreshKey paseto.V4SymmetricKey
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewPasetoManager(accessKey, refreshKey []byte, accessTTL, refreshTTL time.Duration) (*PasetoManager, error) {
	if len(accessKey) != 32 || len(refreshKey) != 32 {
		return nil, fmt.Errorf("symmetric keys must be exactly 32 bytes")
	}

	ak, err := paseto.V4SymmetricKeyFromBytes(accessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create access key: %w", err)
	}
	rk, err := paseto.V4SymmetricKeyFromBytes(refreshKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create refresh key: %w", err)
	}

	return &PasetoManager{
		accessKey:  ak,
		refreshKey: rk,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}, nil
}

func (m *PasetoManager) CreateAccessToken(userID uuid.UUID) (string, error) {
	return m.create(userID, m.accessKey, m.accessTTL)
}

func (m *PasetoManager) CreateRefreshToken(userID uuid.UUID) (string, error) {
	return m.create(userID, m.refreshKey, m.refreshTTL)
}

func (m *PasetoManager) DecodeAccessToken(tokenStr string) (*Claims, error) {
	return m.decode(tokenStr, m.accessKey)
}

func (m *PasetoManager) DecodeRefreshToken(tokenStr string) (*Claims, error) {
	return m.decode(tokenStr, m.refreshKey)
}

func (m *PasetoManager) create(userID uuid.UUID, key paseto.V4SymmetricKey, ttl time.Duration) (string, error) {
	now := time.Now()

	t := paseto.NewToken()
	t.SetIssuedAt(now)
	t.SetExpiration(now.Add(ttl))
	t.SetString("user_id", userID.String())

	return t.V4Encrypt(key, nil), nil
}

func (m *PasetoManager) decode(tokenStr string, key paseto.V4SymmetricKey) (*Claims, error) {
	parser := paseto.NewParser()

	t, err := parser.ParseV4Local(key, tokenStr, nil)
	if err != nil {
		// The parser checks expiration by default; distinguish expired from invalid
		if errors.Is(err, &paseto.RuleError{}) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	userIDStr, err := t.GetString("user_id")
	if err != nil {
		return nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return nil, ErrInvalidToken
	}

	issuedAt, err := t.GetIssuedAt()
	if err != nil {
		return nil, ErrInvalidToken
	}
	expiresAt, err := t.GetExpiration()
	if err != nil {
		return nil, ErrInvalidToken
	}

	return &Claims{
		UserID:    userID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}
