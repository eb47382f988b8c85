package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  error
	}{
		{"valid", "Str0ng!Pass", nil},
		{"too short", "S1!a", ErrTooShort},
		{"no uppercase", "str0ng!pass", ErrMissingUpper},
		{"no lowercase", "STR0NG!PASS", ErrMissingLower},
		{"no digit", "Strong!Pass", ErrMissingDigit},
		{"no special", "Str0ngPass1", ErrMissingSpecial},
		{"all special chars accepted", `Aa1!@#$%^&*(),.?":{}|<>`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.password)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestHasher_HashAndVerify(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	hash, err := h.Hash("Str0ng!Pass")
	require.NoError(t, err)
	assert.NotEqual(t, "Str0ng!Pass", hash)

	assert.True(t, h.Verify(hash, "Str0ng!Pass"))
	assert.False(t, h.Verify(hash, "Wr0ng!Pass"))
	assert.False(t, h.Verify("not-a-hash", "Str0ng!Pass"))
}

func TestHasher_SaltedPerCall(t *testing.T) {
	h, err := NewHasher(bcrypt.MinCost)
	require.NoError(t, err)

	first, err := h.Hash("Str0ng!Pass")
	require.NoError(t, err)
	second, err := h.Hash("Str0ng!Pass")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestNewHasher_CostRange(t *testing.T) {
	_, err := NewHasher(bcrypt.MaxCost + 1)
	assert.Error(t, err)
}
