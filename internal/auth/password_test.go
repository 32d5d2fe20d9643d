// ABOUTME: Tests for password hashing and the strength policy
// ABOUTME: Verifies bcrypt round-trip and policy edge cases

package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndComparePassword(t *testing.T) {
	hash, err := HashPassword("S3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "S3cret!", hash)

	assert.True(t, ComparePassword("S3cret!", hash))
	assert.False(t, ComparePassword("wrong", hash))
}

func TestCheckPasswordPolicy(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{"valid", "Abc12!", false},
		{"valid longer", "CorrectHorse9$", false},
		{"too short", "Ab1!", true},
		{"no uppercase", "abc12!", true},
		{"no lowercase", "ABC12!", true},
		{"no digit", "Abcdef!", true},
		{"no special", "Abc123", true},
		{"empty", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckPasswordPolicy(tt.password)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrWeakPassword)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
