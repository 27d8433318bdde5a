package services

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-for-jwt-signing-32-chars"

// createTestTokenService creates a token service for testing with symmetric key
func createTestTokenService(t *testing.T, accessTTL time.Duration) TokenService {
	t.Helper()
	svc, err := NewTokenService(accessTTL, 7*24*time.Hour, "test-issuer", "test-audience", false, "", "", testSecret)
	require.NoError(t, err)
	return svc
}

func TestNewTokenService(t *testing.T) {
	tests := []struct {
		name        string
		useRSAKeys  bool
		privateKey  string
		publicKey   string
		secretKey   string
		expectError bool
	}{
		{name: "valid symmetric key configuration", secretKey: testSecret},
		{name: "missing secret key", expectError: true},
		{name: "rsa without keys", useRSAKeys: true, expectError: true},
		{name: "rsa with garbage keys", useRSAKeys: true, privateKey: "nope", publicKey: "nope", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewTokenService(time.Minute, time.Hour, "iss", "aud", tt.useRSAKeys, tt.privateKey, tt.publicKey, tt.secretKey)
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, svc)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, svc)
		})
	}
}

func TestGenerateAndValidateStaffTokens(t *testing.T) {
	svc := createTestTokenService(t, 15*time.Minute)

	access, refresh, err := svc.GenerateStaffTokens(42)
	require.NoError(t, err)
	assert.NotEqual(t, access, refresh)

	claims, err := svc.ValidateStaffToken(access)
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.StaffID)
	assert.Equal(t, TokenTypeAccess, claims.TokenType)
	assert.NotEmpty(t, claims.TokenID)
	assert.True(t, claims.ExpiresAt.After(claims.IssuedAt))

	refreshClaims, err := svc.ValidateStaffToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, TokenTypeRefresh, refreshClaims.TokenType)
}

func TestValidateStaffTokenRejects(t *testing.T) {
	svc := createTestTokenService(t, 15*time.Minute)
	access, _, err := svc.GenerateStaffTokens(7)
	require.NoError(t, err)

	other, err := NewTokenService(15*time.Minute, time.Hour, "test-issuer", "test-audience", false, "", "", "another-secret-key-for-jwt-signing!!")
	require.NoError(t, err)
	foreign, _, err := other.GenerateStaffTokens(7)
	require.NoError(t, err)

	wrongAudience, err := NewTokenService(15*time.Minute, time.Hour, "test-issuer", "someone-else", false, "", "", testSecret)
	require.NoError(t, err)
	misdirected, _, err := wrongAudience.GenerateStaffTokens(7)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		want  error
	}{
		{name: "empty", token: "", want: ErrTokenInvalid},
		{name: "malformed", token: "not.a.jwt", want: ErrTokenInvalid},
		{name: "tampered", token: access + "x", want: ErrTokenInvalid},
		{name: "foreign signature", token: foreign, want: ErrTokenInvalid},
		{name: "wrong audience", token: misdirected, want: ErrTokenInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := svc.ValidateStaffToken(tt.token)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, claims)
		})
	}
}

func TestStaffTokenExpiration(t *testing.T) {
	svc := createTestTokenService(t, -time.Minute)

	access, _, err := svc.GenerateStaffTokens(1)
	require.NoError(t, err)

	_, err = svc.ValidateStaffToken(access)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestRefreshStaffTokens(t *testing.T) {
	svc := createTestTokenService(t, 15*time.Minute)
	access, refresh, err := svc.GenerateStaffTokens(9)
	require.NoError(t, err)

	t.Run("access token cannot refresh", func(t *testing.T) {
		_, _, err := svc.RefreshStaffTokens(access)
		assert.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("refresh rotates the pair", func(t *testing.T) {
		newAccess, newRefresh, err := svc.RefreshStaffTokens(refresh)
		require.NoError(t, err)

		claims, err := svc.ValidateStaffToken(newAccess)
		require.NoError(t, err)
		assert.Equal(t, uint(9), claims.StaffID)
		assert.NotEqual(t, refresh, newRefresh)
	})

	t.Run("old refresh token is revoked", func(t *testing.T) {
		_, _, err := svc.RefreshStaffTokens(refresh)
		assert.ErrorIs(t, err, ErrTokenRevoked)
	})
}

func TestRevokeToken(t *testing.T) {
	svc := createTestTokenService(t, 15*time.Minute)
	access, _, err := svc.GenerateStaffTokens(3)
	require.NoError(t, err)

	claims, err := svc.ValidateStaffToken(access)
	require.NoError(t, err)
	assert.False(t, svc.IsTokenRevoked(claims.TokenID))

	require.NoError(t, svc.RevokeToken(access))
	assert.True(t, svc.IsTokenRevoked(claims.TokenID))

	_, err = svc.ValidateStaffToken(access)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// revoking twice is not an error
	assert.NoError(t, svc.RevokeToken(access))
	assert.Error(t, svc.RevokeToken("garbage"))
}

func TestConcurrentTokenGeneration(t *testing.T) {
	svc := createTestTokenService(t, 15*time.Minute)

	const n = 20
	var wg sync.WaitGroup
	ids := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(staffID uint) {
			defer wg.Done()
			access, _, err := svc.GenerateStaffTokens(staffID)
			if !assert.NoError(t, err) {
				return
			}
			claims, err := svc.ValidateStaffToken(access)
			if assert.NoError(t, err) {
				ids <- claims.TokenID
			}
		}(uint(i + 1))
	}
	wg.Wait()
	close(ids)

	seen := map[string]bool{}
	for id := range ids {
		assert.False(t, seen[id], "token id %s issued twice", id)
		seen[id] = true
	}
	assert.Len(t, seen, n)
}

func BenchmarkValidateStaffToken(b *testing.B) {
	svc, err := NewTokenService(15*time.Minute, time.Hour, "iss", "aud", false, "", "", testSecret)
	require.NoError(b, err)
	access, _, err := svc.GenerateStaffTokens(1)
	require.NoError(b, err)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = svc.ValidateStaffToken(access)
	}
}
