package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChallengeStore(t *testing.T) {
	store := newChallengeStore(time.Minute)
	store.put("a", 90)

	angle, ok := store.take("a")
	require.True(t, ok)
	assert.Equal(t, 90, angle)

	_, ok = store.take("a")
	assert.False(t, ok, "a challenge is single use")

	expired := newChallengeStore(-time.Second)
	expired.put("b", 10)
	_, ok = expired.take("b")
	assert.False(t, ok)
}

func TestRotateCaptcha(t *testing.T) {
	svc, err := NewCaptchaServiceRotate(time.Minute, 5, 160)
	require.NoError(t, err)

	ch, err := svc.GenerateRotate(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, ch.ID)
	assert.NotEmpty(t, ch.MasterImageBase64)
	assert.NotEmpty(t, ch.ThumbImageBase64)

	impl := svc.(*captchaServiceImpl)
	impl.store.mu.Lock()
	target := impl.store.entries[ch.ID].angle
	impl.store.mu.Unlock()

	assert.True(t, svc.VerifyRotate(context.Background(), ch.ID, float64(target)))
	assert.False(t, svc.VerifyRotate(context.Background(), ch.ID, float64(target)), "replay must fail")
	assert.False(t, svc.VerifyRotate(context.Background(), "unknown", 0))
}
