package services

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/amirphl/webbuilder-crm/utils"
	"github.com/google/uuid"
	"github.com/wenlng/go-captcha/v2/rotate"
	"golang.org/x/image/draw"
)

// CaptchaService guards the staff login with a rotate captcha.
// Generate returns a challenge ID with the master and thumb images; the client rotates
// the thumb and submits the angle, which Verify compares with the stored target.
// Each challenge can be verified once and expires after the configured TTL.
type CaptchaService interface {
	GenerateRotate(ctx context.Context) (*RotateChallenge, error)
	VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool
}

type RotateChallenge struct {
	ID                string
	MasterImageBase64 string
	ThumbImageBase64  string
}

var errEmptyCaptcha = errors.New("captcha generator returned no data")

type captchaServiceImpl struct {
	rotator rotate.Captcha
	store   *challengeStore
	padding int
}

// NewCaptchaServiceRotate builds the rotate captcha.
// padding is the accepted angle difference in degrees; imgSizePx is the square image size.
func NewCaptchaServiceRotate(ttl time.Duration, padding int, imgSizePx int) (CaptchaService, error) {
	if imgSizePx <= 0 {
		imgSizePx = 220
	}
	if ttl <= 0 {
		ttl = utils.CaptchaTTL
	}

	builder := rotate.NewBuilder(
		rotate.WithImageSquareSize(imgSizePx),
	)
	builder.SetResources(
		rotate.WithImages(generateBackgrounds(3, imgSizePx)),
	)

	return &captchaServiceImpl{
		rotator: builder.Make(),
		store:   newChallengeStore(ttl),
		padding: padding,
	}, nil
}

func (s *captchaServiceImpl) GenerateRotate(ctx context.Context) (*RotateChallenge, error) {
	captData, err := s.rotator.Generate()
	if err != nil {
		return nil, err
	}
	block := captData.GetData()
	if block == nil {
		return nil, errEmptyCaptcha
	}

	masterB64, err := captData.GetMasterImage().ToBase64()
	if err != nil {
		return nil, err
	}
	thumbB64, err := captData.GetThumbImage().ToBase64()
	if err != nil {
		return nil, err
	}

	id := uuid.New().String()
	s.store.put(id, block.Angle)

	return &RotateChallenge{
		ID:                id,
		MasterImageBase64: masterB64,
		ThumbImageBase64:  thumbB64,
	}, nil
}

func (s *captchaServiceImpl) VerifyRotate(ctx context.Context, challengeID string, userAngle float64) bool {
	target, ok := s.store.take(challengeID)
	if !ok {
		return false
	}
	return rotate.Validate(int(math.Round(userAngle)), target, s.padding)
}

// challengeStore keeps target angles in memory; entries are removed when taken or expired
type challengeStore struct {
	mu      sync.Mutex
	entries map[string]challengeEntry
	ttl     time.Duration
}

type challengeEntry struct {
	angle     int
	expiresAt time.Time
}

func newChallengeStore(ttl time.Duration) *challengeStore {
	return &challengeStore{
		entries: make(map[string]challengeEntry),
		ttl:     ttl,
	}
}

func (s *challengeStore) put(id string, angle int) {
	now := utils.UTCNow()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, k)
		}
	}
	s.entries[id] = challengeEntry{angle: angle, expiresAt: now.Add(s.ttl)}
}

// take returns the target angle and consumes the challenge
func (s *challengeStore) take(id string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return 0, false
	}
	delete(s.entries, id)
	if utils.UTCNow().After(e.expiresAt) {
		return 0, false
	}
	return e.angle, true
}

// generateBackgrounds paints small noisy gradients and upscales them, which keeps
// generation cheap while giving the captcha a soft texture
func generateBackgrounds(n, size int) []image.Image {
	if n <= 0 {
		n = 1
	}
	tile := size / 4
	if tile < 8 {
		tile = 8
	}

	imgs := make([]image.Image, 0, n)
	for i := 0; i < n; i++ {
		src := noiseGradient(tile, tile, rand.Intn(360))
		dst := image.NewRGBA(image.Rect(0, 0, size, size))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
		imgs = append(imgs, dst)
	}
	return imgs
}

func noiseGradient(w, h, hueShift int) *image.RGBA {
	rgba := image.NewRGBA(image.Rect(0, 0, w, h))
	cx, cy := float64(w)/2, float64(h)/2
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			t := math.Hypot(float64(x)-cx, float64(y)-cy) / cx
			if t > 1 {
				t = 1
			}
			base := uint8(200 - int(150*t))
			noise := uint8(rand.Intn(40))
			rgba.Set(x, y, color.RGBA{
				R: base + noise/3,
				G: uint8((int(base) + hueShift) % 256),
				B: 255 - base/2,
				A: 255,
			})
		}
	}
	return rgba
}
