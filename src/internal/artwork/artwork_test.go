package artwork

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/euphonyd/euphony/src/internal/store"
)

func TestCleanName(t *testing.T) {
	assert.Equal(t, "thewall", CleanName("The Wall"))
	assert.Equal(t, "thewall", CleanName("the wall"))
	assert.Equal(t, "acdc", CleanName("AC/DC"))
	assert.Equal(t, "sigurrós", CleanName("Sigur Rós"))
	// idempotent
	assert.Equal(t, CleanName("The Wall"), CleanName(CleanName("The Wall")))
}

func testCache(t *testing.T) *Cache {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewCache(db)
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

func TestGetPNGFromCache(t *testing.T) {
	cache := testCache(t)
	added, err := cache.Seed("Marvin", "Diodes", pngBytes(t, 10, 10))
	require.NoError(t, err)
	assert.True(t, added)

	// seeding again is a no-op
	added, err = cache.Seed("marvin", "diodes", pngBytes(t, 20, 20))
	require.NoError(t, err)
	assert.False(t, added)

	data, err := cache.GetPNG(context.Background(), "Marvin", "Diodes", 4, 6)
	require.NoError(t, err)
	img, err := imaging.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 4, img.Bounds().Dx())
	assert.Equal(t, 6, img.Bounds().Dy())
}

type failTransport struct{}

func (failTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, assert.AnError
}

func TestNegativeCache(t *testing.T) {
	cache := testCache(t)
	cache.client = &http.Client{Transport: failTransport{}}

	_, err := cache.GetPNG(context.Background(), "Nobody", "Nothing", 300, 300)
	assert.ErrorIs(t, err, ErrNotFound)

	// the miss is remembered for the process lifetime
	assert.True(t, cache.missedBefore("Nobody", "Nothing"))
	_, err = cache.GetPNG(context.Background(), "Nobody", "Nothing", 300, 300)
	assert.ErrorIs(t, err, ErrNotFound)
}
