// Package artwork resolves album artwork: a persistent cache of original
// images in the store, filled on demand from public providers, served
// resized as PNG.
package artwork

import (
	"bytes"
	"context"
	"image"
	"net/http"
	"sync"
	"time"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	l "github.com/sirupsen/logrus"

	"gitlab.com/euphonyd/euphony/src/internal/store"
)

var log *l.Entry = l.WithFields(l.Fields{"srv": "artwork"})

const userAgent = "Euphony/0.1"

// ErrNotFound is returned when no provider has artwork for the pair
var ErrNotFound = errors.New("artwork not found")

// Cache resolves and caches album artwork. Original bytes are kept in the
// store under the normalized pair; pairs no provider knows are remembered
// in memory for the process lifetime.
type Cache struct {
	db     *store.Store
	client *http.Client

	mu       sync.Mutex
	notFound map[string]struct{}
}

// NewCache returns a cache backed by the given store
func NewCache(db *store.Store) *Cache {
	return &Cache{
		db:       db,
		client:   &http.Client{Timeout: 5 * time.Second},
		notFound: make(map[string]struct{}),
	}
}

// GetPNG returns the pair's artwork resized to width x height and encoded
// as PNG. On a cache miss the providers are tried in order; if none has an
// image the miss itself is cached and ErrNotFound returned.
func (me *Cache) GetPNG(ctx context.Context, artist, album string, width, height int) ([]byte, error) {
	img, err := me.cached(artist, album)
	if err != nil {
		if me.missedBefore(artist, album) {
			return nil, errors.Wrapf(ErrNotFound, "%s/%s", artist, album)
		}
		img, err = me.download(ctx, artist, album, min(width, height))
		if err != nil {
			me.rememberMiss(artist, album)
			return nil, err
		}
	}
	return encodePNG(img, width, height)
}

// Seed stores original image bytes for the pair, skipping pairs already
// cached. Used by the artwork import.
func (me *Cache) Seed(artist, album string, data []byte) (added bool, err error) {
	_, ok, err := me.db.GetArtwork(CleanName(artist), CleanName(album))
	if err != nil || ok {
		return false, err
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return false, errors.Wrapf(err, "artwork for %s/%s unreadable", artist, album)
	}
	return true, me.db.PutArtwork(CleanName(artist), CleanName(album), data)
}

func (me *Cache) cached(artist, album string) (image.Image, error) {
	data, ok, err := me.db.GetArtwork(CleanName(artist), CleanName(album))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%s/%s", artist, album)
	}
	return imaging.Decode(bytes.NewReader(data))
}

func (me *Cache) store(artist, album string, data []byte) {
	log.WithFields(l.Fields{"artist": artist, "album": album}).Info("caching artwork")
	if err := me.db.PutArtwork(CleanName(artist), CleanName(album), data); err != nil {
		log.WithError(err).Warn("cannot cache artwork")
	}
}

// download walks the providers and returns the first image at least minSize
// on its longest side. When every image is smaller the largest seen is
// cached and returned.
func (me *Cache) download(ctx context.Context, artist, album string, minSize int) (image.Image, error) {
	var (
		best     image.Image
		bestData []byte
	)
	for _, p := range []provider{lastFMURL, albumArtURL} {
		imgURL := p(ctx, me.client, artist, album)
		if imgURL == "" {
			continue
		}
		data, err := fetch(ctx, me.client, imgURL)
		if err != nil {
			continue
		}
		img, err := imaging.Decode(bytes.NewReader(data))
		if err != nil {
			continue
		}
		if longestSide(img) >= minSize {
			me.store(artist, album, data)
			return img, nil
		}
		log.WithFields(l.Fields{"have": longestSide(img), "want": minSize}).
			Debug("image too small, trying next provider")
		if best == nil || longestSide(img) > longestSide(best) {
			best, bestData = img, data
		}
	}
	if best != nil {
		me.store(artist, album, bestData)
		return best, nil
	}
	return nil, errors.Wrapf(ErrNotFound, "%s/%s", artist, album)
}

func (me *Cache) missedBefore(artist, album string) bool {
	me.mu.Lock()
	defer me.mu.Unlock()
	_, ok := me.notFound[artist+" "+album]
	return ok
}

func (me *Cache) rememberMiss(artist, album string) {
	me.mu.Lock()
	me.notFound[artist+" "+album] = struct{}{}
	me.mu.Unlock()
}

func longestSide(img image.Image) int {
	bounds := img.Bounds()
	return max(bounds.Dx(), bounds.Dy())
}

func encodePNG(img image.Image, width, height int) ([]byte, error) {
	resized := imaging.Resize(img, width, height, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.PNG); err != nil {
		return nil, errors.Wrap(err, "encode artwork")
	}
	return buf.Bytes(), nil
}
