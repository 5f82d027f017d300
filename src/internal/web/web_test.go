package web

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	gompd "github.com/fhs/gompd/v2/mpd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/euphonyd/euphony/src/internal/artwork"
	"gitlab.com/euphonyd/euphony/src/internal/dmap"
	"gitlab.com/euphonyd/euphony/src/internal/library"
	"gitlab.com/euphonyd/euphony/src/internal/pairing"
	"gitlab.com/euphonyd/euphony/src/internal/store"
)

type fakePlayer struct {
	snap   *library.Snapshot
	status gompd.Attrs
	song   gompd.Attrs
	queue  []*library.Item
}

func (me *fakePlayer) Library() *library.Snapshot { return me.snap }

func (me *fakePlayer) Status() (gompd.Attrs, error) { return me.status, nil }

func (me *fakePlayer) CurrentSong() (gompd.Attrs, error) { return me.song, nil }

func (me *fakePlayer) CurrentItem() (*library.Item, bool) {
	return me.snap.Items.First(map[string]any{
		"dmap.itemname":   me.song["Title"],
		"daap.songartist": me.song["Artist"],
		"daap.songalbum":  me.song["Album"],
	})
}

func (me *fakePlayer) CurrentPlaylist() ([]*library.Item, error) { return me.queue, nil }

func testPlayer() *fakePlayer {
	snap := library.NewSnapshot()
	zaphod := snap.Artists.Add(&library.Artist{ID: 1, Name: "Zaphod"})
	betel := snap.Albums.Add(&library.Album{ID: 1, Name: "Betelgeuse", Artist: zaphod, ItemCount: 1})
	ego := snap.Items.Add(&library.Item{
		ID: 1, Name: "Ego", URI: "betel/1.mp3", Artist: zaphod, Album: betel,
		Track: 1, Genre: "Rock", Time: 120000,
	})
	snap.Containers.Add(&library.Container{ID: 1, Name: library.BaseContainer, IsBase: true, Items: snap.Items})

	return &fakePlayer{
		snap: snap,
		status: gompd.Attrs{
			"song": "0", "nextsong": "1", "time": "30:120", "volume": "80",
		},
		song:  gompd.Attrs{"Title": "Ego", "Artist": "Zaphod", "Album": "Betelgeuse"},
		queue: []*library.Item{ego},
	}
}

func testHandler(t *testing.T, player *fakePlayer) (*Handler, *store.Store, *pairing.Listener) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	remotes := pairing.NewListener()
	h := New(player, db, artwork.NewCache(db), remotes, "Deep Thought", "5B03A9CF4A983E39")
	return h, db, remotes
}

func TestStatusPage(t *testing.T) {
	h, _, _ := testHandler(t, testPlayer())
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Deep Thought")
}

func TestStatusJSON(t *testing.T) {
	h, _, _ := testHandler(t, testPlayer())
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/status/json", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body struct {
		Track    *itemJSON  `json:"track"`
		Playlist []itemJSON `json:"playlist"`
		Status   statusJSON `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	require.NotNil(t, body.Track)
	assert.Equal(t, "Ego", body.Track.Name)
	assert.Equal(t, "Zaphod", body.Track.Artist.Name)
	require.Len(t, body.Playlist, 1)
	assert.Equal(t, 0, body.Status.PlaylistIndex)
	assert.Equal(t, 1, body.Status.NextIndex)
	assert.Equal(t, 30, body.Status.Time)
	assert.Equal(t, 80, body.Status.Volume)
}

func TestNowPlayingArtPlaceholder(t *testing.T) {
	h, _, _ := testHandler(t, testPlayer())
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/albumart/64x48/nowplaying", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	img, err := imaging.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 64, img.Bounds().Dx())
	assert.Equal(t, 48, img.Bounds().Dy())
}

func TestListRemotes(t *testing.T) {
	h, _, remotes := testHandler(t, testPlayer())
	remotes.Add("1234567890ABCDEF", pairing.Remote{
		Name: "Ford's iPhone", Addr: "10.0.0.7", Port: 1024, PairID: "3861",
	})

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/pairing/remotes", nil))

	var body struct {
		Remotes map[string]string `json:"remotes"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, map[string]string{
		"1234567890ABCDEF": "Ford's iPhone @ 10.0.0.7:1024",
	}, body.Remotes)
}

func TestPair(t *testing.T) {
	h, db, remotes := testHandler(t, testPlayer())

	answer := dmap.MustBuild("cmpa", []dmap.P{
		{Tag: "cmpg", Value: uint64(0xD06F5B3577C7A001)},
		{Tag: "cmnm", Value: "devicename"},
		{Tag: "cmty", Value: "ipod"},
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(answer.Encode())
	}))
	t.Cleanup(srv.Close)

	addr := srv.Listener.Addr().String()
	host, portStr, _ := strings.Cut(addr, ":")
	port, _ := strconv.Atoi(portStr)
	remotes.Add("service", pairing.Remote{Name: "Ford's iPhone", Addr: host, Port: port, PairID: "3861"})

	form := url.Values{"code": {"1234"}, "remotes": {"service"}}
	req := httptest.NewRequest(http.MethodPost, "/pairing", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Pairing succeeded!", rec.Body.String())
	ok, err := db.HasPairing(0xD06F5B3577C7A001)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPairUnknownRemote(t *testing.T) {
	h, _, _ := testHandler(t, testPlayer())

	form := url.Values{"code": {"1234"}, "remotes": {"nobody"}}
	req := httptest.NewRequest(http.MethodPost, "/pairing", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
