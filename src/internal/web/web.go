// Package web is the browser-facing side of the server: a status dashboard,
// JSON feeds backing it and the pairing page where remotes are claimed.
package web

import (
	"bytes"
	"encoding/json"
	"image/color"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"
	gompd "github.com/fhs/gompd/v2/mpd"
	"github.com/go-chi/chi/v5"
	l "github.com/sirupsen/logrus"

	"gitlab.com/euphonyd/euphony/src/internal/artwork"
	"gitlab.com/euphonyd/euphony/src/internal/library"
	"gitlab.com/euphonyd/euphony/src/internal/pairing"
	"gitlab.com/euphonyd/euphony/src/internal/store"
)

var log *l.Entry = l.WithFields(l.Fields{"srv": "web"})

// Player is what the dashboard needs from the MPD bridge
type Player interface {
	Library() *library.Snapshot
	Status() (gompd.Attrs, error)
	CurrentSong() (gompd.Attrs, error)
	CurrentItem() (*library.Item, bool)
	CurrentPlaylist() ([]*library.Item, error)
}

// Handler serves the /web routes
type Handler struct {
	player     Player
	db         *store.Store
	art        *artwork.Cache
	remotes    *pairing.Listener
	serverName string
	serverID   string
}

// New wires the dashboard to its collaborators
func New(player Player, db *store.Store, art *artwork.Cache, remotes *pairing.Listener, serverName, serverID string) *Handler {
	return &Handler{
		player:     player,
		db:         db,
		art:        art,
		remotes:    remotes,
		serverName: serverName,
		serverID:   serverID,
	}
}

// Routes returns the /web route table
func (me *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/status", me.status)
	r.Get("/status/json", me.statusJSON)
	r.Get("/albumart/{width}x{height}/nowplaying", me.nowPlayingArt)
	r.Get("/pairing", me.pairingForm)
	r.Post("/pairing", me.pair)
	r.Get("/pairing/remotes", me.listRemotes)
	return r
}

type artistJSON struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type albumJSON struct {
	ID     int        `json:"id"`
	Name   string     `json:"name"`
	Artist artistJSON `json:"artist"`
}

type itemJSON struct {
	ID       int        `json:"id"`
	Name     string     `json:"name"`
	Artist   artistJSON `json:"artist"`
	Album    albumJSON  `json:"album"`
	Track    int        `json:"track"`
	Year     string     `json:"year"`
	Composer string     `json:"composer"`
	Genre    string     `json:"genre"`
	Time     int        `json:"time"`
}

type statusJSON struct {
	PlaylistIndex int `json:"playlist_index"`
	NextIndex     int `json:"next_index"`
	Time          int `json:"time"`
	Volume        int `json:"volume"`
}

func itemToJSON(item *library.Item) *itemJSON {
	if item == nil {
		return nil
	}
	return &itemJSON{
		ID:     item.ID,
		Name:   item.Name,
		Artist: artistJSON{ID: item.Artist.ID, Name: item.Artist.Name},
		Album: albumJSON{
			ID:     item.Album.ID,
			Name:   item.Album.Name,
			Artist: artistJSON{ID: item.Album.Artist.ID, Name: item.Album.Artist.Name},
		},
		Track:    item.Track,
		Year:     item.Year,
		Composer: item.Composer,
		Genre:    item.Genre,
		Time:     item.Time,
	}
}

// status renders the dashboard page
func (me *Handler) status(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := statusTmpl.Execute(w, map[string]any{"ServerName": me.serverName}); err != nil {
		log.WithError(err).Error("cannot render status page")
	}
}

// statusJSON feeds the dashboard: the playing track, the queue and the raw
// player status
func (me *Handler) statusJSON(w http.ResponseWriter, r *http.Request) {
	status, err := me.player.Status()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	queue, err := me.player.CurrentPlaylist()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}

	playlist := make([]*itemJSON, 0, len(queue))
	for _, item := range queue {
		playlist = append(playlist, itemToJSON(item))
	}
	var track *itemJSON
	if item, ok := me.player.CurrentItem(); ok {
		track = itemToJSON(item)
	}

	writeJSON(w, map[string]any{
		"track":    track,
		"playlist": playlist,
		"status": statusJSON{
			PlaylistIndex: statusInt(status, "song"),
			NextIndex:     statusInt(status, "nextsong"),
			Time:          elapsedSeconds(status),
			Volume:        statusInt(status, "volume"),
		},
	})
}

// nowPlayingArt serves the playing track's cover, falling back to a
// generated placeholder so the dashboard always has an image
func (me *Handler) nowPlayingArt(w http.ResponseWriter, r *http.Request) {
	width, err1 := strconv.Atoi(chi.URLParam(r, "width"))
	height, err2 := strconv.Atoi(chi.URLParam(r, "height"))
	if err1 != nil || err2 != nil || width <= 0 || height <= 0 {
		http.Error(w, "malformed image size", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	if song, err := me.player.CurrentSong(); err == nil {
		data, err := me.art.GetPNG(r.Context(), song["Artist"], song["Album"], width, height)
		if err == nil {
			w.Write(data)
			return
		}
	}
	w.Write(placeholderPNG(width, height))
}

// placeholderPNG renders a plain cover stand-in
func placeholderPNG(width, height int) []byte {
	img := imaging.New(width, height, color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		log.WithError(err).Error("cannot encode placeholder")
		return nil
	}
	return buf.Bytes()
}

// pairingForm renders the pairing page
func (me *Handler) pairingForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pairingTmpl.Execute(w, map[string]any{"ServerName": me.serverName}); err != nil {
		log.WithError(err).Error("cannot render pairing page")
	}
}

// pair runs the handshake with the selected remote using the passcode the
// user typed and persists the resulting GUID
func (me *Handler) pair(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	service := r.FormValue("remotes")

	remote, ok := me.remotes.Get(service)
	if !ok {
		http.Error(w, "unknown remote", http.StatusInternalServerError)
		return
	}
	guid, err := remote.Pair(r.Context(), code, me.serverID)
	if err != nil {
		log.WithError(err).WithField("remote", remote.String()).Warn("pairing failed")
		http.Error(w, "pairing failed", http.StatusForbidden)
		return
	}
	if err := me.db.AddPairing(guid); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Write([]byte("Pairing succeeded!"))
}

// listRemotes returns the remotes currently visible on the network
func (me *Handler) listRemotes(w http.ResponseWriter, r *http.Request) {
	remotes := make(map[string]string)
	for _, service := range me.remotes.Services() {
		if remote, ok := me.remotes.Get(service); ok {
			remotes[service] = remote.String()
		}
	}
	writeJSON(w, map[string]any{"remotes": remotes})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Error("cannot encode json")
	}
}

func statusInt(status gompd.Attrs, key string) int {
	n, err := strconv.Atoi(status[key])
	if err != nil {
		return 0
	}
	return n
}

// elapsedSeconds reads the elapsed part of MPD's "elapsed:total" time field
func elapsedSeconds(status gompd.Attrs) int {
	value := status["time"]
	for i := 0; i < len(value); i++ {
		if value[i] == ':' {
			n, err := strconv.Atoi(value[:i])
			if err != nil {
				return 0
			}
			return n
		}
	}
	return 0
}
