// Package daap is the protocol front end: the DMAP/DACP endpoints an iTunes
// remote talks to after pairing.
package daap

import (
	"context"
	"net/http"
	"regexp"
	"strconv"

	gompd "github.com/fhs/gompd/v2/mpd"
	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	l "github.com/sirupsen/logrus"

	"gitlab.com/euphonyd/euphony/src/internal/artwork"
	"gitlab.com/euphonyd/euphony/src/internal/dmap"
	"gitlab.com/euphonyd/euphony/src/internal/library"
	"gitlab.com/euphonyd/euphony/src/internal/mpd"
	"gitlab.com/euphonyd/euphony/src/internal/query"
	"gitlab.com/euphonyd/euphony/src/internal/store"
)

var log *l.Entry = l.WithFields(l.Fields{"srv": "daap"})

// ServerIdent is the DAAP-Server header value
const ServerIdent = "Euphony/0.1"

// session timeout announced in server-info
const dacpTimeout = 1800

// protocol versions announced in server-info
var (
	dmapProtocolVersion  = dmap.Version{2, 0, 6, 0}
	daapProtocolVersion  = dmap.Version{3, 0, 8, 0}
	itunesSharingVersion = dmap.Version{3, 0, 1, 0}
)

// errUnknownProperty fails property projections with HTTP 404
var errUnknownProperty = errors.New("unknown property")

// Player is what the front end needs from the MPD bridge
type Player interface {
	Library() *library.Snapshot
	Revision() int
	AwaitUpdate(ctx context.Context, revno int) error
	Rebuild() error

	CurrentSong() (gompd.Attrs, error)
	CurrentItem() (*library.Item, bool)
	CurrentTimes() (elapsed, total int, err error)
	PlayerState() (int, error)
	RepeatState() (int, error)
	ShuffleState() (int, error)
	NowPlaying() ([]uint32, bool)
	GetProperty(name string) (any, error)
	SetProperty(name, value string) (bool, error)

	TogglePlay() error
	Play(pos int) error
	Pause() error
	Next() error
	Prev() error
	ClearCurrent() error
	AddToCurrent(uri string) error
	LoadPlaylist(name string) error
	CreatePlaylist(name string) error
	AddToPlaylist(name, uri string) error
}

// Handler serves the DACP/DMAP routes
type Handler struct {
	player     Player
	db         *store.Store
	art        *artwork.Cache
	serverName string
}

// New wires the front end to its collaborators
func New(player Player, db *store.Store, art *artwork.Cache, serverName string) *Handler {
	return &Handler{
		player:     player,
		db:         db,
		art:        art,
		serverName: serverName,
	}
}

// Routes returns the DMAP route table
func (me *Handler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(dmapHeaders)

	r.Get("/server-info", me.serverInfo)
	r.Get("/login", me.login)
	r.Get("/update", me.update)
	r.Get("/databases", me.databases)
	r.Route("/databases/{db}", func(r chi.Router) {
		r.Get("/containers", me.containers)
		r.Get("/containers/{container}/items", me.containerItems)
		r.Get("/containers/{container}/edit", me.containerEdit)
		r.Get("/edit", me.databaseEdit)
		r.Get("/groups", me.groups)
		r.Get("/groups/{group}/extra_data/artwork", me.groupArt)
		r.Get("/browse/artists", me.browseArtists)
	})
	r.Get("/ctrl-int", me.controlInterface)
	r.Route("/ctrl-int/1", func(r chi.Router) {
		r.Get("/cue", me.cue)
		r.Get("/getspeakers", me.getSpeakers)
		r.Get("/getproperty", me.getProperty)
		r.Get("/setproperty", me.setProperty)
		r.Get("/playstatusupdate", me.playStatusUpdate)
		r.Get("/nowplayingartwork", me.nowPlayingArtwork)
		r.Get("/playspec", me.playSpec)
		r.Get("/playpause", me.playPause)
		r.Get("/pause", me.pause)
		r.Get("/nextitem", me.nextItem)
		r.Get("/previtem", me.prevItem)
	})
	return r
}

func dmapHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/x-dmap-tagged")
		w.Header().Set("DAAP-Server", ServerIdent)
		next.ServeHTTP(w, r)
	})
}

// writeNode serializes the response tree. Build failures are server bugs
// and reported as 500.
func (me *Handler) writeNode(w http.ResponseWriter, tag string, values []dmap.P) {
	node, err := dmap.Build(tag, values)
	if err != nil {
		log.WithError(err).WithField("tag", tag).Error("cannot build response")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	w.Write(node.Encode())
}

// fail maps an error onto the protocol's status codes
func (me *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled) || r.Context().Err() != nil:
		// client is gone, drop the response
	case errors.Is(err, query.ErrSyntax):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, errUnknownProperty) || errors.Is(err, dmap.ErrUnknownTag):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, mpd.ErrUnavailable):
		log.WithError(err).Warn("mpd unavailable")
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
	default:
		log.WithError(err).Error("request failed")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// fetchProperties projects the requested dotted property names into tagged
// values. Unknown names fail the whole request; nil values are omitted.
func fetchProperties(properties []string, lookup func(string) (any, error)) ([]dmap.P, error) {
	result := make([]dmap.P, 0, len(properties))
	for _, prop := range properties {
		tag, _, ok := dmap.TagForProperty(prop)
		if !ok {
			return nil, errors.Wrapf(errUnknownProperty, "%q", prop)
		}
		value, err := lookup(prop)
		if err != nil {
			return nil, err
		}
		if value == nil {
			continue
		}
		result = append(result, dmap.P{Tag: tag, Value: value})
	}
	return result, nil
}

// entityLookup adapts an entity property map to fetchProperties
func entityLookup(props map[string]any) func(string) (any, error) {
	return func(name string) (any, error) { return props[name], nil }
}

var specPair = regexp.MustCompile(`([^\(\),+']+?)[:!]+([^\(\),+']+)`)

// queryToDict flattens a simple comparison list such as a playspec or
// edit-params value into a map, ignoring grouping
func queryToDict(q string) map[string]string {
	result := make(map[string]string)
	for _, m := range specPair.FindAllStringSubmatch(q, -1) {
		result[m[1]] = m[2]
	}
	return result
}

func intArg(r *http.Request, name string, fallback int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
