package daap

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"gitlab.com/euphonyd/euphony/src/internal/dmap"
	"gitlab.com/euphonyd/euphony/src/internal/mpd"
)

// cue clears the play queue or fills it from a query and starts playback
func (me *Handler) cue(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("command") {
	case "clear":
		if err := me.player.ClearCurrent(); err != nil {
			me.fail(w, r, err)
			return
		}
	case "play":
		if err := me.cuePlay(r); err != nil {
			me.fail(w, r, err)
			return
		}
	default:
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	me.writeNode(w, "cacr", []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "miid", Value: 0},
	})
}

func (me *Handler) cuePlay(r *http.Request) error {
	index := intArg(r, "index", 0)

	root := me.player.Library().Root()
	if root == nil {
		return mpd.ErrUnavailable
	}
	items, err := root.Items.Query(r.URL.Query().Get("query"))
	if err != nil {
		return err
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Album.Name != items[j].Album.Name {
			return items[i].Album.Name < items[j].Album.Name
		}
		return items[i].Track < items[j].Track
	})

	for _, item := range items {
		if err := me.player.AddToCurrent(item.URI); err != nil {
			return err
		}
	}
	return me.player.Play(index)
}

// getProperty projects player properties. The now playing tuple and the
// playing time only appear in status updates and are dropped here.
func (me *Handler) getProperty(w http.ResponseWriter, r *http.Request) {
	properties := strings.Split(r.URL.Query().Get("properties"), ",")
	kept := properties[:0]
	for _, p := range properties {
		if p == "dacp.nowplaying" || p == "dacp.playingtime" {
			continue
		}
		kept = append(kept, p)
	}

	props, err := fetchProperties(kept, me.player.GetProperty)
	if err != nil {
		me.fail(w, r, err)
		return
	}
	me.writeNode(w, "cmgt", append([]dmap.P{{Tag: "mstt", Value: http.StatusOK}}, props...))
}

// setProperty applies every query argument as a property write, last value
// winning for duplicates. Unknown names are logged and ignored.
func (me *Handler) setProperty(w http.ResponseWriter, r *http.Request) {
	for prop, values := range r.URL.Query() {
		if prop == "session-id" || len(values) == 0 {
			continue
		}
		handled, err := me.player.SetProperty(prop, values[len(values)-1])
		if err != nil {
			me.fail(w, r, err)
			return
		}
		if !handled {
			log.WithField("property", prop).Warn("unknown property in setproperty")
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// playStatusUpdate long-polls the player status. When something is playing
// the response carries the now playing block.
func (me *Handler) playStatusUpdate(w http.ResponseWriter, r *http.Request) {
	revno := intArg(r, "revision-number", 1)
	if err := me.player.AwaitUpdate(r.Context(), revno); err != nil {
		me.fail(w, r, err)
		return
	}

	state, err := me.player.PlayerState()
	if err != nil {
		me.fail(w, r, err)
		return
	}
	shuffle, err := me.player.ShuffleState()
	if err != nil {
		me.fail(w, r, err)
		return
	}
	repeat, err := me.player.RepeatState()
	if err != nil {
		me.fail(w, r, err)
		return
	}

	values := []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "cmsr", Value: me.player.Revision() + 1},
		{Tag: "caps", Value: state},
		{Tag: "cash", Value: shuffle},
		{Tag: "carp", Value: repeat},
		{Tag: "cavc", Value: 1},
		{Tag: "caas", Value: 2},
		{Tag: "caar", Value: 6},
	}

	if state != mpd.StateStopped {
		song, err := me.player.CurrentSong()
		if err != nil {
			me.fail(w, r, err)
			return
		}
		elapsed, total, err := me.player.CurrentTimes()
		if err != nil {
			me.fail(w, r, err)
			return
		}
		if ids, ok := me.player.NowPlaying(); ok {
			values = append(values, dmap.P{Tag: "canp", Value: ids})
		}
		values = append(values,
			dmap.P{Tag: "cann", Value: song["Title"]},
			dmap.P{Tag: "cana", Value: song["Artist"]},
			dmap.P{Tag: "canl", Value: song["Album"]},
			dmap.P{Tag: "cang", Value: song["Genre"]},
		)
		if item, ok := me.player.CurrentItem(); ok {
			values = append(values, dmap.P{Tag: "asai", Value: item.Album.ID})
		}
		values = append(values,
			dmap.P{Tag: "cmmk", Value: 1},
			dmap.P{Tag: "ceGS", Value: 1},
			dmap.P{Tag: "cant", Value: total - elapsed},
			dmap.P{Tag: "cast", Value: total},
		)
	}
	me.writeNode(w, "cmst", values)
}

// nowPlayingArtwork serves the cover of the playing track. Misses are a 204
// so the remote falls back to its placeholder.
func (me *Handler) nowPlayingArtwork(w http.ResponseWriter, r *http.Request) {
	width := intArg(r, "mw", 320)
	height := intArg(r, "mh", 320)

	song, err := me.player.CurrentSong()
	if err != nil || song["Artist"] == "" || song["Album"] == "" {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	data, err := me.art.GetPNG(r.Context(), song["Artist"], song["Album"], width, height)
	if err != nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

// playSpec plays one item of a stored playlist: the queue is replaced by the
// playlist and playback starts at the item's position
func (me *Handler) playSpec(w http.ResponseWriter, r *http.Request) {
	containerSpec := queryToDict(r.URL.Query().Get("container-spec"))
	itemSpec := queryToDict(r.URL.Query().Get("container-item-spec"))

	containerID, err1 := parseHexID(containerSpec["dmap.persistentid"])
	itemID, err2 := parseHexID(itemSpec["dmap.containeritemid"])
	if err1 != nil || err2 != nil {
		http.Error(w, "malformed play spec", http.StatusNotFound)
		return
	}
	container, ok := me.player.Library().Containers.ByID(containerID)
	if !ok {
		http.Error(w, "no such container", http.StatusNotFound)
		return
	}
	index := container.ItemIndex(itemID)

	if err := me.player.ClearCurrent(); err != nil {
		me.fail(w, r, err)
		return
	}
	if err := me.player.LoadPlaylist(container.Name); err != nil {
		me.fail(w, r, err)
		return
	}
	if index < 0 {
		http.Error(w, "item not in container", http.StatusNotFound)
		return
	}
	if err := me.player.Play(1 + index); err != nil {
		me.fail(w, r, err)
	}
}

func parseHexID(s string) (int, error) {
	id, err := strconv.ParseUint(strings.TrimPrefix(s, "0x"), 16, 32)
	return int(id), err
}

func (me *Handler) playPause(w http.ResponseWriter, r *http.Request) {
	if err := me.player.TogglePlay(); err != nil {
		me.fail(w, r, err)
	}
}

func (me *Handler) pause(w http.ResponseWriter, r *http.Request) {
	if err := me.player.Pause(); err != nil {
		me.fail(w, r, err)
	}
}

func (me *Handler) nextItem(w http.ResponseWriter, r *http.Request) {
	if err := me.player.Next(); err != nil {
		me.fail(w, r, err)
	}
}

func (me *Handler) prevItem(w http.ResponseWriter, r *http.Request) {
	if err := me.player.Prev(); err != nil {
		me.fail(w, r, err)
	}
}
