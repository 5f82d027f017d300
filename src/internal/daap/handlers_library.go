package daap

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"gitlab.com/euphonyd/euphony/src/internal/dmap"
	"gitlab.com/euphonyd/euphony/src/internal/library"
)

// databases announces the single database backing the share
func (me *Handler) databases(w http.ResponseWriter, r *http.Request) {
	me.writeNode(w, "avdb", []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "muty", Value: false},
		{Tag: "mtco", Value: 1},
		{Tag: "mrco", Value: 1},
		{Tag: "mlcl", Value: []dmap.P{
			{Tag: "mlit", Value: []dmap.P{
				{Tag: "miid", Value: 1},
				{Tag: "mper", Value: uint64(1)},
				{Tag: "minm", Value: me.serverName},
				{Tag: "mimc", Value: 1},
				{Tag: "mctc", Value: me.player.Library().Containers.Len()},
				{Tag: "meds", Value: 3},
			}},
		}},
	})
}

// containers lists all playlists with the requested properties
func (me *Handler) containers(w http.ResponseWriter, r *http.Request) {
	properties := strings.Split(r.URL.Query().Get("meta"), ",")
	containers := me.player.Library().Containers.Items()

	nodes := make([]dmap.P, 0, len(containers))
	for _, c := range containers {
		props, err := fetchProperties(properties, entityLookup(c.Properties()))
		if err != nil {
			me.fail(w, r, err)
			return
		}
		nodes = append(nodes, dmap.P{Tag: "mlit", Value: props})
	}

	me.writeNode(w, "aply", []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "muty", Value: 1},
		{Tag: "mtco", Value: len(containers)},
		{Tag: "mrco", Value: len(containers)},
		{Tag: "mlcl", Value: nodes},
	})
}

// containerItems lists a playlist's items, optionally filtered, in track
// order
func (me *Handler) containerItems(w http.ResponseWriter, r *http.Request) {
	properties := strings.Split(r.URL.Query().Get("meta"), ",")

	container, ok := me.container(r)
	if !ok {
		http.Error(w, "no such container", http.StatusBadRequest)
		return
	}

	var (
		items []*library.Item
		err   error
	)
	if q := r.URL.Query().Get("query"); q != "" {
		items, err = container.Items.Query(q)
		if err != nil {
			me.fail(w, r, err)
			return
		}
	} else {
		items = append(items, container.Items.Items()...)
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].Track < items[j].Track })

	nodes := make([]dmap.P, 0, len(items))
	for _, item := range items {
		props, err := fetchProperties(properties, entityLookup(item.Properties()))
		if err != nil {
			me.fail(w, r, err)
			return
		}
		nodes = append(nodes, dmap.P{Tag: "mlit", Value: props})
	}

	me.writeNode(w, "apso", []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "muty", Value: 0},
		{Tag: "mtco", Value: len(nodes)},
		{Tag: "mrco", Value: len(nodes)},
		{Tag: "mlcl", Value: nodes},
	})
}

// containerEdit adds an item to a playlist. Other edit actions are not
// implemented.
func (me *Handler) containerEdit(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("action") != "add" {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	params := queryToDict(r.URL.Query().Get("edit-params"))

	container, ok := me.container(r)
	if !ok {
		http.Error(w, "no such container", http.StatusNotFound)
		return
	}
	itemID, err := strconv.Atoi(params["dmap.itemid"])
	if err != nil {
		http.Error(w, "missing dmap.itemid", http.StatusNotFound)
		return
	}
	item, ok := me.player.Library().Items.ByID(itemID)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := me.player.AddToPlaylist(container.Name, item.URI); err != nil {
		me.fail(w, r, err)
		return
	}
	me.writeNode(w, "medc", []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "mlit", Value: []dmap.P{}},
	})
}

// databaseEdit creates a playlist. The rebuild is forced so the response can
// carry the new container's id.
func (me *Handler) databaseEdit(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("action") != "add" {
		http.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)
		return
	}
	params := queryToDict(r.URL.Query().Get("edit-params"))
	name, ok := params["dmap.itemname"]
	if !ok {
		http.Error(w, "missing dmap.itemname", http.StatusNotFound)
		return
	}
	if err := me.player.CreatePlaylist(name); err != nil {
		me.fail(w, r, err)
		return
	}
	if err := me.player.Rebuild(); err != nil {
		me.fail(w, r, err)
		return
	}
	container, ok := me.player.Library().Containers.First(map[string]any{"dmap.itemname": name})
	if !ok {
		me.fail(w, r, errUnknownProperty)
		return
	}
	me.writeNode(w, "medc", []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "miid", Value: container.ID},
	})
}

// groups lists albums matching the query, sorted for indexed listings, with
// optional sort headers
func (me *Handler) groups(w http.ResponseWriter, r *http.Request) {
	properties := strings.Split(r.URL.Query().Get("meta"), ",")
	includeHeaders := r.URL.Query().Get("include-sort-headers") == "1"

	albums, err := me.player.Library().Albums.Query(r.URL.Query().Get("query"))
	if err != nil {
		me.fail(w, r, err)
		return
	}
	sort.SliceStable(albums, func(i, j int) bool {
		return sortKey(albums[i].Name) < sortKey(albums[j].Name)
	})

	// remotes need the track count even when they do not ask for it
	properties = append(properties, "dmap.itemcount")
	nodes := make([]dmap.P, 0, len(albums))
	for _, album := range albums {
		props, err := fetchProperties(properties, entityLookup(album.Properties()))
		if err != nil {
			me.fail(w, r, err)
			return
		}
		nodes = append(nodes, dmap.P{Tag: "mlit", Value: props})
	}

	values := []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "muty", Value: 0},
		{Tag: "mtco", Value: len(albums)},
		{Tag: "mrco", Value: len(albums)},
		{Tag: "mlcl", Value: nodes},
	}
	if includeHeaders {
		names := make([]string, len(albums))
		for i, album := range albums {
			names[i] = album.Name
		}
		values = append(values, dmap.P{Tag: "mshl", Value: headerNodes(names)})
	}
	me.writeNode(w, "agal", values)
}

// groupArt serves a small album cover for group listings
func (me *Handler) groupArt(w http.ResponseWriter, r *http.Request) {
	width := intArg(r, "mw", 55)
	height := intArg(r, "mh", 55)

	groupID, err := strconv.Atoi(chi.URLParam(r, "group"))
	if err != nil {
		http.Error(w, "malformed group id", http.StatusNotFound)
		return
	}
	album, ok := me.player.Library().Albums.ByID(groupID)
	if !ok {
		http.Error(w, "no such group", http.StatusNotFound)
		return
	}
	data, err := me.art.GetPNG(r.Context(), album.Artist.Name, album.Name, width, height)
	if err != nil {
		http.Error(w, "no artwork", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

// browseArtists lists artist names matching the filter, sorted for indexed
// listings, with optional sort headers
func (me *Handler) browseArtists(w http.ResponseWriter, r *http.Request) {
	includeHeaders := r.URL.Query().Get("include-sort-headers") == "1"

	artists, err := me.player.Library().Artists.Query(r.URL.Query().Get("filter"))
	if err != nil {
		me.fail(w, r, err)
		return
	}
	sort.SliceStable(artists, func(i, j int) bool {
		return sortKey(artists[i].Name) < sortKey(artists[j].Name)
	})

	names := make([]string, len(artists))
	nodes := make([]dmap.P, len(artists))
	for i, artist := range artists {
		names[i] = artist.Name
		nodes[i] = dmap.P{Tag: "mlit", Value: artist.Name}
	}

	values := []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "muty", Value: 0},
		{Tag: "mtco", Value: len(artists)},
		{Tag: "mrco", Value: len(artists)},
		{Tag: "abar", Value: nodes},
	}
	if includeHeaders {
		values = append(values, dmap.P{Tag: "mshl", Value: headerNodes(names)})
	}
	me.writeNode(w, "abro", values)
}

// container resolves the container id in the URL against the snapshot
func (me *Handler) container(r *http.Request) (*library.Container, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "container"))
	if err != nil {
		return nil, false
	}
	return me.player.Library().Containers.ByID(id)
}

func sortKey(name string) string {
	return library.Initial(name) + " " + name
}

func headerNodes(names []string) []dmap.P {
	headers := library.BuildSortHeaders(names)
	nodes := make([]dmap.P, len(headers))
	for i, h := range headers {
		nodes[i] = dmap.P{Tag: "mlit", Value: []dmap.P{
			{Tag: "mshc", Value: h.Char},
			{Tag: "mshi", Value: h.Index},
			{Tag: "mshn", Value: h.Count},
		}}
	}
	return nodes
}
