package daap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	gompd "github.com/fhs/gompd/v2/mpd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/euphonyd/euphony/src/internal/artwork"
	"gitlab.com/euphonyd/euphony/src/internal/dmap"
	"gitlab.com/euphonyd/euphony/src/internal/library"
	"gitlab.com/euphonyd/euphony/src/internal/mpd"
	"gitlab.com/euphonyd/euphony/src/internal/store"
)

// fakePlayer serves a fixed snapshot and records the commands it receives
type fakePlayer struct {
	snap    *library.Snapshot
	rev     int
	state   int
	song    gompd.Attrs
	elapsed int
	total   int
	volume  int
	repeat  int
	shuffle int

	created  string
	commands []string
}

func (me *fakePlayer) Library() *library.Snapshot { return me.snap }

func (me *fakePlayer) Revision() int { return me.rev }

func (me *fakePlayer) AwaitUpdate(ctx context.Context, revno int) error {
	if revno <= me.rev {
		return nil
	}
	<-ctx.Done()
	return ctx.Err()
}

// Rebuild registers the playlist created since the last rebuild
func (me *fakePlayer) Rebuild() error {
	if me.created != "" {
		me.snap.Containers.Add(&library.Container{
			ID:    me.snap.Containers.Len() + 1,
			Name:  me.created,
			Items: library.NewCollection[*library.Item](),
		})
		me.created = ""
	}
	return nil
}

func (me *fakePlayer) CurrentSong() (gompd.Attrs, error) { return me.song, nil }

func (me *fakePlayer) CurrentItem() (*library.Item, bool) {
	return me.snap.Items.First(map[string]any{
		"dmap.itemname":   me.song["Title"],
		"daap.songartist": me.song["Artist"],
		"daap.songalbum":  me.song["Album"],
	})
}

func (me *fakePlayer) CurrentTimes() (int, int, error) { return me.elapsed, me.total, nil }

func (me *fakePlayer) PlayerState() (int, error) { return me.state, nil }

func (me *fakePlayer) RepeatState() (int, error) { return me.repeat, nil }

func (me *fakePlayer) ShuffleState() (int, error) { return me.shuffle, nil }

func (me *fakePlayer) NowPlaying() ([]uint32, bool) {
	item, ok := me.CurrentItem()
	if !ok {
		return nil, false
	}
	root := me.snap.Root()
	return []uint32{1, uint32(root.ID), uint32(item.Album.ID), uint32(item.ID)}, true
}

func (me *fakePlayer) GetProperty(name string) (any, error) {
	switch name {
	case "dacp.playerstate":
		return me.state, nil
	case "dmcp.volume":
		return me.volume, nil
	case "dacp.volumecontrollable":
		return 1, nil
	case "dacp.repeatstate":
		return me.repeat, nil
	case "dacp.shufflestate":
		return me.shuffle, nil
	}
	return nil, nil
}

func (me *fakePlayer) SetProperty(name, value string) (bool, error) {
	switch name {
	case "dmcp.volume", "dacp.playingtime", "dacp.repeatstate", "dacp.shufflestate":
		me.record("set %s=%s", name, value)
		return true, nil
	}
	return false, nil
}

func (me *fakePlayer) TogglePlay() error { me.record("toggle"); return nil }

func (me *fakePlayer) Play(pos int) error { me.record("play %d", pos); return nil }

func (me *fakePlayer) Pause() error { me.record("pause"); return nil }

func (me *fakePlayer) Next() error { me.record("next"); return nil }

func (me *fakePlayer) Prev() error { me.record("prev"); return nil }

func (me *fakePlayer) ClearCurrent() error { me.record("clear"); return nil }

func (me *fakePlayer) AddToCurrent(uri string) error { me.record("add %s", uri); return nil }

func (me *fakePlayer) LoadPlaylist(name string) error { me.record("load %s", name); return nil }

func (me *fakePlayer) CreatePlaylist(name string) error {
	me.record("create %s", name)
	me.created = name
	return nil
}

func (me *fakePlayer) AddToPlaylist(name, uri string) error {
	me.record("pladd %s %s", name, uri)
	return nil
}

func (me *fakePlayer) record(format string, args ...any) {
	me.commands = append(me.commands, fmt.Sprintf(format, args...))
}

func testSnapshot() *library.Snapshot {
	snap := library.NewSnapshot()
	trillian := snap.Artists.Add(&library.Artist{ID: 1, Name: "Trillian"})
	zaphod := snap.Artists.Add(&library.Artist{ID: 2, Name: "Zaphod"})
	gold := snap.Albums.Add(&library.Album{ID: 1, Name: "Heart of Gold", Artist: trillian, ItemCount: 2})
	betel := snap.Albums.Add(&library.Album{ID: 2, Name: "Betelgeuse", Artist: zaphod, ItemCount: 1})

	snap.Items.Add(&library.Item{ID: 1, Name: "Improbability", URI: "gold/1.mp3", Artist: trillian, Album: gold, Track: 2, Time: 180000})
	snap.Items.Add(&library.Item{ID: 2, Name: "Infinite", URI: "gold/2.mp3", Artist: trillian, Album: gold, Track: 1, Time: 240000})
	ego := snap.Items.Add(&library.Item{ID: 3, Name: "Ego", URI: "betel/1.mp3", Artist: zaphod, Album: betel, Track: 1, Time: 120000})

	snap.Containers.Add(&library.Container{ID: 1, Name: library.BaseContainer, IsBase: true, Items: snap.Items})
	favorites := library.NewCollection[*library.Item]()
	favorites.Add(ego)
	snap.Containers.Add(&library.Container{ID: 2, Name: "Favorites", Items: favorites})
	return snap
}

func testPlayer() *fakePlayer {
	return &fakePlayer{
		snap:   testSnapshot(),
		rev:    3,
		state:  mpd.StateStopped,
		volume: 50,
	}
}

func testHandler(t *testing.T, player *fakePlayer) (*Handler, *store.Store) {
	t.Helper()
	db, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return New(player, db, artwork.NewCache(db), "Deep Thought"), db
}

func get(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) dmap.Node {
	t.Helper()
	node, err := dmap.Decode(rec.Body.Bytes())
	require.NoError(t, err)
	return node
}

func childUint(t *testing.T, node dmap.Node, tag string) uint64 {
	t.Helper()
	child, ok := node.Child(tag)
	require.True(t, ok, "missing child %s", tag)
	n, ok := dmap.Uint(child.Value)
	require.True(t, ok, "child %s is not numeric", tag)
	return n
}

func childString(t *testing.T, node dmap.Node, tag string) string {
	t.Helper()
	child, ok := node.Child(tag)
	require.True(t, ok, "missing child %s", tag)
	s, ok := child.Value.(dmap.String)
	require.True(t, ok, "child %s is not a string", tag)
	return string(s)
}

func TestServerInfo(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	rec := get(t, h, "/server-info")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/x-dmap-tagged", rec.Header().Get("Content-Type"))
	assert.Equal(t, ServerIdent, rec.Header().Get("DAAP-Server"))

	node := decode(t, rec)
	assert.Equal(t, "msrv", node.Tag)
	assert.EqualValues(t, 200, childUint(t, node, "mstt"))
	assert.Equal(t, "Deep Thought", childString(t, node, "minm"))
	assert.EqualValues(t, 1800, childUint(t, node, "mstm"))

	mpro, ok := node.Child("mpro")
	require.True(t, ok)
	assert.Equal(t, dmap.Version{2, 0, 6, 0}, mpro.Value)

	// the machine address list carries three entries
	msml, ok := node.Child("msml")
	require.True(t, ok)
	assert.Len(t, msml.Children(), 3)
}

func TestLogin(t *testing.T) {
	h, db := testHandler(t, testPlayer())
	require.NoError(t, db.AddPairing(0xD06F5B3577C7A001))

	rec := get(t, h, "/login?pairing-guid=0xD06F5B3577C7A001")
	require.Equal(t, http.StatusOK, rec.Code)
	node := decode(t, rec)
	assert.Equal(t, "mlog", node.Tag)
	_, ok := node.Child("mlid")
	assert.True(t, ok)

	// unpaired remotes are turned away so they re-pair
	rec = get(t, h, "/login?pairing-guid=0xDEADBEEFDEADBEEF")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, h, "/login?pairing-guid=bogus")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdate(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	rec := get(t, h, "/update?revision-number=1")
	require.Equal(t, http.StatusOK, rec.Code)
	node := decode(t, rec)
	assert.Equal(t, "mupd", node.Tag)
	assert.EqualValues(t, 4, childUint(t, node, "musr"))
}

func TestDatabases(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	node := decode(t, get(t, h, "/databases"))

	assert.Equal(t, "avdb", node.Tag)
	mlcl, ok := node.Child("mlcl")
	require.True(t, ok)
	require.Len(t, mlcl.Children(), 1)
	entry := mlcl.Children()[0]
	assert.Equal(t, "Deep Thought", childString(t, entry, "minm"))
	assert.EqualValues(t, 2, childUint(t, entry, "mctc"))
}

func TestContainers(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	node := decode(t, get(t, h, "/databases/1/containers?meta=dmap.itemid,dmap.itemname,dmap.itemcount"))

	assert.Equal(t, "aply", node.Tag)
	assert.EqualValues(t, 2, childUint(t, node, "mtco"))
	mlcl, _ := node.Child("mlcl")
	children := mlcl.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "Library", childString(t, children[0], "minm"))
	assert.EqualValues(t, 3, childUint(t, children[0], "mimc"))
	assert.Equal(t, "Favorites", childString(t, children[1], "minm"))
}

func TestContainerItems(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	node := decode(t, get(t, h, "/databases/1/containers/1/items?meta=dmap.itemid,dmap.itemname,daap.songtracknumber"))

	assert.Equal(t, "apso", node.Tag)
	mlcl, _ := node.Child("mlcl")
	children := mlcl.Children()
	require.Len(t, children, 3)
	// items come back in track order
	assert.Equal(t, "Infinite", childString(t, children[0], "minm"))
	assert.Equal(t, "Ego", childString(t, children[1], "minm"))
	assert.Equal(t, "Improbability", childString(t, children[2], "minm"))
}

func TestContainerItemsQuery(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	node := decode(t, get(t, h,
		"/databases/1/containers/1/items?meta=dmap.itemname&query='daap.songartist:Zaphod'"))

	mlcl, _ := node.Child("mlcl")
	children := mlcl.Children()
	require.Len(t, children, 1)
	assert.Equal(t, "Ego", childString(t, children[0], "minm"))
}

func TestContainerItemsUnknownContainer(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	rec := get(t, h, "/databases/1/containers/99/items?meta=dmap.itemname")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestContainerEdit(t *testing.T) {
	player := testPlayer()
	h, _ := testHandler(t, player)

	rec := get(t, h, "/databases/1/containers/2/edit?action=add&edit-params='dmap.itemid:1'")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "medc", decode(t, rec).Tag)
	assert.Equal(t, []string{"pladd Favorites gold/1.mp3"}, player.commands)

	// unknown item leaves the playlist alone
	rec = get(t, h, "/databases/1/containers/2/edit?action=add&edit-params='dmap.itemid:99'")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = get(t, h, "/databases/1/containers/2/edit?action=remove&edit-params='dmap.itemid:1'")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestDatabaseEdit(t *testing.T) {
	player := testPlayer()
	h, _ := testHandler(t, player)

	rec := get(t, h, "/databases/1/edit?action=add&edit-params='dmap.itemname:Roadtrip'")
	require.Equal(t, http.StatusOK, rec.Code)
	node := decode(t, rec)
	assert.Equal(t, "medc", node.Tag)
	assert.EqualValues(t, 3, childUint(t, node, "miid"))
	assert.Contains(t, player.commands, "create Roadtrip")
}

func TestGroups(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	node := decode(t, get(t, h,
		"/databases/1/groups?meta=dmap.itemname&type=music&group-type=albums&sort=album&include-sort-headers=1&query='dmap.itemname!:Nothing'"))

	assert.Equal(t, "agal", node.Tag)
	mlcl, _ := node.Child("mlcl")
	children := mlcl.Children()
	require.Len(t, children, 2)
	// albums sorted by initial
	assert.Equal(t, "Betelgeuse", childString(t, children[0], "minm"))
	assert.Equal(t, "Heart of Gold", childString(t, children[1], "minm"))
	// the item count rides along even though it was not requested
	assert.EqualValues(t, 1, childUint(t, children[0], "mimc"))

	mshl, ok := node.Child("mshl")
	require.True(t, ok)
	assert.Len(t, mshl.Children(), 2)
}

func TestBrowseArtists(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	node := decode(t, get(t, h,
		"/databases/1/browse/artists?filter='dmap.itemname!:Nothing'&include-sort-headers=1"))

	assert.Equal(t, "abro", node.Tag)
	assert.EqualValues(t, 2, childUint(t, node, "mtco"))
	abar, ok := node.Child("abar")
	require.True(t, ok)
	children := abar.Children()
	require.Len(t, children, 2)
	name, ok := children[0].Value.(dmap.Container)
	require.True(t, ok)
	assert.True(t, name.IsText)
	assert.Equal(t, "Trillian", name.Text)
}

func TestControlInterface(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	node := decode(t, get(t, h, "/ctrl-int"))
	assert.Equal(t, "caci", node.Tag)
}

func TestGetSpeakers(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	node := decode(t, get(t, h, "/ctrl-int/1/getspeakers"))
	assert.Equal(t, "casp", node.Tag)
	mdcl, ok := node.Child("mdcl")
	require.True(t, ok)
	assert.Equal(t, "MPD Output Device", childString(t, mdcl, "minm"))
}

func TestGetProperty(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	node := decode(t, get(t, h,
		"/ctrl-int/1/getproperty?properties=dmcp.volume,dacp.nowplaying,dacp.playingtime"))

	assert.Equal(t, "cmgt", node.Tag)
	// the status-only properties are dropped, the volume survives
	assert.EqualValues(t, 50, childUint(t, node, "cmvo"))
	_, ok := node.Child("canp")
	assert.False(t, ok)

	rec := get(t, h, "/ctrl-int/1/getproperty?properties=no.such.property")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetProperty(t *testing.T) {
	player := testPlayer()
	h, _ := testHandler(t, player)

	rec := get(t, h, "/ctrl-int/1/setproperty?dmcp.volume=75&session-id=123")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, []string{"set dmcp.volume=75"}, player.commands)
}

func TestPlayStatusUpdateStopped(t *testing.T) {
	h, _ := testHandler(t, testPlayer())
	node := decode(t, get(t, h, "/ctrl-int/1/playstatusupdate?revision-number=1"))

	assert.Equal(t, "cmst", node.Tag)
	assert.EqualValues(t, 4, childUint(t, node, "cmsr"))
	assert.EqualValues(t, mpd.StateStopped, childUint(t, node, "caps"))
	_, ok := node.Child("cann")
	assert.False(t, ok)
}

func TestPlayStatusUpdatePlaying(t *testing.T) {
	player := testPlayer()
	player.state = mpd.StatePlaying
	player.song = gompd.Attrs{"Title": "Ego", "Artist": "Zaphod", "Album": "Betelgeuse"}
	player.elapsed, player.total = 30000, 120000
	h, _ := testHandler(t, player)

	node := decode(t, get(t, h, "/ctrl-int/1/playstatusupdate?revision-number=1"))
	assert.Equal(t, "Ego", childString(t, node, "cann"))
	assert.Equal(t, "Zaphod", childString(t, node, "cana"))
	assert.EqualValues(t, 90000, childUint(t, node, "cant"))
	assert.EqualValues(t, 120000, childUint(t, node, "cast"))

	canp, ok := node.Child("canp")
	require.True(t, ok)
	assert.Equal(t, dmap.MultiUInt{1, 1, 2, 3}, canp.Value)
	assert.EqualValues(t, 2, childUint(t, node, "asai"))
}

func TestPlaySpec(t *testing.T) {
	player := testPlayer()
	h, _ := testHandler(t, player)

	rec := get(t, h,
		"/ctrl-int/1/playspec?database-spec='dmap.persistentid:0x1'&container-spec='dmap.persistentid:0x2'&container-item-spec='dmap.containeritemid:0x3'")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"clear", "load Favorites", "play 1"}, player.commands)

	rec = get(t, h,
		"/ctrl-int/1/playspec?container-spec='dmap.persistentid:0x2'&container-item-spec='dmap.containeritemid:0x1'")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCue(t *testing.T) {
	player := testPlayer()
	h, _ := testHandler(t, player)

	rec := get(t, h, "/ctrl-int/1/cue?command=clear")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cacr", decode(t, rec).Tag)
	assert.Equal(t, []string{"clear"}, player.commands)

	player.commands = nil
	rec = get(t, h, "/ctrl-int/1/cue?command=play&query='daap.songartist:Trillian'&index=1&sort=album")
	require.Equal(t, http.StatusOK, rec.Code)
	// queue filled in album and track order, then playback from the index
	assert.Equal(t, []string{"add gold/2.mp3", "add gold/1.mp3", "play 1"}, player.commands)

	rec = get(t, h, "/ctrl-int/1/cue?command=shuffle")
	assert.Equal(t, http.StatusNotImplemented, rec.Code)
}

func TestTransport(t *testing.T) {
	player := testPlayer()
	h, _ := testHandler(t, player)

	for _, route := range []string{"playpause", "pause", "nextitem", "previtem"} {
		rec := get(t, h, "/ctrl-int/1/"+route)
		assert.Equal(t, http.StatusOK, rec.Code, route)
	}
	assert.Equal(t, []string{"toggle", "pause", "next", "prev"}, player.commands)
}

func TestQueryToDict(t *testing.T) {
	params := queryToDict("'dmap.itemname:Roadtrip','dmap.itemid:12'")
	assert.Equal(t, map[string]string{
		"dmap.itemname": "Roadtrip",
		"dmap.itemid":   "12",
	}, params)
}
