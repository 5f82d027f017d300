// Package library models the music library served to remotes: artists,
// albums, items and containers held in indexed collections, plus the sort
// header computation for indexed listings.
package library

// Entity is anything a collection can hold. Properties returns the dotted
// property names the entity carries with their current values; properties
// with a nil value are treated as absent.
type Entity interface {
	Properties() map[string]any
}

// item kind for audio tracks
const itemKindAudio = 2

// Artist is one distinct artist name
type Artist struct {
	ID   int
	Name string
}

func (me *Artist) Properties() map[string]any {
	return map[string]any{
		"dmap.itemname":     me.Name,
		"dmap.itemid":       me.ID,
		"dmap.persistentid": me.ID,
	}
}

// Album is one album of an artist
type Album struct {
	ID        int
	Name      string
	Artist    *Artist
	ItemCount int
}

func (me *Album) Properties() map[string]any {
	return map[string]any{
		"dmap.itemname":        me.Name,
		"dmap.itemid":          me.ID,
		"dmap.persistentid":    me.ID,
		"daap.songartist":      me.Artist.Name,
		"daap.songalbumartist": me.Artist.Name,
		"dmap.itemcount":       me.ItemCount,
	}
}

// Item is one track
type Item struct {
	ID       int
	Name     string
	URI      string
	Artist   *Artist
	Album    *Album
	Track    int
	Year     string
	Composer string
	Genre    string
	// Time is the track duration in milliseconds
	Time int
}

func (me *Item) Properties() map[string]any {
	props := map[string]any{
		"dmap.itemname":               me.Name,
		"dmap.itemid":                 me.ID,
		"dmap.persistentid":           me.ID,
		"dmap.containeritemid":        me.ID,
		"dmap.itemkind":               itemKindAudio,
		"daap.songalbum":              me.Album.Name,
		"daap.songalbumid":            me.Album.ID,
		"daap.songartist":             me.Artist.Name,
		"daap.songartistid":           me.Artist.ID,
		"daap.songcontentdescription": "",
		"com.apple.itunes.has-video":  0,
		"daap.songcomposer":           me.Composer,
		"daap.songgenre":              me.Genre,
		"daap.songtime":               me.Time,
		"daap.songtracknumber":        me.Track,
	}
	// years come from MPD date tags and may be absent
	if me.Year != "" {
		props["daap.songyear"] = me.Year
	}
	return props
}

// Container is a playlist. The base container holds the whole library and
// cannot be edited.
type Container struct {
	ID     int
	Name   string
	IsBase bool
	Items  *Collection[*Item]
}

func (me *Container) Properties() map[string]any {
	return map[string]any{
		"dmap.itemname":     me.Name,
		"dmap.itemid":       me.ID,
		"dmap.persistentid": me.ID,
		"dmap.itemcount":    me.Items.Len(),
		// must be zero for remotes to list the playlist
		"dmap.parentcontainerid":     0,
		"dmap.editcommandssupported": !me.IsBase,
		"daap.baseplaylist":          me.IsBase,
	}
}

// ItemIndex returns the position of the item with the given id within the
// container, or -1
func (me *Container) ItemIndex(itemID int) int {
	for pos, item := range me.Items.Items() {
		if item.ID == itemID {
			return pos
		}
	}
	return -1
}
