package mpd

import (
	"sort"
	"strconv"
	"strings"

	"github.com/fhs/gompd/v2/mpd"

	"gitlab.com/euphonyd/euphony/src/internal/library"
)

// rebuild assembles a fresh library snapshot from MPD and swaps it in.
// Readers keep seeing the previous snapshot until the swap.
func (me *Player) rebuild() error {
	var snap *library.Snapshot
	err := me.withClient(func(c *mpd.Client) error {
		var err error
		snap, err = buildSnapshot(c)
		return err
	})
	if err != nil {
		return err
	}
	me.snapshot.Store(snap)
	log.WithFields(map[string]any{
		"artists":    snap.Artists.Len(),
		"albums":     snap.Albums.Len(),
		"items":      snap.Items.Len(),
		"containers": snap.Containers.Len(),
	}).Info("library updated")
	return nil
}

func buildSnapshot(c *mpd.Client) (*library.Snapshot, error) {
	snap := library.NewSnapshot()
	if err := buildArtists(c, snap); err != nil {
		return nil, err
	}
	if err := buildAlbums(c, snap); err != nil {
		return nil, err
	}
	if err := buildItems(c, snap); err != nil {
		return nil, err
	}
	if err := buildContainers(c, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

func buildArtists(c *mpd.Client, snap *library.Snapshot) error {
	names, err := c.List("artist")
	if err != nil {
		return err
	}
	for _, name := range library.SortByInitial(names) {
		if name == "" {
			continue
		}
		snap.Artists.Add(&library.Artist{ID: snap.Artists.Len() + 1, Name: name})
	}
	return nil
}

func buildAlbums(c *mpd.Client, snap *library.Snapshot) error {
	for _, artist := range snap.Artists.Items() {
		names, err := c.List("album", "artist", artist.Name)
		if err != nil {
			return err
		}
		for _, name := range names {
			if name == "" {
				continue
			}
			titles, err := c.List("title", "album", name)
			if err != nil {
				return err
			}
			snap.Albums.Add(&library.Album{
				ID:        snap.Albums.Len() + 1,
				Name:      name,
				Artist:    artist,
				ItemCount: len(titles),
			})
		}
	}
	return nil
}

func buildItems(c *mpd.Client, snap *library.Snapshot) error {
	infos, err := c.ListAllInfo("/")
	if err != nil {
		return err
	}
	for _, info := range infos {
		title, ok := info["Title"]
		if !ok {
			continue
		}
		artist, ok := snap.Artists.First(map[string]any{"dmap.itemname": info["Artist"]})
		if !ok {
			continue
		}
		album, ok := snap.Albums.First(map[string]any{
			"dmap.itemname":   info["Album"],
			"daap.songartist": info["Artist"],
		})
		if !ok {
			continue
		}
		secs, _ := strconv.Atoi(info["Time"])
		snap.Items.Add(&library.Item{
			ID:       snap.Items.Len() + 1,
			Name:     title,
			URI:      info["file"],
			Artist:   artist,
			Album:    album,
			Track:    parseTrack(info["Track"]),
			Year:     info["Date"],
			Composer: info["Composer"],
			Genre:    info["Genre"],
			Time:     secs * 1000,
		})
	}
	return nil
}

func buildContainers(c *mpd.Client, snap *library.Snapshot) error {
	snap.Containers.Add(&library.Container{
		ID:     1,
		Name:   library.BaseContainer,
		IsBase: true,
		Items:  snap.Items,
	})

	lists, err := c.ListPlaylists()
	if err != nil {
		return err
	}
	var names []string
	for _, attrs := range lists {
		if name := attrs["playlist"]; name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	for _, name := range names {
		contents, err := c.PlaylistContents(name)
		if err != nil {
			return err
		}
		uris := make(map[string]struct{}, len(contents))
		for _, entry := range contents {
			uris[entry["file"]] = struct{}{}
		}
		items := library.NewCollection[*library.Item]()
		for _, item := range snap.Items.Items() {
			if _, ok := uris[item.URI]; ok {
				items.Add(item)
			}
		}
		snap.Containers.Add(&library.Container{
			ID:    snap.Containers.Len() + 1,
			Name:  name,
			Items: items,
		})
	}
	return nil
}

// parseTrack extracts the leading integer of a track tag such as "3/12"
func parseTrack(tag string) int {
	n, err := strconv.Atoi(strings.SplitN(tag, "/", 2)[0])
	if err != nil {
		return 1
	}
	return n
}
