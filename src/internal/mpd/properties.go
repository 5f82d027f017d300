package mpd

import (
	"strconv"

	"github.com/pkg/errors"
)

// NowPlaying is the four id tuple remotes key the playing track on:
// database, container, album and item id
func (me *Player) NowPlaying() ([]uint32, bool) {
	item, ok := me.CurrentItem()
	if !ok {
		return nil, false
	}
	root := me.Library().Root()
	if root == nil {
		return nil, false
	}
	return []uint32{1, uint32(root.ID), uint32(item.Album.ID), uint32(item.ID)}, true
}

// GetProperty resolves a player level property by dotted name. Names the
// player does not serve yield nil without error, matching the tolerance of
// property projection.
func (me *Player) GetProperty(name string) (any, error) {
	switch name {
	case "dacp.playerstate":
		return me.PlayerState()
	case "dacp.repeatstate":
		return me.RepeatState()
	case "dacp.availablerepeatstates":
		return availableRepeatStates, nil
	case "dacp.shufflestate":
		return me.ShuffleState()
	case "dacp.availableshufflestates":
		return availableShuffleStates, nil
	case "dacp.volumecontrollable":
		return volumeControllable, nil
	case "dmcp.volume":
		return me.Volume()
	case "dacp.nowplaying":
		ids, ok := me.NowPlaying()
		if !ok {
			return nil, nil
		}
		return ids, nil
	case "daap.songalbumid":
		item, ok := me.CurrentItem()
		if !ok {
			return nil, nil
		}
		return item.Album.ID, nil
	case "daap.songartistid":
		item, ok := me.CurrentItem()
		if !ok {
			return nil, nil
		}
		return item.Artist.ID, nil
	}
	return nil, nil
}

// SetProperty applies a player level property write. The first return value
// reports whether the name is a settable property at all.
func (me *Player) SetProperty(name, value string) (bool, error) {
	switch name {
	case "dmcp.volume":
		vol, err := strconv.Atoi(value)
		if err != nil {
			return true, errors.Wrapf(err, "volume %q", value)
		}
		return true, me.SetVolume(vol)
	case "dacp.playingtime":
		ms, err := strconv.Atoi(value)
		if err != nil {
			return true, errors.Wrapf(err, "playing time %q", value)
		}
		return true, me.SeekMS(ms)
	case "dacp.repeatstate":
		state, err := strconv.Atoi(value)
		if err != nil {
			return true, errors.Wrapf(err, "repeat state %q", value)
		}
		return true, me.SetRepeat(state)
	case "dacp.shufflestate":
		state, err := strconv.Atoi(value)
		if err != nil {
			return true, errors.Wrapf(err, "shuffle state %q", value)
		}
		return true, me.SetShuffle(state)
	}
	return false, nil
}
