// Package mpd adapts an MPD server to the library and player model served to
// remotes. Commands run on short-lived connections; two idle connections
// watch for status and database changes.
package mpd

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/fhs/gompd/v2/mpd"
	"github.com/pkg/errors"
	l "github.com/sirupsen/logrus"

	"gitlab.com/euphonyd/euphony/src/internal/library"
)

var log *l.Entry = l.WithFields(l.Fields{"srv": "mpd"})

// player states as reported to remotes
const (
	StateStopped = 2
	StatePaused  = 3
	StatePlaying = 4
)

// repeat and shuffle states
const (
	RepeatOff    = 0
	RepeatSingle = 1
	RepeatOn     = 2

	ShuffleOff = 0
	ShuffleOn  = 1
)

const (
	availableRepeatStates  = 6
	availableShuffleStates = 2
	volumeControllable     = 1
)

// ErrUnavailable wraps failures to reach MPD
var ErrUnavailable = errors.New("mpd unavailable")

// Config addresses the MPD server
type Config struct {
	Host     string
	Port     int
	Password string
}

// Player is the bridge to one MPD server. It owns the library snapshot and
// the revision counter long-polls are gated on.
type Player struct {
	addr     string
	password string

	snapshot atomic.Pointer[library.Snapshot]
	gate     revisionGate

	cancel context.CancelFunc
	done   chan struct{}
}

// NewPlayer creates the bridge without touching the network
func NewPlayer(cfg Config) *Player {
	me := &Player{
		addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		password: cfg.Password,
	}
	me.gate.init()
	me.snapshot.Store(library.NewSnapshot())
	return me
}

// Start performs the initial library build and launches the idle loops. It
// fails if MPD cannot be reached at all.
func (me *Player) Start() (err error) {
	if err = me.rebuild(); err != nil {
		return errors.Wrap(err, "initial library build")
	}

	ctx, cancel := context.WithCancel(context.Background())
	me.cancel = cancel
	me.done = make(chan struct{})

	go func() {
		defer close(me.done)
		me.watch(ctx, []string{"playlist", "player", "options", "mixer"}, func() {
			me.gate.bump()
		})
	}()
	go me.watch(ctx, []string{"database", "stored_playlist"}, func() {
		if err := me.rebuild(); err != nil {
			log.WithError(err).Error("library rebuild failed")
		}
	})
	return nil
}

// Stop shuts the idle loops down
func (me *Player) Stop() {
	if me.cancel != nil {
		me.cancel()
		<-me.done
	}
}

// Library returns the current snapshot
func (me *Player) Library() *library.Snapshot {
	return me.snapshot.Load()
}

// Rebuild rebuilds the library outside the idle loop. Callers that create
// entities and need their ids right away use this instead of waiting for the
// stored_playlist event.
func (me *Player) Rebuild() error {
	return me.rebuild()
}

// Revision returns the current status revision
func (me *Player) Revision() int {
	return me.gate.current()
}

// AwaitUpdate blocks until the revision reaches revno or the context is
// done. It returns immediately when revno is not ahead of the counter.
func (me *Player) AwaitUpdate(ctx context.Context, revno int) error {
	return me.gate.await(ctx, revno)
}

func (me *Player) connect() (*mpd.Client, error) {
	var (
		client *mpd.Client
		err    error
	)
	if me.password != "" {
		client, err = mpd.DialAuthenticated("tcp", me.addr, me.password)
	} else {
		client, err = mpd.Dial("tcp", me.addr)
	}
	if err != nil {
		return nil, errors.Wrapf(ErrUnavailable, "dial %s: %v", me.addr, err)
	}
	return client, nil
}

// withClient runs fn on a fresh command connection
func (me *Player) withClient(fn func(*mpd.Client) error) error {
	client, err := me.connect()
	if err != nil {
		return err
	}
	defer client.Close()
	return fn(client)
}

// Status returns the raw MPD status attributes
func (me *Player) Status() (attrs mpd.Attrs, err error) {
	err = me.withClient(func(c *mpd.Client) error {
		var err error
		attrs, err = c.Status()
		return err
	})
	return
}

// CurrentSong returns the raw attributes of the playing song
func (me *Player) CurrentSong() (attrs mpd.Attrs, err error) {
	err = me.withClient(func(c *mpd.Client) error {
		var err error
		attrs, err = c.CurrentSong()
		return err
	})
	return
}

// PlayerState maps the MPD state to the remote's player state codes
func (me *Player) PlayerState() (int, error) {
	status, err := me.Status()
	if err != nil {
		return StateStopped, err
	}
	switch status["state"] {
	case "play":
		return StatePlaying, nil
	case "pause":
		return StatePaused, nil
	}
	return StateStopped, nil
}

// CurrentTimes returns the elapsed and total time of the playing song in
// milliseconds
func (me *Player) CurrentTimes() (elapsed, total int, err error) {
	status, err := me.Status()
	if err != nil {
		return 0, 0, err
	}
	// status "time" is "elapsed:total" in seconds
	parts := strings.Split(status["time"], ":")
	if len(parts) != 2 {
		return 0, 0, nil
	}
	e, err1 := strconv.Atoi(parts[0])
	t, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return 0, 0, nil
	}
	return e * 1000, t * 1000, nil
}

// CurrentItem resolves the playing song against the snapshot
func (me *Player) CurrentItem() (*library.Item, bool) {
	song, err := me.CurrentSong()
	if err != nil || len(song) == 0 {
		return nil, false
	}
	return me.Library().Items.First(map[string]any{
		"dmap.itemname":   song["Title"],
		"daap.songartist": song["Artist"],
		"daap.songalbum":  song["Album"],
	})
}

// CurrentPlaylist resolves the play queue against the snapshot. Queue
// entries unknown to the library are skipped.
func (me *Player) CurrentPlaylist() (items []*library.Item, err error) {
	var attrs []mpd.Attrs
	err = me.withClient(func(c *mpd.Client) error {
		var err error
		attrs, err = c.PlaylistInfo(-1, -1)
		return err
	})
	if err != nil {
		return nil, err
	}
	snap := me.Library()
	for _, a := range attrs {
		item, ok := snap.Items.First(map[string]any{
			"dmap.itemname":   a["Title"],
			"daap.songartist": a["Artist"],
			"daap.songalbum":  a["Album"],
		})
		if ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// TogglePlay pauses when playing and plays otherwise
func (me *Player) TogglePlay() error {
	state, err := me.PlayerState()
	if err != nil {
		return err
	}
	if state == StatePlaying {
		return me.Pause()
	}
	return me.Play(-1)
}

// Play starts playback, at the queue position when pos >= 0
func (me *Player) Play(pos int) error {
	return me.withClient(func(c *mpd.Client) error { return c.Play(pos) })
}

// Pause pauses playback
func (me *Player) Pause() error {
	return me.withClient(func(c *mpd.Client) error { return c.Pause(true) })
}

// Next skips to the next queue entry
func (me *Player) Next() error {
	return me.withClient(func(c *mpd.Client) error { return c.Next() })
}

// Prev skips to the previous queue entry
func (me *Player) Prev() error {
	return me.withClient(func(c *mpd.Client) error { return c.Previous() })
}

// SeekMS seeks within the playing song. The wire carries milliseconds, MPD
// seeks in seconds.
func (me *Player) SeekMS(ms int) error {
	status, err := me.Status()
	if err != nil {
		return err
	}
	pos, err := strconv.Atoi(status["song"])
	if err != nil {
		// nothing playing
		return nil
	}
	return me.withClient(func(c *mpd.Client) error { return c.Seek(pos, ms/1000) })
}

// Volume returns the mixer volume
func (me *Player) Volume() (int, error) {
	status, err := me.Status()
	if err != nil {
		return 0, err
	}
	vol, err := strconv.Atoi(status["volume"])
	if err != nil {
		return 0, nil
	}
	return vol, nil
}

// SetVolume sets the mixer volume
func (me *Player) SetVolume(vol int) error {
	return me.withClient(func(c *mpd.Client) error { return c.SetVolume(vol) })
}

// RepeatState derives the remote's repeat state from MPD's repeat and
// single flags
func (me *Player) RepeatState() (int, error) {
	status, err := me.Status()
	if err != nil {
		return RepeatOff, err
	}
	if status["single"] == "1" {
		return RepeatSingle, nil
	}
	if status["repeat"] == "1" {
		return RepeatOn, nil
	}
	return RepeatOff, nil
}

// SetRepeat maps the remote's repeat state onto MPD's repeat and single
// flags
func (me *Player) SetRepeat(state int) error {
	return me.withClient(func(c *mpd.Client) error {
		if err := c.Repeat(state != RepeatOff); err != nil {
			return err
		}
		return c.Single(state == RepeatSingle)
	})
}

// ShuffleState reports whether MPD plays the queue in random order
func (me *Player) ShuffleState() (int, error) {
	status, err := me.Status()
	if err != nil {
		return ShuffleOff, err
	}
	if status["random"] == "1" {
		return ShuffleOn, nil
	}
	return ShuffleOff, nil
}

// SetShuffle sets MPD's random flag
func (me *Player) SetShuffle(state int) error {
	return me.withClient(func(c *mpd.Client) error { return c.Random(state != ShuffleOff) })
}

// ClearCurrent empties the play queue
func (me *Player) ClearCurrent() error {
	return me.withClient(func(c *mpd.Client) error { return c.Clear() })
}

// AddToCurrent appends a URI to the play queue
func (me *Player) AddToCurrent(uri string) error {
	return me.withClient(func(c *mpd.Client) error { return c.Add(uri) })
}

// LoadPlaylist appends a stored playlist to the play queue
func (me *Player) LoadPlaylist(name string) error {
	return me.withClient(func(c *mpd.Client) error { return c.PlaylistLoad(name, -1, -1) })
}

// CreatePlaylist stores the queue under the name and empties it, leaving a
// fresh playlist. The library rebuild is driven by the stored_playlist idle
// event.
func (me *Player) CreatePlaylist(name string) error {
	return me.withClient(func(c *mpd.Client) error {
		if err := c.PlaylistSave(name); err != nil {
			return err
		}
		return c.PlaylistClear(name)
	})
}

// DeletePlaylist removes a stored playlist
func (me *Player) DeletePlaylist(name string) error {
	return me.withClient(func(c *mpd.Client) error { return c.PlaylistRemove(name) })
}

// AddToPlaylist appends a URI to a stored playlist
func (me *Player) AddToPlaylist(name, uri string) error {
	return me.withClient(func(c *mpd.Client) error { return c.PlaylistAdd(name, uri) })
}
