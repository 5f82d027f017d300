package mpd

import (
	"context"
	"time"

	"github.com/fhs/gompd/v2/mpd"
)

const (
	watchBackoffMin = time.Second
	watchBackoffMax = 30 * time.Second
)

// watch keeps one idle connection subscribed to the given subsystems and
// calls handler on every change event. A broken connection is recreated
// with exponential backoff; while it is down the handler simply does not
// fire.
func (me *Player) watch(ctx context.Context, subsystems []string, handler func()) {
	backoff := watchBackoffMin
	for ctx.Err() == nil {
		watcher, err := mpd.NewWatcher("tcp", me.addr, me.password, subsystems...)
		if err != nil {
			log.WithError(err).WithField("subsystems", subsystems).
				Warn("cannot open idle connection")
			if !sleep(ctx, backoff) {
				return
			}
			backoff = min(backoff*2, watchBackoffMax)
			continue
		}
		backoff = watchBackoffMin
		me.watchEvents(ctx, watcher, handler)
		watcher.Close()
	}
}

func (me *Player) watchEvents(ctx context.Context, watcher *mpd.Watcher, handler func()) {
	for {
		select {
		case <-ctx.Done():
			return
		case subsystem := <-watcher.Event:
			log.WithField("subsystem", subsystem).Debug("idle event")
			handler()
		case err := <-watcher.Error:
			log.WithError(err).Warn("idle connection lost")
			return
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
