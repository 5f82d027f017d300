// Package server wires the pieces together: configuration, persistence, the
// MPD bridge, mDNS discovery and the HTTP front ends, plus the signal
// handling around them.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pkg/errors"
	l "github.com/sirupsen/logrus"

	"gitlab.com/euphonyd/euphony/src/internal/artwork"
	"gitlab.com/euphonyd/euphony/src/internal/config"
	"gitlab.com/euphonyd/euphony/src/internal/daap"
	"gitlab.com/euphonyd/euphony/src/internal/discovery"
	"gitlab.com/euphonyd/euphony/src/internal/mpd"
	"gitlab.com/euphonyd/euphony/src/internal/pairing"
	"gitlab.com/euphonyd/euphony/src/internal/store"
	"gitlab.com/euphonyd/euphony/src/internal/web"
)

var log *l.Entry = l.WithFields(l.Fields{"srv": "server"})

const shutdownTimeout = 5 * time.Second

// Run implements the main control loop of the server: it loads the
// configuration, brings up the MPD bridge, announces the share over mDNS and
// serves the DACP and web front ends until a termination signal arrives.
// version is the euphony version which is used in log output.
func Run(version, cfgPath string) (err error) {
	var cfg config.Cfg
	if cfg, err = config.Load(cfgPath); err != nil {
		err = errors.Wrap(err, "cannot run euphony")
		return
	}
	if err = cfg.Validate(); err != nil {
		err = errors.Wrap(err, "cannot run euphony")
		return
	}

	// set up logging: no log entries possible before this statement!
	if err = setupLogging(cfg.Logging); err != nil {
		err = errors.Wrap(err, "cannot run euphony")
		return
	}

	log.Infof("euphony %s starting as '%s' (id %s)", version, cfg.Server.Name, cfg.Server.ID)

	db, err := store.Open(cfg.DB.Path)
	if err != nil {
		err = errors.Wrap(err, "cannot run euphony")
		return
	}
	defer db.Close()
	cache := artwork.NewCache(db)

	player := mpd.NewPlayer(mpd.Config{
		Host:     cfg.MPD.Host,
		Port:     cfg.MPD.Port,
		Password: cfg.MPD.Password,
	})
	if err = player.Start(); err != nil {
		err = errors.Wrap(err, "cannot run euphony")
		return
	}
	defer player.Stop()

	advertiser, err := discovery.Advertise(cfg.Server.Name, cfg.Server.ID)
	if err != nil {
		err = errors.Wrap(err, "cannot run euphony")
		return
	}
	defer advertiser.Shutdown()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remotes := pairing.NewListener()
	go discovery.Browse(ctx, remotes)

	r := chi.NewRouter()
	r.Mount("/", daap.New(player, db, cache, cfg.Server.Name).Routes())
	r.Mount("/web", web.New(player, db, cache, remotes, cfg.Server.Name, cfg.Server.ID).Routes())

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: r,
	}

	failed := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			failed <- err
		}
	}()

	// preparation to receive OS signals (e.g. from 'systemctl stop ...')
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-interrupt:
		log.Infof("signal received: %v", sig)
	case err = <-failed:
		log.WithError(err).Error("http server failed")
	}

	log.Info("stopping ...")
	shutCtx, shutCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutCancel()
	if shutErr := srv.Shutdown(shutCtx); shutErr != nil {
		log.WithError(shutErr).Warn("http shutdown incomplete")
	}
	log.Info("stopped")
	return
}
