// Package discovery announces the server as a pairable iTunes library over
// mDNS and keeps track of the remotes announcing themselves.
package discovery

import (
	"context"
	"net"
	"os"
	"strings"
	"time"

	"github.com/hashicorp/mdns"
	"github.com/pkg/errors"
	l "github.com/sirupsen/logrus"

	"gitlab.com/euphonyd/euphony/src/internal/pairing"
)

var log *l.Entry = l.WithFields(l.Fields{"srv": "discovery"})

const (
	serviceTouchAble   = "_touch-able._tcp"
	serviceTouchRemote = "_touch-remote._tcp"

	daapPort = 3689

	browseInterval = 10 * time.Second
	browseTimeout  = 3 * time.Second
	// sweeps a remote may stay unseen before it is dropped
	browseMisses = 3
)

// Advertiser announces the _touch-able service remotes browse for
type Advertiser struct {
	server *mdns.Server
}

// Advertise publishes the server on the local network. Name is the display
// name remotes show, id the stable hex identifier doubling as service
// instance and database id.
func Advertise(name, id string) (*Advertiser, error) {
	host, err := os.Hostname()
	if err != nil {
		return nil, errors.Wrap(err, "determine hostname")
	}
	txt := []string{
		"txtvers=1",
		"OSsi=0x122D9F",
		"CtlN=" + name,
		"Ver=131073",
		"DvSv=2306",
		"DvTy=iTunes",
		"DbId=" + id,
	}
	service, err := mdns.NewMDNSService(id, serviceTouchAble, "", "", daapPort, nil, txt)
	if err != nil {
		return nil, errors.Wrapf(err, "announce %s on %s", id, serviceTouchAble)
	}
	server, err := mdns.NewServer(&mdns.Config{Zone: service})
	if err != nil {
		return nil, errors.Wrap(err, "start mdns server")
	}
	log.WithFields(l.Fields{"name": name, "id": id, "host": host}).
		Info("server announced")
	return &Advertiser{server: server}, nil
}

// Shutdown withdraws the announcement
func (me *Advertiser) Shutdown() {
	if me.server != nil {
		_ = me.server.Shutdown()
	}
}

// Browse periodically queries for remotes and feeds the listener. Remotes
// that stop answering are removed after a few sweeps. Browse blocks until
// the context is done.
func Browse(ctx context.Context, listener *pairing.Listener) {
	missed := make(map[string]int)
	ticker := time.NewTicker(browseInterval)
	defer ticker.Stop()

	for {
		sweep(listener, missed)
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func sweep(listener *pairing.Listener, missed map[string]int) {
	entries := make(chan *mdns.ServiceEntry, 16)
	done := make(chan struct{})
	seen := make(map[string]struct{})

	go func() {
		defer close(done)
		for entry := range entries {
			service, remote, ok := remoteFromEntry(entry)
			if !ok {
				continue
			}
			seen[service] = struct{}{}
			listener.Add(service, remote)
		}
	}()

	err := mdns.Query(&mdns.QueryParam{
		Service:     serviceTouchRemote,
		Domain:      "local",
		Timeout:     browseTimeout,
		Entries:     entries,
		DisableIPv6: true,
	})
	close(entries)
	<-done
	if err != nil {
		log.WithError(err).Warn("remote browse failed")
		return
	}

	for _, service := range listener.Services() {
		if _, ok := seen[service]; ok {
			missed[service] = 0
			continue
		}
		missed[service]++
		if missed[service] >= browseMisses {
			listener.Remove(service)
			delete(missed, service)
			log.WithField("service", service).Info("remote disappeared")
		}
	}
}

// remoteFromEntry extracts the pairing relevant fields of a browse answer
func remoteFromEntry(entry *mdns.ServiceEntry) (string, pairing.Remote, bool) {
	var name, pairID string
	for _, field := range entry.InfoFields {
		if v, ok := strings.CutPrefix(field, "DvNm="); ok {
			name = v
		}
		if v, ok := strings.CutPrefix(field, "Pair="); ok {
			pairID = v
		}
	}
	var addr net.IP
	if entry.AddrV4 != nil {
		addr = entry.AddrV4
	} else {
		addr = entry.Addr
	}
	if pairID == "" || addr == nil {
		return "", pairing.Remote{}, false
	}
	service := strings.TrimSuffix(entry.Name, "."+serviceTouchRemote+".local.")
	return service, pairing.Remote{
		Name:   name,
		Addr:   addr.String(),
		Port:   entry.Port,
		PairID: pairID,
	}, true
}
