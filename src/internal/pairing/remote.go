package pairing

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/pkg/errors"
	l "github.com/sirupsen/logrus"

	"gitlab.com/euphonyd/euphony/src/internal/dmap"
)

var log *l.Entry = l.WithFields(l.Fields{"srv": "pairing"})

// ErrPairingFailed covers every way the handshake with a remote can go
// wrong
var ErrPairingFailed = errors.New("pairing failed")

var pairClient = &http.Client{Timeout: 5 * time.Second}

// Remote is one iTunes remote announcing itself on the network
type Remote struct {
	// Name is the device name from the DvNm TXT record
	Name string
	Addr string
	Port int
	// PairID is the Pair TXT record the pairing code is derived from
	PairID string
}

func (me Remote) String() string {
	return fmt.Sprintf("%s @ %s:%d", me.Name, me.Addr, me.Port)
}

// Pair performs the handshake: it derives the pairing code from the
// passcode the user typed and calls the remote's pairing endpoint. On
// success it returns the GUID the remote will present on future logins.
func (me Remote) Pair(ctx context.Context, passcode, serviceID string) (uint64, error) {
	code := GenerateCode(passcode, me.PairID)
	log.WithFields(l.Fields{"remote": me.String(), "code": code}).Info("pairing")

	pairURL := fmt.Sprintf("http://%s/pair?pairingcode=%s&servicename=%s",
		net.JoinHostPort(me.Addr, strconv.Itoa(me.Port)),
		url.QueryEscape(code), url.QueryEscape(serviceID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pairURL, nil)
	if err != nil {
		return 0, errors.Wrap(ErrPairingFailed, err.Error())
	}
	resp, err := pairClient.Do(req)
	if err != nil {
		return 0, errors.Wrap(ErrPairingFailed, err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, errors.Wrapf(ErrPairingFailed, "remote answered %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, errors.Wrap(ErrPairingFailed, err.Error())
	}

	node, err := dmap.Decode(body)
	if err != nil {
		return 0, errors.Wrapf(ErrPairingFailed, "bad pairing answer: %v", err)
	}
	guidNode, ok := node.Child("cmpg")
	if !ok {
		return 0, errors.Wrap(ErrPairingFailed, "pairing answer carries no GUID")
	}
	guid, ok := dmap.Uint(guidNode.Value)
	if !ok {
		return 0, errors.Wrap(ErrPairingFailed, "pairing GUID is not numeric")
	}
	log.WithField("guid", fmt.Sprintf("%016X", guid)).Info("pairing successful")
	return guid, nil
}

// Listener tracks the remotes currently announced over mDNS, keyed by
// service instance name
type Listener struct {
	mu      sync.Mutex
	remotes map[string]Remote
}

// NewListener returns an empty listener
func NewListener() *Listener {
	return &Listener{remotes: make(map[string]Remote)}
}

// Add records a remote under its service name
func (me *Listener) Add(service string, remote Remote) {
	me.mu.Lock()
	_, known := me.remotes[service]
	me.remotes[service] = remote
	me.mu.Unlock()
	if !known {
		log.WithField("remote", remote.String()).Info("new remote found")
	}
}

// Remove forgets a remote. Removing an unknown service is a no-op.
func (me *Listener) Remove(service string) {
	me.mu.Lock()
	delete(me.remotes, service)
	me.mu.Unlock()
}

// Get returns the remote registered under the service name
func (me *Listener) Get(service string) (Remote, bool) {
	me.mu.Lock()
	defer me.mu.Unlock()
	remote, ok := me.remotes[service]
	return remote, ok
}

// Services returns the known service names, sorted
func (me *Listener) Services() []string {
	me.mu.Lock()
	defer me.mu.Unlock()
	names := make([]string, 0, len(me.remotes))
	for name := range me.remotes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
