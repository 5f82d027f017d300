package daap

import (
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"gitlab.com/euphonyd/euphony/src/internal/dmap"
)

// serverInfo announces the capabilities and protocol versions of an iTunes
// music share. Remotes refuse servers that do not look like iTunes, so the
// tree mirrors what iTunes 9 sends.
func (me *Handler) serverInfo(w http.ResponseWriter, r *http.Request) {
	me.writeNode(w, "msrv", []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "mpro", Value: dmapProtocolVersion},
		{Tag: "apro", Value: daapProtocolVersion},
		{Tag: "aeSV", Value: itunesSharingVersion},
		{Tag: "aeFP", Value: true},
		{Tag: "ated", Value: 3},
		{Tag: "msed", Value: 1},
		{Tag: "msml", Value: []dmap.P{
			{Tag: "msma", Value: uint64(71359108752128)},
			{Tag: "msma", Value: uint64(1102738509824)},
			{Tag: "msma", Value: uint64(8799319904256)},
		}},
		{Tag: "ceWM", Value: ""},
		{Tag: "ceVO", Value: false},
		{Tag: "minm", Value: me.serverName},
		{Tag: "mslr", Value: true},
		{Tag: "mstm", Value: dacpTimeout},
		{Tag: "msal", Value: true},
		{Tag: "msas", Value: 3},
		{Tag: "msup", Value: true},
		{Tag: "mspi", Value: true},
		{Tag: "msex", Value: true},
		{Tag: "msbr", Value: true},
		{Tag: "msqy", Value: true},
		{Tag: "msix", Value: true},
		{Tag: "msrs", Value: true},
		{Tag: "msdc", Value: true},
		{Tag: "mstc", Value: func() any { return time.Now() }},
		{Tag: "msto", Value: func() any {
			_, offset := time.Now().Zone()
			return offset
		}},
	})
}

// login checks the remote's pairing guid against the persisted pairings and
// hands out a session id. Unknown guids are rejected with 503, which makes
// the remote forget the pairing.
func (me *Handler) login(w http.ResponseWriter, r *http.Request) {
	raw := strings.TrimPrefix(r.URL.Query().Get("pairing-guid"), "0x")
	guid, err := strconv.ParseUint(raw, 16, 64)
	if err != nil {
		http.Error(w, "malformed pairing-guid", http.StatusBadRequest)
		return
	}
	ok, err := me.db.HasPairing(guid)
	if err != nil {
		me.fail(w, r, err)
		return
	}
	if !ok {
		log.WithField("guid", raw).Warn("login from unpaired remote")
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	me.writeNode(w, "mlog", []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "mlid", Value: sessionID()},
	})
}

func sessionID() int {
	return int(rand.Int31())
}

// update long-polls until the library or player state has moved past the
// remote's revision
func (me *Handler) update(w http.ResponseWriter, r *http.Request) {
	revno := intArg(r, "revision-number", 1)
	if err := me.player.AwaitUpdate(r.Context(), revno); err != nil {
		me.fail(w, r, err)
		return
	}
	me.writeNode(w, "mupd", []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "musr", Value: me.player.Revision() + 1},
	})
}

// controlInterface announces the single controllable player
func (me *Handler) controlInterface(w http.ResponseWriter, r *http.Request) {
	me.writeNode(w, "caci", []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "muty", Value: 0},
		{Tag: "mtco", Value: 1},
		{Tag: "mrco", Value: 1},
		{Tag: "mlcl", Value: []dmap.P{
			{Tag: "mlit", Value: []dmap.P{
				{Tag: "miid", Value: 1},
				{Tag: "cmik", Value: true},
				{Tag: "cmsp", Value: true},
				{Tag: "cmsv", Value: true},
				{Tag: "cass", Value: true},
				{Tag: "casu", Value: true},
				{Tag: "ceSG", Value: true},
			}},
		}},
	})
}

// getSpeakers lists MPD's single output as the one active speaker
func (me *Handler) getSpeakers(w http.ResponseWriter, r *http.Request) {
	me.writeNode(w, "casp", []dmap.P{
		{Tag: "mstt", Value: http.StatusOK},
		{Tag: "mdcl", Value: []dmap.P{
			{Tag: "caia", Value: 1},
			{Tag: "minm", Value: "MPD Output Device"},
			{Tag: "msma", Value: uint64(0)},
		}},
	})
}
