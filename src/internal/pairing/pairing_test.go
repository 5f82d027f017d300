package pairing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.com/euphonyd/euphony/src/internal/dmap"
)

func TestGenerateCode(t *testing.T) {
	code := GenerateCode("3861", "D06F5B3577C7A001")
	assert.Len(t, code, 32)
	assert.Equal(t, "0BD8D9D49E66BB17F8BD0367A4E42058", code)
}

func TestGenerateCodeShortPairID(t *testing.T) {
	// pair ids shorter than 16 characters are zero padded
	assert.Len(t, GenerateCode("0000", "ABCD"), 32)
	assert.NotEqual(t, GenerateCode("0000", "ABCD"), GenerateCode("0001", "ABCD"))
}

func TestPair(t *testing.T) {
	answer := dmap.MustBuild("cmpa", []dmap.P{
		{Tag: "cmpg", Value: uint64(0x1122334455667788)},
		{Tag: "cmnm", Value: "devicename"},
		{Tag: "cmty", Value: "iPod"},
	})

	var gotCode, gotService string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/pair", r.URL.Path)
		gotCode = r.URL.Query().Get("pairingcode")
		gotService = r.URL.Query().Get("servicename")
		w.Write(answer.Encode())
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	port, _ := strconv.Atoi(u.Port())
	remote := Remote{Name: "couch", Addr: u.Hostname(), Port: port, PairID: "D06F5B3577C7A001"}

	guid, err := remote.Pair(context.Background(), "3861", "5B03A9CF4A983E39")
	require.NoError(t, err)
	assert.Equal(t, uint64(0x1122334455667788), guid)
	assert.Equal(t, "0BD8D9D49E66BB17F8BD0367A4E42058", gotCode)
	assert.Equal(t, "5B03A9CF4A983E39", gotService)
}

func TestPairRejectsBadAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a dmap node"))
	}))
	defer srv.Close()

	u, _ := url.Parse(srv.URL)
	port, _ := strconv.Atoi(u.Port())
	remote := Remote{Addr: u.Hostname(), Port: port, PairID: "D06F5B3577C7A001"}

	_, err := remote.Pair(context.Background(), "0000", "svc")
	assert.ErrorIs(t, err, ErrPairingFailed)
}

func TestListener(t *testing.T) {
	listener := NewListener()
	listener.Add("svc1", Remote{Name: "couch"})
	listener.Add("svc2", Remote{Name: "kitchen"})

	remote, ok := listener.Get("svc1")
	require.True(t, ok)
	assert.Equal(t, "couch", remote.Name)
	assert.Equal(t, []string{"svc1", "svc2"}, listener.Services())

	listener.Remove("svc1")
	_, ok = listener.Get("svc1")
	assert.False(t, ok)
	// removal of an unknown service is a no-op
	listener.Remove("svc1")
}
