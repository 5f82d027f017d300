package dmap

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeScalars(t *testing.T) {
	node, err := Build("msup", 255)
	require.NoError(t, err)
	assert.Equal(t, []byte("msup\x00\x00\x00\x01\xff"), node.Encode())

	node, err = Build("mstt", 200)
	require.NoError(t, err)
	assert.Equal(t, []byte("mstt\x00\x00\x00\x04\x00\x00\x00\xc8"), node.Encode())

	node, err = Build("minm", "Euphony")
	require.NoError(t, err)
	assert.Equal(t, []byte("minm\x00\x00\x00\x07Euphony"), node.Encode())
}

func TestEncodeVersion(t *testing.T) {
	node, err := Build("aeSV", Version{3, 0, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []byte("aeSV\x00\x00\x00\x04\x00\x03\x00\x01"), node.Encode())

	node, err = Build("mpro", Version{2, 0, 6, 0})
	require.NoError(t, err)
	assert.Equal(t, []byte("mpro\x00\x00\x00\x04\x00\x02\x00\x06"), node.Encode())
}

func TestEncodeDatetime(t *testing.T) {
	node, err := Build("mstc", nil)
	require.NoError(t, err)
	assert.Equal(t, []byte("mstc\x00\x00\x00\x04\xff\xff\x9d\x90"), node.Encode())

	at := time.Unix(1262304000, 0) // 2010-01-01T00:00:00Z
	node, err = Build("mstc", at)
	require.NoError(t, err)
	assert.Equal(t, []byte("mstc\x00\x00\x00\x04\x4b\x3d\x3b\x00"), node.Encode())
}

func TestDecodeDatetimeNull(t *testing.T) {
	node, err := Decode([]byte("mstc\x00\x00\x00\x04\xff\xff\x9d\x90"))
	require.NoError(t, err)
	dt, ok := node.Value.(Datetime)
	require.True(t, ok)
	assert.True(t, dt.Null)
}

func TestBuildContainer(t *testing.T) {
	node, err := Build("mlog", []P{
		{"mstt", 200},
		{"mlid", 42},
	})
	require.NoError(t, err)
	assert.Equal(t,
		[]byte("mlog\x00\x00\x00\x18mstt\x00\x00\x00\x04\x00\x00\x00\xc8mlid\x00\x00\x00\x04\x00\x00\x00\x2a"),
		node.Encode())

	decoded, err := Decode(node.Encode())
	require.NoError(t, err)
	assert.True(t, node.Equal(decoded))

	lid, ok := decoded.Child("mlid")
	require.True(t, ok)
	n, ok := Uint(lid.Value)
	require.True(t, ok)
	assert.Equal(t, uint64(42), n)
}

// containers whose payload does not parse as nodes keep the raw text
func TestContainerTextFallback(t *testing.T) {
	node, err := Decode([]byte("mcon\x00\x00\x00\x05hello"))
	require.NoError(t, err)
	c, ok := node.Value.(Container)
	require.True(t, ok)
	assert.True(t, c.IsText)
	assert.Equal(t, "hello", c.Text)

	// and re-encode byte for byte
	assert.Equal(t, []byte("mcon\x00\x00\x00\x05hello"), node.Encode())
}

func TestBuildContainerWithPlainValue(t *testing.T) {
	node, err := Build("mcon", "payload")
	require.NoError(t, err)
	assert.Equal(t, []byte("mcon\x00\x00\x00\x07payload"), node.Encode())
}

func TestBuildLateValue(t *testing.T) {
	node, err := Build("msto", func() any { return -3600 })
	require.NoError(t, err)
	assert.Equal(t, []byte("msto\x00\x00\x00\x04\xff\xff\xf1\xf0"), node.Encode())
}

func TestBuildErrors(t *testing.T) {
	_, err := Build("zzzz", 1)
	assert.True(t, errors.Is(err, ErrUnknownTag))

	_, err = Build("msup", 256)
	assert.True(t, errors.Is(err, ErrInvalidValue))

	_, err = Build("mstt", "not a number")
	assert.True(t, errors.Is(err, ErrInvalidValue))

	_, err = Build("mlog", []P{{"zzzz", 1}})
	assert.True(t, errors.Is(err, ErrUnknownTag))
}

func TestBuildCoercesNumericStrings(t *testing.T) {
	node, err := Build("asyr", "2010")
	require.NoError(t, err)
	assert.Equal(t, UShort(2010), node.Value)
}

func TestMultiUInt(t *testing.T) {
	node, err := Build("canp", []uint32{1, 25, 50, 75})
	require.NoError(t, err)
	assert.Equal(t, 8+16, len(node.Encode()))

	decoded, err := Decode(node.Encode())
	require.NoError(t, err)
	assert.Equal(t, MultiUInt{1, 25, 50, 75}, decoded.Value)
}

func TestDecodeTruncated(t *testing.T) {
	_, err := Decode([]byte("mstt\x00\x00\x00\x04\x00"))
	assert.True(t, errors.Is(err, ErrInvalidValue))

	_, err = Decode([]byte("mst"))
	assert.True(t, errors.Is(err, ErrInvalidValue))
}

func TestUnknownTagDecodesAsBinary(t *testing.T) {
	node, err := Decode([]byte("zzzz\x00\x00\x00\x02\x01\x02"))
	require.NoError(t, err)
	assert.Equal(t, Binary{1, 2}, node.Value)
}

func TestTagForProperty(t *testing.T) {
	tag, info, ok := TagForProperty("dmap.itemname")
	require.True(t, ok)
	assert.Equal(t, "minm", tag)
	assert.Equal(t, KindString, info.Kind)

	_, _, ok = TagForProperty("dmap.nosuchproperty")
	assert.False(t, ok)

	prop, ok := PropertyForTag("caps")
	require.True(t, ok)
	assert.Equal(t, "dacp.playerstate", prop)
}
