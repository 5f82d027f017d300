// Package dmap implements the tagged binary format spoken by iTunes remotes:
// four character content codes with a length-prefixed, big endian payload.
package dmap

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"
)

// Node is one tagged element of a message
type Node struct {
	Tag   string
	Value Value
}

// Encode serializes the node to its wire form
func (me Node) Encode() []byte {
	return me.appendTo(nil)
}

func (me Node) appendTo(dst []byte) []byte {
	dst = append(dst, me.Tag...)
	lenPos := len(dst)
	dst = append(dst, 0, 0, 0, 0)
	dst = me.Value.appendTo(dst)
	binary.BigEndian.PutUint32(dst[lenPos:], uint32(len(dst)-lenPos-4))
	return dst
}

// Decode parses one node from the start of data. Trailing bytes after the
// node are ignored.
func Decode(data []byte) (Node, error) {
	node, _, err := decodeNode(data)
	return node, err
}

func decodeNode(data []byte) (node Node, n int, err error) {
	if len(data) < 8 {
		err = errors.Wrapf(ErrInvalidValue, "node header needs 8 bytes, have %d", len(data))
		return
	}
	tag := string(data[:4])
	size := int(binary.BigEndian.Uint32(data[4:8]))
	if len(data) < 8+size {
		err = errors.Wrapf(ErrInvalidValue, "node %s: payload truncated (%d of %d bytes)", tag, len(data)-8, size)
		return
	}
	kind := KindBinary
	if info, ok := Tags[tag]; ok {
		kind = info.Kind
	}
	value, err := decodeValue(kind, data[8:8+size])
	if err != nil {
		err = errors.Wrapf(err, "node %s", tag)
		return
	}
	return Node{Tag: tag, Value: value}, 8 + size, nil
}

// Equal reports whether both nodes have the same wire form
func (me Node) Equal(other Node) bool {
	return bytes.Equal(me.Encode(), other.Encode())
}

// Child returns the first direct child with the given tag. It returns false
// if the node is not a container of nodes or no child matches.
func (me Node) Child(tag string) (Node, bool) {
	c, ok := me.Value.(Container)
	if !ok || c.IsText {
		return Node{}, false
	}
	for _, child := range c.Children {
		if child.Tag == tag {
			return child, true
		}
	}
	return Node{}, false
}

// Children returns the direct child nodes, or nil for leaf nodes
func (me Node) Children() []Node {
	c, ok := me.Value.(Container)
	if !ok || c.IsText {
		return nil
	}
	return c.Children
}

// Dump renders the node tree in a readable form for debug logging
func (me Node) Dump() string {
	var b strings.Builder
	me.dump(&b, 0)
	return b.String()
}

func (me Node) dump(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("    ", depth))
	b.WriteString(me.Tag)
	if info, ok := Tags[me.Tag]; ok {
		b.WriteString("  [" + info.Name + "]")
	}
	if c, ok := me.Value.(Container); ok && !c.IsText {
		b.WriteString("\n")
		for _, child := range c.Children {
			child.dump(b, depth+1)
		}
		return
	}
	b.WriteString(" = " + me.Value.format() + "\n")
}
