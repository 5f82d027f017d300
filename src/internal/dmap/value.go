package dmap

import (
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// datetimeNull is the on-wire marker for an unset timestamp
const datetimeNull uint32 = 0xFFFF9D90

// Value is the payload of a node. Each implementation corresponds to one
// payload kind.
type Value interface {
	Kind() Kind
	appendTo(dst []byte) []byte
	format() string
}

type (
	// UByte is an unsigned 8 bit payload
	UByte uint8
	// Byte is a signed 8 bit payload
	Byte int8
	// UShort is an unsigned 16 bit payload
	UShort uint16
	// Short is a signed 16 bit payload
	Short int16
	// UInt is an unsigned 32 bit payload
	UInt uint32
	// Int is a signed 32 bit payload
	Int int32
	// ULong is an unsigned 64 bit payload
	ULong uint64
	// Long is a signed 64 bit payload
	Long int64
	// MultiInt is a sequence of signed 32 bit integers
	MultiInt []int32
	// MultiUInt is a sequence of unsigned 32 bit integers
	MultiUInt []uint32
	// String is a UTF-8 text payload
	String string
	// Binary is a raw byte payload
	Binary []byte
)

// Datetime is a timestamp payload with seconds precision. Null timestamps
// are carried with a dedicated marker value.
type Datetime struct {
	Secs int32
	Null bool
}

// DatetimeOf wraps a time as a datetime payload
func DatetimeOf(t time.Time) Datetime {
	return Datetime{Secs: int32(t.Unix())}
}

// Time returns the timestamp as a time.Time. It must not be called on a
// null datetime.
func (me Datetime) Time() time.Time {
	return time.Unix(int64(me.Secs), 0)
}

// Version is a protocol version payload. The components are ordered major,
// minor, patch, revision; the wire format swaps the bytes of each half word.
type Version [4]uint8

// Container holds either a list of child nodes or, when the payload does not
// parse as nodes, the raw payload as text
type Container struct {
	Children []Node
	Text     string
	IsText   bool
}

func (me UByte) Kind() Kind     { return KindUByte }
func (me Byte) Kind() Kind      { return KindByte }
func (me UShort) Kind() Kind    { return KindUShort }
func (me Short) Kind() Kind     { return KindShort }
func (me UInt) Kind() Kind      { return KindUInt }
func (me Int) Kind() Kind       { return KindInt }
func (me ULong) Kind() Kind     { return KindULong }
func (me Long) Kind() Kind      { return KindLong }
func (me MultiInt) Kind() Kind  { return KindMultiInt }
func (me MultiUInt) Kind() Kind { return KindMultiUInt }
func (me Datetime) Kind() Kind  { return KindDatetime }
func (me Version) Kind() Kind   { return KindVersion }
func (me String) Kind() Kind    { return KindString }
func (me Binary) Kind() Kind    { return KindBinary }
func (me Container) Kind() Kind { return KindContainer }

func (me UByte) appendTo(dst []byte) []byte { return append(dst, byte(me)) }
func (me Byte) appendTo(dst []byte) []byte  { return append(dst, byte(me)) }

func (me UShort) appendTo(dst []byte) []byte {
	return binary.BigEndian.AppendUint16(dst, uint16(me))
}

func (me Short) appendTo(dst []byte) []byte {
	return binary.BigEndian.AppendUint16(dst, uint16(me))
}

func (me UInt) appendTo(dst []byte) []byte {
	return binary.BigEndian.AppendUint32(dst, uint32(me))
}

func (me Int) appendTo(dst []byte) []byte {
	return binary.BigEndian.AppendUint32(dst, uint32(me))
}

func (me ULong) appendTo(dst []byte) []byte {
	return binary.BigEndian.AppendUint64(dst, uint64(me))
}

func (me Long) appendTo(dst []byte) []byte {
	return binary.BigEndian.AppendUint64(dst, uint64(me))
}

func (me MultiInt) appendTo(dst []byte) []byte {
	for _, n := range me {
		dst = binary.BigEndian.AppendUint32(dst, uint32(n))
	}
	return dst
}

func (me MultiUInt) appendTo(dst []byte) []byte {
	for _, n := range me {
		dst = binary.BigEndian.AppendUint32(dst, n)
	}
	return dst
}

func (me Datetime) appendTo(dst []byte) []byte {
	if me.Null {
		return binary.BigEndian.AppendUint32(dst, datetimeNull)
	}
	return binary.BigEndian.AppendUint32(dst, uint32(me.Secs))
}

func (me Version) appendTo(dst []byte) []byte {
	return append(dst, me[1], me[0], me[3], me[2])
}

func (me String) appendTo(dst []byte) []byte { return append(dst, me...) }
func (me Binary) appendTo(dst []byte) []byte { return append(dst, me...) }

func (me Container) appendTo(dst []byte) []byte {
	if me.IsText {
		return append(dst, me.Text...)
	}
	for _, child := range me.Children {
		dst = child.appendTo(dst)
	}
	return dst
}

func (me UByte) format() string  { return fmt.Sprintf("%d", uint8(me)) }
func (me Byte) format() string   { return fmt.Sprintf("%d", int8(me)) }
func (me UShort) format() string { return fmt.Sprintf("%d", uint16(me)) }
func (me Short) format() string  { return fmt.Sprintf("%d", int16(me)) }
func (me UInt) format() string   { return fmt.Sprintf("%d", uint32(me)) }
func (me Int) format() string    { return fmt.Sprintf("%d", int32(me)) }
func (me ULong) format() string  { return fmt.Sprintf("%d", uint64(me)) }
func (me Long) format() string   { return fmt.Sprintf("%d", int64(me)) }

func (me MultiInt) format() string {
	parts := make([]string, len(me))
	for i, n := range me {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (me MultiUInt) format() string {
	parts := make([]string, len(me))
	for i, n := range me {
		parts[i] = fmt.Sprintf("%d", n)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func (me Datetime) format() string {
	if me.Null {
		return "<null>"
	}
	return me.Time().UTC().Format(time.RFC3339)
}

func (me Version) format() string {
	return fmt.Sprintf("%d.%d.%d.%d", me[0], me[1], me[2], me[3])
}

func (me String) format() string { return fmt.Sprintf("%q", string(me)) }
func (me Binary) format() string { return fmt.Sprintf("0x%X", []byte(me)) }

func (me Container) format() string {
	if me.IsText {
		return fmt.Sprintf("%q", me.Text)
	}
	return fmt.Sprintf("<%d children>", len(me.Children))
}

// Uint returns the payload as an unsigned integer for the numeric kinds
func Uint(v Value) (uint64, bool) {
	switch n := v.(type) {
	case UByte:
		return uint64(n), true
	case Byte:
		return uint64(n), true
	case UShort:
		return uint64(n), true
	case Short:
		return uint64(n), true
	case UInt:
		return uint64(n), true
	case Int:
		return uint64(n), true
	case ULong:
		return uint64(n), true
	case Long:
		return uint64(n), true
	}
	return 0, false
}

func decodeValue(kind Kind, body []byte) (Value, error) {
	switch kind {
	case KindUByte:
		if len(body) != 1 {
			return nil, errors.Wrapf(ErrInvalidValue, "ubyte payload has %d bytes", len(body))
		}
		return UByte(body[0]), nil
	case KindByte:
		if len(body) != 1 {
			return nil, errors.Wrapf(ErrInvalidValue, "byte payload has %d bytes", len(body))
		}
		return Byte(body[0]), nil
	case KindUShort:
		if len(body) != 2 {
			return nil, errors.Wrapf(ErrInvalidValue, "ushort payload has %d bytes", len(body))
		}
		return UShort(binary.BigEndian.Uint16(body)), nil
	case KindShort:
		if len(body) != 2 {
			return nil, errors.Wrapf(ErrInvalidValue, "short payload has %d bytes", len(body))
		}
		return Short(binary.BigEndian.Uint16(body)), nil
	case KindUInt:
		if len(body) != 4 {
			return nil, errors.Wrapf(ErrInvalidValue, "uint payload has %d bytes", len(body))
		}
		return UInt(binary.BigEndian.Uint32(body)), nil
	case KindInt:
		if len(body) != 4 {
			return nil, errors.Wrapf(ErrInvalidValue, "int payload has %d bytes", len(body))
		}
		return Int(binary.BigEndian.Uint32(body)), nil
	case KindULong:
		if len(body) != 8 {
			return nil, errors.Wrapf(ErrInvalidValue, "ulong payload has %d bytes", len(body))
		}
		return ULong(binary.BigEndian.Uint64(body)), nil
	case KindLong:
		if len(body) != 8 {
			return nil, errors.Wrapf(ErrInvalidValue, "long payload has %d bytes", len(body))
		}
		return Long(binary.BigEndian.Uint64(body)), nil
	case KindMultiInt:
		if len(body)%4 != 0 {
			return nil, errors.Wrapf(ErrInvalidValue, "multi int payload has %d bytes", len(body))
		}
		vs := make(MultiInt, 0, len(body)/4)
		for i := 0; i < len(body); i += 4 {
			vs = append(vs, int32(binary.BigEndian.Uint32(body[i:])))
		}
		return vs, nil
	case KindMultiUInt:
		if len(body)%4 != 0 {
			return nil, errors.Wrapf(ErrInvalidValue, "multi uint payload has %d bytes", len(body))
		}
		vs := make(MultiUInt, 0, len(body)/4)
		for i := 0; i < len(body); i += 4 {
			vs = append(vs, binary.BigEndian.Uint32(body[i:]))
		}
		return vs, nil
	case KindDatetime:
		if len(body) != 4 {
			return nil, errors.Wrapf(ErrInvalidValue, "datetime payload has %d bytes", len(body))
		}
		raw := binary.BigEndian.Uint32(body)
		if raw == datetimeNull {
			return Datetime{Null: true}, nil
		}
		return Datetime{Secs: int32(raw)}, nil
	case KindVersion:
		if len(body) != 4 {
			return nil, errors.Wrapf(ErrInvalidValue, "version payload has %d bytes", len(body))
		}
		return Version{body[1], body[0], body[3], body[2]}, nil
	case KindString:
		return String(body), nil
	case KindBinary:
		return Binary(append([]byte(nil), body...)), nil
	case KindContainer:
		return decodeContainer(body), nil
	}
	return nil, errors.Wrapf(ErrInvalidValue, "unhandled kind %d", kind)
}

// decodeContainer parses the payload as a sequence of nodes. Some containers
// are sent with a plain payload; when the first structural failure occurs the
// whole payload is kept as text instead.
func decodeContainer(body []byte) Container {
	var children []Node
	rest := body
	for len(rest) > 0 {
		child, n, err := decodeNode(rest)
		if err != nil {
			return Container{Text: string(body), IsText: true}
		}
		children = append(children, child)
		rest = rest[n:]
	}
	return Container{Children: children}
}
