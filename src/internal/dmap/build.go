package dmap

import (
	"math"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// sentinel errors for message construction and parsing
var (
	// ErrUnknownTag is returned when a message refers to a content code
	// that is not in the registry
	ErrUnknownTag = errors.New("unknown content code")
	// ErrInvalidValue is returned when a payload does not fit the kind of
	// its content code
	ErrInvalidValue = errors.New("invalid value")
)

// P is one element of a message under construction: a content code and a
// plain value. Values of type func() any are evaluated when the message is
// built, which lets static response trees carry fields such as the current
// time.
type P struct {
	Tag   string
	Value any
}

// Build assembles a node from a content code and a plain value. Container
// codes take []P (or prebuilt []Node); scalar codes coerce Go values to the
// registered payload kind, with range checks.
func Build(tag string, value any) (node Node, err error) {
	info, ok := Tags[tag]
	if !ok {
		err = errors.Wrapf(ErrUnknownTag, "%q", tag)
		return
	}
	if fn, ok := value.(func() any); ok {
		value = fn()
	}
	v, err := coerce(info.Kind, value)
	if err != nil {
		err = errors.Wrapf(err, "node %s", tag)
		return
	}
	return Node{Tag: tag, Value: v}, nil
}

// MustBuild is Build for statically known trees. It panics on error and is
// only meant for response shapes that cannot fail at runtime.
func MustBuild(tag string, value any) Node {
	node, err := Build(tag, value)
	if err != nil {
		panic(err)
	}
	return node
}

func coerce(kind Kind, value any) (Value, error) {
	if v, ok := value.(Value); ok && v.Kind() == kind {
		return v, nil
	}
	switch kind {
	case KindUByte:
		n, err := coerceInt(value, 0, math.MaxUint8)
		return UByte(n), err
	case KindByte:
		n, err := coerceInt(value, math.MinInt8, math.MaxInt8)
		return Byte(n), err
	case KindUShort:
		n, err := coerceInt(value, 0, math.MaxUint16)
		return UShort(n), err
	case KindShort:
		n, err := coerceInt(value, math.MinInt16, math.MaxInt16)
		return Short(n), err
	case KindUInt:
		n, err := coerceInt(value, 0, math.MaxUint32)
		return UInt(n), err
	case KindInt:
		n, err := coerceInt(value, math.MinInt32, math.MaxInt32)
		return Int(n), err
	case KindULong:
		return coerceULong(value)
	case KindLong:
		n, err := coerceInt(value, math.MinInt64, math.MaxInt64)
		return Long(n), err
	case KindMultiInt:
		return coerceMultiInt(value)
	case KindMultiUInt:
		return coerceMultiUInt(value)
	case KindDatetime:
		return coerceDatetime(value)
	case KindVersion:
		return coerceVersion(value)
	case KindString:
		switch s := value.(type) {
		case string:
			return String(s), nil
		case []byte:
			return String(s), nil
		}
	case KindBinary:
		switch b := value.(type) {
		case []byte:
			return Binary(b), nil
		case string:
			return Binary(b), nil
		}
	case KindContainer:
		return coerceContainer(value)
	}
	return nil, errors.Wrapf(ErrInvalidValue, "cannot carry %T", value)
}

// coerceInt narrows value to an integer within [min, max]. Strings are
// parsed, booleans count as 0 or 1.
func coerceInt(value any, min, max int64) (int64, error) {
	var n int64
	switch v := value.(type) {
	case int:
		n = int64(v)
	case int8:
		n = int64(v)
	case int16:
		n = int64(v)
	case int32:
		n = int64(v)
	case int64:
		n = v
	case uint:
		if uint64(v) > math.MaxInt64 {
			return 0, errors.Wrapf(ErrInvalidValue, "%d out of range", v)
		}
		n = int64(v)
	case uint8:
		n = int64(v)
	case uint16:
		n = int64(v)
	case uint32:
		n = int64(v)
	case uint64:
		if v > math.MaxInt64 {
			return 0, errors.Wrapf(ErrInvalidValue, "%d out of range", v)
		}
		n = int64(v)
	case bool:
		if v {
			n = 1
		}
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, errors.Wrapf(ErrInvalidValue, "%q is not an integer", v)
		}
		n = parsed
	default:
		return 0, errors.Wrapf(ErrInvalidValue, "cannot carry %T", value)
	}
	if n < min || n > max {
		return 0, errors.Wrapf(ErrInvalidValue, "%d out of range [%d,%d]", n, min, max)
	}
	return n, nil
}

func coerceULong(value any) (Value, error) {
	switch v := value.(type) {
	case uint64:
		return ULong(v), nil
	case uint:
		return ULong(v), nil
	}
	n, err := coerceInt(value, 0, math.MaxInt64)
	return ULong(n), err
}

func coerceMultiInt(value any) (Value, error) {
	switch vs := value.(type) {
	case []int32:
		return MultiInt(vs), nil
	case []int:
		out := make(MultiInt, len(vs))
		for i, n := range vs {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return nil, errors.Wrapf(ErrInvalidValue, "%d out of range", n)
			}
			out[i] = int32(n)
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrInvalidValue, "cannot carry %T", value)
}

func coerceMultiUInt(value any) (Value, error) {
	switch vs := value.(type) {
	case []uint32:
		return MultiUInt(vs), nil
	case []uint:
		out := make(MultiUInt, len(vs))
		for i, n := range vs {
			if uint64(n) > math.MaxUint32 {
				return nil, errors.Wrapf(ErrInvalidValue, "%d out of range", n)
			}
			out[i] = uint32(n)
		}
		return out, nil
	case []int:
		out := make(MultiUInt, len(vs))
		for i, n := range vs {
			if n < 0 || int64(n) > math.MaxUint32 {
				return nil, errors.Wrapf(ErrInvalidValue, "%d out of range", n)
			}
			out[i] = uint32(n)
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrInvalidValue, "cannot carry %T", value)
}

func coerceDatetime(value any) (Value, error) {
	switch v := value.(type) {
	case nil:
		return Datetime{Null: true}, nil
	case time.Time:
		return DatetimeOf(v), nil
	case Datetime:
		return v, nil
	}
	return nil, errors.Wrapf(ErrInvalidValue, "cannot carry %T", value)
}

func coerceVersion(value any) (Value, error) {
	switch v := value.(type) {
	case Version:
		return v, nil
	case [4]uint8:
		return Version(v), nil
	case [4]int:
		out := Version{}
		for i, n := range v {
			if n < 0 || n > math.MaxUint8 {
				return nil, errors.Wrapf(ErrInvalidValue, "%d out of range", n)
			}
			out[i] = uint8(n)
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrInvalidValue, "cannot carry %T", value)
}

// coerceContainer builds the child list of a container. Plain values on a
// container code are kept as a text payload, which some remotes rely on.
func coerceContainer(value any) (Value, error) {
	switch v := value.(type) {
	case []P:
		children := make([]Node, 0, len(v))
		for _, p := range v {
			child, err := Build(p.Tag, p.Value)
			if err != nil {
				return nil, err
			}
			children = append(children, child)
		}
		return Container{Children: children}, nil
	case []Node:
		return Container{Children: v}, nil
	case Node:
		return Container{Children: []Node{v}}, nil
	case Container:
		return v, nil
	case string:
		return Container{Text: v, IsText: true}, nil
	case []byte:
		return Container{Text: string(v), IsText: true}, nil
	}
	return nil, errors.Wrapf(ErrInvalidValue, "cannot carry %T", value)
}
