// Copyright (c) 2026 The Datalevin developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// Package codec encodes typed values into byte buffers whose lexicographic
// order matches the natural order of the values, so that encoded keys sort
// correctly in the engine's key space.
package codec

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/pkg/errors"
)

// Type selects the encoding of a value.
type Type int

const (
	// Data passes []byte (or string) through unmodified.
	Data Type = iota
	// String is UTF-8 text. Sorts byte-wise, which for ASCII matches
	// the string order.
	String
	// Long is an int64. The sign bit is flipped so negative values sort
	// before positive ones.
	Long
	// ULong is a uint64 in big-endian order.
	ULong
	// Double is a float64, bit-twiddled so the byte order follows the
	// numeric order (NaN sorts last).
	Double
	// Instant is a time.Time at millisecond precision.
	Instant
	// Boolean is a single byte, false before true.
	Boolean
)

func (t Type) String() string {
	switch t {
	case Data:
		return "data"
	case String:
		return "string"
	case Long:
		return "long"
	case ULong:
		return "ulong"
	case Double:
		return "double"
	case Instant:
		return "instant"
	case Boolean:
		return "boolean"
	}
	return "unknown"
}

// MeasureSize returns the encoded size of v under type t.
func MeasureSize(v any, t Type) int {
	switch t {
	case Data, String:
		switch x := v.(type) {
		case []byte:
			return len(x)
		case string:
			return len(x)
		}
		return 0
	case Long, ULong, Double, Instant:
		return 8
	case Boolean:
		return 1
	}
	return 0
}

// PutBuffer encodes v into buf under type t. The caller resets buf
// beforehand; on ErrBufferOverflow the buffer content is undefined.
func PutBuffer(buf *Buffer, v any, t Type) error {
	switch t {
	case Data:
		switch x := v.(type) {
		case []byte:
			return buf.Write(x)
		case string:
			return buf.Write([]byte(x))
		default:
			return errors.Errorf("codec: data value must be []byte or string, got %T", v)
		}
	case String:
		x, ok := v.(string)
		if !ok {
			return errors.Errorf("codec: string value expected, got %T", v)
		}
		return buf.Write([]byte(x))
	case Long:
		x, ok := toInt64(v)
		if !ok {
			return errors.Errorf("codec: long value expected, got %T", v)
		}
		var u [8]byte
		binary.BigEndian.PutUint64(u[:], uint64(x)^signMask)
		return buf.Write(u[:])
	case ULong:
		x, ok := v.(uint64)
		if !ok {
			return errors.Errorf("codec: ulong value expected, got %T", v)
		}
		var u [8]byte
		binary.BigEndian.PutUint64(u[:], x)
		return buf.Write(u[:])
	case Double:
		x, ok := v.(float64)
		if !ok {
			return errors.Errorf("codec: double value expected, got %T", v)
		}
		var u [8]byte
		binary.BigEndian.PutUint64(u[:], orderedFloatBits(x))
		return buf.Write(u[:])
	case Instant:
		x, ok := v.(time.Time)
		if !ok {
			return errors.Errorf("codec: instant value expected, got %T", v)
		}
		var u [8]byte
		binary.BigEndian.PutUint64(u[:], uint64(x.UnixMilli())^signMask)
		return buf.Write(u[:])
	case Boolean:
		x, ok := v.(bool)
		if !ok {
			return errors.Errorf("codec: boolean value expected, got %T", v)
		}
		if x {
			return buf.WriteByte(1)
		}
		return buf.WriteByte(0)
	}
	return errors.Errorf("codec: unknown value type %d", t)
}

// GetValue decodes bs under type t. The Data result aliases bs; callers
// retaining it past the producing read must copy.
func GetValue(bs []byte, t Type) (any, error) {
	switch t {
	case Data:
		return bs, nil
	case String:
		return string(bs), nil
	case Long:
		if len(bs) != 8 {
			return nil, errors.Errorf("codec: long value must be 8 bytes, got %d", len(bs))
		}
		return int64(binary.BigEndian.Uint64(bs) ^ signMask), nil
	case ULong:
		if len(bs) != 8 {
			return nil, errors.Errorf("codec: ulong value must be 8 bytes, got %d", len(bs))
		}
		return binary.BigEndian.Uint64(bs), nil
	case Double:
		if len(bs) != 8 {
			return nil, errors.Errorf("codec: double value must be 8 bytes, got %d", len(bs))
		}
		return floatFromOrderedBits(binary.BigEndian.Uint64(bs)), nil
	case Instant:
		if len(bs) != 8 {
			return nil, errors.Errorf("codec: instant value must be 8 bytes, got %d", len(bs))
		}
		ms := int64(binary.BigEndian.Uint64(bs) ^ signMask)
		return time.UnixMilli(ms).UTC(), nil
	case Boolean:
		if len(bs) != 1 {
			return nil, errors.Errorf("codec: boolean value must be 1 byte, got %d", len(bs))
		}
		return bs[0] != 0, nil
	}
	return nil, errors.Errorf("codec: unknown value type %d", t)
}

const signMask = uint64(1) << 63

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case uint32:
		return int64(x), true
	}
	return 0, false
}

// orderedFloatBits maps float bits so that unsigned comparison of the
// result matches numeric comparison of the floats.
func orderedFloatBits(f float64) uint64 {
	u := math.Float64bits(f)
	if u&signMask != 0 {
		return ^u
	}
	return u | signMask
}

func floatFromOrderedBits(u uint64) float64 {
	if u&signMask != 0 {
		return math.Float64frombits(u &^ signMask)
	}
	return math.Float64frombits(^u)
}
