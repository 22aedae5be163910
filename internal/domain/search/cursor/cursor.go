// Package cursor encodes opaque, versioned continuation tokens that are bound
// to the ordering that produced them.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kailas-cloud/showroomdex/internal/domain"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/order"
)

// MaxTokenLength bounds the encoded token size accepted by Decode.
const MaxTokenLength = 1024

// Wire versions.
const (
	VersionLegacy  = 1
	VersionCurrent = 2
)

// Cursor is a decoded token: either Legacy or Fingerprinted.
type Cursor interface {
	version() int
}

// Legacy is a version 1 token. It carries no ordering and is only valid
// under the default updatedAt desc order.
type Legacy struct {
	UpdatedAt time.Time
	ID        string
}

func (Legacy) version() int { return VersionLegacy }

// Fingerprinted is a version 2 token carrying its ordering explicitly.
type Fingerprinted struct {
	Key      order.Key
	Position order.Position
}

func (Fingerprinted) version() int { return VersionCurrent }

type wire struct {
	V         int    `json:"v"`
	Field     string `json:"f,omitempty"`
	Direction string `json:"d,omitempty"`
	Kind      string `json:"k,omitempty"`
	Value     string `json:"val,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
	ID        string `json:"id"`
}

const timeLayout = "2006-01-02T15:04:05.000Z07:00"

// Encode returns a current-version token for the last item of a page.
func Encode(key order.Key, pos order.Position) string {
	w := wire{
		V:         VersionCurrent,
		Field:     key.Field,
		Direction: string(key.Direction),
		Kind:      string(pos.Value.Kind()),
		ID:        pos.ID,
	}
	switch pos.Value.Kind() {
	case order.KindTime:
		w.Value = pos.Value.At().UTC().Format(timeLayout)
	case order.KindNumber:
		w.Value = strconv.FormatFloat(pos.Value.Num(), 'g', -1, 64)
	default:
		w.Value = pos.Value.Str()
	}
	return marshal(w)
}

// EncodeLegacy returns a version 1 token.
func EncodeLegacy(updatedAt time.Time, id string) string {
	return marshal(wire{
		V:         VersionLegacy,
		UpdatedAt: updatedAt.UTC().Format(timeLayout),
		ID:        id,
	})
}

func marshal(w wire) string {
	data, err := json.Marshal(w)
	if err != nil {
		panic(fmt.Sprintf("cursor: marshal: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrCursorInvalid, fmt.Sprintf(format, args...))
}

// Decode parses a token without looking at the current request.
func Decode(token string) (Cursor, error) {
	if token == "" {
		return nil, invalid("empty token")
	}
	if len(token) > MaxTokenLength {
		return nil, invalid("token too long")
	}
	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, invalid("bad encoding")
	}
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, invalid("bad payload")
	}
	if w.ID == "" {
		return nil, invalid("missing id")
	}

	switch w.V {
	case VersionLegacy:
		at, err := time.Parse(time.RFC3339Nano, w.UpdatedAt)
		if err != nil {
			return nil, invalid("bad updatedAt %q", w.UpdatedAt)
		}
		return Legacy{UpdatedAt: at.UTC(), ID: w.ID}, nil
	case VersionCurrent:
		return decodeCurrent(w)
	default:
		return nil, invalid("unsupported version %d", w.V)
	}
}

func decodeCurrent(w wire) (Cursor, error) {
	if w.Field == "" {
		return nil, invalid("missing order field")
	}
	dir, err := order.ParseDirection(w.Direction)
	if err != nil {
		return nil, invalid("bad direction %q", w.Direction)
	}

	var v order.Value
	switch order.Kind(w.Kind) {
	case order.KindTime:
		at, err := time.Parse(time.RFC3339Nano, w.Value)
		if err != nil {
			return nil, invalid("bad time value %q", w.Value)
		}
		v = order.Time(at)
	case order.KindNumber:
		n, err := strconv.ParseFloat(w.Value, 64)
		if err != nil {
			return nil, invalid("bad number value %q", w.Value)
		}
		v = order.Number(n)
	case order.KindString:
		v = order.String(w.Value)
	default:
		return nil, invalid("unknown value kind %q", w.Kind)
	}

	return Fingerprinted{
		Key:      order.Key{Field: w.Field, Direction: dir},
		Position: order.Position{Value: v, ID: w.ID},
	}, nil
}

// Resolve checks that c was produced under key and returns the position to resume after.
func Resolve(c Cursor, key order.Key) (order.Position, error) {
	switch cur := c.(type) {
	case Legacy:
		if key != order.Default {
			return order.Position{}, invalid("legacy cursor used with order %s", key)
		}
		return order.Position{Value: order.Time(cur.UpdatedAt), ID: cur.ID}, nil
	case Fingerprinted:
		if cur.Key != key {
			return order.Position{}, invalid("cursor order %s does not match %s", cur.Key, key)
		}
		if cur.Position.Value.Kind() != key.Kind() {
			return order.Position{}, invalid("cursor value kind %q does not match %s", cur.Position.Value.Kind(), key)
		}
		return cur.Position, nil
	default:
		return order.Position{}, invalid("unsupported cursor %T", c)
	}
}

// Parse decodes token and resolves it against key.
func Parse(token string, key order.Key) (order.Position, error) {
	c, err := Decode(token)
	if err != nil {
		return order.Position{}, err
	}
	return Resolve(c, key)
}
