package cursor

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/showroomdex/internal/domain"
	"github.com/kailas-cloud/showroomdex/internal/domain/search/order"
)

func raw(s string) string { return base64.RawURLEncoding.EncodeToString([]byte(s)) }

func TestEncodeDecode_TimeValue(t *testing.T) {
	at := time.Date(2024, 3, 9, 18, 30, 15, 123000000, time.UTC)
	pos := order.Position{Value: order.Time(at), ID: "s-42"}

	token := Encode(order.Default, pos)
	if strings.ContainsAny(token, "+/=") {
		t.Fatalf("token %q is not url-safe", token)
	}

	got, err := Parse(token, order.Default)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.ID != "s-42" || !got.Value.At().Equal(at) {
		t.Errorf("position = %+v", got)
	}
}

func TestEncodeDecode_StringValue(t *testing.T) {
	pos := order.Position{Value: order.String("zara home"), ID: "b"}
	got, err := Parse(Encode(order.ByName, pos), order.ByName)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got.Value.Str() != "zara home" || got.ID != "b" {
		t.Errorf("position = %+v", got)
	}
}

func TestDecode_Variants(t *testing.T) {
	c, err := Decode(EncodeLegacy(time.Unix(1700000000, 0), "x"))
	if err != nil {
		t.Fatalf("legacy decode: %v", err)
	}
	if _, ok := c.(Legacy); !ok {
		t.Fatalf("expected Legacy, got %T", c)
	}

	c, err = Decode(Encode(order.ByGeohash, order.Position{Value: order.String("u4pr"), ID: "y"}))
	if err != nil {
		t.Fatalf("current decode: %v", err)
	}
	fp, ok := c.(Fingerprinted)
	if !ok {
		t.Fatalf("expected Fingerprinted, got %T", c)
	}
	if fp.Key != order.ByGeohash {
		t.Errorf("key = %v", fp.Key)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"not base64", "!!!"},
		{"not json", raw("nope")},
		{"unknown version", raw(`{"v":7,"id":"x"}`)},
		{"missing id", raw(`{"v":2,"f":"updatedAt","d":"desc","k":"t","val":"2024-01-01T00:00:00.000Z"}`)},
		{"bad direction", raw(`{"v":2,"f":"updatedAt","d":"up","k":"t","val":"2024-01-01T00:00:00.000Z","id":"x"}`)},
		{"bad kind", raw(`{"v":2,"f":"updatedAt","d":"desc","k":"q","val":"1","id":"x"}`)},
		{"bad time", raw(`{"v":2,"f":"updatedAt","d":"desc","k":"t","val":"yesterday","id":"x"}`)},
		{"bad legacy time", raw(`{"v":1,"updatedAt":"soon","id":"x"}`)},
		{"too long", strings.Repeat("a", MaxTokenLength+1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.token)
			if !errors.Is(err, domain.ErrCursorInvalid) {
				t.Errorf("expected ErrCursorInvalid, got %v", err)
			}
		})
	}
}

func TestResolve_ModeMismatch(t *testing.T) {
	nameToken := Encode(order.ByName, order.Position{Value: order.String("za"), ID: "1"})

	_, err := Parse(nameToken, order.ByGeohash)
	if !errors.Is(err, domain.ErrCursorInvalid) {
		t.Fatalf("name cursor under geo order: expected ErrCursorInvalid, got %v", err)
	}

	asc := order.Key{Field: order.FieldUpdatedAt, Direction: order.Asc}
	descToken := Encode(order.Default, order.Position{Value: order.Time(time.Unix(0, 0)), ID: "1"})
	if _, err := Parse(descToken, asc); !errors.Is(err, domain.ErrCursorInvalid) {
		t.Fatalf("desc cursor under asc order: expected ErrCursorInvalid, got %v", err)
	}
}

func TestResolve_LegacyOnlyUnderDefault(t *testing.T) {
	token := EncodeLegacy(time.Unix(1700000000, 0), "x")

	if _, err := Parse(token, order.Default); err != nil {
		t.Fatalf("legacy under default: %v", err)
	}
	if _, err := Parse(token, order.ByName); !errors.Is(err, domain.ErrCursorInvalid) {
		t.Fatalf("legacy under name order: expected ErrCursorInvalid, got %v", err)
	}
	asc := order.Key{Field: order.FieldUpdatedAt, Direction: order.Asc}
	if _, err := Parse(token, asc); !errors.Is(err, domain.ErrCursorInvalid) {
		t.Fatalf("legacy under asc order: expected ErrCursorInvalid, got %v", err)
	}
}

func TestResolve_KindMismatch(t *testing.T) {
	token := raw(`{"v":2,"f":"updatedAt","d":"desc","k":"s","val":"abc","id":"x"}`)
	if _, err := Parse(token, order.Default); !errors.Is(err, domain.ErrCursorInvalid) {
		t.Fatalf("expected ErrCursorInvalid, got %v", err)
	}
}
