// Package canonical implements SIGNIA's canonical JSON encoding: a
// deterministic byte serialization of JSON-shaped values with sorted object
// keys, normalized integers, and raw UTF-8 output.
//
// Canonical bytes are the only bytes SIGNIA ever hashes. Default
// encoding/json output is never used for hashing because key order and
// number formatting are not guaranteed stable across Go versions or
// platforms.
package canonical

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/signia-dev/signia-core/signiaerr"
)

// Value is a JSON-shaped value tree. Leaves are one of: nil, bool, int64,
// Number (a canonical-string-number), string, []Value, or Object (an
// insertion-order-agnostic map that Encode sorts by key).
//
// float64 is intentionally not a case: plain Go floats are rejected so
// callers cannot accidentally smuggle a float into a hashed domain. Callers
// with a float must run it through NewNumber first, which fails closed on
// NaN/Inf and non-finite values.
type Value any

// Object is an unordered string-keyed map of canonical values. Encode sorts
// keys by Unicode code point before emission and rejects duplicate keys
// (which cannot occur in a Go map, but can occur in an Object built up by a
// generic codec layer that preserves duplicate keys — Encode guards anyway).
type Object map[string]Value

// Number is a canonical decimal string representation of a numeric value
// that is not representable (or not desired) as int64 — e.g. a confidence
// score. It must already be in canonical form: base-10, no leading zeros
// except a single "0", optional single leading "-", optional single "."
// with at least one digit on each side, no exponent, no trailing zeros
// beyond what the value requires. NewNumber produces a valid instance from
// a float64; constructing a Number literal with non-canonical text is a
// programming error caught by Encode.
type Number string

// NewNumber converts a finite float64 into a canonical Number. Returns an
// error for NaN/Inf, since floats are forbidden in hashed domains —
// callers must pre-convert to an integer or this canonical string form
// before the value reaches Encode.
func NewNumber(f float64) (Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", signiaerr.Newf(signiaerr.CanonicalizationFailed, "float_in_hashed_domain")
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	return Number(s), nil
}

func (n Number) validate() error {
	s := string(n)
	if s == "" {
		return signiaerr.Newf(signiaerr.CanonicalizationFailed, "unsupported_value")
	}
	i := 0
	if s[i] == '-' {
		i++
	}
	if i >= len(s) {
		return signiaerr.Newf(signiaerr.CanonicalizationFailed, "unsupported_value")
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return signiaerr.Newf(signiaerr.CanonicalizationFailed, "unsupported_value")
	}
	if s[start] == '0' && i-start > 1 {
		return signiaerr.Newf(signiaerr.CanonicalizationFailed, "unsupported_value")
	}
	if i < len(s) && s[i] == '.' {
		i++
		fracStart := i
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
		if i == fracStart {
			return signiaerr.Newf(signiaerr.CanonicalizationFailed, "unsupported_value")
		}
		if s[i-1] == '0' {
			return signiaerr.Newf(signiaerr.CanonicalizationFailed, "unsupported_value")
		}
	}
	if i != len(s) {
		return signiaerr.Newf(signiaerr.CanonicalizationFailed, "unsupported_value")
	}
	return nil
}

// Encode produces canonical bytes for value.
func Encode(value Value) ([]byte, error) {
	var b strings.Builder
	if err := encodeValue(&b, value); err != nil {
		return nil, err
	}
	out := []byte(b.String())
	if !utf8.Valid(out) {
		return nil, signiaerr.Newf(signiaerr.CanonicalizationFailed, "non_utf8_string")
	}
	return out, nil
}

func encodeValue(b *strings.Builder, v Value) error {
	switch t := v.(type) {
	case nil:
		b.WriteString("null")
	case bool:
		if t {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
	case int:
		b.WriteString(strconv.FormatInt(int64(t), 10))
	case int32:
		b.WriteString(strconv.FormatInt(int64(t), 10))
	case int64:
		b.WriteString(strconv.FormatInt(t, 10))
	case uint:
		b.WriteString(strconv.FormatUint(uint64(t), 10))
	case uint64:
		b.WriteString(strconv.FormatUint(t, 10))
	case float32, float64:
		return signiaerr.Newf(signiaerr.CanonicalizationFailed, "float_in_hashed_domain")
	case Number:
		if err := t.validate(); err != nil {
			return err
		}
		b.WriteString(string(t))
	case string:
		return encodeString(b, t)
	case []Value:
		return encodeArray(b, t)
	case Object:
		return encodeObject(b, t)
	case []string:
		arr := make([]Value, len(t))
		for i, s := range t {
			arr[i] = s
		}
		return encodeArray(b, arr)
	default:
		return signiaerr.Newf(signiaerr.CanonicalizationFailed, "unsupported_value")
	}
	return nil
}

func encodeArray(b *strings.Builder, arr []Value) error {
	b.WriteByte('[')
	for i, v := range arr {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := encodeValue(b, v); err != nil {
			return err
		}
	}
	b.WriteByte(']')
	return nil
}

func encodeObject(b *strings.Builder, obj Object) error {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for i := 1; i < len(keys); i++ {
		if keys[i] == keys[i-1] {
			return signiaerr.Newf(signiaerr.CanonicalizationFailed, "duplicate_key").D("key", keys[i])
		}
	}
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		if err := encodeString(b, k); err != nil {
			return err
		}
		b.WriteByte(':')
		if err := encodeValue(b, obj[k]); err != nil {
			return err
		}
	}
	b.WriteByte('}')
	return nil
}

func encodeString(b *strings.Builder, s string) error {
	if !utf8.ValidString(s) {
		return signiaerr.Newf(signiaerr.CanonicalizationFailed, "non_utf8_string")
	}
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				fmt.Fprintf(b, `\u%04x`, r)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
	return nil
}
