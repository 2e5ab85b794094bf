package canonical

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signia-dev/signia-core/signiaerr"
)

func TestEncode_SortsObjectKeys(t *testing.T) {
	out, err := Encode(Object{"b": 1, "a": 2, "c": 3})
	require.NoError(t, err)
	assert.Equal(t, `{"a":2,"b":1,"c":3}`, string(out))
}

func TestEncode_NoWhitespace(t *testing.T) {
	out, err := Encode(Object{"x": []Value{1, 2, Object{"y": true}}})
	require.NoError(t, err)
	assert.Equal(t, `{"x":[1,2,{"y":true}]}`, string(out))
	assert.NotContains(t, string(out), " ")
	assert.NotContains(t, string(out), "\n")
}

func TestEncode_StringsEscapeOnlyMandatory(t *testing.T) {
	out, err := Encode("héllo\tworld\n\"x\"")
	require.NoError(t, err)
	assert.Equal(t, "\"héllo\\tworld\\n\\\"x\\\"\"", string(out))
}

func TestEncode_IntegersNoLeadingZero(t *testing.T) {
	out, err := Encode(Object{"a": 0, "b": -7, "c": 12345})
	require.NoError(t, err)
	assert.Equal(t, `{"a":0,"b":-7,"c":12345}`, string(out))
}

func TestEncode_RejectsFloat(t *testing.T) {
	_, err := Encode(3.14)
	require.Error(t, err)
	assert.True(t, signiaerr.Is(err, signiaerr.CanonicalizationFailed))
}

func TestEncode_SameKeyInSeparateObjectsIsNotDuplicate(t *testing.T) {
	// Go maps can't hold duplicate keys, so the duplicate_key branch cannot
	// be reached from an Object. This checks that the same key appearing in
	// two different objects is not mistaken for a duplicate.
	out, err := Encode([]Value{Object{"a": 1}, Object{"a": 2}})
	require.NoError(t, err)
	assert.Equal(t, `[{"a":1},{"a":2}]`, string(out))
}

func TestEncode_RejectsNonUTF8(t *testing.T) {
	bad := string([]byte{0xff, 0xfe})
	_, err := Encode(bad)
	require.Error(t, err)
	assert.True(t, signiaerr.Is(err, signiaerr.CanonicalizationFailed))
}

func TestNewNumber_RejectsNaNAndInf(t *testing.T) {
	_, err := NewNumber(nan())
	require.Error(t, err)
	assert.True(t, signiaerr.Is(err, signiaerr.CanonicalizationFailed))

	_, err = NewNumber(math.Inf(1))
	require.Error(t, err)
	assert.True(t, signiaerr.Is(err, signiaerr.CanonicalizationFailed))
}

func nan() float64 {
	var zero float64
	return zero / zero
}

func TestCanonicalIdempotence(t *testing.T) {
	v := Object{
		"z": []Value{1, 2, 3},
		"a": Object{"nested": "val\nue"},
		"m": nil,
		"b": true,
	}
	b1, err := Encode(v)
	require.NoError(t, err)

	parsed, err := Parse(b1)
	require.NoError(t, err)

	b2, err := Encode(parsed)
	require.NoError(t, err)

	assert.Equal(t, string(b1), string(b2))
}

func TestEncode_KeyOrderingStrictlyAscending(t *testing.T) {
	out, err := Encode(Object{"zzz": 1, "aaa": 2, "mmm": 3})
	require.NoError(t, err)
	assert.Equal(t, `{"aaa":2,"mmm":3,"zzz":1}`, string(out))
}
