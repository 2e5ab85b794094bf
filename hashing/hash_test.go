package hashing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestH_Deterministic(t *testing.T) {
	d1, err := H(Sha256, DomainSchema, []byte("abc"))
	require.NoError(t, err)
	d2, err := H(Sha256, DomainSchema, []byte("abc"))
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestH_DomainSeparation(t *testing.T) {
	d1, err := H(Sha256, DomainSchema, []byte("abc"))
	require.NoError(t, err)
	d2, err := H(Sha256, DomainManifest, []byte("abc"))
	require.NoError(t, err)
	assert.NotEqual(t, d1, d2)
}

func TestDigest_HexRoundTrip(t *testing.T) {
	d, err := H(Sha256, DomainSchema, []byte("payload"))
	require.NoError(t, err)

	parsed, err := ParseHex(d.Hex())
	require.NoError(t, err)
	assert.Equal(t, d, parsed)
}

func TestParseHex_RejectsMalformed(t *testing.T) {
	_, err := ParseHex("not-hex")
	require.Error(t, err)

	_, err = ParseHex("abcd")
	require.Error(t, err)
}
