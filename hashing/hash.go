// Package hashing implements SIGNIA's domain-separated hashing. Every hash
// call prepends a UTF-8 domain tag and a single 0x00 separator byte to the
// canonical payload before hashing, so identical bytes hashed under
// different domains never collide.
package hashing

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/signia-dev/signia-core/signiaerr"
)

// Digest is a fixed-size 32-byte hash output.
type Digest [32]byte

// Hex renders the digest as lowercase hex, the wire representation used at
// every API boundary (schema_id, bundle.schema_hash, proof.root.root_hash).
func (d Digest) Hex() string { return hex.EncodeToString(d[:]) }

// ParseHex decodes a lowercase hex string into a Digest.
func ParseHex(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != len(d) {
		return d, signiaerr.Newf(signiaerr.BundleInvalidProof, "malformed_hash_hex").D("value", s)
	}
	copy(d[:], b)
	return d, nil
}

// Alg identifies the selected hash primitive. The choice is fixed per major
// version and recorded in proof.json's hash_function field; manifest.json
// does not record it. This
// repo's v1 selects SHA-256; a BLAKE3 Alg would be added as a second variant
// for a v2 major version, never by mutating Sha256's behavior.
type Alg string

const Sha256 Alg = "sha256"

// Domain separation tags recognized by SIGNIA v1.
const (
	DomainSchema     = "signia:schema:v1"
	DomainManifest   = "signia:manifest:v1"
	DomainProof      = "signia:proof:v1"
	DomainProofRoot  = "signia:proof-root:v1"
	DomainLeafEntity = "signia:leaf:entity:v1"
	DomainLeafEdge   = "signia:leaf:edge:v1"
	DomainLeafType   = "signia:leaf:type:v1"
	DomainLeafConstraint = "signia:leaf:constraint:v1"
	DomainMerkleNode = "signia:merkle:node:v1"
)

// H hashes payload under domain using alg, prepending the domain tag and a
// single 0x00 separator byte ahead of payload.
func H(alg Alg, domain string, payload []byte) (Digest, error) {
	switch alg {
	case Sha256:
		h := sha256.New()
		h.Write([]byte(domain))
		h.Write([]byte{0x00})
		h.Write(payload)
		var d Digest
		copy(d[:], h.Sum(nil))
		return d, nil
	default:
		return Digest{}, signiaerr.Newf(signiaerr.Internal, "unsupported_hash_algorithm").D("alg", string(alg))
	}
}

// MustH is H without the (impossible, for the builtin Sha256 alg) error
// return, for call sites that already validated alg.
func MustH(alg Alg, domain string, payload []byte) Digest {
	d, err := H(alg, domain, payload)
	if err != nil {
		panic(err)
	}
	return d
}
