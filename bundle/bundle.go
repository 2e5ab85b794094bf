// Package bundle implements SIGNIA's Bundle Assembler and its companion
// reader: schema.json, manifest.json, and proof.json, plus the split
// between manifest fields that are hashed into manifest_hash and those
// that are not.
package bundle

import (
	"github.com/google/uuid"

	"github.com/signia-dev/signia-core/canonical"
	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/merkle"
	"github.com/signia-dev/signia-core/schema"
	"github.com/signia-dev/signia-core/signiaerr"
)

// ManifestVersion is the manifest.json format version this package emits
// and understands, mirroring schema.SchemaVersion.
const ManifestVersion = "v1"

// bundleIDNamespace is a fixed UUID namespace so bundle IDs are a pure
// function of content (v5/SHA1, never v4/random) — two compiles of the same
// input under the same policy get the same bundle_id: determinism extends
// to every artifact the pipeline emits, not just the schema hash.
var bundleIDNamespace = uuid.MustParse("c6f8e2a0-3b1e-4f6a-9d2f-2f6a9d2f2f6a")

// PluginRecord records one plugin invocation's identity and the hash of its
// configuration, so a verifier can confirm the same plugin+config produced
// this bundle.
type PluginRecord struct {
	Name       string
	Version    string
	ConfigHash hashing.Digest
}

// InputDescriptor records the normalized input's own content hash, so the
// manifest can attest to exactly which bytes were compiled.
type InputDescriptor struct {
	Kind string
	Hash hashing.Digest
}

// Manifest is the in-memory form of manifest.json. The Hashed fields
// contribute to ManifestHash; NonHashed fields (produced_at and similar
// observational data, via compile.Clock) do not — a bundle whose wall-clock
// timestamp differs but whose hashed content is identical still produces the
// same ManifestHash.
type Manifest struct {
	Hashed    HashedManifest
	NonHashed NonHashedManifest
	Hash      hashing.Digest
}

type HashedManifest struct {
	ManifestVersion string
	HashDomain      string
	SchemaHash      hashing.Digest
	ProofRoot       hashing.Digest
	LeafCount       int
	Plugins         []PluginRecord
	Input           InputDescriptor
	PolicyHash      hashing.Digest
}

// NonHashedManifest holds manifest fields that do not contribute to
// ManifestHash. BundleID lives here rather than in HashedManifest: it is a
// pure function of SchemaHash/ProofRoot (see bundleID), so folding it into
// the hashed bytes too would add nothing but a circular-looking dependency.
type NonHashedManifest struct {
	ProducedAt  string // RFC3339, from compile.Clock — never read by any hash-producing code path
	ToolVersion string
	BundleID    uuid.UUID
}

// Bundle is the fully assembled triple ready to be written as
// schema.json/manifest.json/proof.json. Leaves is carried alongside Proof
// so ProofBytes can render each leaf's kind/id alongside its hash without
// re-deriving them from the Schema document.
type Bundle struct {
	Schema   *schema.Document
	Manifest *Manifest
	Proof    *merkle.Proof
	Leaves   []schema.Leaf
}

// Assemble builds the bundle from a canonicalized schema result and its
// Merkle proof, recording the given plugin and input provenance. alg is the
// hash primitive used throughout (only sha256 is supported today, but the
// primitive is threaded explicitly rather than hardcoded so a future major
// version can swap it without touching call sites).
func Assemble(schemaResult *schema.Result, proof *merkle.Proof, plugins []PluginRecord, input InputDescriptor, policyHash hashing.Digest, producedAt, toolVersion string, alg hashing.Alg) (*Bundle, error) {
	hashed := HashedManifest{
		ManifestVersion: ManifestVersion,
		HashDomain:      hashing.DomainManifest,
		SchemaHash:      schemaResult.Hash,
		ProofRoot:       proof.Root,
		LeafCount:       len(schemaResult.Leaves),
		Plugins:         plugins,
		Input:           input,
		PolicyHash:      policyHash,
	}

	value, err := hashedManifestValue(hashed)
	if err != nil {
		return nil, err
	}
	payload, err := canonical.Encode(value)
	if err != nil {
		return nil, signiaerr.New(signiaerr.CanonicalizationFailed).Wrap(err)
	}
	digest, err := hashing.H(alg, hashing.DomainManifest, payload)
	if err != nil {
		return nil, err
	}

	manifest := &Manifest{
		Hashed: hashed,
		NonHashed: NonHashedManifest{
			ProducedAt:  producedAt,
			ToolVersion: toolVersion,
			BundleID:    bundleID(hashed),
		},
		Hash: digest,
	}

	return &Bundle{Schema: schemaResult.Document, Manifest: manifest, Proof: proof, Leaves: schemaResult.Leaves}, nil
}

// bundleID derives a deterministic v5 UUID from the hashed manifest content:
// the schema hash and proof root alone already uniquely identify a compiled
// artifact's content, so they double as the UUID's seed bytes.
func bundleID(h HashedManifest) uuid.UUID {
	seed := append([]byte{}, h.SchemaHash[:]...)
	seed = append(seed, h.ProofRoot[:]...)
	return uuid.NewSHA1(bundleIDNamespace, seed)
}

// RecomputeManifestHash re-derives ManifestHash from a Manifest's own Hashed
// fields, the way the Verifier's manifest_hash recompute check (check 7)
// does: it never trusts the stored Manifest.Hash, only the Hashed struct's
// content.
func RecomputeManifestHash(m *Manifest, alg hashing.Alg) (hashing.Digest, error) {
	value, err := hashedManifestValue(m.Hashed)
	if err != nil {
		return hashing.Digest{}, err
	}
	payload, err := canonical.Encode(value)
	if err != nil {
		return hashing.Digest{}, signiaerr.New(signiaerr.CanonicalizationFailed).Wrap(err)
	}
	return hashing.H(alg, hashing.DomainManifest, payload)
}

// RegistrySeeds exposes the bytes a future on-chain or external registry
// would use as deterministic lookup keys (program-derived-address style
// seeds): schema_hash and proof_root. This package does not implement a
// registry — it only guarantees the seed derivation is a pure function of
// the manifest so any future registry integration derives the same seeds
// SIGNIA itself would recompute during verification.
func RegistrySeeds(m *Manifest) [][]byte {
	return [][]byte{
		append([]byte("schema_hash:"), m.Hashed.SchemaHash[:]...),
		append([]byte("proof_root:"), m.Hashed.ProofRoot[:]...),
	}
}

func hashedManifestValue(h HashedManifest) (canonical.Value, error) {
	plugins := make([]canonical.Value, len(h.Plugins))
	for i, p := range h.Plugins {
		plugins[i] = canonical.Object{
			"name":        p.Name,
			"version":     p.Version,
			"config_hash": p.ConfigHash.Hex(),
		}
	}
	return canonical.Object{
		"manifest_version": h.ManifestVersion,
		"hash_domain":      h.HashDomain,
		"schema_hash":      h.SchemaHash.Hex(),
		"proof_root":       h.ProofRoot.Hex(),
		"leaf_count":       int64(h.LeafCount),
		"plugins":          plugins,
		"input": canonical.Object{
			"kind": h.Input.Kind,
			"hash": h.Input.Hash.Hex(),
		},
		"policy_hash": h.PolicyHash.Hex(),
	}, nil
}
