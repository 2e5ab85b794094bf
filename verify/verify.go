// Package verify implements SIGNIA's Verifier: an ordered sequence of
// checks over a Schema/Manifest/Proof bundle that a verifying host can run
// with no access to the original input or plugins.
package verify

import (
	"bytes"
	"strconv"

	"github.com/signia-dev/signia-core/bundle"
	"github.com/signia-dev/signia-core/canonical"
	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/merkle"
	"github.com/signia-dev/signia-core/schema"
	"github.com/signia-dev/signia-core/signiaerr"
)

// Mode selects how strict the Verifier is. Strict adds extra checks beyond
// the seven mandatory ones: rejecting unknown keys anywhere in the schema's
// hashed view, non-canonical stored bytes in any of the three files, unused
// leaves declared in the proof, and any meta block present in the schema.
type Mode int

const (
	Lenient Mode = iota
	Strict
)

// Report is the outcome of Verify: Checks records which of the seven
// ordered checks ran and whether each passed, in order, so a caller can see
// exactly where verification stopped.
type Report struct {
	OK     bool
	Checks []CheckResult
}

type CheckResult struct {
	Name string
	OK   bool
	Err  error
}

// Files is the raw bundle content a verifying host reads off disk (or
// network, or wherever): the Verifier never touches the original input or
// any plugin.
type Files struct {
	Schema   []byte
	Manifest []byte
	Proof    []byte
}

// Verify runs the seven ordered checks in order, returning a Report. It
// stops at the first failing check — later checks are not attempted, so the
// canonical reserialization check (check 3) always fires before the hash
// comparison (check 4) for a tampered-but-still-valid-JSON bundle.
func Verify(f Files, alg hashing.Alg, mode Mode) *Report {
	report := &Report{OK: true}

	record := func(name string, err error) bool {
		report.Checks = append(report.Checks, CheckResult{Name: name, OK: err == nil, Err: err})
		if err != nil {
			report.OK = false
		}
		return err == nil
	}

	// Check 1: shape validation — each file parses and has its required
	// top-level fields.
	doc, err := schema.ParseDocument(f.Schema)
	if !record("shape_validation_schema", err) {
		return report
	}
	man, err := bundle.ParseManifest(f.Manifest)
	if !record("shape_validation_manifest", err) {
		return report
	}
	proofDoc, proofRoot, leafHashes, err := bundle.ParseProofDoc(f.Proof)
	if !record("shape_validation_proof", err) {
		return report
	}

	// Check 2: version fields match what this Verifier understands, in
	// every one of the three documents' own hash_domain.
	err = checkVersions(doc, man, proofDoc)
	if !record("version_fields", err) {
		return report
	}

	// Check 3: canonical reserialization precedes any hash comparison.
	rebuiltSchema, err := schema.Canonicalize(doc.ToGraph(), alg)
	if err == nil {
		err = checkCanonicalMatch(doc, rebuiltSchema)
	} else if signiaerr.Is(err, signiaerr.IrInvalid) {
		// A duplicated item in the stored document fails Canonicalize's
		// tie check; report it as tampering like any other canonical drift.
		err = signiaerr.New(signiaerr.BundleTampered).D("kind", "schema_canonical").Wrap(err)
	}
	if !record("canonical_reserialization", err) {
		return report
	}

	// Check 4: schema_hash recompute.
	err = checkHashEqual(rebuiltSchema.Hash, man.Hashed.SchemaHash, "schema_hash")
	if !record("schema_hash_recompute", err) {
		return report
	}
	if doc.SchemaID != rebuiltSchema.Hash.Hex() {
		record("schema_hash_recompute", signiaerr.New(signiaerr.BundleHashMismatch).D("kind", "schema_id"))
		return report
	}

	// Check 5: Merkle root/leaf recompute from the same schema leaves.
	rebuiltProof, err := merkle.Build(rebuiltSchema.Leaves, alg)
	if !record("merkle_root_recompute", err) {
		return report
	}
	err = checkHashEqual(rebuiltProof.Root, proofRoot, "proof_root")
	if !record("merkle_root_recompute", err) {
		return report
	}
	err = checkHashEqual(rebuiltProof.Root, man.Hashed.ProofRoot, "proof_root_vs_manifest")
	if !record("merkle_root_recompute", err) {
		return report
	}

	// Check 6: stored leaf hashes match the recomputed ones, in order, and
	// every stored inclusion proof independently walks its sibling path back
	// to root_hash — a verifier holding only one leaf's projection (not the
	// full schema) can run this half of check 6 alone.
	err = checkLeavesEqual(rebuiltProof.LeafHashes, leafHashes)
	if !record("inclusion_proof_walk", err) {
		return report
	}
	err = bundle.VerifyInclusionProofs(proofDoc, alg)
	if !record("inclusion_proof_walk", err) {
		return report
	}

	// Check 7: manifest_hash recompute.
	err = checkManifestHash(man, alg)
	if !record("manifest_hash_recompute", err) {
		return report
	}

	if mode == Strict {
		err = strictChecks(doc, f, proofDoc)
		record("strict_mode", err)
	}

	return report
}

func checkVersions(doc *schema.Document, man *bundle.Manifest, proofDoc *bundle.ProofDoc) error {
	if doc.SchemaVersion != schema.SchemaVersion {
		return signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "unsupported_schema_version").D("got", doc.SchemaVersion)
	}
	if doc.HashDomain != hashing.DomainSchema {
		return signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "unsupported_hash_domain").D("got", doc.HashDomain)
	}
	if man.Hashed.ManifestVersion != bundle.ManifestVersion {
		return signiaerr.New(signiaerr.BundleInvalidManifest).D("reason", "unsupported_manifest_version").D("got", man.Hashed.ManifestVersion)
	}
	if man.Hashed.HashDomain != hashing.DomainManifest {
		return signiaerr.New(signiaerr.BundleInvalidManifest).D("reason", "unsupported_hash_domain").D("got", man.Hashed.HashDomain)
	}
	if proofDoc.ProofVersion != bundle.ProofVersion {
		return signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "unsupported_proof_version").D("got", proofDoc.ProofVersion)
	}
	if proofDoc.HashDomain != hashing.DomainProof {
		return signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "unsupported_hash_domain").D("got", proofDoc.HashDomain)
	}
	return nil
}

// checkCanonicalMatch recomputes the stored document's canonical bytes (per
// the re-sort-and-compare mechanism documented on schema.Document.ToGraph)
// and compares them against what the stored document's own fields would
// serialize to. Any discrepancy — a tampered sortable field now out of
// order, a duplicate introduced by direct byte edits, a set that needed
// deduplication — surfaces here as BundleTampered before hashes are ever
// compared.
func checkCanonicalMatch(doc *schema.Document, rebuilt *schema.Result) error {
	storedValue, err := schema.DocumentWithSchemaIDOmitted(doc)
	if err != nil {
		return err
	}
	storedBytes, err := canonical.Encode(storedValue)
	if err != nil {
		return signiaerr.New(signiaerr.BundleCanonicalizationFailed).Wrap(err)
	}
	if !bytes.Equal(storedBytes, rebuilt.CanonicalBytes) {
		return signiaerr.New(signiaerr.BundleTampered).D("kind", "schema_canonical")
	}
	return nil
}

func checkHashEqual(got, want hashing.Digest, kind string) error {
	if got != want {
		return signiaerr.New(signiaerr.BundleHashMismatch).D("kind", kind)
	}
	return nil
}

func checkLeavesEqual(got, want []hashing.Digest) error {
	if len(got) != len(want) {
		return signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "leaf_count_mismatch")
	}
	for i := range got {
		if got[i] != want[i] {
			return signiaerr.New(signiaerr.BundleTampered).D("kind", "leaf_hash").D("index", strconv.Itoa(i))
		}
	}
	return nil
}

func checkManifestHash(m *bundle.Manifest, alg hashing.Alg) error {
	recomputed, err := bundle.RecomputeManifestHash(m, alg)
	if err != nil {
		return err
	}
	if recomputed != m.Hash {
		return signiaerr.New(signiaerr.BundleHashMismatch).D("kind", "manifest_hash")
	}
	return nil
}

// schemaTopKeys, rootKeys, entityKeys, edgeKeys, typeKeys, and
// constraintKeys enumerate every key this Verifier recognizes inside the
// schema's hashed view. Strict mode fails closed on anything else: an
// unrecognized key inside a hashed domain is either a forward-incompatible
// field this build cannot account for in its own hash recomputation, or a
// tamper attempt smuggling extra data past a lenient reader.
var schemaTopKeys = map[string]bool{"schema_version": true, "hash_domain": true, "root": true, "schema_id": true}
var rootKeys = map[string]bool{"artifact": true, "graph": true, "types": true, "constraints": true}
var artifactKeys = map[string]bool{"kind": true, "name": true, "namespace": true, "ref": true, "labels": true}
var entityKeys = map[string]bool{"id": true, "kind": true, "name": true, "path": true, "digest": true, "attrs": true, "tags": true}
var edgeKeys = map[string]bool{"id": true, "relation": true, "from": true, "to": true, "attrs": true}
var typeKeys = map[string]bool{"id": true, "kind": true, "name": true, "definition": true, "attrs": true}
var constraintKeys = map[string]bool{"id": true, "kind": true, "severity": true, "scope": true, "predicate": true, "attrs": true}

// strictChecks runs the strict-mode-only checks named in spec's Verifier
// section: unknown keys in hashed domains, non-canonical stored bytes,
// unused leaves declared in the proof, and meta present in the schema's
// hashed view (this build never puts meta in the bytes it hashes — see
// schema.documentValue — so strict mode simply forbids the field from
// appearing in the stored document at all, rather than trying to detect
// whether some future encoder folded it into the hash).
func strictChecks(doc *schema.Document, f Files, proofDoc *bundle.ProofDoc) error {
	if len(doc.Meta) > 0 {
		return signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "meta_present_strict_mode")
	}
	if err := checkNoUnknownKeys(f.Schema); err != nil {
		return err
	}
	if err := checkStoredBytesCanonical(f.Schema, "schema"); err != nil {
		return err
	}
	if err := checkStoredBytesCanonical(f.Manifest, "manifest"); err != nil {
		return err
	}
	if err := checkStoredBytesCanonical(f.Proof, "proof"); err != nil {
		return err
	}
	return checkNoUnusedLeaves(proofDoc)
}

// checkStoredBytesCanonical fails if raw is not already exactly the bytes
// canonical.Encode would produce for raw's own parsed value — catching
// non-canonical key ordering, incidental whitespace, or any other
// byte-level deviation from C1 that a value-level comparison would miss.
func checkStoredBytesCanonical(raw []byte, kind string) error {
	v, err := canonical.Parse(raw)
	if err != nil {
		return signiaerr.New(signiaerr.BundleCanonicalizationFailed).D("kind", kind).Wrap(err)
	}
	reencoded, err := canonical.Encode(v)
	if err != nil {
		return signiaerr.New(signiaerr.BundleCanonicalizationFailed).D("kind", kind).Wrap(err)
	}
	if !bytes.Equal(raw, reencoded) {
		return signiaerr.New(signiaerr.BundleCanonicalizationFailed).D("kind", kind).D("reason", "non_canonical_stored_bytes")
	}
	return nil
}

func checkNoUnknownKeys(rawSchema []byte) error {
	v, err := canonical.Parse(rawSchema)
	if err != nil {
		return signiaerr.New(signiaerr.BundleInvalidSchema).Wrap(err)
	}
	obj, ok := v.(canonical.Object)
	if !ok {
		return signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "not_object")
	}
	if err := checkKeys(obj, schemaTopKeys, "schema"); err != nil {
		return err
	}
	root, _ := obj["root"].(canonical.Object)
	if err := checkKeys(root, rootKeys, "root"); err != nil {
		return err
	}
	if art, ok := root["artifact"].(canonical.Object); ok {
		if err := checkKeys(art, artifactKeys, "artifact"); err != nil {
			return err
		}
	}
	if graph, ok := root["graph"].(canonical.Object); ok {
		for _, item := range arrValue(graph["entities"]) {
			if eo, ok := item.(canonical.Object); ok {
				if err := checkKeys(eo, entityKeys, "entity"); err != nil {
					return err
				}
			}
		}
		for _, item := range arrValue(graph["edges"]) {
			if eo, ok := item.(canonical.Object); ok {
				if err := checkKeys(eo, edgeKeys, "edge"); err != nil {
					return err
				}
			}
		}
	}
	if types, ok := root["types"].(canonical.Object); ok {
		for _, item := range arrValue(types["definitions"]) {
			if to, ok := item.(canonical.Object); ok {
				if err := checkKeys(to, typeKeys, "type"); err != nil {
					return err
				}
			}
		}
	}
	if cons, ok := root["constraints"].(canonical.Object); ok {
		for _, item := range arrValue(cons["rules"]) {
			if co, ok := item.(canonical.Object); ok {
				if err := checkKeys(co, constraintKeys, "constraint"); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func checkKeys(obj canonical.Object, allowed map[string]bool, locus string) error {
	for k := range obj {
		if !allowed[k] {
			return signiaerr.New(signiaerr.BundleInvalidSchema).D("reason", "unknown_key").D("locus", locus).D("key", k)
		}
	}
	return nil
}

func arrValue(v canonical.Value) []canonical.Value {
	a, _ := v.([]canonical.Value)
	return a
}

// checkNoUnusedLeaves fails if proof.json declares a leaf item that no
// inclusion proof ever references — a leaf sitting in the file but never
// actually proven is either dead weight or a sign the proof was assembled
// from a different leaf set than the one it claims to commit to.
func checkNoUnusedLeaves(doc *bundle.ProofDoc) error {
	if len(doc.InclusionProofs) == 0 {
		return nil
	}
	referenced := make(map[string]bool, len(doc.InclusionProofs))
	for _, ip := range doc.InclusionProofs {
		referenced[ip.LeafID] = true
	}
	for _, item := range doc.Items {
		if !referenced[item.ID] {
			return signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "unused_leaf_declared").D("leaf_id", item.ID)
		}
	}
	return nil
}

