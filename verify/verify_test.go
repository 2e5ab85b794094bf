package verify

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signia-dev/signia-core/bundle"
	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/merkle"
	"github.com/signia-dev/signia-core/schema"
)

func freshBundleFiles(t *testing.T) Files {
	t.Helper()
	g := &ir.Graph{
		Artifact: ir.Artifact{Kind: ir.ArtifactRepo, Name: "demo"},
		Entities: []ir.Entity{
			{ID: ir.EntityID("module", "src/main.ts"), Kind: "module", Name: "main.ts", Tags: []string{"entry"}},
			{ID: ir.EntityID("module", "src/util.ts"), Kind: "module", Name: "util.ts", Tags: []string{"helper"}},
		},
	}
	res, err := schema.Canonicalize(g, hashing.Sha256)
	require.NoError(t, err)
	proof, err := merkle.Build(res.Leaves, hashing.Sha256)
	require.NoError(t, err)
	b, err := bundle.Assemble(res, proof, nil, bundle.InputDescriptor{Kind: "repo", Hash: hashing.Digest{9}}, hashing.Digest{8}, "2026-01-01T00:00:00Z", "signia/test", hashing.Sha256)
	require.NoError(t, err)

	schemaBytes, err := bundle.SchemaBytes(b.Schema)
	require.NoError(t, err)
	manifestBytes, err := bundle.ManifestBytes(b.Manifest)
	require.NoError(t, err)
	proofBytes, err := bundle.ProofBytes(b.Leaves, b.Proof, hashing.Sha256)
	require.NoError(t, err)

	return Files{Schema: schemaBytes, Manifest: manifestBytes, Proof: proofBytes}
}

func TestVerify_AcceptsUntamperedBundle(t *testing.T) {
	f := freshBundleFiles(t)
	report := Verify(f, hashing.Sha256, Lenient)
	require.True(t, report.OK, "%+v", report.Checks)
}

func TestVerify_DetectsSchemaFieldTamper(t *testing.T) {
	f := freshBundleFiles(t)
	f.Schema = bytes.Replace(f.Schema, []byte("main.ts"), []byte("mbin.ts"), 1)
	report := Verify(f, hashing.Sha256, Lenient)
	require.False(t, report.OK)
	last := report.Checks[len(report.Checks)-1]
	assert.False(t, last.OK)
}

func TestVerify_DetectsManifestHashTamper(t *testing.T) {
	f := freshBundleFiles(t)
	f.Manifest = bytes.Replace(f.Manifest, []byte(`"manifest_hash":"`), []byte(`"manifest_hash":"0`), 1)
	report := Verify(f, hashing.Sha256, Lenient)
	require.False(t, report.OK)
}

func TestVerify_RejectsTruncatedSchema(t *testing.T) {
	f := freshBundleFiles(t)
	f.Schema = []byte(`{"not":"a schema"}`)
	report := Verify(f, hashing.Sha256, Lenient)
	require.False(t, report.OK)
	assert.Equal(t, "shape_validation_schema", report.Checks[0].Name)
}

func TestVerify_StrictAcceptsCleanBundle(t *testing.T) {
	f := freshBundleFiles(t)
	report := Verify(f, hashing.Sha256, Strict)
	require.True(t, report.OK, "%+v", report.Checks)
}

func TestVerify_StrictRejectsMetaInSchema(t *testing.T) {
	f := freshBundleFiles(t)
	f.Schema = bytes.Replace(f.Schema,
		[]byte(`"hash_domain":"signia:schema:v1",`),
		[]byte(`"hash_domain":"signia:schema:v1","meta":{"note":"x"},`), 1)
	report := Verify(f, hashing.Sha256, Lenient)
	require.True(t, report.OK, "lenient mode ignores meta: %+v", report.Checks)

	report = Verify(f, hashing.Sha256, Strict)
	require.False(t, report.OK)
	last := report.Checks[len(report.Checks)-1]
	assert.Equal(t, "strict_mode", last.Name)
}

func TestVerify_StrictRejectsUnknownKey(t *testing.T) {
	f := freshBundleFiles(t)
	f.Schema = bytes.Replace(f.Schema, []byte(`"schema_version":"v1"}`), []byte(`"schema_version":"v1","zzz_unknown":"1"}`), 1)
	report := Verify(f, hashing.Sha256, Strict)
	require.False(t, report.OK)
	last := report.Checks[len(report.Checks)-1]
	assert.Equal(t, "strict_mode", last.Name)
}

func TestVerify_StrictRejectsNonCanonicalBytes(t *testing.T) {
	f := freshBundleFiles(t)
	f.Manifest = bytes.Replace(f.Manifest, []byte(`"bundle_id":"`), []byte(`"bundle_id": "`), 1)

	report := Verify(f, hashing.Sha256, Lenient)
	require.True(t, report.OK, "lenient mode tolerates incidental whitespace: %+v", report.Checks)

	report = Verify(f, hashing.Sha256, Strict)
	require.False(t, report.OK)
	last := report.Checks[len(report.Checks)-1]
	assert.Equal(t, "strict_mode", last.Name)
}
