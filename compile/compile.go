// Package compile implements SIGNIA's top-level pipeline orchestration: the
// four operations external collaborators call — Compile, Verify, Inspect,
// and Hash — wired together as a single-threaded cooperative pipeline with
// explicit yield points, never as goroutines or async coroutines racing
// each other.
package compile

import (
	"context"
	"time"

	"github.com/signia-dev/signia-core/bundle"
	"github.com/signia-dev/signia-core/canonical"
	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/merkle"
	"github.com/signia-dev/signia-core/normalize"
	"github.com/signia-dev/signia-core/plugin"
	"github.com/signia-dev/signia-core/schema"
	"github.com/signia-dev/signia-core/signiaerr"
	"github.com/signia-dev/signia-core/telemetry"
	"github.com/signia-dev/signia-core/verify"
)

// Policy bundles everything a Compile call needs beyond the raw input
// bytes: the Normalizer's limits, the plugin's own configuration, what the
// Host is willing to grant the plugin, the hash primitive, and the wall
// clock budget. Hash folds the normalization limits, the Host's network
// grant, and the plugin config hash into the manifest's PolicyHash, so two
// compiles under different policies are distinguishable even when their
// input and output IR happen to coincide; Alg and TimeoutMS are not part
// of that hash.
type Policy struct {
	Normalize    normalize.Policy
	PluginConfig plugin.Config
	Host         plugin.HostCapabilities
	Alg          hashing.Alg
	TimeoutMS    int64 // 0 means unbounded
}

// Hash returns the domain-separated hash of the policy itself, recorded as
// manifest.json's policy_hash.
func (p Policy) Hash() (hashing.Digest, error) {
	configHash, err := p.PluginConfig.Hash(p.Alg)
	if err != nil {
		return hashing.Digest{}, err
	}
	value := canonical.Object{
		"max_files":       int64(p.Normalize.MaxFiles),
		"max_total_bytes": p.Normalize.MaxTotalBytes,
		"max_file_bytes":  p.Normalize.MaxFileBytes,
		"max_depth":       int64(p.Normalize.MaxDepth),
		"symlinks":        string(p.Normalize.Symlinks),
		"ignore_globs":    globValues(p.Normalize.IgnoreGlobs),
		"needs_network":   p.Host.Network,
		"plugin_config_hash": configHash.Hex(),
	}
	payload, err := canonical.Encode(value)
	if err != nil {
		return hashing.Digest{}, signiaerr.New(signiaerr.CanonicalizationFailed).Wrap(err)
	}
	return hashing.H(p.Alg, hashing.DomainManifest, payload)
}

func globValues(globs []string) []canonical.Value {
	out := make([]canonical.Value, len(globs))
	for i, g := range globs {
		out[i] = g
	}
	return out
}

// yieldPoint is one of the five suspension points in the pipeline: before
// plugin execution, after plugin execution, after IR validation, after
// canonicalization, after proof construction. It observes cancellation and
// the wall-clock timeout budget, never partial progress.
func yieldPoint(ctx context.Context, deadline time.Time, hasDeadline bool) error {
	if err := ctx.Err(); err != nil {
		return signiaerr.New(signiaerr.JobCanceled).Wrap(err)
	}
	if hasDeadline && time.Now().After(deadline) {
		return signiaerr.New(signiaerr.JobTimeout)
	}
	return nil
}

// Compile runs the full pipeline: normalize the input, run the plugin for
// kind, validate the resulting IR, canonicalize it into a Schema document,
// build its Merkle proof, and assemble the bundle. It observes cancellation
// and policy.TimeoutMS at every yield point, never emitting a partial
// bundle on failure.
func Compile(
	ctx context.Context,
	src normalize.Source,
	kind ir.ArtifactKind,
	policy Policy,
	reg *plugin.Registry,
	pluginRecord bundle.PluginRecord,
	toolVersion string,
	clock Clock,
	rec telemetry.Recorder,
) (result *bundle.Bundle, err error) {
	start := time.Now()
	defer func() {
		rec.ObserveCompile(string(kind), time.Since(start), err)
	}()

	var deadline time.Time
	hasDeadline := policy.TimeoutMS > 0
	if hasDeadline {
		deadline = start.Add(time.Duration(policy.TimeoutMS) * time.Millisecond)
	}

	input, nerr := normalize.Normalize(src, policy.Normalize, policy.Alg)
	if nerr != nil {
		return nil, nerr
	}

	// Yield point: before plugin execution.
	if yerr := yieldPoint(ctx, deadline, hasDeadline); yerr != nil {
		return nil, yerr
	}

	g, perr := plugin.Run(ctx, reg, policy.Host, kind, input, policy.PluginConfig)
	if perr != nil {
		return nil, perr
	}

	// Yield point: after plugin execution.
	if yerr := yieldPoint(ctx, deadline, hasDeadline); yerr != nil {
		return nil, yerr
	}

	if verr := ir.Validate(g); verr != nil {
		return nil, verr
	}

	// Yield point: after IR validation.
	if yerr := yieldPoint(ctx, deadline, hasDeadline); yerr != nil {
		return nil, yerr
	}

	schemaResult, cerr := schema.Canonicalize(g, policy.Alg)
	if cerr != nil {
		return nil, cerr
	}

	// Yield point: after canonicalization.
	if yerr := yieldPoint(ctx, deadline, hasDeadline); yerr != nil {
		return nil, yerr
	}

	proof, merr := merkle.Build(schemaResult.Leaves, policy.Alg)
	if merr != nil {
		return nil, merr
	}

	// Yield point: after proof construction.
	if yerr := yieldPoint(ctx, deadline, hasDeadline); yerr != nil {
		return nil, yerr
	}

	policyHash, herr := policy.Hash()
	if herr != nil {
		return nil, herr
	}

	configHash, cherr := policy.PluginConfig.Hash(policy.Alg)
	if cherr != nil {
		return nil, cherr
	}
	pluginRecord.ConfigHash = configHash

	b, aerr := bundle.Assemble(
		schemaResult,
		proof,
		[]bundle.PluginRecord{pluginRecord},
		bundle.InputDescriptor{Kind: string(kind), Hash: input.Hash},
		policyHash,
		clock.Now().UTC().Format(time.RFC3339),
		toolVersion,
		policy.Alg,
	)
	if aerr != nil {
		return nil, aerr
	}

	rec.SetLeafCount(len(schemaResult.Leaves))
	return b, nil
}

// Verify recomputes and cross-checks a bundle's hashes and structure,
// delegating to verify.Verify and recording the outcome.
func Verify(f verify.Files, alg hashing.Alg, mode verify.Mode, rec telemetry.Recorder) *verify.Report {
	start := time.Now()
	report := verify.Verify(f, alg, mode)

	var failErr error
	modeName := "lenient"
	if mode == verify.Strict {
		modeName = "strict"
	}
	for _, c := range report.Checks {
		if !c.OK {
			failErr = c.Err
			rec.ObserveCheckFailure(c.Name)
			break
		}
	}
	rec.ObserveVerify(modeName, time.Since(start), failErr)
	return report
}

// Summary is Inspect's output: artifact kinds, entity/edge counts, and the
// bundle's hashes, read from an already-compiled bundle without recomputing
// anything.
type Summary struct {
	ArtifactKind     string
	EntityCount      int
	EdgeCount        int
	TypeCount        int
	ConstraintCount  int
	SchemaHash       hashing.Digest
	ProofRoot        hashing.Digest
	LeafCount        int
	ManifestHash     hashing.Digest
	BundleID         string
}

// Inspect reads a bundle's own recorded fields — it never recomputes
// hashes (that is Verify's job) — and reports kinds, counts, and hashes.
func Inspect(doc *schema.Document, m *bundle.Manifest) Summary {
	return Summary{
		ArtifactKind:    doc.Root.Artifact.Kind,
		EntityCount:     len(doc.Root.Graph.Entities),
		EdgeCount:       len(doc.Root.Graph.Edges),
		TypeCount:       len(doc.Root.Types.Definitions),
		ConstraintCount: len(doc.Root.Constraints.Rules),
		SchemaHash:      m.Hashed.SchemaHash,
		ProofRoot:       m.Hashed.ProofRoot,
		LeafCount:       m.Hashed.LeafCount,
		ManifestHash:    m.Hash,
		BundleID:        m.NonHashed.BundleID.String(),
	}
}

// Hash is the thin, direct exposure of the domain-separated digest
// operation: hash(canonical_bytes, domain) → digest.
func Hash(alg hashing.Alg, domain string, canonicalBytes []byte) (hashing.Digest, error) {
	return hashing.H(alg, domain, canonicalBytes)
}
