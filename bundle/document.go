package bundle

import (
	"github.com/google/uuid"

	"github.com/signia-dev/signia-core/canonical"
	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/merkle"
	"github.com/signia-dev/signia-core/schema"
	"github.com/signia-dev/signia-core/signiaerr"
)

// SchemaBytes renders the Schema document for schema.json, including the
// post-hash schema_id field.
func SchemaBytes(doc *schema.Document) ([]byte, error) {
	v, err := schema.DocumentWithSchemaID(doc)
	if err != nil {
		return nil, err
	}
	return canonical.Encode(v)
}

// ManifestBytes renders manifest.json: the hashed view plus manifest_hash
// plus the non-hashed fields, all in one document (the manifest split
// describes which fields feed ManifestHash, not a physical file split).
func ManifestBytes(m *Manifest) ([]byte, error) {
	hashedValue, err := hashedManifestValue(m.Hashed)
	if err != nil {
		return nil, err
	}
	obj := hashedValue.(canonical.Object)
	obj["manifest_hash"] = m.Hash.Hex()
	obj["non_hashed"] = canonical.Object{
		"produced_at":  m.NonHashed.ProducedAt,
		"tool_version": m.NonHashed.ToolVersion,
		"bundle_id":    m.NonHashed.BundleID.String(),
	}
	return canonical.Encode(obj)
}

// ProofVersion is the proof.json format version this package emits and
// understands, mirroring schema.SchemaVersion.
const ProofVersion = "v1"

// OddLeafRule names the rule this tree uses when a level has an odd node
// count. Recorded on the wire per spec's Open Question: the rule is a
// choice the compiler makes, not a fixed constant, so the Verifier must
// read and honor whatever value is stored rather than assuming duplicate_last.
const OddLeafRule = "duplicate_last"

const merkleArity = 2

// leafKindName renders a schema.LeafKindTag as the wire string used in
// leaves.items[*].kind.
func leafKindName(tag schema.LeafKindTag) string {
	switch tag {
	case schema.LeafEntity:
		return "entity"
	case schema.LeafEdge:
		return "edge"
	case schema.LeafType:
		return "type"
	case schema.LeafConstraint:
		return "constraint"
	default:
		return "unknown"
	}
}

// ProofLeafItem is one entry of proof.json's leaves.items[]: the leaf's
// kind/id (for a human or a partial verifier to locate it) alongside its
// hash (what actually participates in the tree).
type ProofLeafItem struct {
	Kind string
	ID   string
	Hash hashing.Digest
}

// ProofInclusionEntry is one entry of proof.json's inclusion_proofs[]: the
// leaf being proven plus its bottom-to-top sibling path.
type ProofInclusionEntry struct {
	LeafID string
	Path   []ProofPathStep
}

type ProofPathStep struct {
	Side string // "left" or "right": which side the sibling sits on
	Hash hashing.Digest
}

// ProofDoc is the on-disk form of proof.json.
type ProofDoc struct {
	ProofVersion    string
	HashDomain      string
	HashFunction    string
	RootHash        hashing.Digest
	RootDomain      string
	OddLeafRule     string
	LeafCount       int
	Items           []ProofLeafItem
	InclusionProofs []ProofInclusionEntry
}

// ProofBytes renders proof.json: the full leaf set (kind, id, hash) plus an
// inclusion proof for every leaf, so a verifier holding only a single leaf's
// projection (not the whole schema) can still confirm its membership against
// root_hash via merkle.Verify.
func ProofBytes(leaves []schema.Leaf, p *merkle.Proof, alg hashing.Alg) ([]byte, error) {
	items := make([]canonical.Value, len(leaves))
	for i, l := range leaves {
		items[i] = canonical.Object{
			"kind": leafKindName(l.KindTag),
			"id":   l.StableID,
			"hash": p.LeafHashes[i].Hex(),
		}
	}

	inclusions := make([]canonical.Value, len(leaves))
	for i, l := range leaves {
		ip, err := p.InclusionProofFor(i)
		if err != nil {
			return nil, err
		}
		path := make([]canonical.Value, len(ip.Siblings))
		pos := i
		for lvl, sib := range ip.Siblings {
			side := "right"
			if pos%2 == 1 {
				side = "left"
			}
			path[lvl] = canonical.Object{"side": side, "hash": sib.Hex()}
			pos /= 2
		}
		inclusions[i] = canonical.Object{"leaf_id": l.StableID, "path": path}
	}

	obj := canonical.Object{
		"proof_version": ProofVersion,
		"hash_domain":   hashing.DomainProof,
		"hash_function": string(alg),
		"root": canonical.Object{
			"root_hash":   p.Root.Hex(),
			"root_domain": hashing.DomainProofRoot,
			"tree": canonical.Object{
				"node_domain":   hashing.DomainMerkleNode,
				"odd_leaf_rule": OddLeafRule,
				"arity":         int64(merkleArity),
			},
		},
		"leaves": canonical.Object{
			"leaf_set": canonical.Object{
				"leaf_ordering": "kind_tag,stable_id",
				"leaf_count":    int64(len(leaves)),
			},
			"items": items,
		},
		"inclusion_proofs": inclusions,
	}
	return canonical.Encode(obj)
}

// ParseProofDoc decodes proof.json's raw bytes, returning the parsed
// document, the recorded root hash, and the ordered leaf hashes recovered
// from leaves.items (in stored order — the Verifier is responsible for
// checking that order matches its own recomputation).
func ParseProofDoc(raw []byte) (*ProofDoc, hashing.Digest, []hashing.Digest, error) {
	v, err := canonical.Parse(raw)
	if err != nil {
		return nil, hashing.Digest{}, nil, signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "not_json").Wrap(err)
	}
	obj, ok := v.(canonical.Object)
	if !ok {
		return nil, hashing.Digest{}, nil, signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "not_object")
	}

	rootObj, _ := obj["root"].(canonical.Object)
	rootHex, _ := rootObj["root_hash"].(string)
	root, err := hashing.ParseHex(rootHex)
	if err != nil {
		return nil, hashing.Digest{}, nil, signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "bad_root_hash")
	}
	rootDomain, _ := rootObj["root_domain"].(string)
	treeObj, _ := rootObj["tree"].(canonical.Object)
	oddLeafRule, _ := treeObj["odd_leaf_rule"].(string)

	leavesObj, _ := obj["leaves"].(canonical.Object)
	leafSetObj, _ := leavesObj["leaf_set"].(canonical.Object)
	leafCount, _ := leafSetObj["leaf_count"].(int64)

	var items []ProofLeafItem
	var hashes []hashing.Digest
	if arr, ok := leavesObj["items"].([]canonical.Value); ok {
		for _, iv := range arr {
			io, ok := iv.(canonical.Object)
			if !ok {
				return nil, hashing.Digest{}, nil, signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "bad_leaf_item")
			}
			hs, _ := io["hash"].(string)
			h, err := hashing.ParseHex(hs)
			if err != nil {
				return nil, hashing.Digest{}, nil, signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "bad_leaf_hash")
			}
			kind, _ := io["kind"].(string)
			id, _ := io["id"].(string)
			items = append(items, ProofLeafItem{Kind: kind, ID: id, Hash: h})
			hashes = append(hashes, h)
		}
	}

	var inclusions []ProofInclusionEntry
	if arr, ok := obj["inclusion_proofs"].([]canonical.Value); ok {
		for _, pv := range arr {
			po, ok := pv.(canonical.Object)
			if !ok {
				return nil, hashing.Digest{}, nil, signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "bad_inclusion_proof")
			}
			leafID, _ := po["leaf_id"].(string)
			var path []ProofPathStep
			if pathArr, ok := po["path"].([]canonical.Value); ok {
				for _, sv := range pathArr {
					so, ok := sv.(canonical.Object)
					if !ok {
						return nil, hashing.Digest{}, nil, signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "bad_inclusion_step")
					}
					side, _ := so["side"].(string)
					hexStr, _ := so["hash"].(string)
					h, err := hashing.ParseHex(hexStr)
					if err != nil {
						return nil, hashing.Digest{}, nil, signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "bad_inclusion_step_hash")
					}
					path = append(path, ProofPathStep{Side: side, Hash: h})
				}
			}
			inclusions = append(inclusions, ProofInclusionEntry{LeafID: leafID, Path: path})
		}
	}

	doc := &ProofDoc{
		ProofVersion:    strField(obj, "proof_version"),
		HashDomain:      strField(obj, "hash_domain"),
		HashFunction:    strField(obj, "hash_function"),
		RootHash:        root,
		RootDomain:      rootDomain,
		OddLeafRule:     oddLeafRule,
		LeafCount:       int(leafCount),
		Items:           items,
		InclusionProofs: inclusions,
	}
	return doc, root, hashes, nil
}

// VerifyInclusionProofs recomputes the root from every stored inclusion
// proof and checks it against the document's root_hash. It reads the
// recorded odd_leaf_rule and rejects any value other than duplicate_last,
// the only rule this Verifier understands in v1. The recorded arity is not
// read: every path is walked as a binary tree.
func VerifyInclusionProofs(doc *ProofDoc, alg hashing.Alg) error {
	if doc.OddLeafRule != OddLeafRule {
		return signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "unsupported_odd_leaf_rule").D("got", doc.OddLeafRule)
	}
	byID := make(map[string]ProofLeafItem, len(doc.Items))
	for _, it := range doc.Items {
		byID[it.ID] = it
	}
	indexByID := make(map[string]int, len(doc.Items))
	for i, it := range doc.Items {
		indexByID[it.ID] = i
	}
	for _, entry := range doc.InclusionProofs {
		item, ok := byID[entry.LeafID]
		if !ok {
			return signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "inclusion_proof_unknown_leaf").D("leaf_id", entry.LeafID)
		}
		siblings := make([]hashing.Digest, len(entry.Path))
		for i, step := range entry.Path {
			siblings[i] = step.Hash
		}
		ip := &merkle.InclusionProof{LeafIndex: indexByID[entry.LeafID], LeafHash: item.Hash, Siblings: siblings}
		ok, err := merkle.Verify(ip, doc.LeafCount, doc.RootHash, alg)
		if err != nil {
			return err
		}
		if !ok {
			return signiaerr.New(signiaerr.BundleHashMismatch).D("kind", "inclusion").D("leaf_id", entry.LeafID)
		}
	}
	return nil
}

// ParseManifest decodes manifest.json's raw bytes back into a Manifest. The
// stored ManifestHash field is carried through as a claim: the Verifier is
// responsible for recomputing it from the hashed fields and comparing, not
// trusting it (check 7).
func ParseManifest(raw []byte) (*Manifest, error) {
	v, err := canonical.Parse(raw)
	if err != nil {
		return nil, signiaerr.New(signiaerr.BundleInvalidManifest).D("reason", "not_json").Wrap(err)
	}
	obj, ok := v.(canonical.Object)
	if !ok {
		return nil, signiaerr.New(signiaerr.BundleInvalidManifest).D("reason", "not_object")
	}

	schemaHash, err := hashing.ParseHex(strField(obj, "schema_hash"))
	if err != nil {
		return nil, signiaerr.New(signiaerr.BundleInvalidManifest).D("reason", "bad_schema_hash")
	}
	proofRoot, err := hashing.ParseHex(strField(obj, "proof_root"))
	if err != nil {
		return nil, signiaerr.New(signiaerr.BundleInvalidManifest).D("reason", "bad_proof_root")
	}
	policyHash, err := hashing.ParseHex(strField(obj, "policy_hash"))
	if err != nil {
		return nil, signiaerr.New(signiaerr.BundleInvalidManifest).D("reason", "bad_policy_hash")
	}
	manifestHash, err := hashing.ParseHex(strField(obj, "manifest_hash"))
	if err != nil {
		return nil, signiaerr.New(signiaerr.BundleInvalidManifest).D("reason", "bad_manifest_hash")
	}
	leafCount, _ := obj["leaf_count"].(int64)

	var plugins []PluginRecord
	if arr, ok := obj["plugins"].([]canonical.Value); ok {
		for _, item := range arr {
			po, ok := item.(canonical.Object)
			if !ok {
				return nil, signiaerr.New(signiaerr.BundleInvalidManifest).D("reason", "bad_plugin_record")
			}
			h, err := hashing.ParseHex(strField(po, "config_hash"))
			if err != nil {
				return nil, signiaerr.New(signiaerr.BundleInvalidManifest).D("reason", "bad_plugin_config_hash")
			}
			plugins = append(plugins, PluginRecord{Name: strField(po, "name"), Version: strField(po, "version"), ConfigHash: h})
		}
	}

	inputObj, _ := obj["input"].(canonical.Object)
	inputHash, err := hashing.ParseHex(strField(inputObj, "hash"))
	if err != nil {
		return nil, signiaerr.New(signiaerr.BundleInvalidManifest).D("reason", "bad_input_hash")
	}

	nonHashedObj, _ := obj["non_hashed"].(canonical.Object)
	bundleID, err := uuid.Parse(strField(nonHashedObj, "bundle_id"))
	if err != nil {
		return nil, signiaerr.New(signiaerr.BundleInvalidManifest).D("reason", "bad_bundle_id")
	}

	return &Manifest{
		Hashed: HashedManifest{
			ManifestVersion: strField(obj, "manifest_version"),
			HashDomain:      strField(obj, "hash_domain"),
			SchemaHash:      schemaHash,
			ProofRoot:       proofRoot,
			LeafCount:       int(leafCount),
			Plugins:         plugins,
			Input:           InputDescriptor{Kind: strField(inputObj, "kind"), Hash: inputHash},
			PolicyHash:      policyHash,
		},
		NonHashed: NonHashedManifest{
			ProducedAt:  strField(nonHashedObj, "produced_at"),
			ToolVersion: strField(nonHashedObj, "tool_version"),
			BundleID:    bundleID,
		},
		Hash: manifestHash,
	}, nil
}

func strField(obj canonical.Object, key string) string {
	if obj == nil {
		return ""
	}
	s, _ := obj[key].(string)
	return s
}
