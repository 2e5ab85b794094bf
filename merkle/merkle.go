// Package merkle implements SIGNIA's Merkle Proof Builder: one leaf per
// entity/edge/type/constraint, ordered by (leaf_kind_tag, stable_id),
// folded into a binary tree whose root is wrapped with the leaf count
// under the proof-root domain.
package merkle

import (
	"encoding/binary"

	"github.com/signia-dev/signia-core/canonical"
	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/schema"
	"github.com/signia-dev/signia-core/signiaerr"
)

// Proof is the built Merkle tree: the ordered leaf hashes, the internal
// levels (level 0 is the leaves themselves), and the wrapped root.
type Proof struct {
	LeafHashes []hashing.Digest
	Levels     [][]hashing.Digest // Levels[0] == LeafHashes
	Root       hashing.Digest
}

// InclusionProof is the sibling-hash path from one leaf up to the root,
// sufficient for a verifier to recompute Root from LeafHash without the
// full leaf set.
type InclusionProof struct {
	LeafIndex int
	LeafHash  hashing.Digest
	Siblings  []hashing.Digest // bottom to top; sibling at each level
}

// Build hashes each leaf under its kind-specific domain, folds the resulting
// hashes into a binary tree (duplicate-last rule for an odd node count at
// any level), and wraps the final root with the leaf count under
// signia:proof-root:v1.
func Build(leaves []schema.Leaf, alg hashing.Alg) (*Proof, error) {
	leafHashes := make([]hashing.Digest, len(leaves))
	for i, leaf := range leaves {
		h, err := leafHash(leaf, alg)
		if err != nil {
			return nil, err
		}
		leafHashes[i] = h
	}

	if len(leafHashes) == 0 {
		root, err := hashing.H(alg, hashing.DomainProofRoot, make([]byte, 32))
		if err != nil {
			return nil, err
		}
		return &Proof{LeafHashes: nil, Levels: [][]hashing.Digest{{}}, Root: root}, nil
	}

	levels := [][]hashing.Digest{leafHashes}
	current := leafHashes
	for len(current) > 1 {
		next := make([]hashing.Digest, 0, (len(current)+1)/2)
		for i := 0; i < len(current); i += 2 {
			left := current[i]
			right := left
			if i+1 < len(current) {
				right = current[i+1]
			}
			parent, err := nodeHash(left, right, alg)
			if err != nil {
				return nil, err
			}
			next = append(next, parent)
		}
		levels = append(levels, next)
		current = next
	}

	root, err := wrapRoot(current[0], len(leafHashes), alg)
	if err != nil {
		return nil, err
	}
	return &Proof{LeafHashes: leafHashes, Levels: levels, Root: root}, nil
}

// InclusionProofFor extracts the sibling path for the leaf at index idx.
func (p *Proof) InclusionProofFor(idx int) (*InclusionProof, error) {
	if idx < 0 || idx >= len(p.LeafHashes) {
		return nil, signiaerr.New(signiaerr.BundleInvalidProof).D("reason", "leaf_index_out_of_range")
	}
	ip := &InclusionProof{LeafIndex: idx, LeafHash: p.LeafHashes[idx]}
	pos := idx
	for level := 0; level < len(p.Levels)-1; level++ {
		nodes := p.Levels[level]
		siblingPos := pos ^ 1
		if siblingPos >= len(nodes) {
			siblingPos = pos // odd tail: sibling is the duplicated self
		}
		ip.Siblings = append(ip.Siblings, nodes[siblingPos])
		pos /= 2
	}
	return ip, nil
}

// Verify recomputes the root from an InclusionProof's leaf hash and sibling
// path and compares it to want.
func Verify(ip *InclusionProof, leafCount int, want hashing.Digest, alg hashing.Alg) (bool, error) {
	current := ip.LeafHash
	pos := ip.LeafIndex
	for _, sibling := range ip.Siblings {
		var left, right hashing.Digest
		if pos%2 == 0 {
			left, right = current, sibling
		} else {
			left, right = sibling, current
		}
		h, err := nodeHash(left, right, alg)
		if err != nil {
			return false, err
		}
		current = h
		pos /= 2
	}
	root, err := wrapRoot(current, leafCount, alg)
	if err != nil {
		return false, err
	}
	return root == want, nil
}

func leafHash(leaf schema.Leaf, alg hashing.Alg) (hashing.Digest, error) {
	payload, err := canonical.Encode(leaf.Projection)
	if err != nil {
		return hashing.Digest{}, signiaerr.New(signiaerr.CanonicalizationFailed).Wrap(err)
	}
	domain, err := domainFor(leaf.KindTag)
	if err != nil {
		return hashing.Digest{}, err
	}
	return hashing.H(alg, domain, payload)
}

func domainFor(tag schema.LeafKindTag) (string, error) {
	switch tag {
	case schema.LeafEntity:
		return hashing.DomainLeafEntity, nil
	case schema.LeafEdge:
		return hashing.DomainLeafEdge, nil
	case schema.LeafType:
		return hashing.DomainLeafType, nil
	case schema.LeafConstraint:
		return hashing.DomainLeafConstraint, nil
	default:
		return "", signiaerr.New(signiaerr.IrInvalid).D("rule", "unknown_leaf_kind_tag")
	}
}

func nodeHash(left, right hashing.Digest, alg hashing.Alg) (hashing.Digest, error) {
	payload := make([]byte, 0, 64)
	payload = append(payload, left[:]...)
	payload = append(payload, right[:]...)
	return hashing.H(alg, hashing.DomainMerkleNode, payload)
}

// wrapRoot implements root_hash = H(signia:proof-root:v1, merkle_root_bytes
// || uint64_be(leaf_count)).
func wrapRoot(inner hashing.Digest, leafCount int, alg hashing.Alg) (hashing.Digest, error) {
	payload := make([]byte, 0, 32+8)
	payload = append(payload, inner[:]...)
	count := make([]byte, 8)
	binary.BigEndian.PutUint64(count, uint64(leafCount))
	payload = append(payload, count...)
	return hashing.H(alg, hashing.DomainProofRoot, payload)
}
