// Package normalize implements SIGNIA's Input Normalizer: it turns a raw
// input artifact (a directory tree, a single file, an archive member) into
// a deterministic, policy-bounded byte stream before any plugin sees it.
package normalize

import (
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/signiaerr"
)

// SymlinkPolicy selects how the Normalizer treats a symlink it encounters
// while walking a Source.
type SymlinkPolicy string

const (
	// SymlinksDeny rejects every symlink with InputSymlinksDenied.
	SymlinksDeny SymlinkPolicy = "deny"
	// SymlinksResolveWithinRoot dereferences a symlink only if its resolved
	// target is contained in the input root (a canonical-path containment
	// check); a target escaping the root fails with InputArchiveTraversal.
	// Requires the Source to implement RootResolver — a Source with no real
	// filesystem root (an in-memory fixture, an archive reader) cannot
	// support this policy and is rejected the same as SymlinksDeny.
	SymlinksResolveWithinRoot SymlinkPolicy = "resolve-within-root"
)

// Policy bounds what the Normalizer will accept, matching the pipeline's
// sandboxing posture for untrusted input.
type Policy struct {
	MaxFiles     int
	MaxTotalBytes int64
	MaxFileBytes int64
	MaxDepth     int
	Symlinks     SymlinkPolicy // zero value behaves as SymlinksDeny
	IgnoreGlobs  []string // doublestar patterns, relative to the input root
}

// RootResolver is implemented by a Source backed by a real filesystem
// directory, exposing that directory's path so SymlinksResolveWithinRoot can
// canonicalize a symlink target and check it stays inside the root.
type RootResolver interface {
	Root() string
}

// File is one normalized member of the input: its path (forward-slash,
// relative to the root, never containing ".." or a leading slash) and its
// raw content.
type File struct {
	Path    string
	Content []byte
}

// Input is the fully normalized, policy-checked artifact: an ordered file
// list (lexicographic by Path, the traversal order required for
// determinism) and the content hash of the whole set.
type Input struct {
	Files []File
	Hash  hashing.Digest
}

// Source abstracts the raw filesystem (or archive, or in-memory tree) the
// Normalizer walks. fs.FS already gives us this for real directories;
// archive readers implement the same interface over their member list.
type Source interface {
	fs.FS
	Lstat(name string) (fs.FileInfo, error)
}

// Normalize walks src from "." applying policy, returning a deterministic
// Input or a structured error. For each path it checks, in this order: no
// ".." (InputArchiveTraversal), the ignore globs (a match is skipped), depth
// (LimitExceeded), symlinks under policy.Symlinks (InputSymlinksDenied /
// InputArchiveTraversal), file count (LimitExceeded), UTF-8 validity of the
// path (InputEncodingInvalid), and the per-file then total size limits
// (InputTooLarge).
func Normalize(src Source, policy Policy, alg hashing.Alg) (*Input, error) {
	var files []File
	var totalBytes int64

	err := fs.WalkDir(src, ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if p == "." {
			return nil
		}
		if strings.Contains(p, "..") {
			return signiaerr.New(signiaerr.InputArchiveTraversal).D("path", p)
		}
		if ignored(p, policy.IgnoreGlobs) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if depthOf(p) > policy.MaxDepth && policy.MaxDepth > 0 {
			return signiaerr.New(signiaerr.LimitExceeded).D("limit", "max_depth").D("path", p)
		}

		info, err := src.Lstat(p)
		if err != nil {
			return err
		}
		if info.Mode()&fs.ModeSymlink != 0 {
			if serr := checkSymlink(src, policy.Symlinks, p); serr != nil {
				return serr
			}
		}
		if d.IsDir() {
			return nil
		}

		if policy.MaxFiles > 0 && len(files) >= policy.MaxFiles {
			return signiaerr.New(signiaerr.LimitExceeded).D("limit", "max_files")
		}
		if !isValidUTF8Path(p) {
			return signiaerr.New(signiaerr.InputEncodingInvalid).D("path", p)
		}

		content, err := fs.ReadFile(src, p)
		if err != nil {
			return err
		}
		if policy.MaxFileBytes > 0 && int64(len(content)) > policy.MaxFileBytes {
			return signiaerr.New(signiaerr.InputTooLarge).D("limit", "max_file_bytes").D("path", p)
		}
		totalBytes += int64(len(content))
		if policy.MaxTotalBytes > 0 && totalBytes > policy.MaxTotalBytes {
			return signiaerr.New(signiaerr.InputTooLarge).D("limit", "max_total_bytes")
		}

		content = normalizeNewlines(content)
		files = append(files, File{Path: path.Clean(p), Content: content})
		return nil
	})
	if err != nil {
		if e, ok := signiaerr.As(err); ok {
			return nil, e
		}
		return nil, signiaerr.New(signiaerr.Internal).Wrap(err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	digest, err := hashSet(files, alg)
	if err != nil {
		return nil, err
	}

	return &Input{Files: files, Hash: digest}, nil
}

// VerifyPinned checks raw content against a caller-supplied expected hash —
// the "pinned input" primitive used when a policy requires an artifact's
// bytes to match a previously recorded digest before normalization even
// starts (e.g. a dataset snapshot pinned by a prior compile).
func VerifyPinned(raw []byte, expected hashing.Digest, alg hashing.Alg, domain string) error {
	got, err := hashing.H(alg, domain, raw)
	if err != nil {
		return err
	}
	if got != expected {
		return signiaerr.New(signiaerr.InputChecksumMismatch).D("expected", expected.Hex()).D("got", got.Hex())
	}
	return nil
}

// checkSymlink enforces policy against the symlink at p (relative to src's
// root). SymlinksResolveWithinRoot requires src to implement RootResolver so
// the target can be canonicalized with filepath.EvalSymlinks and checked for
// containment; any other case (deny, or resolve-within-root against a Source
// with no real root) rejects the symlink outright.
func checkSymlink(src Source, policy SymlinkPolicy, p string) error {
	if policy != SymlinksResolveWithinRoot {
		return signiaerr.New(signiaerr.InputSymlinksDenied).D("path", p)
	}
	rr, ok := src.(RootResolver)
	if !ok {
		return signiaerr.New(signiaerr.InputSymlinksDenied).D("path", p)
	}
	root, err := filepath.Abs(rr.Root())
	if err != nil {
		return signiaerr.New(signiaerr.InputSymlinksDenied).D("path", p)
	}
	target := filepath.Join(root, filepath.FromSlash(p))
	resolved, err := filepath.EvalSymlinks(target)
	if err != nil {
		return signiaerr.New(signiaerr.InputArchiveTraversal).D("path", p)
	}
	rootClean := filepath.Clean(root)
	if resolved != rootClean && !strings.HasPrefix(resolved, rootClean+string(filepath.Separator)) {
		return signiaerr.New(signiaerr.InputArchiveTraversal).D("path", p)
	}
	return nil
}

func depthOf(p string) int {
	return strings.Count(p, "/") + 1
}

func ignored(p string, globs []string) bool {
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, p); ok {
			return true
		}
	}
	return false
}

func isValidUTF8Path(p string) bool {
	for _, r := range p {
		if r == 0xFFFD {
			return false
		}
	}
	return true
}

// normalizeNewlines canonicalizes CRLF and bare CR to LF so the same
// artifact checked out on different platforms hashes identically.
func normalizeNewlines(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '\r' {
			out = append(out, '\n')
			if i+1 < len(b) && b[i+1] == '\n' {
				i++
			}
			continue
		}
		out = append(out, b[i])
	}
	return out
}

func hashSet(files []File, alg hashing.Alg) (hashing.Digest, error) {
	var payload []byte
	for _, f := range files {
		payload = append(payload, []byte(f.Path)...)
		payload = append(payload, 0)
		h, err := hashing.H(alg, hashing.DomainSchema, f.Content)
		if err != nil {
			return hashing.Digest{}, err
		}
		payload = append(payload, h[:]...)
	}
	return hashing.H(alg, hashing.DomainSchema, payload)
}
