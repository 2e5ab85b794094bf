package normalize

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/signiaerr"
)

type testSource struct {
	fstest.MapFS
}

func (s testSource) Lstat(name string) (fs.FileInfo, error) {
	return fs.Lstat(s.MapFS, name)
}

func sourceWith(files map[string]string) testSource {
	m := fstest.MapFS{}
	for name, content := range files {
		m[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return testSource{m}
}

func TestNormalize_OrdersFilesLexicographically(t *testing.T) {
	src := sourceWith(map[string]string{"b.txt": "b", "a.txt": "a"})
	in, err := Normalize(src, Policy{}, hashing.Sha256)
	require.NoError(t, err)
	require.Len(t, in.Files, 2)
	assert.Equal(t, "a.txt", in.Files[0].Path)
	assert.Equal(t, "b.txt", in.Files[1].Path)
}

func TestNormalize_NormalizesCRLF(t *testing.T) {
	src := sourceWith(map[string]string{"f.txt": "line1\r\nline2\r"})
	in, err := Normalize(src, Policy{}, hashing.Sha256)
	require.NoError(t, err)
	assert.Equal(t, "line1\nline2\n", string(in.Files[0].Content))
}

func TestNormalize_RejectsOversizeFile(t *testing.T) {
	src := sourceWith(map[string]string{"big.txt": "0123456789"})
	_, err := Normalize(src, Policy{MaxFileBytes: 5}, hashing.Sha256)
	require.Error(t, err)
	e, ok := signiaerr.As(err)
	require.True(t, ok)
	assert.Equal(t, signiaerr.InputTooLarge, e.Kind)
}

func TestNormalize_RejectsTooManyFiles(t *testing.T) {
	src := sourceWith(map[string]string{"a.txt": "a", "b.txt": "b"})
	_, err := Normalize(src, Policy{MaxFiles: 1}, hashing.Sha256)
	require.Error(t, err)
	e, _ := signiaerr.As(err)
	assert.Equal(t, signiaerr.LimitExceeded, e.Kind)
}

func TestNormalize_AppliesIgnoreGlobs(t *testing.T) {
	src := sourceWith(map[string]string{"keep.go": "x", "vendor/skip.go": "y"})
	in, err := Normalize(src, Policy{IgnoreGlobs: []string{"vendor/**"}}, hashing.Sha256)
	require.NoError(t, err)
	require.Len(t, in.Files, 1)
	assert.Equal(t, "keep.go", in.Files[0].Path)
}

func TestNormalize_Deterministic(t *testing.T) {
	src := sourceWith(map[string]string{"a.txt": "a", "b.txt": "b"})
	a, err := Normalize(src, Policy{}, hashing.Sha256)
	require.NoError(t, err)
	b, err := Normalize(src, Policy{}, hashing.Sha256)
	require.NoError(t, err)
	assert.Equal(t, a.Hash, b.Hash)
}

func TestVerifyPinned_RejectsMismatch(t *testing.T) {
	err := VerifyPinned([]byte("data"), hashing.Digest{1, 2, 3}, hashing.Sha256, hashing.DomainSchema)
	require.Error(t, err)
	e, _ := signiaerr.As(err)
	assert.Equal(t, signiaerr.InputChecksumMismatch, e.Kind)
}

// dirTestSource is a real-filesystem-backed Source implementing RootResolver,
// used to exercise SymlinksResolveWithinRoot (which requires an actual root
// to canonicalize symlink targets against).
type dirTestSource struct {
	root string
	fsys fs.FS
}

func newDirTestSource(root string) dirTestSource {
	return dirTestSource{root: root, fsys: os.DirFS(root)}
}

func (s dirTestSource) Open(name string) (fs.File, error) { return s.fsys.Open(name) }

func (s dirTestSource) Lstat(name string) (fs.FileInfo, error) {
	if name == "." {
		return os.Lstat(s.root)
	}
	return os.Lstat(filepath.Join(s.root, name))
}

func (s dirTestSource) Root() string { return s.root }

func TestNormalize_DenyRejectsAnySymlink(t *testing.T) {
	src := sourceWith(map[string]string{"a.txt": "a"})
	src.MapFS["link"] = &fstest.MapFile{Mode: fs.ModeSymlink}
	_, err := Normalize(src, Policy{Symlinks: SymlinksDeny}, hashing.Sha256)
	require.Error(t, err)
	e, ok := signiaerr.As(err)
	require.True(t, ok)
	assert.Equal(t, signiaerr.InputSymlinksDenied, e.Kind)
}

func TestNormalize_ResolveWithinRootRejectsUnsupportedSource(t *testing.T) {
	src := sourceWith(map[string]string{"a.txt": "a"})
	src.MapFS["link"] = &fstest.MapFile{Mode: fs.ModeSymlink}
	_, err := Normalize(src, Policy{Symlinks: SymlinksResolveWithinRoot}, hashing.Sha256)
	require.Error(t, err)
	e, ok := signiaerr.As(err)
	require.True(t, ok)
	assert.Equal(t, signiaerr.InputSymlinksDenied, e.Kind)
}

func TestNormalize_ResolveWithinRootAllowsContainedTarget(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "real.txt"), []byte("hi"), 0644))
	require.NoError(t, os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")))

	src := newDirTestSource(root)
	in, err := Normalize(src, Policy{Symlinks: SymlinksResolveWithinRoot}, hashing.Sha256)
	require.NoError(t, err)
	var paths []string
	for _, f := range in.Files {
		paths = append(paths, f.Path)
	}
	assert.Contains(t, paths, "link.txt")
}

func TestNormalize_ResolveWithinRootRejectsEscapingTarget(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret.txt"), []byte("hi"), 0644))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret.txt"), filepath.Join(root, "escape.txt")))

	src := newDirTestSource(root)
	_, err := Normalize(src, Policy{Symlinks: SymlinksResolveWithinRoot}, hashing.Sha256)
	require.Error(t, err)
	e, ok := signiaerr.As(err)
	require.True(t, ok)
	assert.Equal(t, signiaerr.InputArchiveTraversal, e.Kind)
}
