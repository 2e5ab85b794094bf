package main

import (
	"io/fs"
	"os"
)

// dirSource adapts a real OS directory to normalize.Source. Unlike
// fs.DirFS's own Stat, Lstat must report symlinks as symlinks rather than
// following them, since the Normalizer's own traversal-safety check is what
// decides whether to follow or reject them.
type dirSource struct {
	root string
	fsys fs.FS
}

func newDirSource(root string) dirSource {
	return dirSource{root: root, fsys: os.DirFS(root)}
}

func (s dirSource) Open(name string) (fs.File, error) { return s.fsys.Open(name) }

func (s dirSource) Lstat(name string) (fs.FileInfo, error) {
	if name == "." {
		return os.Lstat(s.root)
	}
	return os.Lstat(s.root + "/" + name)
}

// Root implements normalize.RootResolver, letting the Normalizer's
// resolve-within-root symlink policy canonicalize a symlink target against
// this directory.
func (s dirSource) Root() string { return s.root }
