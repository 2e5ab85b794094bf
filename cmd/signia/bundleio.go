package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/signia-dev/signia-core/bundle"
	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/verify"
)

const (
	schemaFileName   = "schema.json"
	manifestFileName = "manifest.json"
	proofFileName    = "proof.json"
)

// writeBundle renders b's three files to dir, creating it if necessary.
func writeBundle(dir string, b *bundle.Bundle, alg hashing.Alg) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create bundle directory: %w", err)
	}

	schemaBytes, err := bundle.SchemaBytes(b.Schema)
	if err != nil {
		return fmt.Errorf("render schema.json: %w", err)
	}
	manifestBytes, err := bundle.ManifestBytes(b.Manifest)
	if err != nil {
		return fmt.Errorf("render manifest.json: %w", err)
	}
	proofBytes, err := bundle.ProofBytes(b.Leaves, b.Proof, alg)
	if err != nil {
		return fmt.Errorf("render proof.json: %w", err)
	}

	// Written to temporary names first and renamed into place last, so no
	// file ever appears under its final name half-written. The three renames
	// are separate operations: a reader that looks during the rename loop can
	// see some new files beside old or missing ones.
	names := []string{schemaFileName, manifestFileName, proofFileName}
	datas := [][]byte{schemaBytes, manifestBytes, proofBytes}
	tmpNames := make([]string, len(names))
	for i, name := range names {
		tmp := filepath.Join(dir, "."+name+".tmp")
		if err := os.WriteFile(tmp, datas[i], 0644); err != nil {
			for _, t := range tmpNames[:i] {
				os.Remove(t)
			}
			os.Remove(tmp)
			return fmt.Errorf("write %s: %w", name, err)
		}
		tmpNames[i] = tmp
	}
	for i, name := range names {
		if err := os.Rename(tmpNames[i], filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("rename %s into place: %w", name, err)
		}
	}
	return nil
}

// readBundleFiles reads a bundle directory's three files into verify.Files.
func readBundleFiles(dir string) (verify.Files, error) {
	var f verify.Files
	schemaBytes, err := os.ReadFile(filepath.Join(dir, schemaFileName))
	if err != nil {
		return f, fmt.Errorf("read schema.json: %w", err)
	}
	manifestBytes, err := os.ReadFile(filepath.Join(dir, manifestFileName))
	if err != nil {
		return f, fmt.Errorf("read manifest.json: %w", err)
	}
	proofBytes, err := os.ReadFile(filepath.Join(dir, proofFileName))
	if err != nil {
		return f, fmt.Errorf("read proof.json: %w", err)
	}
	return verify.Files{Schema: schemaBytes, Manifest: manifestBytes, Proof: proofBytes}, nil
}
