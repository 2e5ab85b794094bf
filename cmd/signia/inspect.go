package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/signia-dev/signia-core/bundle"
	"github.com/signia-dev/signia-core/compile"
	"github.com/signia-dev/signia-core/schema"
)

func inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <bundle-dir>",
		Short: "Print a compiled bundle's kinds, counts, and hashes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			schemaBytes, err := os.ReadFile(filepath.Join(args[0], schemaFileName))
			if err != nil {
				return fmt.Errorf("read schema.json: %w", err)
			}
			manifestBytes, err := os.ReadFile(filepath.Join(args[0], manifestFileName))
			if err != nil {
				return fmt.Errorf("read manifest.json: %w", err)
			}

			doc, err := schema.ParseDocument(schemaBytes)
			if err != nil {
				return fmt.Errorf("parse schema.json: %w", err)
			}
			m, err := bundle.ParseManifest(manifestBytes)
			if err != nil {
				return fmt.Errorf("parse manifest.json: %w", err)
			}

			s := compile.Inspect(doc, m)
			fmt.Printf("artifact_kind:     %s\n", s.ArtifactKind)
			fmt.Printf("entities:          %d\n", s.EntityCount)
			fmt.Printf("edges:             %d\n", s.EdgeCount)
			fmt.Printf("types:             %d\n", s.TypeCount)
			fmt.Printf("constraints:       %d\n", s.ConstraintCount)
			fmt.Printf("leaf_count:        %d\n", s.LeafCount)
			fmt.Printf("schema_hash:       %s\n", s.SchemaHash.Hex())
			fmt.Printf("proof_root:        %s\n", s.ProofRoot.Hex())
			fmt.Printf("manifest_hash:     %s\n", s.ManifestHash.Hex())
			fmt.Printf("bundle_id:         %s\n", s.BundleID)
			return nil
		},
	}
}
