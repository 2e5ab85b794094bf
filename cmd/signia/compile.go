package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signia-dev/signia-core/bundle"
	"github.com/signia-dev/signia-core/compile"
	"github.com/signia-dev/signia-core/config"
	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/plugin"
	"github.com/signia-dev/signia-core/plugin/builtin/configkind"
	"github.com/signia-dev/signia-core/plugin/builtin/dataset"
	"github.com/signia-dev/signia-core/plugin/builtin/openapi"
	"github.com/signia-dev/signia-core/plugin/builtin/repo"
	"github.com/signia-dev/signia-core/plugin/builtin/spec"
	"github.com/signia-dev/signia-core/plugin/builtin/workflow"
)

const toolVersion = appName + "/" + Version

func builtinRegistry() *plugin.Registry {
	reg := plugin.NewRegistry()
	reg.Register(repo.New())
	reg.Register(openapi.New())
	reg.Register(dataset.New())
	reg.Register(workflow.New())
	reg.Register(configkind.New())
	reg.Register(spec.New())
	return reg
}

func compileCmd() *cobra.Command {
	var (
		kindFlag     string
		configPath   string
		outDir       string
		timeoutMS    int64
		allowNetwork bool
	)

	cmd := &cobra.Command{
		Use:   "compile <input-path>",
		Short: "Compile an artifact into a content-addressed bundle",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := ir.ArtifactKind(kindFlag)
			if kind == "" {
				return fmt.Errorf("--kind is required")
			}

			cfg := config.DefaultConfig()
			if configPath != "" {
				loaded, err := config.LoadFromFile(configPath)
				if err != nil {
					return fmt.Errorf("load policy config: %w", err)
				}
				cfg = loaded
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid policy config: %w", err)
			}

			pluginConfig, err := pluginConfigFrom(cfg.Plugins[kindFlag])
			if err != nil {
				return fmt.Errorf("plugin config for %q: %w", kindFlag, err)
			}

			policy := compile.Policy{
				Normalize:    cfg.NormalizePolicy(),
				PluginConfig: pluginConfig,
				Host:         plugin.HostCapabilities{Network: allowNetwork},
				Alg:          hashing.Sha256,
				TimeoutMS:    timeoutMS,
			}

			rec := newRecorder()
			b, err := compile.Compile(
				context.Background(),
				newDirSource(args[0]),
				kind,
				policy,
				builtinRegistry(),
				bundle.PluginRecord{Name: "builtin-" + kindFlag, Version: "v1"},
				toolVersion,
				compile.SystemClock{},
				rec,
			)
			if err != nil {
				return fmt.Errorf("compile failed: %w", err)
			}

			if outDir == "" {
				outDir = "bundle"
			}
			if err := writeBundle(outDir, b, policy.Alg); err != nil {
				return err
			}

			fmt.Printf("schema_hash=%s\n", b.Manifest.Hashed.SchemaHash.Hex())
			fmt.Printf("proof_root=%s\n", b.Manifest.Hashed.ProofRoot.Hex())
			fmt.Printf("bundle_id=%s\n", b.Manifest.NonHashed.BundleID.String())
			fmt.Printf("wrote %s\n", outDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&kindFlag, "kind", "", "Artifact kind (repo, openapi, dataset, workflow, config, spec)")
	cmd.Flags().StringVar(&configPath, "policy", "", "Policy config file (YAML); defaults to config.DefaultConfig()")
	cmd.Flags().StringVar(&outDir, "out", "bundle", "Output directory for schema.json/manifest.json/proof.json")
	cmd.Flags().Int64Var(&timeoutMS, "timeout-ms", 0, "Wall-clock compile budget in milliseconds (0 = unbounded)")
	cmd.Flags().BoolVar(&allowNetwork, "allow-network", false, "Grant the plugin network capability, if it wants one")

	return cmd
}
