package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signia-dev/signia-core/config"
	"github.com/signia-dev/signia-core/ir"
	"github.com/signia-dev/signia-core/plugin"
)

// doctorCmd is a read-only diagnostic, distinct from the four core compiler
// operations: it loads a policy and the builtin plugin registry and reports,
// per artifact kind, whether the resolved plugin's declared wants are
// satisfiable under that policy — without running a compile.
func doctorCmd() *cobra.Command {
	var (
		configPath   string
		allowNetwork bool
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Report whether builtin plugins are satisfiable under a policy, without compiling",
		RunE: func(cmd *cobra.Command, args []string) error {
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

			host := plugin.HostCapabilities{Network: allowNetwork}
			reg := builtinRegistry()

			kinds := []ir.ArtifactKind{
				ir.ArtifactRepo, ir.ArtifactOpenAPI, ir.ArtifactDataset,
				ir.ArtifactWorkflow, ir.ArtifactConfig, ir.ArtifactSpec,
			}

			for _, kind := range kinds {
				p, err := reg.Resolve(kind)
				if err != nil {
					fmt.Printf("%-10s  no plugin registered\n", kind)
					continue
				}
				caps := p.Capabilities()
				if werr := plugin.Wants(host, caps); werr != nil {
					fmt.Printf("%-10s  %s@%s  UNSATISFIABLE: %v\n", kind, p.Name(), p.Version(), werr)
					continue
				}
				fmt.Printf("%-10s  %s@%s  ok\n", kind, p.Name(), p.Version())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configPath, "policy", "", "Policy config file (YAML); defaults to config.DefaultConfig()")
	cmd.Flags().BoolVar(&allowNetwork, "allow-network", false, "Evaluate as if network capability were granted")
	return cmd
}
