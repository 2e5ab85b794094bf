package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/signia-dev/signia-core/compile"
	"github.com/signia-dev/signia-core/hashing"
)

func hashCmd() *cobra.Command {
	var domain string

	cmd := &cobra.Command{
		Use:   "hash <file>",
		Short: "Hash canonical bytes under a given domain tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if domain == "" {
				return fmt.Errorf("--domain is required")
			}
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			digest, err := compile.Hash(hashing.Sha256, domain, data)
			if err != nil {
				return err
			}
			fmt.Println(digest.Hex())
			return nil
		},
	}

	cmd.Flags().StringVar(&domain, "domain", "", "Domain separation tag (e.g. signia:schema:v1)")
	return cmd
}
