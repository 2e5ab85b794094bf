package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/signia-dev/signia-core/compile"
	"github.com/signia-dev/signia-core/hashing"
	"github.com/signia-dev/signia-core/verify"
)

func verifyCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "verify <bundle-dir>",
		Short: "Verify a compiled bundle's hashes and structure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			files, err := readBundleFiles(args[0])
			if err != nil {
				return err
			}

			mode := verify.Lenient
			if strict {
				mode = verify.Strict
			}

			rec := newRecorder()
			report := compile.Verify(files, hashing.Sha256, mode, rec)

			for _, c := range report.Checks {
				status := "ok"
				if !c.OK {
					status = "FAILED"
				}
				fmt.Printf("%-30s %s\n", c.Name, status)
				if !c.OK && c.Err != nil {
					fmt.Printf("  %v\n", c.Err)
				}
			}

			if !report.OK {
				return fmt.Errorf("verification failed")
			}
			fmt.Println("bundle OK")
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Run strict-mode checks in addition to the standard seven")
	return cmd
}
