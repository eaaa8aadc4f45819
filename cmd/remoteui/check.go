package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aretw0/remoteui/pkg/reload"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Load and test-render the render scripts",
	Long: `Evaluates the scripts in --scripts exactly as a reload would, including the
test render against a fresh state, and reports the kinds they can build.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := setup(cmd)
		if err != nil {
			return err
		}
		if cfg.Scripts == "" {
			return errors.New("check requires --scripts")
		}

		loader := &reload.ScriptLoader{Dir: cfg.Scripts, Timeout: cfg.ScriptTimeout, Logger: logger}
		ctrl, err := reload.NewController(cmd.Context(), loader, reload.WithLogger(logger))
		if err != nil {
			return fmt.Errorf("scripts are invalid: %w", err)
		}

		b := ctrl.Current()
		fmt.Printf("Scripts are valid (%s)\n", b.Source)
		fmt.Printf("Kinds: %s\n", strings.Join(b.Catalog.Kinds(), ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
	addScriptFlags(checkCmd)
}
