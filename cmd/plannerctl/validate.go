package main

import (
	"fmt"

	"github.com/Harshitk-cp/adaptplan/internal/bundle"
	"github.com/Harshitk-cp/adaptplan/internal/service"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <bundle>",
	Short: "Check a bundle without running the planner",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := bundle.Load(args[0])
		if err != nil {
			return err
		}
		if err := service.ValidateDefinition(b.Definition()); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d features, %d controllable, %d reference rows)\n",
			args[0], len(b.FeatureNames), len(b.Controllable), len(b.Reference))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
