package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "hetero-screen",
	Short: "Generate and screen crystal interface geometries",
	Long: `hetero-screen builds heterostructure geometries between two crystal
surfaces: it matches the lateral lattices with a Zur-McGill search, assembles
interface candidates over terminations and lateral registries, and ranks them
by approximate work of adhesion with a pluggable calculator backend.`,
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
