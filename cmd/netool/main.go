// Command netool inspects neural evaluation trees stored as JSON.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "netool",
	Short: "Inspect neural evaluation trees",
	Long: `netool loads a neural evaluation tree from its JSON form and
reconstructs impedance matrices, segregation indices, compartments and
reduced trees from it.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
