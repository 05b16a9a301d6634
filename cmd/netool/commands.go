package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/chazu/nevtree/pkg/nettree"
)

var (
	izThreshold float64
	reduceLocs  string
)

var matrixCmd = &cobra.Command{
	Use:   "matrix <net.json>",
	Short: "Print the reconstructed impedance matrix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadTree(args[0])
		if err != nil {
			return err
		}
		printMatrix(tree.ImpedanceMatrix())
		return nil
	},
}

var izCmd = &cobra.Command{
	Use:   "iz <net.json>",
	Short: "Print the segregation index matrix",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadTree(args[0])
		if err != nil {
			return err
		}
		printMatrix(tree.IzMatrix())
		return nil
	},
}

var compartmentsCmd = &cobra.Command{
	Use:   "compartments <net.json>",
	Short: "Print compartment membership at a segregation threshold",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadTree(args[0])
		if err != nil {
			return err
		}
		comps, err := tree.Compartmentalization(izThreshold)
		if err != nil {
			return err
		}
		sort.Slice(comps, func(i, j int) bool { return comps[i][0] < comps[j][0] })
		for i, c := range comps {
			fmt.Printf("compartment %d: nodes %v\n", i, c)
		}
		if len(comps) == 0 {
			fmt.Printf("no compartments at iz threshold %g\n", izThreshold)
		}
		return nil
	},
}

var reduceCmd = &cobra.Command{
	Use:   "reduce <net.json>",
	Short: "Reduce the tree to a subset of locations and print it as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tree, err := loadTree(args[0])
		if err != nil {
			return err
		}
		locs, err := parseLocs(reduceLocs)
		if err != nil {
			return err
		}
		reduced, err := tree.ReducedTree(locs, nettree.IndexingNET)
		if err != nil {
			return err
		}
		out, err := json.MarshalIndent(reduced, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func init() {
	compartmentsCmd.Flags().Float64Var(&izThreshold, "iz", 1, "segregation index threshold")
	reduceCmd.Flags().StringVar(&reduceLocs, "locs", "", "comma-separated location indices to keep")
	if err := reduceCmd.MarkFlagRequired("locs"); err != nil {
		panic(err)
	}

	rootCmd.AddCommand(matrixCmd, izCmd, compartmentsCmd, reduceCmd)
}

// loadTree reads a JSON tree from path and validates it. Validation
// findings go to stderr; error findings abort the command.
func loadTree(path string) (*nettree.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tree nettree.Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	fatal := false
	for _, f := range tree.Validate() {
		fmt.Fprintf(os.Stderr, "%s: %s\n", path, f.Error())
		if f.Severity == nettree.SeverityError {
			fatal = true
		}
	}
	if fatal {
		return nil, fmt.Errorf("%s: tree failed validation", path)
	}
	return &tree, nil
}

func parseLocs(s string) ([]int, error) {
	var locs []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid location index %q", part)
		}
		locs = append(locs, idx)
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("no location indices in %q", s)
	}
	return locs, nil
}

func printMatrix(m mat.Matrix) {
	fmt.Println(mat.Formatted(m, mat.Prefix(""), mat.Squeeze()))
}
