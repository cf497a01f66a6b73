// Package commands implements the doodle CLI: offline access to the syllabus
// chunker, the outline parser and the week arithmetic.
package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

// Execute runs the root command.
func Execute() error {
	return NewRoot().Execute()
}

// NewRoot builds the command tree.
func NewRoot() *cobra.Command {
	root := &cobra.Command{
		Use:           "doodle",
		Short:         "Homeschool planner tools",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if f := outputFormat(cmd); f != "json" && f != "yaml" {
				return fmt.Errorf("unknown output format %q (want json or yaml)", f)
			}
			return nil
		},
	}

	root.PersistentFlags().StringP("output", "o", "json", "output format: json or yaml")

	root.AddCommand(chunkCmd(), sectionsCmd(), weekCmd(), recoveryCmd())
	return root
}

// readInput reads the named file, or stdin when no file (or "-") is given.
func readInput(cmd *cobra.Command, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func outputFormat(cmd *cobra.Command) string {
	if f := cmd.Flag("output"); f != nil {
		return f.Value.String()
	}
	return "json"
}

func render(cmd *cobra.Command, v any) error {
	w := cmd.OutOrStdout()
	if outputFormat(cmd) == "yaml" {
		b, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
