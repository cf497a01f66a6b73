package commands

import (
	"github.com/spf13/cobra"

	"github.com/learnadoodle/planner/internal/syllabus"
)

func chunkCmd() *cobra.Command {
	var startUnit int
	cmd := &cobra.Command{
		Use:   "chunk [file]",
		Short: "Split a syllabus into lesson-plan steps",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return render(cmd, syllabus.Chunk(text, startUnit))
		},
	}
	cmd.Flags().IntVar(&startUnit, "start-unit", 1, "order number of the first step")
	return cmd
}

func sectionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sections [file]",
		Short: "Parse a syllabus outline into units and lessons",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			return render(cmd, syllabus.Sections(text))
		},
	}
}
