package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/MikeSquared-Agency/callboard/internal/transcript"

	"github.com/spf13/cobra"
)

func newTranscriptCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "transcript <file>",
		Short: "Print a caption file as speaker turns",
		Long:  "Reads a WEBVTT caption file (or - for stdin) and prints consecutive cues merged by speaker.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := readInput(cmd, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				turns := transcript.Parse(string(doc))
				if turns == nil {
					turns = []transcript.Turn{}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(turns)
			}
			fmt.Fprintln(out, transcript.Format(string(doc)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit turns as JSON")
	return cmd
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
