package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/planner"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/sample"
)

// sizesFlags holds the flags for the sizes command
type sizesFlags struct {
	sample   string
	splitKey string
	count    int
}

var sizesOpts sizesFlags

// sizesCmd represents the sizes command
var sizesCmd = &cobra.Command{
	Use:   "sizes",
	Short: "Propose candidate chunk sizes for a split key",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := pipeline.LoadSample(sizesOpts.sample)
		if err != nil {
			return err
		}
		sizes := planner.ChunkSizes(sizesOpts.splitKey, s, sizesOpts.count)
		avg := sample.AverageWords(s, sizesOpts.splitKey)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "split key: %s\n", sizesOpts.splitKey)
		fmt.Fprintf(out, "records: %d, average words: %.1f\n", len(s), avg)
		for _, size := range sizes {
			fmt.Fprintf(out, "  %d\n", size)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sizesCmd)

	sizesCmd.Flags().StringVar(&sizesOpts.sample, "sample", "", "data sample (.json, .jsonl or .yaml)")
	sizesCmd.Flags().StringVar(&sizesOpts.splitKey, "split-key", "", "record field holding the document text")
	sizesCmd.Flags().IntVarP(&sizesOpts.count, "count", "n", planner.DefaultNumChunkSizes, "number of sizes to propose")
	_ = sizesCmd.MarkFlagRequired("sample")
	_ = sizesCmd.MarkFlagRequired("split-key")
}
