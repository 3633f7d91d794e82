package main

import (
	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/planner"
)

// peripheralsFlags holds the flags for the peripherals command
type peripheralsFlags struct {
	chunkSize  int
	avgDocSize int
	out        string
}

var peripheralsOpts peripheralsFlags

// peripheralsCmd represents the peripherals command
var peripheralsCmd = &cobra.Command{
	Use:   "peripherals",
	Short: "Enumerate peripheral context configurations for a chunk size",
	RunE: func(cmd *cobra.Command, args []string) error {
		configs := planner.PeripheralConfigs(peripheralsOpts.chunkSize, peripheralsOpts.avgDocSize)
		return writeOutput(cmd.OutOrStdout(), peripheralsOpts.out, configs)
	},
}

func init() {
	rootCmd.AddCommand(peripheralsCmd)

	peripheralsCmd.Flags().IntVar(&peripheralsOpts.chunkSize, "chunk-size", 0, "chunk size in words")
	peripheralsCmd.Flags().IntVar(&peripheralsOpts.avgDocSize, "avg-doc-size", 0, "average document size in words")
	peripheralsCmd.Flags().StringVarP(&peripheralsOpts.out, "out", "o", "json", "output format: yaml, json")
	_ = peripheralsCmd.MarkFlagRequired("chunk-size")
	_ = peripheralsCmd.MarkFlagRequired("avg-doc-size")
}
