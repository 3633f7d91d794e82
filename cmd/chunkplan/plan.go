package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/pipeline"
	"github.com/cicd-ai-toolkit/chunkplan/pkg/planner"
)

// planFlags holds the flags for the plan command
type planFlags struct {
	op          string
	sample      string
	out         string
	seed        uint64
	save        bool
	concurrency int
}

var planOpts planFlags

// planCmd represents the plan command
var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Plan the chunk-level decomposition of one or more operations",
	Long: `Plan asks the configured oracle how each operation should be split,
whether chunks need metadata or surrounding context, and proposes candidate
chunk sizes and context shapes from the data sample.

An operation file holds a single operation or an "operations" list. Several
operations are planned concurrently.`,
	RunE: runPlan,
}

func init() {
	rootCmd.AddCommand(planCmd)

	planCmd.Flags().StringVar(&planOpts.op, "op", "", "operation file (YAML or JSON)")
	planCmd.Flags().StringVar(&planOpts.sample, "sample", "", "data sample (.json, .jsonl or .yaml)")
	planCmd.Flags().StringVarP(&planOpts.out, "out", "o", "yaml", "output format: yaml, json")
	planCmd.Flags().Uint64Var(&planOpts.seed, "seed", 0, "random seed (default: planner.seed from config, 0 = random)")
	planCmd.Flags().BoolVar(&planOpts.save, "save", false, "save plans to the plan store")
	planCmd.Flags().IntVar(&planOpts.concurrency, "concurrency", 0, "operations planned in parallel (default: planner.concurrency from config)")
	_ = planCmd.MarkFlagRequired("op")
	_ = planCmd.MarkFlagRequired("sample")
}

// planReport is one operation's entry in the plan command output.
type planReport struct {
	Operation string        `json:"operation" yaml:"operation"`
	Plan      *planner.Plan `json:"plan,omitempty" yaml:"plan,omitempty"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	if planOpts.out != "yaml" && planOpts.out != "json" {
		return fmt.Errorf("unsupported output format: %s", planOpts.out)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	ops, err := pipeline.LoadOperations(planOpts.op)
	if err != nil {
		return err
	}
	sample, err := pipeline.LoadSample(planOpts.sample)
	if err != nil {
		return err
	}

	seed := cfg.Planner.Seed
	if cmd.Flags().Changed("seed") {
		seed = planOpts.seed
	}
	concurrency := cfg.Planner.Concurrency
	if planOpts.concurrency > 0 {
		concurrency = planOpts.concurrency
	}

	sess, err := openSession(cmd, cfg, seed, planOpts.save)
	if err != nil {
		return err
	}
	defer sess.Close()

	ctx := cmd.Context()
	var reports []planReport
	if len(ops) == 1 {
		plan, err := sess.planner.Plan(ctx, ops[0], sample)
		if err != nil {
			return err
		}
		reports = append(reports, planReport{Operation: ops[0].Name, Plan: plan})
	} else {
		results, err := sess.planner.PlanAll(ctx, ops, sample, seed, concurrency)
		if err != nil {
			return err
		}
		for _, r := range results {
			rep := planReport{Operation: r.Operation, Plan: r.Plan}
			if r.Err != nil {
				rep.Error = r.Err.Error()
			}
			reports = append(reports, rep)
		}
	}

	failed := 0
	for _, rep := range reports {
		if rep.Plan == nil {
			failed++
			continue
		}
		if sess.store != nil {
			if err := sess.store.Save(ctx, rep.Plan); err != nil {
				return err
			}
			sess.logger.Info("plan saved", "plan_id", rep.Plan.ID, "path", cfg.Store.Path)
		}
	}

	var out any = reports
	if len(reports) == 1 {
		out = reports[0].Plan
	}
	if err := writeOutput(cmd.OutOrStdout(), planOpts.out, out); err != nil {
		return err
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d operations failed to plan", failed, len(reports))
	}
	return nil
}

// writeOutput encodes v as YAML or JSON.
func writeOutput(w io.Writer, format string, v any) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
