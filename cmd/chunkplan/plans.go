package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cicd-ai-toolkit/chunkplan/pkg/store"
)

// plansFlags holds the flags for the plans commands
type plansFlags struct {
	operation string
	limit     int
	out       string
}

var plansOpts plansFlags

// plansCmd groups commands over the plan store.
var plansCmd = &cobra.Command{
	Use:   "plans",
	Short: "Inspect saved plans",
}

var plansListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved plans, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		plans, err := st.List(cmd.Context(), plansOpts.operation, plansOpts.limit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tOPERATION\tSPLIT KEY\tCREATED")
		for _, p := range plans {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", p.ID, p.Operation, p.SplitKey, p.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var plansShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Print a saved plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		defer st.Close()

		plan, err := st.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return writeOutput(cmd.OutOrStdout(), plansOpts.out, plan)
	},
}

func init() {
	rootCmd.AddCommand(plansCmd)
	plansCmd.AddCommand(plansListCmd, plansShowCmd)

	plansListCmd.Flags().StringVar(&plansOpts.operation, "operation", "", "only list plans for this operation")
	plansListCmd.Flags().IntVarP(&plansOpts.limit, "limit", "n", 20, "maximum number of plans (0 = all)")
	plansShowCmd.Flags().StringVarP(&plansOpts.out, "out", "o", "yaml", "output format: yaml, json")
}

func openStore() (*store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.Store.Path)
}
