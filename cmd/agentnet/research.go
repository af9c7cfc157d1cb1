package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentnet/network"
	"github.com/hupe1980/agentnet/networks/research"
)

const defaultGoal = "AI Agentで著名な方を調査してください"

var researchCmd = &cobra.Command{
	Use:   "research [goal]",
	Short: "Run the research network on a goal",
	Long: `Splits the goal across the web search, data analysis and content
creation agents and prints the synthesized answer.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runResearch,
}

func init() {
	researchCmd.Flags().Bool("details", false, "Print each sub-task result before the answer")
	rootCmd.AddCommand(researchCmd)
}

func runResearch(cmd *cobra.Command, args []string) error {
	goal := defaultGoal
	if len(args) == 1 && strings.TrimSpace(args[0]) != "" {
		goal = args[0]
	}
	details, _ := cmd.Flags().GetBool("details")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, productionDeps(true))
	if err != nil {
		return err
	}
	defer a.shutdown()

	res, err := a.registry.Generate(cmd.Context(), research.NetworkName, goal)
	if err != nil {
		return err
	}

	printResearch(cmd.OutOrStdout(), res, details)
	return nil
}

func printResearch(w io.Writer, res *network.Result, details bool) {
	if details {
		for _, st := range res.SubTasks {
			status := "ok"
			if !st.Available {
				status = "unavailable"
			}
			fmt.Fprintf(w, "[%s] %s (%s, %s)\n", st.SubTask.Agent, st.SubTask.Description, status, st.Duration.Round(time.Millisecond))
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintln(w, res.Text)
}
