package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentnet/workflow"
	"github.com/hupe1980/agentnet/workflows/weather"
)

var weatherCmd = &cobra.Command{
	Use:   "weather",
	Short: "Plan activities from a city's weather forecast",
	RunE:  runWeather,
}

func init() {
	weatherCmd.Flags().String("city", "", "City to plan activities for")
	_ = weatherCmd.MarkFlagRequired("city")
	rootCmd.AddCommand(weatherCmd)
}

func runWeather(cmd *cobra.Command, _ []string) error {
	city, _ := cmd.Flags().GetString("city")

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	a, err := newApp(cfg, productionDeps(false))
	if err != nil {
		return err
	}
	defer a.shutdown()

	return planWeather(cmd.Context(), a, city, cmd.OutOrStdout())
}

// planWeather runs the weather workflow, streaming the plan to w as it is
// generated.
func planWeather(ctx context.Context, a *app, city string, w io.Writer) error {
	_, err := a.registry.Run(ctx, weather.WorkflowName, weather.Trigger{City: city},
		func(o *workflow.RunOptions) {
			o.Watch = streamTo(w)
		})
	if err != nil {
		return err
	}

	fmt.Fprintln(w)
	return nil
}

func streamTo(w io.Writer) workflow.WatchFunc {
	return func(ev workflow.Event) {
		if ev.Type == workflow.EventStepChunk {
			fmt.Fprint(w, ev.Chunk)
		}
	}
}
