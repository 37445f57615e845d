package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/RyanBlaney/sonido-static/algorithms/common"
	"github.com/RyanBlaney/sonido-static/algorithms/spectral"
	"github.com/RyanBlaney/sonido-static/logging"
	"github.com/RyanBlaney/sonido-static/output"
	"github.com/RyanBlaney/sonido-static/wisdom"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var planSizes string

// wisdomCmd groups the FFT plan database commands
var wisdomCmd = &cobra.Command{
	Use:   "wisdom",
	Short: "Manage the FFT plan database",
	Long: `The plan database records which FFT backend was fastest for each
transform size so later runs can skip measuring. It only affects speed.`,
}

var wisdomPlanCmd = &cobra.Command{
	Use:   "plan",
	Short: "Measure FFT backends and store the fastest per size",
	Example: `  sonido-static wisdom plan --wisdom wisdom.db --sizes 512,1024,2048`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("transform.wisdom")
		if path == "" {
			return common.InvalidParameter("wisdom plan", path, "a --wisdom database path")
		}

		sizes, err := parseSizes(planSizes)
		if err != nil {
			return err
		}

		format, err := output.ParseFormat(viper.GetString("output_format"))
		if err != nil {
			return err
		}

		store, err := wisdom.NewSQLiteStore(path)
		if err != nil {
			return err
		}
		defer store.Close()

		planner := spectral.NewPlanner(store, spectral.PlanMeasure)
		planner.SetLogger(logging.WithFields(logging.Fields{
			"component": "cli",
			"command":   "wisdom plan",
		}))

		plans := make([]spectral.Plan, 0, len(sizes))
		for _, n := range sizes {
			plan, err := planner.Measure(n)
			if err != nil {
				return fmt.Errorf("size %d: %w", n, err)
			}
			plans = append(plans, plan)
		}

		return output.RenderPlans(cmd.OutOrStdout(), plans, format)
	},
}

var wisdomListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored plans",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := viper.GetString("transform.wisdom")
		if path == "" {
			return common.InvalidParameter("wisdom list", path, "a --wisdom database path")
		}

		format, err := output.ParseFormat(viper.GetString("output_format"))
		if err != nil {
			return err
		}

		store, err := wisdom.NewSQLiteStore(path)
		if err != nil {
			return err
		}
		defer store.Close()

		plans, err := store.List()
		if err != nil {
			return err
		}

		return output.RenderPlans(cmd.OutOrStdout(), plans, format)
	},
}

// parseSizes reads a comma separated list of positive transform sizes
func parseSizes(s string) ([]int, error) {
	var sizes []int

	for _, field := range strings.Split(s, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}

		n, err := strconv.Atoi(field)
		if err != nil || n < 1 {
			return nil, common.InvalidParameter("parseSizes", field, "a positive integer")
		}
		sizes = append(sizes, n)
	}

	if len(sizes) == 0 {
		return nil, common.InvalidParameter("parseSizes", s, "at least one size")
	}

	return sizes, nil
}

func init() {
	wisdomPlanCmd.Flags().StringVar(&planSizes, "sizes", "512,1024,2048", "comma separated FFT sizes")

	wisdomCmd.AddCommand(wisdomPlanCmd)
	wisdomCmd.AddCommand(wisdomListCmd)
	rootCmd.AddCommand(wisdomCmd)
}
