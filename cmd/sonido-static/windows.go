package main

import (
	"github.com/RyanBlaney/sonido-static/algorithms/windowing"
	"github.com/RyanBlaney/sonido-static/output"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	windowSize      int
	windowSigma     float64
	windowPrecision int
)

// windowsCmd prints window coefficients
var windowsCmd = &cobra.Command{
	Use:   "windows [type]",
	Short: "Print the coefficients of a window function",
	Long: `Print the coefficients and gain figures of a window function.

Examples:
  sonido-static windows hann --size 16
  sonido-static windows gaussian --sigma 0.3 --size 64 -o json`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: windowNames(),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := "hann"
		if len(args) == 1 {
			name = args[0]
		}

		t, err := windowing.ParseType(name)
		if err != nil {
			return err
		}

		spec := windowing.NewSpec(t)
		if t == windowing.WindowGaussian {
			spec.Sigma = windowSigma
		}

		window, err := windowing.Generate(spec, windowSize)
		if err != nil {
			return err
		}

		format, err := output.ParseFormat(viper.GetString("output_format"))
		if err != nil {
			return err
		}

		return output.RenderWindow(cmd.OutOrStdout(), window, format, windowPrecision)
	},
}

func windowNames() []string {
	var names []string
	for _, t := range windowing.Types() {
		names = append(names, string(t))
	}
	return names
}

func init() {
	windowsCmd.Flags().IntVar(&windowSize, "size", 16, "window length in samples")
	windowsCmd.Flags().Float64Var(&windowSigma, "sigma", windowing.DefaultGaussianSigma, "gaussian window width")
	windowsCmd.Flags().IntVar(&windowPrecision, "precision", 6, "decimals printed per coefficient")

	rootCmd.AddCommand(windowsCmd)
}
