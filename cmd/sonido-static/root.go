package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/RyanBlaney/sonido-static/configs"
	"github.com/RyanBlaney/sonido-static/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	configFile   string
	verbose      bool
	logLevel     string
	outputFormat string
	wisdomPath   string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "sonido-static",
	Short: "Detect static in 16-bit PCM audio",
	Long: `Scan audio files for static: sustained wideband noise where every
frequency bin of an analysis window is above a magnitude threshold.

Each file is split into overlapping windows, a window function is applied,
the magnitude spectrum is computed and every window whose spectrum is
entirely above the threshold is reported by its start time.

Raw headerless PCM (.raw, .pcm or no extension) and 16-bit WAV files are read
directly; anything else is decoded with ffmpeg.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogging()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is $HOME/.config/sonido-static/sonido-static.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text",
		"output format (text, table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&wisdomPath, "wisdom", "",
		"FFT plan database (SQLite); plans are not persisted when empty")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("output"))
	viper.BindPFlag("transform.wisdom", rootCmd.PersistentFlags().Lookup("wisdom"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "sonido-static"))
		}
		viper.SetConfigName("sonido-static")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("SONIDO_STATIC")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configs.SetDefaults(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	} else if configFile != "" {
		fmt.Fprintf(os.Stderr, "error: cannot read config file %s: %v\n", configFile, err)
		os.Exit(1)
	}
}

func setupLogging() error {
	level, err := logging.ParseLevel(viper.GetString("log_level"))
	if err != nil {
		return err
	}
	if viper.GetBool("verbose") {
		level = logging.DebugLevel
	}

	logging.SetLevel(level)
	return nil
}

// loadConfig decodes and validates the effective configuration
func loadConfig() (*configs.Config, error) {
	config, err := configs.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}
