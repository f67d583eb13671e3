package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newRootCommand(fs afero.Fs) *cobra.Command {
	var debugLogsEnabled bool

	rootCmd := &cobra.Command{
		Use:          "hello-world",
		Short:        "Run the hello world page outside of Lambda",
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setLogger(debugLogsEnabled)
		},
	}

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.PersistentFlags().BoolVar(&debugLogsEnabled, "debug", getEnvBool("DEBUG", false), "Include debugging logs")

	rootCmd.AddCommand(newSmokeCommand(fs).cmd)
	rootCmd.AddCommand(newCheckCommand(fs).cmd)
	rootCmd.AddCommand(newServeCommand().cmd)

	return rootCmd
}

func Execute() {
	err := newRootCommand(afero.NewOsFs()).Execute()
	if err != nil {
		os.Exit(1)
	}
}

func setLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
