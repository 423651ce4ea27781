// Package cli implements the symcheck terminal client.
package cli

import (
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type options struct {
	backendURL    string
	dataDir       string
	followUpDelay time.Duration
	verbose       bool
}

// NewRootCommand builds the symcheck command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "symcheck",
		Short: "Chat with the symptom checker from your terminal",
		Long: `symcheck runs the symptom checking conversation against the prediction
backend: collect symptoms, get a diagnosis, ask medical questions, browse
past chats and save a report.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			_ = godotenv.Load()
		},
	}

	root.PersistentFlags().StringVar(&opts.backendURL, "backend", "", "backend base URL (default $BACKEND_URL or http://127.0.0.1:5000)")
	root.PersistentFlags().StringVar(&opts.dataDir, "data-dir", defaultDataDir(), "directory for preferences and the backend session")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log backend calls to stderr")

	root.AddCommand(
		newChatCommand(opts),
		newHistoryCommand(opts),
		newSignUpCommand(opts),
		newSignInCommand(opts),
		newThemeCommand(opts),
	)
	return root
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func defaultDataDir() string {
	if dir := os.Getenv("SYMCHECK_HOME"); dir != "" {
		return dir
	}
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "symcheck")
	}
	return ".symcheck"
}
