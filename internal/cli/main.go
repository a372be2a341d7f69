package cli

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func Main() {
	_ = godotenv.Load() // best-effort: load .env if present

	root := newRootCommand()
	root.SetOut(os.Stdout)
	root.SetErr(os.Stderr)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "soclip",
		Short:         "Serve the video clip and highlight API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve,
	}

	root.PersistentFlags().String("log-level", "", "Log level (overrides LOG_LEVEL)")
	root.Flags().Int("port", 0, "Listen port (overrides PORT)")
	root.Flags().String("public", "", "Static front-end directory (overrides PUBLIC_DIR)")

	root.AddCommand(&cobra.Command{
		Use:          "sweep",
		Short:        "Remove aged files from the working directories once and exit",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE:         sweep,
	})
	return root
}
