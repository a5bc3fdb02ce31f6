// Command oauthlink runs the OAuth sign-in and identity linking service.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var envFiles []string

func main() {
	root := &cobra.Command{
		Use:           "oauthlink",
		Short:         "OAuth2 sign-in and identity linking service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load; missing files are skipped")

	root.AddCommand(serveCmd(), migrateCmd(), providersCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
