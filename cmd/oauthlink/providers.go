package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/oauthlink/internal/config"
	"github.com/dmitrymomot/oauthlink/pkg/oauth"
)

func providersCmd() *cobra.Command {
	var file string
	var baseURL string
	cmd := &cobra.Command{
		Use:   "providers",
		Short: "List configured OAuth providers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadDotenv(envFiles...); err != nil {
				return err
			}
			catalog, err := config.LoadCatalog(file)
			if err != nil {
				return err
			}
			if err := catalog.Register(oauth.NewRegistry()); err != nil {
				return err
			}

			configs := catalog.Configs(baseURL)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSTRATEGY\tCLIENT ID\tREDIRECT URI")
			for _, name := range catalog.Names() {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", name, catalog[name].Strategy, catalog[name].ClientID, configs[name].RedirectURI)
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&file, "file", "providers.yaml", "provider catalog file")
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "public origin for default redirect URIs")
	return cmd
}
