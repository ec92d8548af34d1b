package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"
)

// options est partagé par toutes les sous-commandes.
type options struct {
	server  string
	token   string
	timeout time.Duration
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:           "xtc",
		Short:         "Client en ligne de commande pour xtc-server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.server, "server", envOr("XTC_SERVER_URL", "http://127.0.0.1:8080"), "URL du serveur (ex: http://127.0.0.1:8080)")
	rootCmd.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("XTC_TOKEN"), "Token de session (défaut: $XTC_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 10*time.Second, "Timeout HTTP")

	rootCmd.AddCommand(newGetCommand(opts, "health", "Etat du serveur", "/api/v1/health", false))
	rootCmd.AddCommand(newGetCommand(opts, "version", "Version du serveur", "/api/v1/version", false))
	rootCmd.AddCommand(newGetCommand(opts, "info", "Infos du compte amont", "/api/v1/info", true))
	rootCmd.AddCommand(newGetCommand(opts, "home", "Page d'accueil de la session", "/api/v1/home", true))
	rootCmd.AddCommand(newGetCommand(opts, "profiles", "Profils de la session", "/api/v1/profiles", true))
	rootCmd.AddCommand(newLoginCommand(opts))
	rootCmd.AddCommand(newLogoffCommand(opts))

	return rootCmd
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
