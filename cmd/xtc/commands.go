package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var errTokenRequired = errors.New("token requis (--token ou XTC_TOKEN)")

func newGetCommand(opts *options, use, short, path string, auth bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if auth && opts.token == "" {
				return errTokenRequired
			}
			return call(cmd, opts, http.MethodGet, path, nil)
		},
	}
}

func newLoginCommand(opts *options) *cobra.Command {
	var panel, username, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Ouvre (ou retrouve) une session pour un compte Xtream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{"server": panel, "username": username, "password": password}
			return call(cmd, opts, http.MethodPost, "/api/v1/login", body)
		},
	}
	cmd.Flags().StringVar(&panel, "upstream", "", "URL du panel Xtream")
	cmd.Flags().StringVarP(&username, "username", "u", "", "Identifiant")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Mot de passe")
	_ = cmd.MarkFlagRequired("upstream")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoffCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logoff",
		Short: "Supprime la session et toutes ses données",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.token == "" {
				return errTokenRequired
			}
			return call(cmd, opts, http.MethodPost, "/api/v1/logoff", nil)
		},
	}
}

// call exécute la requête et affiche la réponse (JSON indenté si possible).
// Un statut >= 400 est une erreur.
func call(cmd *cobra.Command, opts *options, method, path string, body any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(cmd.Context(), method, strings.TrimRight(opts.server, "/")+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.token != "" {
		req.Header.Set("Authorization", "Bearer "+opts.token)
	}

	client := &http.Client{Timeout: opts.timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	b, _ := io.ReadAll(resp.Body)
	if err := writeOutput(cmd.OutOrStdout(), b); err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("%s %s: %s", method, path, resp.Status)
	}
	return nil
}

func writeOutput(w io.Writer, b []byte) error {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	var pretty any
	if err := json.Unmarshal(b, &pretty); err == nil {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(pretty)
	}
	_, err := fmt.Fprintf(w, "%s\n", b)
	return err
}
