// Package workspacecmder provides the workspace command for managing hub workspaces.
package workspacecmder

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhub/pkg/cliui"
	"github.com/papercomputeco/memhub/pkg/config"
	"github.com/papercomputeco/memhub/pkg/hubclient"
)

const workspaceLongDesc string = `Manage hub workspaces.

A workspace names a tenant: it owns a session log, a revision ledger seeded
at "init", and optional links to remote documents (one personal document plus
a per-team map). Workspaces are created explicitly and never deleted in-band.

Examples:
  memhub workspace create acme
  memhub workspace create acme --doc-personal 1AbCdEf --team platform=1GhIjKl
  memhub workspace list
  memhub workspace get <workspace-id>`

const workspaceShortDesc string = "Manage hub workspaces"

func NewWorkspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: workspaceShortDesc,
		Long:  workspaceLongDesc,
	}

	cmd.AddCommand(newCreateCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newGetCmd())

	return cmd
}

// newAPIClient builds a hub client from the viper precedence chain.
func newAPIClient(cmd *cobra.Command, registryKeys []string) (*hubclient.Client, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, registryKeys)

	return hubclient.NewClient(v.GetString("client.api_target"), v.GetString("client.api_token")), nil
}

func newCreateCmd() *cobra.Command {
	var (
		apiTarget   string
		apiToken    string
		docPersonal string
		teams       []string
	)

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(cmd, []string{config.FlagAPITarget, config.FlagAPIToken})
			if err != nil {
				return err
			}

			teamMap := map[string]string{}
			for _, pair := range teams {
				key, docID, ok := strings.Cut(pair, "=")
				if !ok {
					return fmt.Errorf("invalid --team value %q, expected key=doc-id", pair)
				}
				teamMap[key] = docID
			}

			ws, err := client.CreateWorkspace(cmd.Context(), args[0], docPersonal, teamMap)
			if err != nil {
				return fmt.Errorf("creating workspace: %w", err)
			}

			fmt.Println()
			cliui.KV("id", ws.ID)
			cliui.KV("name", ws.Name)
			cliui.KV("personal doc", ws.DocPersonalID)
			for key, docID := range ws.TeamMap {
				cliui.KV("team "+key, docID)
			}
			fmt.Println()

			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIToken, &apiToken)
	cmd.Flags().StringVar(&docPersonal, "doc-personal", "", "Remote document id for the personal scope")
	cmd.Flags().StringArrayVar(&teams, "team", nil, "Team mapping as key=doc-id (repeatable)")

	return cmd
}

func newListCmd() *cobra.Command {
	var (
		apiTarget string
		apiToken  string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List workspaces",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newAPIClient(cmd, []string{config.FlagAPITarget, config.FlagAPIToken})
			if err != nil {
				return err
			}

			workspaces, err := client.ListWorkspaces(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing workspaces: %w", err)
			}

			if len(workspaces) == 0 {
				fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No workspaces."))
				return nil
			}

			fmt.Println()
			for _, ws := range workspaces {
				cliui.KV(ws.ID, ws.Name)
			}
			fmt.Println()

			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIToken, &apiToken)

	return cmd
}

func newGetCmd() *cobra.Command {
	var (
		apiTarget string
		apiToken  string
	)

	cmd := &cobra.Command{
		Use:   "get <workspace-id>",
		Short: "Show a workspace and its current revision",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newAPIClient(cmd, []string{config.FlagAPITarget, config.FlagAPIToken})
			if err != nil {
				return err
			}

			revision, err := client.Revision(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("fetching workspace: %w", err)
			}

			fmt.Println()
			cliui.KV("workspace", args[0])
			cliui.KV("revision", revision)
			fmt.Println()

			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIToken, &apiToken)

	return cmd
}
