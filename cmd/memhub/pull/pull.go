// Package pullcmder provides the pull command for reading the latest session handoff.
package pullcmder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhub/pkg/cliui"
	"github.com/papercomputeco/memhub/pkg/config"
	"github.com/papercomputeco/memhub/pkg/hubclient"
)

const pullLongDesc string = `Pull the latest session handoff from the hub.

The result merges the local record with live remote document metadata when
the mirror is reachable; otherwise it falls back to the local record alone.
The printed revision is the value to pass as the expected base on the next
push.

Examples:
  memhub pull --workspace <id>
  memhub pull --workspace <id> --scope team --team platform
  memhub pull --workspace <id> --category BUG
  memhub pull --workspace <id> --render`

const pullShortDesc string = "Pull the latest session handoff from the hub"

type pullCommander struct {
	apiTarget string
	apiToken  string
	workspace string

	scope    string
	teamKey  string
	category string
	render   bool
}

func NewPullCmd() *cobra.Command {
	cmder := &pullCommander{}

	cmd := &cobra.Command{
		Use:   "pull",
		Short: pullShortDesc,
		Long:  pullLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagAPITarget,
				config.FlagAPIToken,
				config.FlagWorkspace,
			})

			cmder.apiTarget = v.GetString("client.api_target")
			cmder.apiToken = v.GetString("client.api_token")
			cmder.workspace = v.GetString("client.workspace")

			return cmder.run(cmd)
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIToken, &cmder.apiToken)
	config.AddStringFlag(cmd, config.Flags, config.FlagWorkspace, &cmder.workspace)
	cmd.Flags().StringVar(&cmder.scope, "scope", "personal", "Target scope (personal, team)")
	cmd.Flags().StringVar(&cmder.teamKey, "team", "", "Team key when scope is team")
	cmd.Flags().StringVarP(&cmder.category, "category", "c", "", "Only return the latest session with this category")
	cmd.Flags().BoolVar(&cmder.render, "render", false, "Render the handoff content as markdown")

	return cmd
}

func (c *pullCommander) run(cmd *cobra.Command) error {
	if c.workspace == "" {
		return fmt.Errorf("workspace is required (--workspace or client.workspace)")
	}

	client := hubclient.NewClient(c.apiTarget, c.apiToken)

	resp, err := client.Latest(cmd.Context(), c.workspace, c.scope, c.teamKey, c.category)
	if err != nil {
		if errors.As(err, &hubclient.ErrNotFound{}) {
			fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No session found for this partition."))
			return nil
		}
		return fmt.Errorf("pulling session: %w", err)
	}

	fmt.Println()
	cliui.KV("session", resp.SessionID)
	cliui.KV("revision", resp.Revision)
	cliui.KV("categories", strings.Join(resp.Categories, ", "))
	cliui.KV("updated", resp.LastUpdated.Local().Format("2006-01-02 15:04:05"))
	cliui.KV("source", resp.Source)
	if resp.DocName != "" {
		cliui.KV("doc", resp.DocName)
	}
	if resp.DocURL != "" {
		cliui.KV("doc url", resp.DocURL)
	}
	fmt.Println()

	if c.render {
		rendered, err := cliui.RenderMarkdown(resp.Content)
		if err != nil {
			fmt.Println(resp.Content)
			return nil
		}
		fmt.Println(rendered)
		return nil
	}

	fmt.Println(resp.Content)

	return nil
}
