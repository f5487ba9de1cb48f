// Package pushcmder provides the push command for writing session handoffs.
package pushcmder

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhub/pkg/cliui"
	"github.com/papercomputeco/memhub/pkg/config"
	"github.com/papercomputeco/memhub/pkg/hubclient"
)

const pushLongDesc string = `Push a session handoff to the hub.

Content comes from --file, --clipboard, or stdin. Unless --no-revision is
set, push first reads the workspace's current revision and sends it as the
expected base; a concurrent writer then produces a conflict instead of a
silent overwrite. On conflict, pull the latest session and push again.

Examples:
  memhub push --workspace <id> --file handoff.md
  cat handoff.md | memhub push --workspace <id>
  memhub push --workspace <id> --clipboard --scope team --team platform
  memhub push --workspace <id> --no-revision`

const pushShortDesc string = "Push a session handoff to the hub"

type pushCommander struct {
	apiTarget string
	apiToken  string
	workspace string

	scope         string
	teamKey       string
	file          string
	fromClipboard bool
	revision      string
	noRevision    bool
}

func NewPushCmd() *cobra.Command {
	cmder := &pushCommander{}

	cmd := &cobra.Command{
		Use:   "push",
		Short: pushShortDesc,
		Long:  pushLongDesc,
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
	cmd.Flags().StringVarP(&cmder.file, "file", "f", "", "Read the handoff content from a file")
	cmd.Flags().BoolVar(&cmder.fromClipboard, "clipboard", false, "Read the handoff content from the clipboard")
	cmd.Flags().StringVarP(&cmder.revision, "revision", "r", "", "Expected base revision (default: fetched from the hub)")
	cmd.Flags().BoolVar(&cmder.noRevision, "no-revision", false, "Skip the revision check (last writer wins)")

	return cmd
}

func (c *pushCommander) run(cmd *cobra.Command) error {
	if c.workspace == "" {
		return fmt.Errorf("workspace is required (--workspace or client.workspace)")
	}

	content, err := c.readContent()
	if err != nil {
		return err
	}
	if strings.TrimSpace(content) == "" {
		return fmt.Errorf("handoff content is empty")
	}

	client := hubclient.NewClient(c.apiTarget, c.apiToken)
	ctx := cmd.Context()

	expected := c.revision
	if expected == "" && !c.noRevision {
		expected, err = client.Revision(ctx, c.workspace)
		if err != nil {
			return fmt.Errorf("fetching current revision: %w", err)
		}
	}

	resp, err := client.Push(ctx, hubclient.PushRequest{
		WorkspaceID:      c.workspace,
		Scope:            c.scope,
		TeamKey:          c.teamKey,
		Content:          content,
		ExpectedRevision: expected,
	})
	if err != nil {
		return fmt.Errorf("pushing session: %w", err)
	}

	if resp.Status == "conflict" {
		fmt.Printf("\n  %s %s\n\n", cliui.FailMark, cliui.WarningStyle.Render("Push rejected: another writer got there first."))
		if resp.Conflict != nil {
			cliui.KV("hub revision", resp.Conflict.ExpectedRevision)
			cliui.KV("your base", resp.Conflict.ProvidedRevision)
		}
		fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("Run `memhub pull` to see the latest session, then push again."))
		return fmt.Errorf("revision conflict")
	}

	fmt.Printf("\n  %s Session pushed\n\n", cliui.SuccessMark)
	cliui.KV("session", resp.SessionID)
	cliui.KV("revision", resp.Revision)
	cliui.KV("categories", strings.Join(resp.Categories, ", "))
	cliui.KV("sync", c.renderSyncState(resp.SyncState))
	if resp.DocURL != "" {
		cliui.KV("doc", resp.DocURL)
	}
	fmt.Println()

	return nil
}

func (c *pushCommander) readContent() (string, error) {
	switch {
	case c.file != "":
		data, err := os.ReadFile(c.file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", c.file, err)
		}
		return string(data), nil

	case c.fromClipboard:
		content, err := clipboard.ReadAll()
		if err != nil {
			return "", fmt.Errorf("reading clipboard: %w", err)
		}
		return content, nil

	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		return string(data), nil
	}
}

func (c *pushCommander) renderSyncState(state string) string {
	switch state {
	case "synced":
		return "synced"
	case "reauth_required":
		return cliui.WarningStyle.Render("reauth required - run `memhub auth`")
	default:
		return "local only"
	}
}
