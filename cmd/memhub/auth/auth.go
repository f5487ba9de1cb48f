// Package authcmder provides the auth command for linking the remote mirror.
package authcmder

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/memhub/pkg/cliui"
	"github.com/papercomputeco/memhub/pkg/config"
	"github.com/papercomputeco/memhub/pkg/hubclient"
)

const authLongDesc string = `Authorize the remote document mirror for a workspace.

Fetches the provider's consent URL from the hub and opens it in a browser.
After consent, the provider redirects back to the hub's callback endpoint,
which stores the credential for the workspace. Sessions pushed afterwards
are mirrored into the workspace's linked documents.

Run this again whenever a push reports sync state "reauth_required".

Examples:
  memhub auth --workspace <id>
  memhub auth --workspace <id> --no-open`

const authShortDesc string = "Authorize the remote document mirror"

type authCommander struct {
	apiTarget string
	apiToken  string
	workspace string
	noOpen    bool
}

func NewAuthCmd() *cobra.Command {
	cmder := &authCommander{}

	cmd := &cobra.Command{
		Use:   "auth",
		Short: authShortDesc,
		Long:  authLongDesc,
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
	cmd.Flags().BoolVar(&cmder.noOpen, "no-open", false, "Print the consent URL instead of opening a browser")

	return cmd
}

func (c *authCommander) run(cmd *cobra.Command) error {
	if c.workspace == "" {
		return fmt.Errorf("workspace is required (--workspace or client.workspace)")
	}

	client := hubclient.NewClient(c.apiTarget, c.apiToken)

	authURL, err := client.AuthURL(cmd.Context(), c.workspace)
	if err != nil {
		return fmt.Errorf("fetching consent URL: %w", err)
	}

	fmt.Println()
	cliui.KV("workspace", c.workspace)
	cliui.KV("consent url", authURL)
	fmt.Println()

	if c.noOpen {
		return nil
	}

	if err := openBrowser(authURL); err != nil {
		fmt.Printf("  %s %s\n\n", cliui.WarnMark, cliui.DimStyle.Render("Could not open a browser, visit the URL above manually."))
	}

	return nil
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
