// Package memhubcmder
package memhubcmder

import (
	"github.com/spf13/cobra"

	authcmder "github.com/papercomputeco/memhub/cmd/memhub/auth"
	configcmder "github.com/papercomputeco/memhub/cmd/memhub/config"
	memcmder "github.com/papercomputeco/memhub/cmd/memhub/mem"
	pullcmder "github.com/papercomputeco/memhub/cmd/memhub/pull"
	pushcmder "github.com/papercomputeco/memhub/cmd/memhub/push"
	servecmder "github.com/papercomputeco/memhub/cmd/memhub/serve"
	watchcmder "github.com/papercomputeco/memhub/cmd/memhub/watch"
	workspacecmder "github.com/papercomputeco/memhub/cmd/memhub/workspace"
	versioncmder "github.com/papercomputeco/memhub/cmd/version"
)

const memhubLongDesc string = `Memhub is a session memory hub for agent handoffs.

The hub keeps an authoritative local log of session handoffs per workspace,
guards concurrent writers with a revision ledger, and mirrors accepted
sessions into linked remote documents on a best-effort basis.

Run the server and talk to it:
  memhub serve             Run the hub API server
  memhub workspace create  Create a workspace
  memhub push              Push a session handoff
  memhub pull              Pull the latest session handoff
  memhub watch             Watch the clipboard for handoff markers`

const memhubShortDesc string = "Memhub - Session Memory Hub"

func NewMemhubCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "memhub",
		Short: memhubShortDesc,
		Long:  memhubLongDesc,
	}

	// Global flags
	cmd.PersistentFlags().BoolP("debug", "d", false, "Enable debug logging")
	cmd.PersistentFlags().String("config-dir", "", "Directory containing the .memhub config (default: auto-resolve)")

	// Add subcommands
	cmd.AddCommand(servecmder.NewServeCmd())
	cmd.AddCommand(workspacecmder.NewWorkspaceCmd())
	cmd.AddCommand(pushcmder.NewPushCmd())
	cmd.AddCommand(pullcmder.NewPullCmd())
	cmd.AddCommand(watchcmder.NewWatchCmd())
	cmd.AddCommand(memcmder.NewMemCmd())
	cmd.AddCommand(authcmder.NewAuthCmd())
	cmd.AddCommand(configcmder.NewConfigCmd())
	cmd.AddCommand(versioncmder.NewVersionCmd())

	return cmd
}
