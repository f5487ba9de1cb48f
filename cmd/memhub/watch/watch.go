// Package watchcmder provides the watch command running the clipboard trigger loop.
package watchcmder

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/papercomputeco/memhub/pkg/clipwatch"
	"github.com/papercomputeco/memhub/pkg/config"
	"github.com/papercomputeco/memhub/pkg/hubclient"
	"github.com/papercomputeco/memhub/pkg/logger"
)

const watchLongDesc string = `Watch the clipboard for session handoffs.

The loop polls the clipboard and pushes its content to the hub when the
content changes AND starts with the marker. A failed upload is not retried
automatically: copy the content again to retry. With --file, a file is
watched instead of the clipboard for environments without one.

Examples:
  memhub watch --workspace <id>
  memhub watch --workspace <id> --marker "[HANDOFF]" --interval 500
  memhub watch --workspace <id> --once
  memhub watch --workspace <id> --file /tmp/handoff.txt`

const watchShortDesc string = "Watch the clipboard for session handoffs"

type watchCommander struct {
	apiTarget string
	apiToken  string
	workspace string

	scope      string
	teamKey    string
	marker     string
	intervalMS uint
	once       bool
	file       string

	debug bool
}

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			configDir, _ := cmd.Flags().GetString("config-dir")

			v, err := config.InitViper(configDir)
			if err != nil {
				return err
			}
			config.BindRegisteredFlags(v, cmd, config.Flags, []string{
				config.FlagAPITarget,
				config.FlagAPIToken,
				config.FlagWorkspace,
				config.FlagWatchMarker,
				config.FlagWatchInterval,
			})

			cmder.apiTarget = v.GetString("client.api_target")
			cmder.apiToken = v.GetString("client.api_token")
			cmder.workspace = v.GetString("client.workspace")
			cmder.marker = v.GetString("watch.marker")
			cmder.intervalMS = v.GetUint("watch.interval_ms")

			return cmder.run()
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIToken, &cmder.apiToken)
	config.AddStringFlag(cmd, config.Flags, config.FlagWorkspace, &cmder.workspace)
	config.AddStringFlag(cmd, config.Flags, config.FlagWatchMarker, &cmder.marker)
	config.AddUintFlag(cmd, config.Flags, config.FlagWatchInterval, &cmder.intervalMS)
	cmd.Flags().StringVar(&cmder.scope, "scope", "personal", "Target scope (personal, team)")
	cmd.Flags().StringVar(&cmder.teamKey, "team", "", "Team key when scope is team")
	cmd.Flags().BoolVar(&cmder.once, "once", false, "Exit after the first successful upload")
	cmd.Flags().StringVar(&cmder.file, "file", "", "Watch a file instead of the clipboard")

	return cmd
}

func (c *watchCommander) run() error {
	if c.workspace == "" {
		return fmt.Errorf("workspace is required (--workspace or client.workspace)")
	}

	log := logger.NewLogger(c.debug)
	defer log.Sync()

	uploader := &hubUploader{
		client:    hubclient.NewClient(c.apiTarget, c.apiToken),
		workspace: c.workspace,
		scope:     c.scope,
		teamKey:   c.teamKey,
		logger:    log,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	if c.file != "" {
		trigger := clipwatch.NewFileTrigger(c.file, uploader, c.marker, c.once, log)
		err = trigger.Run(ctx)
	} else {
		watcher := clipwatch.NewWatcher(clipwatch.NewSystemClipboard(), uploader, clipwatch.Config{
			Marker:   c.marker,
			Interval: time.Duration(c.intervalMS) * time.Millisecond,
			Once:     c.once,
		}, log)
		err = watcher.Run(ctx)
	}

	// A signal-driven stop is a clean exit.
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// hubUploader pushes triggered content through the hub API. Each upload reads
// the current revision first so a concurrent writer surfaces as a conflict
// rather than a silent overwrite.
type hubUploader struct {
	client    *hubclient.Client
	workspace string
	scope     string
	teamKey   string
	logger    *zap.Logger
}

func (u *hubUploader) Upload(ctx context.Context, content string) error {
	revision, err := u.client.Revision(ctx, u.workspace)
	if err != nil {
		return fmt.Errorf("fetching current revision: %w", err)
	}

	resp, err := u.client.Push(ctx, hubclient.PushRequest{
		WorkspaceID:      u.workspace,
		Scope:            u.scope,
		TeamKey:          u.teamKey,
		Content:          content,
		ExpectedRevision: revision,
	})
	if err != nil {
		return err
	}

	if resp.Status == "conflict" {
		return fmt.Errorf("revision conflict, pull the latest session and copy again")
	}

	u.logger.Info("session pushed",
		zap.String("session_id", resp.SessionID),
		zap.String("revision", resp.Revision),
		zap.String("sync_state", resp.SyncState),
	)

	return nil
}
