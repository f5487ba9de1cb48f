// Package memcmder provides the mem command for working with the storage port.
package memcmder

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papercomputeco/memhub/pkg/cliui"
	"github.com/papercomputeco/memhub/pkg/config"
	"github.com/papercomputeco/memhub/pkg/hubclient"
)

const memLongDesc string = `Work with memories through the hub's storage port.

Unlike push/pull sessions, memories go straight through the configured
storage back end (sqlite, mongo, firestore, notion, superthread) without the
revision handshake. Back ends differ on delete semantics: some hard-delete,
Notion archives. Only the reported count is portable.

Examples:
  memhub mem save --workspace <id> --file note.md
  memhub mem get --workspace <id> --category MEETING
  memhub mem list --scope personal --limit 10
  memhub mem delete --workspace <id>
  memhub mem info`

const memShortDesc string = "Work with memories through the storage port"

func NewMemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mem",
		Short: memShortDesc,
		Long:  memLongDesc,
	}

	cmd.AddCommand(newSaveCmd())
	cmd.AddCommand(newGetCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newDeleteCmd())
	cmd.AddCommand(newInfoCmd())

	return cmd
}

// newAPIClient builds a hub client from the viper precedence chain. The
// returned viper carries the remaining client settings (workspace).
func newAPIClient(cmd *cobra.Command, registryKeys []string) (*hubclient.Client, *viper.Viper, error) {
	configDir, _ := cmd.Flags().GetString("config-dir")

	v, err := config.InitViper(configDir)
	if err != nil {
		return nil, nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.Flags, registryKeys)

	client := hubclient.NewClient(v.GetString("client.api_target"), v.GetString("client.api_token"))

	return client, v, nil
}

func newSaveCmd() *cobra.Command {
	var (
		apiTarget string
		apiToken  string
		workspace string
		scope     string
		teamKey   string
		category  string
		file      string
	)

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Save a memory (content from --file or stdin)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, v, err := newAPIClient(cmd, []string{
				config.FlagAPITarget,
				config.FlagAPIToken,
				config.FlagWorkspace,
			})
			if err != nil {
				return err
			}

			workspace := v.GetString("client.workspace")
			if workspace == "" {
				return fmt.Errorf("workspace is required (--workspace or client.workspace)")
			}

			content, err := readContent(file)
			if err != nil {
				return err
			}

			result, err := client.SaveMemory(cmd.Context(), hubclient.SaveMemoryRequest{
				Workspace: workspace,
				Content:   content,
				Scope:     scope,
				TeamKey:   teamKey,
				Category:  category,
			})
			if err != nil {
				return fmt.Errorf("saving memory: %w", err)
			}

			if !result.Accepted {
				fmt.Printf("\n%s %s\n\n", cliui.FailMark, cliui.WarningStyle.Render("Back end rejected the save."))
				cliui.KV("reason", result.Error)
				return fmt.Errorf("save rejected")
			}

			fmt.Printf("\n%s Memory saved.\n\n", cliui.SuccessMark)
			cliui.KV("record", result.RecordID)
			cliui.KV("revision", result.NewRevision)
			fmt.Println()

			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIToken, &apiToken)
	config.AddStringFlag(cmd, config.Flags, config.FlagWorkspace, &workspace)
	cmd.Flags().StringVar(&scope, "scope", "personal", "Target scope (personal, team)")
	cmd.Flags().StringVar(&teamKey, "team", "", "Team key when scope is team")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Category label for the memory")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Read the memory content from a file")

	return cmd
}

func newGetCmd() *cobra.Command {
	var (
		apiTarget string
		apiToken  string
		workspace string
		scope     string
		teamKey   string
		category  string
	)

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Fetch the most recent memory in a partition",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, v, err := newAPIClient(cmd, []string{
				config.FlagAPITarget,
				config.FlagAPIToken,
				config.FlagWorkspace,
			})
			if err != nil {
				return err
			}

			workspace := v.GetString("client.workspace")
			if workspace == "" {
				return fmt.Errorf("workspace is required (--workspace or client.workspace)")
			}

			result, err := client.LatestMemory(cmd.Context(), workspace, scope, teamKey, category)
			if err != nil {
				return fmt.Errorf("fetching memory: %w", err)
			}

			if !result.Found {
				fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No memory found for this partition."))
				return nil
			}

			fmt.Println()
			cliui.KV("record", result.Metadata.RecordID)
			cliui.KV("revision", result.Metadata.Revision)
			cliui.KV("category", result.Metadata.Category)
			cliui.KV("created", result.Metadata.CreatedAt.Format("2006-01-02 15:04:05"))
			fmt.Println()
			fmt.Println(result.Content)

			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIToken, &apiToken)
	config.AddStringFlag(cmd, config.Flags, config.FlagWorkspace, &workspace)
	cmd.Flags().StringVar(&scope, "scope", "personal", "Target scope (personal, team)")
	cmd.Flags().StringVar(&teamKey, "team", "", "Team key when scope is team")
	cmd.Flags().StringVarP(&category, "category", "c", "", "Only return a memory with this category")

	return cmd
}

func newListCmd() *cobra.Command {
	var (
		apiTarget string
		apiToken  string
		scope     string
		teamKey   string
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored memories, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := newAPIClient(cmd, []string{
				config.FlagAPITarget,
				config.FlagAPIToken,
			})
			if err != nil {
				return err
			}

			list, err := client.ListMemories(cmd.Context(), scope, teamKey, limit)
			if err != nil {
				return fmt.Errorf("listing memories: %w", err)
			}

			if list.Count == 0 {
				fmt.Printf("\n  %s\n\n", cliui.DimStyle.Render("No memories."))
				return nil
			}

			fmt.Println()
			for _, m := range list.Memories {
				cliui.KV(m.RecordID, m.Preview)
			}
			fmt.Println()
			cliui.KV("count", strconv.Itoa(list.Count))
			fmt.Println()

			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIToken, &apiToken)
	cmd.Flags().StringVar(&scope, "scope", "personal", "Target scope (personal, team)")
	cmd.Flags().StringVar(&teamKey, "team", "", "Team key when scope is team")
	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Maximum number of memories to return")

	return cmd
}

func newDeleteCmd() *cobra.Command {
	var (
		apiTarget string
		apiToken  string
		workspace string
		scope     string
		teamKey   string
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a partition's memories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, v, err := newAPIClient(cmd, []string{
				config.FlagAPITarget,
				config.FlagAPIToken,
				config.FlagWorkspace,
			})
			if err != nil {
				return err
			}

			workspace := v.GetString("client.workspace")
			if workspace == "" {
				return fmt.Errorf("workspace is required (--workspace or client.workspace)")
			}

			result, err := client.DeleteMemories(cmd.Context(), workspace, scope, teamKey)
			if err != nil {
				return fmt.Errorf("deleting memories: %w", err)
			}

			fmt.Printf("\n%s Deleted %d memories.\n\n", cliui.SuccessMark, result.DeletedCount)

			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIToken, &apiToken)
	config.AddStringFlag(cmd, config.Flags, config.FlagWorkspace, &workspace)
	cmd.Flags().StringVar(&scope, "scope", "personal", "Target scope (personal, team)")
	cmd.Flags().StringVar(&teamKey, "team", "", "Team key when scope is team")

	return cmd
}

func newInfoCmd() *cobra.Command {
	var (
		apiTarget string
		apiToken  string
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the server's storage back end",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := newAPIClient(cmd, []string{
				config.FlagAPITarget,
				config.FlagAPIToken,
			})
			if err != nil {
				return err
			}

			info, err := client.MemoryBackendInfo(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading backend info: %w", err)
			}

			fmt.Println()
			cliui.KV("backend", info.Backend)
			for _, capability := range info.Capabilities {
				cliui.KV("capability", capability)
			}
			for key, value := range info.Limits {
				cliui.KV("limit "+key, value)
			}
			fmt.Println()

			return nil
		},
	}

	config.AddStringFlag(cmd, config.Flags, config.FlagAPITarget, &apiTarget)
	config.AddStringFlag(cmd, config.Flags, config.FlagAPIToken, &apiToken)

	return cmd
}

// readContent reads the memory body from a file or stdin.
func readContent(file string) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", file, err)
		}
		return string(data), nil
	}

	data, err := io.ReadAll(os.Stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("no content provided (use --file or pipe to stdin)")
	}

	return string(data), nil
}
