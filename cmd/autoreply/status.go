package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/chatops-lab/discord-autoreply/internal/conf"
	"github.com/chatops-lab/discord-autoreply/internal/mcp"
	"github.com/spf13/cobra"
)

var statusAPIURL string

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show queues and cooldowns of a running daemon",
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().StringVar(&statusAPIURL, "api-url", "", "control API base URL (default from API_PORT)")
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	base := statusAPIURL
	if base == "" {
		base = apiURL(conf.LoadFromEnv())
	}

	client := mcp.NewClient(base)
	ctx := cmd.Context()

	channels, err := client.GetQueue(ctx)
	if err != nil {
		return fmt.Errorf("daemon not reachable at %s: %w", base, err)
	}
	cooldowns, err := client.GetCooldowns(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHANNEL\tQUEUED\tSTATE\tCOOLDOWN")

	remaining := make(map[string]time.Duration, len(cooldowns))
	for _, c := range cooldowns {
		remaining[c.ChannelID] = time.Duration(c.RemainingMs) * time.Millisecond
	}
	for _, ch := range channels {
		cd := "-"
		if d, ok := remaining[ch.ChannelID]; ok {
			cd = d.Round(100 * time.Millisecond).String()
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\n", ch.ChannelID, ch.QueueLength, ch.State, cd)
	}
	if len(channels) == 0 {
		fmt.Fprintln(w, "(no channels)\t\t\t")
	}
	return w.Flush()
}
