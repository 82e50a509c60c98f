// Package watchcmder provides the watch command, which follows the live
// conversation event feed of a running companion server.
package watchcmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/companion/pkg/cliui"
	"github.com/papercomputeco/companion/pkg/config"
	"github.com/papercomputeco/companion/pkg/eventstream"
	"github.com/papercomputeco/companion/pkg/sse"
	"github.com/papercomputeco/companion/pkg/utils"
)

var (
	turnStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	overflowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
)

type watchCommander struct {
	apiTarget      string
	conversationID string
	userID         string
	count          int
	raw            bool
}

const watchLongDesc string = `Follow conversation events from a running companion server.

Each persisted turn and each conversation closed by memory overflow is
printed as it happens. Filter the feed by conversation or user, stop after
a number of events with --count, or print the raw SSE stream with --raw.

Examples:
  companion watch
  companion watch --conversation 6f1c0b52-...
  companion watch --for-user 42 --count 10`

const watchShortDesc string = "Follow live conversation events"

func NewWatchCmd() *cobra.Command {
	cmder := &watchCommander{}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: watchShortDesc,
		Long:  watchLongDesc,
		Args:  cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			configDir, _ := cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.ClientFlags, []string{config.FlagAPITarget})

			cfg, err := config.FromViper(v)
			if err != nil {
				return fmt.Errorf("resolving config: %w", err)
			}
			cmder.apiTarget = cfg.Client.APITarget
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmder.count < 0 {
				return errors.New("--count must not be negative")
			}
			return cmder.run(cmd.Context(), cmd.OutOrStdout())
		},
	}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPITarget, &cmder.apiTarget)
	cmd.Flags().StringVarP(&cmder.conversationID, "conversation", "c", "", "Only show events for this conversation")
	cmd.Flags().StringVar(&cmder.userID, "for-user", "", "Only show events for this user")
	cmd.Flags().IntVarP(&cmder.count, "count", "n", 0, "Stop after this many events (0 follows forever)")
	cmd.Flags().BoolVar(&cmder.raw, "raw", false, "Print the raw SSE stream")

	return cmd
}

func (c *watchCommander) streamURL() string {
	q := url.Values{}
	if c.conversationID != "" {
		q.Set("conversation_id", c.conversationID)
	}
	if c.userID != "" {
		q.Set("user_id", c.userID)
	}
	if c.count > 0 {
		q.Set("limit", strconv.Itoa(c.count))
	}

	u := strings.TrimRight(c.apiTarget, "/") + "/v1/events"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

func (c *watchCommander) run(ctx context.Context, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.streamURL(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("User-Agent", utils.UserAgent())

	// No client timeout: the stream is long-lived.
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", c.apiTarget, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	var raw io.Writer
	if c.raw {
		raw = out
	}
	reader := sse.NewReader(resp.Body, raw)

	if !c.raw {
		fmt.Fprintf(os.Stderr, "  %s %s\n\n", cliui.SuccessMark, cliui.DimStyle.Render("watching "+c.apiTarget))
	}

	for {
		frame, err := reader.Next()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading event stream: %w", err)
		}
		if frame == nil {
			return nil
		}
		if c.raw {
			continue
		}

		var ev eventstream.Event
		if err := json.Unmarshal([]byte(frame.Data), &ev); err != nil {
			fmt.Fprintf(out, "  %s\n", cliui.Warn(fmt.Sprintf("skipping malformed event %s", frame.ID)))
			continue
		}
		printEvent(out, &ev)
	}
}

func printEvent(w io.Writer, ev *eventstream.Event) {
	stamp := cliui.DimStyle.Render(ev.EmittedAt.Local().Format("15:04:05"))
	conv := cliui.NameStyle.Render(utils.Truncate(ev.ConversationID, 8))
	user := cliui.DimStyle.Render("user " + ev.UserID)

	switch {
	case ev.Turn != nil:
		t := ev.Turn
		fmt.Fprintf(w, "%s %s %s %s  %s", stamp, turnStyle.Render("turn"), conv, user, cliui.KeyStyle.Render(string(t.Intent)))
		if badges := cliui.EmotionBadges(t.Emotions); badges != "" {
			fmt.Fprintf(w, "  %s", badges)
		}
		if len(t.Topics) > 0 {
			fmt.Fprintf(w, "  %s", cliui.ValueStyle.Render(strings.Join(t.Topics, ",")))
		}
		if t.FactsLearned > 0 {
			fmt.Fprintf(w, "  %s", cliui.DimStyle.Render(fmt.Sprintf("+%d facts", t.FactsLearned)))
		}
		fmt.Fprintln(w)
	case ev.Overflow != nil:
		o := ev.Overflow
		fmt.Fprintf(w, "%s %s %s %s  %s %s\n", stamp, overflowStyle.Render("overflow"), conv, user,
			cliui.KeyStyle.Render(o.Reason),
			cliui.DimStyle.Render(fmt.Sprintf("after %d messages", o.MessageCount)),
		)
	default:
		fmt.Fprintf(w, "%s %s %s %s\n", stamp, cliui.KeyStyle.Render(ev.EventType), conv, user)
	}
}
