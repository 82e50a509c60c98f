// Package chatcmder provides the chat command, an interactive client for a
// running companion API server.
package chatcmder

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/companion/pkg/cliui"
	"github.com/papercomputeco/companion/pkg/config"
	"github.com/papercomputeco/companion/pkg/dotdir"
	"github.com/papercomputeco/companion/pkg/utils"
)

var (
	userPrompt      = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	assistantPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("213")).Render("companion> ")
)

type chatCommander struct {
	apiTarget string
	userID    string
	configDir string
	newChat   bool

	// quiet drops prompts and banners, for piped input.
	quiet bool

	client  *client
	dotdir  *dotdir.Manager
	session *dotdir.ChatSession
}

const chatLongDesc string = `Start an interactive chat with a running companion server.

The conversation is remembered in .companion/session.json, so running
"companion chat" again continues where you left off. Use --new to start a
fresh conversation.

Commands inside the chat:
  /insights   Show what the companion has noticed about this conversation
  /restart    Reset the conversation's memory, keeping learned facts
  /new        Start a new conversation
  /exit       Quit (Ctrl+D works too)

Examples:
  companion chat
  companion chat --user 42 --api-target http://localhost:9000`

const chatShortDesc string = "Chat with a running companion server"

func NewChatCmd() *cobra.Command {
	cmder := &chatCommander{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: chatShortDesc,
		Long:  chatLongDesc,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			cmder.configDir, _ = cmd.Flags().GetString("config-dir")
			v, err := config.InitViper(cmder.configDir)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			config.BindRegisteredFlags(v, cmd, config.ClientFlags, []string{
				config.FlagAPITarget,
				config.FlagUserID,
			})

			cfg, err := config.FromViper(v)
			if err != nil {
				return fmt.Errorf("resolving config: %w", err)
			}
			cmder.apiTarget = cfg.Client.APITarget
			cmder.userID = cfg.Client.UserID
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmder.quiet = !term.IsTerminal(int(os.Stdin.Fd()))
			return cmder.run(cmd.Context(), os.Stdin, os.Stdout)
		},
	}

	config.AddStringFlag(cmd, config.ClientFlags, config.FlagAPITarget, &cmder.apiTarget)
	config.AddStringFlag(cmd, config.ClientFlags, config.FlagUserID, &cmder.userID)
	cmd.Flags().BoolVarP(&cmder.newChat, "new", "n", false, "Start a new conversation")

	return cmd
}

func (c *chatCommander) run(ctx context.Context, in io.Reader, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	c.client = newClient(c.apiTarget, c.userID)
	c.dotdir = dotdir.NewManager()

	saved, err := c.dotdir.LoadChatSession(c.configDir)
	if err != nil {
		return fmt.Errorf("loading chat session: %w", err)
	}
	c.session = &dotdir.ChatSession{UserID: c.userID}
	if saved != nil && saved.UserID == c.userID && !c.newChat {
		c.session = saved
	}

	if !c.quiet {
		fmt.Fprintln(out)
		if c.session.ConversationID != "" {
			fmt.Fprintf(out, "  %s Continuing %s\n",
				cliui.SuccessMark,
				cliui.NameStyle.Render(c.session.Title),
			)
		} else {
			fmt.Fprintf(out, "  %s New conversation\n", cliui.DimStyle.Render("●"))
		}
		fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("Type your message and press Enter. /exit or Ctrl+D to quit."))
	}

	scanner := bufio.NewScanner(in)
	for {
		if !c.quiet {
			fmt.Fprint(out, userPrompt)
		}
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		switch input {
		case "/exit":
			return scanner.Err()
		case "/new":
			c.startOver()
			fmt.Fprintf(out, "  %s New conversation\n\n", cliui.SuccessMark)
			continue
		case "/insights":
			c.printInsights(ctx, out)
			continue
		case "/restart":
			c.restartConversation(ctx, out)
			continue
		}

		if err := c.send(ctx, out, input); err != nil {
			fmt.Fprintf(out, "  %s %v\n\n", cliui.FailMark, err)
		}
	}

	fmt.Fprintln(out)
	return scanner.Err()
}

func (c *chatCommander) send(ctx context.Context, out io.Writer, message string) error {
	resp, err := c.client.chat(ctx, message, c.session.ConversationID, c.session.ConversationID == "")
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s%s\n", assistantPrompt, resp.Response)

	if resp.RestartRequired {
		if resp.ConversationSummary != nil {
			fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render(fmt.Sprintf(
				"%d messages, %d topics covered", resp.ConversationSummary.MessageCount, len(resp.ConversationSummary.MainTopics))))
		}
		fmt.Fprintf(out, "  %s\n\n", cliui.Warn("memory is full; your next message starts a new conversation"))
		c.startOver()
		return nil
	}

	if badges := cliui.EmotionBadges(resp.Emotions); badges != "" {
		fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render(badges))
	}
	status := resp.MemoryStatus
	if status.MaxMessages > 0 {
		fmt.Fprintf(out, "  %s\n", cliui.UsageBar(float64(status.MessageCount)*100/float64(status.MaxMessages)))
	}
	fmt.Fprintln(out)

	if c.session.ConversationID != resp.ConversationID {
		c.session.ConversationID = resp.ConversationID
		c.session.Title = utils.Truncate(message, 40)
		c.save(out)
	}
	return nil
}

func (c *chatCommander) printInsights(ctx context.Context, out io.Writer) {
	if c.session.ConversationID == "" {
		fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("No conversation yet."))
		return
	}

	resp, err := c.client.insights(ctx, c.session.ConversationID)
	if err != nil {
		fmt.Fprintf(out, "  %s %v\n\n", cliui.FailMark, err)
		return
	}

	in := resp.Insights
	if in == nil {
		fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("No insights yet."))
		return
	}
	cliui.KeyValue(out, "Engagement", in.EngagementLevel)
	cliui.KeyValue(out, "Depth", in.ConversationDepth)
	cliui.KeyValue(out, "Topics", in.TopicDiversity)
	cliui.KeyValue(out, "Openness", fmt.Sprintf("%.2f", in.EmotionalOpenness))
	cliui.KeyValue(out, "Journey", in.JourneyPattern)
	cliui.KeyValue(out, "Messages stored", resp.DatabaseStats.TotalMessages)
	fmt.Fprintln(out)
}

func (c *chatCommander) restartConversation(ctx context.Context, out io.Writer) {
	if c.session.ConversationID == "" {
		fmt.Fprintf(out, "  %s\n\n", cliui.DimStyle.Render("No conversation yet."))
		return
	}

	resp, err := c.client.restart(ctx, c.session.ConversationID)
	if err != nil {
		fmt.Fprintf(out, "  %s %v\n\n", cliui.FailMark, err)
		return
	}

	fmt.Fprintf(out, "  %s %s\n", cliui.SuccessMark, resp.Message)
	if n := len(resp.PreservedFacts); n > 0 {
		fmt.Fprintf(out, "  %s\n", cliui.DimStyle.Render(fmt.Sprintf("kept %d kinds of facts", n)))
	}
	fmt.Fprintln(out)
	c.startOver()
}

func (c *chatCommander) startOver() {
	c.session.ConversationID = ""
	c.session.Title = ""
	_ = c.dotdir.ClearChatSession(c.configDir)
}

func (c *chatCommander) save(out io.Writer) {
	if err := c.dotdir.SaveChatSession(c.session, c.configDir); err != nil {
		fmt.Fprintf(out, "  %s\n", cliui.Warn(fmt.Sprintf("could not save chat session: %v", err)))
	}
}
