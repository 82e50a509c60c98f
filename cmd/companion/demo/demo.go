// Package democmder provides the demo command, which plays a scripted
// conversation through a local companion without a server.
package democmder

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/companion/pkg/cliui"
	"github.com/papercomputeco/companion/pkg/companion"
	"github.com/papercomputeco/companion/pkg/logger"
	"github.com/papercomputeco/companion/pkg/respond"
)

type demoCommander struct {
	seed  uint64
	json  bool
	plain bool
	debug bool
}

const demoLongDesc string = `Play a scripted conversation through a local companion.

Each demo sends a short series of messages and prints the replies, the
emotions detected along the way and the conversation insights at the end.
Nothing is persisted. Run without arguments to list the available demos.

Examples:
  companion demo
  companion demo work_stress
  companion demo presentation_stress --seed 7 --json`

const demoShortDesc string = "Play a scripted conversation locally"

func NewDemoCmd() *cobra.Command {
	cmder := &demoCommander{}

	cmd := &cobra.Command{
		Use:       "demo [kind]",
		Short:     demoShortDesc,
		Long:      demoLongDesc,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: companion.Demos(),
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %w", err)
			}

			if len(args) == 0 {
				return listDemos(cmd.OutOrStdout())
			}
			return cmder.run(cmd.Context(), cmd.OutOrStdout(), args[0])
		},
	}

	cmd.Flags().Uint64Var(&cmder.seed, "seed", 1, "Template selection seed")
	cmd.Flags().BoolVar(&cmder.json, "json", false, "Print the demo result as JSON")
	cmd.Flags().BoolVar(&cmder.plain, "plain", false, "Print plain markdown without terminal styling")

	return cmd
}

func listDemos(w io.Writer) error {
	fmt.Fprintf(w, "\n  %s\n\n", cliui.KeyStyle.Render("Available demos:"))
	for _, kind := range companion.Demos() {
		fmt.Fprintf(w, "    %s\n", cliui.NameStyle.Render(kind))
	}
	fmt.Fprintf(w, "\n  %s\n\n", cliui.DimStyle.Render("Run one with: companion demo <kind>"))
	return nil
}

func (c *demoCommander) run(ctx context.Context, w io.Writer, kind string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	svc := companion.New(companion.Config{
		Selector: respond.NewRandSelector(c.seed),
		Logger:   logger.New(logger.WithDebug(c.debug), logger.WithWriter(os.Stderr)),
	})

	var result *companion.DemoResult
	play := func() error {
		var err error
		result, err = svc.RunDemo(ctx, kind)
		return err
	}

	if c.json {
		if err := play(); err != nil {
			return demoError(err)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintln(w)
	if err := cliui.Step(w, "Playing "+kind, play); err != nil {
		return demoError(err)
	}
	fmt.Fprintln(w)

	md := Markdown(result)
	if c.plain {
		_, err := io.WriteString(w, md)
		return err
	}

	rendered, err := cliui.RenderMarkdown(md)
	if err != nil {
		return fmt.Errorf("rendering demo: %w", err)
	}
	_, err = io.WriteString(w, rendered)
	return err
}

func demoError(err error) error {
	var unknown *companion.UnknownDemoError
	if errors.As(err, &unknown) {
		return fmt.Errorf("%w (available: %s)", err, strings.Join(companion.Demos(), ", "))
	}
	return err
}

// Markdown renders a demo transcript with per-turn analysis and the final
// insights.
func Markdown(r *companion.DemoResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Demo: %s\n\n", strings.ReplaceAll(r.Kind, "_", " "))

	for i, ex := range r.Exchanges {
		fmt.Fprintf(&b, "## Turn %d\n\n", i+1)
		fmt.Fprintf(&b, "**You:** %s\n\n", ex.UserMessage)
		fmt.Fprintf(&b, "**Companion:** %s\n\n", ex.Result.Response)

		if len(ex.Result.Emotions) > 0 {
			tags := make([]string, 0, len(ex.Result.Emotions))
			for _, e := range ex.Result.Emotions {
				tags = append(tags, fmt.Sprintf("%s (%s)", e.Emotion, e.Intensity))
			}
			fmt.Fprintf(&b, "- Emotions: %s\n", strings.Join(tags, ", "))
		}
		if len(ex.Result.Topics) > 0 {
			fmt.Fprintf(&b, "- Topics: %s\n", strings.Join(ex.Result.Topics, ", "))
		}
		fmt.Fprintf(&b, "- Intent: %s\n", ex.Result.Intent)
		fmt.Fprintf(&b, "- Sentiment: %.2f\n\n", ex.Result.Sentiment)
	}

	if in := r.Insights; in != nil {
		b.WriteString("## Insights\n\n")
		fmt.Fprintf(&b, "| Measure | Value |\n|---|---|\n")
		fmt.Fprintf(&b, "| Engagement | %s |\n", in.EngagementLevel)
		fmt.Fprintf(&b, "| Depth | %s |\n", in.ConversationDepth)
		fmt.Fprintf(&b, "| Topic diversity | %d |\n", in.TopicDiversity)
		fmt.Fprintf(&b, "| Emotional openness | %.2f |\n", in.EmotionalOpenness)
		fmt.Fprintf(&b, "| Emotional journey | %s |\n", in.JourneyPattern)
		fmt.Fprintf(&b, "| Dominant intent | %s |\n", in.CommunicationPatterns.DominantIntent)
	}

	return b.String()
}
