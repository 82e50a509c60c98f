package companion

import (
	"context"
	"fmt"
	"slices"

	"github.com/papercomputeco/companion/pkg/memory"
	"github.com/papercomputeco/companion/pkg/session"
)

var demoScripts = map[string][]string{
	"presentation_stress": {
		"I'm stressed about my presentation tomorrow",
		"Yeah, it's a big client meeting and I'm worried about the technical demo",
		"The slides look good but I'm nervous about the Q&A section",
		"What if they ask something I don't know?",
	},
	"relationship_issue": {
		"I had a fight with my partner last night",
		"It was about money again, we never seem to agree on spending",
		"I feel like we're just talking past each other",
		"Maybe we need to find a better way to communicate about this stuff",
	},
	"work_stress": {
		"Work has been really overwhelming lately",
		"My boss keeps piling on more projects without extending deadlines",
		"I'm working 12 hour days and still falling behind",
		"I don't know how much longer I can keep this up",
	},
	"exciting_news": {
		"I got the job I interviewed for last week!",
		"I'm so excited but also nervous about starting",
		"It's a big step up from my current role",
		"The salary is amazing but there's a lot more responsibility",
	},
}

// UnknownDemoError names a demo that has no script.
type UnknownDemoError struct {
	Kind string
}

func (e *UnknownDemoError) Error() string {
	return fmt.Sprintf("unknown demo %q", e.Kind)
}

// Demos lists the available demo scripts.
func Demos() []string {
	kinds := make([]string, 0, len(demoScripts))
	for k := range demoScripts {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// DemoExchange is one scripted message and its result.
type DemoExchange struct {
	UserMessage string  `json:"user_message"`
	Result      *Result `json:"result"`
}

// DemoResult is a full scripted conversation.
type DemoResult struct {
	Kind      string           `json:"demo_type"`
	Exchanges []DemoExchange   `json:"conversation"`
	Insights  *memory.Insights `json:"insights"`
}

// RunDemo plays a scripted conversation against a private session store, so
// demos never touch live conversations.
func (s *Service) RunDemo(ctx context.Context, kind string) (*DemoResult, error) {
	script, ok := demoScripts[kind]
	if !ok {
		return nil, &UnknownDemoError{Kind: kind}
	}

	store := session.NewCacheStore(session.Config{MaxSessions: 1, Logger: s.logger})
	defer store.Close()
	demo := &Service{
		store:   store,
		builder: s.builder,
		logger:  s.logger,
		now:     s.now,
	}

	id := "demo-" + kind
	out := &DemoResult{Kind: kind}
	for _, msg := range script {
		res, err := demo.ProcessMessage(ctx, id, msg)
		if err != nil {
			return nil, fmt.Errorf("demo %s: %w", kind, err)
		}
		out.Exchanges = append(out.Exchanges, DemoExchange{UserMessage: msg, Result: res})
		if res.Overflow != nil {
			break
		}
	}

	insights, err := demo.Insights(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("demo %s insights: %w", kind, err)
	}
	out.Insights = insights
	return out, nil
}
