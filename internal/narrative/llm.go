package narrative

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Veraticus/noumi/internal/common"
	"github.com/Veraticus/noumi/internal/llm"
	"github.com/Veraticus/noumi/internal/model"
)

const systemPrompt = "You are Noumi, a friendly personal finance coach. " +
	"Write two or three encouraging sentences using only the numbers provided. " +
	"Respond with plain text, no markdown."

// LLMNarrator asks a language model to narrate facts and falls back to the
// template narrator when the model fails or returns nothing.
type LLMNarrator struct {
	client   llm.Client
	fallback Narrator
	logger   *slog.Logger
}

// NewLLMNarrator creates a narrator backed by client.
func NewLLMNarrator(client llm.Client, logger *slog.Logger) *LLMNarrator {
	if logger == nil {
		logger = common.ComponentLogger("narrative")
	}
	return &LLMNarrator{
		client:   client,
		fallback: TemplateNarrator{},
		logger:   logger,
	}
}

// Narrate implements Narrator.
func (n *LLMNarrator) Narrate(ctx context.Context, facts Facts) (string, error) {
	resp, err := n.client.Complete(ctx, llm.Request{
		System: systemPrompt,
		Prompt: buildPrompt(facts),
	})
	if err == nil {
		if text := llm.CleanText(resp.Text); text != "" {
			return text, nil
		}
		err = fmt.Errorf("empty completion")
	}

	if ctx.Err() != nil {
		return "", fmt.Errorf("%w: %w", common.ErrNarrationFailed, ctx.Err())
	}

	n.logger.Warn("LLM narration failed, using template", "kind", facts.Kind, "error", err)
	return n.fallback.Narrate(ctx, facts)
}

func buildPrompt(facts Facts) string {
	var b strings.Builder

	switch facts.Kind {
	case KindWeeklyPlan:
		b.WriteString("Introduce this week's savings plan.\n")
	case KindAccomplishments:
		b.WriteString("Celebrate these habit accomplishments.\n")
	default:
		b.WriteString("Recap the user's spending week.\n")
	}

	if !facts.WeekStart.IsZero() {
		fmt.Fprintf(&b, "Week starting: %s\n", facts.WeekStart.Format(model.DateLayout))
	}
	fmt.Fprintf(&b, "Spent this week: %s\n", money(facts.TotalSpent))
	if !facts.PreviousSpent.IsZero() {
		fmt.Fprintf(&b, "Spent the week before: %s\n", money(facts.PreviousSpent))
	}
	if facts.TopCategory != "" {
		fmt.Fprintf(&b, "Top category: %s\n", facts.TopCategory)
	}
	if facts.GoalName != "" {
		fmt.Fprintf(&b, "Goal: %s\n", facts.GoalName)
	}
	if !facts.WeeklyTarget.IsZero() {
		fmt.Fprintf(&b, "Weekly savings target: %s\n", money(facts.WeeklyTarget))
	}
	fmt.Fprintf(&b, "Anomaly-free days this week: %d\n", facts.AnomalyFreeDays)
	fmt.Fprintf(&b, "Longest anomaly-free streak this year: %d days\n", facts.LongestStreak)
	for _, h := range facts.Highlights {
		fmt.Fprintf(&b, "- %s\n", h)
	}

	return b.String()
}

var _ Narrator = (*LLMNarrator)(nil)
