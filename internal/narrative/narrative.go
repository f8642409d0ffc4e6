// Package narrative turns structured spending facts into short prose.
// Narration is presentation only; nothing here feeds back into anomaly
// classification or streaks.
package narrative

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Veraticus/noumi/internal/model"
	"github.com/shopspring/decimal"
)

// Kind selects which summary is being narrated.
type Kind string

// Narrated summaries.
const (
	KindWeeklyRecap     Kind = "weekly_recap"
	KindAccomplishments Kind = "accomplishments"
	KindWeeklyPlan      Kind = "weekly_plan"
)

// Facts is the structured input to a Narrator.
type Facts struct {
	WeekStart       time.Time
	TotalSpent      decimal.Decimal
	PreviousSpent   decimal.Decimal
	WeeklyTarget    decimal.Decimal
	Kind            Kind
	TopCategory     string
	GoalName        string
	Highlights      []string
	AnomalyFreeDays int
	LongestStreak   int
}

// Narrator produces prose for a set of facts.
type Narrator interface {
	Narrate(ctx context.Context, facts Facts) (string, error)
}

// TemplateNarrator renders facts with fixed sentences. It is deterministic
// and never fails.
type TemplateNarrator struct{}

// Narrate implements Narrator.
func (TemplateNarrator) Narrate(_ context.Context, facts Facts) (string, error) {
	var sentences []string

	switch facts.Kind {
	case KindWeeklyPlan:
		if facts.GoalName != "" {
			sentences = append(sentences, fmt.Sprintf("Save %s this week toward %s.", money(facts.WeeklyTarget), facts.GoalName))
		} else {
			sentences = append(sentences, fmt.Sprintf("Save %s this week.", money(facts.WeeklyTarget)))
		}
		if facts.TopCategory != "" {
			sentences = append(sentences, fmt.Sprintf("Keep an eye on %s, your biggest category lately.", facts.TopCategory))
		}

	case KindAccomplishments:
		if len(facts.Highlights) == 0 {
			sentences = append(sentences, "You're tracking your spending consistently.")
			break
		}
		sentences = append(sentences, fmt.Sprintf("Nice work this week: %s.", strings.Join(lowerFirst(facts.Highlights), "; ")))

	default:
		if !facts.WeekStart.IsZero() {
			sentences = append(sentences, fmt.Sprintf("Week of %s: you spent %s%s.",
				facts.WeekStart.Format(model.DateLayout), money(facts.TotalSpent), comparison(facts.TotalSpent, facts.PreviousSpent)))
		} else {
			sentences = append(sentences, fmt.Sprintf("You spent %s%s.", money(facts.TotalSpent), comparison(facts.TotalSpent, facts.PreviousSpent)))
		}
		if facts.TopCategory != "" {
			sentences = append(sentences, fmt.Sprintf("%s was your top category.", facts.TopCategory))
		}
		sentences = append(sentences, fmt.Sprintf("You had %s and your longest streak this year is %s.",
			plural(facts.AnomalyFreeDays, "anomaly-free day"), plural(facts.LongestStreak, "day")))
	}

	return strings.Join(sentences, " "), nil
}

func comparison(current, previous decimal.Decimal) string {
	if previous.IsZero() {
		return ""
	}
	diff := current.Sub(previous)
	switch diff.Sign() {
	case -1:
		return fmt.Sprintf(", down %s from the week before", money(diff.Abs()))
	case 1:
		return fmt.Sprintf(", up %s from the week before", money(diff))
	}
	return ", the same as the week before"
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func lowerFirst(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		if s != "" {
			s = strings.ToLower(s[:1]) + s[1:]
		}
		out[i] = s
	}
	return out
}

var _ Narrator = TemplateNarrator{}
