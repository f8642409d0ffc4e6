package cli

import (
	"fmt"
	"strings"

	"github.com/Veraticus/noumi/internal/analytics"
	"github.com/Veraticus/noumi/internal/model"
	"github.com/Veraticus/noumi/internal/streak"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const progressWidth = 20

var weekdays = [streak.DaysPerWeek]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// Dashboard collects the analytics shown by `noumi report`. Nil sections are skipped.
type Dashboard struct {
	Anomalies  *analytics.YearlyAnomaliesResult
	Week       *analytics.WeeklyStreakResult
	Longest    *analytics.LongestStreakResult
	Total      *analytics.TotalSpentResult
	Status     *analytics.StatusResult
	Goal       *analytics.ComputedGoalResult
	Categories *analytics.CategoriesResult
	Trends     *analytics.TrendsResult
	Name       string
}

// RenderDashboard renders d as a stack of boxes.
func RenderDashboard(d Dashboard) string {
	sections := []string{FormatTitle(fmt.Sprintf("Noumi report for %s", d.Name))}

	if d.Week != nil {
		body := WeekLine(d.Week.Days)
		if d.Longest != nil {
			body += fmt.Sprintf("\nCurrent streak: %s  Longest this year: %s",
				BoldStyle.Render(fmt.Sprintf("%d days", d.Longest.Current)),
				BoldStyle.Render(fmt.Sprintf("%d days", d.Longest.Longest)))
		}
		sections = append(sections, RenderBox("This week", body))
	}

	if d.Anomalies != nil || d.Total != nil || d.Status != nil {
		var lines []string
		if d.Total != nil {
			lines = append(lines, fmt.Sprintf("Spent since %s: $%s", d.Total.Start.Format(model.DateLayout), d.Total.Total.StringFixed(2)))
		}
		if d.Anomalies != nil {
			lines = append(lines, fmt.Sprintf("Unusual purchases this year: %d of %d", len(d.Anomalies.TransactionIDs), d.Anomalies.Classified))
		}
		if d.Status != nil && d.Status.Outcome == analytics.OutcomeOK {
			lines = append(lines, fmt.Sprintf("Last 30 days: $%s in, $%s out, $%s safe to spend",
				d.Status.Income.StringFixed(2), d.Status.Expenses.StringFixed(2), d.Status.SafeToSpend.StringFixed(2)))
		}
		sections = append(sections, RenderBox("Spending", strings.Join(lines, "\n")))
	}

	if d.Goal != nil && d.Goal.Outcome == analytics.OutcomeOK {
		body := fmt.Sprintf("%s by %s\n%s $%s of $%s",
			d.Goal.GoalName,
			d.Goal.TargetDate.Format("Jan 2, 2006"),
			ProgressBar(d.Goal.Progress, progressWidth),
			d.Goal.AmountSaved.StringFixed(2),
			d.Goal.GoalAmount.StringFixed(2))
		sections = append(sections, RenderBox("Goal", body))
	}

	if d.Categories != nil && len(d.Categories.Categories) > 0 {
		rows := make([][]string, 0, len(d.Categories.Categories))
		for _, c := range d.Categories.Categories {
			rows = append(rows, []string{c.Month, c.Category, "$" + c.Amount.StringFixed(2)})
		}
		sections = append(sections, RenderBox("Categories", Table([]string{"Month", "Category", "Spent"}, rows)))
	}

	if d.Trends != nil && len(d.Trends.Trends) > 0 {
		lines := make([]string, 0, len(d.Trends.Trends))
		for _, t := range d.Trends.Trends {
			lines = append(lines, t.Icon+" "+t.Text)
		}
		sections = append(sections, RenderBox("Trends", strings.Join(lines, "\n")))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// WeekLine renders a weekly vector as "Mon ✓ Tue ✗ ...".
func WeekLine(days [streak.DaysPerWeek]int) string {
	parts := make([]string, len(days))
	for i, v := range days {
		mark := ErrorStyle.Render(ErrorIcon)
		if v == 1 {
			mark = SuccessStyle.Render(SuccessIcon)
		}
		parts[i] = weekdays[i] + " " + mark
	}
	return strings.Join(parts, "  ")
}

// ProgressBar renders a fraction in [0, 1] as a fixed-width bar with a percentage.
func ProgressBar(fraction decimal.Decimal, width int) string {
	fraction = decimal.Min(decimal.Max(fraction, decimal.Zero), decimal.NewFromInt(1))
	filled := int(fraction.Mul(decimal.NewFromInt(int64(width))).IntPart())
	bar := SuccessStyle.Render(strings.Repeat("█", filled)) + SubtleStyle.Render(strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %s%%", bar, fraction.Mul(decimal.NewFromInt(100)).StringFixed(0))
}

// Table renders rows under a header with padded columns.
func Table(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	render := func(cells []string, style lipgloss.Style) string {
		out := make([]string, len(cells))
		for i, cell := range cells {
			out[i] = style.Width(widths[i] + TableCellStyle.GetPaddingRight()).Render(cell)
		}
		return lipgloss.JoinHorizontal(lipgloss.Top, out...)
	}

	lines := []string{render(headers, TableHeaderStyle)}
	for _, row := range rows {
		lines = append(lines, render(row, TableCellStyle))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
