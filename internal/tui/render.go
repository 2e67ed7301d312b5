// Package tui renders worklog output for the terminal and drives the
// interactive parts of submission.
package tui

import (
	"fmt"
	"strings"

	"github.com/Tiliavir/worklog/internal/model"
	"github.com/Tiliavir/worklog/internal/timecalc"
)

// RenderValidation formats a validation result: either the error list or a
// per-date summary followed by cross-date notices.
func RenderValidation(r model.ValidationResult) string {
	var b strings.Builder
	if !r.IsValid {
		b.WriteString(ErrorStyle.Render(fmt.Sprintf("✗ %d validation error(s)", len(r.Errors))))
		b.WriteString("\n")
		for _, e := range r.Errors {
			fmt.Fprintf(&b, "  %s %s\n", ErrorStyle.Render("•"), e)
		}
		return b.String()
	}

	b.WriteString(SuccessStyle.Render(fmt.Sprintf("✓ %d date(s) valid", len(r.Logs))))
	b.WriteString("\n")
	for _, log := range r.Logs {
		var hours float64
		for _, e := range log.Entries {
			hours += e.DurationHours
		}
		fmt.Fprintf(&b, "  %-12s %s  %d entr%s  %s\n",
			log.Date,
			DimStyle.Render(log.ISODate),
			len(log.Entries), plural(len(log.Entries), "y", "ies"),
			timecalc.FormatHours(hours),
		)
	}
	b.WriteString(RenderCrossDate(r.CrossDate))
	return b.String()
}

// RenderCrossDate lists subjects logged on more than one date. It returns an
// empty string when there are none.
func RenderCrossDate(dups []model.CrossDateDuplicate) string {
	if len(dups) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n")
	b.WriteString(WarningStyle.Render("Subjects logged on several dates:"))
	b.WriteString("\n")
	for _, d := range dups {
		dates := make([]string, 0, len(d.Dates))
		for _, dh := range d.Dates {
			dates = append(dates, fmt.Sprintf("%s (%s)", dh.Date, timecalc.FormatHours(dh.Hours)))
		}
		fmt.Fprintf(&b, "  %s / %s: %s, total %s\n",
			d.Project, d.Subject, strings.Join(dates, ", "), timecalc.FormatHours(d.TotalHours))
	}
	return b.String()
}

// RenderTimeline formats the schedule of one date.
func RenderTimeline(tl model.Timeline) string {
	var b strings.Builder
	b.WriteString(TitleStyle.Render(fmt.Sprintf("%s (%s)", tl.Date, tl.ISODate)))
	b.WriteString("  ")
	b.WriteString(SubtitleStyle.Render(timecalc.FormatHours(tl.TotalHours)))
	b.WriteString("\n")
	for _, e := range tl.Entries {
		slot := fmt.Sprintf("%8s – %-8s", e.StartTimeFormatted, e.EndTimeFormatted)
		tag := ""
		if e.IsScrum {
			slot = ScrumStyle.Render(slot)
			tag = " " + ScrumStyle.Render("[SCRUM]")
		}
		wp := ""
		if e.WorkPackageID != nil {
			wp = DimStyle.Render(fmt.Sprintf(" #%d", *e.WorkPackageID))
		}
		fmt.Fprintf(&b, "  %s  %-10s %s%s%s  %s\n",
			slot, e.Project, e.Subject, wp, tag, DimStyle.Render(e.Activity+", "+timecalc.FormatHours(e.DurationHours)))
	}
	return b.String()
}

// RenderOutcome formats a reconciliation outcome.
func RenderOutcome(o model.Outcome) string {
	var b strings.Builder
	for _, s := range o.Success {
		var mark string
		switch s.Action {
		case model.ActionCreated:
			mark = SuccessStyle.Render("✓ created")
		case model.ActionSkipped:
			mark = DimStyle.Render("– skipped")
		default:
			mark = WarningStyle.Render("○ " + s.Action)
		}
		detail := ""
		if s.WorkPackageID != 0 {
			detail = fmt.Sprintf(" (work package #%d", s.WorkPackageID)
			if s.WorkPackageCreated {
				detail += ", new"
			}
			detail += ")"
		}
		fmt.Fprintf(&b, "  %s %s%s\n", mark, s.Entry.Subject, DimStyle.Render(detail))
	}
	for _, f := range o.Failed {
		fmt.Fprintf(&b, "  %s %s: %s\n", ErrorStyle.Render("✗ failed"), f.Entry.Subject, f.Error)
	}
	fmt.Fprintf(&b, "%s\n", Summary(o))
	return b.String()
}

// Summary is a one-line count of outcome actions.
func Summary(o model.Outcome) string {
	parts := []string{
		fmt.Sprintf("%d created", o.Count(model.ActionCreated)),
		fmt.Sprintf("%d skipped", o.Count(model.ActionSkipped)),
	}
	if n := o.Count(model.ActionPlanned); n > 0 {
		parts = append(parts, fmt.Sprintf("%d planned", n))
	}
	parts = append(parts, fmt.Sprintf("%d failed", len(o.Failed)))
	return strings.Join(parts, ", ")
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
