package httpadapter

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"

	"github.com/gluteintel/progress-tracker/internal/core/domain"
)

// renderReportPage builds the HTML dashboard view: summary lines, tag
// frequency and the latest archived plan rendered from markdown.
func renderReportPage(report *domain.SessionReport) ([]byte, error) {
	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html><head><meta charset=\"utf-8\">")
	fmt.Fprintf(&page, "<title>Session %s</title></head><body>\n", html.EscapeString(report.SessionID))
	fmt.Fprintf(&page, "<h1>Session %s</h1>\n", html.EscapeString(report.SessionID))

	if len(report.SummaryLines) > 0 {
		page.WriteString("<h2>Summary</h2>\n<ul>\n")
		for _, line := range report.SummaryLines {
			fmt.Fprintf(&page, "<li>%s</li>\n", html.EscapeString(line))
		}
		page.WriteString("</ul>\n")
	}

	if len(report.TagFrequency) > 0 {
		page.WriteString("<h2>Tag frequency</h2>\n<ul>\n")
		for _, tc := range report.TagFrequency {
			fmt.Fprintf(&page, "<li>%s: %d</li>\n", html.EscapeString(tc.Tag), tc.Count)
		}
		page.WriteString("</ul>\n")
	}

	if latest := latestPlan(report.Plans); latest != nil {
		page.WriteString("<h2>Latest plan</h2>\n")
		if latest.Status == domain.PlanStatusFailed {
			page.WriteString("<p><strong>Last generation failed; archived error shown below.</strong></p>\n")
		}
		if err := goldmark.Convert([]byte(latest.PlanText), &page); err != nil {
			return nil, fmt.Errorf("render plan markdown: %w", err)
		}
	}

	page.WriteString("</body></html>\n")
	return page.Bytes(), nil
}

func latestPlan(plans []domain.PlanRecord) *domain.PlanRecord {
	if len(plans) == 0 {
		return nil
	}
	return &plans[len(plans)-1]
}
