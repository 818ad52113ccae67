// Package report renders the weekly content-suggestion review document.
package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/0xhubed/agent-engineering/internal/core/domain"
	"github.com/0xhubed/agent-engineering/internal/process/suggestions"
)

const (
	emptyCell       = "-"
	maxTitleChars   = 80
	defaultPageFmt  = "src/pages/topics/%s/index.astro"
	reviewChecklist = "Review Guidelines"
)

var guidelines = []string{
	"Verify technical accuracy of suggested content",
	"Check that referenced code runs",
	"Ensure content fits the page structure and style",
	"Verify source links are correct and accessible",
	"Consider whether the content belongs in a different section",
}

// Input is everything the review document shows.
type Input struct {
	Week            string
	SourcesAnalyzed int
	PassedThreshold int
	Threshold       float64
	Groups          []suggestions.Group
	Skipped         []domain.LowConfidenceItem
	// PagePath resolves a topic to its page file. Nil uses the default layout.
	PagePath func(topic string) (string, bool)
}

// Writer writes Markdown review reports.
type Writer struct {
	output io.Writer
}

func NewWriter(output io.Writer) *Writer {
	return &Writer{output: output}
}

// Write renders in to the underlying writer.
func (w *Writer) Write(in Input) error {
	md := markdown.NewMarkdown(w.output)

	writeHeader(md, in)
	writeGroups(md, in)
	writeSkipped(md, in.Skipped)
	writeFooter(md)

	if err := md.Build(); err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	return nil
}

func writeHeader(md *markdown.Markdown, in Input) {
	total := 0
	for _, g := range in.Groups {
		total += len(g.Suggestions)
	}

	md.H1("Content Suggestions " + in.Week)
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Week", in.Week},
			{"Sources analyzed", strconv.Itoa(in.SourcesAnalyzed)},
			{"Passed threshold", strconv.Itoa(in.PassedThreshold)},
			{"Confidence threshold", formatConfidence(in.Threshold)},
			{"Suggestions generated", strconv.Itoa(total)},
		},
	})
	md.PlainText("")

	if total == 0 {
		md.Note("No suggestions passed the confidence threshold this week.")
		md.PlainText("")

		return
	}

	if len(in.Groups) > 1 {
		writeTopicChart(md, in.Groups)
	}
}

func writeTopicChart(md *markdown.Markdown, groups []suggestions.Group) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Suggestions by topic"),
		piechart.WithShowData(true),
	)

	for _, g := range groups {
		chart.LabelAndIntValue(g.Topic, uint64(len(g.Suggestions)))
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func writeGroups(md *markdown.Markdown, in Input) {
	for _, g := range in.Groups {
		md.H2("Topic: `" + g.Topic + "`")
		md.PlainTextf("**File:** `%s`", pagePath(in, g.Topic))
		md.PlainText("")

		for i, s := range g.Suggestions {
			section := s.TargetSection
			if section == "" {
				section = "New Section"
			}

			md.H3(fmt.Sprintf("Change %d: %s", i+1, section))
			md.PlainTextf("**Source:** [%s](%s)", truncate(s.Item.Title, maxTitleChars), s.Item.URL)
			md.PlainTextf("**Confidence:** %s", formatConfidence(s.Confidence))
			md.PlainTextf("**Type:** %s", orDash(string(s.Item.Type)))
			md.PlainText("")

			if s.TargetPage != "" && s.TargetPage != pagePath(in, g.Topic) {
				md.PlainTextf("**Target page:** `%s`", s.TargetPage)
				md.PlainText("")
			}

			md.PlainText(s.SuggestionText)
			md.PlainText("")
			md.HorizontalRule()
			md.PlainText("")
		}
	}
}

func writeSkipped(md *markdown.Markdown, skipped []domain.LowConfidenceItem) {
	if len(skipped) == 0 {
		return
	}

	rows := make([][]string, len(skipped))
	for i, s := range skipped {
		rows[i] = []string{truncate(orDash(s.Title), maxTitleChars), orDash(s.URL), formatConfidence(s.Confidence)}
	}

	md.H2(fmt.Sprintf("Below threshold (%d)", len(skipped)))
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Title", "URL", "Confidence"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeFooter(md *markdown.Markdown) {
	md.H2(reviewChecklist)
	md.PlainText("")
	md.BulletList(guidelines...)
	md.PlainText("")
	md.HorizontalRule()
	md.PlainText("*Generated by agent-pipeline suggest*")
}

func pagePath(in Input, topic string) string {
	if in.PagePath != nil {
		if p, ok := in.PagePath(topic); ok {
			return p
		}
	}

	if topic == suggestions.UnknownTopic {
		return emptyCell
	}

	return fmt.Sprintf(defaultPageFmt, topic)
}

func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', 2, 64)
}

func orDash(s string) string {
	if s == "" {
		return emptyCell
	}

	return s
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return string(r[:maxLen])
	}

	return string(r[:maxLen-3]) + "..."
}
