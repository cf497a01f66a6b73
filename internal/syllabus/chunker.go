// Package syllabus turns pasted course outlines into lesson-plan steps and
// stores them through Supabase.
package syllabus

import (
	"regexp"
	"strings"
)

const (
	detailSeparator  = " · "
	maxDetailRunes   = 280
	defaultStepKind  = "read"
	defaultStepMins  = 30
	defaultStartUnit = 1
)

var (
	lineSplit     = regexp.MustCompile(`\r?\n`)
	headingLine   = regexp.MustCompile(`(?i)^(unit|week|chapter|lesson)\s*\d+`)
	headingPrefix = regexp.MustCompile(`(?i)^(\w+)\s*\d+[:\-]?\s*`)
)

type chunk struct {
	heading string
	details []string
}

// Chunk splits an outline into steps. A heading line (Unit 3, Week 2, ...)
// opens a new step; other lines become its details. Lines before the first
// heading open a step of their own. Orders count up from startUnit.
func Chunk(text string, startUnit int) []Step {
	var chunks []chunk
	var current *chunk

	for _, line := range nonEmptyLines(text) {
		switch {
		case headingLine.MatchString(line):
			if current != nil {
				chunks = append(chunks, *current)
			}
			current = &chunk{heading: line}
		case current != nil:
			current.details = append(current.details, line)
		default:
			current = &chunk{heading: line}
		}
	}
	if current != nil {
		chunks = append(chunks, *current)
	}

	steps := make([]Step, 0, len(chunks))
	for i, c := range chunks {
		steps = append(steps, Step{
			Order:        startUnit + i,
			Kind:         defaultStepKind,
			Title:        stepTitle(c.heading),
			Details:      truncateRunes(strings.Join(c.details, detailSeparator), maxDetailRunes),
			ResourceURLs: []string{},
			Minutes:      defaultStepMins,
		})
	}
	return steps
}

func stepTitle(heading string) string {
	return strings.TrimSpace(headingPrefix.ReplaceAllString(heading, ""))
}

func nonEmptyLines(text string) []string {
	var out []string
	for _, l := range lineSplit.Split(text, -1) {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
