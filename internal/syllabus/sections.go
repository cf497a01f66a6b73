package syllabus

import (
	"regexp"
)

const defaultSectionHeading = "Course Content"

var (
	unitLine     = regexp.MustCompile(`(?i)^(unit|chapter|module|week)\s+\d+`)
	bulletMarker = regexp.MustCompile(`^[-•*]\s*`)
	numberMarker = regexp.MustCompile(`^\d+\.\s*`)
)

// Sections is the rule-based outline parser. Unit-like lines become units,
// bulleted or numbered lines become 30 minute lessons, everything else is
// dropped. An outline with no recognisable lines yields a single unit.
func Sections(text string) []Section {
	var out []Section
	pos := 1
	for _, line := range nonEmptyLines(text) {
		isUnit := unitLine.MatchString(line)
		isLesson := bulletMarker.MatchString(line) || numberMarker.MatchString(line)
		if !isUnit && !isLesson {
			continue
		}

		s := Section{
			Position: pos,
			Heading:  numberMarker.ReplaceAllString(bulletMarker.ReplaceAllString(line, ""), ""),
		}
		if isUnit {
			s.SectionType = SectionUnit
		} else {
			mins := defaultStepMins
			s.SectionType = SectionLesson
			s.EstimatedMinutes = &mins
		}
		out = append(out, s)
		pos++
	}

	if len(out) == 0 {
		out = append(out, Section{Position: 1, SectionType: SectionUnit, Heading: defaultSectionHeading})
	}
	return out
}
