package dataset

import (
	"fmt"
	"strings"
)

// maxContextErrors bounds how many common-error entries are injected into
// the coach system prompt.
const maxContextErrors = 10

// CoachContext renders the reference block injected into the coach system
// prompt: the current exam phase, the rubric descriptors for the target
// level, and a bounded list of common errors to watch for.
func (s *Store) CoachContext(language, targetLevel, phase string) string {
	var sections []string

	if ec := s.GetExamComponent(language, phase); ec != nil {
		sections = append(sections,
			fmt.Sprintf("## Current Exam Phase: %s (Phase %s)", ec.Name, phase),
			fmt.Sprintf("Duration: %d-%d minutes", ec.DurationMin, ec.DurationMax),
			fmt.Sprintf("Description: %s", ec.Description),
			fmt.Sprintf("Objectives: %s", strings.Join(ec.Objectives, "; ")),
			"",
		)
	}

	if rubrics := s.GetRubrics(language, targetLevel); len(rubrics) > 0 {
		sections = append(sections, fmt.Sprintf("## Evaluation Rubrics for Level %s:", targetLevel))
		for _, r := range rubrics {
			sections = append(sections,
				fmt.Sprintf("### %s (weight: %.2f)", r.Criterion, r.Weight),
				r.Descriptor,
				fmt.Sprintf("Indicators: %s", strings.Join(r.Indicators, "; ")),
				"",
			)
		}
	}

	errors := s.GetCommonErrors(language, "", targetLevel)
	if len(errors) > maxContextErrors {
		errors = errors[:maxContextErrors]
	}
	if len(errors) > 0 {
		sections = append(sections, fmt.Sprintf("## Common Errors to Watch For (Level %s):", targetLevel))
		for _, e := range errors {
			sections = append(sections, fmt.Sprintf("- %s -> %s (%s)", e.Pattern, e.Correction, e.Category))
		}
		sections = append(sections, "")
	}

	return strings.Join(sections, "\n")
}
