package main

import (
	"flag"
	"fmt"
	"math"
	"os"

	"oral-coach-be/internal/dataset"
	"oral-coach-be/internal/pkg/logger"

	"github.com/fatih/color"
)

// Validates the JSONL seed dataset: loads every table the way the server
// does, then checks cross-references between tables.
func main() {
	seedDir := flag.String("dir", "seed", "directory containing the JSONL seed files")
	flag.Parse()

	color.Cyan("🔍 Validating seed dataset in %s\n", *seedDir)

	log := logger.NewIsolatedLogger("logs/seed.log")
	store, err := dataset.Load(*seedDir, log)
	if err != nil {
		color.Red("Failed to load dataset: %v", err)
		os.Exit(1)
	}

	stats := store.Stats()
	color.Green("Loaded %d records", stats.Total)
	fmt.Printf("  exam_components:    %d\n", stats.ExamComponents)
	fmt.Printf("  rubrics:            %d\n", stats.Rubrics)
	fmt.Printf("  grading_logic:      %d\n", stats.GradingLogic)
	fmt.Printf("  scenarios:          %d\n", stats.Scenarios)
	fmt.Printf("  question_bank:      %d\n", stats.QuestionBank)
	fmt.Printf("  common_errors:      %d\n", stats.CommonErrors)
	fmt.Printf("  feedback_templates: %d\n", stats.FeedbackTemplates)
	fmt.Printf("  listening_assets:   %d\n", stats.ListeningAssets)
	fmt.Printf("  answer_guides:      %d\n", stats.AnswerGuides)
	fmt.Printf("  citations:          %d\n", stats.Citations)

	problems := 0
	warn := func(format string, args ...interface{}) {
		color.Yellow("  [WARN] "+format, args...)
	}
	fail := func(format string, args ...interface{}) {
		color.Red("  [FAIL] "+format, args...)
		problems++
	}

	color.Cyan("\nChecking grading logic")
	if len(store.GradingLogic) == 0 {
		fail("no grading_logic record: composite scoring will use built-in defaults")
	}
	for _, gl := range store.GradingLogic {
		var sum float64
		for _, w := range gl.CriteriaWeights {
			sum += w
		}
		if len(gl.CriteriaWeights) > 0 && math.Abs(sum-1.0) > 0.01 {
			fail("grading_logic %s: criteria weights sum to %.3f, expected 1.0", gl.Id, sum)
		}
		if gl.RollingWindowSessions <= 0 {
			warn("grading_logic %s: rolling_window_sessions not set", gl.Id)
		}
	}

	color.Cyan("\nChecking cross-references")
	rubricIds := make(map[string]bool, len(store.Rubrics))
	for _, r := range store.Rubrics {
		rubricIds[r.Id] = true
	}
	errorIds := make(map[string]bool, len(store.CommonErrors))
	for _, e := range store.CommonErrors {
		errorIds[e.Id] = true
	}
	templateIds := make(map[string]bool, len(store.FeedbackTemplates))
	for _, t := range store.FeedbackTemplates {
		templateIds[t.Id] = true
	}
	scenarioIds := make(map[string]bool, len(store.Scenarios))
	for _, sc := range store.Scenarios {
		scenarioIds[sc.Id] = true
	}

	for _, sc := range store.Scenarios {
		for _, id := range sc.RubricIds {
			if !rubricIds[id] {
				fail("scenario %s references unknown rubric %s", sc.Id, id)
			}
		}
		for _, id := range sc.CommonErrorIds {
			if !errorIds[id] {
				fail("scenario %s references unknown common error %s", sc.Id, id)
			}
		}
		for _, id := range sc.FeedbackTemplateIds {
			if !templateIds[id] {
				warn("scenario %s references unknown feedback template %s", sc.Id, id)
			}
		}
	}
	for _, g := range store.AnswerGuides {
		if !scenarioIds[g.ScenarioId] {
			fail("answer guide %s references unknown scenario %s", g.Id, g.ScenarioId)
		}
	}

	color.Cyan("\nChecking phase coverage")
	for _, lang := range []string{"FR", "EN"} {
		for _, phase := range []string{"1", "2", "3", "4"} {
			found := false
			for _, sc := range store.Scenarios {
				if sc.Language == lang && sc.Phase == phase {
					found = true
					break
				}
			}
			if !found {
				warn("no scenario for language=%s phase=%s", lang, phase)
			}
		}
	}
	for _, lang := range []string{"FR", "EN"} {
		found := false
		for _, a := range store.ListeningAssets {
			if a.Language == lang {
				found = true
				break
			}
		}
		if !found {
			warn("no listening asset for language=%s (comprehension phase degrades to question-only)", lang)
		}
	}

	if problems > 0 {
		color.Red("\n❌ Dataset has %d problem(s)", problems)
		os.Exit(1)
	}
	color.Green("\n✅ Dataset is consistent")
}
