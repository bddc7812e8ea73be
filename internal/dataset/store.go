package dataset

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"oral-coach-be/internal/pkg/logger"
)

// Store holds every dataset table in memory. Loaded once per process;
// all reads afterwards are lock-free because nothing mutates it.
type Store struct {
	ExamComponents    []ExamComponent
	Rubrics           []Rubric
	GradingLogic      []GradingLogic
	Scenarios         []Scenario
	QuestionBank      []Question
	CommonErrors      []CommonError
	FeedbackTemplates []FeedbackTemplate
	ListeningAssets   []ListeningAsset
	AnswerGuides      []AnswerGuide
	Citations         []Citation
}

// Stats is the per-table record count summary exposed to the admin surface.
type Stats struct {
	ExamComponents    int `json:"exam_components"`
	Rubrics           int `json:"rubrics"`
	GradingLogic      int `json:"grading_logic"`
	Scenarios         int `json:"scenarios"`
	QuestionBank      int `json:"question_bank"`
	CommonErrors      int `json:"common_errors"`
	FeedbackTemplates int `json:"feedback_templates"`
	ListeningAssets   int `json:"listening_assets"`
	AnswerGuides      int `json:"answer_guides"`
	Citations         int `json:"citations"`
	Total             int `json:"total"`
}

// Load reads every JSONL table under seedDir. Missing files are logged and
// treated as empty tables so a partial dataset still boots.
func Load(seedDir string, log logger.ILogger) (*Store, error) {
	start := time.Now()

	s := &Store{
		ExamComponents:    loadJsonl[ExamComponent](seedDir, "exam_components.jsonl", log),
		Rubrics:           loadJsonl[Rubric](seedDir, "rubrics.jsonl", log),
		GradingLogic:      loadJsonl[GradingLogic](seedDir, "grading_logic.jsonl", log),
		Scenarios:         loadJsonl[Scenario](seedDir, "scenarios.jsonl", log),
		QuestionBank:      loadJsonl[Question](seedDir, "question_bank.jsonl", log),
		CommonErrors:      loadJsonl[CommonError](seedDir, "common_errors.jsonl", log),
		FeedbackTemplates: loadJsonl[FeedbackTemplate](seedDir, "feedback_templates.jsonl", log),
		ListeningAssets:   loadJsonl[ListeningAsset](seedDir, "listening_assets.jsonl", log),
		AnswerGuides:      loadJsonl[AnswerGuide](seedDir, "answer_guides.jsonl", log),
		Citations:         loadJsonl[Citation](seedDir, "citations.jsonl", log),
	}

	stats := s.Stats()
	log.Info("Dataset", "Seed data loaded", map[string]interface{}{
		"records":     stats.Total,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return s, nil
}

func loadJsonl[T any](seedDir, filename string, log logger.ILogger) []T {
	filepath := filepath.Join(seedDir, filename)

	file, err := os.Open(filepath)
	if err != nil {
		log.Warn("Dataset", "Seed file not found, table will be empty", map[string]interface{}{
			"file": filepath,
		})
		return []T{}
	}
	defer file.Close()

	var records []T
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record T
		if err := json.Unmarshal(line, &record); err != nil {
			log.Warn("Dataset", "Skipping malformed seed line", map[string]interface{}{
				"file":  filename,
				"error": err.Error(),
			})
			continue
		}
		records = append(records, record)
	}

	return records
}

func (s *Store) Stats() Stats {
	st := Stats{
		ExamComponents:    len(s.ExamComponents),
		Rubrics:           len(s.Rubrics),
		GradingLogic:      len(s.GradingLogic),
		Scenarios:         len(s.Scenarios),
		QuestionBank:      len(s.QuestionBank),
		CommonErrors:      len(s.CommonErrors),
		FeedbackTemplates: len(s.FeedbackTemplates),
		ListeningAssets:   len(s.ListeningAssets),
		AnswerGuides:      len(s.AnswerGuides),
		Citations:         len(s.Citations),
	}
	st.Total = st.ExamComponents + st.Rubrics + st.GradingLogic + st.Scenarios +
		st.QuestionBank + st.CommonErrors + st.FeedbackTemplates +
		st.ListeningAssets + st.AnswerGuides + st.Citations
	return st
}

// Grading returns the singleton grading configuration, or false when the
// grading_logic table was not seeded.
func (s *Store) Grading() (GradingLogic, bool) {
	if len(s.GradingLogic) == 0 {
		return GradingLogic{}, false
	}
	return s.GradingLogic[0], true
}

// GetExamComponent returns the component for a language and phase, nil if absent.
func (s *Store) GetExamComponent(language, phase string) *ExamComponent {
	for i := range s.ExamComponents {
		ec := &s.ExamComponents[i]
		if ec.Language == language && ec.Phase == phase {
			return ec
		}
	}
	return nil
}

// GetRubrics returns the rubric descriptors for a language and level.
func (s *Store) GetRubrics(language, level string) []Rubric {
	var out []Rubric
	for _, r := range s.Rubrics {
		if r.Language == language && r.Level == level {
			out = append(out, r)
		}
	}
	return out
}

// GetCommonErrors filters by language, then by the optional category and
// level impact. Empty filter values match everything.
func (s *Store) GetCommonErrors(language, category, levelImpact string) []CommonError {
	var out []CommonError
	for _, e := range s.CommonErrors {
		if e.Language != language {
			continue
		}
		if category != "" && e.Category != category {
			continue
		}
		if levelImpact != "" && e.LevelImpact != levelImpact {
			continue
		}
		out = append(out, e)
	}
	return out
}

// GetFeedbackTemplates filters by language and the optional type/criterion.
// Templates tagged "general" match any criterion filter.
func (s *Store) GetFeedbackTemplates(language, typ, criterion string) []FeedbackTemplate {
	var out []FeedbackTemplate
	for _, t := range s.FeedbackTemplates {
		if t.Language != language {
			continue
		}
		if typ != "" && t.Type != typ {
			continue
		}
		if criterion != "" && t.Criterion != criterion && t.Criterion != "general" {
			continue
		}
		out = append(out, t)
	}
	return out
}

// GetAnswerGuide returns the coach-only guide for a scenario, nil if absent.
func (s *Store) GetAnswerGuide(scenarioId string) *AnswerGuide {
	for i := range s.AnswerGuides {
		if s.AnswerGuides[i].ScenarioId == scenarioId {
			return &s.AnswerGuides[i]
		}
	}
	return nil
}
