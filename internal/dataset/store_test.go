package dataset

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

func writeSeedFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func TestLoadSkipsMalformedLines(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "scenarios.jsonl",
		`{"id":"sc-1","language":"FR","phase":"1","prompt_text":"Bonjour"}
not json at all
{"id":"sc-2","language":"FR","phase":"1","prompt_text":"Salut"}

{"id":"sc-3","language":"EN","phase":"3","prompt_text":"Hello"}
`)

	store, err := Load(dir, nopLogger{})
	assert.NoError(t, err)
	assert.Len(t, store.Scenarios, 3)
	assert.Equal(t, "sc-2", store.Scenarios[1].Id)
}

func TestLoadMissingFilesYieldEmptyTables(t *testing.T) {
	store, err := Load(t.TempDir(), nopLogger{})
	assert.NoError(t, err)
	assert.Empty(t, store.Scenarios)
	assert.Empty(t, store.QuestionBank)
	assert.Equal(t, 0, store.Stats().Total)

	_, ok := store.Grading()
	assert.False(t, ok)
	assert.Nil(t, store.GetExamComponent("FR", "1"))
	assert.Nil(t, store.GetAnswerGuide("sc-1"))
}

func TestStatsCountsEveryTable(t *testing.T) {
	dir := t.TempDir()
	writeSeedFile(t, dir, "rubrics.jsonl", `{"id":"r-1","criterion":"fluency","level":"B","language":"FR"}`+"\n")
	writeSeedFile(t, dir, "question_bank.jsonl",
		`{"id":"q-1","language":"FR","phase":"1","question_text":"Pourquoi?"}
{"id":"q-2","language":"FR","phase":"1","question_text":"Comment?"}
`)

	store, err := Load(dir, nopLogger{})
	assert.NoError(t, err)

	stats := store.Stats()
	assert.Equal(t, 1, stats.Rubrics)
	assert.Equal(t, 2, stats.QuestionBank)
	assert.Equal(t, 3, stats.Total)
}

func TestGetFeedbackTemplatesGeneralMatchesAnyCriterion(t *testing.T) {
	store := &Store{
		FeedbackTemplates: []FeedbackTemplate{
			{Id: "ft-1", Language: "FR", Type: "session_summary", Criterion: "fluency", TemplateText: "Travaillez le débit."},
			{Id: "ft-2", Language: "FR", Type: "session_summary", Criterion: "general", TemplateText: "Continuez à pratiquer."},
			{Id: "ft-3", Language: "EN", Type: "session_summary", Criterion: "fluency", TemplateText: "Work on pacing."},
		},
	}

	got := store.GetFeedbackTemplates("FR", "session_summary", "fluency")
	assert.Len(t, got, 2, "criterion filter should include the general template")

	got = store.GetFeedbackTemplates("FR", "session_summary", "pronunciation")
	assert.Len(t, got, 1)
	assert.Equal(t, "ft-2", got[0].Id)
}

func TestGetCommonErrorsFilters(t *testing.T) {
	store := &Store{
		CommonErrors: []CommonError{
			{Id: "ce-1", Language: "FR", Category: "grammar", LevelImpact: "A"},
			{Id: "ce-2", Language: "FR", Category: "vocabulary", LevelImpact: "B"},
			{Id: "ce-3", Language: "EN", Category: "grammar", LevelImpact: "A"},
		},
	}

	assert.Len(t, store.GetCommonErrors("FR", "", ""), 2)
	assert.Len(t, store.GetCommonErrors("FR", "grammar", ""), 1)
	assert.Len(t, store.GetCommonErrors("FR", "grammar", "B"), 0)
}
