package dataset

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func selectorFixture() *Store {
	return &Store{
		Scenarios: []Scenario{
			{Id: "sc-1", Language: "FR", Phase: "1"},
			{Id: "sc-2", Language: "FR", Phase: "1"},
			{Id: "sc-3", Language: "FR", Phase: "3"},
			{Id: "sc-4", Language: "EN", Phase: "1"},
		},
		QuestionBank: []Question{
			{Id: "q-1", Language: "FR", Phase: "1"},
			{Id: "q-2", Language: "FR", Phase: "1"},
			{Id: "q-3", Language: "FR", Phase: "1"},
			{Id: "q-4", Language: "FR", Phase: "2"},
		},
		ListeningAssets: []ListeningAsset{
			{Id: "la-1", Language: "FR", Type: "voicemail"},
			{Id: "la-2", Language: "FR", Type: "conversation"},
		},
	}
}

func newTestSelector(store *Store) *Selector {
	return NewSelector(store, rand.New(rand.NewSource(1)))
}

func TestScenarioNeverRepeatsExcludedIds(t *testing.T) {
	sel := newTestSelector(selectorFixture())

	var used []string
	for i := 0; i < 2; i++ {
		sc := sel.Scenario("FR", "1", used)
		if assert.NotNil(t, sc) {
			assert.NotContains(t, used, sc.Id)
			used = append(used, sc.Id)
		}
	}

	// Pool exhausted: both FR phase-1 scenarios were drawn.
	assert.Nil(t, sel.Scenario("FR", "1", used))
}

func TestScenarioEmptyPoolReturnsNil(t *testing.T) {
	sel := newTestSelector(selectorFixture())

	assert.Nil(t, sel.Scenario("FR", "2", nil), "no scenario seeded for phase 2")
	assert.Nil(t, sel.Scenario("DE", "1", nil), "unknown language")
}

func TestQuestionsCapsAtCountAndExcludes(t *testing.T) {
	sel := newTestSelector(selectorFixture())

	qs := sel.Questions("FR", "1", 2, nil)
	assert.Len(t, qs, 2)

	qs = sel.Questions("FR", "1", 5, []string{"q-1"})
	assert.Len(t, qs, 2)
	for _, q := range qs {
		assert.NotEqual(t, "q-1", q.Id)
	}

	assert.Empty(t, sel.Questions("FR", "1", 5, []string{"q-1", "q-2", "q-3"}))
}

func TestListeningAssetTypeFilter(t *testing.T) {
	sel := newTestSelector(selectorFixture())

	la := sel.ListeningAsset("FR", "voicemail", nil)
	if assert.NotNil(t, la) {
		assert.Equal(t, "la-1", la.Id)
	}

	assert.Nil(t, sel.ListeningAsset("FR", "voicemail", []string{"la-1"}))
	assert.Nil(t, sel.ListeningAsset("EN", "", nil))
}
