package dataset

import (
	"math/rand"
	"strings"
)

// Selector draws scenarios, questions and listening assets from the store
// without repeating identifiers the caller has already used. Randomness is
// injected so tests can pin the draw order.
type Selector struct {
	store *Store
	rng   *rand.Rand
}

func NewSelector(store *Store, rng *rand.Rand) *Selector {
	return &Selector{store: store, rng: rng}
}

// Scenario picks a random scenario for the language and phase, skipping
// excluded ids. Returns nil when the pool is empty; the orchestrator treats
// that as "no content for this phase", not as a failure.
func (s *Selector) Scenario(language, phase string, excludeIds []string) *Scenario {
	excluded := toSet(excludeIds)

	var candidates []*Scenario
	for i := range s.store.Scenarios {
		sc := &s.store.Scenarios[i]
		if sc.Language == language && sc.Phase == phase && !excluded[sc.Id] {
			candidates = append(candidates, sc)
		}
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[s.rng.Intn(len(candidates))]
}

// Questions shuffles the eligible pool and takes up to count entries.
// A pool smaller than count yields fewer questions, which is not an error.
func (s *Selector) Questions(language, phase string, count int, excludeIds []string) []Question {
	excluded := toSet(excludeIds)

	var candidates []Question
	for _, q := range s.store.QuestionBank {
		if q.Language == language && q.Phase == phase && !excluded[q.Id] {
			candidates = append(candidates, q)
		}
	}

	s.rng.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	if len(candidates) > count {
		candidates = candidates[:count]
	}
	return candidates
}

// ListeningAsset picks a random asset for the comprehension phase.
// typ is optional ("voicemail" or "conversation").
func (s *Selector) ListeningAsset(language, typ string, excludeIds []string) *ListeningAsset {
	excluded := toSet(excludeIds)

	var candidates []*ListeningAsset
	for i := range s.store.ListeningAssets {
		la := &s.store.ListeningAssets[i]
		if la.Language != language || excluded[la.Id] {
			continue
		}
		if typ != "" && la.Type != typ {
			continue
		}
		candidates = append(candidates, la)
	}
	if len(candidates) == 0 {
		return nil
	}
	return candidates[s.rng.Intn(len(candidates))]
}

// FeedbackTemplate picks one random template for the criterion, falling back
// to nil when nothing matches (caller handles the general fallback).
func (s *Selector) FeedbackTemplate(language, typ, criterion string) *FeedbackTemplate {
	candidates := s.store.GetFeedbackTemplates(language, typ, criterion)
	if len(candidates) == 0 {
		return nil
	}
	return &candidates[s.rng.Intn(len(candidates))]
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[strings.TrimSpace(id)] = true
	}
	return set
}
