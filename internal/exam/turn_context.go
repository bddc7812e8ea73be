package exam

import (
	"fmt"
	"strings"
)

// TurnContext renders the per-turn context block appended to the coach
// system prompt: the active scenario, any material to read aloud, the
// coach-only answer guide and the current question.
func (o *Orchestrator) TurnContext(state *SessionState) string {
	var sections []string
	phase := o.CurrentPhase(state)

	if ec := o.store.GetExamComponent(state.Config.Language, phase); ec != nil {
		sections = append(sections, fmt.Sprintf("[Current Phase: %s (Phase %s)]", ec.Name, phase))
	}

	if sc := state.CurrentScenario; sc != nil {
		sections = append(sections, fmt.Sprintf("[Scenario: %s]", sc.Context))
		sections = append(sections, fmt.Sprintf("[Instructions: %s]", sc.Instructions))
	}

	if la := state.CurrentListeningAsset; la != nil && phase == comprehensionPhase {
		sections = append(sections,
			"[Listening Material - Read this to the learner:]",
			la.Transcript,
			"[After reading, ask the learner to summarize the key points]",
		)
	}

	if guide := o.CurrentAnswerGuide(state); guide != nil {
		sections = append(sections,
			"[Answer Guide - For your reference only, do NOT read to the learner:]",
			fmt.Sprintf("Expected elements: %s", strings.Join(guide.ExpectedElements, "; ")),
			fmt.Sprintf("Recommended structures: %s", strings.Join(guide.RecommendedStructures, "; ")),
			fmt.Sprintf("Common pitfalls: %s", strings.Join(guide.CommonPitfalls, "; ")),
		)
	}

	if state.QuestionIndex < len(state.CurrentQuestions) {
		sections = append(sections, fmt.Sprintf("[Current Question: %s]", state.CurrentQuestions[state.QuestionIndex].QuestionText))
	}

	if state.Config.Mode == ModeExamSimulation {
		sections = append(sections, "[MODE: EXAM SIMULATION - Do NOT provide feedback or corrections during the session. Only evaluate at the end.]")
	} else {
		sections = append(sections, "[MODE: PRACTICE - Provide gentle corrections and encouragement after each response.]")
	}

	return strings.Join(sections, "\n")
}
