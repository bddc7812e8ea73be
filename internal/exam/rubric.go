package exam

import (
	"fmt"
	"strings"
)

// Formal scoring rubrics for proficiency levels A, B and C.
// Each level carries four criteria scored 0-25 for a 0-100 total.
// Pass thresholds: A >= 40, B >= 55, C >= 70.

type ScoringCriterion struct {
	Name      string
	MaxPoints int
	// Descriptor tiers: excellent 21-25, good 16-20, adequate 11-15,
	// developing 6-10, insufficient 0-5.
	Excellent    string
	Good         string
	Adequate     string
	Developing   string
	Insufficient string
}

type LevelRubric struct {
	Level         string
	PassThreshold int
	Description   string
	Criteria      []ScoringCriterion
}

var levelRubrics = map[string]LevelRubric{
	"A": {
		Level:         "A",
		PassThreshold: 40,
		Description:   "Basic proficiency: can handle simple, routine tasks and communicate basic information.",
		Criteria: []ScoringCriterion{
			{
				Name:         "Grammatical Accuracy",
				MaxPoints:    25,
				Excellent:    "Consistently correct basic grammar (agreement, basic tenses). Minor errors do not impede comprehension.",
				Good:         "Mostly correct basic grammar with occasional tense or agreement errors. Message remains clear.",
				Adequate:     "Frequent errors in basic structures but meaning is generally recoverable. Can form simple sentences.",
				Developing:   "Significant grammatical errors that sometimes obscure meaning. Limited to very basic patterns.",
				Insufficient: "Grammar errors make the message largely incomprehensible.",
			},
			{
				Name:         "Vocabulary & Register",
				MaxPoints:    25,
				Excellent:    "Uses common workplace vocabulary accurately. Appropriate register for simple interactions.",
				Good:         "Adequate vocabulary for routine tasks. Occasional word choice errors but meaning is clear.",
				Adequate:     "Limited but functional vocabulary. Relies on basic words and cognates.",
				Developing:   "Very limited vocabulary. Frequently unable to find the right word.",
				Insufficient: "Vocabulary too limited to communicate even basic information.",
			},
			{
				Name:         "Coherence & Organization",
				MaxPoints:    25,
				Excellent:    "Ideas logically ordered in simple sequences with basic connectors.",
				Good:         "Generally logical sequence with occasional gaps. Some use of connectors.",
				Adequate:     "Ideas are present but organization is weak. Limited use of connectors.",
				Developing:   "Disjointed ideas with no clear organization.",
				Insufficient: "No discernible organization. Isolated words or fragments only.",
			},
			{
				Name:         "Task Completion",
				MaxPoints:    25,
				Excellent:    "Fully addresses the simple task. All required information provided clearly.",
				Good:         "Addresses most aspects of the task. Minor omissions do not affect communication.",
				Adequate:     "Partially addresses the task. Core message present, some information missing.",
				Developing:   "Minimally addresses the task. Significant information gaps.",
				Insufficient: "Does not address the task or response is off-topic.",
			},
		},
	},
	"B": {
		Level:         "B",
		PassThreshold: 55,
		Description:   "Intermediate proficiency: can handle moderately complex tasks, explain and discuss work-related topics.",
		Criteria: []ScoringCriterion{
			{
				Name:         "Grammatical Accuracy",
				MaxPoints:    25,
				Excellent:    "Consistent control of intermediate structures (conditionals, relative clauses, object pronouns). Errors rare and minor.",
				Good:         "Good control of most intermediate structures. Occasional errors with complex tenses but self-corrects.",
				Adequate:     "Adequate basic grammar but struggles with intermediate structures. Errors do not block communication.",
				Developing:   "Limited control beyond basic structures. Frequent errors with intermediate grammar.",
				Insufficient: "Cannot produce intermediate structures. Reverts to basic patterns with many errors.",
			},
			{
				Name:         "Vocabulary & Register",
				MaxPoints:    25,
				Excellent:    "Varied, precise vocabulary appropriate to workplace contexts. Correct register for the situation.",
				Good:         "Good range of vocabulary with occasional imprecision. Generally appropriate register.",
				Adequate:     "Adequate vocabulary for familiar topics, limited on less routine subjects.",
				Developing:   "Limited range. Frequent paraphrasing or code-switching.",
				Insufficient: "Vocabulary insufficient for intermediate-level communication.",
			},
			{
				Name:         "Coherence & Organization",
				MaxPoints:    25,
				Excellent:    "Well-organized with clear introduction, development and conclusion. Varied connectors.",
				Good:         "Generally well-organized with some variety in connectors. Minor gaps in flow.",
				Adequate:     "Adequate organization but relies on simple connectors. Some logical gaps.",
				Developing:   "Weak organization. Ideas present but poorly connected.",
				Insufficient: "No clear organization. Disconnected ideas.",
			},
			{
				Name:         "Task Completion",
				MaxPoints:    25,
				Excellent:    "Fully addresses the moderately complex task with explanations, examples and detail.",
				Good:         "Addresses most aspects with adequate detail. Minor gaps in explanation.",
				Adequate:     "Addresses the task but with limited depth.",
				Developing:   "Partially addresses the task. Lacks necessary detail.",
				Insufficient: "Does not adequately address the task requirements.",
			},
		},
	},
	"C": {
		Level:         "C",
		PassThreshold: 70,
		Description:   "Advanced proficiency: can handle complex, sensitive situations; present and defend positions with nuance.",
		Criteria: []ScoringCriterion{
			{
				Name:         "Grammatical Accuracy",
				MaxPoints:    25,
				Excellent:    "Near-native control including complex structures (passive voice, reported speech, tense concordance). Rare, minor errors only.",
				Good:         "Strong control of advanced grammar. Occasional errors with the most complex structures.",
				Adequate:     "Good intermediate control but inconsistent with advanced structures.",
				Developing:   "Limited control of advanced structures. Errors occasionally impede nuanced expression.",
				Insufficient: "Cannot produce advanced grammatical structures. Communication lacks precision.",
			},
			{
				Name:         "Vocabulary & Register",
				MaxPoints:    25,
				Excellent:    "Rich, precise, nuanced vocabulary. Shifts between formal, diplomatic and technical registers at will.",
				Good:         "Wide range with occasional imprecision in specialized terms. Good register awareness.",
				Adequate:     "Adequate for most topics but lacks precision for nuanced discussion.",
				Developing:   "Limited advanced vocabulary. Cannot consistently hold the appropriate register.",
				Insufficient: "Vocabulary insufficient for advanced-level communication.",
			},
			{
				Name:         "Coherence & Organization",
				MaxPoints:    25,
				Excellent:    "Sophisticated organization with nuanced argumentation and seamless transitions.",
				Good:         "Well-organized with clear argumentation. Good variety of discourse markers.",
				Adequate:     "Adequate organization but argumentation could be more sophisticated.",
				Developing:   "Acceptable organization but lacks advanced-level sophistication.",
				Insufficient: "Organization does not meet advanced-level expectations.",
			},
			{
				Name:         "Task Completion",
				MaxPoints:    25,
				Excellent:    "Fully addresses the complex task with nuance, diplomacy and depth. Balanced, persuasive arguments.",
				Good:         "Addresses the complex task well with good depth. Minor gaps in nuance.",
				Adequate:     "Addresses the task but lacks expected depth or nuance.",
				Developing:   "Partially addresses the complex task. Lacks sophistication on sensitive aspects.",
				Insufficient: "Does not adequately address the complex task requirements.",
			},
		},
	},
}

// Rubric returns the formal rubric for a level, defaulting to B for
// unrecognized input so the evaluator always has criteria to work with.
func Rubric(level string) LevelRubric {
	if r, ok := levelRubrics[level]; ok {
		return r
	}
	return levelRubrics["B"]
}

// PassThreshold returns the minimum passing score for a level.
func PassThreshold(level string) int {
	return Rubric(level).PassThreshold
}

// IsPassing recomputes pass/fail from the rubric threshold. Callers use this
// instead of trusting the evaluator's self-reported boolean.
func IsPassing(level string, score float64) bool {
	return score >= float64(PassThreshold(level))
}

// ScoringPrompt builds the system prompt for the structured evaluation pass.
func ScoringPrompt(level, skill string) string {
	rubric := Rubric(level)

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are an oral language proficiency evaluator.\n")
	fmt.Fprintf(&sb, "You are evaluating a response at Level %s (%s).\n\n", rubric.Level, rubric.Description)
	fmt.Fprintf(&sb, "Session focus: %s.\n\n", skill)
	fmt.Fprintf(&sb, "SCORING RUBRIC - Level %s\nPass threshold: %d/100\n\n", rubric.Level, rubric.PassThreshold)

	for _, c := range rubric.Criteria {
		fmt.Fprintf(&sb, "### %s (0-%d points)\n", c.Name, c.MaxPoints)
		fmt.Fprintf(&sb, "- Excellent (21-25): %s\n", c.Excellent)
		fmt.Fprintf(&sb, "- Good (16-20): %s\n", c.Good)
		fmt.Fprintf(&sb, "- Adequate (11-15): %s\n", c.Adequate)
		fmt.Fprintf(&sb, "- Developing (6-10): %s\n", c.Developing)
		fmt.Fprintf(&sb, "- Insufficient (0-5): %s\n\n", c.Insufficient)
	}

	sb.WriteString("INSTRUCTIONS:\n")
	sb.WriteString("1. Score each criterion independently using the descriptors above.\n")
	sb.WriteString("2. Provide specific evidence from the response for each score.\n")
	fmt.Fprintf(&sb, "3. Determine pass/fail based on the threshold (%d/100).\n", rubric.PassThreshold)
	sb.WriteString("4. Provide actionable feedback in the target language.\n")
	sb.WriteString("5. List specific corrections with the incorrect form and the correct form.\n")
	sb.WriteString("6. Suggest 2-3 concrete improvement strategies.\n\n")
	sb.WriteString("Respond ONLY with a JSON object:\n")
	sb.WriteString(`{"score": <0-100>, "passed": <true/false>, "criteriaScores": {"grammaticalAccuracy": <0-25>, "vocabularyRegister": <0-25>, "coherenceOrganization": <0-25>, "taskCompletion": <0-25>, "fluency": <0-25>, "pronunciation": <0-25>, "interaction": <0-25>}, "feedback": "<overall feedback>", "corrections": ["..."], "suggestions": ["..."], "levelAssessment": "<brief assessment>"}`)

	return sb.String()
}
