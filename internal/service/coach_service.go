package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"oral-coach-be/internal/dto"
	"oral-coach-be/internal/exam"
	"oral-coach-be/internal/pkg/logger"
	"oral-coach-be/pkg/llm"
	"oral-coach-be/pkg/speech"
)

const (
	// Character budgets keep prompts small enough for low-latency voice turns.
	referenceContextBudget = 800
	turnContextBudget      = 400

	// Only the most recent exchanges are forwarded; older turns are
	// dropped, not summarized.
	historyWindow = 10

	evalTemperature = 0.3
)

// Coach personas. Each binds a teaching style to the session.
var coachPersonas = map[string]string{
	"STEVEN": `You are Coach Steven, the Lead Coach. You specialize in structure and grammar.

Your personality:
- Warm, encouraging, and professional
- Focus on grammatical accuracy and sentence structure
- Provide clear explanations with examples
- Celebrate progress while gently correcting errors

Your teaching approach:
- Break down complex grammar into digestible pieces
- Use analogies to explain difficult concepts
- Always provide the correct form after pointing out errors
- Encourage practice and repetition`,

	"SUE_ANNE": `You are Coach Sue-Anne, a Fluency Expert. You help learners develop natural, flowing expression.

Your personality:
- Energetic, supportive, and conversational
- Focus on natural speech patterns and flow
- Encourage risk-taking in speaking
- Make learning feel like a friendly conversation

Your teaching approach:
- Model natural expressions and idioms
- Help learners sound less "textbook" and more natural
- Focus on rhythm, intonation, and connected speech
- Provide alternative ways to express the same idea`,

	"ERIKA": `You are Coach Erika, a Performance Coach. You help learners manage stress and build confidence for oral exams.

Your personality:
- Calm, patient, and reassuring
- Focus on building confidence and reducing anxiety
- Acknowledge feelings while providing practical strategies
- Create a safe space for practice

Your teaching approach:
- Use breathing and mindfulness techniques when appropriate
- Break down overwhelming tasks into manageable steps
- Celebrate small wins and progress
- Provide exam-specific tips and strategies`,

	"PRECIOSA": `You are Coach Preciosa, a Vocabulary Specialist. You specialize in expanding vocabulary and mastering nuance.

Your personality:
- Enthusiastic, knowledgeable, and detail-oriented
- Passionate about the richness of language
- Love exploring word origins and connections
- Make vocabulary learning memorable

Your teaching approach:
- Introduce synonyms and related expressions
- Explain subtle differences between similar words
- Use context to reinforce vocabulary
- Connect new words to ones already known`,
}

var levelContexts = map[string]string{
	"A": `The learner is at Level A (Basic). They can:
- Handle simple, routine tasks
- Communicate basic information
- Use simple sentences and common expressions
Adjust your language to be simple and clear. Use basic vocabulary and short sentences.`,

	"B": `The learner is at Level B (Intermediate). They can:
- Handle moderately complex tasks
- Explain and discuss work-related topics
- Use varied sentence structures
Use intermediate vocabulary and more complex sentences. Challenge them appropriately.`,

	"C": `The learner is at Level C (Advanced). They can:
- Handle complex, sensitive situations
- Present and defend positions
- Use sophisticated language and nuance
Use advanced vocabulary and complex structures. Engage them in nuanced discussions.`,
}

var skillPrompts = map[string]string{
	"oral_expression": `Focus on the learner's oral expression skills. Evaluate:
- Clarity and coherence of ideas
- Vocabulary appropriateness
- Grammatical accuracy
- Fluency and natural flow
Provide feedback on how they express themselves verbally.`,

	"oral_comprehension": `Focus on the learner's oral comprehension skills. Evaluate:
- Understanding of main ideas
- Ability to identify details
- Inference and interpretation
Ask questions to check understanding and provide clarification when needed.`,
}

var languageNames = map[string]string{
	"FR": "French",
	"EN": "English",
}

// evalSchema constrains the structured evaluation payload.
const evalSchema = `{
  "type": "object",
  "properties": {
    "score": {"type": "number"},
    "passed": {"type": "boolean"},
    "criteriaScores": {
      "type": "object",
      "properties": {
        "grammaticalAccuracy": {"type": "number"},
        "vocabularyRegister": {"type": "number"},
        "coherenceOrganization": {"type": "number"},
        "taskCompletion": {"type": "number"},
        "fluency": {"type": "number"},
        "pronunciation": {"type": "number"},
        "interaction": {"type": "number"}
      },
      "required": ["grammaticalAccuracy", "vocabularyRegister", "coherenceOrganization", "taskCompletion", "fluency", "pronunciation", "interaction"]
    },
    "feedback": {"type": "string"},
    "corrections": {"type": "array", "items": {"type": "string"}},
    "suggestions": {"type": "array", "items": {"type": "string"}},
    "levelAssessment": {"type": "string"}
  },
  "required": ["score", "passed", "criteriaScores", "feedback", "corrections", "suggestions"]
}`

var (
	evalSchemaOnce     sync.Once
	evalSchemaCompiled *jsonschema.Schema
	evalSchemaErr      error
)

func compiledEvalSchema() (*jsonschema.Schema, error) {
	evalSchemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(evalSchema))
		if err != nil {
			evalSchemaErr = fmt.Errorf("parse eval schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("schema://evaluation.json", doc); err != nil {
			evalSchemaErr = fmt.Errorf("add eval schema resource: %w", err)
			return
		}
		evalSchemaCompiled, evalSchemaErr = c.Compile("schema://evaluation.json")
	})
	return evalSchemaCompiled, evalSchemaErr
}

// ConversationContext carries everything the coach needs to answer one turn.
type ConversationContext struct {
	CoachKey         string
	Language         string // "FR" or "EN"
	Level            string // "A", "B", "C"
	Skill            string // "oral_expression", "oral_comprehension"
	ReferenceContext string // dataset-derived phase/rubric/errors block
	TurnContext      string // orchestrator-provided scenario/question block
	History          []llm.Message
}

type ICoachService interface {
	GenerateCoachResponse(ctx context.Context, userMessage string, cc ConversationContext) (string, error)
	EvaluateResponse(ctx context.Context, userMessage string, language, level, skill string) *dto.EvaluationResponse
	TranscribeUserAudio(ctx context.Context, audio io.Reader, filename, language string) (string, error)
	SynthesizeCoachAudio(ctx context.Context, text string) (io.ReadCloser, error)
	InitialGreeting(coachKey, language, level, skill, topic string) string
}

type coachService struct {
	provider    llm.LLMProvider
	transcriber speech.Transcriber
	synthesizer speech.Synthesizer
	log         logger.ILogger
}

func NewCoachService(provider llm.LLMProvider, transcriber speech.Transcriber, synthesizer speech.Synthesizer, log logger.ILogger) ICoachService {
	return &coachService{
		provider:    provider,
		transcriber: transcriber,
		synthesizer: synthesizer,
		log:         log,
	}
}

func (s *coachService) GenerateCoachResponse(ctx context.Context, userMessage string, cc ConversationContext) (string, error) {
	systemPrompt := buildSystemPrompt(cc)

	messages := make([]llm.Message, 0, historyWindow+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, lastExchanges(cc.History, historyWindow)...)
	messages = append(messages, llm.Message{Role: "user", Content: userMessage})

	response, err := s.provider.Chat(ctx, messages, llm.WithTemperature(0.7))
	if err != nil {
		s.log.Error("coach", "coach response generation failed", map[string]interface{}{
			"error": err.Error(),
			"coach": cc.CoachKey,
			"level": cc.Level,
		})
		return "", fmt.Errorf("%w: %v", exam.ErrGenerationFailed, err)
	}

	return response, nil
}

func (s *coachService) EvaluateResponse(ctx context.Context, userMessage string, language, level, skill string) *dto.EvaluationResponse {
	systemPrompt := exam.ScoringPrompt(level, skill)

	messages := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: fmt.Sprintf("Evaluate this response: %q", userMessage)},
	}

	raw, err := s.provider.Chat(ctx, messages,
		llm.WithTemperature(evalTemperature),
		llm.WithJSONResponse(),
	)
	if err != nil {
		return s.degradedEvaluation(language, "evaluation call failed", err)
	}

	var parsed any
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return s.degradedEvaluation(language, "evaluation payload is not JSON", err)
	}

	schema, err := compiledEvalSchema()
	if err != nil {
		return s.degradedEvaluation(language, "evaluation schema unavailable", err)
	}
	if err := schema.Validate(parsed); err != nil {
		return s.degradedEvaluation(language, "evaluation payload failed validation", err)
	}

	var wire evaluationPayload
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return s.degradedEvaluation(language, "evaluation payload shape mismatch", err)
	}

	return &dto.EvaluationResponse{
		Score:           wire.Score,
		CriteriaScores:  wire.CriteriaScores,
		Feedback:        wire.Feedback,
		Corrections:     wire.Corrections,
		Suggestions:     wire.Suggestions,
		LevelAssessment: wire.LevelAssessment,
		// The model's own pass/fail claim is advisory; the rubric
		// threshold decides.
		Passed: exam.IsPassing(level, wire.Score),
	}
}

// evaluationPayload is the camelCase wire shape the evaluator is
// prompted to emit; it is remapped onto the snake_case API DTO.
type evaluationPayload struct {
	Score           float64            `json:"score"`
	Passed          bool               `json:"passed"`
	CriteriaScores  map[string]float64 `json:"criteriaScores"`
	Feedback        string             `json:"feedback"`
	Corrections     []string           `json:"corrections"`
	Suggestions     []string           `json:"suggestions"`
	LevelAssessment string             `json:"levelAssessment"`
}

func (s *coachService) degradedEvaluation(language, message string, err error) *dto.EvaluationResponse {
	s.log.Error("coach", message, map[string]interface{}{"error": err.Error()})

	feedback := "Unable to evaluate the response at this time."
	if language == "FR" {
		feedback = "Impossible d'évaluer la réponse pour le moment."
	}
	return &dto.EvaluationResponse{
		Score:       0,
		Passed:      false,
		Feedback:    feedback,
		Corrections: []string{},
		Suggestions: []string{},
	}
}

func (s *coachService) TranscribeUserAudio(ctx context.Context, audio io.Reader, filename, language string) (string, error) {
	hint := strings.ToLower(language)
	text, err := s.transcriber.Transcribe(ctx, audio, filename, hint)
	if err != nil {
		s.log.Error("coach", "transcription failed", map[string]interface{}{"error": err.Error()})
		return "", fmt.Errorf("transcribe user audio: %w", err)
	}
	return text, nil
}

func (s *coachService) SynthesizeCoachAudio(ctx context.Context, text string) (io.ReadCloser, error) {
	audio, err := s.synthesizer.Synthesize(ctx, text)
	if err != nil {
		s.log.Error("coach", "speech synthesis failed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("synthesize coach audio: %w", err)
	}
	return audio, nil
}

func (s *coachService) InitialGreeting(coachKey, language, level, skill, topic string) string {
	greeting := initialGreetings(coachKey, skill)

	switch level {
	case "C":
		greeting += " Comme vous êtes au niveau C, nous allons aborder des sujets plus complexes."
	case "A":
		greeting += " Nous allons commencer doucement avec des exercices adaptés à votre niveau."
	}
	if topic != "" {
		greeting += fmt.Sprintf(" Notre sujet aujourd'hui: %s.", topic)
	}
	if language == "EN" {
		greeting = englishGreeting(coachKey, level, topic)
	}
	return greeting
}

// buildSystemPrompt layers persona, learner level, skill focus, the
// dataset reference block and the orchestrator turn context, then closes
// with the brevity rules and the language-enforcement clause. The
// language clause is always last so it carries maximum priority.
func buildSystemPrompt(cc ConversationContext) string {
	persona, ok := coachPersonas[cc.CoachKey]
	if !ok {
		persona = coachPersonas["STEVEN"]
	}
	levelCtx, ok := levelContexts[cc.Level]
	if !ok {
		levelCtx = levelContexts["B"]
	}
	skillPrompt, ok := skillPrompts[cc.Skill]
	if !ok {
		skillPrompt = skillPrompts["oral_expression"]
	}
	langName, ok := languageNames[cc.Language]
	if !ok {
		langName = "French"
	}

	var b strings.Builder
	b.WriteString(persona)
	b.WriteString("\n\n---\nLEARNER CONTEXT:\n")
	b.WriteString(levelCtx)
	b.WriteString("\n\n---\nSESSION FOCUS:\n")
	b.WriteString(skillPrompt)

	if cc.ReferenceContext != "" {
		b.WriteString("\n\n---\nEXAM REFERENCE:\n")
		b.WriteString(truncate(cc.ReferenceContext, referenceContextBudget))
	}
	if cc.TurnContext != "" {
		b.WriteString("\n\n---\nCURRENT TURN:\n")
		b.WriteString(truncate(cc.TurnContext, turnContextBudget))
	}

	b.WriteString("\n\n---\nIMPORTANT GUIDELINES:\n")
	b.WriteString("1. This is a voice conversation: keep every response to at most 3 short sentences\n")
	b.WriteString("2. Correct at most ONE error per turn, gently, giving the correct form\n")
	b.WriteString("3. Always provide constructive feedback and encourage the learner\n")
	b.WriteString("4. Stay in character as the coach throughout\n")
	b.WriteString("5. If the learner seems stuck, offer a hint or rephrase the question")

	fmt.Fprintf(&b, "\n\n---\nLANGUAGE RULE (ABSOLUTE): respond ONLY in %s. If the learner answers in another language, reply in %s and redirect them to continue in %s.",
		langName, langName, langName)

	return b.String()
}

func lastExchanges(history []llm.Message, n int) []llm.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

// truncate caps s at budget characters, never splitting a rune. Byte
// length under budget implies the rune count is too.
func truncate(s string, budget int) string {
	if len(s) <= budget {
		return s
	}
	count := 0
	for i := range s {
		if count == budget {
			return s[:i]
		}
		count++
	}
	return s
}

func initialGreetings(coachKey, skill string) string {
	greetings := map[string]map[string]string{
		"STEVEN": {
			"oral_expression":    "Bonjour! Je suis Coach Steven. Aujourd'hui, nous allons travailler sur votre expression orale. Commençons par un exercice simple. Présentez-vous brièvement.",
			"oral_comprehension": "Bonjour! Je suis Coach Steven. Nous allons pratiquer votre compréhension orale. Je vais vous poser des questions et vous répondrez en français.",
		},
		"SUE_ANNE": {
			"oral_expression":    "Salut! C'est Sue-Anne. On va travailler ta fluidité aujourd'hui. Parle-moi de toi, comme si on se rencontrait pour la première fois!",
			"oral_comprehension": "Salut! C'est Sue-Anne. On va écouter et discuter ensemble. Je vais te poser des questions naturelles, réponds comme dans une vraie conversation.",
		},
		"ERIKA": {
			"oral_expression":    "Bonjour, je suis Erika. Prenez une grande respiration. Nous allons pratiquer ensemble dans un environnement sans stress. Quand vous êtes prêt, commencez.",
			"oral_comprehension": "Bonjour, je suis Erika. Ne vous inquiétez pas si vous ne comprenez pas tout. L'important est de saisir l'essentiel. Allons-y doucement.",
		},
		"PRECIOSA": {
			"oral_expression":    "Bonjour! Je suis Preciosa. J'adore les mots! Aujourd'hui, on va enrichir votre vocabulaire tout en pratiquant l'oral. Prêt à découvrir de nouvelles expressions?",
			"oral_comprehension": "Bonjour! Je suis Preciosa. On va écouter et explorer le vocabulaire ensemble. Chaque mot a son histoire!",
		},
	}

	byCoach, ok := greetings[coachKey]
	if !ok {
		byCoach = greetings["STEVEN"]
	}
	greeting, ok := byCoach[skill]
	if !ok {
		greeting = byCoach["oral_expression"]
	}
	return greeting
}

func englishGreeting(coachKey, level, topic string) string {
	name := map[string]string{
		"STEVEN":   "Coach Steven",
		"SUE_ANNE": "Coach Sue-Anne",
		"ERIKA":    "Coach Erika",
		"PRECIOSA": "Coach Preciosa",
	}[coachKey]
	if name == "" {
		name = "Coach Steven"
	}

	greeting := fmt.Sprintf("Hello! I am %s. Today we will practice your speaking skills. Let's start with a simple exercise: introduce yourself briefly.", name)
	switch level {
	case "C":
		greeting += " Since you are at level C, we will tackle more complex topics."
	case "A":
		greeting += " We will start gently with exercises suited to your level."
	}
	if topic != "" {
		greeting += fmt.Sprintf(" Our topic today: %s.", topic)
	}
	return greeting
}
