package bootstrap

import (
	"context"
	"log"
	"math/rand"
	"time"

	"oral-coach-be/internal/config"
	"oral-coach-be/internal/controller"
	"oral-coach-be/internal/dataset"
	"oral-coach-be/internal/exam"
	"oral-coach-be/internal/handler"
	"oral-coach-be/internal/pkg/logger"
	"oral-coach-be/internal/pkg/mailer"
	"oral-coach-be/internal/repository/contract"
	"oral-coach-be/internal/repository/implementation"
	"oral-coach-be/internal/repository/memory"
	"oral-coach-be/internal/repository/redisstore"
	"oral-coach-be/internal/scoring"
	"oral-coach-be/internal/service"
	"oral-coach-be/internal/voice"
	"oral-coach-be/internal/websocket"
	"oral-coach-be/pkg/llm/factory"
	"oral-coach-be/pkg/speech"

	pktNats "oral-coach-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	PracticeController controller.IPracticeController
	ScoringController  controller.IScoringController

	// WebSockets
	VoiceHandler *handler.VoiceHandler
	WebSocketHub *websocket.Hub

	// Background
	ConsumerService service.IConsumerService

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Exam Content & Scoring Core
	store, err := dataset.Load(cfg.App.SeedDir, sysLogger)
	if err != nil {
		log.Fatalf("[FATAL] Failed to load exam dataset from %s: %v", cfg.App.SeedDir, err)
	}
	selector := dataset.NewSelector(store, rand.New(rand.NewSource(time.Now().UnixNano())))
	engine := scoring.NewEngine(store, selector, sysLogger)
	orchestrator := exam.NewOrchestrator(store, selector, engine, sysLogger)

	// Initialize LLM Provider based on Config
	llmProvider, err := factory.NewLLMProvider(
		context.Background(),
		cfg.Ai.LLMProvider,
		llmAPIKey(cfg),
		cfg.Ai.LLMModel,
		llmBaseURL(cfg),
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	// Speech (Whisper STT + TTS) always goes through the OpenAI audio API,
	// optionally against a compatible self-hosted endpoint.
	speechClient := speech.NewOpenAISpeech(cfg.Keys.OpenAI, cfg.Ai.SpeechBaseURL, cfg.Ai.SpeechVoice)

	coachService := service.NewCoachService(llmProvider, speechClient, speechClient, sysLogger)

	// 3.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}

	// Redis
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	var snapshots *redisstore.SessionSnapshotRepository
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Session snapshots disabled", err)
	} else {
		snapshots = redisstore.NewSessionSnapshotRepository(rdb, cfg.App.SessionTTL)
	}

	// Postgres-backed score history (optional: the service degrades to
	// request-supplied history when no DB is wired)
	var scoreRepo contract.SessionScoreRepository
	if db != nil {
		scoreRepo = implementation.NewSessionScoreRepository(db)
	} else {
		log.Printf("[WARN] No database connection. Score persistence disabled")
	}

	// In-memory live session storage
	sessionRepo := memory.NewSessionRepository(cfg.App.SessionTTL)

	// Mailer
	var emailService mailer.IEmailService
	if cfg.SMTP.SendReports && cfg.SMTP.Host != "" {
		emailService = mailer.NewEmailService(
			cfg.SMTP.Host,
			cfg.SMTP.Port,
			cfg.SMTP.Email,
			cfg.SMTP.Password,
			cfg.SMTP.SenderName,
		)
	}

	// 4. Services
	practiceService := service.NewPracticeService(
		orchestrator,
		engine,
		coachService,
		sessionRepo,
		snapshots,
		scoreRepo,
		pubSub,
		cfg.App.SessionEventsTopic,
		natsPub,
		emailService,
		sysLogger,
	)
	scoringService := service.NewScoringService(store, engine, sysLogger)

	// 5. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/voice.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	vadCfg := voice.VADConfig{
		Threshold:      cfg.Voice.VADThreshold,
		MinSpeech:      time.Duration(cfg.Voice.VADMinSpeechMs) * time.Millisecond,
		SilenceTimeout: time.Duration(cfg.Voice.VADSilenceMs) * time.Millisecond,
	}
	voiceHandler := handler.NewVoiceHandler(practiceService, coachService, wsHub, vadCfg, wsLogger)

	// Session events published by the practice service fan out to the
	// session's live voice connection through the hub.
	consumerService := service.NewConsumerService(
		pubSub,
		cfg.App.SessionEventsTopic,
		wsHub,
		sysLogger,
	)

	// 6. Controllers
	return &Container{
		PracticeController: controller.NewPracticeController(practiceService),
		ScoringController:  controller.NewScoringController(scoringService),
		VoiceHandler:       voiceHandler,
		WebSocketHub:       wsHub,
		ConsumerService:    consumerService,
		Logger:             sysLogger,
	}
}

// llmAPIKey picks the credential matching the configured provider.
func llmAPIKey(cfg *config.Config) string {
	switch cfg.Ai.LLMProvider {
	case "gemini":
		return cfg.Keys.GoogleGemini
	case "huggingface":
		return cfg.Keys.HuggingFace
	case "ollama":
		return ""
	default:
		return cfg.Keys.OpenAI
	}
}

// llmBaseURL resolves the endpoint override for the configured provider.
func llmBaseURL(cfg *config.Config) string {
	if cfg.Ai.LLMProvider == "ollama" {
		return cfg.Ai.OllamaBaseURL
	}
	return cfg.Ai.LLMBaseURL
}
