package bootstrap

import (
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"

	"carepathiq-be/internal/config"
	"carepathiq-be/internal/controller"
	"carepathiq-be/internal/pkg/logger"
	"carepathiq-be/internal/repository/memory"
	"carepathiq-be/internal/service"
	"carepathiq-be/internal/websocket"
	"carepathiq-be/pkg/llm"
	"carepathiq-be/pkg/llm/factory"
	"carepathiq-be/pkg/pubmed"
)

type Container struct {
	// Controllers
	PathwayController   controller.IPathwayController
	EvidenceController  controller.IEvidenceController
	AssistantController controller.IAssistantController

	// Services (also consumed directly by the terminal workshop)
	PathwayService   service.IPathwaySessionService
	EvidenceService  service.IEvidenceService
	AssistantService service.IAssistantService
	WorkshopService  service.IWorkshopService

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	WebSocketHub *websocket.Hub
}

func NewContainer(cfg *config.Config) *Container {
	// Stream events go to websocket clients, isolated log file.
	wsLogger := logger.NewIsolatedLogger("logs/stream.log")
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run()

	return newContainer(cfg, service.NewStreamService(wsHub, wsLogger), wsHub)
}

// NewTerminalContainer wires the same services for the terminal workshop,
// with stream events delivered to the provided sink instead of websockets.
func NewTerminalContainer(cfg *config.Config, stream service.IStreamService) *Container {
	return newContainer(cfg, stream, nil)
}

func newContainer(cfg *config.Config, streamService service.IStreamService, wsHub *websocket.Hub) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. Remote Clients
	// LLM provider is optional: without a usable key the assistant answers
	// with its fixed fallbacks and the workshop still runs end to end.
	llmProvider := newLLMProvider(cfg)

	pubmedClient := pubmed.NewClient(cfg.Pubmed.BaseURL, cfg.Pubmed.Tool, cfg.Pubmed.ContactEmail)

	// 4. In-Memory Repositories
	sessionRepo := memory.NewSessionRepository()
	conversationRepo := memory.NewConversationRepository()
	transcriptRepo := memory.NewTranscriptRepository()

	// 5. Services
	checkpointPublisher := service.NewPublisherService(pubSub, cfg.Keys.CheckpointTopic)
	progressPublisher := service.NewPublisherService(pubSub, cfg.Keys.ProgressTopic)

	pathwayService := service.NewPathwaySessionService(sessionRepo, checkpointPublisher, cfg.Report.Path, sysLogger)
	evidenceService := service.NewEvidenceService(pubmedClient, cfg.Pubmed.RetMax, sysLogger)
	assistantService := service.NewAssistantService(llmProvider, sessionRepo, transcriptRepo, streamService, cfg.Ai.Temperature, sysLogger)
	workshopService := service.NewWorkshopService(conversationRepo, pathwayService, evidenceService, assistantService, progressPublisher, sysLogger)

	consumerService := service.NewConsumerService(pubSub, cfg.Keys.CheckpointTopic, cfg.Keys.ProgressTopic, streamService, sysLogger)

	// 6. Controllers
	pathwayController := controller.NewPathwayController(pathwayService, workshopService)
	evidenceController := controller.NewEvidenceController(evidenceService)
	assistantController := controller.NewAssistantController(assistantService, cfg.Report.TranscriptPath)

	return &Container{
		PathwayController:   pathwayController,
		EvidenceController:  evidenceController,
		AssistantController: assistantController,
		PathwayService:      pathwayService,
		EvidenceService:     evidenceService,
		AssistantService:    assistantService,
		WorkshopService:     workshopService,
		ConsumerService:     consumerService,
		WebSocketHub:        wsHub,
	}
}

func newLLMProvider(cfg *config.Config) llm.LLMProvider {
	apiKey := cfg.Keys.OpenAI
	baseURL := cfg.Ai.OpenAIBaseURL
	switch cfg.Ai.LLMProvider {
	case "ollama":
		apiKey = ""
		baseURL = cfg.Ai.OllamaBaseURL
	case "huggingface":
		apiKey = cfg.Keys.HuggingFace
	}

	provider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, cfg.Ai.LLMModel, baseURL, apiKey)
	if err != nil {
		log.Printf("[WARN] LLM provider unavailable, assistant runs with fixed fallbacks: %v", err)
		return nil
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)
	return provider
}
