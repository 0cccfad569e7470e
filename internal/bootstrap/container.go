package bootstrap

import (
	"context"
	"fmt"
	"log"
	"time"

	"projectx-be/internal/config"
	"projectx-be/internal/controller"
	"projectx-be/internal/pkg/logger"
	"projectx-be/internal/pkg/mailer"
	"projectx-be/internal/pkg/serverutils"
	"projectx-be/internal/repository/memory"
	"projectx-be/internal/repository/state"
	"projectx-be/internal/repository/unitofwork"
	"projectx-be/internal/service"
	"projectx-be/internal/web"
	"projectx-be/pkg/llm/factory"

	pktNats "projectx-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	PageController    controller.IPageController
	AuthController    controller.IAuthController
	UserController    controller.IUserController
	OAuthController   controller.IOAuthController
	ChatbotController controller.IChatbotController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	Logger logger.ILogger

	closers []func() error
}

func NewContainer(db *gorm.DB, cfg *config.Config) (*Container, error) {
	c := &Container{}

	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	llmLogger := logger.NewIsolatedLogger(cfg.App.LLMLogFilePath)
	c.Logger = sysLogger
	// Sync on a console core reports EINVAL, so its error is dropped
	c.closers = append(c.closers, func() error {
		_ = sysLogger.Sync()
		_ = llmLogger.Sync()
		return nil
	})

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.SenderName,
	)

	// 2. Email job queue
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, pubSub.Close)

	// 3. Infrastructure
	// NATS is optional; auth keeps working without the event stream
	var eventPublisher service.IEventPublisher
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		c.closers = append(c.closers, func() error { natsPub.Close(); return nil })
	}

	stateStore := newStateStore(cfg.App.RedisURL)
	if closer, ok := stateStore.(interface{ Close() error }); ok {
		c.closers = append(c.closers, closer.Close)
	}

	llmSettings := factory.Settings{
		Provider:      cfg.Ai.LLMProvider,
		Model:         cfg.Ai.ChatModel,
		GeminiAPIKey:  cfg.Keys.GoogleGemini,
		OllamaBaseURL: cfg.Ai.OllamaBaseURL,
	}
	llmProvider, err := factory.NewLLMProvider(context.Background(), llmSettings)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM provider: %w", err)
	}
	chatModel := factory.ModelFor(llmSettings)
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, chatModel)

	transcripts := memory.NewTranscriptRepository(cfg.Ai.TranscriptIdle)

	renderer, err := web.NewRenderer(cfg.App.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page templates: %w", err)
	}

	// 4. Services
	emailJobs := service.NewEmailJobPublisher(pubSub, cfg.Keys.EmailTopic)
	authService := service.NewAuthService(uowFactory, emailJobs, eventPublisher, cfg.Auth, sysLogger)
	oauthService := service.NewOAuthService(uowFactory, stateStore, eventPublisher, cfg, sysLogger)
	chatbotService := service.NewChatbotService(llmProvider, transcripts, chatModel, sysLogger, llmLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, cfg.Keys.EmailTopic, emailService, sysLogger)

	// 5. Controllers
	guard := serverutils.NewSessionGuard(cfg.Auth.JWTSecret, cfg.Auth.CookieName, authService)
	secure := cfg.IsProduction()

	c.PageController = controller.NewPageController(renderer, authService, chatbotService, guard, sysLogger)
	c.AuthController = controller.NewAuthController(authService, guard, secure, sysLogger)
	c.UserController = controller.NewUserController(authService, guard)
	c.OAuthController = controller.NewOAuthController(oauthService, guard, secure, sysLogger)
	c.ChatbotController = controller.NewChatbotController(chatbotService, guard)

	return c, nil
}

// newStateStore prefers Redis so OAuth state survives restarts and is
// shared between instances. An unreachable Redis falls back to memory.
func newStateStore(redisURL string) state.StateStore {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: redisURL,
		}
	}

	rdb := redis.NewClient(opt)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. OAuth state kept in memory", err)
		_ = rdb.Close()
		return state.NewMemoryStore()
	}

	return state.NewRedisStore(rdb)
}

// Close releases connections in reverse order of creation.
func (c *Container) Close() error {
	var firstErr error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
