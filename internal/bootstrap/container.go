package bootstrap

import (
	"context"
	"log"
	"time"

	"docchat-be/internal/config"
	"docchat-be/internal/controller"
	"docchat-be/internal/handler"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/contract"
	"docchat-be/internal/repository/implementation"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/service"
	"docchat-be/internal/websocket"
	"docchat-be/pkg/engine"

	pktNats "docchat-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController    controller.IChatController
	HistoryController controller.IHistoryController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	ActivityHandler *handler.ActivityHandler
	WebSocketHub    *websocket.Hub
}

// NewContainer wires the app. db may be nil; the session store then runs
// fully in memory, which is how the original dashboard behaved.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// NATS (optional)
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		}
	}

	// Redis (optional)
	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// 3. Repositories
	var sessionStore contract.ChatSessionRepository
	if db != nil {
		sessionStore = implementation.NewChatSessionRepository(db, sysLogger)
		log.Printf("[INFO] Using Session Store: POSTGRES")
	} else {
		sessionStore = memory.NewChatSessionRepository(sysLogger)
		log.Printf("[INFO] Using Session Store: MEMORY")
	}

	var bindings contract.RequestBindingRepository
	if rdb != nil {
		bindings = implementation.NewRequestBindingRepository(rdb)
		log.Printf("[INFO] Using Request Binding Store: REDIS")
	} else {
		bindings = memory.NewRequestBindingRepository()
		log.Printf("[INFO] Using Request Binding Store: MEMORY")
	}

	conversations := memory.NewConversationRepository()

	// 4. Engine Client
	engineClient := engine.NewClient(cfg.Engine.BaseURL, time.Duration(cfg.Engine.TimeoutSeconds)*time.Second)
	log.Printf("[INFO] Using QA Engine at %s", cfg.Engine.BaseURL)

	// 5. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/activity.log")
	wsHub := websocket.NewHub(rdb, wsLogger)

	// 6. Services
	publisherService := service.NewPublisherService(cfg.App.ActivityTopicName, pubSub)

	var mirrorPub *pktNats.Publisher
	if cfg.App.MirrorActivityToNats {
		mirrorPub = natsPub
	}
	consumerService := service.NewConsumerService(pubSub, cfg.App.ActivityTopicName, wsHub, mirrorPub)

	conversationService := service.NewConversationService(
		sessionStore,
		bindings,
		conversations,
		engineClient,
		publisherService,
		sysLogger,
	)
	historyService := service.NewHistoryService(sessionStore, publisherService, sysLogger)

	// Cross-instance activity relay (worker)
	if natsSub != nil {
		relay := service.NewActivityRelayService(natsSub, wsHub, wsLogger)
		go relay.Start()
	}

	return &Container{
		ChatController:    controller.NewChatController(conversationService),
		HistoryController: controller.NewHistoryController(historyService),

		ConsumerService: consumerService,

		ActivityHandler: handler.NewActivityHandler(wsHub),
		WebSocketHub:    wsHub,
	}
}
