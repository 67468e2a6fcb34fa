package di

import (
	"context"
	"fmt"
	"time"

	"brokerage-chat/backend/internal/notify"
	"brokerage-chat/backend/internal/repository"
	"brokerage-chat/backend/internal/service"
	"brokerage-chat/backend/internal/ws"
	"brokerage-chat/backend/pkg/config"
	"brokerage-chat/backend/pkg/health"
	"brokerage-chat/backend/pkg/jwt"
	"brokerage-chat/backend/pkg/logger"
	"brokerage-chat/backend/pkg/tokenstore"
	sharedredis "brokerage-chat/backend/shared/redis"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// healthPeriod is how often background health checks run
const healthPeriod = 30 * time.Second

// Container holds all the dependencies for the application
type Container struct {
	Config          *config.Config
	DB              *gorm.DB
	Logger          *logger.Logger
	Redis           *redis.Client
	JWTService      *jwt.Service
	TokenStore      tokenstore.Store
	Sessions        repository.SessionRepository
	Operators       repository.OperatorRepository
	Notifier        notify.Notifier
	Hub             *ws.Hub
	Health          *health.Checker
	ChatService     *service.ChatService
	OperatorService *service.OperatorService

	closers []func()
}

// New creates a new dependency injection container. Redis is only dialled
// when enabled; otherwise revocations live in process memory.
func New(ctx context.Context, db *gorm.DB, cfg *config.Config, log *logger.Logger) (*Container, error) {
	if log == nil {
		log = logger.GetGlobal()
	}

	c := &Container{
		Config: cfg,
		DB:     db,
		Logger: log,
		Health: health.NewChecker(log, 2*time.Second),
	}

	c.Health.Register("database", true, func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})

	if cfg.Redis.Enabled {
		client, err := sharedredis.NewClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		c.Redis = client
		c.TokenStore = tokenstore.NewRedisStore(client, "")
		c.Health.Register("redis", false, sharedredis.HealthCheck(client))
		c.closers = append(c.closers, func() { _ = client.Close() })
		log.Info("Token revocation backed by Redis", "addr", cfg.Redis.Addr)
	} else {
		store := tokenstore.NewMemoryStore()
		c.TokenStore = store
		c.closers = append(c.closers, store.Close)
		log.Info("Token revocation kept in memory")
	}

	c.JWTService = jwt.NewService(cfg.JWT.Secret, cfg.JWT.Expiry, cfg.JWT.Issuer)

	c.Sessions = repository.NewGormSessionRepository(db)
	c.Operators = repository.NewGormOperatorRepository(db)

	if cfg.SMTPEnabled() {
		c.Notifier = notify.NewSMTPNotifier(cfg.SMTP, log)
		log.Info("Lead notifications by email", "host", cfg.SMTP.Host, "recipients", len(cfg.SMTP.To))
	} else {
		c.Notifier = notify.NewLogNotifier(log)
	}

	c.Hub = ws.NewHub(log, cfg.Security.AllowedOrigins)

	c.ChatService = service.NewChatService(c.Sessions, cfg.Chat, log,
		service.WithNotifier(c.Notifier),
		service.WithPublisher(c.Hub),
		service.WithOperatorRepository(c.Operators),
	)
	c.OperatorService = service.NewOperatorService(c.Operators, c.JWTService, c.TokenStore)

	return c, nil
}

// Start launches the feed hub and periodic health checks until ctx is done
func (c *Container) Start(ctx context.Context) {
	go c.Hub.Run(ctx)
	c.Health.Start(ctx, healthPeriod)
}

// Close waits for pending side effects and releases connections
func (c *Container) Close() {
	c.ChatService.Wait()
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
