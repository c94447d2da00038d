package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/weiawesome/social-graph/internal/cache"
	"github.com/weiawesome/social-graph/internal/config"
	"github.com/weiawesome/social-graph/internal/consumer"
	"github.com/weiawesome/social-graph/internal/domain"
	"github.com/weiawesome/social-graph/internal/events"
	"github.com/weiawesome/social-graph/internal/handler"
	"github.com/weiawesome/social-graph/internal/reconciler"
	"github.com/weiawesome/social-graph/internal/relation"
	"github.com/weiawesome/social-graph/internal/repository"
	"github.com/weiawesome/social-graph/internal/service"
	"github.com/weiawesome/social-graph/internal/store"
	"github.com/weiawesome/social-graph/pkg/database"
	"github.com/weiawesome/social-graph/pkg/jwt"
	pkglog "github.com/weiawesome/social-graph/pkg/log"
	"github.com/weiawesome/social-graph/pkg/middleware"
	"github.com/weiawesome/social-graph/pkg/pubsub"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		l := pkglog.L()
		l.Fatal().Err(err).Msg("failed to load config")
	}

	// 2. Initialize structured logger
	pkglog.Init(pkglog.Config{
		Level:       cfg.Log.Level,
		Pretty:      cfg.Log.Level == "debug",
		ServiceName: "social-graph-service",
	})
	logger := pkglog.L()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Init DB and migrate the edge tables
	dbConfig := &database.Config{
		Driver:          cfg.Database.Driver,
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		FilePath:        cfg.Database.FilePath,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		LogLevel:        cfg.Database.LogLevel,
	}

	db, err := database.New(dbConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get underlying sql.DB")
	}
	defer sqlDB.Close()

	if err := repository.Migrate(ctx, db, cfg.Relation.IdentityTable, domain.Follow, domain.Block); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate")
	}
	logger.Info().Msg("database migration completed")

	// Debezium needs the full before-row on deletes to know both endpoints.
	if db.Dialector.Name() == "postgres" && cfg.Kafka.Brokers != "" {
		for _, rel := range []domain.Relation{domain.Follow, domain.Block} {
			if err := db.Exec(fmt.Sprintf(`ALTER TABLE %s REPLICA IDENTITY FULL`, rel.Table)).Error; err != nil {
				logger.Warn().Err(err).Str("table", rel.Table).Msg("failed to set REPLICA IDENTITY FULL")
			}
		}
	}

	// 4. Init cache backend
	backend, err := cache.NewBackend(cache.Config{
		Driver:        cfg.Cache.Driver,
		RedisAddress:  cfg.Redis.Address,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		MemorySize:    cfg.Cache.MemorySize,
	})
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.Cache.Driver).Msg("failed to create cache backend")
	}
	defer backend.Close()
	logger.Info().Str("driver", cfg.Cache.Driver).Msg("cache backend ready")

	// 5. Init event publisher
	publisher, err := pubsub.NewPublisher(pubsub.Config{
		Driver: cfg.PubSub.Driver,
		Redis: pubsub.RedisConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		},
		Kafka: pubsub.KafkaConfig{
			Brokers:    cfg.PubSub.KafkaBrokers,
			Partitions: cfg.PubSub.KafkaPartition,
			Topics:     []string{domain.Follow.Channel(), domain.Block.Channel()},
		},
		NATS: pubsub.NATSConfig{
			URL:  cfg.PubSub.NATSURL,
			Name: "social-graph-service",
		},
	})
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.PubSub.Driver).Msg("failed to create event publisher")
	}

	var emitter events.Emitter = events.Nop{}
	var pubEmitter *events.PubSubEmitter
	if publisher != nil {
		pubEmitter = events.NewPubSubEmitter(publisher, cfg.PubSub.PublishTimeout)
		emitter = pubEmitter
		logger.Info().Str("driver", cfg.PubSub.Driver).Msg("relation events enabled")
	} else {
		logger.Warn().Msg("no event publisher configured; relation events dropped")
	}

	// 6. Build the relation graph and service
	graph := relation.NewGraph(db, backend, emitter, relation.Config{
		CacheTTL:        cfg.Relation.CacheTTL(),
		EventsEnabled:   cfg.Relation.EventsEnabled,
		IdentityTable:   cfg.Relation.IdentityTable,
		IdentityColumns: cfg.Relation.IdentityColumns,
	})

	var hotKeys store.HotKeyStore
	if cfg.Reconciler.Enabled {
		hs, err := store.NewRedisHotKeyStore(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to connect hot key store; cache warm-up disabled")
		} else {
			hotKeys = hs
			defer hs.Close()
		}
	}

	svc := service.NewSocialGraphService(graph, hotKeys)

	// 7. Create JWT auth middleware
	tokens, err := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create token validator (set JWT_SECRET)")
	}
	authMiddleware := middleware.NewAuthMiddleware(tokens)

	// 8. Init Kafka CDC consumer
	var kafkaConsumer *consumer.ConfluentConsumer
	if cfg.Kafka.Brokers != "" {
		kc, err := consumer.NewConfluentConsumer(
			cfg.Kafka.Brokers,
			cfg.Kafka.Topics,
			cfg.Kafka.GroupID,
			consumer.NewRouter(graph, graph.Relations()...),
		)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to create kafka consumer, CDC invalidation disabled")
		} else {
			if err := kc.Start(ctx); err != nil {
				logger.Warn().Err(err).Msg("failed to start kafka consumer")
			} else {
				kafkaConsumer = kc
			}
		}
	} else {
		logger.Warn().Msg("KAFKA_BROKERS not configured; CDC consumer disabled")
	}

	// 9. Init reconciler and start
	var rec *reconciler.Reconciler
	if hotKeys != nil {
		rec = reconciler.New(hotKeys, graph.Engines(), cfg.Reconciler)
		rec.Start(ctx)
		logger.Info().Dur("interval", cfg.Reconciler.Interval).Int("top_n", cfg.Reconciler.TopN).Msg("reconciler started")
	}

	// 10. Setup Gin router + HTTP server
	httpHandler := handler.NewHandler(svc, authMiddleware)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(pkglog.GinMiddleware(logger, "/health"))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	httpHandler.RegisterRoutes(r)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logger.Info().Str("addr", addr).Msg("social-graph-service starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// 11. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutdown signal received")

	shutdownDone := make(chan struct{})
	go func() {
		defer close(shutdownDone)

		// 1. server.Shutdown(5s): drain HTTP so no new mutations start
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("HTTP server forced to shutdown")
		}

		// 2. cancel(): stop Kafka consumer loop and reconciler ticker
		cancel()

		// 3. kafkaConsumer.Close(): wait for in-flight CDC message
		if kafkaConsumer != nil {
			if err := kafkaConsumer.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing kafka consumer")
			}
		}

		// 4. reconciler.Stop(), then <-reconciler.Done()
		if rec != nil {
			rec.Stop()
			<-rec.Done()
		}

		// 5. wait for in-flight event publishes, then close the publisher
		if pubEmitter != nil {
			pubEmitter.Wait()
		}
		if publisher != nil {
			if err := publisher.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing event publisher")
			}
		}
	}()

	select {
	case <-shutdownDone:
		logger.Info().Msg("social-graph-service stopped")
	case <-time.After(30 * time.Second):
		logger.Warn().Msg("shutdown timed out after 30s")
	}
}
