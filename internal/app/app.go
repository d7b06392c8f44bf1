package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/smb02/outreach-engine/internal/config"
	"github.com/smb02/outreach-engine/internal/db"
	"github.com/smb02/outreach-engine/internal/generator"
	api "github.com/smb02/outreach-engine/internal/http/api"
	"github.com/smb02/outreach-engine/internal/mail"
	"github.com/smb02/outreach-engine/internal/memory"
	"github.com/smb02/outreach-engine/internal/profile"
	"github.com/smb02/outreach-engine/internal/quota"
	"github.com/smb02/outreach-engine/internal/ratelimit"
)

// shutdownGrace bounds how long in-flight requests may run after a stop signal.
const shutdownGrace = 10 * time.Second

// Migrate opens the database and runs migrations.
func Migrate(cfg config.AppConfig) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)
	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}
	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return errOpen
	}
	return db.Migrate(conn)
}

// RunServer boots the outreach API server with database-backed components.
func RunServer(ctx context.Context, cfg config.AppConfig, defaultPort int) error {
	configPath := config.ResolveConfigPath(cfg.ConfigPath)

	dsn, errDSN := config.LoadDatabaseDSN(configPath)
	if errDSN != nil {
		return errDSN
	}
	jwtCfg, errJWT := config.LoadJWTConfig(configPath)
	if errJWT != nil {
		return errJWT
	}
	if jwtCfg.Secret == "" {
		return errors.New("app: jwt secret is required (set JWT_SECRET or jwt.secret)")
	}
	svcCfg, errSvc := config.LoadServiceConfig(configPath)
	if errSvc != nil {
		return errSvc
	}
	if defaultPort > 0 {
		svcCfg.Port = defaultPort
	}

	conn, errOpen := db.Open(dsn)
	if errOpen != nil {
		return errOpen
	}
	if errMigrate := db.Migrate(conn); errMigrate != nil {
		return errMigrate
	}
	log.Infof("database ready (%s)", db.DialectName(conn))

	memoryStore, errMemory := memory.NewStore(svcCfg.MemoryDir)
	if errMemory != nil {
		return errMemory
	}

	model := generator.NewLoader(svcCfg.Model.Name, svcCfg.Model.CacheDir)
	if errInit := model.Initialize(); errInit != nil {
		return errInit
	}
	defer model.Unload()

	limiter := ratelimit.NewManager(ratelimit.Settings{
		PerSecond:     svcCfg.RateLimit.PerSecond,
		RedisAddr:     svcCfg.RateLimit.RedisAddr,
		RedisPassword: svcCfg.RateLimit.RedisPassword,
		RedisPrefix:   svcCfg.RateLimit.RedisPrefix,
		RedisDB:       svcCfg.RateLimit.RedisDB,
	}, nil, nil)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(api.CORSMiddleware(svcCfg.CORSOrigins))

	api.RegisterRoutes(engine, api.Services{
		DB:      conn,
		JWT:     jwtCfg,
		Quota:   quota.NewManager(conn, quota.LimitsFromConfig(svcCfg.PlanLimits), nil),
		Limiter: limiter,
		Memory:  memoryStore,
		Mail:    mail.NewGenerator(),
		Profile: profile.NewAnalyzer(svcCfg.Apify.Token),
		Model:   model,
	})

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", svcCfg.Port),
		Handler: engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("listening on %s", server.Addr)
		if errServe := server.ListenAndServe(); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			errCh <- errServe
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if errShutdown := server.Shutdown(shutdownCtx); errShutdown != nil {
			return errShutdown
		}
		return <-errCh
	case errServe := <-errCh:
		return errServe
	}
}
