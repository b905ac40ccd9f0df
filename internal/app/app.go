package app

import (
	"context"
	"database/sql"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appconfig "evtrack/internal/config"
	"evtrack/internal/db"
	"evtrack/internal/geo"
	httpserver "evtrack/internal/http"
	"evtrack/internal/http/handlers"
	"evtrack/internal/http/middleware"
	"evtrack/internal/password"
	"evtrack/internal/redis"
	"evtrack/internal/repository"
	"evtrack/internal/service"
	"evtrack/internal/ws"
)

// App wires dependencies for the tracking service.
type App struct {
	server *httpserver.Server
	db     *sql.DB
	cache  *goredis.Client
	logger *zap.Logger
}

// New builds application graph.
func New(cfg *appconfig.Config, logger *zap.Logger) (*App, error) {
	sqlDB, err := db.NewPostgres(cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	// The geocode cache is an optimization; the service runs without it.
	cache, err := redis.NewClient(cfg.Redis.Addr, cfg.Redis.Password)
	if err != nil {
		logger.Warn("redis unavailable, geocoding runs uncached", zap.Error(err))
		cache = nil
	}

	userRepo := repository.NewUserRepository(sqlDB)
	sessionRepo := repository.NewSessionRepository(sqlDB)

	hasher := password.NewBcryptHasher(cfg.Auth.BcryptCost)
	tokenSvc := service.NewTokenService(cfg.Auth.JWTSecret, cfg.TokenTTL())
	authSvc := service.NewAuthService(userRepo, hasher, tokenSvc, logger)

	geocoder := geo.NewGeocoder(cfg.Geocoder.BaseURL, cfg.Geocoder.Country, cfg.GeocodeTTL(), cache, logger)
	hub := ws.NewHub(logger)
	sessionsSvc := service.NewSessionsService(sessionRepo, geocoder, hub, logger)

	routes := httpserver.Routes{
		Health: handlers.NewHealthHandler(),
		Signup: handlers.NewSignupHandler(authSvc),
		Login:  handlers.NewLoginHandler(authSvc),

		ChargingDataList:   handlers.NewChargingDataListHandler(sessionsSvc),
		ChargingDataGet:    handlers.NewChargingDataGetHandler(sessionsSvc),
		ChargingDataCreate: handlers.NewChargingDataCreateHandler(sessionsSvc),
		ChargingDataUpdate: handlers.NewChargingDataUpdateHandler(sessionsSvc),
		ChargingDataDelete: handlers.NewChargingDataDeleteHandler(sessionsSvc),

		ImportCSV:     handlers.NewImportCSVHandler(sessionsSvc),
		ImportRecords: handlers.NewImportRecordsHandler(sessionsSvc),
		ImportTesla:   handlers.NewImportTeslaHandler(sessionsSvc),

		Summary:    handlers.NewSummaryHandler(sessionsSvc),
		Aggregates: handlers.NewAggregatesHandler(sessionsSvc),
		Export:     handlers.NewExportHandler(sessionsSvc),
		WebSocket:  handlers.NewWebSocketHandler(hub, logger),
	}

	router := httpserver.NewRouter(routes, middleware.Auth(tokenSvc))
	server := httpserver.NewServer(cfg.HTTPAddress(), router, logger)

	return &App{
		server: server,
		db:     sqlDB,
		cache:  cache,
		logger: logger,
	}, nil
}

// Run starts serving HTTP traffic until context cancellation.
func (a *App) Run(ctx context.Context) error {
	return a.server.Run(ctx)
}

// Close releases acquired resources.
func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("failed to close redis client", zap.Error(err))
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Warn("failed to close db", zap.Error(err))
		}
	}
}
