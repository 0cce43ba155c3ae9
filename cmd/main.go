package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/anchor/internal/auth"
	"github.com/ukydev/anchor/internal/config"
	"github.com/ukydev/anchor/internal/db"
	"github.com/ukydev/anchor/internal/events"
	"github.com/ukydev/anchor/internal/geocode"
	"github.com/ukydev/anchor/internal/geodata"
	"github.com/ukydev/anchor/internal/handlers"
	"github.com/ukydev/anchor/internal/logger"
	"github.com/ukydev/anchor/internal/middleware"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to MongoDB")
	}
	defer client.Disconnect(context.Background())
	log.Info("Connected to MongoDB")

	usersColl := client.Database(cfg.MongoDB).Collection("users")
	if err := db.EnsureUserIndexes(ctx, usersColl); err != nil {
		log.WithError(err).Fatal("Failed to create indexes")
	}
	users := &db.MongoUserCollection{Collection: usersColl}

	var publisher geodata.Publisher
	if cfg.MQTTBroker != "" {
		mqttPub, mqttClient, err := events.ConnectMQTT(cfg.MQTTBroker, cfg.MQTTClientID)
		if err != nil {
			log.WithError(err).Warn("MQTT unavailable, location events disabled")
		} else {
			defer mqttClient.Disconnect(250)
			publisher = mqttPub
			log.WithField("broker", cfg.MQTTBroker).Info("Publishing location events")
		}
	}

	var geocoder geocode.Geocoder = geocode.NewClient(cfg.GeocodeBaseURL, nil)
	var purger handlers.CachePurger
	if cfg.RedisAddr != "" {
		rdb, err := db.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, geocoding is not cached")
		} else {
			defer rdb.Close()
			cached := geocode.NewCachedGeocoder(geocoder, rdb, cfg.GeocodeCacheTTL, log)
			geocoder, purger = cached, cached
		}
	}

	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is not set, using the development secret")
	}
	authService := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)

	router := newRouter(routerDeps{
		Auth:      handlers.NewAuthHandler(authService, users, log),
		Geodata:   handlers.NewGeodataHandler(geodata.NewService(users, publisher, log), log),
		Geocode:   handlers.NewGeocodeHandler(geocoder, purger, log),
		AuthMW:    middleware.NewAuthMiddleware(authService),
		RateLimit: middleware.NewRateLimitMiddleware().RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindowSeconds),
		Health:    func(ctx context.Context) error { return db.Ping(ctx, client) },
		ClientURL: cfg.ClientURL,
		Logger:    log,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}
