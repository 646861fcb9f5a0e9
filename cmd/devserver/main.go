package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/editsync/editsync/internal/config"
	"github.com/editsync/editsync/internal/devserver"
	"github.com/editsync/editsync/pkg/logger"
	"github.com/editsync/editsync/pkg/metrics"
)

func main() {
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	var blacklist devserver.Blacklist
	if cfg.DevServer.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.DevServer.RedisAddr,
			Password: cfg.DevServer.RedisPassword,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatalf("failed to connect to redis at %s: %v", cfg.DevServer.RedisAddr, err)
		}
		blacklist = devserver.NewRedisBlacklist(rdb)
		logger.Infof("token blacklist backed by redis at %s", cfg.DevServer.RedisAddr)
	}

	srv := devserver.New(devserver.Config{
		JWTSecret:      cfg.DevServer.JWTSecret,
		TokenTTL:       cfg.DevServer.TokenTTL,
		RateLimitRPS:   cfg.DevServer.RateLimitRPS,
		RateLimitBurst: cfg.DevServer.RateLimitBurst,
		Blacklist:      blacklist,
	})

	registry := prometheus.NewRegistry()
	metrics.RegisterCollectors(registry)

	router := srv.Router()
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	addr := cfg.DevServer.Host + ":" + cfg.DevServer.Port
	logger.Infof("dev server listening on %s (log level %s)", addr, logger.LevelString())
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Fatalf("server exited: %v", err)
	}
}
