// Package main runs the bibliotech wallet ledger API.
package main

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/go-petr/bibliotech/cmd/httpserver"
	"github.com/go-petr/bibliotech/internal/middleware"
	"github.com/go-petr/bibliotech/pkg/configpkg"
	"github.com/go-petr/bibliotech/pkg/dbpkg"

	_ "github.com/lib/pq"
)

func main() {
	config, err := configpkg.Load("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}

	logger := middleware.CreateLogger(config)

	db, err := dbpkg.Setup(config.DBDriver, config.DBSource)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot connect to database")
	}

	var rdb *redis.Client

	if config.RedisAddress != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     config.RedisAddress,
			Password: config.RedisPassword,
			DB:       config.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := rdb.Ping(ctx).Err()
		cancel()

		if err != nil {
			logger.Fatal().Err(err).Str("address", config.RedisAddress).Msg("cannot connect to redis")
		}
	}

	if config.Environment != "development" {
		gin.SetMode(gin.ReleaseMode)
	}

	server, err := httpserver.New(db, rdb, logger, config)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot create server")
	}

	logger.Info().
		Str("address", config.ServerAddress).
		Str("id_allocator", config.IDAllocator).
		Msg("BIBLIOTECH LEDGER API SERVER HAS STARTED")

	err = server.Engine.Run(config.ServerAddress)
	if err != nil {
		logger.Fatal().Err(err).Msg("cannot start server")
	}
}
