// Package httpserver manages server creation and api routing.
package httpserver

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/go-petr/bibliotech/internal/accountdelivery"
	"github.com/go-petr/bibliotech/internal/accountrepo"
	"github.com/go-petr/bibliotech/internal/accountservice"
	"github.com/go-petr/bibliotech/internal/idallocator"
	"github.com/go-petr/bibliotech/internal/idrepo"
	"github.com/go-petr/bibliotech/internal/ledgerevents"
	"github.com/go-petr/bibliotech/internal/middleware"
	"github.com/go-petr/bibliotech/internal/transactiondelivery"
	"github.com/go-petr/bibliotech/internal/transactionrepo"
	"github.com/go-petr/bibliotech/internal/transactionservice"
	"github.com/go-petr/bibliotech/internal/userdelivery"
	"github.com/go-petr/bibliotech/internal/userrepo"
	"github.com/go-petr/bibliotech/internal/userservice"
	"github.com/go-petr/bibliotech/pkg/configpkg"
	"github.com/go-petr/bibliotech/pkg/moneypkg"
	"github.com/go-petr/bibliotech/pkg/tokenpkg"
)

// Server holds db connection, handlers router and configuration.
type Server struct {
	DB     *sql.DB
	Engine *gin.Engine
	Config configpkg.Config
}

// ServeHTTP implements the http.Handler interface for the Server type.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Engine.ServeHTTP(w, r)
}

type idAllocator interface {
	accountservice.IDAllocator
	transactionservice.IDAllocator
}

// newIDAllocator returns the redis counter allocator when it is configured
// and a redis client is available, otherwise the in-process allocator.
func newIDAllocator(src idallocator.Source, rdb *redis.Client, config configpkg.Config, logger zerolog.Logger) idAllocator {
	if config.IDAllocator == configpkg.AllocatorRedis {
		if rdb != nil {
			return idallocator.NewRedis(rdb, src)
		}

		logger.Warn().Msg("redis allocator requested without redis, falling back to local allocator")
	}

	return idallocator.New(src)
}

func newPublisher(rdb *redis.Client, config configpkg.Config) transactionservice.Publisher {
	if rdb == nil {
		return ledgerevents.Nop{}
	}

	return ledgerevents.NewRedisPublisher(rdb, config.LedgerEventsQueue)
}

// New creates Server type with instantiated domains and routes.
//
// rdb may be nil, then ledger events are dropped and ids are allocated in process.
func New(conn *sql.DB, rdb *redis.Client, logger zerolog.Logger, config configpkg.Config) (*Server, error) {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		if err := v.RegisterValidation("amount", moneypkg.ValidAmount); err != nil {
			return nil, errors.New("cannot register amount validator")
		}
	}

	tokenMaker, err := tokenpkg.NewMaker(config.TokenKind, config.TokenSymmetricKey)
	if err != nil {
		return nil, errors.New("cannot create token maker")
	}

	userRepo := userrepo.NewRepoPGS(conn)
	accountRepo := accountrepo.NewRepoPGS(conn)
	transactionRepo := transactionrepo.NewRepoPGS(conn)

	ids := newIDAllocator(idrepo.NewRepoPGS(conn), rdb, config, logger)

	accountService := accountservice.New(accountRepo, ids)
	userService := userservice.New(userRepo, accountService)
	transactionService := transactionservice.New(transactionRepo, ids, newPublisher(rdb, config))

	userHandler := userdelivery.NewHandler(userService, tokenMaker, config.AccessTokenDuration)
	accountHandler := accountdelivery.NewHandler(accountService)
	transactionHandler := transactiondelivery.NewHandler(transactionService, accountService)

	engine := gin.New()

	engine.Use(middleware.RequestLogger(logger))

	engine.POST("/users", userHandler.Create)
	engine.POST("/users/login", userHandler.Login)

	authRoutes := engine.Group("/").Use(middleware.AuthMiddleware(tokenMaker))

	authRoutes.POST("/accounts", accountHandler.Create)
	authRoutes.GET("/accounts/me", accountHandler.Me)
	authRoutes.GET("/accounts/:id", accountHandler.Get)

	authRoutes.POST("/transactions", transactionHandler.Create)
	authRoutes.POST("/transactions/deposit", transactionHandler.Deposit)
	authRoutes.POST("/transactions/withdraw", transactionHandler.Withdraw)
	authRoutes.POST("/transactions/purchase", transactionHandler.Purchase)
	authRoutes.POST("/transactions/rent", transactionHandler.Rent)
	authRoutes.POST("/transactions/refund", transactionHandler.Refund)
	authRoutes.POST("/transactions/subscribe", transactionHandler.Subscribe)
	authRoutes.GET("/transactions", transactionHandler.List)
	authRoutes.GET("/transactions/purchased-books", transactionHandler.PurchasedBooks)
	authRoutes.GET("/transactions/:id", transactionHandler.Get)

	server := &Server{
		DB:     conn,
		Engine: engine,
		Config: config,
	}

	return server, nil
}
