package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"

	"github.com/yumetria/tsudoi/internal/config"
	"github.com/yumetria/tsudoi/internal/infrastructure/database"
	"github.com/yumetria/tsudoi/internal/infrastructure/gateway"
	"github.com/yumetria/tsudoi/internal/infrastructure/repository"
	"github.com/yumetria/tsudoi/internal/observability"
	"github.com/yumetria/tsudoi/internal/present/rest"
	"github.com/yumetria/tsudoi/internal/present/rest/middleware"
	"github.com/yumetria/tsudoi/internal/service"
	"github.com/yumetria/tsudoi/internal/token"
	"github.com/yumetria/tsudoi/internal/usecase"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	conf, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	db, err := database.NewPostgres(conf.Server.PostgresDsn)
	if err != nil {
		panic("failed to connect database")
	}

	err = database.MigratePostgres(db)
	if err != nil {
		panic("failed to migrate database")
	}

	rdb := database.NewRedis(conf.Server.RedisAddr, "", conf.Server.RedisDB)

	codec, err := token.New(conf.Auth.Secret, conf.Auth.Algorithm)
	if err != nil {
		panic("failed to build token codec: " + err.Error())
	}

	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	tokenRepo := repository.NewTokenRepository(db)

	mailer := gateway.NewMailer(conf.Mail)
	signal := service.NewSignalService(rdb)

	tokens := usecase.NewTokenService(codec, tokenRepo, conf.Auth.AccessExpiry())
	users := usecase.NewUserUsecase(userRepo, tokens, mailer, conf.Auth, conf.Frontend)
	groups := usecase.NewGroupUsecase(groupRepo, tokens, mailer, signal, conf.Auth, conf.Frontend)

	auth := service.NewAuthService(codec, userRepo, conf.Auth.TokenPrefix)
	authMiddleware := middleware.NewAuthMiddleware(auth)

	e := echo.New()
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	if conf.Server.EnableTrace {
		shutdown, err := observability.SetupTraceProvider(context.Background(), conf.Server.TraceEndpoint, "tsudoi")
		if err != nil {
			panic("failed to setup trace provider: " + err.Error())
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				slog.Error("Failed to shutdown trace provider", slog.String("error", err.Error()))
			}
		}()
		e.Use(otelecho.Middleware("tsudoi"))
	}

	handler := rest.NewHandler(users, groups, auth)
	handler.RegisterRoutes(e, authMiddleware)

	listen := conf.Server.ListenAddr
	if listen == "" {
		listen = ":8000"
	}

	e.Logger.Fatal(e.Start(listen))
}
