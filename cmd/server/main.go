package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/iliyamo/cinemaops/internal/config"
	"github.com/iliyamo/cinemaops/internal/database"
	"github.com/iliyamo/cinemaops/internal/handler"
	"github.com/iliyamo/cinemaops/internal/hls"
	"github.com/iliyamo/cinemaops/internal/middleware"
	"github.com/iliyamo/cinemaops/internal/oauth"
	"github.com/iliyamo/cinemaops/internal/queue"
	"github.com/iliyamo/cinemaops/internal/realtime"
	"github.com/iliyamo/cinemaops/internal/repository"
	"github.com/iliyamo/cinemaops/internal/router"
	"github.com/iliyamo/cinemaops/internal/service"
	"github.com/iliyamo/cinemaops/internal/tmdb"
	"github.com/iliyamo/cinemaops/internal/utils"
)

func logLevel(s string) log.Lvl {
	switch strings.ToLower(s) {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	}
	return log.INFO
}

// skipMedia keeps gzip away from video segments and the websocket upgrade.
func skipMedia(c echo.Context) bool {
	p := c.Request().URL.Path
	return strings.HasPrefix(p, "/api/stream") || strings.HasPrefix(p, "/api/ws")
}

func main() {
	cfg := config.Load()
	logger := log.New("cinemaops")
	logger.SetLevel(logLevel(cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg)
	if err != nil {
		logger.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb, err := config.NewRedisClient(ctx, config.LoadRedisConfig())
	if err != nil {
		logger.Warnf("redis unavailable, cache and rate limit disabled: %v", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()

	e := echo.New()
	e.HideBanner = true
	e.Logger = logger
	e.Validator = utils.EchoValidator{}
	e.HTTPErrorHandler = handler.AppHTTPErrorHandler

	e.Use(echomw.RequestIDWithConfig(echomw.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:    true,
		LogURIPath:   true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			logger.Infof("%s %s %d %s id=%s", v.Method, v.URIPath, v.Status, v.Latency, v.RequestID)
			return nil
		},
	}))
	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowCredentials: true,
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.GzipWithConfig(echomw.GzipConfig{Skipper: skipMedia}))
	e.Use(middleware.OptionalJWT(cfg.JWTSecret))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Use(middleware.NewRedisCache(cacheCfg, rdb))

	hub := realtime.NewHub(cfg.CORSOrigins, logger)
	staffHub := realtime.NewHub(cfg.CORSOrigins, logger)
	changes := &handler.Changes{Hub: hub, Staff: staffHub, Cache: middleware.NewCachePurger(cacheCfg, rdb)}

	var google handler.GoogleSignIn
	if cfg.Google.Enabled() {
		google = oauth.NewGoogle(cfg.Google)
	}
	publisher := service.NewBookingPublisher(cfg.AMQPURL, logger)

	users := repository.NewUserRepo(db)
	cinemas := repository.NewCinemaRepo(db)
	orders := repository.NewOrderRepo(db)
	orders.Hold = cfg.BookingHold
	h := router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(db), google),
		Stream:      handler.NewStreamHandler(hls.NewLibrary(cfg.Stream.VideoRoot), cfg.Stream.BasePath),
		Cinema:      handler.NewCinemaHandler(cinemas, users, changes),
		Movie:       handler.NewMovieHandler(repository.NewMovieRepo(db), tmdb.NewClient(cfg.TMDB.BaseURL, cfg.TMDB.APIKey), changes),
		Promotion:   handler.NewPromotionHandler(repository.NewPromotionRepo(db), changes),
		Membership:  handler.NewMembershipHandler(repository.NewMembershipRepo(db), changes),
		TicketPrice: handler.NewTicketPriceHandler(repository.NewTicketPriceRepo(db), cinemas, changes),
		Schedule:    handler.NewScheduleHandler(repository.NewScheduleRepo(db), changes),
		Leave:       handler.NewLeaveHandler(repository.NewLeaveRepo(db), changes),
		Booking:     handler.NewBookingHandler(orders, cfg.SePay, publisher, changes),
		Room:        handler.NewRoomHandler(repository.NewRoomRepo(db), changes),
		Showtime:    handler.NewShowtimeHandler(repository.NewShowtimeRepo(db), changes),
		Realtime:    hub,
		StaffFeed:   staffHub,
	}
	if cfg.RasaURL != "" {
		proxy, err := handler.ChatbotProxy(cfg.RasaURL)
		if err != nil {
			logger.Fatalf("chatbot proxy: %v", err)
		}
		h.Chatbot = proxy
	}
	router.Register(e, h, cfg.JWTSecret)

	consumer := queue.NewConsumer(cfg.AMQPURL, "", logger)
	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Errorf("booking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	go func() {
		logger.Infof("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("shutdown: %v", err)
	}
}
