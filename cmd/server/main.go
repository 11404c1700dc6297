package main

import (
	"context"
	crand "crypto/rand"
	"database/sql"
	"encoding/binary"
	"errors"
	"log"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"eventregistrations/config"
	_ "eventregistrations/docs"
	"eventregistrations/internal/adapters/auth"
	"eventregistrations/internal/adapters/codes"
	"eventregistrations/internal/adapters/email"
	deliveryhttp "eventregistrations/internal/delivery/http"
	"eventregistrations/internal/delivery/http/controllers"
	"eventregistrations/internal/delivery/http/middleware"
	"eventregistrations/internal/repository/postgres"
	"eventregistrations/internal/services"
)

// @title Event Registrations API
// @version 1.0
// @description Registration and order lifecycle API for paid event registrations.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Error("ping database", "err", err)
		os.Exit(1)
	}

	eventRepo := postgres.NewEventRepository(db)
	userRepo := postgres.NewUserRepository(db)
	registrationRepo := postgres.NewRegistrationRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	paymentMethodRepo := postgres.NewPaymentMethodRepository(db)

	mailer, err := email.NewMailer(cfg.Email, logger)
	if err != nil {
		logger.Error("init mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	codeGen := codes.NewGenerator(rand.New(rand.NewPCG(cryptoSeed(), cryptoSeed())))

	orderService := services.NewOrderService(orderRepo, registrationRepo, eventRepo)
	registrationService := services.NewRegistrationService(registrationRepo, orderRepo, orderService, paymentMethodRepo, logger)
	intakeService := services.NewIntakeService(eventRepo, userRepo, registrationRepo, codeGen, emailService, services.IntakeConfig{
		BaseURL:                cfg.BaseURL,
		DefaultPaymentMethodID: cfg.DefaultPaymentMethodID,
	}, logger)

	hasher := auth.NewBcryptHasher(bcrypt.DefaultCost)
	tokenIssuer, tokenVerifier := auth.NewJWTTokens(cfg.JWTSecret)
	authService := services.NewAuthService(userRepo, hasher, tokenIssuer, cfg.TokenExpiry)

	mux := deliveryhttp.NewRouter(
		controllers.NewRegistrationController(logger, intakeService, registrationService),
		controllers.NewOrderController(logger, orderService),
		controllers.NewEventController(logger, eventRepo, paymentMethodRepo),
		controllers.NewAuthController(logger, authService),
		tokenVerifier,
		logger,
	)

	handler := middleware.LoggingMiddleware(logger, mux)
	handler = middleware.CORS(cfg.AllowedOrigins, handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown", "err", err)
	}
	logger.Info("server stopped")
}

func cryptoSeed() uint64 {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return uint64(time.Now().UnixNano())
	}
	return binary.LittleEndian.Uint64(b[:])
}
