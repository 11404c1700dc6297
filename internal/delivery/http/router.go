package http

import (
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"eventregistrations/internal/delivery/http/controllers"
	"eventregistrations/internal/delivery/http/middleware"
	"eventregistrations/internal/domain"
)

// NewRouter initializes the HTTP router with all application routes
func NewRouter(
	registrationController *controllers.RegistrationController,
	orderController *controllers.OrderController,
	eventController *controllers.EventController,
	authController *controllers.AuthController,
	verifier domain.TokenVerifier,
	logger *slog.Logger,
) *http.ServeMux {
	mux := http.NewServeMux()
	admin := middleware.RequireAuth(verifier, logger)

	// Public
	mux.HandleFunc("GET /events/{eventID}", eventController.GetEvent)
	mux.HandleFunc("GET /events/{eventID}/registrations/options", registrationController.ProductOptions)
	mux.HandleFunc("POST /events/{eventID}/registrations", registrationController.Register)
	mux.HandleFunc("GET /registrations/{id}/confirm", registrationController.Confirm)
	mux.HandleFunc("GET /paymentmethods", eventController.ListPaymentMethods)

	// Auth
	mux.HandleFunc("POST /auth/login", authController.Login)

	// Admin: registrations
	mux.HandleFunc("GET /registrations/{id}", admin(registrationController.GetRegistration))
	mux.HandleFunc("PUT /registrations/{id}/participant", admin(registrationController.UpdateParticipant))
	mux.HandleFunc("PUT /registrations/{id}/customer", admin(registrationController.UpdateCustomer))
	mux.HandleFunc("PUT /registrations/{id}/paymentmethod", admin(registrationController.UpdatePaymentMethod))
	mux.HandleFunc("PATCH /registrations/{id}/status", admin(registrationController.UpdateStatus))
	mux.HandleFunc("PATCH /registrations/{id}/type", admin(registrationController.UpdateType))

	// Admin: orders
	mux.HandleFunc("GET /orders/{id}", admin(orderController.GetOrder))
	mux.HandleFunc("PATCH /orders/{id}/status", admin(orderController.UpdateStatus))
	mux.HandleFunc("POST /orders/{id}/lines", admin(orderController.AddLine))
	mux.HandleFunc("PUT /orders/lines/{lineID}", admin(orderController.UpdateLine))
	mux.HandleFunc("DELETE /orders/lines/{lineID}", admin(orderController.DeleteLine))

	// Swagger
	mux.Handle("/swagger/", httpSwagger.WrapHandler)

	return mux
}
