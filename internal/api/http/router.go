package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"rental-backend/internal/security"
	"rental-backend/internal/service"
)

// NewRouter wires the rental routes. Route names select the security level
// in config.EndpointSecurityConfig. db may be nil.
func NewRouter(rentalSvc service.RentalService, tm security.TokenManager, db Pinger) *mux.Router {
	h := NewRentalHandler(rentalSvc, db)

	router := mux.NewRouter()
	router.Use(RequestID, Logging, Recovery, Auth(tm))

	router.HandleFunc("/healthz", h.Health).Methods(http.MethodGet).Name("Health")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/rentals/{id}", h.GetRental).Methods(http.MethodGet).Name("GetRental")
	api.HandleFunc("/rentals/{id}/confirm", h.ConfirmRental).Methods(http.MethodPost).Name("ConfirmRental")
	api.HandleFunc("/rentals/{id}/deny", h.DenyRental).Methods(http.MethodPost).Name("DenyRental")
	api.HandleFunc("/rentals/{id}/cancel", h.CancelRental).Methods(http.MethodPost).Name("CancelRental")

	return router
}
