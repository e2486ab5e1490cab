package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"rental-backend/internal/domain"
	"rental-backend/internal/service"
)

const maxBodyBytes = 1 << 16

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type CancelRentalRequest struct {
	CancelDate string `json:"cancel_date" validate:"omitempty,datetime=2006-01-02"`
}

type RentalResponse struct {
	ID         int64  `json:"id"`
	PropertyID int64  `json:"property_id"`
	OwnerID    int64  `json:"owner_id"`
	RenterID   int64  `json:"renter_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	State      string `json:"state"`
}

func MapDomainRentalToResponse(r *domain.Rental) RentalResponse {
	return RentalResponse{
		ID:         r.ID,
		PropertyID: r.PropertyID,
		OwnerID:    r.OwnerID,
		RenterID:   r.RenterID,
		StartDate:  r.StartDate.Format(domain.DateLayout),
		EndDate:    r.EndDate.Format(domain.DateLayout),
		State:      string(r.State()),
	}
}

type RentalHandler struct {
	rentalSvc service.RentalService
	validate  *validator.Validate
	db        Pinger
}

func NewRentalHandler(rentalSvc service.RentalService, db Pinger) *RentalHandler {
	return &RentalHandler{
		rentalSvc: rentalSvc,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		db:        db,
	}
}

func (h *RentalHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *RentalHandler) GetRental(w http.ResponseWriter, r *http.Request) {
	userID, rentalID, ok := h.identify(w, r)
	if !ok {
		return
	}
	rt, err := h.rentalSvc.GetRental(r.Context(), userID, rentalID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, MapDomainRentalToResponse(rt))
}

func (h *RentalHandler) ConfirmRental(w http.ResponseWriter, r *http.Request) {
	userID, rentalID, ok := h.identify(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.rentalSvc.ConfirmRental(r.Context(), userID, rentalID))
}

func (h *RentalHandler) DenyRental(w http.ResponseWriter, r *http.Request) {
	userID, rentalID, ok := h.identify(w, r)
	if !ok {
		return
	}
	h.respond(w, r)(h.rentalSvc.DenyRental(r.Context(), userID, rentalID))
}

func (h *RentalHandler) CancelRental(w http.ResponseWriter, r *http.Request) {
	userID, rentalID, ok := h.identify(w, r)
	if !ok {
		return
	}

	var req CancelRentalRequest
	if err := h.decode(r, &req); err != nil {
		writeErrorBody(w, r, http.StatusBadRequest, CodeInvalidInput, err.Error())
		return
	}

	var cancelDate *time.Time
	if req.CancelDate != "" {
		d, err := domain.ParseDate(req.CancelDate)
		if err != nil {
			writeErrorBody(w, r, http.StatusBadRequest, CodeInvalidInput, "cancel_date must be YYYY-MM-DD")
			return
		}
		cancelDate = &d
	}

	h.respond(w, r)(h.rentalSvc.CancelRental(r.Context(), userID, rentalID, cancelDate))
}

func (h *RentalHandler) respond(w http.ResponseWriter, r *http.Request) func(*service.OwnerUpdateResponse, error) {
	return func(resp *service.OwnerUpdateResponse, err error) {
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func (h *RentalHandler) identify(w http.ResponseWriter, r *http.Request) (userID, rentalID int64, ok bool) {
	userID, ok = GetUserIDFromContext(r.Context())
	if !ok {
		writeErrorBody(w, r, http.StatusUnauthorized, CodeUnauthenticated, "user is not authenticated")
		return 0, 0, false
	}
	rentalID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || rentalID <= 0 {
		writeErrorBody(w, r, http.StatusBadRequest, CodeInvalidInput, "invalid rental id")
		return 0, 0, false
	}
	return userID, rentalID, true
}

// decode reads an optional JSON body into v and validates it. An empty body
// leaves v at its zero value.
func (h *RentalHandler) decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid request body: %w", err)
	}

	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
			}
			return fmt.Errorf("validation failed: %s", strings.Join(fields, "; "))
		}
		return err
	}
	return nil
}
