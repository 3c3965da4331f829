package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/tandoor-pos/api/internal/service"
	"github.com/tandoor-pos/api/internal/stock"
)

// envelope is the response body shape: {"success": bool, ...}.
type envelope map[string]interface{}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("ERROR: failed to encode JSON response: %v", err)
	}
}

// respond writes a success envelope with the given extra fields.
func respond(w http.ResponseWriter, status int, fields envelope) {
	body := envelope{"success": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, status, body)
}

// respondError writes a failure envelope.
func respondError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"success": false, "message": message})
}

// mapNoRows translates a pgx.ErrNoRows into the given sentinel so
// read-path handlers share respondServiceError's status mapping.
func mapNoRows(err, sentinel error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return sentinel
	}
	return err
}

// respondServiceError maps service-layer errors onto the HTTP surface.
// Validation failures are 400s with the sentinel's message; stock
// shortfalls additionally carry the item and amounts so the client can
// tell the operator what ran out.
func respondServiceError(w http.ResponseWriter, err error, op string) {
	var ins *stock.InsufficientError
	if errors.As(err, &ins) {
		writeJSON(w, http.StatusBadRequest, envelope{
			"success":   false,
			"message":   ins.Error(),
			"item":      ins.Item,
			"unit":      ins.Unit,
			"required":  ins.Required.String(),
			"available": ins.Available.String(),
			"shortfall": ins.Shortfall().String(),
		})
		return
	}

	switch {
	case errors.Is(err, service.ErrBillNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrStockItemMissing):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrEmptyItems),
		errors.Is(err, service.ErrInvalidOrderType),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidMenuItemID),
		errors.Is(err, service.ErrInvalidVariationID),
		errors.Is(err, service.ErrInvalidAddonID),
		errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, service.ErrMenuItemUnavailable),
		errors.Is(err, service.ErrVariationNotFound),
		errors.Is(err, service.ErrAddonNotFound),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPaymentMode),
		errors.Is(err, service.ErrPaymentRequired),
		errors.Is(err, service.ErrUnderpaid),
		errors.Is(err, service.ErrBillNotDraft),
		errors.Is(err, service.ErrBillNotPending),
		errors.Is(err, service.ErrOrderNotRunning):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("ERROR: %s: %v", op, err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
