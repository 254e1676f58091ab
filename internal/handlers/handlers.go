package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"investbook/internal/apperr"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

var errInvalidPayload = apperr.Validation("invalid_payload", "request body is not valid JSON")

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": code, "message": message})
}

// respondErr maps the error taxonomy onto status codes. Anything outside it
// is logged and hidden behind a generic 500.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		log.Printf("[%s] %s %s: %v", chimiddleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
		respondError(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperr.KindValidation:
		status = http.StatusBadRequest
	case apperr.KindNotFound:
		status = http.StatusNotFound
	case apperr.KindAuth:
		status = http.StatusUnauthorized
	case apperr.KindConflict:
		status = http.StatusConflict
	}
	if appErr.Err != nil {
		log.Printf("[%s] %s %s: %v", chimiddleware.GetReqID(r.Context()), r.Method, r.URL.Path, appErr)
	}
	respondJSON(w, status, map[string]string{"error": appErr.Code, "message": appErr.Message})
}

func decodeJSON(r *http.Request, dest any) error {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		return apperr.Wrap(errInvalidPayload, err)
	}
	return nil
}

func logCacheErr(err error) {
	log.Printf("cache: %v", err)
}
