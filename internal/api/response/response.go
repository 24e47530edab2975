package response

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dom/blog-backend/internal/domain"
	"github.com/sirupsen/logrus"
)

// Message is the body of every error response and of message-only replies.
type Message struct {
	Message string `json:"message"`
}

func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Message{Message: msg})
}

// ServiceError writes err with the status of its domain kind. Errors that
// carry no kind are logged and reported as a bare 500.
func ServiceError(w http.ResponseWriter, log logrus.FieldLogger, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithField("op", op).WithError(err).Error("request failed")
		Error(w, status, "Internal server error")
		return
	}

	var de *domain.Error
	if errors.As(err, &de) {
		Error(w, status, de.Message)
		return
	}
	Error(w, status, http.StatusText(status))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// DecodeJSON reads the request body into v. On failure it writes the error
// response itself and returns false.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	return decode(w, r, v, false)
}

// DecodeOptionalJSON is DecodeJSON for bodies that may be omitted. An empty
// body leaves v untouched.
func DecodeOptionalJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	return decode(w, r, v, true)
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}, allowEmpty bool) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if allowEmpty && errors.Is(err, io.EOF) {
			return true
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		Error(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}
