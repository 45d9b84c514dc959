package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"storefront/pkg/logger"
)

const msgError = "Error"

var validate = validator.New(validator.WithRequiredStructEnabled())

// envelope is the body of every API response.
type envelope struct {
	Response interface{} `json:"response"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Response: payload})
}

func ok(w http.ResponseWriter, payload interface{}) {
	writeJSON(w, http.StatusOK, payload)
}

func conflict(w http.ResponseWriter, payload interface{}) {
	writeJSON(w, http.StatusConflict, payload)
}

func badRequest(w http.ResponseWriter, log logger.Logger, r *http.Request, msg string, err error) {
	fields := map[string]interface{}{"path": r.URL.Path}
	if err != nil {
		fields["error"] = err.Error()
	}
	log.WarnContext(r.Context(), msg, fields)
	writeJSON(w, http.StatusBadRequest, msg)
}

// decodeAndValidate reads a JSON body into dst and runs its validate tags.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return err
	}
	return validate.Struct(dst)
}

// validationMessage flattens validator errors into field names.
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "Invalid request body"
	}
	msg := "Invalid fields:"
	for _, fe := range verrs {
		msg += " " + fe.Field() + "(" + fe.Tag() + ")"
	}
	return msg
}

func pathInt(r *http.Request, name string) (int, error) {
	return strconv.Atoi(r.PathValue(name))
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
