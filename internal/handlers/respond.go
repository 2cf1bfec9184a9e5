package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"bus-tracking-services/internal/common/errors"
	"bus-tracking-services/internal/common/validation"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decodeBody validates the request body against schema and decodes it into dst.
func decodeBody(r *http.Request, schema *validation.Validator, dst interface{}) error {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.NewBadRequestError("Failed to read request body")
	}
	if result := schema.Validate(raw); !result.Valid {
		return errors.NewValidationError(result.Error())
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return errors.NewValidationError(err.Error())
	}
	return nil
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.NewValidationError(fmt.Sprintf("%s must be a non-negative integer", name))
	}
	return n, nil
}

func queryBool(r *http.Request, name string) (*bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, errors.NewValidationError(fmt.Sprintf("%s must be a boolean", name))
	}
	return &b, nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, errors.NewValidationError(fmt.Sprintf("%s must be an integer", name))
	}
	return n, nil
}

// pagination reads skip and limit; a zero limit means the listing default.
func pagination(r *http.Request) (skip, limit int, err error) {
	if skip, err = queryInt(r, "skip", 0); err != nil {
		return 0, 0, err
	}
	if limit, err = queryInt(r, "limit", 0); err != nil {
		return 0, 0, err
	}
	return skip, limit, nil
}
