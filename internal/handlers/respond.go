package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"friendsvc/internal/apierr"
)

// Every response carries status ("success" or "error"), a message, and an
// endpoint-specific payload.
const (
	statusSuccess = "success"
	statusError   = "error"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, code int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

// writeSuccess merges payload into a success envelope.
func writeSuccess(w http.ResponseWriter, code int, message string, payload envelope) {
	body := envelope{"status": statusSuccess, "message": message}
	for k, v := range payload {
		body[k] = v
	}
	writeJSON(w, code, body)
}

// writeError maps err to its HTTP status. Internal causes are logged and
// replaced with a generic message so store details never leak.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *apierr.Error
	if !errors.As(err, &apiErr) {
		apiErr = apierr.Wrap(apierr.KindInternal, "unexpected error", err)
	}

	if apiErr.Kind == apierr.KindInternal {
		s.log.WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).WithError(apiErr).Error("request failed")
		writeJSON(w, apiErr.Status(), envelope{
			"status":  statusError,
			"message": "internal server error",
		})
		return
	}

	body := envelope{"status": statusError, "message": apiErr.Message}
	if len(apiErr.Fields) > 0 {
		body["errors"] = apiErr.Fields
	}
	writeJSON(w, apiErr.Status(), body)
}

// errorStatus is the plain variant the auth middleware uses before a Server
// is in scope.
func errorStatus(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, envelope{"status": statusError, "message": message})
}

// newValidator builds the request validator, reporting fields by their json
// tag names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// decodeAndValidate decodes the JSON body into dst and runs validation,
// returning a field-level apierr on failure.
func (s *Server) decodeAndValidate(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apierr.New(apierr.KindValidation, "invalid request payload")
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = validationMessage(fe)
			}
			return apierr.Validation(fields)
		}
		return apierr.New(apierr.KindValidation, "invalid request payload")
	}
	return nil
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "eqfield":
		return "does not match " + strings.ToLower(fe.Param())
	default:
		return "is invalid"
	}
}
