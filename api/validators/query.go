package validators

import (
	"net/http"
	"strings"

	pkgerrors "github.com/ecoeats/mealplanner/pkg/errors"
)

// QueryString returns the trimmed query value or defaultVal when absent.
func QueryString(r *http.Request, key, defaultVal string) string {
	if raw := strings.TrimSpace(r.URL.Query().Get(key)); raw != "" {
		return raw
	}
	return defaultVal
}

// RequiredQuery returns the trimmed query value or a VALIDATION_ERROR naming it.
func RequiredQuery(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, key+" is required").WithDetails(map[string]any{"field": key})
	}
	return raw, nil
}
