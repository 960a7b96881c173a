package validators

import (
	"encoding/json"
	"io"
	"net/http"

	pkgerrors "github.com/ecoeats/mealplanner/pkg/errors"
	"github.com/ecoeats/mealplanner/pkg/validation"
)

const maxBodyBytes = 1 << 20

// DecodeJSONBody decodes the request body into dest and validates it. Unknown
// fields are ignored since clients send server-side bookkeeping back verbatim.
func DecodeJSONBody(r *http.Request, dest any) error {
	defer func() {
		_, _ = io.Copy(io.Discard, r.Body)
	}()
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request body").WithDetails(map[string]any{"error": err.Error()})
	}
	return validation.Struct(dest)
}
