package validators

import (
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/swissvfg/bauprodukt-backend/pkg/errors"
)

// RequireQuery returns the trimmed query parameter or a validation error
// naming the missing field.
func RequireQuery(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(r.URL.Query().Get(name))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("query parameter %q is required", name))
	}
	return value, nil
}
