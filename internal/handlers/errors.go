package handlers

import (
	"errors"
	"net/http"

	"github.com/juniorxam/vacina/internal/auth"
	"github.com/juniorxam/vacina/internal/models"
	pkgauth "github.com/juniorxam/vacina/pkg/auth"
	pkghttp "github.com/juniorxam/vacina/pkg/http"
)

// writeServiceError maps service sentinels to HTTP replies. Client-side
// errors echo the service message; anything unexpected is a generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	var pwErr *pkgauth.PasswordValidationError

	switch {
	case errors.Is(err, models.ErrUnauthorized):
		pkghttp.WriteUnauthorized(w, "Authentication failed")
	case errors.Is(err, models.ErrForbidden):
		pkghttp.WriteForbidden(w, "Insufficient access tier")
	case errors.Is(err, models.ErrNotFound):
		pkghttp.WriteNotFound(w, "Resource not found")
	case errors.Is(err, models.ErrDuplicateDose), errors.Is(err, models.ErrConflict):
		pkghttp.WriteConflict(w, err.Error())
	case errors.Is(err, models.ErrBadRequest),
		errors.Is(err, models.ErrInvalidCPF),
		errors.Is(err, models.ErrInvalidTier),
		errors.Is(err, models.ErrSamePassword),
		errors.As(err, &pwErr):
		pkghttp.WriteBadRequest(w, err.Error())
	default:
		pkghttp.WriteInternalError(w, "Internal server error")
	}
}

// actor returns the caller identity set by AuthMiddleware, or nil.
func actor(r *http.Request) *models.Principal {
	claims := auth.GetUserFromContext(r)
	if claims == nil {
		return nil
	}
	return auth.Principal(claims)
}
