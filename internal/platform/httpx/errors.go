// Package httpx provides HTTP response utilities.
package httpx

import (
	"net/http"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RespondError maps classified domain errors to HTTP responses using
// RFC7807. Unclassified errors (transient datastore failures) become a
// 500 without leaking internals; callers retry the whole operation.
func RespondError(w http.ResponseWriter, err error) {
	kind := shared.KindOf(err)
	reason := shared.ReasonOf(err)
	switch kind {
	case shared.KindNotFound:
		Problem(w, http.StatusNotFound, "Not Found", reason, string(kind))
	case shared.KindInvalidState:
		Problem(w, http.StatusConflict, "Invalid State Transition", reason, string(kind))
	case shared.KindAlreadyConfirmed:
		Problem(w, http.StatusConflict, "Already Confirmed", reason, string(kind))
	case shared.KindRevisionNotAllowed:
		Problem(w, http.StatusConflict, "Revision Not Allowed", reason, string(kind))
	case shared.KindUnknownTier:
		Problem(w, http.StatusUnprocessableEntity, "Unknown Price Tier", reason, string(kind))
	case shared.KindDataIntegrity:
		Problem(w, http.StatusInternalServerError, "Data Integrity Violation", reason, string(kind))
	case shared.KindValidation:
		Problem(w, http.StatusBadRequest, "Validation Failed", reason, string(kind))
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "", "")
	}
}
