package api

import (
	"errors"
	"net/http"

	"github.com/buildsight/marksearch/pkg/httputil"
	"github.com/buildsight/marksearch/pkg/observability"
	"github.com/buildsight/marksearch/pkg/savedsearch"
	"github.com/buildsight/marksearch/pkg/search"
	"github.com/buildsight/marksearch/pkg/storage"
)

// writeError maps service errors onto the HTTP error envelope: validation
// to 400, missing resources to 404, the saved-search cap to 409 and
// everything else to 500.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if v, ok := search.AsValidationError(err); ok {
		httputil.WriteValidationError(w, v.Message, v.Fields)
		return
	}
	switch {
	case errors.Is(err, storage.ErrComponentNotFound):
		httputil.WriteNotFound(w, "component not found")
	case errors.Is(err, savedsearch.ErrNotFound):
		httputil.WriteNotFound(w, "saved search not found")
	case errors.Is(err, savedsearch.ErrCapacityExceeded):
		httputil.WriteConflict(w, err.Error())
	default:
		s.logger.WithError(err).
			WithField("request_id", observability.GetRequestID(r.Context())).
			Error("request failed")
		httputil.WriteInternalError(w, err)
	}
}
