package scopedauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/auth0/go-scoped-auth/core"
)

// ActionHandler exposes a Core over HTTP. The action name is taken from the
// "action" path value, the JSON request body (optional) becomes the params
// and the result is written as JSON. Errors go to errorHandler, or to
// DefaultErrorHandler when it is nil.
//
// Example:
//
//	mux.Handle("POST /actions/{action}", m.Handler(scopedauth.ActionHandler(chain, nil)))
func ActionHandler(c core.Core, errorHandler ErrorHandler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		action := r.PathValue("action")

		params := core.Params{}
		if r.Body != nil {
			// An empty body, chunked or not, means no params.
			err := json.NewDecoder(r.Body).Decode(&params)
			if err != nil && !errors.Is(err, io.EOF) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = fmt.Fprintf(w, `{"message":%q}`, "Request body must be a JSON object.")
				return
			}
			if params == nil {
				params = core.Params{}
			}
		}

		result, err := c.Call(r.Context(), action, params)
		if err != nil {
			errorHandler(w, r, err)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"result": result})
	})
}
