package scopedauth

import (
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"

	"github.com/auth0/go-scoped-auth/core"
	"github.com/auth0/go-scoped-auth/token"
)

var (
	// ErrUnauthenticated is returned when an operation requires an actor and
	// the current scope has none.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrPanic is matched by errors produced from a recovered panic.
	ErrPanic = errors.New("handler panicked")
)

// ErrorHandler is called when the middleware or the Recoverer cannot complete
// a request. The err can be checked with errors.Is against
// ErrUnauthenticated, token.ErrStorageFailure, core.ErrActionNotFound,
// core.ErrInvocation and ErrPanic.
//
// The default handler returns 401 for ErrUnauthenticated, 404 for
// ErrActionNotFound and 500 for everything else.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// DefaultErrorHandler is the default error handler implementation. If an
// error handler is not provided via the WithErrorHandler option this will be
// used.
func DefaultErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(StatusCode(err))
	_, _ = w.Write([]byte(`{"message":"` + Message(err) + `"}`))
}

// StatusCode maps err to the HTTP status DefaultErrorHandler answers with.
// Framework adapters use it to render errors their own way.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrActionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message returns the client-facing message for err. Internal details are
// never included.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrUnauthenticated):
		return "Authentication is required."
	case errors.Is(err, core.ErrActionNotFound):
		return "Action not found."
	case errors.Is(err, token.ErrStorageFailure):
		return "Credential storage is unavailable."
	default:
		return "Something went wrong while handling the request."
	}
}

// panicError carries a recovered panic value.
type panicError struct {
	value any
}

func (e *panicError) Error() string {
	return fmt.Sprintf("%s: %v", ErrPanic, e.value)
}

func (e *panicError) Is(target error) bool {
	return target == ErrPanic
}

// Unwrap exposes the panic value when it was itself an error.
func (e *panicError) Unwrap() error {
	err, _ := e.value.(error)
	return err
}

// Recoverer is the top-level exception boundary of an HTTP stack. A panic
// escaping the wrapped handler is turned into an error and passed to the
// ErrorHandler. A failure raised while the ErrorHandler itself is running is
// answered with a bare 500 instead of re-entering the handler.
type Recoverer struct {
	errorHandler ErrorHandler
	logger       Logger
}

// NewRecoverer returns a Recoverer using h, or DefaultErrorHandler when h is
// nil. logger may be nil.
func NewRecoverer(h ErrorHandler, logger Logger) *Recoverer {
	if h == nil {
		h = DefaultErrorHandler
	}
	return &Recoverer{errorHandler: h, logger: logger}
}

// Wrap returns next guarded by the boundary.
func (rc *Recoverer) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := &boundary{rc: rc}
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				b.handle(w, r, &panicError{value: rec})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

const (
	boundaryIdle int32 = iota
	boundaryHandling
)

// boundary is the per-request guard of a Recoverer. Its state moves
// idle -> handling -> idle; the transition out of idle is a CAS so that a
// second failure observed while handling never runs the ErrorHandler again.
type boundary struct {
	rc    *Recoverer
	state atomic.Int32
}

func (b *boundary) handle(w http.ResponseWriter, r *http.Request, err error) {
	if !b.state.CompareAndSwap(boundaryIdle, boundaryHandling) {
		if b.rc.logger != nil {
			b.rc.logger.Error("failure while handling a failure, writing bare 500",
				"error", err,
				"method", r.Method,
				"path", r.URL.Path)
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	defer b.state.Store(boundaryIdle)
	defer func() {
		if rec := recover(); rec != nil {
			b.handle(w, r, &panicError{value: rec})
		}
	}()

	if b.rc.logger != nil {
		b.rc.logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path)
	}
	b.rc.errorHandler(w, r, err)
}
