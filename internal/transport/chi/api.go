// Routing and parameter binding for the operations in api/openapi.yaml, in the layout
// oapi-codegen produces for chi-server (config: api/oapi-codegen.yaml).

package chi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface is the set of HTTP operations the API exposes.
type ServerInterface interface {
	// SearchPosts handles POST /search.
	SearchPosts(w http.ResponseWriter, r *http.Request)
	// QueryPosts handles GET /search.
	QueryPosts(w http.ResponseWriter, r *http.Request, params QueryPostsParams)
	// HealthCheck handles GET /health.
	HealthCheck(w http.ResponseWriter, r *http.Request)
	// Reindex handles POST /admin/reindex.
	Reindex(w http.ResponseWriter, r *http.Request, params ReindexParams)
	// Metrics handles GET /metrics.
	Metrics(w http.ResponseWriter, r *http.Request)
}

// QueryPostsParams are the query parameters of GET /search.
type QueryPostsParams struct {
	Q    string  `form:"q" json:"q"`
	Mode *string `form:"mode,omitempty" json:"mode,omitempty"`
	K    *int    `form:"k,omitempty" json:"k,omitempty"`
}

// ReindexParams are the query parameters of POST /admin/reindex.
type ReindexParams struct {
	Warm *bool `form:"warm,omitempty" json:"warm,omitempty"`
}

// InvalidParamFormatError reports a query parameter that failed to bind.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error { return e.Err }

// ChiServerOptions configure HandlerWithOptions.
type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []func(http.Handler) http.Handler
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates an http.Handler with routing matching the API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerWithOptions registers the API routes on options.BaseRouter (a new router when nil).
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := serverInterfaceWrapper{
		handler:            si,
		handlerMiddlewares: options.Middlewares,
		errorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Post(options.BaseURL+"/search", wrapper.SearchPosts)
		r.Get(options.BaseURL+"/search", wrapper.QueryPosts)
		r.Get(options.BaseURL+"/health", wrapper.HealthCheck)
		r.Post(options.BaseURL+"/admin/reindex", wrapper.Reindex)
		r.Get(options.BaseURL+"/metrics", wrapper.Metrics)
	})
	return r
}

// serverInterfaceWrapper binds parameters and applies per-handler middlewares.
type serverInterfaceWrapper struct {
	handler            ServerInterface
	handlerMiddlewares []func(http.Handler) http.Handler
	errorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

func (siw *serverInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, h http.HandlerFunc) {
	var handler http.Handler = h
	for _, middleware := range siw.handlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

func (siw *serverInterfaceWrapper) SearchPosts(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.handler.SearchPosts)
}

func (siw *serverInterfaceWrapper) QueryPosts(w http.ResponseWriter, r *http.Request) {
	var params QueryPostsParams
	query := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, true, "q", query, &params.Q); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "q", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "mode", query, &params.Mode); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "mode", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "k", query, &params.K); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "k", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.handler.QueryPosts(w, r, params)
	})
}

func (siw *serverInterfaceWrapper) HealthCheck(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.handler.HealthCheck)
}

func (siw *serverInterfaceWrapper) Reindex(w http.ResponseWriter, r *http.Request) {
	var params ReindexParams
	if err := runtime.BindQueryParameter("form", true, false, "warm", r.URL.Query(), &params.Warm); err != nil {
		siw.errorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "warm", Err: err})
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.handler.Reindex(w, r, params)
	})
}

func (siw *serverInterfaceWrapper) Metrics(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.handler.Metrics)
}
