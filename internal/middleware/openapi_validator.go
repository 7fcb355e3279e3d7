package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"library-client/internal/devapi"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
)

// ValidatorConfig selects the API document incoming requests are checked against.
type ValidatorConfig struct {
	Enabled bool
	// Document is the OpenAPI source; nil means the embedded library document
	Document []byte
	// DocumentPath, when set, is read instead of Document
	DocumentPath string
	// Exempt lists path prefixes served outside the documented API
	Exempt []string
}

// DefaultValidatorConfig checks requests against the embedded library
// document everywhere except production.
func DefaultValidatorConfig(environment string) *ValidatorConfig {
	return &ValidatorConfig{
		Enabled: environment != "production" && environment != "prod",
		Exempt:  []string{"/health", "/metrics", "/analytics"},
	}
}

// Contract matches requests to the operations of a library API document.
type Contract struct {
	router routers.Router
	exempt []string
}

// RejectedRequest is returned by Check for a request the document does not allow.
type RejectedRequest struct {
	Status int
	Detail string
	// Field names the body property at fault, when there is one
	Field string
}

func (e *RejectedRequest) Error() string {
	if e.Field != "" {
		return e.Field + ": " + e.Detail
	}
	return e.Detail
}

var errNoToken = errors.New("no token in Authorization header")

// LoadContract parses and validates the configured document.
func LoadContract(cfg *ValidatorConfig) (*Contract, error) {
	loader := openapi3.NewLoader()

	var (
		doc *openapi3.T
		err error
	)
	switch {
	case cfg.DocumentPath != "":
		doc, err = loader.LoadFromFile(cfg.DocumentPath)
	case len(cfg.Document) > 0:
		doc, err = loader.LoadFromData(cfg.Document)
	default:
		doc, err = loader.LoadFromData(devapi.OpenAPISpec)
	}
	if err != nil {
		return nil, fmt.Errorf("load api document: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid api document: %w", err)
	}

	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("route api document: %w", err)
	}
	return &Contract{router: router, exempt: cfg.Exempt}, nil
}

// Exempt reports whether path is outside the documented API.
func (c *Contract) Exempt(path string) bool {
	for _, prefix := range c.exempt {
		if path == prefix || strings.HasPrefix(path, strings.TrimSuffix(prefix, "/")+"/") {
			return true
		}
	}
	return false
}

// Check validates the path parameters, query, token presence and JSON body
// of r against its documented operation. The body stays readable afterwards.
func (c *Contract) Check(r *http.Request) error {
	route, params, err := c.router.FindRoute(r)
	if err != nil {
		if errors.Is(err, routers.ErrMethodNotAllowed) {
			return &RejectedRequest{Status: http.StatusMethodNotAllowed, Detail: fmt.Sprintf("Method %q not allowed.", r.Method)}
		}
		return &RejectedRequest{Status: http.StatusNotFound, Detail: fmt.Sprintf("Request validation failed: %s %s is not part of the library API", r.Method, r.URL.Path)}
	}

	err = openapi3filter.ValidateRequest(r.Context(), &openapi3filter.RequestValidationInput{
		Request:    r,
		PathParams: params,
		Route:      route,
		Options: &openapi3filter.Options{
			AuthenticationFunc: requireTokenHeader,
		},
	})
	if err == nil {
		return nil
	}
	return rejection(err)
}

// requireTokenHeader only checks that a token is present; TokenAuth resolves it.
func requireTokenHeader(_ context.Context, in *openapi3filter.AuthenticationInput) error {
	if in.SecuritySchemeName != "tokenAuth" {
		return fmt.Errorf("unsupported security scheme %q", in.SecuritySchemeName)
	}
	if _, ok := tokenFromHeader(in.RequestValidationInput.Request.Header.Get("Authorization")); !ok {
		return errNoToken
	}
	return nil
}

func rejection(err error) *RejectedRequest {
	var secErr *openapi3filter.SecurityRequirementsError
	if errors.As(err, &secErr) {
		return &RejectedRequest{Status: http.StatusUnauthorized, Detail: "Authentication credentials were not provided."}
	}

	rejected := &RejectedRequest{Status: http.StatusBadRequest}
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) && reqErr.Parameter != nil {
		rejected.Field = reqErr.Parameter.Name
	}
	var schemaErr *openapi3.SchemaError
	if errors.As(err, &schemaErr) {
		if pointer := schemaErr.JSONPointer(); len(pointer) > 0 && rejected.Field == "" {
			rejected.Field = strings.Join(pointer, ".")
		}
		rejected.Detail = "Request validation failed: " + schemaErr.Reason
		return rejected
	}
	if reqErr != nil && reqErr.Reason != "" {
		rejected.Detail = "Request validation failed: " + reqErr.Reason
		return rejected
	}
	rejected.Detail = "Request validation failed: " + err.Error()
	return rejected
}

// Middleware rejects requests Check refuses before they reach next.
func (c *Contract) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c.Exempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		err := c.Check(r)
		if err == nil {
			next.ServeHTTP(w, r)
			return
		}

		var rejected *RejectedRequest
		if !errors.As(err, &rejected) {
			rejected = &RejectedRequest{Status: http.StatusBadRequest, Detail: err.Error()}
		}
		slog.Warn("request rejected by api document",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rejected.Status),
			slog.String("field", rejected.Field),
			slog.String("reason", rejected.Detail))
		writeRejection(w, rejected)
	})
}

// OpenAPIValidator returns the request checking middleware for cfg. A
// disabled config or a document that cannot be loaded passes requests through.
func OpenAPIValidator(cfg *ValidatorConfig) func(http.Handler) http.Handler {
	passThrough := func(next http.Handler) http.Handler { return next }
	if cfg == nil || !cfg.Enabled {
		return passThrough
	}

	contract, err := LoadContract(cfg)
	if err != nil {
		slog.Error("request validation disabled", slog.String("error", err.Error()))
		return passThrough
	}
	slog.Info("request validation enabled", slog.Int("exempt_prefixes", len(cfg.Exempt)))
	return contract.Middleware
}

func writeRejection(w http.ResponseWriter, rejected *RejectedRequest) {
	body := map[string]string{"detail": rejected.Detail}
	if rejected.Field != "" {
		body["field"] = rejected.Field
	}
	w.Header().Set("Content-Type", "application/json")
	if rejected.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Token")
	}
	w.WriteHeader(rejected.Status)
	_ = json.NewEncoder(w).Encode(body)
}
