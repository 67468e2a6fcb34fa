// Package validator checks incoming requests against the OpenAPI document.
package validator

import (
	"context"
	"errors"
	"fmt"
	"sync"

	apperrors "brokerage-chat/backend/pkg/errors"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/gorillamux"
	"github.com/gin-gonic/gin"
)

// OpenAPIValidator validates requests against an OpenAPI document
type OpenAPIValidator struct {
	mu         sync.RWMutex
	doc        *openapi3.T
	router     routers.Router
	schemaPath string
}

// NewFromData builds a validator from an in-memory document
func NewFromData(data []byte) (*OpenAPIValidator, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parse OpenAPI document: %w", err)
	}
	v := &OpenAPIValidator{}
	if err := v.install(loader.Context, doc); err != nil {
		return nil, err
	}
	return v, nil
}

// NewFromFile builds a validator from a document on disk; ReloadSchema re-reads it
func NewFromFile(path string) (*OpenAPIValidator, error) {
	v := &OpenAPIValidator{schemaPath: path}
	if err := v.ReloadSchema(); err != nil {
		return nil, err
	}
	return v, nil
}

// ReloadSchema re-reads the document from disk
func (v *OpenAPIValidator) ReloadSchema() error {
	if v.schemaPath == "" {
		return errors.New("validator was not loaded from a file")
	}
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(v.schemaPath)
	if err != nil {
		return fmt.Errorf("load OpenAPI schema from %s: %w", v.schemaPath, err)
	}
	return v.install(loader.Context, doc)
}

func (v *OpenAPIValidator) install(ctx context.Context, doc *openapi3.T) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := doc.Validate(ctx); err != nil {
		return fmt.Errorf("invalid OpenAPI schema: %w", err)
	}
	router, err := gorillamux.NewRouter(doc)
	if err != nil {
		return fmt.Errorf("create OpenAPI router: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.doc = doc
	v.router = router
	return nil
}

// Middleware rejects requests whose parameters or body break the document.
// Routes the document does not describe pass through untouched.
func (v *OpenAPIValidator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		v.mu.RLock()
		router := v.router
		v.mu.RUnlock()

		route, pathParams, err := router.FindRoute(c.Request)
		if err != nil {
			c.Next()
			return
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    c.Request,
			PathParams: pathParams,
			Route:      route,
			Options: &openapi3filter.Options{
				AuthenticationFunc: openapi3filter.NoopAuthenticationFunc,
				MultiError:         false,
			},
		}

		if err := openapi3filter.ValidateRequest(c.Request.Context(), input); err != nil {
			c.Error(apperrors.NewValidationError(describe(err)).Wrap(err))
			c.Abort()
			return
		}

		c.Next()
	}
}

// describe turns a kin-openapi error into a short client-facing message
func describe(err error) string {
	var reqErr *openapi3filter.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.Parameter != nil {
			return fmt.Sprintf("invalid parameter %q: %s", reqErr.Parameter.Name, reqErr.Reason)
		}
		var schemaErr *openapi3.SchemaError
		if errors.As(reqErr.Err, &schemaErr) {
			return "invalid request body: " + schemaErr.Reason
		}
		if reqErr.Reason != "" {
			return "invalid request: " + reqErr.Reason
		}
	}
	return "request does not match the API description"
}
