package router

import (
	"fmt"

	"hbpr-validation-service/internal/usecase"
	"hbpr-validation-service/pkg/logger"
)

// HeaderRouter routes dumps by their record headers. Handlers are tried in
// registration order.
type HeaderRouter struct {
	handlers []usecase.DumpHandler
	logger   logger.Logger
}

// NewHeaderRouter creates a new header router
func NewHeaderRouter(logger logger.Logger) *HeaderRouter {
	return &HeaderRouter{
		handlers: make([]usecase.DumpHandler, 0),
		logger:   logger,
	}
}

// Register appends a handler
func (r *HeaderRouter) Register(handler usecase.DumpHandler) {
	r.handlers = append(r.handlers, handler)
	r.logger.Info("Registered handler", "handler", fmt.Sprintf("%T", handler))
}

// GetHandler returns the first handler accepting content, or nil
func (r *HeaderRouter) GetHandler(content string) usecase.DumpHandler {
	for _, handler := range r.handlers {
		if handler.CanHandle(content) {
			return handler
		}
	}
	return nil
}
