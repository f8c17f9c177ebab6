package usecase

import (
	"context"

	"hbpr-validation-service/internal/domain/entity"
)

// DumpHandler defines the interface for dump format handlers
type DumpHandler interface {
	// CanHandle determines if this handler understands the dump content
	CanHandle(content string) bool

	// Process ingests the dump
	Process(ctx context.Context, dump *entity.Dump) error
}

// HandlerRouter routes dumps to the first handler that accepts them
type HandlerRouter interface {
	Register(handler DumpHandler)
	GetHandler(content string) DumpHandler
}
