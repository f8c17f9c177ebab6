package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/domain/repository"
	"hbpr-validation-service/pkg/logger"
	"hbpr-validation-service/pkg/sentinel"
)

// DumpOrchestrator accepts dumps from every source and routes them to the
// handler that understands their headers
type DumpOrchestrator struct {
	dumpRepo repository.DumpRepository
	router   HandlerRouter
	logger   logger.Logger
}

// NewDumpOrchestrator creates a new dump orchestrator
func NewDumpOrchestrator(
	dumpRepo repository.DumpRepository,
	router HandlerRouter,
	logger logger.Logger,
) *DumpOrchestrator {
	return &DumpOrchestrator{
		dumpRepo: dumpRepo,
		router:   router,
		logger:   logger,
	}
}

// Submit stores a new dump, processes it right away and returns the stored
// dump with its final status
func (o *DumpOrchestrator) Submit(ctx context.Context, source, sourceRef, content string) (*entity.Dump, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("empty dump: %w", sentinel.ErrInvalidInput)
	}

	dump := entity.NewDump(source, sourceRef, content, time.Now())
	if err := o.dumpRepo.Save(ctx, dump); err != nil {
		return nil, fmt.Errorf("failed to save dump: %w", err)
	}

	if err := o.ProcessDump(ctx, dump); err != nil {
		return nil, err
	}

	return o.dumpRepo.FindByID(ctx, dump.ID)
}

// ProcessDump processes a single stored dump
func (o *DumpOrchestrator) ProcessDump(ctx context.Context, dump *entity.Dump) error {
	handler := o.router.GetHandler(dump.Content)
	if handler == nil {
		o.logger.Debug("No handler found for dump",
			"dumpId", dump.ID,
			"source", dump.Source)

		// not an error, the text holds nothing we understand
		return o.dumpRepo.MarkAsProcessed(
			ctx,
			dump.ID,
			entity.StatusSkipped,
			"none",
			"",
			"No matching handler found",
			map[string]interface{}{
				"source": dump.Source,
				"reason": "no_record_headers",
			},
		)
	}

	handlerType := fmt.Sprintf("%T", handler)
	o.logger.Info("Processing dump with handler",
		"dumpId", dump.ID,
		"handler", handlerType,
		"source", dump.Source)

	if err := o.dumpRepo.UpdateStatus(ctx, dump.ID, entity.StatusProcessing, time.Now()); err != nil {
		return fmt.Errorf("failed to update status: %w", err)
	}

	if err := handler.Process(ctx, dump); err != nil {
		o.logger.Error("Handler failed to process dump",
			"dumpId", dump.ID,
			"handler", handlerType,
			"error", err)

		// keep going with the other dumps
		if markErr := o.dumpRepo.MarkAsProcessed(ctx, dump.ID, entity.StatusFailed, handlerType, "", err.Error(), nil); markErr != nil {
			o.logger.Error("Failed to mark dump as failed", "dumpId", dump.ID, "error", markErr)
		}
		return nil
	}

	o.logger.Info("Dump processed successfully",
		"dumpId", dump.ID,
		"handler", handlerType)

	return nil
}

// ProcessPendingDumps processes dumps that were missed or interrupted
func (o *DumpOrchestrator) ProcessPendingDumps(ctx context.Context) error {
	if err := o.dumpRepo.ResetProcessingDumps(ctx); err != nil {
		o.logger.Error("Failed to reset stale dumps", "error", err)
	}

	dumps, err := o.dumpRepo.FindUnprocessed(ctx, 100)
	if err != nil {
		return fmt.Errorf("failed to find unprocessed dumps: %w", err)
	}

	if len(dumps) == 0 {
		return nil
	}

	o.logger.Info("Processing pending dumps", "count", len(dumps))

	for _, dump := range dumps {
		if err := o.ProcessDump(ctx, dump); err != nil {
			o.logger.Error("Failed to process pending dump",
				"dumpId", dump.ID,
				"error", err)
		}
	}

	return nil
}
