package templates

import (
	"context"
	"fmt"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/usecase"
	"hbpr-validation-service/pkg/hbpr"
	"hbpr-validation-service/pkg/logger"
)

// CorrectionCommandHandler handles in-flight correction (PR ... PD) dumps.
// It must be registered before HBPRDumpHandler.
type CorrectionCommandHandler struct {
	dumpProcessor *usecase.DumpProcessor
	logger        logger.Logger
}

// NewCorrectionCommandHandler creates a new correction command handler
func NewCorrectionCommandHandler(dumpProcessor *usecase.DumpProcessor, logger logger.Logger) *CorrectionCommandHandler {
	return &CorrectionCommandHandler{
		dumpProcessor: dumpProcessor,
		logger:        logger,
	}
}

// CanHandle accepts dumps carrying at least one PR correction header
func (h *CorrectionCommandHandler) CanHandle(content string) bool {
	return hbpr.IsCorrectionCommand(content)
}

// Process rewrites the correction headers into HBPR headers and ingests
// the result like any other dump
func (h *CorrectionCommandHandler) Process(ctx context.Context, dump *entity.Dump) error {
	translated, err := hbpr.TranslateCorrection(dump.Content)
	if err != nil {
		return fmt.Errorf("failed to translate correction command: %w", err)
	}

	h.logger.Info("Translated correction command", "dumpId", dump.ID)

	if err := h.dumpProcessor.ProcessDump(ctx, translated, dump.ID); err != nil {
		h.logger.Error("Failed to process correction command", "dumpId", dump.ID, "error", err)
		return err
	}
	return nil
}
