package templates

import (
	"context"

	"hbpr-validation-service/internal/domain/entity"
	"hbpr-validation-service/internal/usecase"
	"hbpr-validation-service/pkg/hbpr"
	"hbpr-validation-service/pkg/logger"
)

// HBPRDumpHandler handles dumps of primary HBPR records
type HBPRDumpHandler struct {
	dumpProcessor *usecase.DumpProcessor
	logger        logger.Logger
}

// NewHBPRDumpHandler creates a new HBPR dump handler
func NewHBPRDumpHandler(dumpProcessor *usecase.DumpProcessor, logger logger.Logger) *HBPRDumpHandler {
	return &HBPRDumpHandler{
		dumpProcessor: dumpProcessor,
		logger:        logger,
	}
}

// CanHandle accepts any dump with an HBPR header or placeholder stub
func (h *HBPRDumpHandler) CanHandle(content string) bool {
	return hbpr.ContainsRecords(content)
}

// Process stores and validates the records of the dump
func (h *HBPRDumpHandler) Process(ctx context.Context, dump *entity.Dump) error {
	if err := h.dumpProcessor.ProcessDump(ctx, dump.Content, dump.ID); err != nil {
		h.logger.Error("Failed to process HBPR dump", "dumpId", dump.ID, "error", err)
		return err
	}
	return nil
}
