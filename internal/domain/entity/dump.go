package entity

import (
	"time"

	"github.com/google/uuid"
)

// Dump Process Status
const (
	StatusPending    = "PENDING"
	StatusProcessing = "PROCESSING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
	StatusSkipped    = "SKIPPED"
)

// Dump sources
const (
	SourceAPI   = "api"
	SourceInbox = "inbox"
	SourceCLI   = "cli"
)

// Dump is one captured host transmission waiting to be segmented
type Dump struct {
	ID               string                 `bson:"_id" json:"id"`
	Source           string                 `bson:"source" json:"source"`
	SourceRef        string                 `bson:"sourceRef,omitempty" json:"source_ref,omitempty"`
	Content          string                 `bson:"content" json:"-"`
	ReceivedAt       time.Time              `bson:"receivedAt" json:"received_at"`
	ProcessedAt      time.Time              `bson:"processedAt" json:"processed_at"`
	ProcessStatus    string                 `bson:"processStatus" json:"process_status"`
	ProcessorType    string                 `bson:"processorType" json:"processor_type"`
	ProcessStartedAt time.Time              `bson:"processStartedAt" json:"process_started_at"`
	ProcessSteps     ProcessSteps           `bson:"processSteps" json:"process_steps"`
	FlightID         string                 `bson:"flightId,omitempty" json:"flight_id,omitempty"`
	ErrorDetail      string                 `bson:"errorDetail,omitempty" json:"error_detail,omitempty"`
	ExtractedData    map[string]interface{} `bson:"extractedData,omitempty" json:"extracted_data,omitempty"`
}

// ProcessSteps tracks how far a dump got through the pipeline
type ProcessSteps struct {
	BlocksSegmented   int `bson:"blocksSegmented" json:"blocks_segmented"`
	PlaceholdersFound int `bson:"placeholdersFound" json:"placeholders_found"`
	RecordsValidated  int `bson:"recordsValidated" json:"records_validated"`
	RecordsInvalid    int `bson:"recordsInvalid" json:"records_invalid"`
	Diagnostics       int `bson:"diagnostics" json:"diagnostics"`
}

// NewDump creates a pending dump with a fresh id
func NewDump(source, sourceRef, content string, receivedAt time.Time) *Dump {
	return &Dump{
		ID:            uuid.NewString(),
		Source:        source,
		SourceRef:     sourceRef,
		Content:       content,
		ReceivedAt:    receivedAt,
		ProcessStatus: StatusPending,
	}
}
