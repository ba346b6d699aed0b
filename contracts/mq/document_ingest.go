package mq

import "time"

// RoutingKeyDocumentIngest is the task routing key consumed by the ingest worker.
const RoutingKeyDocumentIngest = "document.ingest"

// DocumentIngestPayload asks the worker to run the ingestion pipeline for one
// document. Published by the upload API and by the mailbox scheduler.
type DocumentIngestPayload struct {
	DocumentID int       `json:"document_id"`
	UserID     int       `json:"user_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}
