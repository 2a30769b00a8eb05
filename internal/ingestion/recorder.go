package ingestion

// Recorder receives ingestion telemetry. *observability.Metrics satisfies it.
type Recorder interface {
	RecordEventsStored(n int)
	RecordIngestError(errorType string)
	RecordReconnect()
}

// Ingest error types
const (
	ErrorTypeDecode    = "decode"
	ErrorTypeDuplicate = "duplicate"
	ErrorTypeStore     = "store"
	ErrorTypeDial      = "dial"
)

type nopRecorder struct{}

func (nopRecorder) RecordEventsStored(int)   {}
func (nopRecorder) RecordIngestError(string) {}
func (nopRecorder) RecordReconnect()         {}
