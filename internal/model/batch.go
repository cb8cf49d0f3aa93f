package model

type BatchItemStatus string

const (
	BatchItemSuccess   BatchItemStatus = "success"
	BatchItemFailed    BatchItemStatus = "failed"
	BatchItemCancelled BatchItemStatus = "cancelled"
)

type BatchItemResult struct {
	FileID string          `json:"file_id"`
	Status BatchItemStatus `json:"status"`
	Reason string          `json:"reason,omitempty"`
}

// BatchProgress is delivered after each processed item. Processed counts
// successes and failures; cancelled items are never processed.
type BatchProgress struct {
	Processed int             `json:"processed"`
	Total     int             `json:"total"`
	Last      BatchItemResult `json:"last"`
}

// BatchSummary always satisfies Succeeded+Failed+Cancelled == Total.
type BatchSummary struct {
	Operation string            `json:"operation"`
	Total     int               `json:"total"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Cancelled int               `json:"cancelled"`
	Items     []BatchItemResult `json:"items"`
}
