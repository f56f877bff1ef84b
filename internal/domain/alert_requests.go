package domain

// CreateAlertRequest is the raw ingestion payload. Fields stay loosely typed
// so the validator can tell a missing value from a malformed one.
type CreateAlertRequest struct {
	UserID    any     `json:"userId"`
	Lat       any     `json:"lat"`
	Lng       any     `json:"lng"`
	Source    *string `json:"source"`
	Timestamp any     `json:"timestamp"`
	Notes     *string `json:"notes"`
}

type UpdateAlertRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

type ListAlertsRequest struct {
	Limit  int
	UserID string
}
