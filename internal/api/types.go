package api

import "fmt"

// placeBidRequest is the bid-submission payload. RequestID lets the server
// deduplicate a retried submission.
type placeBidRequest struct {
	Amount    int64  `json:"amount"`
	RequestID string `json:"requestId"`
}

// errorResponse is the error body shape shared by all endpoints.
type errorResponse struct {
	Message string `json:"message"`
}

// SubmissionError is a bid rejection from the marketplace. The message is
// shown to the user on the confirmation dialog; the candidate is kept so the
// user can adjust and retry.
type SubmissionError struct {
	StatusCode int
	Message    string
}

func (e *SubmissionError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("bid rejected (status %d)", e.StatusCode)
}
