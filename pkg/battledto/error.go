package battledto

// Error codes returned by the view bridge.
const (
	CodeBadRequest       = "bad_request"
	CodeInvalidMove      = "invalid_move"
	CodeInvalidPromotion = "invalid_promotion"
	CodeEmptyHistory     = "empty_history"
	CodeNotFound         = "not_found"
	CodeInternal         = "internal"
)

type DomainError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (e DomainError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return "battle service error"
}

// ErrorResponse pairs a rejection with the unchanged state.
type ErrorResponse struct {
	Error DomainError `json:"error"`
	State *State      `json:"state,omitempty"`
}
