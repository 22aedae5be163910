package chi

import (
	"github.com/kailas-cloud/showroomdex/internal/domain/search/result"
)

// ErrorCode is a machine-readable error kind.
type ErrorCode string

// Error codes.
const (
	ErrorCodeQueryInvalid  ErrorCode = "QUERY_INVALID"
	ErrorCodeCursorInvalid ErrorCode = "CURSOR_INVALID"
	ErrorCodeIndexNotReady ErrorCode = "INDEX_NOT_READY"
	ErrorCodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	ErrorCodeInternal      ErrorCode = "INTERNAL"
)

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Collection string    `json:"collection,omitempty"`
}

// ListMeta describes how a listing can be continued.
type ListMeta struct {
	NextCursor *string       `json:"nextCursor"`
	HasMore    bool          `json:"hasMore"`
	Paging     result.Paging `json:"paging"`
	Reason     string        `json:"reason,omitempty"`
}

// ListResponse is the body of GET /api/v1/showrooms. Items holds showroom
// cards or markers depending on the fields parameter.
type ListResponse struct {
	Items any      `json:"items"`
	Meta  ListMeta `json:"meta"`
}

// CountMeta describes how a count was computed.
type CountMeta struct {
	Mode          result.CountMode `json:"mode"`
	PrefixesCount int              `json:"prefixesCount"`
}

// CountResponse is the body of GET /api/v1/showrooms/count.
type CountResponse struct {
	Total int       `json:"total"`
	Meta  CountMeta `json:"meta"`
}

// SuggestMeta echoes the effective suggestion parameters.
type SuggestMeta struct {
	Limit int    `json:"limit"`
	Q     string `json:"q"`
}

// SuggestResponse is the body of GET /api/v1/showrooms/suggestions.
type SuggestResponse struct {
	Suggestions []result.Suggestion `json:"suggestions"`
	Meta        SuggestMeta         `json:"meta"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func pageToResponse(p *result.Page) ListResponse {
	resp := ListResponse{
		Meta: ListMeta{HasMore: p.HasMore, Paging: p.Paging, Reason: p.Reason},
	}
	if p.NextCursor != "" {
		c := p.NextCursor
		resp.Meta.NextCursor = &c
	}
	if p.Markers != nil {
		resp.Items = p.Markers
	} else {
		resp.Items = p.Items
	}
	return resp
}
