package httphandler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ericfisherdev/mergeboard/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it with the given status code.
// If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the JSON representation of the health endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// CredentialResponse reports credential presence without its value.
type CredentialResponse struct {
	Configured bool   `json:"configured"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// SaveCredentialRequest is the JSON body for the save credential endpoint.
type SaveCredentialRequest struct {
	Token string `json:"token"`
}

// PullResponse is the JSON representation of one aggregated pull request.
type PullResponse struct {
	Number     int    `json:"number"`
	Repository string `json:"repository"`
	Title      string `json:"title"`
	Author     string `json:"author"`
	URL        string `json:"url"`
	State      string `json:"state"`
	IsDraft    bool   `json:"is_draft"`
	BodyHTML   string `json:"body_html"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

// FetchResponse is the JSON representation of one aggregation result.
type FetchResponse struct {
	Records   []PullResponse `json:"records"`
	FromCache bool           `json:"from_cache"`
	CachedAt  string         `json:"cached_at,omitempty"`
	Truncated bool           `json:"truncated"`
}

// CacheStatsResponse is the JSON representation of the cache snapshot.
type CacheStatsResponse struct {
	Size     int      `json:"size"`
	Capacity int      `json:"capacity"`
	Keys     []string `json:"keys"`
}

// toFetchResponse converts a domain FetchResult to its JSON response
// representation, rendering each record's markdown body to sanitized HTML.
func toFetchResponse(result *model.FetchResult) FetchResponse {
	records := make([]PullResponse, 0, len(result.Records))
	for _, pr := range result.Records {
		records = append(records, toPullResponse(pr))
	}

	resp := FetchResponse{
		Records:   records,
		FromCache: result.FromCache,
		Truncated: result.Truncated,
	}
	if !result.CachedAt.IsZero() {
		resp.CachedAt = result.CachedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// toPullResponse converts a domain PullRequest to its JSON representation.
func toPullResponse(pr model.PullRequest) PullResponse {
	return PullResponse{
		Number:     pr.Number,
		Repository: pr.Repository,
		Title:      pr.Title,
		Author:     pr.Author,
		URL:        pr.URL,
		State:      pr.State,
		IsDraft:    pr.IsDraft,
		BodyHTML:   renderMarkdown(pr.Body),
		CreatedAt:  pr.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:  pr.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
