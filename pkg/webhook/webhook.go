// Package webhook implements the AI webhook boundary: dispatching a finished
// ComplianceRecord to an external analysis service, and parsing its
// asynchronous callback, per SPEC_FULL.md's AI-integration component.
package webhook // import "github.com/propplyai/propply-ai/pkg/webhook"

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/golang/glog"

	"github.com/propplyai/propply-ai/pkg/model"
)

const defaultTimeout = 15 * time.Second

// Dispatcher POSTs a ComplianceRecord's JSON to a configured webhook URL.
type Dispatcher struct {
	httpClient *http.Client
	url        string
}

// NewDispatcher builds a Dispatcher. An empty url makes Send a no-op, so
// callers can wire a Dispatcher unconditionally even when the integration
// is disabled.
func NewDispatcher(url string) *Dispatcher {
	return &Dispatcher{httpClient: &http.Client{Timeout: defaultTimeout}, url: url}
}

// Send POSTs record as JSON to the dispatcher's URL. A disabled dispatcher
// (empty URL) returns nil immediately.
func (d *Dispatcher) Send(ctx context.Context, record model.ComplianceRecord) error {
	if d.url == "" {
		return nil
	}

	body, err := json.Marshal(record)
	if err != nil {
		return model.NewError(model.ErrorKindDecode, "marshaling compliance record for webhook", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
	if err != nil {
		return model.NewError(model.ErrorKindRemote, "building webhook request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return model.NewError(model.ErrorKindNetwork, "webhook request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		log.Warningf("webhook: %s returned status %d", d.url, resp.StatusCode)
		return model.NewError(model.ErrorKindRemote, fmt.Sprintf("webhook status %d", resp.StatusCode), nil)
	}
	return nil
}

// AnalysisResult is the asynchronous callback payload the AI service posts
// back once it has processed a dispatched ComplianceRecord.
type AnalysisResult struct {
	PropertyID string    `json:"property_id"`
	Summary    string    `json:"summary"`
	Risks      []string  `json:"risks,omitempty"`
	ReceivedAt time.Time `json:"received_at"`
}

// CallbackHandler parses an AnalysisResult callback body and hands it to fn.
type CallbackHandler struct {
	OnResult func(AnalysisResult)
}

// ServeHTTP implements http.Handler so CallbackHandler can be mounted
// directly on an httpapi router.
func (h *CallbackHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var result AnalysisResult
	if err := json.NewDecoder(r.Body).Decode(&result); err != nil {
		http.Error(w, "invalid callback body", http.StatusBadRequest)
		return
	}
	result.ReceivedAt = time.Now().UTC()

	if h.OnResult != nil {
		h.OnResult(result)
	}
	w.WriteHeader(http.StatusAccepted)
}
