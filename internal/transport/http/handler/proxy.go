package handler

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	"github.com/tollgate-ai/tollgate/internal/extractor"
	"github.com/tollgate-ai/tollgate/internal/storage"
	"github.com/tollgate-ai/tollgate/internal/transaction"
)

// statusClientClosedRequest mirrors nginx's non-standard code for a
// client that disconnected mid-exchange. Never sent on the wire, only
// recorded.
const statusClientClosedRequest = 499

// chunkedEnvelope is the single JSON reply used when the upstream
// answered with chunked transfer encoding: the body is drained fully
// and handed back in one piece.
type chunkedEnvelope struct {
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"headers"`
	Content    string      `json:"content"`
}

// Gateway forwards one request to the project's configured upstream
// and schedules the metering capture once the response is done. Route:
// /{project}/{provider}/{path...}, any method.
func (h *Handlers) Gateway(w http.ResponseWriter, r *http.Request) {
	projectSlug := r.PathValue("project")
	providerSlug := r.PathValue("provider")

	project, err := h.resolveProject(projectSlug)
	if errors.Is(err, storage.ErrNotFound) {
		writeJSONError(w, "unknown project: "+projectSlug, http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error("project lookup failed", "project", projectSlug, "error", err)
		writeJSONError(w, "project lookup failed", http.StatusInternalServerError)
		return
	}

	provider := project.FindProvider(providerSlug)
	if provider == nil {
		writeJSONError(w, "unknown provider: "+providerSlug, http.StatusNotFound)
		return
	}

	query := r.URL.Query()
	tags := splitTags(query.Get("tags"))
	modelVersion := query.Get("ai_model_version")
	targetPath := query.Get("target_path")
	query.Del("tags")
	query.Del("ai_model_version")
	query.Del("target_path")

	target, err := buildTarget(provider.APIBase, r.PathValue("path"), targetPath)
	if err != nil {
		writeJSONError(w, "invalid target_path", http.StatusBadRequest)
		return
	}
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSONError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	requestTime := time.Now().UTC()

	upReq, err := http.NewRequestWithContext(r.Context(), r.Method, target, bytes.NewReader(body))
	if err != nil {
		writeJSONError(w, "failed to create upstream request", http.StatusInternalServerError)
		return
	}
	copyRequestHeaders(upReq.Header, r.Header)

	upResp, err := h.client.Do(upReq)
	if err != nil {
		if r.Context().Err() != nil {
			// Client went away; the context cancellation already tore
			// down the upstream call.
			h.metrics.ObserveProxiedRequest(providerSlug, statusClientClosedRequest, time.Since(requestTime))
			h.logger.Info("client disconnected before upstream reply", "target", target)
			return
		}
		h.metrics.ObserveProxiedRequest(providerSlug, http.StatusBadGateway, time.Since(requestTime))
		h.logger.Warn("upstream request failed", "target", target, "error", err)
		writeJSONError(w, "upstream request failed", http.StatusBadGateway)
		return
	}
	defer upResp.Body.Close()

	input := &transaction.Input{
		ProjectID:    project.ID,
		Tags:         tags,
		ModelVersion: modelVersion,
		Request: extractor.Request{
			Method:  r.Method,
			URL:     target,
			Headers: r.Header.Clone(),
			Body:    body,
		},
		RequestTime: requestTime,
	}

	if slices.Contains(upResp.TransferEncoding, "chunked") {
		h.relayChunked(w, r, upResp, input, providerSlug)
		return
	}
	h.relayStream(w, r, upResp, input, providerSlug)
}

// relayChunked drains a chunked upstream body completely and replies
// with one JSON envelope instead of re-streaming it.
func (h *Handlers) relayChunked(w http.ResponseWriter, r *http.Request, upResp *http.Response, input *transaction.Input, providerSlug string) {
	content, err := io.ReadAll(upResp.Body)
	responseTime := time.Now().UTC()
	if err != nil {
		if r.Context().Err() != nil {
			h.metrics.ObserveProxiedRequest(providerSlug, statusClientClosedRequest, responseTime.Sub(input.RequestTime))
			h.logger.Info("client disconnected during upstream read", "target", input.Request.URL)
			return
		}
		h.metrics.ObserveProxiedRequest(providerSlug, http.StatusBadGateway, responseTime.Sub(input.RequestTime))
		writeJSONError(w, "upstream read failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, chunkedEnvelope{
		StatusCode: upResp.StatusCode,
		Headers:    upResp.Header,
		Content:    string(content),
	}, upResp.StatusCode)

	h.metrics.ObserveProxiedRequest(providerSlug, upResp.StatusCode, responseTime.Sub(input.RequestTime))

	input.Response = extractor.Response{
		StatusCode: upResp.StatusCode,
		Headers:    upResp.Header.Clone(),
		Body:       content,
	}
	input.ResponseTime = responseTime
	h.scheduleBuild(input)
}

// relayStream copies the upstream body to the client chunk by chunk,
// flushing each write, while teeing into a bounded capture buffer for
// the background build.
func (h *Handlers) relayStream(w http.ResponseWriter, r *http.Request, upResp *http.Response, input *transaction.Input, providerSlug string) {
	for key, values := range upResp.Header {
		if isHopByHopHeader(key) {
			continue
		}
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	w.WriteHeader(upResp.StatusCode)

	capture := newLimitedCapture(captureLimit)
	tee := io.TeeReader(upResp.Body, capture)

	var out io.Writer = w
	if fl, ok := w.(http.Flusher); ok {
		out = &flushWriter{w: w, fl: fl}
	}

	_, copyErr := io.Copy(out, tee)
	responseTime := time.Now().UTC()
	elapsed := responseTime.Sub(input.RequestTime)

	if copyErr != nil && r.Context().Err() != nil {
		// The response is already partially written; record the
		// disconnect and skip the build.
		h.metrics.ObserveProxiedRequest(providerSlug, statusClientClosedRequest, elapsed)
		h.logger.Info("client disconnected mid-stream", "target", input.Request.URL)
		return
	}
	if copyErr != nil {
		h.logger.Warn("upstream copy failed", "target", input.Request.URL, "error", copyErr)
	}

	h.metrics.ObserveProxiedRequest(providerSlug, upResp.StatusCode, elapsed)

	input.Response = extractor.Response{
		StatusCode: upResp.StatusCode,
		Headers:    upResp.Header.Clone(),
		Body:       capture.Bytes(),
	}
	input.ResponseTime = responseTime
	h.scheduleBuild(input)
}

// scheduleBuild runs the transaction build in a detached goroutine.
// At-most-once: failures are counted and logged, never retried, and
// never affect the already-sent response.
func (h *Handlers) scheduleBuild(input *transaction.Input) {
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				h.metrics.BuilderFailed()
				h.logger.Error("transaction build panicked", "panic", rec)
			}
		}()
		if _, err := h.builder.Build(input); err != nil {
			h.metrics.BuilderFailed()
			h.logger.Warn("transaction build failed", "url", input.Request.URL, "error", err)
			return
		}
		h.metrics.TransactionRecorded()
	}()
}

// buildTarget joins the provider base URL with the proxied path, or
// with an explicit percent-encoded target_path when the path is empty.
func buildTarget(apiBase, path, targetPath string) (string, error) {
	base := strings.TrimRight(apiBase, "/")
	if path == "" && targetPath != "" {
		decoded, err := url.PathUnescape(targetPath)
		if err != nil {
			return "", err
		}
		return base + "/" + strings.TrimLeft(decoded, "/"), nil
	}
	return base + "/" + path, nil
}

// copyRequestHeaders forwards client headers to the upstream request.
// Host and Transfer-Encoding belong to the proxy hop, Content-Length
// is recomputed from the buffered body. Websocket upgrade headers pass
// through untouched.
func copyRequestHeaders(dst, src http.Header) {
	for key, values := range src {
		switch http.CanonicalHeaderKey(key) {
		case "Host", "Transfer-Encoding", "Content-Length":
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

// splitTags parses the comma-separated tags query parameter.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	var tags []string
	for _, tag := range strings.Split(raw, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
