package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"relay-chat/internal/debug"
	app_errors "relay-chat/internal/errors"
	"relay-chat/internal/locale"
	"relay-chat/internal/model"
)

// Provider sends one conversation turn to a remote chat service. It never
// returns an error: every failure is folded into the TurnResult.
type Provider interface {
	SendTurn(ctx context.Context, sessionID, message string) model.TurnResult
}

// Connection holds the validated parameters of the remote workspace.
type Connection struct {
	BaseURL     string
	APIKey      string
	WorkspaceID string
}

// ChatRequest is the body of POST /v1/workspace/{workspaceId}/chat.
type ChatRequest struct {
	Message   string `json:"message"`
	Mode      string `json:"mode"`
	SessionID string `json:"sessionId"`
	Reset     bool   `json:"reset"`
}

// ChatMode is the only mode this front-end uses.
const ChatMode = "chat"

// remoteNullSentinel is the string the remote service puts in "error" when
// there is no error. It is compared literally.
const remoteNullSentinel = "null"

// WorkspaceClient talks to an AnythingLLM-compatible workspace chat API.
type WorkspaceClient struct {
	client  *http.Client
	conn    Connection
	catalog *locale.Catalog
	debug   debug.Sink
}

// Option customises a WorkspaceClient.
type Option func(*WorkspaceClient)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(c *http.Client) Option {
	return func(w *WorkspaceClient) { w.client = c }
}

// WithCatalog selects the language of the messages produced.
func WithCatalog(c *locale.Catalog) Option {
	return func(w *WorkspaceClient) { w.catalog = c }
}

// WithDebugSink sets where per-turn troubleshooting records go.
func WithDebugSink(s debug.Sink) Option {
	return func(w *WorkspaceClient) { w.debug = s }
}

// NewWorkspaceClient creates a client for the workspace chat endpoint of
// conn. Without options it uses a plain http.Client, the default locale and
// no debug sink.
func NewWorkspaceClient(conn Connection, opts ...Option) *WorkspaceClient {
	w := &WorkspaceClient{
		client:  &http.Client{},
		conn:    conn,
		catalog: locale.Default(),
		debug:   debug.Discard,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Endpoint is the chat URL of the configured workspace.
func (w *WorkspaceClient) Endpoint() string {
	return strings.TrimRight(w.conn.BaseURL, "/") + "/v1/workspace/" + url.PathEscape(w.conn.WorkspaceID) + "/chat"
}

func (w *WorkspaceClient) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + w.conn.APIKey,
		"Content-Type":  "application/json",
		"Accept":        "application/json",
	}
}

// SendTurn posts the user's message and classifies the outcome.
func (w *WorkspaceClient) SendTurn(ctx context.Context, sessionID, message string) model.TurnResult {
	endpoint := w.Endpoint()
	headers := w.headers()

	payload, err := json.Marshal(ChatRequest{
		Message:   message,
		Mode:      ChatMode,
		SessionID: sessionID,
		Reset:     false,
	})

	entry := model.DebugEntry{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Endpoint:  endpoint,
		Headers:   debug.RedactHeaders(headers),
		Payload:   string(payload),
		CreatedAt: time.Now().UTC(),
	}

	start := time.Now()
	var result model.TurnResult
	if err != nil {
		result = w.transportFailure(fmt.Errorf("could not marshal request: %w", err))
	} else {
		result = w.exchange(ctx, endpoint, headers, payload)
	}

	entry.Latency = time.Since(start)
	entry.Status = result.Status
	entry.Body = result.RawBody
	entry.Outcome = result.Outcome
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}
	w.debug.Record(ctx, entry)

	if result.Outcome == model.OutcomeSuccess {
		slog.InfoContext(ctx, "Chat turn completed", "session_id", sessionID, "status", result.Status, "latency_ms", entry.Latency.Milliseconds())
	} else {
		slog.WarnContext(ctx, "Chat turn failed", "session_id", sessionID, "outcome", result.Outcome, "status", result.Status, "error", result.Err)
	}
	return result
}

func (w *WorkspaceClient) exchange(ctx context.Context, endpoint string, headers map[string]string, payload []byte) model.TurnResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return w.transportFailure(fmt.Errorf("could not create http request: %w", err))
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return w.transportFailure(fmt.Errorf("http request failed: %w", err))
	}
	defer func() {
		if cErr := resp.Body.Close(); cErr != nil {
			slog.Warn("Failed to close chat API response body", "error", cErr)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		result := w.transportFailure(fmt.Errorf("could not read response body: %w", err))
		result.Status = resp.StatusCode
		return result
	}
	return w.Classify(resp.StatusCode, body)
}

// Classify maps an HTTP status and body onto exactly one outcome.
func (w *WorkspaceClient) Classify(status int, body []byte) model.TurnResult {
	if status < 200 || status > 299 {
		return w.httpError(status, body)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return w.malformed(status, body, errors.New("body is not a JSON object"))
	}

	if raw, ok := fields["error"]; ok {
		if msg, truthy := jsonTruthyText(raw); truthy && msg != remoteNullSentinel {
			return model.TurnResult{
				Outcome: model.OutcomeRemoteError,
				Text:    fmt.Sprintf(w.catalog.RemoteError, msg),
				Status:  status,
				RawBody: string(body),
				Err:     fmt.Errorf("%w: %s", app_errors.ErrRemote, msg),
			}
		}
	}

	rawText, ok := fields["textResponse"]
	if !ok {
		return w.malformed(status, body, errors.New("neither error nor textResponse present"))
	}
	var text string
	if err := json.Unmarshal(rawText, &text); err != nil || isJSONNull(rawText) {
		return w.malformed(status, body, errors.New("textResponse is not a string"))
	}

	titles, err := sourceTitles(fields["sources"])
	if err != nil {
		return w.malformed(status, body, err)
	}
	if len(titles) > 0 {
		text += "\n\n" + w.catalog.SourcesLabel + " " + strings.Join(titles, ", ")
	}

	return model.TurnResult{
		Outcome: model.OutcomeSuccess,
		Text:    text,
		Status:  status,
		RawBody: string(body),
	}
}

func (w *WorkspaceClient) httpError(status int, body []byte) model.TurnResult {
	var text string
	switch status {
	case http.StatusForbidden:
		text = w.detailMessage(body, "error", w.catalog.AccessDenied, w.catalog.AccessDeniedDefault, w.catalog.AccessDeniedGeneric)
	case http.StatusBadRequest:
		text = w.detailMessage(body, "message", w.catalog.BadRequest, w.catalog.BadRequestDefault, w.catalog.BadRequestGeneric)
	default:
		text = fmt.Sprintf(w.catalog.HTTPError, status, http.StatusText(status))
	}
	return model.TurnResult{
		Outcome: model.OutcomeHTTPError,
		Text:    text,
		Status:  status,
		RawBody: string(body),
		Err:     fmt.Errorf("%w: %d", app_errors.ErrHTTPStatus, status),
	}
}

// detailMessage formats an error body field into format. A JSON body
// without the field uses fallback; a body that is not a JSON object uses
// generic.
func (w *WorkspaceClient) detailMessage(body []byte, field, format, fallback, generic string) string {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil || fields == nil {
		return generic
	}
	detail := fallback
	if raw, ok := fields[field]; ok && !isJSONNull(raw) {
		detail = jsonText(raw)
	}
	return fmt.Sprintf(format, detail)
}

func (w *WorkspaceClient) malformed(status int, body []byte, cause error) model.TurnResult {
	return model.TurnResult{
		Outcome: model.OutcomeMalformedResponse,
		Text:    w.catalog.MalformedResponse,
		Status:  status,
		RawBody: string(body),
		Err:     fmt.Errorf("%w: %v", app_errors.ErrMalformedResponse, cause),
	}
}

func (w *WorkspaceClient) transportFailure(err error) model.TurnResult {
	return model.TurnResult{
		Outcome: model.OutcomeTransportFailure,
		Text:    fmt.Sprintf(w.catalog.TransportError, err.Error()),
		Err:     fmt.Errorf("%w: %v", app_errors.ErrTransport, err),
	}
}

// sourceTitles extracts the titles of the cited sources. Absent or empty
// sources yield nil; a source without a string title is an error.
func sourceTitles(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("invalid sources: %w", err)
	}
	if !truthy(value) {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, errors.New("sources is not a list")
	}
	titles := make([]string, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("source %d is not an object", i)
		}
		title, ok := obj["title"].(string)
		if !ok {
			return nil, fmt.Errorf("source %d has no title", i)
		}
		titles = append(titles, title)
	}
	return titles, nil
}

// jsonTruthyText decodes a JSON value and reports its display text and
// whether it counts as set: null, false, zero and empty values do not.
func jsonTruthyText(raw json.RawMessage) (string, bool) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return "", false
	}
	return jsonText(raw), truthy(value)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

// jsonText renders a JSON value for display: strings unquoted, null empty,
// anything else compact JSON.
func jsonText(raw json.RawMessage) string {
	if isJSONNull(raw) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

func isJSONNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || string(bytes.TrimSpace(raw)) == "null"
}
