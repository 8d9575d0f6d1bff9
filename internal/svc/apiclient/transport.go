// Package apiclient implements the HTTP client for a spreadsheet-backed
// script service: a single endpoint, action-string dispatch, GET for reads
// and form-urlencoded POST for writes. It normalizes the backend's
// heterogeneous replies into domain.Envelope values and classifies every
// failure into the domain error taxonomy.
package apiclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/amanihub/sheetcms/internal/domain"
	"github.com/amanihub/sheetcms/internal/infra/logging"
)

// TokenSource provides the current access token for outgoing requests.
// Implemented by the auth manager.
type TokenSource interface {
	Token() string
}

// Refresher renews an expired session after a 401 response. The transport
// calls Refresh at most once per request; a request is retried at most once
// after a successful refresh.
type Refresher interface {
	Refresh(ctx context.Context) error
}

// TransportConfig holds configuration for the script-service transport.
type TransportConfig struct {
	// Endpoint is the script service URL; every action is dispatched against it
	Endpoint string `env:"ENDPOINT" default:"http://localhost:8080/exec"`

	// Timeout is the per-request timeout in seconds
	Timeout int64 `env:"TIMEOUT" default:"60"`
}

// Transport is the normalization boundary between raw HTTP and the typed
// response envelope. All reads go out as query parameters, all writes as
// application/x-www-form-urlencoded bodies. The token travels as a query
// parameter or form field, never as a header; the backend cannot answer a
// CORS preflight, and browser clients of the same protocol rely on that.
type Transport struct {
	httpClient *http.Client
	cfg        TransportConfig
	log        logging.Logger

	tokens    TokenSource
	refresher Refresher
}

// NewTransport creates a Transport with the given configuration.
// If httpClient is nil, http.DefaultClient will be used. tokens may be nil
// for a client that only performs public reads.
func NewTransport(cfg TransportConfig, httpClient *http.Client, tokens TokenSource) *Transport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Transport{
		httpClient: httpClient,
		cfg:        cfg,
		log:        logging.GetLogger("svc.apiclient.transport"),
		tokens:     tokens,
	}
}

// SetRefresher installs the session refresher used for 401 recovery.
// Separate from the constructor because the auth manager both owns the
// refresher and depends on the transport.
func (t *Transport) SetRefresher(r Refresher) {
	t.refresher = r
}

// SetTokenSource installs the token source for authenticated requests.
// Like SetRefresher, this breaks the constructor cycle with the auth manager.
func (t *Transport) SetTokenSource(tokens TokenSource) {
	t.tokens = tokens
}

// Get performs a read action with the given query parameters.
func (t *Transport) Get(ctx context.Context, action domain.Action, params map[string]string) (domain.Envelope, error) {
	return t.do(ctx, http.MethodGet, action, params, false)
}

// GetAuthed performs a read action with the current token attached as a
// query parameter.
func (t *Transport) GetAuthed(ctx context.Context, action domain.Action, params map[string]string) (domain.Envelope, error) {
	return t.do(ctx, http.MethodGet, action, params, true)
}

// Post performs a write action with the given form fields.
func (t *Transport) Post(ctx context.Context, action domain.Action, fields map[string]string) (domain.Envelope, error) {
	return t.do(ctx, http.MethodPost, action, fields, false)
}

// PostAuthed performs a write action with the current token attached as a
// form field. The field is sent even when no token is stored; rejecting an
// empty token is the backend's job.
func (t *Transport) PostAuthed(ctx context.Context, action domain.Action, fields map[string]string) (domain.Envelope, error) {
	return t.do(ctx, http.MethodPost, action, fields, true)
}

func (t *Transport) do(
	ctx context.Context,
	method string,
	action domain.Action,
	params map[string]string,
	authed bool,
) (env domain.Envelope, err error) {
	log := t.log.With(logging.Group("request", "method", method, "action", action.String()))

	defer func() {
		if err != nil {
			log.WarnContext(ctx, "request failed", "error", err)
		} else {
			log.DebugContext(ctx, "request done")
		}
	}()

	// An unnamed or unknown action must fail loudly, never degrade to some
	// default read.
	if !action.Valid() {
		return domain.Envelope{}, domain.NewAPIError(
			domain.CodeValidation,
			fmt.Sprintf("unknown action %q", action.String()),
		)
	}

	ctx, cancel := context.WithTimeout(ctx, seconds(t.cfg.Timeout))
	defer cancel()

	status, body, err := t.send(ctx, method, action, params, authed)
	if err != nil {
		return domain.Envelope{}, err
	}

	if status == http.StatusUnauthorized && authed && t.refresher != nil {
		status, body, err = t.retryAfterRefresh(ctx, method, action, params, body)
		if err != nil {
			return domain.Envelope{}, err
		}
	}

	if status < http.StatusOK || status >= http.StatusMultipleChoices {
		return domain.Envelope{}, statusError(status, body)
	}

	return normalize(body)
}

// retryAfterRefresh performs the one-shot refresh-and-retry dance. A second
// 401 after a successful refresh surfaces as Unauthorized without another
// refresh attempt, which keeps a revoked session from looping forever.
func (t *Transport) retryAfterRefresh(
	ctx context.Context,
	method string,
	action domain.Action,
	params map[string]string,
	firstBody []byte,
) (int, []byte, error) {
	if err := t.refresher.Refresh(ctx); err != nil {
		return 0, nil, statusError(http.StatusUnauthorized, firstBody)
	}

	t.log.DebugContext(ctx, "session refreshed, retrying request", "action", action.String())

	status, body, err := t.send(ctx, method, action, params, true)
	if err != nil {
		return 0, nil, err
	}

	if status == http.StatusUnauthorized {
		return 0, nil, statusError(http.StatusUnauthorized, body)
	}

	return status, body, nil
}

// send builds and executes one HTTP exchange, re-reading the token source so
// a retried request carries a freshly rotated token.
func (t *Transport) send(
	ctx context.Context,
	method string,
	action domain.Action,
	params map[string]string,
	authed bool,
) (int, []byte, error) {
	values := url.Values{}
	values.Set("action", action.String())

	if authed {
		var token string
		if t.tokens != nil {
			token = t.tokens.Token()
		}

		values.Set("token", token)
	}

	for key, value := range params {
		values.Set(key, value)
	}

	var req *http.Request

	var err error

	if method == http.MethodGet {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, t.cfg.Endpoint+"?"+values.Encode(), nil)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, t.cfg.Endpoint, strings.NewReader(values.Encode()))
		if req != nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	}

	if err != nil {
		return 0, nil, fmt.Errorf("new request: %w", err)
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return 0, nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, classifyTransportError(err)
	}

	return resp.StatusCode, body, nil
}

// classifyTransportError maps connection-level failures onto the taxonomy:
// deadline expiry becomes a timeout, everything else a network error.
func classifyTransportError(err error) *domain.APIError {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewAPIError(domain.CodeTimeout, "request timed out")
	}

	apiErr := domain.NewAPIError(domain.CodeNetwork, "network error: unable to reach API")
	apiErr.Raw = err.Error()

	return apiErr
}

// statusError maps an HTTP status onto the taxonomy, preferring whatever
// failure message the body carries over the bare status text.
func statusError(status int, body []byte) *domain.APIError {
	var code domain.ErrorCode

	switch {
	case status == http.StatusBadRequest:
		code = domain.CodeValidation
	case status == http.StatusUnauthorized:
		code = domain.CodeUnauthorized
	case status == http.StatusForbidden:
		code = domain.CodeForbidden
	case status == http.StatusNotFound:
		code = domain.CodeNotFound
	case status == http.StatusTooManyRequests:
		code = domain.CodeRateLimited
	case status >= http.StatusInternalServerError:
		code = domain.CodeServer
	default:
		code = domain.CodeGeneric
	}

	message := http.StatusText(status)

	if env, err := normalize(body); err == nil {
		if m := env.ErrorMessage(); m != "" {
			message = m
		}
	}

	return domain.NewAPIError(code, message)
}

func seconds(n int64) time.Duration {
	return time.Duration(n) * time.Second
}
