package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/intent-dispatch/pkg/commsutil"
)

const logPrefix = "dispatcher:dispatch"

// HandlerFunc serves one route.
type HandlerFunc func(ctx context.Context, req *Request) (*Reply, error)

// Dispatcher routes request envelopes to handlers keyed by "METHOD /path".
type Dispatcher struct {
	version string

	mu     sync.RWMutex
	routes map[string]HandlerFunc
}

// NewDispatcher creates a Dispatcher that reports version in handshakes.
func NewDispatcher(version string) *Dispatcher {
	return &Dispatcher{version: version, routes: make(map[string]HandlerFunc)}
}

// Handle registers h for method and path.
func (d *Dispatcher) Handle(method, path string, h HandlerFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.routes[routeKey(method, path)] = h
}

// Dispatch routes a request to its handler and returns the reply envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, req *Request) *commsutil.ResponseEnvelope {
	req.Path = pathOf(req.URL)
	slog.Debug(fmt.Sprintf("%s - %s %s id=%s", logPrefix, req.Method, req.Path, req.ID))

	d.mu.RLock()
	h, ok := d.routes[routeKey(req.Method, req.Path)]
	d.mu.RUnlock()
	if !ok {
		return errorResponse(req.ID, 404, "METHOD_NOT_FOUND", fmt.Sprintf("No route for %s %s", strings.ToUpper(req.Method), req.Path), false)
	}

	reply, err := h(ctx, req)
	if err != nil {
		return handlerErrorToResponse(req.ID, err)
	}
	if reply == nil {
		reply = &Reply{StatusCode: 204}
	}

	resp := &commsutil.ResponseEnvelope{
		ID:         req.ID,
		Ok:         true,
		StatusCode: reply.StatusCode,
		Headers:    reply.Headers,
	}
	if resp.StatusCode == 0 {
		resp.StatusCode = 200
	}
	if reply.Body != nil {
		body, err := json.Marshal(reply.Body)
		if err != nil {
			return errorResponse(req.ID, 500, "INTERNAL_ERROR", fmt.Sprintf("Failed to encode reply: %v", err), true)
		}
		resp.Body = body
		resp.Headers = withContentType(resp.Headers)
	}
	return resp
}

// Serve subscribes to subject and answers every request envelope on it.
func (d *Dispatcher) Serve(nc *comms.Conn, subject string, timeout time.Duration) (*comms.Subscription, error) {
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		var req Request
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			slog.Error(fmt.Sprintf("%s - failed to decode request: %v", logPrefix, err))
			respond(msg, errorResponse("", 400, "INVALID_REQUEST", "Failed to decode request", false))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		respond(msg, d.Dispatch(ctx, &req))
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Serving requests on %s", logPrefix, subject))
	return sub, nil
}

// ServeHandshake answers protocol handshakes on subject with the dispatcher's version.
func (d *Dispatcher) ServeHandshake(nc *comms.Conn, subject string) (*comms.Subscription, error) {
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		var req commsutil.HandshakeRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			slog.Debug(fmt.Sprintf("%s - malformed handshake on %s: %v", logPrefix, msg.Subject, err))
		}
		data, err := commsutil.EncodePayload(&commsutil.HandshakeResponse{ID: req.ID, Version: d.version})
		if err != nil {
			slog.Error(fmt.Sprintf("%s - handshake encode: %v", logPrefix, err))
			return
		}
		msg.Respond(data)
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", logPrefix, subject, err)
	}
	return sub, nil
}

// Emit publishes message as the remote event named event.
func Emit(nc *comms.Conn, prefix, event string, message any) error {
	data, err := commsutil.EncodePayload(message)
	if err != nil {
		return fmt.Errorf("%s - failed to encode event %s: %w", logPrefix, event, err)
	}
	return nc.Publish(commsutil.BuildEventSubject(prefix, event), data)
}

// --- helpers ---

func respond(msg *comms.Msg, resp *commsutil.ResponseEnvelope) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - failed to encode response: %v", logPrefix, err))
		return
	}
	msg.Respond(data)
}

func errorResponse(id string, status int, code, message string, retryable bool) *commsutil.ResponseEnvelope {
	detail := &commsutil.ErrorDetail{
		Code:      code,
		Message:   message,
		Retryable: retryable,
	}
	body, _ := json.Marshal(detail)
	return &commsutil.ResponseEnvelope{
		ID:         id,
		Ok:         false,
		StatusCode: status,
		Headers:    withContentType(nil),
		Body:       body,
		Error:      detail,
	}
}

func handlerErrorToResponse(id string, err error) *commsutil.ResponseEnvelope {
	var hErr *Error
	if errors.As(err, &hErr) {
		status := hErr.Status
		if status == 0 {
			status = 500
		}
		resp := errorResponse(id, status, hErr.Code, hErr.Message, hErr.Code == "INTERNAL_ERROR")
		resp.Error.Details = hErr.Details
		return resp
	}
	return errorResponse(id, 500, "INTERNAL_ERROR", err.Error(), true)
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + path
}

func pathOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Path == "" {
		return raw
	}
	return u.Path
}

func withContentType(headers map[string]string) map[string]string {
	if headers == nil {
		headers = make(map[string]string, 1)
	}
	for key := range headers {
		if strings.EqualFold(key, "content-type") {
			return headers
		}
	}
	headers["Content-Type"] = "application/json"
	return headers
}
