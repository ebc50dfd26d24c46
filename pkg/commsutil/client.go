package commsutil

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/intent-dispatch/pkg/semver"
	"github.com/morezero/intent-dispatch/pkg/transport"
)

const clientLogPrefix = "commsutil:client"

// DefaultRequestTimeout bounds a request whose context has no deadline; the
// COMMS request API requires one.
const DefaultRequestTimeout = 25 * time.Second

// ClientOpts configures a Client. Zero values use defaults.
type ClientOpts struct {
	Name           string
	RequestSubject string
	EventPrefix    string
	Timeout        time.Duration
}

// Client is the COMMS implementation of transport.Transport.
type Client struct {
	nc   *comms.Conn
	name string

	mu             sync.RWMutex
	requestSubject string
	eventPrefix    string
	timeout        time.Duration
}

// NewClient wraps a connection. Pass nil for opts to use defaults.
func NewClient(nc *comms.Conn, opts *ClientOpts) *Client {
	c := &Client{
		nc:             nc,
		name:           "intent-dispatch",
		requestSubject: SubjectRequest,
		eventPrefix:    SubjectEventPrefix,
		timeout:        DefaultRequestTimeout,
	}
	if opts == nil {
		return c
	}
	if opts.Name != "" {
		c.name = opts.Name
	}
	if opts.RequestSubject != "" {
		c.requestSubject = opts.RequestSubject
	}
	if opts.EventPrefix != "" {
		c.eventPrefix = opts.EventPrefix
	}
	if opts.Timeout > 0 {
		c.timeout = opts.Timeout
	}
	return c
}

// SetOption sets one of the client's exposed properties: requestSubject,
// eventPrefix or timeout. It returns false for unknown names and unusable values.
func (c *Client) SetOption(name, value string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch name {
	case "requestSubject":
		if value == "" {
			return false
		}
		c.requestSubject = value
	case "eventPrefix":
		if value == "" {
			return false
		}
		c.eventPrefix = value
	case "timeout":
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			slog.Warn(fmt.Sprintf("%s - ignoring timeout option %q", clientLogPrefix, value))
			return false
		}
		c.timeout = d
	default:
		return false
	}
	return true
}

// Request sends a call envelope to the request subject and decodes the reply.
func (c *Client) Request(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	c.mu.RLock()
	subject, timeout := c.requestSubject, c.timeout
	c.mu.RUnlock()

	env := &RequestEnvelope{
		ID:      uuid.NewString(),
		URL:     req.URL,
		Method:  req.Method,
		Params:  req.Params,
		Headers: req.Headers,
	}
	data, err := EncodePayload(env)
	if err != nil {
		return nil, fmt.Errorf("%s - failed to encode request: %w", clientLogPrefix, err)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	slog.Debug(fmt.Sprintf("%s - %s %s id=%s", clientLogPrefix, env.Method, env.URL, env.ID))
	msg, err := c.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return nil, fmt.Errorf("%s - request on %s failed: %w", clientLogPrefix, subject, err)
	}

	var reply ResponseEnvelope
	if err := DecodePayload(msg.Data, &reply); err != nil {
		return nil, fmt.Errorf("%s - failed to decode response: %w", clientLogPrefix, err)
	}
	return toResponse(&reply), nil
}

// Subscribe attaches a handler to the subject of a remote event.
func (c *Client) Subscribe(event string, handler transport.Handler) (transport.Subscription, error) {
	c.mu.RLock()
	subject := BuildEventSubject(c.eventPrefix, event)
	c.mu.RUnlock()

	sub, err := c.nc.Subscribe(subject, func(msg *comms.Msg) {
		handler(DecodeMessage(msg.Data))
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", clientLogPrefix, subject, err)
	}
	slog.Debug(fmt.Sprintf("%s - Subscribed to %s", clientLogPrefix, subject))
	return sub, nil
}

// Handshake asks the server on subject for its protocol version and checks it
// against constraint. It returns the server's version.
func (c *Client) Handshake(ctx context.Context, subject, constraint string) (string, error) {
	data, err := EncodePayload(&HandshakeRequest{ID: uuid.NewString(), Client: c.name})
	if err != nil {
		return "", fmt.Errorf("%s - failed to encode handshake: %w", clientLogPrefix, err)
	}

	c.mu.RLock()
	timeout := c.timeout
	c.mu.RUnlock()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	msg, err := c.nc.RequestWithContext(ctx, subject, data)
	if err != nil {
		return "", fmt.Errorf("%s - handshake on %s failed: %w", clientLogPrefix, subject, err)
	}
	var reply HandshakeResponse
	if err := DecodePayload(msg.Data, &reply); err != nil {
		return "", fmt.Errorf("%s - failed to decode handshake: %w", clientLogPrefix, err)
	}
	if err := semver.CheckCompatible(reply.Version, constraint); err != nil {
		return reply.Version, err
	}
	slog.Info(fmt.Sprintf("%s - Server protocol %s satisfies %q", clientLogPrefix, reply.Version, constraint))
	return reply.Version, nil
}

// IsConnected reports whether the underlying connection is up.
func (c *Client) IsConnected() bool {
	return c.nc != nil && c.nc.IsConnected()
}

func toResponse(env *ResponseEnvelope) *transport.Response {
	res := &transport.Response{
		StatusCode: env.StatusCode,
		Headers:    env.Headers,
		Body:       DecodeMessage(env.Body),
	}
	if res.StatusCode == 0 {
		res.StatusCode = 200
		if !env.Ok {
			res.StatusCode = 500
		}
	}
	if !env.Ok {
		res.Error = &transport.ResponseError{Message: "request failed"}
		if env.Error != nil {
			res.Error.Code = env.Error.Code
			res.Error.Message = env.Error.Message
		}
	}
	return res
}
