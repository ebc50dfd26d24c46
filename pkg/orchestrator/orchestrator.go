// Package orchestrator turns call/listen intents into remote calls and
// subscriptions and emits their lifecycle notifications.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/morezero/intent-dispatch/pkg/descriptor"
	"github.com/morezero/intent-dispatch/pkg/fsa"
	"github.com/morezero/intent-dispatch/pkg/intent"
	"github.com/morezero/intent-dispatch/pkg/resolve"
	"github.com/morezero/intent-dispatch/pkg/transport"
	"github.com/morezero/intent-dispatch/pkg/validate"
)

const logPrefix = "orchestrator:orchestrator"

// Store is the host state container: State is read for every resolver
// evaluation and Dispatch receives listen notifications.
type Store interface {
	State() any
	Dispatch(ctx context.Context, action any)
}

// Handler forwards an action to the next stage of the host pipeline.
type Handler func(ctx context.Context, action any)

// Config holds orchestrator settings.
type Config struct {
	// BaseURL is prefixed to every resolved endpoint. Required.
	BaseURL string
	// Options are forwarded to the transport when it exposes a property of
	// the same name; the rest are dropped.
	Options map[string]string
}

// Orchestrator processes intents. It is safe for concurrent use.
type Orchestrator struct {
	baseURL   string
	transport transport.Transport
	registry  *Registry

	ctx    context.Context
	cancel context.CancelFunc

	mu   sync.Mutex
	subs []transport.Subscription
}

// New creates an Orchestrator bound to a transport.
func New(cfg Config, tr transport.Transport) (*Orchestrator, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%s - base URL of the remote server is required", logPrefix)
	}
	if tr == nil {
		return nil, fmt.Errorf("%s - transport is required", logPrefix)
	}
	applyOptions(tr, cfg.Options)

	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		baseURL:   cfg.BaseURL,
		transport: tr,
		registry:  NewRegistry(),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

func applyOptions(tr transport.Transport, opts map[string]string) {
	configurable, ok := tr.(transport.Configurable)
	for name, value := range opts {
		if ok && configurable.SetOption(name, value) {
			slog.Debug(fmt.Sprintf("%s - transport option %s applied", logPrefix, name))
			continue
		}
		slog.Debug(fmt.Sprintf("%s - transport option %s not supported, dropped", logPrefix, name))
	}
}

// Middleware adapts the orchestrator to a host pipeline stage.
func (o *Orchestrator) Middleware(store Store) func(next Handler) Handler {
	return func(next Handler) Handler {
		return func(ctx context.Context, action any) {
			o.Handle(ctx, store, next, action)
		}
	}
}

// Handle processes one action. Non-intents go to next unchanged. For intents,
// every outcome, including failures, is forwarded as a notification; Handle
// returns after the last one.
func (o *Orchestrator) Handle(ctx context.Context, store Store, next Handler, action any) {
	in, ok := intent.From(action)
	if !ok {
		next(ctx, action)
		return
	}

	if violations := validate.Validate(in); len(violations) > 0 {
		slog.Debug(fmt.Sprintf("%s - invalid %s intent: %s", logPrefix, in.Kind, strings.Join(violations, "; ")))
		next(ctx, &fsa.Notification{
			Type:    invalidType(in),
			Payload: &fsa.InvalidIntent{Violations: violations},
			Error:   true,
		})
		return
	}

	switch in.Kind {
	case intent.KindListen:
		o.listen(ctx, store, next, in)
	case intent.KindCall:
		o.call(ctx, store, next, in)
	}
}

func (o *Orchestrator) listen(ctx context.Context, store Store, next Handler, in *intent.Intent) {
	on := in.Listen.On.(string)
	d := descriptor.NormalizeListen(in.Listen.Type)
	key := Key{Event: on, Type: d.Type}

	if !o.registry.Claim(key) {
		slog.Debug(fmt.Sprintf("%s - listener for %s -> %s already registered", logPrefix, on, d.Type))
		return
	}

	sub, err := o.transport.Subscribe(on, func(message any) {
		args := intent.Args{Intent: in, State: store.State(), Extra: message}
		store.Dispatch(o.ctx, descriptor.Build(o.ctx, d, args))
	})
	if err != nil {
		o.registry.Release(key)
		slog.Warn(fmt.Sprintf("%s - failed to subscribe to %s: %v", logPrefix, on, err))
		failed := d.WithError(&fsa.RequestError{Message: err.Error()})
		next(ctx, descriptor.Build(ctx, failed, intent.Args{Intent: in, State: store.State()}))
		return
	}

	o.mu.Lock()
	o.subs = append(o.subs, sub)
	o.mu.Unlock()
	slog.Info(fmt.Sprintf("%s - listening on %s -> %s", logPrefix, on, d.Type))
}

func (o *Orchestrator) call(ctx context.Context, store Store, next Handler, in *intent.Intent) {
	c := in.Call
	types, _ := intent.TypeList(c.Types)
	requestType, successType, failureType := descriptor.NormalizeCall(types)

	args := func(extra any) intent.Args {
		return intent.Args{Intent: in, State: store.State(), Extra: extra}
	}
	fail := func(message string) {
		failed := requestType.WithError(&fsa.RequestError{Message: message})
		next(ctx, descriptor.Build(ctx, failed, args(nil)))
	}

	endpoint, err := resolve.Endpoint(c.Endpoint).Eval(ctx, args(nil))
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - endpoint resolver failed: %v", logPrefix, err))
		fail("[call].endpoint function failed")
		return
	}

	headers, err := resolve.Headers(c.Headers).Eval(ctx, args(nil))
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - headers resolver failed: %v", logPrefix, err))
		fail("[call].headers function failed")
		return
	}

	next(ctx, descriptor.Build(ctx, requestType, args(nil)))

	req := &transport.Request{
		URL:     o.baseURL + endpoint,
		Method:  strings.ToUpper(c.Method.(string)),
		Params:  c.Body,
		Headers: headers,
	}
	res, err := o.transport.Request(ctx, req)
	if err == nil && res == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		slog.Debug(fmt.Sprintf("%s - %s %s failed: %v", logPrefix, req.Method, req.URL, err))
		fail(err.Error())
		return
	}

	if res.Error == nil {
		next(ctx, descriptor.Build(ctx, successType, args(res)))
		return
	}
	failureType.Error = true
	next(ctx, descriptor.Build(ctx, failureType, args(res)))
}

// Subscriptions returns the registered (event, type) pairs.
func (o *Orchestrator) Subscriptions() []Key {
	return o.registry.Keys()
}

// Close detaches all transport listeners. The registry is left as is, so a
// closed orchestrator does not re-attach listeners.
func (o *Orchestrator) Close() error {
	o.cancel()

	o.mu.Lock()
	subs := o.subs
	o.subs = nil
	o.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.Unsubscribe(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// invalidType picks the notification type for an invalid intent: the first
// declared type entry, unwrapped from its descriptor.
func invalidType(in *intent.Intent) string {
	var entry any
	switch {
	case in.Kind == intent.KindListen && in.Listen != nil:
		entry = in.Listen.Type
	case in.Kind == intent.KindCall && in.Call != nil:
		if types, ok := intent.TypeList(in.Call.Types); ok && len(types) > 0 {
			entry = types[0]
		}
	}
	if name, ok := intent.TypeName(entry); ok && name != "" {
		return name
	}
	return intent.InvalidIntentType
}
