package descriptor

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/morezero/intent-dispatch/pkg/fsa"
	"github.com/morezero/intent-dispatch/pkg/intent"
	"github.com/morezero/intent-dispatch/pkg/transport"
)

const descriptorTestPrefix = "descriptor:descriptor_test"

func jsonResponse(status int, body any) *transport.Response {
	return &transport.Response{
		StatusCode: status,
		Headers:    map[string]string{"Content-Type": "application/json; charset=utf-8"},
		Body:       body,
	}
}

func TestNormalizeCall_Defaults(t *testing.T) {
	ctx := context.Background()
	req, ok, fail := NormalizeCall([]any{"REQ", "OK", "FAIL"})

	if req.Type != "REQ" || ok.Type != "OK" || fail.Type != "FAIL" {
		t.Fatalf("%s - unexpected types: %s %s %s", descriptorTestPrefix, req.Type, ok.Type, fail.Type)
	}

	n := Build(ctx, req, intent.Args{})
	if n.Payload != nil || n.Meta != nil || n.Error {
		t.Errorf("%s - request notification should be bare, got %+v", descriptorTestPrefix, n)
	}

	body := map[string]any{"id": 1}
	n = Build(ctx, ok, intent.Args{Extra: jsonResponse(200, body)})
	if !reflect.DeepEqual(n.Payload, body) {
		t.Errorf("%s - success payload = %v, want %v", descriptorTestPrefix, n.Payload, body)
	}

	res := jsonResponse(404, map[string]any{"message": "missing"})
	res.Error = &transport.ResponseError{Code: "NOT_FOUND", Message: "no such user"}
	n = Build(ctx, fail, intent.Args{Extra: res})
	te, isTE := n.Payload.(*fsa.TransportError)
	if !isTE {
		t.Fatalf("%s - failure payload should be TransportError, got %T", descriptorTestPrefix, n.Payload)
	}
	if te.Status != 404 || te.Message != "no such user" {
		t.Errorf("%s - unexpected transport error: %+v", descriptorTestPrefix, te)
	}
	if !reflect.DeepEqual(te.Response, map[string]any{"message": "missing"}) {
		t.Errorf("%s - transport error response = %v", descriptorTestPrefix, te.Response)
	}
}

func TestNormalizeCall_CustomPayloadAndMeta(t *testing.T) {
	ctx := context.Background()
	successPayload := intent.ResolverFunc(func(_ context.Context, args intent.Args) (any, error) {
		return args.State, nil
	})
	_, ok, fail := NormalizeCall([]any{
		"REQ",
		&intent.TypeDescriptor{Type: "OK", Payload: successPayload, Meta: map[string]any{"page": 2}},
		map[string]any{"type": "FAIL", "meta": "m"},
	})

	n := Build(ctx, ok, intent.Args{State: "state", Extra: jsonResponse(200, "ignored")})
	if n.Payload != "state" {
		t.Errorf("%s - custom payload = %v, want state", descriptorTestPrefix, n.Payload)
	}
	if !reflect.DeepEqual(n.Meta, map[string]any{"page": 2}) {
		t.Errorf("%s - meta = %v", descriptorTestPrefix, n.Meta)
	}

	n = Build(ctx, fail, intent.Args{Extra: jsonResponse(500, nil)})
	if _, isTE := n.Payload.(*fsa.TransportError); !isTE {
		t.Errorf("%s - failure without payload should keep default, got %T", descriptorTestPrefix, n.Payload)
	}
	if n.Meta != "m" {
		t.Errorf("%s - failure meta = %v, want m", descriptorTestPrefix, n.Meta)
	}
}

func TestNormalizeListen(t *testing.T) {
	ctx := context.Background()
	message := map[string]any{"id": 9}

	d := NormalizeListen("USER_UPDATED")
	n := Build(ctx, d, intent.Args{Extra: message})
	if n.Type != "USER_UPDATED" || !reflect.DeepEqual(n.Payload, message) {
		t.Errorf("%s - default listen notification = %+v", descriptorTestPrefix, n)
	}

	d = NormalizeListen(&intent.TypeDescriptor{Type: "USER_UPDATED", Payload: "fixed"})
	if n := Build(ctx, d, intent.Args{Extra: message}); n.Payload != "fixed" {
		t.Errorf("%s - custom listen payload = %v", descriptorTestPrefix, n.Payload)
	}
}

func TestBuild_PayloadResolverFails(t *testing.T) {
	d := Descriptor{Type: "OK"}
	d.Payload = resolveFailing("payload broke")
	d.Meta = resolveLiteral("meta")

	n := Build(context.Background(), d, intent.Args{})
	ie, ok := n.Payload.(*fsa.InternalError)
	if !ok || ie.Message != "payload broke" {
		t.Fatalf("%s - expected InternalError payload, got %#v", descriptorTestPrefix, n.Payload)
	}
	if !n.Error {
		t.Errorf("%s - error flag should be set", descriptorTestPrefix)
	}
	if n.Meta != "meta" {
		t.Errorf("%s - meta should still be evaluated, got %v", descriptorTestPrefix, n.Meta)
	}
}

func TestBuild_MetaResolverFailsOverwritesPayload(t *testing.T) {
	d := Descriptor{Type: "OK"}
	d.Payload = resolveLiteral("good payload")
	d.Meta = resolveFailing("meta broke")

	n := Build(context.Background(), d, intent.Args{})
	ie, ok := n.Payload.(*fsa.InternalError)
	if !ok || ie.Message != "meta broke" {
		t.Fatalf("%s - expected meta InternalError in payload, got %#v", descriptorTestPrefix, n.Payload)
	}
	if n.Meta != nil {
		t.Errorf("%s - meta should be dropped, got %v", descriptorTestPrefix, n.Meta)
	}
	if !n.Error {
		t.Errorf("%s - error flag should be set", descriptorTestPrefix)
	}
}

func TestBuild_FreshNotification(t *testing.T) {
	d := NormalizeListen("A")
	first := Build(context.Background(), d, intent.Args{Extra: 1})
	second := Build(context.Background(), d, intent.Args{Extra: 2})
	if first == second || first.Payload == second.Payload {
		t.Errorf("%s - Build should return independent notifications", descriptorTestPrefix)
	}
}

func TestWithError(t *testing.T) {
	_, _, fail := NormalizeCall([]any{"REQ", "OK", map[string]any{"type": "FAIL", "meta": "m"}})
	reqErr := &fsa.RequestError{Message: "offline"}

	n := Build(context.Background(), fail.WithError(reqErr), intent.Args{})
	if n.Payload != reqErr || !n.Error {
		t.Errorf("%s - WithError notification = %+v", descriptorTestPrefix, n)
	}
	if n.Meta != "m" {
		t.Errorf("%s - WithError should keep meta, got %v", descriptorTestPrefix, n.Meta)
	}
	if fail.Error {
		t.Errorf("%s - WithError must not mutate the receiver", descriptorTestPrefix)
	}
}

func TestGetJSON(t *testing.T) {
	body := map[string]any{"ok": true}

	tests := []struct {
		name string
		res  *transport.Response
		want any
	}{
		{"nil response", nil, nil},
		{"json", jsonResponse(200, body), body},
		{"lower-case header", &transport.Response{StatusCode: 200, Headers: map[string]string{"content-type": "application/vnd.api+json"}, Body: body}, body},
		{"no content", jsonResponse(204, body), nil},
		{"reset content", jsonResponse(205, body), nil},
		{"missing header", &transport.Response{StatusCode: 200, Body: body}, nil},
		{"text", &transport.Response{StatusCode: 200, Headers: map[string]string{"Content-Type": "text/plain"}, Body: "hi"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetJSON(tt.res); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("%s - GetJSON() = %v, want %v", descriptorTestPrefix, got, tt.want)
			}
		})
	}
}

func resolveFailing(msg string) resolveValue {
	return resolveFunc(func(context.Context, intent.Args) (any, error) {
		return nil, errors.New(msg)
	})
}
