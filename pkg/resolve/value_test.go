package resolve

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/morezero/intent-dispatch/pkg/intent"
)

const valueTestPrefix = "resolve:value_test"

func TestValue_Literal(t *testing.T) {
	v := Literal(42)
	if v.IsFunc() {
		t.Errorf("%s - literal should not be a function", valueTestPrefix)
	}
	got, err := v.Eval(context.Background(), intent.Args{})
	if err != nil || got != 42 {
		t.Errorf("%s - Eval() = %v, %v; want 42, nil", valueTestPrefix, got, err)
	}
}

func TestValue_FuncReceivesArgs(t *testing.T) {
	v := FromFunc[string](func(_ context.Context, args intent.Args) (string, error) {
		return args.State.(string) + "!", nil
	})
	if !v.IsFunc() {
		t.Errorf("%s - expected function value", valueTestPrefix)
	}
	got, err := v.Eval(context.Background(), intent.Args{State: "hi"})
	if err != nil || got != "hi!" {
		t.Errorf("%s - Eval() = %q, %v; want hi!, nil", valueTestPrefix, got, err)
	}
}

func TestValue_FuncFailures(t *testing.T) {
	sentinel := errors.New("boom")

	tests := []struct {
		name    string
		fn      Func[int]
		wantMsg string
	}{
		{"returned error", func(context.Context, intent.Args) (int, error) { return 7, sentinel }, "boom"},
		{"panic with error", func(context.Context, intent.Args) (int, error) { panic(sentinel) }, "boom"},
		{"panic with string", func(context.Context, intent.Args) (int, error) { panic("bad state") }, "bad state"},
		{"nil dereference", func(_ context.Context, args intent.Args) (int, error) {
			return *(args.State.(*int)), nil
		}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got int
			var err error
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Fatalf("%s - panic escaped Eval: %v", valueTestPrefix, r)
					}
				}()
				got, err = FromFunc(tt.fn).Eval(context.Background(), intent.Args{State: (*int)(nil)})
			}()
			if err == nil {
				t.Fatalf("%s - expected error", valueTestPrefix)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Errorf("%s - error = %q, want %q", valueTestPrefix, err.Error(), tt.wantMsg)
			}
			if tt.name != "returned error" && got != 0 {
				t.Errorf("%s - expected zero value after panic, got %d", valueTestPrefix, got)
			}
		})
	}
}

func TestEndpoint(t *testing.T) {
	ctx := context.Background()

	got, err := Endpoint("/users").Eval(ctx, intent.Args{})
	if err != nil || got != "/users" {
		t.Errorf("%s - literal endpoint = %q, %v", valueTestPrefix, got, err)
	}

	fn := intent.EndpointFunc(func(state any) (string, error) {
		return "/users/" + state.(map[string]any)["id"].(string), nil
	})
	got, err = Endpoint(fn).Eval(ctx, intent.Args{State: map[string]any{"id": "7"}})
	if err != nil || got != "/users/7" {
		t.Errorf("%s - function endpoint = %q, %v", valueTestPrefix, got, err)
	}

	if _, err := Endpoint(fn).Eval(ctx, intent.Args{State: nil}); err == nil {
		t.Errorf("%s - expected error from panicking endpoint function", valueTestPrefix)
	}
}

func TestHeaders(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		field any
		state any
		want  map[string]string
	}{
		{"nil", nil, nil, nil},
		{"string map", map[string]string{"A": "1"}, nil, map[string]string{"A": "1"}},
		{"any map", map[string]any{"A": 1, "B": "x"}, nil, map[string]string{"A": "1", "B": "x"}},
		{"function", intent.HeadersFunc(func(state any) (map[string]string, error) {
			return map[string]string{"Authorization": "Bearer " + state.(string)}, nil
		}), "tok", map[string]string{"Authorization": "Bearer tok"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Headers(tt.field).Eval(ctx, intent.Args{State: tt.state})
			if err != nil {
				t.Fatalf("%s - unexpected error: %v", valueTestPrefix, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("%s - Headers() = %v, want %v", valueTestPrefix, got, tt.want)
			}
		})
	}
}

func TestAny(t *testing.T) {
	ctx := context.Background()

	if got, _ := Any("literal").Eval(ctx, intent.Args{}); got != "literal" {
		t.Errorf("%s - literal payload = %v", valueTestPrefix, got)
	}

	fn := intent.ResolverFunc(func(_ context.Context, args intent.Args) (any, error) {
		return args.Extra, nil
	})
	v := Any(fn)
	if !v.IsFunc() {
		t.Fatalf("%s - resolver func should be a function value", valueTestPrefix)
	}
	if got, _ := v.Eval(ctx, intent.Args{Extra: 5}); got != 5 {
		t.Errorf("%s - resolver payload = %v, want 5", valueTestPrefix, got)
	}
}
