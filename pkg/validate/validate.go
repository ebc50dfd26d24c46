// Package validate checks intents against the call/listen schema.
package validate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/morezero/intent-dispatch/pkg/intent"
)

// Validate checks an intent and returns every violation found (empty when
// valid). It never panics and has no side effects.
func Validate(in *intent.Intent) []string {
	if in == nil || in.Kind == "" {
		return []string{"Intents must be objects with a kind of call or listen"}
	}
	if !in.Kind.Valid() {
		return []string{fmt.Sprintf("Invalid intent kind: %s", in.Kind)}
	}

	var violations []string
	for _, key := range sortedKeys(in.Extra) {
		violations = append(violations, fmt.Sprintf("Invalid root key: %s", key))
	}

	switch in.Kind {
	case intent.KindCall:
		if in.Listen != nil {
			violations = append(violations, "Invalid root key: listen")
		}
		violations = append(violations, validateCall(in.Call)...)
	case intent.KindListen:
		if in.Call != nil {
			violations = append(violations, "Invalid root key: call")
		}
		violations = append(violations, validateListen(in.Listen)...)
	}
	return violations
}

// IsValid reports whether the intent has no violations.
func IsValid(in *intent.Intent) bool {
	return len(Validate(in)) == 0
}

// IsValidDescriptor reports whether v is a well-formed type descriptor: only
// the keys type, payload and meta, with a string type.
func IsValidDescriptor(v any) bool {
	d, ok := intent.AsDescriptor(v)
	if !ok {
		return false
	}
	if len(d.Extra) > 0 {
		return false
	}
	_, ok = d.Type.(string)
	return ok
}

func validateCall(c *intent.Call) []string {
	if c == nil {
		return []string{"[call] property must be a plain object"}
	}

	var violations []string
	for _, key := range sortedKeys(c.Extra) {
		violations = append(violations, fmt.Sprintf("Invalid [call] key: %s", key))
	}

	switch c.Endpoint.(type) {
	case nil:
		violations = append(violations, "[call] must have an endpoint property")
	case string, intent.EndpointFunc, func(any) (string, error):
	default:
		violations = append(violations, "[call].endpoint property must be a string or a function")
	}

	switch m := c.Method.(type) {
	case nil:
		violations = append(violations, "[call] must have a method property")
	case string:
		if !isMethod(m) {
			violations = append(violations, fmt.Sprintf("Invalid [call].method: %s", strings.ToUpper(m)))
		}
	default:
		violations = append(violations, "[call].method property must be a string")
	}

	switch c.Headers.(type) {
	case nil, map[string]string, map[string]any, intent.HeadersFunc, func(any) (map[string]string, error):
	default:
		violations = append(violations, "[call].headers property must be undefined, a plain object, or a function")
	}

	if c.Types == nil {
		violations = append(violations, "[call] must have a types property")
		return violations
	}
	types, ok := intent.TypeList(c.Types)
	if !ok || len(types) != 3 {
		violations = append(violations, "[call].types property must be an array of length 3")
		return violations
	}
	for i, label := range []string{"request", "success", "failure"} {
		if !isTypeEntry(types[i]) {
			violations = append(violations, fmt.Sprintf("Invalid %s type", label))
		}
	}
	return violations
}

func validateListen(l *intent.Listen) []string {
	if l == nil {
		return []string{"[listen] property must be a plain object"}
	}

	var violations []string
	for _, key := range sortedKeys(l.Extra) {
		violations = append(violations, fmt.Sprintf("Invalid [listen] key: %s", key))
	}

	switch on := l.On.(type) {
	case nil:
		violations = append(violations, "[listen] must have an on property")
	case string:
		if on == "" {
			violations = append(violations, "[listen].on property must not be empty")
		}
	default:
		violations = append(violations, "[listen].on property must be a string")
	}

	if l.Type == nil {
		violations = append(violations, "[listen] must have a type property")
	} else if !isTypeEntry(l.Type) {
		violations = append(violations, "Invalid listen type")
	}
	return violations
}

func isTypeEntry(v any) bool {
	if _, ok := v.(string); ok {
		return true
	}
	return IsValidDescriptor(v)
}

func isMethod(m string) bool {
	upper := strings.ToUpper(m)
	for _, valid := range intent.Methods {
		if upper == valid {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
