package intent

import (
	"encoding/json"
	"fmt"
)

const logPrefix = "intent:decode"

// Decode parses the JSON form of an intent.
func Decode(data []byte) (*Intent, error) {
	var in Intent
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// UnmarshalJSON decodes an intent, keeping unknown keys in Extra at every level.
func (in *Intent) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("%s - intent must be a JSON object: %w", logPrefix, err)
	}
	*in = *FromMap(m)
	return nil
}

// FromMap builds an intent from its generic map form. Bodies that are not
// objects are dropped so the validator reports them as missing.
func FromMap(m map[string]any) *Intent {
	in := &Intent{}
	for key, val := range m {
		switch key {
		case "kind":
			if s, ok := val.(string); ok {
				in.Kind = Kind(s)
			} else {
				in.Extra = addExtra(in.Extra, key, val)
			}
		case "call":
			if body, ok := val.(map[string]any); ok {
				in.Call = callFromMap(body)
			}
		case "listen":
			if body, ok := val.(map[string]any); ok {
				in.Listen = listenFromMap(body)
			}
		default:
			in.Extra = addExtra(in.Extra, key, val)
		}
	}
	return in
}

func callFromMap(m map[string]any) *Call {
	c := &Call{}
	for key, val := range m {
		switch key {
		case "endpoint":
			c.Endpoint = val
		case "method":
			c.Method = val
		case "body":
			c.Body = val
		case "headers":
			c.Headers = val
		case "types":
			if list, ok := val.([]any); ok {
				for i, entry := range list {
					if dm, ok := entry.(map[string]any); ok {
						list[i] = descriptorFromMap(dm)
					}
				}
			}
			c.Types = val
		default:
			c.Extra = addExtra(c.Extra, key, val)
		}
	}
	return c
}

func listenFromMap(m map[string]any) *Listen {
	l := &Listen{}
	for key, val := range m {
		switch key {
		case "on":
			l.On = val
		case "type":
			if dm, ok := val.(map[string]any); ok {
				l.Type = descriptorFromMap(dm)
			} else {
				l.Type = val
			}
		default:
			l.Extra = addExtra(l.Extra, key, val)
		}
	}
	return l
}

func descriptorFromMap(m map[string]any) *TypeDescriptor {
	d := &TypeDescriptor{}
	for key, val := range m {
		switch key {
		case "type":
			d.Type = val
		case "payload":
			d.Payload = val
		case "meta":
			d.Meta = val
		default:
			d.Extra = addExtra(d.Extra, key, val)
		}
	}
	return d
}

func addExtra(extra map[string]any, key string, val any) map[string]any {
	if extra == nil {
		extra = make(map[string]any)
	}
	extra[key] = val
	return extra
}
