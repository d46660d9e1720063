package logic

import (
	"bytes"
	"encoding/json"
)

// Wire tags of the command variants.
const (
	tagIn  = "In"
	tagOut = "Out"
)

type outBody struct {
	Value *bool `json:"value"`
}

// UnmarshalJSON decodes the externally tagged command form:
//
//	"In"                      Read
//	{"In":null} / {"In":{}}   Read
//	{"Out":{"value":true}}    Write
//
// Any other shape is a KindRequest error.
func (c *Command) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	var tag string
	if err := json.Unmarshal(data, &tag); err == nil {
		if tag != tagIn {
			return RequestError("unknown variant %q, expected %q or %q", tag, tagIn, tagOut)
		}
		*c = Read()
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return RequestError("invalid command: %v", err)
	}
	if len(obj) != 1 {
		return RequestError("command must have exactly one variant, got %d", len(obj))
	}

	for tag, raw := range obj {
		switch tag {
		case tagIn:
			raw = bytes.TrimSpace(raw)
			if !bytes.Equal(raw, []byte("null")) && !bytes.Equal(raw, []byte("{}")) {
				return RequestError("variant %q takes no fields", tagIn)
			}
			*c = Read()
		case tagOut:
			var body outBody
			if err := json.Unmarshal(raw, &body); err != nil {
				return RequestError("invalid %q body: %v", tagOut, err)
			}
			if body.Value == nil {
				return RequestError("missing field %q", "value")
			}
			*c = Write(*body.Value)
		default:
			return RequestError("unknown variant %q, expected %q or %q", tag, tagIn, tagOut)
		}
	}
	return nil
}

// MarshalJSON encodes c in the same form UnmarshalJSON accepts.
func (c Command) MarshalJSON() ([]byte, error) {
	if c.Op == OpWrite {
		v := c.Value
		return json.Marshal(map[string]outBody{tagOut: {Value: &v}})
	}
	return json.Marshal(tagIn)
}

// ParseCommand decodes a request body into a Command.
func ParseCommand(body []byte) (Command, error) {
	var c Command
	if len(bytes.TrimSpace(body)) == 0 {
		return c, RequestError("empty body")
	}
	if err := json.Unmarshal(body, &c); err != nil {
		if KindOf(err) == KindRequest {
			return c, err
		}
		return c, RequestError("invalid command: %v", err)
	}
	return c, nil
}
