package client

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type payloadKind int

const (
	payloadUnknown payloadKind = iota
	payloadBare                // [ ... ]
	payloadWrapped             // {"data": [ ... ]}
)

func (k payloadKind) String() string {
	switch k {
	case payloadBare:
		return "bare"
	case payloadWrapped:
		return "wrapped"
	default:
		return "unknown"
	}
}

// payload is the decoded shape of a list response.
type payload struct {
	kind  payloadKind
	items []json.RawMessage
}

func classify(body []byte) payload {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return payload{kind: payloadUnknown}
	}

	switch trimmed[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return payload{kind: payloadUnknown}
		}
		return payload{kind: payloadBare, items: items}
	case '{':
		var wrapped struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &wrapped); err != nil {
			return payload{kind: payloadUnknown}
		}
		var items []json.RawMessage
		data := bytes.TrimSpace(wrapped.Data)
		if len(data) == 0 || data[0] != '[' || json.Unmarshal(data, &items) != nil {
			return payload{kind: payloadUnknown}
		}
		return payload{kind: payloadWrapped, items: items}
	default:
		return payload{kind: payloadUnknown}
	}
}

func decodeList(body []byte) ([]json.RawMessage, error) {
	p := classify(body)
	switch p.kind {
	case payloadBare, payloadWrapped:
		if p.items == nil {
			return []json.RawMessage{}, nil
		}
		return p.items, nil
	default:
		return nil, fmt.Errorf("%w: %.64s", ErrUnexpectedShape, bytes.TrimSpace(body))
	}
}
