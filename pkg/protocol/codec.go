package protocol

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"

	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

var (
	ErrMalformed     = errors.New("malformed action")
	ErrUnknownAction = errors.New("unknown action")
)

// Decoder turns inbound panel messages into requests.
type Decoder struct {
	maxInputSize int
}

// DecoderOption configures the Decoder.
type DecoderOption func(*Decoder)

// WithMaxInputSize sets the per-field size limit.
func WithMaxInputSize(n int) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.maxInputSize = n
		}
	}
}

// NewDecoder creates a Decoder.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{maxInputSize: DefaultMaxInputSize}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Decode parses one JSON action object.
func (d *Decoder) Decode(data []byte) (domain.Request, error) {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected an object", ErrMalformed)
	}
	return d.FromMap(raw)
}

// FromMap builds a request from a decoded action object.
// Numeric values are accepted where the panel sends strings ("value": 12).
func (d *Decoder) FromMap(raw map[string]any) (domain.Request, error) {
	name, ok := raw["action"].(string)
	if !ok || name == "" {
		return nil, fmt.Errorf("%w: missing \"action\"", ErrMalformed)
	}

	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "action" {
			continue
		}
		if n, ok := v.(json.Number); ok {
			v = n.String()
		}
		fields[k] = v
	}

	switch domain.Action(name) {
	case domain.ActionRefreshData:
		return domain.RefreshData{}, nil
	case domain.ActionUpdateParam:
		var r domain.UpdateParam
		return decodeInto(d, fields, &r)
	case domain.ActionUpdateAttributes:
		var r domain.UpdateAttributes
		return decodeInto(d, fields, &r)
	case domain.ActionToggleFavorite:
		var r domain.ToggleFavorite
		return decodeInto(d, fields, &r)
	case domain.ActionCreateParam:
		var r domain.CreateParam
		return decodeInto(d, fields, &r)
	case domain.ActionDeleteParam:
		var r domain.DeleteParam
		return decodeInto(d, fields, &r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, name)
	}
}

// decodeInto fills out from fields and returns it by value.
func decodeInto[T domain.Request](d *Decoder, fields map[string]any, out *T) (domain.Request, error) {
	var hookErr error
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		TagName:          "mapstructure",
		DecodeHook:       d.sanitizeHook(&hookErr),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(fields); err != nil {
		// mapstructure flattens hook errors into strings; keep the sanitizer's sentinel.
		if hookErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, hookErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return *out, nil
}

// sanitizeHook cleans every string field and records the first rejection in firstErr.
func (d *Decoder) sanitizeHook(firstErr *error) mapstructure.DecodeHookFuncKind {
	return func(from, to reflect.Kind, data any) (any, error) {
		if from != reflect.String {
			return data, nil
		}
		clean, err := Sanitize(data.(string), d.maxInputSize)
		if err != nil && *firstErr == nil {
			*firstErr = err
		}
		return clean, err
	}
}

// Decode parses one JSON action object with default limits.
func Decode(data []byte) (domain.Request, error) {
	return NewDecoder().Decode(data)
}

// Encode renders an outbound message as JSON.
func Encode(msg domain.Message) ([]byte, error) {
	return json.Marshal(msg)
}

// EncodeRequest renders a request as the JSON object the panel would send.
func EncodeRequest(req domain.Request) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = make(map[string]any)
	}
	fields["action"] = string(req.Action())
	return json.Marshal(fields)
}

type envelope struct {
	Channel domain.Channel  `json:"channel"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeMessage parses an outbound message, as received by a panel or a relay.
// update_ui payloads decode to *domain.Snapshot or domain.ScanFailure.
func DecodeMessage(data []byte) (domain.Message, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return domain.Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	switch env.Channel {
	case domain.ChannelNotification:
		var n domain.Notification
		if err := json.Unmarshal(env.Payload, &n); err != nil {
			return domain.Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return domain.Message{Channel: env.Channel, Payload: n}, nil

	case domain.ChannelUpdateUI:
		var keys map[string]json.RawMessage
		if err := json.Unmarshal(env.Payload, &keys); err != nil {
			return domain.Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if _, failed := keys["error"]; failed {
			var f domain.ScanFailure
			if err := json.Unmarshal(env.Payload, &f); err != nil {
				return domain.Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
			}
			return domain.Message{Channel: env.Channel, Payload: f}, nil
		}
		snap := &domain.Snapshot{}
		if err := json.Unmarshal(env.Payload, snap); err != nil {
			return domain.Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return domain.Message{Channel: env.Channel, Payload: snap}, nil

	default:
		return domain.Message{}, fmt.Errorf("%w: unknown channel %q", ErrMalformed, env.Channel)
	}
}
