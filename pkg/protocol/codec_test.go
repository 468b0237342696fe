package protocol_test

import (
	"strings"
	"testing"

	"github.com/aretw0/liveparams/pkg/domain"
	"github.com/aretw0/liveparams/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want domain.Request
	}{
		{"Refresh", `{"action":"refresh_data"}`, domain.RefreshData{}},
		{"Update", `{"action":"update_param","name":"Width","value":"12 mm"}`, domain.UpdateParam{Name: "Width", Value: "12 mm"}},
		{"Update numeric value", `{"action":"update_param","name":"Width","value":12.5}`, domain.UpdateParam{Name: "Width", Value: "12.5"}},
		{"Attributes", `{"action":"update_attributes","old_name":"A","new_name":"B","comment":"note"}`, domain.UpdateAttributes{OldName: "A", NewName: "B", Comment: "note"}},
		{"Favorite", `{"action":"toggle_favorite","name":"A"}`, domain.ToggleFavorite{Name: "A"}},
		{"Create", `{"action":"create_param","name":"Width","unit":"mm","expression":"10","comment":""}`, domain.CreateParam{Name: "Width", Unit: "mm", Expression: "10"}},
		{"Delete", `{"action":"delete_param","name":"Width"}`, domain.DeleteParam{Name: "Width"}},
		{"Unknown fields ignored", `{"action":"delete_param","name":"Width","extra":true}`, domain.DeleteParam{Name: "Width"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := protocol.Decode([]byte(tt.in))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecode_Errors(t *testing.T) {
	tests := []struct {
		name string
		in   string
		err  error
	}{
		{"Not JSON", `{`, protocol.ErrMalformed},
		{"Null", `null`, protocol.ErrMalformed},
		{"Missing action", `{"name":"A"}`, protocol.ErrMalformed},
		{"Action not a string", `{"action":3}`, protocol.ErrMalformed},
		{"Unknown action", `{"action":"explode"}`, protocol.ErrUnknownAction},
		{"Wrong field type", `{"action":"delete_param","name":["a"]}`, protocol.ErrMalformed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := protocol.Decode([]byte(tt.in))
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestDecode_Sanitizes(t *testing.T) {
	got, err := protocol.Decode([]byte(`{"action":"update_attributes","old_name":"A","new_name":"B","comment":"bad\u001b[31m\u0000 note"}`))
	require.NoError(t, err)
	assert.Equal(t, "bad[31m note", got.(domain.UpdateAttributes).Comment)

	dec := protocol.NewDecoder(protocol.WithMaxInputSize(8))
	_, err = dec.Decode([]byte(`{"action":"delete_param","name":"` + strings.Repeat("x", 9) + `"}`))
	assert.ErrorIs(t, err, protocol.ErrMalformed)
	assert.ErrorIs(t, err, protocol.ErrInputTooLarge)

	_, err = protocol.NewDecoder().FromMap(map[string]any{"action": "toggle_favorite", "name": "W\xffidth"})
	assert.ErrorIs(t, err, protocol.ErrMalformed)
	assert.ErrorIs(t, err, protocol.ErrInvalidUTF8)
}

func TestDecode_KeepsMultilineComment(t *testing.T) {
	got, err := protocol.Decode([]byte(`{"action":"update_attributes","old_name":"A","new_name":"A","comment":"first line\nsecond line"}`))
	require.NoError(t, err)
	assert.Equal(t, "first line\nsecond line", got.(domain.UpdateAttributes).Comment)
}

func TestEncode(t *testing.T) {
	snap := &domain.Snapshot{
		DocName:    "Bracket",
		Parameters: []domain.Parameter{{Name: "Width", Expression: "10 mm", Value: 10, Unit: "mm", IsFavorite: true}},
	}

	out, err := protocol.Encode(domain.UpdateUI(snap))
	require.NoError(t, err)
	assert.JSONEq(t, `{"channel":"update_ui","payload":{"doc_name":"Bracket","parameters":[
		{"name":"Width","expression":"10 mm","value":10,"unit":"mm","comment":"","isFavorite":true}]}}`, string(out))

	out, err = protocol.Encode(domain.UpdateUIError("No design active"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"channel":"update_ui","payload":{"error":"No design active"}}`, string(out))

	out, err = protocol.Encode(domain.Notify(domain.NotifySuccess, "Created 'Width'"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"channel":"notification","payload":{"message":"Created 'Width'","type":"success"}}`, string(out))
}

func TestEncodeRequest_DecodesBack(t *testing.T) {
	for _, req := range []domain.Request{
		domain.RefreshData{},
		domain.CreateParam{Name: "Depth", Unit: "cm", Expression: "Width / 2", Comment: "half"},
	} {
		body, err := protocol.EncodeRequest(req)
		require.NoError(t, err)
		got, err := protocol.Decode(body)
		require.NoError(t, err)
		assert.Equal(t, req, got)
	}
}

func TestDecodeMessage(t *testing.T) {
	snap := &domain.Snapshot{DocName: "Plate", Parameters: []domain.Parameter{{Name: "T", Expression: "2 mm", Value: 2, Unit: "mm"}}}

	for _, msg := range []domain.Message{
		domain.UpdateUI(snap),
		domain.UpdateUIError("Failed to scan parameters"),
		domain.Notify(domain.NotifyError, "Parameter not found"),
	} {
		body, err := protocol.Encode(msg)
		require.NoError(t, err)
		got, err := protocol.DecodeMessage(body)
		require.NoError(t, err)
		assert.Equal(t, msg, got)
	}

	_, err := protocol.DecodeMessage([]byte(`{"channel":"telemetry","payload":{}}`))
	assert.ErrorIs(t, err, protocol.ErrMalformed)
}
