package realtime

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePacket(t *testing.T) {
	p, err := DecodePacket([]byte(`42["msg",1]`))
	require.NoError(t, err)
	assert.Equal(t, PacketMessage, p.Type)
	assert.Equal(t, `2["msg",1]`, string(p.Data))

	p, err = DecodePacket([]byte("2"))
	require.NoError(t, err)
	assert.Equal(t, PacketPing, p.Type)
	assert.Empty(t, p.Data)

	_, err = DecodePacket(nil)
	assert.Error(t, err)
	_, err = DecodePacket([]byte("9"))
	assert.Error(t, err)
}

func TestPayload_SplitsOnRecordSeparator(t *testing.T) {
	packets, err := DecodePayload([]byte("40{\"sid\":\"x\"}\x1e42[\"hello\"]\x1e2"))
	require.NoError(t, err)
	require.Len(t, packets, 3)
	assert.Equal(t, PacketMessage, packets[0].Type)
	assert.Equal(t, PacketMessage, packets[1].Type)
	assert.Equal(t, PacketPing, packets[2].Type)

	out := EncodePayload([]Packet{{Type: PacketPong}, {Type: PacketMessage, Data: []byte("0")}})
	assert.Equal(t, "3\x1e40", string(out))
}

func TestParseHandshake(t *testing.T) {
	hs, err := parseHandshake([]byte(`{"sid":"abc","upgrades":["websocket"],"pingInterval":25000,"pingTimeout":20000,"maxPayload":1000000}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", hs.SID)
	assert.Equal(t, 45*time.Second, hs.Liveness())

	_, err = parseHandshake([]byte(`{"pingInterval":1}`))
	assert.Error(t, err)
	_, err = parseHandshake([]byte(`nope`))
	assert.Error(t, err)
}

func TestDecodeMessage(t *testing.T) {
	tests := []struct {
		in        string
		wantType  MessageType
		wantNsp   string
		wantAck   int
		wantData  string
		wantError bool
	}{
		{in: `0{"sid":"x"}`, wantType: MessageConnect, wantNsp: "/", wantAck: -1, wantData: `{"sid":"x"}`},
		{in: `1`, wantType: MessageDisconnect, wantNsp: "/", wantAck: -1},
		{in: `2["chat",{"a":1}]`, wantType: MessageEvent, wantNsp: "/", wantAck: -1, wantData: `["chat",{"a":1}]`},
		{in: `2/admin,["chat"]`, wantType: MessageEvent, wantNsp: "/admin", wantAck: -1, wantData: `["chat"]`},
		{in: `213["chat"]`, wantType: MessageEvent, wantNsp: "/", wantAck: 13, wantData: `["chat"]`},
		{in: `1/admin`, wantType: MessageDisconnect, wantNsp: "/admin", wantAck: -1},
		{in: `1/admin,`, wantType: MessageDisconnect, wantNsp: "/admin", wantAck: -1},
		{in: `4{"message":"not authorized"}`, wantType: MessageConnectError, wantNsp: "/", wantAck: -1, wantData: `{"message":"not authorized"}`},
		{in: `9`, wantError: true},
		{in: `2[broken`, wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := decodeMessage([]byte(tt.in))
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, m.Type)
			assert.Equal(t, tt.wantNsp, m.Namespace)
			assert.Equal(t, tt.wantAck, m.AckID)
			assert.Equal(t, tt.wantData, string(m.Data))
		})
	}
}

func TestEventFrame(t *testing.T) {
	data, err := encodeEvent("message", map[string]any{"content": "hi"}, 2)
	require.NoError(t, err)
	assert.Equal(t, `2["message",{"content":"hi"},2]`, string(data))

	m, err := decodeMessage(data)
	require.NoError(t, err)

	name, args, err := eventFrame(m.Data)
	require.NoError(t, err)
	assert.Equal(t, "message", name)
	require.Len(t, args, 2)
	assert.Equal(t, json.RawMessage(`2`), args[1])

	_, _, err = eventFrame(json.RawMessage(`[]`))
	assert.Error(t, err)
	_, _, err = eventFrame(json.RawMessage(`[1]`))
	assert.Error(t, err)
}
