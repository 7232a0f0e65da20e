package realtime

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// PacketType is the Engine.IO packet type, sent as a single ASCII digit.
type PacketType byte

const (
	PacketOpen    PacketType = '0'
	PacketClose   PacketType = '1'
	PacketPing    PacketType = '2'
	PacketPong    PacketType = '3'
	PacketMessage PacketType = '4'
	PacketUpgrade PacketType = '5'
	PacketNoop    PacketType = '6'
)

// payloadSeparator delimits packets inside one long-polling body.
const payloadSeparator = '\x1e'

// Packet is one Engine.IO packet.
type Packet struct {
	Type PacketType
	Data []byte
}

// EncodePacket renders p in text form.
func EncodePacket(p Packet) []byte {
	out := make([]byte, 0, len(p.Data)+1)
	out = append(out, byte(p.Type))
	return append(out, p.Data...)
}

// DecodePacket parses one text packet.
func DecodePacket(b []byte) (Packet, error) {
	if len(b) == 0 {
		return Packet{}, fmt.Errorf("empty packet")
	}
	t := PacketType(b[0])
	if t < PacketOpen || t > PacketNoop {
		return Packet{}, fmt.Errorf("unknown packet type %q", b[0])
	}
	return Packet{Type: t, Data: b[1:]}, nil
}

// EncodePayload joins packets for a long-polling request body.
func EncodePayload(packets []Packet) []byte {
	var buf bytes.Buffer
	for i, p := range packets {
		if i > 0 {
			buf.WriteByte(payloadSeparator)
		}
		buf.Write(EncodePacket(p))
	}
	return buf.Bytes()
}

// DecodePayload splits a long-polling response body into packets.
func DecodePayload(b []byte) ([]Packet, error) {
	parts := bytes.Split(b, []byte{payloadSeparator})
	packets := make([]Packet, 0, len(parts))
	for _, part := range parts {
		p, err := DecodePacket(part)
		if err != nil {
			return nil, err
		}
		packets = append(packets, p)
	}
	return packets, nil
}

// Handshake is the body of the Engine.IO open packet.
type Handshake struct {
	SID          string   `json:"sid"`
	Upgrades     []string `json:"upgrades"`
	PingInterval int      `json:"pingInterval"`
	PingTimeout  int      `json:"pingTimeout"`
	MaxPayload   int      `json:"maxPayload"`
}

// Liveness is how long the peer may stay silent before the transport is
// considered dead.
func (h Handshake) Liveness() time.Duration {
	d := time.Duration(h.PingInterval+h.PingTimeout) * time.Millisecond
	if d <= 0 {
		return 45 * time.Second
	}
	return d
}

func parseHandshake(data []byte) (Handshake, error) {
	var hs Handshake
	if err := json.Unmarshal(data, &hs); err != nil {
		return Handshake{}, fmt.Errorf("invalid open packet: %w", err)
	}
	if hs.SID == "" {
		return Handshake{}, fmt.Errorf("open packet without sid")
	}
	return hs, nil
}

// MessageType is the Socket.IO packet type carried inside an Engine.IO message.
type MessageType byte

const (
	MessageConnect      MessageType = '0'
	MessageDisconnect   MessageType = '1'
	MessageEvent        MessageType = '2'
	MessageAck          MessageType = '3'
	MessageConnectError MessageType = '4'
)

// Message is one decoded Socket.IO packet.
type Message struct {
	Type      MessageType
	Namespace string
	AckID     int
	Data      json.RawMessage
}

// encodeEvent renders an EVENT on the default namespace.
func encodeEvent(name string, args ...any) ([]byte, error) {
	frame := make([]any, 0, len(args)+1)
	frame = append(frame, name)
	frame = append(frame, args...)

	data, err := json.Marshal(frame)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(MessageEvent)}, data...), nil
}

// decodeMessage parses <type>[/nsp,][ackId][json].
func decodeMessage(b []byte) (Message, error) {
	if len(b) == 0 {
		return Message{}, fmt.Errorf("empty message")
	}

	m := Message{Type: MessageType(b[0]), Namespace: "/", AckID: -1}
	if m.Type < MessageConnect || m.Type > MessageConnectError {
		return Message{}, fmt.Errorf("unknown message type %q", b[0])
	}
	rest := b[1:]

	if len(rest) > 0 && rest[0] == '/' {
		end := bytes.IndexByte(rest, ',')
		if end < 0 {
			m.Namespace = string(rest)
			return m, nil
		}
		m.Namespace = string(rest[:end])
		rest = rest[end+1:]
	}

	digits := 0
	for digits < len(rest) && rest[digits] >= '0' && rest[digits] <= '9' {
		digits++
	}
	if digits > 0 {
		id, err := strconv.Atoi(string(rest[:digits]))
		if err != nil {
			return Message{}, fmt.Errorf("invalid ack id: %w", err)
		}
		m.AckID = id
		rest = rest[digits:]
	}

	if len(rest) > 0 {
		if !json.Valid(rest) {
			return Message{}, fmt.Errorf("invalid message payload")
		}
		m.Data = json.RawMessage(rest)
	}
	return m, nil
}

// eventFrame splits an EVENT payload into its name and arguments.
func eventFrame(data json.RawMessage) (string, []json.RawMessage, error) {
	var frame []json.RawMessage
	if err := json.Unmarshal(data, &frame); err != nil {
		return "", nil, err
	}
	if len(frame) == 0 {
		return "", nil, fmt.Errorf("event without name")
	}

	var name string
	if err := json.Unmarshal(frame[0], &name); err != nil {
		return "", nil, fmt.Errorf("event name is not a string: %w", err)
	}
	return name, frame[1:], nil
}
