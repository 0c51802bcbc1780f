// Package message implements the protocol's typed message envelope (spec
// §3 Message, §4.8): JSON-serialized HELLO/ACCEPT/REJECT/DATA/PING/PONG/
// CLOSE frames exchanged over the session handshake and data path.
package message

import (
	"encoding/json"

	"github.com/infernet-m2m/m2m-core/pkg/algorithm"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/protocol/capabilities"
)

// Type identifies a message's wire type.
type Type string

const (
	TypeHello  Type = "HELLO"
	TypeAccept Type = "ACCEPT"
	TypeReject Type = "REJECT"
	TypeData   Type = "DATA"
	TypePing   Type = "PING"
	TypePong   Type = "PONG"
	TypeClose  Type = "CLOSE"
)

// Rejection is a REJECT message's payload.
type Rejection struct {
	Code    m2merr.RejectionCode `json:"code"`
	Message string               `json:"message"`
}

// SecurityStatus optionally annotates a DATA payload with the scanner
// verdict that allowed it through.
type SecurityStatus struct {
	Safe       bool     `json:"safe"`
	Confidence float64  `json:"confidence"`
	Threats    []string `json:"threats,omitempty"`
}

// Data is a DATA message's payload: a compressed/encoded wire string plus
// bookkeeping (spec §6).
type Data struct {
	Algorithm      algorithm.Algorithm `json:"-"`
	Content        string              `json:"content"`
	OriginalSize   *uint64             `json:"original_size,omitempty"`
	SecurityStatus *SecurityStatus     `json:"security_status,omitempty"`
}

// dataWire is Data's JSON shape; Algorithm is serialized as its wire name
// rather than its internal numeric tag.
type dataWire struct {
	Algorithm      string          `json:"algorithm"`
	Content        string          `json:"content"`
	OriginalSize   *uint64         `json:"original_size,omitempty"`
	SecurityStatus *SecurityStatus `json:"security_status,omitempty"`
}

func (d Data) MarshalJSON() ([]byte, error) {
	return json.Marshal(dataWire{
		Algorithm:      d.Algorithm.String(),
		Content:        d.Content,
		OriginalSize:   d.OriginalSize,
		SecurityStatus: d.SecurityStatus,
	})
}

func (d *Data) UnmarshalJSON(raw []byte) error {
	var w dataWire
	if err := json.Unmarshal(raw, &w); err != nil {
		return err
	}
	alg, ok := algorithm.Parse(w.Algorithm)
	if !ok {
		return m2merr.NewInvalidMessageError("unrecognized data algorithm: " + w.Algorithm)
	}
	d.Algorithm = alg
	d.Content = w.Content
	d.OriginalSize = w.OriginalSize
	d.SecurityStatus = w.SecurityStatus
	return nil
}

// Message is the typed envelope every protocol exchange uses (spec §3, §4.8).
// Exactly one of Capabilities/Rejection/Data is populated, matching Type;
// PING/PONG/CLOSE carry no payload.
type Message struct {
	Type         Type
	SessionID    string
	Capabilities *capabilities.Capabilities
	Rejection    *Rejection
	Data         *Data
	TimestampMS  uint64
}

// wireEnvelope is the message's JSON shape (spec §6: {type, session_id?,
// payload?, timestamp}).
type wireEnvelope struct {
	Type      Type            `json:"type"`
	SessionID *string         `json:"session_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp uint64          `json:"timestamp"`
}

// capabilitiesWire mirrors capabilities.Capabilities field-for-field for
// JSON; it exists because Capabilities carries no json tags of its own
// (the capabilities package is transport-agnostic).
type capabilitiesWire struct {
	Version     string              `json:"version"`
	AgentID     string              `json:"agent_id"`
	AgentType   string              `json:"agent_type"`
	Compression compressionCapsWire `json:"compression"`
	Security    securityCapsWire    `json:"security"`
	Extensions  map[string]string   `json:"extensions,omitempty"`
}

type compressionCapsWire struct {
	Algorithms        []string `json:"algorithms"`
	Encodings         []string `json:"encodings"`
	PreferredEncoding string   `json:"preferred_encoding"`
	MaxPayload        uint64   `json:"max_payload"`
	Streaming         bool     `json:"streaming"`
	MLRouting         bool     `json:"ml_routing"`
}

type securityCapsWire struct {
	ThreatDetection bool    `json:"threat_detection"`
	BlockingMode    bool    `json:"blocking_mode"`
	BlockThreshold  float64 `json:"block_threshold"`
}

func toCapabilitiesWire(c capabilities.Capabilities) capabilitiesWire {
	algs := make([]string, len(c.Compression.Algorithms))
	for i, a := range c.Compression.Algorithms {
		algs[i] = a.String()
	}
	return capabilitiesWire{
		Version:   c.Version,
		AgentID:   c.AgentID,
		AgentType: c.AgentType,
		Compression: compressionCapsWire{
			Algorithms:        algs,
			Encodings:         c.Compression.Encodings,
			PreferredEncoding: c.Compression.PreferredEncoding,
			MaxPayload:        c.Compression.MaxPayload,
			Streaming:         c.Compression.Streaming,
			MLRouting:         c.Compression.MLRouting,
		},
		Security: securityCapsWire{
			ThreatDetection: c.Security.ThreatDetection,
			BlockingMode:    c.Security.BlockingMode,
			BlockThreshold:  c.Security.BlockThreshold,
		},
		Extensions: c.Extensions,
	}
}

func fromCapabilitiesWire(w capabilitiesWire) (capabilities.Capabilities, error) {
	algs := make([]algorithm.Algorithm, len(w.Compression.Algorithms))
	for i, s := range w.Compression.Algorithms {
		alg, ok := algorithm.Parse(s)
		if !ok {
			return capabilities.Capabilities{}, m2merr.NewInvalidMessageError("unrecognized algorithm: " + s)
		}
		algs[i] = alg
	}
	return capabilities.Capabilities{
		Version:   w.Version,
		AgentID:   w.AgentID,
		AgentType: w.AgentType,
		Compression: capabilities.CompressionCaps{
			Algorithms:        algs,
			Encodings:         w.Compression.Encodings,
			PreferredEncoding: w.Compression.PreferredEncoding,
			MaxPayload:        w.Compression.MaxPayload,
			Streaming:         w.Compression.Streaming,
			MLRouting:         w.Compression.MLRouting,
		},
		Security: capabilities.SecurityCaps{
			ThreatDetection: w.Security.ThreatDetection,
			BlockingMode:    w.Security.BlockingMode,
			BlockThreshold:  w.Security.BlockThreshold,
		},
		Extensions: w.Extensions,
	}, nil
}

// Encode serializes m to its JSON wire form.
func Encode(m Message) ([]byte, error) {
	env := wireEnvelope{Type: m.Type, Timestamp: m.TimestampMS}
	if m.SessionID != "" {
		env.SessionID = &m.SessionID
	}

	switch {
	case m.Capabilities != nil:
		raw, err := json.Marshal(toCapabilitiesWire(*m.Capabilities))
		if err != nil {
			return nil, m2merr.NewJSONError("encode capabilities payload", err)
		}
		env.Payload = raw
	case m.Rejection != nil:
		raw, err := json.Marshal(m.Rejection)
		if err != nil {
			return nil, m2merr.NewJSONError("encode rejection payload", err)
		}
		env.Payload = raw
	case m.Data != nil:
		raw, err := json.Marshal(m.Data)
		if err != nil {
			return nil, m2merr.NewJSONError("encode data payload", err)
		}
		env.Payload = raw
	default:
		env.Payload = json.RawMessage("{}")
	}

	buf, err := json.Marshal(env)
	if err != nil {
		return nil, m2merr.NewJSONError("encode message envelope", err)
	}
	return buf, nil
}

// Decode parses a message's JSON wire form, dispatching the payload shape
// by Type.
func Decode(raw []byte) (Message, error) {
	var env wireEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Message{}, m2merr.NewInvalidMessageError("malformed envelope: " + err.Error())
	}

	m := Message{Type: env.Type, TimestampMS: env.Timestamp}
	if env.SessionID != nil {
		m.SessionID = *env.SessionID
	}

	switch env.Type {
	case TypeHello, TypeAccept:
		var cw capabilitiesWire
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &cw); err != nil {
				return Message{}, m2merr.NewInvalidMessageError("malformed capabilities payload: " + err.Error())
			}
		}
		caps, err := fromCapabilitiesWire(cw)
		if err != nil {
			return Message{}, err
		}
		m.Capabilities = &caps

	case TypeReject:
		var r Rejection
		if len(env.Payload) > 0 {
			if err := json.Unmarshal(env.Payload, &r); err != nil {
				return Message{}, m2merr.NewInvalidMessageError("malformed rejection payload: " + err.Error())
			}
		}
		m.Rejection = &r

	case TypeData:
		var d Data
		if len(env.Payload) == 0 {
			return Message{}, m2merr.NewInvalidMessageError("data message missing payload")
		}
		if err := json.Unmarshal(env.Payload, &d); err != nil {
			return Message{}, err
		}
		m.Data = &d

	case TypePing, TypePong, TypeClose:
		// no payload

	default:
		return Message{}, m2merr.NewInvalidMessageError("unrecognized message type: " + string(env.Type))
	}

	return m, nil
}
