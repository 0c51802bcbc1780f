// Package session implements the per-connection state machine (spec §3
// Session, §4.9): HELLO/ACCEPT/REJECT handshake, DATA/PING/PONG exchange
// gated on Established, CLOSE/expiry teardown, and usage counters. A
// Session is single-owner (spec §5): callers serialize their own access,
// same as the teacher's provider clients assume single-goroutine use per
// request.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/infernet-m2m/m2m-core/pkg/algorithm"
	"github.com/infernet-m2m/m2m-core/pkg/codec"
	"github.com/infernet-m2m/m2m-core/pkg/m2merr"
	"github.com/infernet-m2m/m2m-core/pkg/protocol/capabilities"
	"github.com/infernet-m2m/m2m-core/pkg/protocol/message"
	"github.com/infernet-m2m/m2m-core/pkg/telemetry"
)

// State is one of the session's five lifecycle states (spec §4.9).
type State int

const (
	Initial State = iota
	HelloSent
	Established
	Closing
	Closed
)

func (s State) String() string {
	switch s {
	case Initial:
		return "initial"
	case HelloSent:
		return "hello_sent"
	case Established:
		return "established"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "unknown"
	}
}

// DefaultTimeout is the session idle timeout (spec §4.9, §5: 300s).
const DefaultTimeout = 300 * time.Second

// Stats carries the session's monotonic usage counters (spec §4.9).
type Stats struct {
	MessagesSent     uint64
	MessagesReceived uint64
	BytesCompressed  uint64
	BytesSaved       uint64
}

// Session is one end of a handshake-negotiated connection.
type Session struct {
	ID           string
	State        State
	LocalCaps    capabilities.Capabilities
	RemoteCaps   *capabilities.Capabilities
	Negotiated   *capabilities.NegotiatedCaps
	Engine       *codec.Engine
	LastActivity time.Time
	Timeout      time.Duration
	Stats        Stats

	// Telemetry configures the spans Compress/DecompressTraced emit.
	// Nil (the default) behaves exactly like telemetry.DefaultSettings
	// with IsEnabled = false: a no-op tracer.
	Telemetry *telemetry.Settings

	rejectReason *message.Rejection
	now          func() time.Time
}

// New creates a Session in the Initial state with a locally generated v4
// UUID id (spec §4.9: "client generates v4 UUID in Initial").
func New(localCaps capabilities.Capabilities, engine *codec.Engine) *Session {
	now := time.Now()
	return &Session{
		ID:           uuid.NewString(),
		State:        Initial,
		LocalCaps:    localCaps,
		Engine:       engine,
		LastActivity: now,
		Timeout:      DefaultTimeout,
		now:          time.Now,
	}
}

func (s *Session) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *Session) touch() {
	s.LastActivity = s.clock()
}

// Expired reports whether the session has been idle past its timeout
// (spec §4.9, §5: evaluated lazily, no background reaper).
func (s *Session) Expired() bool {
	return s.clock().Sub(s.LastActivity) > s.Timeout
}

// CreateHello transitions Initial -> HelloSent and builds the HELLO
// message carrying local capabilities (spec §4.9).
func (s *Session) CreateHello() (message.Message, error) {
	if s.State != Initial {
		return message.Message{}, m2merr.NewProtocolError("create_hello requires Initial state, have " + s.State.String())
	}
	s.State = HelloSent
	s.touch()
	s.Stats.MessagesSent++
	caps := s.LocalCaps
	return message.Message{
		Type:         message.TypeHello,
		Capabilities: &caps,
		TimestampMS:  uint64(s.clock().UnixMilli()),
	}, nil
}

// RecvHello handles an inbound HELLO while Initial: negotiates
// capabilities and returns an ACCEPT (transitioning to Established) or,
// on negotiation failure, a REJECT (transitioning to Closed) (spec §4.9).
func (s *Session) RecvHello(remote message.Message) (message.Message, error) {
	if s.State != Initial {
		return message.Message{}, m2merr.NewProtocolError("recv HELLO requires Initial state, have " + s.State.String())
	}
	if remote.Type != message.TypeHello || remote.Capabilities == nil {
		return message.Message{}, m2merr.NewInvalidMessageError("expected HELLO with capabilities payload")
	}
	s.touch()
	s.Stats.MessagesReceived++
	s.RemoteCaps = remote.Capabilities

	negotiated, err := capabilities.Negotiate(s.LocalCaps, *remote.Capabilities)
	if err != nil {
		var negErr *m2merr.NegotiationFailedError
		code := m2merr.RejectUnknown
		if asNegErr(err, &negErr) {
			code = negErr.Code
		}
		s.rejectReason = &message.Rejection{Code: code, Message: err.Error()}
		s.State = Closed
		s.Stats.MessagesSent++
		return message.Message{
			Type:        message.TypeReject,
			Rejection:   s.rejectReason,
			TimestampMS: uint64(s.clock().UnixMilli()),
		}, nil
	}

	s.Negotiated = &negotiated
	s.State = Established
	s.Stats.MessagesSent++
	caps := s.LocalCaps
	return message.Message{
		Type:         message.TypeAccept,
		SessionID:    s.ID,
		Capabilities: &caps,
		TimestampMS:  uint64(s.clock().UnixMilli()),
	}, nil
}

func asNegErr(err error, target **m2merr.NegotiationFailedError) bool {
	if e, ok := err.(*m2merr.NegotiationFailedError); ok {
		*target = e
		return true
	}
	return false
}

// RecvAccept handles an inbound ACCEPT while HelloSent: adopts the
// server's session id and stores the negotiated capabilities (spec §4.9,
// "both peers MUST end up with equal ids").
func (s *Session) RecvAccept(remote message.Message) error {
	if s.State != HelloSent {
		return m2merr.NewProtocolError("recv ACCEPT requires HelloSent state, have " + s.State.String())
	}
	if remote.Type != message.TypeAccept || remote.Capabilities == nil {
		return m2merr.NewInvalidMessageError("expected ACCEPT with capabilities payload")
	}
	s.touch()
	s.Stats.MessagesReceived++
	s.RemoteCaps = remote.Capabilities
	s.ID = remote.SessionID

	negotiated, err := capabilities.Negotiate(s.LocalCaps, *remote.Capabilities)
	if err != nil {
		return err
	}
	s.Negotiated = &negotiated
	s.State = Established
	return nil
}

// RecvReject handles an inbound REJECT while HelloSent: records the
// rejection reason and closes the session (spec §4.9).
func (s *Session) RecvReject(remote message.Message) error {
	if s.State != HelloSent {
		return m2merr.NewProtocolError("recv REJECT requires HelloSent state, have " + s.State.String())
	}
	if remote.Type != message.TypeReject || remote.Rejection == nil {
		return m2merr.NewInvalidMessageError("expected REJECT with rejection payload")
	}
	s.touch()
	s.Stats.MessagesReceived++
	s.rejectReason = remote.Rejection
	s.State = Closed
	return nil
}

// RejectReason returns the rejection this session recorded, if any.
func (s *Session) RejectReason() *message.Rejection { return s.rejectReason }

// requireEstablished checks the gating condition every data op shares
// (spec §4.9: "Data ops gated on Established and !expired").
func (s *Session) requireEstablished() error {
	if s.State != Established {
		return m2merr.ErrSessionNotEstablished
	}
	if s.Expired() {
		return m2merr.ErrSessionExpired
	}
	return nil
}

// Compress compresses content through the session's codec engine,
// building a DATA message and updating byte counters (spec §4.9).
func (s *Session) Compress(content string) (message.Message, error) {
	if err := s.requireEstablished(); err != nil {
		return message.Message{}, err
	}
	result, err := s.Engine.Compress(content)
	if err != nil {
		return message.Message{}, err
	}
	s.touch()
	s.Stats.MessagesSent++
	s.Stats.BytesCompressed += uint64(result.CompressedBytes)
	if saved := result.OriginalBytes - result.CompressedBytes; saved > 0 {
		s.Stats.BytesSaved += uint64(saved)
	}

	originalSize := uint64(result.OriginalBytes)
	return message.Message{
		Type:      message.TypeData,
		SessionID: s.ID,
		Data: &message.Data{
			Algorithm:    result.Algorithm,
			Content:      result.Data,
			OriginalSize: &originalSize,
		},
		TimestampMS: uint64(s.clock().UnixMilli()),
	}, nil
}

// Decompress decodes an inbound DATA message's content back to plaintext
// through the session's codec engine (spec §4.9).
func (s *Session) Decompress(msg message.Message) (string, error) {
	if err := s.requireEstablished(); err != nil {
		return "", err
	}
	if msg.Type != message.TypeData || msg.Data == nil {
		return "", m2merr.NewInvalidMessageError("expected DATA message")
	}
	text, alg, err := s.Engine.Decompress(msg.Data.Content)
	if err != nil {
		return "", err
	}
	if alg != msg.Data.Algorithm && msg.Data.Algorithm != algorithm.None {
		return "", m2merr.NewInvalidMessageError("data algorithm mismatch with detected wire prefix")
	}
	s.touch()
	s.Stats.MessagesReceived++
	return text, nil
}

// CompressTraced wraps Compress in an OpenTelemetry span carrying the
// negotiated (or, pre-negotiation, none) algorithm as an attribute. With a
// nil or disabled s.Telemetry it costs one no-op tracer call.
func (s *Session) CompressTraced(ctx context.Context, content string) (message.Message, error) {
	alg := "none"
	if s.Negotiated != nil {
		alg = s.Negotiated.Algorithm.String()
	}
	return telemetry.RecordSpan(ctx, telemetry.GetTracer(s.Telemetry), telemetry.SpanOptions{
		Name:        "m2m.session.compress",
		Attributes:  telemetry.GetBaseAttributes("compress", alg, s.Telemetry),
		EndWhenDone: true,
	}, func(_ context.Context, span trace.Span) (message.Message, error) {
		s.recordNegotiatedAttributes(span)
		return s.Compress(content)
	})
}

// DecompressTraced wraps Decompress in an OpenTelemetry span.
func (s *Session) DecompressTraced(ctx context.Context, msg message.Message) (string, error) {
	alg := "none"
	if msg.Data != nil {
		alg = msg.Data.Algorithm.String()
	}
	return telemetry.RecordSpan(ctx, telemetry.GetTracer(s.Telemetry), telemetry.SpanOptions{
		Name:        "m2m.session.decompress",
		Attributes:  telemetry.GetBaseAttributes("decompress", alg, s.Telemetry),
		EndWhenDone: true,
	}, func(_ context.Context, span trace.Span) (string, error) {
		s.recordNegotiatedAttributes(span)
		return s.Decompress(msg)
	})
}

// recordNegotiatedAttributes adds the session's negotiated capability
// flags to span, gated on Telemetry.RecordPayloads (these are this
// session's own settings, never peer-supplied free-form extensions).
func (s *Session) recordNegotiatedAttributes(span trace.Span) {
	if s.Telemetry == nil || !s.Telemetry.RecordPayloads || s.Negotiated == nil {
		return
	}
	telemetry.AddSettingsAttributes(span, "m2m.negotiated", map[string]interface{}{
		"encoding":         s.Negotiated.Encoding,
		"streaming":        s.Negotiated.Streaming,
		"ml_routing":       s.Negotiated.MLRouting,
		"threat_detection": s.Negotiated.ThreatDetection,
		"blocking_mode":    s.Negotiated.BlockingMode,
	})
}

// RecvPing handles an inbound PING while Established, returning a PONG
// (spec §4.9).
func (s *Session) RecvPing(remote message.Message) (message.Message, error) {
	if s.State != Established {
		return message.Message{}, m2merr.NewProtocolError("recv PING requires Established state, have " + s.State.String())
	}
	if remote.Type != message.TypePing {
		return message.Message{}, m2merr.NewInvalidMessageError("expected PING")
	}
	s.touch()
	s.Stats.MessagesReceived++
	s.Stats.MessagesSent++
	return message.Message{Type: message.TypePong, SessionID: s.ID, TimestampMS: uint64(s.clock().UnixMilli())}, nil
}

// RecvPong handles an inbound PONG while Established: it only records
// activity (spec §4.9).
func (s *Session) RecvPong(remote message.Message) error {
	if s.State != Established {
		return m2merr.NewProtocolError("recv PONG requires Established state, have " + s.State.String())
	}
	if remote.Type != message.TypePong {
		return m2merr.NewInvalidMessageError("expected PONG")
	}
	s.touch()
	s.Stats.MessagesReceived++
	return nil
}

// Close transitions to Closing and emits a CLOSE message (spec §4.9).
func (s *Session) Close() (message.Message, error) {
	if s.State == Closed {
		return message.Message{}, m2merr.NewProtocolError("session already closed")
	}
	s.State = Closing
	s.touch()
	s.Stats.MessagesSent++
	return message.Message{Type: message.TypeClose, SessionID: s.ID, TimestampMS: uint64(s.clock().UnixMilli())}, nil
}

// RecvClose handles an inbound CLOSE from any non-Closed state (spec
// §4.9: "Closing / any | recv CLOSE | mark closed | Closed").
func (s *Session) RecvClose(remote message.Message) error {
	if s.State == Closed {
		return nil
	}
	if remote.Type != message.TypeClose {
		return m2merr.NewInvalidMessageError("expected CLOSE")
	}
	s.touch()
	s.Stats.MessagesReceived++
	s.State = Closed
	return nil
}
