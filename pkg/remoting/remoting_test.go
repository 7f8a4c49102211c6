package remoting

import (
	"testing"

	"github.com/amfcodec/amf/pkg/amf"
)

func TestPacketRoundTripSimple(t *testing.T) {
	pkt := &Packet{
		Version: 0,
		Headers: []Header{
			{Name: "DSId", MustUnderstand: false, Value: amf.String("nil")},
		},
		Messages: []Message{
			{TargetURI: "PlayerService.login", ResponseURI: "/1", Value: amf.String("ok")},
		},
	}

	data, err := EncodePacket(pkt)
	if err != nil {
		t.Fatalf("EncodePacket: %v", err)
	}
	got, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}

	if got.Version != pkt.Version {
		t.Errorf("version: got %d, want %d", got.Version, pkt.Version)
	}
	if len(got.Headers) != 1 || got.Headers[0].Name != "DSId" {
		t.Fatalf("headers: got %#v", got.Headers)
	}
	if len(got.Messages) != 1 || got.Messages[0].TargetURI != "PlayerService.login" {
		t.Fatalf("messages: got %#v", got.Messages)
	}
	if got.Messages[0].ResponseURI != "/1" {
		t.Errorf("responseURI: got %q", got.Messages[0].ResponseURI)
	}
}

// This mirrors the envelope scenario: one header (DSId: "nil") and one
// AMF3 message body at PlayerService.login carrying a nested command
// envelope whose argument is itself a typed login-request object.
func TestPacketRoundTripNestedAMF3Classes(t *testing.T) {
	loginRequest := &amf.Object{
		ClassName: "com.ninjasaga.protocol.LoginRequest",
		Sealed: []amf.KV{
			{Name: "username", Value: amf.String("player1")},
		},
	}
	args := amf.NewArray()
	args.Dense = []amf.Value{loginRequest}
	envelope := &amf.Object{
		ClassName: "com.ninjasaga.protocol.CommandEnvelope",
		Sealed: []amf.KV{
			{Name: "command", Value: amf.String("login")},
			{Name: "args", Value: args},
		},
	}

	pkt := &Packet{
		Version: 3,
		Headers: []Header{
			{Name: "DSId", MustUnderstand: false, Value: amf.String("nil")},
		},
		Messages: []Message{
			{
				TargetURI:   "PlayerService.login",
				ResponseURI: "/1",
				Value:       &amf.AVM3{Value: envelope},
			},
		},
	}

	data, err := EncodePacket(pkt)
	if err != nil {
		t.Fatalf("EncodePacket: %v", err)
	}
	got, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}

	if got.Version != 3 {
		t.Errorf("version: got %d", got.Version)
	}
	if len(got.Headers) != 1 || got.Headers[0].Name != "DSId" {
		t.Fatalf("headers: got %#v", got.Headers)
	}
	if s, ok := got.Headers[0].Value.(amf.String); !ok || s != "nil" {
		t.Errorf("DSId value: got %#v", got.Headers[0].Value)
	}

	if len(got.Messages) != 1 {
		t.Fatalf("messages: got %#v", got.Messages)
	}
	msg := got.Messages[0]
	if msg.TargetURI != "PlayerService.login" || msg.ResponseURI != "/1" {
		t.Fatalf("message URIs: got %q %q", msg.TargetURI, msg.ResponseURI)
	}

	outEnvelope, ok := msg.Value.(*amf.Object)
	if !ok {
		t.Fatalf("message value: got %T", msg.Value)
	}
	if outEnvelope.ClassName != "com.ninjasaga.protocol.CommandEnvelope" {
		t.Errorf("envelope class: got %q", outEnvelope.ClassName)
	}
	if len(outEnvelope.Sealed) != 2 || outEnvelope.Sealed[1].Name != "args" {
		t.Fatalf("envelope sealed: got %#v", outEnvelope.Sealed)
	}
	outArgs, ok := outEnvelope.Sealed[1].Value.(*amf.Array)
	if !ok || len(outArgs.Dense) != 1 {
		t.Fatalf("args: got %#v", outEnvelope.Sealed[1].Value)
	}
	outLogin, ok := outArgs.Dense[0].(*amf.Object)
	if !ok || outLogin.ClassName != "com.ninjasaga.protocol.LoginRequest" {
		t.Fatalf("login request: got %#v", outArgs.Dense[0])
	}
}

func TestDecodePacketNegativeLengthSentinel(t *testing.T) {
	pkt := &Packet{
		Version: 0,
		Messages: []Message{
			{TargetURI: "x", ResponseURI: "/1", Value: amf.Double(1)},
		},
	}
	data, err := EncodePacket(pkt)
	if err != nil {
		t.Fatalf("EncodePacket: %v", err)
	}
	// Overwrite the bodyLength field (the 4 bytes right before the AMF0
	// payload) with -1, the "unknown length" sentinel.
	bodyLenOffset := len(data) - (1 /*number marker*/ + 8 /*double*/) - 4
	data[bodyLenOffset] = 0xFF
	data[bodyLenOffset+1] = 0xFF
	data[bodyLenOffset+2] = 0xFF
	data[bodyLenOffset+3] = 0xFF

	got, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if len(got.Messages) != 1 {
		t.Fatalf("got %#v", got.Messages)
	}
	if d, ok := got.Messages[0].Value.(amf.Double); !ok || float64(d) != 1 {
		t.Fatalf("got %#v", got.Messages[0].Value)
	}
}

func TestDecodePacketByteLength(t *testing.T) {
	pkt := &Packet{
		Version: 0,
		Messages: []Message{
			{TargetURI: "x", ResponseURI: "/1", Value: amf.Double(1)},
		},
	}
	data, err := EncodePacket(pkt)
	if err != nil {
		t.Fatalf("EncodePacket: %v", err)
	}
	wellFormed := len(data)
	data = append(data, 0xDE, 0xAD) // trailing bytes past the last message

	got, err := DecodePacket(data)
	if err != nil {
		t.Fatalf("DecodePacket: %v", err)
	}
	if got.ByteLength != wellFormed {
		t.Errorf("ByteLength: got %d, want %d", got.ByteLength, wellFormed)
	}
}

func TestDecodePacketTruncated(t *testing.T) {
	_, err := DecodePacket([]byte{0x00})
	if err != ErrTruncated {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
}
