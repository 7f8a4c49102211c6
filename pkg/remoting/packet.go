// Package remoting implements the AMF Remoting packet envelope: a
// versioned header/message container whose bodies are AMF0 values,
// built on top of pkg/amf.
package remoting

import "github.com/amfcodec/amf/pkg/amf"

// Header is one Remoting header entry: a name, a mustUnderstand flag,
// and an AMF0-encoded value.
type Header struct {
	Name           string
	MustUnderstand bool
	Value          amf.Value
}

// Message is one Remoting message: a target/response URI pair and an
// AMF0-encoded body value.
type Message struct {
	TargetURI   string
	ResponseURI string
	Value       amf.Value
}

// Packet is a full Remoting envelope.
type Packet struct {
	Version  uint16
	Headers  []Header
	Messages []Message

	// ByteLength is the number of input bytes DecodePacket consumed to
	// produce this packet. Bytes past the last message are not read.
	// Ignored by EncodePacket.
	ByteLength int
}
