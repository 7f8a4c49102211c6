package remoting

import (
	"bytes"
	"encoding/binary"

	"github.com/amfcodec/amf/pkg/amf"
)

// MaxAlloc bounds the size of any single header/message body this
// encoder will accept, mirroring pkg/amf's allocation ceiling.
// amf0Encoder itself grows its bytes.Buffer without a fixed
// scratch tier, so the ceiling is enforced here, after measuring the
// actual encoded length, rather than via a doubled-scratch-buffer retry
// loop.
const MaxAlloc = amf.DefaultMaxAlloc

type packetWriter struct {
	w *bytes.Buffer
}

func (p *packetWriter) writeByte(b byte) {
	p.w.WriteByte(b)
}

func (p *packetWriter) writeUint16(n uint16) {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], n)
	p.w.Write(buf[:])
}

func (p *packetWriter) writeInt32(n int32) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(n))
	p.w.Write(buf[:])
}

func (p *packetWriter) writeUTFString(s string) error {
	if len(s) > 0xFFFF {
		return amf.ErrOutOfRange
	}
	p.writeUint16(uint16(len(s)))
	p.w.WriteString(s)
	return nil
}

// EncodePacket encodes a full Remoting envelope.
func EncodePacket(pkt *Packet) ([]byte, error) {
	p := &packetWriter{w: &bytes.Buffer{}}

	p.writeUint16(pkt.Version)
	p.writeUint16(uint16(len(pkt.Headers)))
	for _, h := range pkt.Headers {
		if err := p.encodeHeader(h); err != nil {
			return nil, err
		}
	}
	p.writeUint16(uint16(len(pkt.Messages)))
	for _, m := range pkt.Messages {
		if err := p.encodeMessage(m); err != nil {
			return nil, err
		}
	}
	return p.w.Bytes(), nil
}

func (p *packetWriter) encodeHeader(h Header) error {
	if err := p.writeUTFString(h.Name); err != nil {
		return err
	}
	if h.MustUnderstand {
		p.writeByte(1)
	} else {
		p.writeByte(0)
	}
	body, err := amf.EncodeAMF0(h.Value)
	if err != nil {
		return err
	}
	if len(body) > MaxAlloc {
		return ErrAllocCeilingExceeded
	}
	p.writeInt32(int32(len(body)))
	p.w.Write(body)
	return nil
}

func (p *packetWriter) encodeMessage(m Message) error {
	if err := p.writeUTFString(m.TargetURI); err != nil {
		return err
	}
	if err := p.writeUTFString(m.ResponseURI); err != nil {
		return err
	}
	body, err := amf.EncodeAMF0(m.Value)
	if err != nil {
		return err
	}
	if len(body) > MaxAlloc {
		return ErrAllocCeilingExceeded
	}
	p.writeInt32(int32(len(body)))
	p.w.Write(body)
	return nil
}
