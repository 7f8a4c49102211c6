package remoting

import (
	"bytes"
	"encoding/binary"
	"unicode/utf8"

	"github.com/amfcodec/amf/pkg/amf"
)

type packetReader struct {
	r *bytes.Reader
}

func (p *packetReader) readByte() (byte, error) {
	b, err := p.r.ReadByte()
	if err != nil {
		return 0, ErrTruncated
	}
	return b, nil
}

func (p *packetReader) readBytes(n int) ([]byte, error) {
	if n < 0 || n > p.r.Len() {
		return nil, ErrTruncated
	}
	buf := make([]byte, n)
	if _, err := p.r.Read(buf); err != nil {
		return nil, ErrTruncated
	}
	return buf, nil
}

func (p *packetReader) readUint16() (uint16, error) {
	buf, err := p.readBytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf), nil
}

func (p *packetReader) readInt32() (int32, error) {
	buf, err := p.readBytes(4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf)), nil
}

func (p *packetReader) readUTFString() (string, error) {
	n, err := p.readUint16()
	if err != nil {
		return "", err
	}
	buf, err := p.readBytes(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(buf) {
		return "", amf.ErrInvalidUTF8
	}
	return string(buf), nil
}

// advanceToWindow implements the envelope's length-handling rule: a
// nonnegative declared length advances the cursor to valueStart+length,
// silently discarding trailing bytes within that window; a negative
// (sentinel "unknown") length leaves the cursor where actual AMF
// decoding left it.
func (p *packetReader) advanceToWindow(valueStartLen int, declared int32) error {
	if declared < 0 {
		return nil
	}
	consumed := valueStartLen - p.r.Len()
	target := int(declared) - consumed
	if target < 0 {
		return nil
	}
	if target > p.r.Len() {
		return ErrTruncated
	}
	if target > 0 {
		if _, err := p.readBytes(target); err != nil {
			return err
		}
	}
	return nil
}

// DecodePacket decodes a full Remoting envelope from data.
func DecodePacket(data []byte) (*Packet, error) {
	p := &packetReader{r: bytes.NewReader(data)}

	version, err := p.readUint16()
	if err != nil {
		return nil, err
	}
	pkt := &Packet{Version: version}

	headerCount, err := p.readUint16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(headerCount); i++ {
		h, err := p.decodeHeader()
		if err != nil {
			return nil, err
		}
		pkt.Headers = append(pkt.Headers, h)
	}

	messageCount, err := p.readUint16()
	if err != nil {
		return nil, err
	}
	for i := 0; i < int(messageCount); i++ {
		m, err := p.decodeMessage()
		if err != nil {
			return nil, err
		}
		pkt.Messages = append(pkt.Messages, m)
	}

	pkt.ByteLength = len(data) - p.r.Len()
	return pkt, nil
}

func (p *packetReader) decodeHeader() (Header, error) {
	name, err := p.readUTFString()
	if err != nil {
		return Header{}, err
	}
	mustUnderstandByte, err := p.readByte()
	if err != nil {
		return Header{}, err
	}
	contentLength, err := p.readInt32()
	if err != nil {
		return Header{}, err
	}
	startLen := p.r.Len()
	val, err := amf.DecodeAMF0WithLimit(p.r, MaxAlloc)
	if err != nil {
		return Header{}, err
	}
	if err := p.advanceToWindow(startLen, contentLength); err != nil {
		return Header{}, err
	}
	return Header{Name: name, MustUnderstand: mustUnderstandByte != 0, Value: val}, nil
}

func (p *packetReader) decodeMessage() (Message, error) {
	targetURI, err := p.readUTFString()
	if err != nil {
		return Message{}, err
	}
	responseURI, err := p.readUTFString()
	if err != nil {
		return Message{}, err
	}
	bodyLength, err := p.readInt32()
	if err != nil {
		return Message{}, err
	}
	startLen := p.r.Len()
	val, err := amf.DecodeAMF0WithLimit(p.r, MaxAlloc)
	if err != nil {
		return Message{}, err
	}
	if err := p.advanceToWindow(startLen, bodyLength); err != nil {
		return Message{}, err
	}
	return Message{TargetURI: targetURI, ResponseURI: responseURI, Value: val}, nil
}
