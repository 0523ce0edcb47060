package manifest

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/hupe1980/sarstore/codec"
	"github.com/hupe1980/sarstore/errs"
	"github.com/zeebo/blake3"
)

const (
	envelopeMagic = 0x4D524153 // "SARM"
	// CurrentVersion is the envelope format version.
	CurrentVersion = 1
	digestSize     = 32
)

var (
	// ErrIncompatibleVersion is returned when the envelope version is not supported.
	ErrIncompatibleVersion = errors.New("incompatible manifest version")
	// ErrCorrupt is returned when the envelope is malformed or its digest
	// does not match the body.
	ErrCorrupt = errors.New("manifest corrupt")
)

// Encode wraps v, encoded with c, in an envelope.
// Format (little endian):
// Magic (4 bytes)
// Version (2 bytes)
// CodecNameLen (1 byte)
// CodecName
// Digest (32 bytes) - BLAKE3 of Body
// BodyLength (4 bytes)
// Body
func Encode(c codec.Codec, v any) ([]byte, error) {
	if c == nil {
		c = codec.Default
	}
	body, err := c.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("manifest: encode with %s: %w", c.Name(), err)
	}
	name := c.Name()
	if len(name) > 255 {
		return nil, fmt.Errorf("manifest: codec name %q too long", name)
	}

	buf := make([]byte, 0, 4+2+1+len(name)+digestSize+4+len(body))
	buf = binary.LittleEndian.AppendUint32(buf, envelopeMagic)
	buf = binary.LittleEndian.AppendUint16(buf, CurrentVersion)
	buf = append(buf, byte(len(name)))
	buf = append(buf, name...)
	sum := blake3.Sum256(body)
	buf = append(buf, sum[:]...)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(body)))
	buf = append(buf, body...)
	return buf, nil
}

// Decode verifies the envelope and decodes its body into v with the codec
// named in the header. Failures are ErrIOFailure errors that also match
// ErrCorrupt or ErrIncompatibleVersion.
func Decode(data []byte, v any) error {
	const op = "manifest decode"
	corrupt := func(format string, args ...any) error {
		return errs.IO(op, fmt.Errorf("%w: %s", ErrCorrupt, fmt.Sprintf(format, args...)))
	}

	if len(data) < 7 {
		return corrupt("%d bytes is too short", len(data))
	}
	if binary.LittleEndian.Uint32(data) != envelopeMagic {
		return corrupt("bad magic")
	}
	if ver := binary.LittleEndian.Uint16(data[4:]); ver != CurrentVersion {
		return errs.IO(op, fmt.Errorf("%w: %d", ErrIncompatibleVersion, ver))
	}
	pos := 7
	nameLen := int(data[6])
	if len(data) < pos+nameLen+digestSize+4 {
		return corrupt("truncated header")
	}
	name := string(data[pos : pos+nameLen])
	pos += nameLen
	digest := data[pos : pos+digestSize]
	pos += digestSize
	bodyLen := int(binary.LittleEndian.Uint32(data[pos:]))
	pos += 4
	if len(data)-pos != bodyLen {
		return corrupt("body is %d bytes, header says %d", len(data)-pos, bodyLen)
	}
	body := data[pos:]

	sum := blake3.Sum256(body)
	if !bytes.Equal(sum[:], digest) {
		return corrupt("digest mismatch")
	}
	c, ok := codec.ByName(name)
	if !ok {
		return corrupt("unknown codec %q", name)
	}
	if err := c.Unmarshal(body, v); err != nil {
		return corrupt("%s body: %v", name, err)
	}
	return nil
}
