package tcp

import (
	"bufio"
	"encoding/binary"
	"io"
)

// Frame header: src rank (4B) ‖ tag (4B, signed) ‖ one unused zero byte ‖
// payload length (4B), all big-endian, preceded by a 4-byte total-length
// prefix. This
// follows the length-prefixed-frame-over-bufio idiom
// other_examples/.../rfb.go uses for its FramebufferUpdate messages,
// adapted from a single fixed message type to a generic tagged payload.
const frameHeaderLen = 13

func writeFrame(w *bufio.Writer, srcRank, tag int, payload []byte) error {
	header := make([]byte, frameHeaderLen)
	binary.BigEndian.PutUint32(header[0:4], uint32(srcRank))
	binary.BigEndian.PutUint32(header[4:8], uint32(tag))
	binary.BigEndian.PutUint32(header[9:13], uint32(len(payload)))

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(header)+len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := w.Write(payload); err != nil {
		return err
	}
	return w.Flush()
}

func readFrame(r *bufio.Reader) (srcRank, tag int, payload []byte, err error) {
	var lenBuf [4]byte
	if _, err = io.ReadFull(r, lenBuf[:]); err != nil {
		return 0, 0, nil, err
	}
	total := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, total)
	if _, err = io.ReadFull(r, buf); err != nil {
		return 0, 0, nil, err
	}
	srcRank = int(binary.BigEndian.Uint32(buf[0:4]))
	tag = int(int32(binary.BigEndian.Uint32(buf[4:8])))
	plen := binary.BigEndian.Uint32(buf[9:13])
	payload = buf[frameHeaderLen : frameHeaderLen+int(plen)]
	return srcRank, tag, payload, nil
}
