package comm

import "encoding/binary"

// SendVar sends a variable-length payload as a 4-byte length header
// followed by the bytes themselves, each as its own message so the
// receiver can size its buffer before reading the payload. Consumes
// two tags: tag (the header) and tag+1 (the payload, skipped when
// data is empty).
func SendVar(c Communicator, dest, tag int, data []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(data)))
	if err := c.Send(lenBuf[:], Int, dest, tag); err != nil {
		return err
	}
	if len(data) == 0 {
		return nil
	}
	return c.Send(data, Byte, dest, tag+1)
}

// RecvVar is SendVar's receiving half.
func RecvVar(c Communicator, src, tag int) ([]byte, error) {
	var lenBuf [4]byte
	if err := c.Recv(lenBuf[:], Int, src, tag); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n == 0 {
		return nil, nil
	}
	buf := make([]byte, n)
	if err := c.Recv(buf, Byte, src, tag+1); err != nil {
		return nil, err
	}
	return buf, nil
}
