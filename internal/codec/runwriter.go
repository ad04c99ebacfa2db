package codec

import (
	"encoding/binary"

	"github.com/icet-go/icet/internal/imgfmt"
)

// runWriter incrementally builds a run stream: callers report one pixel
// at a time (inactive, or active with its packed record) and runWriter
// handles opening/closing run headers and splitting spans longer than
// imgfmt.MaxRunSpan, per spec §4.3 steps 2-6.
type runWriter struct {
	buf           []byte
	headerPos     int
	inactiveCount int
	activeCount   int
}

func newRunWriter(capHint int) *runWriter {
	return &runWriter{buf: make([]byte, 0, capHint), headerPos: -1}
}

func (w *runWriter) openRun() {
	w.headerPos = len(w.buf)
	w.buf = append(w.buf, 0, 0, 0, 0)
	binary.LittleEndian.PutUint16(w.buf[w.headerPos:], uint16(w.inactiveCount))
	w.inactiveCount = 0
}

func (w *runWriter) closeRun() {
	binary.LittleEndian.PutUint16(w.buf[w.headerPos+2:], uint16(w.activeCount))
	w.headerPos = -1
	w.activeCount = 0
}

func (w *runWriter) flushFullInactiveRun(count int) {
	var hdr [4]byte
	binary.LittleEndian.PutUint16(hdr[0:], uint16(count))
	w.buf = append(w.buf, hdr[:]...)
}

// Inactive records one inactive pixel.
func (w *runWriter) Inactive() {
	if w.headerPos >= 0 {
		w.closeRun()
	}
	w.inactiveCount++
	if w.inactiveCount > imgfmt.MaxRunSpan {
		w.flushFullInactiveRun(imgfmt.MaxRunSpan)
		w.inactiveCount -= imgfmt.MaxRunSpan
	}
}

// Active records one active pixel, appending its packed record.
func (w *runWriter) Active(record ...[]byte) {
	if w.headerPos < 0 {
		w.openRun()
	}
	for _, r := range record {
		w.buf = append(w.buf, r...)
	}
	w.activeCount++
	if w.activeCount == imgfmt.MaxRunSpan {
		w.closeRun()
	}
}

// Finish closes any dangling run and returns the completed stream.
func (w *runWriter) Finish() []byte {
	if w.headerPos >= 0 {
		w.closeRun()
	} else if w.inactiveCount > 0 {
		w.flushFullInactiveRun(w.inactiveCount)
	}
	return w.buf
}
