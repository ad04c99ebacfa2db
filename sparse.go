package icet

import (
	"github.com/icet-go/icet/internal/codec"
	"github.com/icet-go/icet/internal/imgfmt"
)

// SparseImage is a run-length encoded image: the same 24-byte header as
// DenseImage, with SparseMagicBase's magic family and a run stream in
// place of dense planes, per spec §3/§4.3/§6.
type SparseImage struct {
	buf  []byte
	desc imgfmt.Descriptor
}

// CompressImage run-length encodes src under mode into a SparseImage,
// delegating the actual run-length algorithm to internal/codec (spec
// §4.3). This is the bridge between the C2 container and the C3
// codec: everything above this layer passes SparseImage values around,
// never raw run-stream bytes.
func CompressImage(src *DenseImage, mode codec.Mode) *SparseImage {
	pixsrc := codec.NewDenseSource(src.desc, mode, src.Color(), src.Depth())
	return newSparseImage(src.desc, codec.Compress(pixsrc))
}

func newSparseImage(desc imgfmt.Descriptor, runs []byte) *SparseImage {
	buf := make([]byte, imgfmt.HeaderSize+len(runs))
	writeImageHeader(buf, imgfmt.SparseMagicBase, desc, len(buf))
	copy(buf[imgfmt.HeaderSize:], runs)
	return &SparseImage{buf: buf, desc: desc}
}

// Descriptor returns the image's pixel format and dimensions.
func (s *SparseImage) Descriptor() imgfmt.Descriptor { return s.desc }

// Runs returns the raw run stream, without the header.
func (s *SparseImage) Runs() []byte { return s.buf[imgfmt.HeaderSize:] }

// ActualSize returns the header's self-reported size in bytes.
func (s *SparseImage) ActualSize() int { return len(s.buf) }

// DecompressInto writes bg's fill for inactive pixels and the stored
// records for active ones into dst, spec §4.3's decompression path.
func (s *SparseImage) DecompressInto(dst *DenseImage, bg codec.Background) error {
	if err := codec.Decompress(s.Runs(), s.desc, bg, dst.Color(), dst.Depth()); err != nil {
		return newError(SanityCheckFail, "DecompressInto", err)
	}
	return nil
}

// CompositeOver composites s over under (front over back, both
// compressed), returning the merged SparseImage. Spec §4.3's
// compressed-to-compressed composite, exposed at the container level.
func CompositeOver(front, under *SparseImage, mode codec.Mode) (*SparseImage, error) {
	merged, err := codec.CompositeSparseSparse(front.Runs(), under.Runs(), front.desc, mode)
	if err != nil {
		return nil, newError(SanityCheckFail, "CompositeOver", err)
	}
	return newSparseImage(front.desc, merged), nil
}

// PackageSparseForSend returns the wire-ready bytes for s: the full
// buffer, since a sparse image's actual size already reflects only the
// run stream's real length. Spec §4.2's image_package_for_send.
func PackageSparseForSend(s *SparseImage) []byte { return s.buf }

// UnpackageSparseFromReceive parses a wire buffer produced by
// PackageSparseForSend back into a SparseImage.
func UnpackageSparseFromReceive(pkg []byte) (*SparseImage, error) {
	desc, actualSize, err := readImageHeader(pkg)
	if err != nil {
		return nil, err
	}
	buf := append([]byte(nil), pkg[:actualSize]...)
	return &SparseImage{buf: buf, desc: desc}, nil
}
