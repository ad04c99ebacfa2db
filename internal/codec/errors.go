package codec

import "errors"

// ErrCorruptRunStream is returned when a run stream's cumulative pixel
// count would exceed the target image's pixel count, per spec §4.3's
// decompression corruption check.
var ErrCorruptRunStream = errors.New("codec: run stream pixel count exceeds image size")

// ErrSizeMismatch is returned by the compressed-to-compressed composite
// when front and back don't describe images of the same size, per spec
// §4.3's "fail with SANITY_CHECK_FAIL if the two inputs' pixel counts
// differ".
var ErrSizeMismatch = errors.New("codec: front and back image sizes differ")
