package statedict

// Key is one of the closed set of externally visible state identifiers
// spec §6 enumerates. Keys never change kind across the library's
// lifetime, which is what lets Dict validate every access.
type Key uint8

const (
	// Process/topology.
	KeyRank Key = iota
	KeyNumProcesses

	// Frame configuration, set by the caller before a frame.
	KeyBackgroundColor      // float array, len 4: straight (non-premultiplied) RGBA in [0,1]
	KeyBackgroundColorWord  // int: packed RGBA-ubyte word form of KeyBackgroundColor
	KeyTileList             // int array: per-tile viewport (x,y,w,h) flattened
	KeyDisplayNodes         // int array: rank of the display process per tile
	KeyCompositeMode        // int: codec.Mode
	KeyCompositeOrder       // int array: process rank rendering order
	KeyDataReplicationGroup // int array: ranks holding replicated data
	KeyMagicK               // int: radix-k factor base
	KeyStrategy             // int: multi-tile strategy enum
	KeySingleImageStrategy  // int: single-image strategy enum

	// Per-frame derived keys, written by the frame driver during Draw.
	KeyContainedViewport  // int array, len 4: this process's screen-space AABB
	KeyNearDepth          // float
	KeyFarDepth           // float
	KeyContainedTilesMask // pointer: *bitset.Set
	KeyTileContribCounts  // int array, one count per tile
	KeyTotalImageCount    // int: images composited this frame

	// Per-frame timing counters (spec §6), all double seconds.
	KeyTimeRender
	KeyTimeBufferRead
	KeyTimeBufferWrite
	KeyTimeCompress
	KeyTimeCompareBlend
	KeyTimeComposite
	KeyTimeTotalDraw
	KeyBytesSent // int: not a timer, but travels with the other per-frame counters
)

// DefaultSchema returns the Kind every built-in Key is declared with.
// Contexts construct their Dict from this so every state key spec §6
// names is always present, regardless of which frame options a caller
// actually sets.
func DefaultSchema() map[Key]Kind {
	return map[Key]Kind{
		KeyRank:                 KindInt,
		KeyNumProcesses:          KindInt,
		KeyBackgroundColor:       KindFloatArray,
		KeyBackgroundColorWord:  KindInt,
		KeyTileList:             KindIntArray,
		KeyDisplayNodes:         KindIntArray,
		KeyCompositeMode:        KindInt,
		KeyCompositeOrder:       KindIntArray,
		KeyDataReplicationGroup: KindIntArray,
		KeyMagicK:               KindInt,
		KeyStrategy:             KindInt,
		KeySingleImageStrategy:  KindInt,

		KeyContainedViewport:  KindIntArray,
		KeyNearDepth:          KindFloat,
		KeyFarDepth:           KindFloat,
		KeyContainedTilesMask: KindPointer,
		KeyTileContribCounts:  KindIntArray,
		KeyTotalImageCount:    KindInt,

		KeyTimeRender:       KindDouble,
		KeyTimeBufferRead:   KindDouble,
		KeyTimeBufferWrite:  KindDouble,
		KeyTimeCompress:     KindDouble,
		KeyTimeCompareBlend: KindDouble,
		KeyTimeComposite:    KindDouble,
		KeyTimeTotalDraw:    KindDouble,
		KeyBytesSent:        KindInt,
	}
}
