// Package icet implements sort-last parallel image compositing: each of
// N cooperating processes renders part of a scene into its own
// framebuffer, and the library composites those partial renders across
// a message-passing fabric into the finished image for one or more
// display tiles.
//
// A Context owns one process's share of this: its communicator, its
// tile layout, and the draw callback the frame driver invokes once per
// frame. Call DrawFrame to run one
// frame; the returned image is this process's display tile, or empty
// if this process displays nothing.
package icet
