package icet

import (
	"time"

	"github.com/icet-go/icet/internal/statedict"
)

// frameTiming accumulates the per-frame counters spec §6 names (render,
// buffer-read, buffer-write, compress, compare/blend, composite,
// total-draw, bytes-sent), the same start/Since-then-accumulate shape
// gogpu-gg's scene.Renderer.Render uses for its RenderStats (time the
// encode/raster/composite phases, then fold them into one stats
// struct), generalized from wall-clock phases of a single render to
// per-frame counters accumulated across many strategy rounds.
type frameTiming struct {
	render, bufferRead, bufferWrite time.Duration
	compress, compareBlend         time.Duration
	composite, totalDraw           time.Duration
	bytesSent                      int
}

func (t *frameTiming) reset() { *t = frameTiming{} }

func (t *frameTiming) addRender(d time.Duration)       { t.render += d }
func (t *frameTiming) addBufferRead(d time.Duration)   { t.bufferRead += d }
func (t *frameTiming) addBufferWrite(d time.Duration)  { t.bufferWrite += d }
func (t *frameTiming) addCompress(d time.Duration)     { t.compress += d }
func (t *frameTiming) addCompareBlend(d time.Duration) { t.compareBlend += d }
func (t *frameTiming) addComposite(d time.Duration)    { t.composite += d }
func (t *frameTiming) addBytesSent(n int)              { t.bytesSent += n }

// publish writes the accumulated counters into the context's state
// dictionary, spec §6's timing keys, as seconds (KindDouble).
func (t *frameTiming) publish(d *statedict.Dict) {
	d.SetDouble(statedict.KeyTimeRender, t.render.Seconds())
	d.SetDouble(statedict.KeyTimeBufferRead, t.bufferRead.Seconds())
	d.SetDouble(statedict.KeyTimeBufferWrite, t.bufferWrite.Seconds())
	d.SetDouble(statedict.KeyTimeCompress, t.compress.Seconds())
	d.SetDouble(statedict.KeyTimeCompareBlend, t.compareBlend.Seconds())
	d.SetDouble(statedict.KeyTimeComposite, t.composite.Seconds())
	d.SetDouble(statedict.KeyTimeTotalDraw, t.totalDraw.Seconds())
	d.SetInt(statedict.KeyBytesSent, t.bytesSent)
}
