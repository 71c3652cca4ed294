package clip

// StopSlack is how far before the selection end playback halts. Stopping a
// hair early keeps the decoder from bleeding past the boundary.
const StopSlack = 0.02

// Playback advances a playhead inside a selection. It holds a pointer to the
// live Selector rather than a copy; any bound change snaps the playhead to
// the new selection start without touching the play state.
type Playback struct {
	sel      *Selector
	position float64
	playing  bool
}

// NewPlayback creates a playhead over the given selection, parked at its start.
func NewPlayback(sel *Selector) *Playback {
	p := &Playback{sel: sel, position: sel.Start()}
	sel.onChange = func() { p.position = sel.Start() }
	return p
}

// Position returns the playhead in seconds.
func (p *Playback) Position() float64 { return p.position }

// Playing reports whether the playhead is advancing.
func (p *Playback) Playing() bool { return p.playing }

// Play starts playback. A playhead outside the current selection, or already
// at the stop boundary, snaps back to the selection start.
func (p *Playback) Play() {
	if p.sel.TrackDuration() <= 0 {
		return
	}
	if p.position < p.sel.Start() || p.position >= p.stopAt() {
		p.position = p.sel.Start()
	}
	p.playing = true
}

// Pause halts playback without moving the playhead.
func (p *Playback) Pause() {
	p.playing = false
}

// Toggle flips between playing and paused.
func (p *Playback) Toggle() {
	if p.playing {
		p.Pause()
	} else {
		p.Play()
	}
}

// Advance moves the playhead forward by dt seconds. The selection bounds are
// re-read every call; playback stops at the slack boundary.
func (p *Playback) Advance(dt float64) {
	if !p.playing {
		return
	}
	p.position += dt
	if p.position >= p.stopAt() {
		p.position = p.stopAt()
		p.playing = false
	}
}

// Seek moves the playhead to pos, confined to the selection.
func (p *Playback) Seek(pos float64) {
	if pos < p.sel.Start() {
		pos = p.sel.Start()
	}
	if pos > p.sel.End() {
		pos = p.sel.End()
	}
	p.position = pos
}

// stopAt is the position playback halts at. A selection shorter than the
// slack degenerates to its start.
func (p *Playback) stopAt() float64 {
	stop := p.sel.End() - StopSlack
	if stop < p.sel.Start() {
		stop = p.sel.Start()
	}
	return stop
}
