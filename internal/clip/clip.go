// Package clip implements clip selection over a track: a window between 14
// and 114 seconds that handles are dragged, recentered and played against.
//
// The zero-value rules live here so every front end (TUI, web, tests) agrees
// on how an out-of-range proposal settles.
package clip

import (
	"fmt"

	"github.com/seranote/seranote/internal/models"
)

// Handle identifies which edge of the selection a gesture targets.
type Handle int

const (
	HandleStart Handle = iota
	HandleEnd
)

// Selector holds the current selection on a track. All values are seconds.
type Selector struct {
	trackDuration float64
	start         float64
	end           float64
	onChange      func()
}

// NewSelector creates a selection at the head of the track: start zero, the
// maximum clip length, capped to the track.
func NewSelector(trackDuration float64) *Selector {
	s := &Selector{trackDuration: trackDuration}
	s.start, s.end = s.settle(0, models.MaxClipDuration, HandleStart)
	return s
}

// Start returns the selection's start in seconds.
func (s *Selector) Start() float64 { return s.start }

// End returns the selection's end in seconds.
func (s *Selector) End() float64 { return s.end }

// Duration returns the selection's length in seconds.
func (s *Selector) Duration() float64 { return s.end - s.start }

// TrackDuration returns the track length the selection lives on.
func (s *Selector) TrackDuration() float64 { return s.trackDuration }

// settle clamps a proposed window onto the track. The proposal is first
// confined to [0, track], then stretched to the minimum length away from the
// anchored handle, capped at the maximum, and finally shifted back inside the
// track if the stretch pushed it out.
func (s *Selector) settle(start, end float64, anchor Handle) (float64, float64) {
	if s.trackDuration <= 0 {
		return 0, 0
	}

	if start < 0 {
		start = 0
	}
	if end > s.trackDuration {
		end = s.trackDuration
	}
	// A handle dragged past its partner drags the partner along.
	if end < start {
		if anchor == HandleEnd {
			start = end
		} else {
			end = start
		}
	}

	minLen := models.MinClipDuration
	if s.trackDuration < minLen {
		minLen = s.trackDuration
	}

	length := end - start
	switch {
	case length < minLen:
		if anchor == HandleEnd {
			start = end - minLen
		} else {
			end = start + minLen
		}
	case length > models.MaxClipDuration:
		if anchor == HandleEnd {
			start = end - models.MaxClipDuration
		} else {
			end = start + models.MaxClipDuration
		}
	}

	if end > s.trackDuration {
		start -= end - s.trackDuration
		end = s.trackDuration
	}
	if start < 0 {
		end += -start
		start = 0
		if end > s.trackDuration {
			end = s.trackDuration
		}
	}

	return start, end
}

// apply settles a proposed window and, when either bound moved, fires the
// change hook.
func (s *Selector) apply(start, end float64, anchor Handle) {
	start, end = s.settle(start, end, anchor)
	moved := start != s.start || end != s.end
	s.start, s.end = start, end
	if moved && s.onChange != nil {
		s.onChange()
	}
}

// DragStart moves the start handle to pos and settles the window.
func (s *Selector) DragStart(pos float64) {
	s.apply(pos, s.end, HandleStart)
}

// DragEnd moves the end handle to pos and settles the window.
func (s *Selector) DragEnd(pos float64) {
	s.apply(s.start, pos, HandleEnd)
}

// RecenterAt moves the whole window so its center lands on pos, preserving
// the current length. The window shifts instead of shrinking at track edges.
func (s *Selector) RecenterAt(pos float64) {
	length := s.Duration()
	start := pos - length/2
	end := start + length
	if start < 0 {
		start, end = 0, length
	}
	if end > s.trackDuration {
		start, end = s.trackDuration-length, s.trackDuration
	}
	s.apply(start, end, HandleStart)
}

// NearestHandle reports which handle a position should grab. Ties go to the
// start handle.
func (s *Selector) NearestHandle(pos float64) Handle {
	distStart := pos - s.start
	if distStart < 0 {
		distStart = -distStart
	}
	distEnd := pos - s.end
	if distEnd < 0 {
		distEnd = -distEnd
	}
	if distEnd < distStart {
		return HandleEnd
	}
	return HandleStart
}

// SetTrackDuration switches the selection to a new track and re-settles the
// window against it.
func (s *Selector) SetTrackDuration(trackDuration float64) {
	s.trackDuration = trackDuration
	s.apply(s.start, s.end, HandleStart)
}

// Confirm returns the selection as a (clipStart, clipDuration) pair, failing
// when the track cannot host a valid clip.
func (s *Selector) Confirm() (float64, float64, error) {
	duration := s.Duration()
	if duration < models.MinClipDuration || duration > models.MaxClipDuration {
		return 0, 0, fmt.Errorf("selection of %.2fs is outside [%v, %v]", duration, models.MinClipDuration, models.MaxClipDuration)
	}
	return s.start, duration, nil
}
