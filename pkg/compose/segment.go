package compose

import (
	"fmt"
	"sort"
)

// Segment is a span of the output timeline with one active source. A nil
// Clip means the source video.
type Segment struct {
	Start float64
	End   float64
	Clip  *Clip
}

// Duration returns End - Start.
func (s Segment) Duration() float64 { return s.End - s.Start }

// IsSource reports whether the segment shows the source video.
func (s Segment) IsSource() bool { return s.Clip == nil }

// Offset returns where the segment starts within its clip file.
func (s Segment) Offset() float64 {
	if s.Clip == nil {
		return s.Start
	}
	return s.Start - s.Clip.Start
}

func (s Segment) String() string {
	src := "source"
	if s.Clip != nil {
		src = s.Clip.Path
	}
	return fmt.Sprintf("[%.3f,%.3f) %s", s.Start, s.End, src)
}

type event struct {
	at   float64
	clip *Clip
}

// Segments splits [0, duration) into segments. The timeline starts on the
// source; every clip switches to itself at its start and back to the
// source at its end. Events are stable-sorted by time, so of two events at
// the same instant the later one wins. Zero-length spans are dropped and
// neighbouring spans with the same source are merged.
//
// Clips are ordered by start time before their events are generated, so the
// result does not depend on the order of clips. The union of the returned
// segments is exactly [0, duration) for any set of clips, touching or
// overlapping.
func Segments(clips []Clip, duration float64) []Segment {
	if duration <= 0 {
		return nil
	}
	order := make([]int, len(clips))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool { return clips[order[i]].Start < clips[order[j]].Start })

	events := make([]event, 0, 2*len(clips)+2)
	events = append(events, event{at: 0})
	for _, i := range order {
		events = append(events, event{at: clips[i].Start, clip: &clips[i]}, event{at: clips[i].End})
	}
	sort.SliceStable(events, func(i, j int) bool { return events[i].at < events[j].at })
	events = append(events, event{at: duration})

	var segments []Segment
	for i := 0; i < len(events)-1; i++ {
		start := clampTime(events[i].at, duration)
		end := clampTime(events[i+1].at, duration)
		if end <= start {
			continue
		}
		if n := len(segments); n > 0 && segments[n-1].Clip == events[i].clip && segments[n-1].End == start {
			segments[n-1].End = end
			continue
		}
		segments = append(segments, Segment{Start: start, End: end, Clip: events[i].clip})
	}
	return segments
}

func clampTime(t, duration float64) float64 {
	switch {
	case t < 0:
		return 0
	case t > duration:
		return duration
	}
	return t
}
