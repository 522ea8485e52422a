package tracker

import (
	"fmt"
	"math"
)

type Progress struct {
	Total      int
	Visited    int
	Percentage float64 // one decimal place, not clamped
}

func ComputeProgress(d Dataset) Progress {
	p := Progress{Total: len(d.Pubs)}
	for _, e := range d.Pubs {
		if e.Pub.VisitedBy(d.UserID) {
			p.Visited++
		}
	}
	if p.Total == 0 {
		return p
	}
	p.Percentage = math.Round(float64(p.Visited)/float64(p.Total)*1000) / 10
	return p
}

// Fraction is the fill level for animation, clamped to [0,1].
func (p Progress) Fraction() float64 {
	return clamp01(p.Percentage / 100)
}

func (p Progress) String() string {
	return fmt.Sprintf("%d/%d (%.1f%%)", p.Visited, p.Total, p.Percentage)
}

func clamp01(f float64) float64 {
	switch {
	case math.IsNaN(f) || f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// FillAnimation moves a fill level from one fraction to another in equal steps.
type FillAnimation struct {
	From   float64
	To     float64
	Frames int
}

func NewFillAnimation(from, to float64, frames int) FillAnimation {
	if frames < 1 {
		frames = 1
	}
	return FillAnimation{From: clamp01(from), To: clamp01(to), Frames: frames}
}

// Levels returns the fill level after each frame; the last one is To.
func (a FillAnimation) Levels() []float64 {
	if a.Frames < 1 {
		return []float64{a.To}
	}
	out := make([]float64, a.Frames)
	step := (a.To - a.From) / float64(a.Frames)
	for i := range out {
		out[i] = a.From + step*float64(i+1)
	}
	out[len(out)-1] = a.To
	return out
}
