package domain

import "time"

// Window is an inclusive [Start, End] range in Unix seconds.
type Window struct {
	Start int64
	End   int64
}

// NewWindow builds a window from two instants. Block times have whole-second
// resolution, so start rounds up and end rounds down: a block stamped with
// the second in which start falls may predate start and is left out.
func NewWindow(start, end time.Time) Window {
	return Window{Start: start.Add(time.Second - 1).Unix(), End: end.Unix()}
}

// Contains reports whether ts lies inside the window, both ends included.
func (w Window) Contains(ts int64) bool {
	return ts >= w.Start && ts <= w.End
}

// IsValid reports whether the window is non-empty.
func (w Window) IsValid() bool {
	return w.End >= w.Start
}
