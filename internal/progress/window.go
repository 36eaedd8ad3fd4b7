package progress

// Window caps the number of pages fetched in one run.
// A non-positive target means unbounded.
type Window struct {
	target    int
	processed int
}

// NewWindow creates a window allowing target pages.
func NewWindow(target int) *Window {
	return &Window{target: max(0, target)}
}

// Bounded reports whether the window has a target.
func (w *Window) Bounded() bool {
	return w.target > 0
}

// Target returns the page budget, or 0 when unbounded.
func (w *Window) Target() int {
	return w.target
}

// Processed returns the number of pages marked complete.
func (w *Window) Processed() int {
	return w.processed
}

// AllowNext reports whether another page may be fetched.
func (w *Window) AllowNext() bool {
	return !w.Bounded() || w.processed < w.target
}

// MarkComplete counts one finished page. It is a no-op when unbounded.
func (w *Window) MarkComplete() {
	if w.Bounded() {
		w.processed++
	}
}

// Remaining returns the pages left in the budget, or -1 when unbounded.
func (w *Window) Remaining() int {
	if !w.Bounded() {
		return -1
	}
	return max(0, w.target-w.processed)
}

// Exhausted reports whether a bounded window has spent its budget.
func (w *Window) Exhausted() bool {
	return w.Bounded() && w.processed >= w.target
}
