package artifact

// Diagram is a renderable visual unit tied to a scene window.
type Diagram struct {
	Scene Scene

	// Override replaces the scene window for scenes split into several slides.
	Override *Window

	Content Content

	// StillPath is set once a still image for this diagram exists.
	StillPath string

	// ClipPath is set once a duration-matched clip exists.
	ClipPath string
}

// Window returns the effective window: Override when present, else the
// scene window.
func (d *Diagram) Window() Window {
	if d.Override != nil {
		return *d.Override
	}
	return d.Scene.Window
}

// Start returns the effective start time.
func (d *Diagram) Start() float64 { return d.Window().Start }

// End returns the effective end time.
func (d *Diagram) End() float64 { return d.Window().End }

// Duration returns the effective window duration.
func (d *Diagram) Duration() float64 { return d.Window().Duration() }

// Rendered reports whether a clip was produced. It does not check the disk.
func (d *Diagram) Rendered() bool { return d.ClipPath != "" }

// ResetResults clears StillPath and ClipPath before a render attempt.
func (d *Diagram) ResetResults() {
	d.StillPath = ""
	d.ClipPath = ""
}

// StaticSource returns the text-source content usable by the static tier:
// the content itself for a [TextSource], or the explicit fallback of a
// [Structured] payload. The boolean is false when neither is renderable.
func (d *Diagram) StaticSource() (TextSource, bool) {
	switch c := d.Content.(type) {
	case TextSource:
		return c, c.Renderable()
	case *TextSource:
		if c != nil {
			return *c, c.Renderable()
		}
	case Structured:
		if c.Fallback != nil {
			return *c.Fallback, c.Fallback.Renderable()
		}
	case *Structured:
		if c != nil && c.Fallback != nil {
			return *c.Fallback, c.Fallback.Renderable()
		}
	}
	return TextSource{}, false
}

// StructuredContent returns the structured payload, if the diagram carries one.
func (d *Diagram) StructuredContent() (Structured, bool) {
	switch c := d.Content.(type) {
	case Structured:
		return c, true
	case *Structured:
		if c != nil {
			return *c, true
		}
	}
	return Structured{}, false
}
