package artifact

import "strings"

// TranscriptSegment is one timed fragment of speech-to-text output.
type TranscriptSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Scene is a classified window of the source video. Scenes are immutable
// once classified; technify never rewrites them.
type Scene struct {
	Window
	Segments    []TranscriptSegment `json:"segments,omitempty"`
	ContentType string              `json:"content_type"`
	Description string              `json:"description,omitempty"`
}

// Text joins the transcript fragments with single spaces.
func (s Scene) Text() string {
	parts := make([]string, 0, len(s.Segments))
	for _, seg := range s.Segments {
		if t := strings.TrimSpace(seg.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}
