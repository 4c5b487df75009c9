package articulation

import "gen1/internal/actions"

// SegmentType classifies one unit of parsed assistant output.
type SegmentType string

const (
	SegmentText     SegmentType = "text"
	SegmentFile     SegmentType = "file-action"
	SegmentRemote   SegmentType = "github-action"
	SegmentDocument SegmentType = "document-creation"
	SegmentError    SegmentType = "file-action-error"
)

// Segment is text, a validated action, or a parse error.
type Segment struct {
	Type SegmentType

	// Text is set for text segments.
	Text string

	// Action is set for action segments.
	Action actions.Action

	// ErrorMessage and RawContent are set for error segments. RawContent is
	// the whole block as it appeared, payload included. Kind is the action
	// named by the header when it could be read.
	ErrorMessage string
	RawContent   string
	Kind         actions.Kind
	Err          error
}

// IsAction reports whether the segment carries an executable action.
func (s Segment) IsAction() bool {
	return s.Action != nil
}

func segmentTypeFor(f actions.Family) SegmentType {
	switch f {
	case actions.FamilyRemote:
		return SegmentRemote
	case actions.FamilyDocument:
		return SegmentDocument
	}
	return SegmentFile
}

// Result is the output of one parse.
type Result struct {
	Segments []Segment
	// Speech is the last audio directive, when HasSpeech is set.
	Speech    string
	HasSpeech bool
}

// Actions returns the action segments in order.
func (r *Result) Actions() []actions.Action {
	var out []actions.Action
	for _, s := range r.Segments {
		if s.IsAction() {
			out = append(out, s.Action)
		}
	}
	return out
}

// Errors returns the error segments in order.
func (r *Result) Errors() []Segment {
	var out []Segment
	for _, s := range r.Segments {
		if s.Type == SegmentError {
			out = append(out, s)
		}
	}
	return out
}
