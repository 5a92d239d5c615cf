package verdict

import (
	"fmt"
	"strings"
)

// Tone selects the styling of a rendered outcome.
type Tone int

const (
	ToneNone   Tone = iota // nothing to show
	ToneError              // transport error or rejection
	ToneResult             // classified verdict
)

// FeatureLine is one labelled measurement, already formatted.
type FeatureLine struct {
	Label string
	Value string
}

// View is the display-ready form of an Outcome.
type View struct {
	Tone        Tone
	Message     string
	Verdict     string
	Probability string
	Features    []FeatureLine
}

// Render maps an Outcome to its View. It has no side effects.
func Render(o Outcome) View {
	switch o := o.(type) {
	case TransportError:
		return View{Tone: ToneError, Message: o.Message}
	case Rejected:
		return View{Tone: ToneError, Message: o.Reason}
	case Classified:
		v := View{
			Tone:        ToneResult,
			Verdict:     "Not Fresh",
			Probability: fmt.Sprintf("%.2f%%", o.Probability*100),
		}
		if o.IsPositive {
			v.Verdict = "Fresh"
		}
		if f := o.Features; f != nil {
			v.Features = []FeatureLine{
				{Label: "GCV", Value: fmt.Sprintf("%.2f", f.GCV)},
				{Label: "Area", Value: fmt.Sprintf("%.2f", f.Area)},
				{Label: "Aspect Ratio", Value: fmt.Sprintf("%.2f", f.AspectRatio)},
				{Label: "Roundness", Value: fmt.Sprintf("%.2f", f.Roundness)},
			}
		}
		return v
	default:
		return View{Tone: ToneNone}
	}
}

// Lines flattens the view into plain display lines.
func (v View) Lines() []string {
	switch v.Tone {
	case ToneError:
		return []string{v.Message}
	case ToneResult:
		lines := []string{
			"Freshness: " + v.Verdict,
			"Probability: " + v.Probability,
		}
		if len(v.Features) > 0 {
			lines = append(lines, "Features:")
			for _, f := range v.Features {
				lines = append(lines, fmt.Sprintf("  - %s: %s", f.Label, f.Value))
			}
		}
		return lines
	default:
		return nil
	}
}

// Markdown renders the view as a markdown fragment.
func (v View) Markdown() string {
	var sb strings.Builder
	switch v.Tone {
	case ToneError:
		fmt.Fprintf(&sb, "**%s**\n", v.Message)
	case ToneResult:
		fmt.Fprintf(&sb, "**Freshness:** %s\n\n", v.Verdict)
		fmt.Fprintf(&sb, "Probability: %s\n", v.Probability)
		if len(v.Features) > 0 {
			sb.WriteString("\n## Features\n\n")
			for _, f := range v.Features {
				fmt.Fprintf(&sb, "- %s: %s\n", f.Label, f.Value)
			}
		}
	}
	return sb.String()
}
