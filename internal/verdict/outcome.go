// Package verdict turns the classification service's loosely-typed JSON reply into a
// closed set of display outcomes and renders those outcomes for the terminal.
package verdict

// Messages shown to the user. The service's own error text is never displayed.
const (
	MsgPredictionFailed = "Prediction failed"
	MsgSomethingWrong   = "Something went wrong!"
	DefaultRejectReason = "no subject detected but high likelihood of non-fresh"
)

// Outcome is the settled result of one submission. It is implemented only by
// TransportError, Rejected and Classified; a nil Outcome means nothing to show.
type Outcome interface {
	outcome()
}

// TransportError means no usable structured verdict came back.
type TransportError struct {
	Message string
}

// Rejected means the service did not recognise a subject in the image.
type Rejected struct {
	Reason string
}

// Classified carries a definitive verdict.
type Classified struct {
	IsPositive  bool
	Probability float64
	Features    *Features // nil when the service sent no breakdown
}

// Features is the optional measurement breakdown, passed through unmodified.
type Features struct {
	GCV         float64 `json:"gcv"`
	Area        float64 `json:"area"`
	AspectRatio float64 `json:"aspect_ratio"`
	Roundness   float64 `json:"roundness"`
}

func (TransportError) outcome() {}
func (Rejected) outcome()       {}
func (Classified) outcome()     {}

// Kind names the active variant, for logs.
func Kind(o Outcome) string {
	switch o.(type) {
	case TransportError:
		return "transport_error"
	case Rejected:
		return "rejected"
	case Classified:
		return "classified"
	default:
		return "none"
	}
}
