// Package signature implements freehand signature capture for the contract
// step: stroke accumulation, the two-gate confirm (ink present AND terms
// accepted), and rasterization of the accumulated strokes into an immutable
// PNG payload attached to the order commit.
package signature

import "errors"

// Confirm gate failures. Both gates are re-checked defensively even when
// the UI affordance was disabled.
var (
	ErrNoInk            = errors.New("signature: no ink drawn")
	ErrTermsNotAccepted = errors.New("signature: terms not accepted")
)

// Point is one sampled pointer position in canvas coordinates.
type Point struct {
	X float64
	Y float64
}

// Stroke is a point-to-point path from pointer-down to pointer-up (or the
// touch equivalent).
type Stroke []Point

// Pad accumulates strokes for one flow instance.
//
// HasInk flips true on the first stroke that actually draws something and
// is never reset except by Clear. The accepted-terms checkbox is owned by
// the caller (the host checkbox); SetAcceptedTerms mirrors its latest
// queried value.
//
// Pad is not safe for concurrent use; each flow instance owns exactly one.
type Pad struct {
	width   int
	height  int
	strokes []Stroke

	hasInk        bool
	acceptedTerms bool

	image []byte // materialized by Confirm, immutable once set
}

// NewPad creates a pad with the given canvas dimensions in pixels.
func NewPad(width, height int) *Pad {
	return &Pad{width: width, height: height}
}

// AddStroke records a completed stroke. A stroke needs at least two points
// to draw anything; single-point strokes (a tap) are kept but do not flip
// HasInk.
func (p *Pad) AddStroke(s Stroke) {
	if len(s) == 0 {
		return
	}
	p.strokes = append(p.strokes, s)
	if len(s) >= 2 {
		p.hasInk = true
	}
}

// SetAcceptedTerms mirrors the caller-owned checkbox state.
func (p *Pad) SetAcceptedTerms(accepted bool) {
	p.acceptedTerms = accepted
}

// HasInk reports whether any drawing stroke has been recorded.
func (p *Pad) HasInk() bool {
	return p.hasInk
}

// AcceptedTerms reports the last mirrored checkbox state.
func (p *Pad) AcceptedTerms() bool {
	return p.acceptedTerms
}

// CanConfirm reports whether the confirm affordance should be enabled:
// ink present AND terms accepted.
func (p *Pad) CanConfirm() bool {
	return p.hasInk && p.acceptedTerms
}

// Clear wipes all strokes, resets HasInk and the accepted-terms indicator,
// and discards any materialized image. The underlying host checkbox is
// owned by the caller and must be re-queried afterward.
func (p *Pad) Clear() {
	p.strokes = nil
	p.hasInk = false
	p.acceptedTerms = false
	p.image = nil
}

// Confirm validates both gates and rasterizes the accumulated strokes into
// a PNG payload. The payload is immutable once produced: repeat calls
// return the same bytes. Gate failures are rejected even if the disabled
// affordance was bypassed externally.
func (p *Pad) Confirm() ([]byte, error) {
	if !p.hasInk {
		return nil, ErrNoInk
	}
	if !p.acceptedTerms {
		return nil, ErrTermsNotAccepted
	}
	if p.image != nil {
		return p.image, nil
	}
	img, err := rasterize(p.width, p.height, p.strokes)
	if err != nil {
		return nil, err
	}
	p.image = img
	return p.image, nil
}

// Image returns the materialized payload, or nil if Confirm has not
// succeeded yet.
func (p *Pad) Image() []byte {
	return p.image
}
