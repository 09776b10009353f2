package pipeline

import (
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"ciftidilate/pkg/cifti"
	"ciftidilate/pkg/dilate"
)

// StructureReport describes the dilation of one component.
type StructureReport struct {
	// Structures holds every structure of the component; merged volumes hold several.
	Structures []cifti.Structure
	Kind       string
	Method     string
	Maps       int
	dilate.Stats
	Elapsed time.Duration

	order int
}

// Report summarizes a run.
type Report struct {
	RunID      string
	Components []StructureReport
	Totals     dilate.Stats
	// RMSChange is the root mean square difference between input and output over all elements.
	RMSChange float64
	Elapsed   time.Duration
}

// rmsChange compares two matrices of identical shape.
func rmsChange(in, out *cifti.Matrix) float64 {
	r, c := in.Dims()
	if r == 0 || c == 0 {
		return 0
	}
	var diff mat.Dense
	diff.Sub(out.Dense(), in.Dense())
	return mat.Norm(&diff, 2) / math.Sqrt(float64(r*c))
}
