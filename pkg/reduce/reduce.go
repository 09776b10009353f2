// Package reduce collapses the maps of a matrix into a single map by applying
// a statistic to the values of every brainordinate.
package reduce

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"ciftidilate/pkg/cifti"
)

// ErrUnknownOperation is returned by Parse for names outside the supported set.
var ErrUnknownOperation = errors.New("reduce: unknown operation")

// ErrNoMaps is returned when there is nothing to reduce.
var ErrNoMaps = errors.New("reduce: no maps to reduce")

// Operation is a reduction statistic.
type Operation int

const (
	Mean Operation = iota
	Median
	Min
	Max
	Sum
	StdDev
	SampleStdDev
	Variance
	CountNonzero
)

var operationNames = map[Operation]string{
	Mean:         "MEAN",
	Median:       "MEDIAN",
	Min:          "MIN",
	Max:          "MAX",
	Sum:          "SUM",
	StdDev:       "STDEV",
	SampleStdDev: "SAMPSTDEV",
	Variance:     "VARIANCE",
	CountNonzero: "COUNT_NONZERO",
}

func (o Operation) String() string {
	if name, ok := operationNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// Parse converts an operation name such as "MEAN" into an Operation. Names
// are matched case-insensitively.
func Parse(name string) (Operation, error) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for op, n := range operationNames {
		if n == upper {
			return op, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownOperation, name)
}

// Operations lists every supported operation in declaration order.
func Operations() []Operation {
	ops := make([]Operation, 0, len(operationNames))
	for op := range operationNames {
		ops = append(ops, op)
	}
	sort.Slice(ops, func(a, b int) bool { return ops[a] < ops[b] })
	return ops
}

// Apply computes the statistic over values. Values is left unmodified.
// SampleStdDev of a single value is 0.
func (o Operation) Apply(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrNoMaps
	}
	switch o {
	case Mean:
		return stat.Mean(values, nil), nil
	case Median:
		sorted := append([]float64(nil), values...)
		sort.Float64s(sorted)
		return median(sorted), nil
	case Min:
		return floats.Min(values), nil
	case Max:
		return floats.Max(values), nil
	case Sum:
		return floats.Sum(values), nil
	case StdDev:
		_, std := stat.PopMeanStdDev(values, nil)
		return std, nil
	case SampleStdDev:
		if len(values) < 2 {
			return 0, nil
		}
		return stat.StdDev(values, nil), nil
	case Variance:
		_, v := stat.PopMeanVariance(values, nil)
		return v, nil
	case CountNonzero:
		n := 0
		for _, v := range values {
			if v != 0 {
				n++
			}
		}
		return float64(n), nil
	default:
		return 0, fmt.Errorf("%w: %v", ErrUnknownOperation, o)
	}
}

// median of sorted data, averaging the two middle values for even lengths.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// ExcludeOutliers returns the values within [mean - below*sd, mean + above*sd],
// where sd is the population standard deviation of values.
func ExcludeOutliers(values []float64, below, above float64) []float64 {
	mean, sd := stat.PopMeanStdDev(values, nil)
	lo, hi := mean-below*sd, mean+above*sd
	kept := make([]float64, 0, len(values))
	for _, v := range values {
		if v >= lo && v <= hi {
			kept = append(kept, v)
		}
	}
	return kept
}

// Options controls a reduction.
type Options struct {
	// ExcludeOutliers drops the values of each brainordinate that are further
	// than SigmaBelow or SigmaAbove standard deviations from its mean.
	ExcludeOutliers bool
	SigmaBelow      float64
	SigmaAbove      float64

	Logger *log.Logger
}

// Reduce applies op to the maps of every brainordinate along dir. The output
// keeps the map along dir and holds a single map named after op.
func Reduce(in *cifti.Matrix, dir cifti.Direction, op Operation, opts Options) (*cifti.Matrix, error) {
	if !dir.Valid() {
		return nil, fmt.Errorf("%w: %v", cifti.ErrUnsupportedAxis, dir)
	}
	if opts.ExcludeOutliers && (opts.SigmaBelow < 0 || opts.SigmaAbove < 0 || math.IsNaN(opts.SigmaBelow) || math.IsNaN(opts.SigmaAbove)) {
		return nil, fmt.Errorf("reduce: outlier bounds must be non-negative, got %v and %v", opts.SigmaBelow, opts.SigmaAbove)
	}
	numMaps := in.NumMaps(dir)
	if numMaps == 0 {
		return nil, ErrNoMaps
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}

	reduced, err := reducedMap(in, dir, op)
	if err != nil {
		return nil, err
	}
	if in.IsLabel(dir) {
		logger.WithField("operation", op).Warn("reduction operation performed on label data")
	}

	var out *cifti.Matrix
	if dir == cifti.AlongColumn {
		out, err = cifti.NewMatrix(reduced, in.Map(cifti.AlongColumn))
	} else {
		out, err = cifti.NewMatrix(in.Map(cifti.AlongRow), reduced)
	}
	if err != nil {
		return nil, err
	}

	length := in.Map(dir).Length()
	values := make([]float64, numMaps)
	for b := 0; b < length; b++ {
		for k := range values {
			values[k] = in.Value(dir, b, k)
		}
		sample := values
		if opts.ExcludeOutliers {
			sample = ExcludeOutliers(values, opts.SigmaBelow, opts.SigmaAbove)
			if len(sample) == 0 {
				sample = values
			}
		}
		v, err := op.Apply(sample)
		if err != nil {
			return nil, fmt.Errorf("brainordinate %d: %w", b, err)
		}
		out.SetValue(dir, b, 0, v)
	}
	return out, nil
}

// reducedMap builds the single-map replacement for the map opposite to dir.
// Label inputs keep the first map's label table.
func reducedMap(in *cifti.Matrix, dir cifti.Direction, op Operation) (cifti.IndexMap, error) {
	if lm, ok := in.Map(dir.Other()).(*cifti.LabelsMap); ok {
		return cifti.NewLabelsMap([]string{op.String()}, []*cifti.LabelTable{lm.LabelTable(0)})
	}
	return cifti.NewScalarsMap(op.String())
}
