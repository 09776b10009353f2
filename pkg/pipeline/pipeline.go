// Package pipeline drives the dilation of a composite brain-data matrix: it
// validates the inputs, separates every structure into a surface or volume
// component, repairs the bad values of each component and places the result
// into a new matrix with the same layout.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"ciftidilate/pkg/cifti"
	"ciftidilate/pkg/dilate"
	"ciftidilate/pkg/volume"
)

// Params holds the dilation parameters.
type Params struct {
	// Direction selects the brainordinate axis of the input.
	Direction cifti.Direction

	// SurfaceDistance is the geodesic distance in mm searched for good vertices.
	SurfaceDistance float64

	// VolumeDistance is the physical distance in mm searched for good voxels.
	VolumeDistance float64

	// LeftSurface, RightSurface and CerebellumSurface are required only when
	// the matching surface structure is present along Direction.
	LeftSurface       dilate.Topology
	RightSurface      dilate.Topology
	CerebellumSurface dilate.Topology

	// BadROI, when set, marks the brainordinates to replace with positive
	// values in its first map; zeros in the input are then good. Its column
	// direction must hold the same brainordinates as the input's Direction.
	BadROI *cifti.Matrix

	// Nearest copies the closest good value instead of a weighted average.
	// Label data always uses the closest or most common value.
	Nearest bool

	// MergedVolume treats all volume structures as a single component.
	MergedVolume bool

	// Connectivity is the voxel neighborhood expanded in volumes; zero means 26.
	Connectivity volume.Connectivity

	// NumCores bounds how many components are dilated at once; 1 or less runs
	// everything sequentially.
	NumCores int

	// Logger receives progress; nil uses the logrus standard logger.
	Logger *log.Logger
}

// Dilator runs the dilation state machine for one set of parameters.
type Dilator struct {
	params *Params
	log    *log.Entry

	mu     sync.Mutex
	state  State
	report Report
}

// NewDilator creates a dilator with the provided parameters.
func NewDilator(params *Params) *Dilator {
	logger := params.Logger
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Dilator{
		params: params,
		log:    logger.WithField("component", "cifti-dilate"),
		state:  Validating,
	}
}

// State returns the current state of the run.
func (d *Dilator) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// GetReport returns the summary of the last run.
func (d *Dilator) GetReport() Report {
	d.mu.Lock()
	defer d.mu.Unlock()
	r := d.report
	r.Components = append([]StructureReport(nil), d.report.Components...)
	return r
}

func (d *Dilator) setState(s State) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// fail moves the run to Failed and wraps err unless it is already an *Error.
func (d *Dilator) fail(state State, s cifti.Structure, err error) error {
	d.setState(Failed)
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}
	return &Error{State: state, Structure: s, Err: err}
}

// Process dilates in and returns a new matrix with the same index maps. On
// failure no matrix is returned and the error is an *Error. The context is
// checked between components.
func (d *Dilator) Process(ctx context.Context, in *cifti.Matrix) (*cifti.Matrix, error) {
	start := time.Now()
	runID := uuid.NewString()
	logger := d.log.WithField("run", runID)

	d.mu.Lock()
	d.state = Validating
	d.report = Report{RunID: runID}
	d.mu.Unlock()

	logger.WithFields(log.Fields{
		"direction":        d.params.Direction,
		"surface_distance": d.params.SurfaceDistance,
		"volume_distance":  d.params.VolumeDistance,
		"nearest":          d.params.Nearest,
		"merged_volume":    d.params.MergedVolume,
	}).Info("validating inputs")
	surfaceTasks, volumeTasks, err := d.plan(in)
	if err != nil {
		return nil, d.fail(Validating, cifti.StructureInvalid, err)
	}

	out := in.NewLike()
	r := &run{dilator: d, in: in, out: out, log: logger}

	logger.WithField("components", len(surfaceTasks)).Info("dilating surface components")
	if err := r.phase(ctx, ExtractingSurfaces, surfaceTasks); err != nil {
		return nil, err
	}
	logger.WithField("components", len(volumeTasks)).Info("dilating volume components")
	if err := r.phase(ctx, ExtractingVolumes, volumeTasks); err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.state = Done
	d.report.RMSChange = rmsChange(in, out)
	d.report.Elapsed = time.Since(start)
	totals := d.report.Totals
	d.mu.Unlock()

	logger.WithFields(log.Fields{
		"bad":         totals.Bad,
		"filled":      totals.Filled,
		"unreachable": totals.Unreachable,
		"elapsed":     time.Since(start).Round(time.Millisecond),
	}).Info("dilation complete")
	return out, nil
}

// plan performs every check that can fail before any data is touched and
// returns the components to dilate, surfaces first.
func (d *Dilator) plan(in *cifti.Matrix) (surfaces, volumes []task, err error) {
	p := d.params
	if in == nil {
		return nil, nil, fmt.Errorf("%w: no input matrix", cifti.ErrInvalidIndexMap)
	}
	if !p.Direction.Valid() {
		return nil, nil, fmt.Errorf("%w: direction not supported by cifti dilate", cifti.ErrUnsupportedAxis)
	}
	surfaceList, volumeList, err := cifti.ListStructures(in, p.Direction)
	if err != nil {
		return nil, nil, err
	}
	if p.BadROI != nil {
		if err := cifti.CheckROISpace(in, p.Direction, p.BadROI); err != nil {
			return nil, nil, err
		}
	}
	if p.SurfaceDistance < 0 || p.VolumeDistance < 0 {
		return nil, nil, fmt.Errorf("%w: distances must not be negative", dilate.ErrBadInput)
	}
	conn := p.Connectivity
	if conn == 0 {
		conn = volume.Conn26
	}
	if _, err := volume.ParseConnectivity(int(conn)); err != nil {
		return nil, nil, err
	}

	present := make(map[cifti.Structure]bool, len(surfaceList))
	for _, s := range surfaceList {
		topo, name := d.surfaceFor(s)
		if name == "" {
			return nil, nil, fmt.Errorf("%w: found surface model with incorrect type %s", cifti.ErrMissingRequiredSurface, s)
		}
		if topo == nil {
			return nil, nil, fmt.Errorf("%w: %s surface required but not provided", cifti.ErrMissingRequiredSurface, name)
		}
		if err := cifti.CheckSurface(in, p.Direction, s, topo.NumVertices()); err != nil {
			return nil, nil, err
		}
		present[s] = true
	}

	label := in.IsLabel(p.Direction)
	for _, s := range cifti.SurfaceOrder {
		if !present[s] {
			continue
		}
		topo, _ := d.surfaceFor(s)
		kind := surfaceScalar
		if label {
			kind = surfaceLabel
		}
		surfaces = append(surfaces, task{order: len(surfaces), kind: kind, structures: []cifti.Structure{s}, topo: topo})
	}

	method := dilate.Weighted
	if p.Nearest || label {
		method = dilate.Nearest
	}
	switch {
	case len(volumeList) == 0:
	case p.MergedVolume:
		volumes = append(volumes, task{order: len(surfaces), kind: volumeMerged, structures: volumeList, method: method, conn: conn})
	default:
		for _, s := range volumeList {
			volumes = append(volumes, task{
				order:      len(surfaces) + len(volumes),
				kind:       volumeSingle,
				structures: []cifti.Structure{s},
				method:     method,
				conn:       conn,
			})
		}
	}
	return surfaces, volumes, nil
}

// surfaceFor returns the topology supplied for s and its option name; the
// name is empty for structures that cannot carry a surface.
func (d *Dilator) surfaceFor(s cifti.Structure) (dilate.Topology, string) {
	switch s {
	case cifti.CortexLeft:
		return d.params.LeftSurface, "left"
	case cifti.CortexRight:
		return d.params.RightSurface, "right"
	case cifti.Cerebellum:
		return d.params.CerebellumSurface, "cerebellum"
	default:
		return nil, ""
	}
}

// record stores a finished component in the report.
func (d *Dilator) record(rep StructureReport) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.report.Components = append(d.report.Components, rep)
	d.report.Totals.Add(rep.Stats)
}

// sortReports restores task order after a parallel phase.
func (d *Dilator) sortReports() {
	d.mu.Lock()
	defer d.mu.Unlock()
	sort.SliceStable(d.report.Components, func(a, b int) bool {
		return d.report.Components[a].order < d.report.Components[b].order
	})
}
