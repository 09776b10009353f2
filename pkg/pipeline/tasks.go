package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"ciftidilate/pkg/cifti"
	"ciftidilate/pkg/dilate"
	"ciftidilate/pkg/volume"
)

type taskKind int

const (
	surfaceScalar taskKind = iota
	surfaceLabel
	volumeSingle
	volumeMerged
)

func (k taskKind) String() string {
	switch k {
	case surfaceScalar:
		return "surface"
	case surfaceLabel:
		return "label surface"
	case volumeSingle:
		return "volume"
	default:
		return "merged volume"
	}
}

// task is one component to dilate.
type task struct {
	order      int
	kind       taskKind
	structures []cifti.Structure
	topo       dilate.Topology
	method     dilate.Method
	conn       volume.Connectivity
}

// structure names the component in errors; merged volumes report none.
func (t task) structure() cifti.Structure {
	if len(t.structures) == 1 {
		return t.structures[0]
	}
	return cifti.StructureInvalid
}

// run carries the matrices of one Process call. Components own disjoint
// brainordinates, so concurrent tasks write disjoint elements of out.
type run struct {
	dilator *Dilator
	in      *cifti.Matrix
	out     *cifti.Matrix
	log     *log.Entry
}

type taskResult struct {
	task task
	err  error
}

// phase runs tasks, in parallel when NumCores allows it. The first failure
// stops the phase and is returned as an *Error.
func (r *run) phase(ctx context.Context, state State, tasks []task) error {
	d := r.dilator
	d.setState(state)
	if len(tasks) == 0 {
		return nil
	}

	numCores := d.params.NumCores
	if numCores <= 1 {
		for _, t := range tasks {
			if err := ctx.Err(); err != nil {
				return d.fail(state, t.structure(), err)
			}
			if err := r.execute(t); err != nil {
				return d.fail(state, t.structure(), err)
			}
		}
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sem := make(chan struct{}, numCores)
	resultChan := make(chan taskResult, len(tasks))
	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t task) {
			defer wg.Done()
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				resultChan <- taskResult{task: t, err: ctx.Err()}
				return
			}
			defer func() { <-sem }()
			if err := ctx.Err(); err != nil {
				resultChan <- taskResult{task: t, err: err}
				return
			}
			resultChan <- taskResult{task: t, err: r.execute(t)}
		}(t)
	}
	go func() {
		wg.Wait()
		close(resultChan)
	}()

	var first *taskResult
	for res := range resultChan {
		if res.err != nil && first == nil {
			first = &res
			cancel()
		}
	}
	if first != nil {
		return d.fail(state, first.task.structure(), first.err)
	}
	d.sortReports()
	return nil
}

// execute dilates one component and places it into the output matrix.
func (r *run) execute(t task) error {
	start := time.Now()
	var (
		st   dilate.Stats
		maps int
		err  error
	)
	switch t.kind {
	case surfaceScalar, surfaceLabel:
		st, maps, err = r.dilateSurface(t)
	default:
		st, maps, err = r.dilateVolume(t)
	}
	if err != nil {
		return err
	}

	method := t.method.String()
	if t.kind == surfaceLabel {
		method = "VOTE"
	} else if t.kind == surfaceScalar {
		method = dilate.Weighted.String()
		if r.dilator.params.Nearest {
			method = dilate.Nearest.String()
		}
	}
	rep := StructureReport{
		Structures: t.structures,
		Kind:       t.kind.String(),
		Method:     method,
		Maps:       maps,
		Stats:      st,
		Elapsed:    time.Since(start),
		order:      t.order,
	}
	r.dilator.record(rep)
	r.log.WithFields(log.Fields{
		"structures":  t.structures,
		"kind":        rep.Kind,
		"method":      rep.Method,
		"bad":         st.Bad,
		"filled":      st.Filled,
		"unreachable": st.Unreachable,
	}).Debug("component dilated")
	return nil
}

func (r *run) dilateSurface(t task) (dilate.Stats, int, error) {
	p := r.dilator.params
	s := t.structures[0]
	comp, err := cifti.ExtractSurface(r.in, p.Direction, s)
	if err != nil {
		return dilate.Stats{}, 0, err
	}
	var roi []float64
	if p.BadROI != nil {
		roiComp, err := cifti.ExtractSurface(p.BadROI, cifti.AlongColumn, s)
		if err != nil {
			return dilate.Stats{}, 0, fmt.Errorf("roi: %w", err)
		}
		roi = roiComp.Maps[0]
	}

	var total dilate.Stats
	for k, values := range comp.Maps {
		var (
			out []float64
			st  dilate.Stats
		)
		if t.kind == surfaceLabel {
			unassigned := r.in.UnassignedKey(p.Direction, k)
			bad := dilate.BadMask(values, roi, comp.Defined, float64(unassigned))
			out, st, err = dilate.Labels(values, t.topo, p.SurfaceDistance, bad, comp.Defined, unassigned)
		} else {
			bad := dilate.BadMask(values, roi, comp.Defined, 0)
			out, st, err = dilate.Surface(values, t.topo, p.SurfaceDistance, bad, p.Nearest, comp.Defined)
		}
		if err != nil {
			return dilate.Stats{}, 0, err
		}
		comp.Maps[k] = out
		total.Add(st)
	}
	if err := cifti.PlaceSurface(r.out, p.Direction, comp); err != nil {
		return dilate.Stats{}, 0, err
	}
	return total, len(comp.Maps), nil
}

func (r *run) dilateVolume(t task) (dilate.Stats, int, error) {
	p := r.dilator.params
	extract := func(m *cifti.Matrix, dir cifti.Direction) (*cifti.VolumeComponent, error) {
		if t.kind == volumeMerged {
			return cifti.ExtractMergedVolume(m, dir)
		}
		return cifti.ExtractVolume(m, dir, t.structures[0])
	}
	comp, err := extract(r.in, p.Direction)
	if err != nil {
		return dilate.Stats{}, 0, err
	}
	var roi []float64
	if p.BadROI != nil {
		roiComp, err := extract(p.BadROI, cifti.AlongColumn)
		if err != nil {
			return dilate.Stats{}, 0, fmt.Errorf("roi: %w", err)
		}
		roi = roiComp.Maps[0]
	}
	grid, err := volume.NewGrid(comp.Dims, comp.SForm, t.conn)
	if err != nil {
		return dilate.Stats{}, 0, err
	}

	var total dilate.Stats
	for k, values := range comp.Maps {
		badValue := float64(r.in.UnassignedKey(p.Direction, k))
		bad := dilate.BadMask(values, roi, comp.Defined, badValue)
		out, st, err := dilate.Volume(grid, values, p.VolumeDistance, t.method, bad, comp.Defined)
		if err != nil {
			return dilate.Stats{}, 0, err
		}
		comp.Maps[k] = out
		total.Add(st)
	}
	if err := cifti.PlaceVolume(r.out, p.Direction, comp); err != nil {
		return dilate.Stats{}, 0, err
	}
	return total, len(comp.Maps), nil
}
