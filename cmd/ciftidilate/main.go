package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"ciftidilate/pkg/cifti"
	"ciftidilate/pkg/ciftiio"
	"ciftidilate/pkg/config"
	"ciftidilate/pkg/dilate"
	"ciftidilate/pkg/pipeline"
	"ciftidilate/pkg/reduce"
	"ciftidilate/pkg/visualization"
)

type options struct {
	input, output     string
	configPath        string
	writeConfig       string
	left, right, cere string
	badROI            string
	reduceOp          string
}

func main() {
	cfg := config.DefaultConfig()
	var opts options

	flag.StringVar(&opts.input, "input", "", "Input matrix layout file")
	flag.StringVar(&opts.output, "output", "", "Output matrix layout file")
	flag.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flag.StringVar(&opts.writeConfig, "write-config", "", "Write the default configuration to this path and exit")
	flag.StringVar(&opts.left, "left-surface", "", "Left cortex surface file")
	flag.StringVar(&opts.right, "right-surface", "", "Right cortex surface file")
	flag.StringVar(&opts.cere, "cerebellum-surface", "", "Cerebellum surface file")
	flag.StringVar(&opts.badROI, "bad-brainordinate-roi", "", "Matrix whose positive values mark the brainordinates to replace")
	flag.StringVar(&opts.reduceOp, "reduce", "", "Reduce the maps with this operation instead of dilating")
	direction := flag.String("direction", cfg.Dilation.Direction, "Brainordinate direction, ROW or COLUMN")
	surfaceDist := flag.Float64("surface-distance", cfg.Dilation.SurfaceDistance, "Geodesic search distance on surfaces in mm")
	volumeDist := flag.Float64("volume-distance", cfg.Dilation.VolumeDistance, "Search distance in volumes in mm")
	nearest := flag.Bool("nearest", cfg.Dilation.Nearest, "Use the nearest good value instead of a weighted average")
	merged := flag.Bool("merged-volume", cfg.Dilation.MergedVolume, "Treat all volume structures as one volume")
	connectivity := flag.Int("connectivity", cfg.Volume.Connectivity, "Voxel connectivity: 6, 18 or 26")
	numCores := flag.Int("cores", cfg.Processing.NumCores, "Number of structures dilated at once")
	excludeOutliers := flag.Bool("exclude-outliers", cfg.Reduce.ExcludeOutliers, "Exclude outliers before reducing")
	sigmaBelow := flag.Float64("sigma-below", cfg.Reduce.SigmaBelow, "Standard deviations below the mean to include")
	sigmaAbove := flag.Float64("sigma-above", cfg.Reduce.SigmaAbove, "Standard deviations above the mean to include")
	qcDir := flag.String("qc-dir", cfg.Output.QCDir, "Directory for slice images of the dilated volume")
	logLevel := flag.String("log-level", cfg.Output.LogLevel, "Log level")
	flag.Parse()

	if opts.writeConfig != "" {
		if err := config.CreateDefaultConfigFile(opts.writeConfig); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", opts.writeConfig)
		return
	}
	if opts.input == "" || opts.output == "" {
		flag.Usage()
		os.Exit(1)
	}

	if opts.configPath != "" {
		loaded, err := config.LoadConfig(opts.configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}

	// Explicit flags win over the config file.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	override := func(name string, apply func()) {
		if set[name] || opts.configPath == "" {
			apply()
		}
	}
	override("direction", func() { cfg.Dilation.Direction = *direction })
	override("surface-distance", func() { cfg.Dilation.SurfaceDistance = *surfaceDist })
	override("volume-distance", func() { cfg.Dilation.VolumeDistance = *volumeDist })
	override("nearest", func() { cfg.Dilation.Nearest = *nearest })
	override("merged-volume", func() { cfg.Dilation.MergedVolume = *merged })
	override("connectivity", func() { cfg.Volume.Connectivity = *connectivity })
	override("cores", func() { cfg.Processing.NumCores = *numCores })
	override("exclude-outliers", func() { cfg.Reduce.ExcludeOutliers = *excludeOutliers })
	override("sigma-below", func() { cfg.Reduce.SigmaBelow = *sigmaBelow })
	override("sigma-above", func() { cfg.Reduce.SigmaAbove = *sigmaAbove })
	override("qc-dir", func() { cfg.Output.QCDir = *qcDir })
	override("log-level", func() { cfg.Output.LogLevel = *logLevel })
	if opts.reduceOp != "" {
		cfg.Reduce.Operation = opts.reduceOp
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	level, _ := log.ParseLevel(cfg.Output.LogLevel)
	logger := log.StandardLogger()
	logger.SetLevel(level)

	in, err := ciftiio.ReadMatrix(opts.input)
	if err != nil {
		log.Fatalf("Failed to read input: %v", err)
	}

	start := time.Now()
	var out *cifti.Matrix
	if opts.reduceOp != "" {
		out, err = runReduce(cfg, in, logger)
	} else {
		out, err = runDilate(cfg, &opts, in, logger)
	}
	if err != nil {
		log.Fatalf("Processing failed: %v", err)
	}

	if err := ciftiio.WriteMatrix(opts.output, out); err != nil {
		log.Fatalf("Failed to write output: %v", err)
	}
	logger.WithFields(log.Fields{
		"output":  opts.output,
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("output written")
}

func runReduce(cfg *config.Config, in *cifti.Matrix, logger *log.Logger) (*cifti.Matrix, error) {
	op, ropts, err := cfg.ReduceOptions()
	if err != nil {
		return nil, err
	}
	dir, _ := cifti.ParseDirection(cfg.Dilation.Direction)
	ropts.Logger = logger
	return reduce.Reduce(in, dir, op, ropts)
}

func runDilate(cfg *config.Config, opts *options, in *cifti.Matrix, logger *log.Logger) (*cifti.Matrix, error) {
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	params.Logger = logger

	if opts.left != "" {
		if params.LeftSurface, err = readSurface(opts.left, cifti.CortexLeft, logger); err != nil {
			return nil, err
		}
	}
	if opts.right != "" {
		if params.RightSurface, err = readSurface(opts.right, cifti.CortexRight, logger); err != nil {
			return nil, err
		}
	}
	if opts.cere != "" {
		if params.CerebellumSurface, err = readSurface(opts.cere, cifti.Cerebellum, logger); err != nil {
			return nil, err
		}
	}
	if opts.badROI != "" {
		roi, err := ciftiio.ReadMatrix(opts.badROI)
		if err != nil {
			return nil, fmt.Errorf("reading bad brainordinate roi: %w", err)
		}
		params.BadROI = roi
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	dilator := pipeline.NewDilator(params)
	out, err := dilator.Process(ctx, in)
	if err != nil {
		return nil, err
	}

	report := dilator.GetReport()
	for _, c := range report.Components {
		logger.WithFields(log.Fields{
			"structures":  c.Structures,
			"kind":        c.Kind,
			"method":      c.Method,
			"maps":        c.Maps,
			"bad":         c.Bad,
			"filled":      c.Filled,
			"unreachable": c.Unreachable,
		}).Info("component summary")
	}
	logger.WithFields(log.Fields{
		"run":        report.RunID,
		"rms_change": report.RMSChange,
	}).Info("dilation summary")

	if cfg.Output.QCDir != "" {
		if err := exportQC(out, params.Direction, cfg.Output.QCDir); err != nil {
			logger.WithError(err).Warn("failed to export qc slices")
		}
	}
	return out, nil
}

func exportQC(out *cifti.Matrix, dir cifti.Direction, qcDir string) error {
	bms, err := out.BrainModels(dir)
	if err != nil || !bms.HasVolumeData() {
		return err
	}
	comp, err := cifti.ExtractMergedVolume(out, dir)
	if err != nil {
		return err
	}
	return visualization.ExportComponent(comp, 0, filepath.Join(qcDir, "volume"))
}

// readSurface loads a surface and warns when its file was written for another structure.
func readSurface(path string, want cifti.Structure, logger *log.Logger) (dilate.Topology, error) {
	mesh, s, err := ciftiio.ReadSurface(path)
	if err != nil {
		return nil, err
	}
	if s != cifti.StructureInvalid && s != want {
		logger.WithFields(log.Fields{"file": path, "structure": s, "expected": want}).Warn("surface file names a different structure")
	}
	return mesh, nil
}
