package app

import (
	"errors"
	"fmt"
	"os"

	"github.com/GriffinCanCode/pipechain/internal/cli"
	"github.com/GriffinCanCode/pipechain/internal/infrastructure/config"
	"github.com/GriffinCanCode/pipechain/internal/infrastructure/logging"
	"github.com/GriffinCanCode/pipechain/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/pipechain/internal/pipeline"
	"github.com/GriffinCanCode/pipechain/internal/shared/failure"
	"github.com/GriffinCanCode/pipechain/internal/shared/id"
	"go.uber.org/zap"
)

// Exit codes.
const (
	ExitSuccess = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// Runner holds what one invocation needs beyond its arguments.
type Runner struct {
	Config  *config.Config
	Logger  *logging.Logger
	Metrics *monitoring.Metrics
	RunID   id.RunID

	// Executable overrides the binary re-executed for workers.
	Executable string
}

// Main is the single top-level handler of a supervisor process. It returns
// the process exit code.
func Main(args []string, stdout, stderr *os.File) int {
	parsed, err := cli.Parse(args)
	if err != nil {
		var ue *cli.UsageError
		if errors.As(err, &ue) {
			fmt.Fprintf(stderr, "%s: %s\n", progName(args), ue.Reason)
			fmt.Fprintln(stderr, ue.Line)
		} else {
			fmt.Fprintf(stderr, "%s: %v\n", progName(args), err)
		}
		return ExitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", parsed.Prog, err)
		return ExitFailure
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		fmt.Fprintf(stderr, "%s: failed to create logger: %v\n", parsed.Prog, err)
		return ExitFailure
	}

	r := &Runner{
		Config:  cfg,
		Metrics: monitoring.NewMetrics(),
		RunID:   id.NewRunID(),
	}
	r.Logger = logger.Run(r.RunID.String())
	defer r.Logger.Sync()

	if err := r.Run(parsed, stdout, stderr); err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", parsed.Prog, err)
		return ExitFailure
	}
	return ExitSuccess
}

// Run relays the source named by args through a chain of args.Stages workers
// into stdout. Teardown happens exactly once, on every path.
func (r *Runner) Run(args cli.Args, stdout, stderr *os.File) (err error) {
	log := r.Logger
	if log == nil {
		log = logging.NewNop()
	}
	if r.Metrics == nil {
		r.Metrics = monitoring.NewMetrics()
	}
	cfg := r.Config
	if cfg == nil {
		cfg = config.Default()
	}

	// The supervisor counts its own failures.
	counted := false
	defer func() {
		if err != nil {
			if !counted {
				r.Metrics.RecordError(failure.KindOf(err).String())
			}
			log.Error("run failed", zap.Error(err), zap.String("kind", failure.KindOf(err).String()))
		}
		if cfg.Metrics.File != "" {
			if werr := r.Metrics.WriteTextfile(cfg.Metrics.File); werr != nil {
				log.Warn("failed to write metrics", zap.String("path", cfg.Metrics.File), zap.Error(werr))
			}
		}
	}()

	source, err := os.Open(args.Source)
	if err != nil {
		return failure.New(failure.IO, "open source", err)
	}

	log.Debug("building pipeline",
		zap.Int("stages", args.Stages),
		zap.String("source", args.Source),
		zap.String("policy", cfg.Buffer.Policy))

	p, err := pipeline.Build(pipeline.Options{
		Stages:     args.Stages,
		Source:     source,
		Sink:       stdout,
		Stderr:     stderr,
		Executable: r.Executable,
		Sizing:     pipeline.SizingFromConfig(cfg.Buffer),
		ChunkSize:  cfg.Worker.ChunkSize,
		RunID:      r.RunID.String(),
		Logger:     log,
		Metrics:    r.Metrics,
	})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if err = p.Run(); err != nil {
		counted = true
		return err
	}

	log.Debug("pipeline finished")
	return nil
}

func progName(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return "pipechain"
}
