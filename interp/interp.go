// Package interp runs a G-code program end to end: lines are tokenized,
// classified and resolved in order on one goroutine, then expanded into
// path segments by a worker pool.
package interp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mastercactapus/gcpath/config"
	"github.com/mastercactapus/gcpath/diag"
	"github.com/mastercactapus/gcpath/gcode"
	"github.com/mastercactapus/gcpath/path"
	"github.com/mastercactapus/gcpath/vm"
)

// ErrStrict is wrapped by the error returned when a strict run stops at a
// line it could not interpret.
var ErrStrict = errors.New("strict mode")

// RunString runs the program held in s.
func RunString(ctx context.Context, s string, cfg config.Config) (*Result, error) {
	return Run(ctx, gcode.SplitLines(s), cfg)
}

// Run interprets every line from r.
//
// Problems with single lines never stop a lenient run; they are reported
// by Result.Diagnostics. Run returns an error together with a partial
// Result when ctx is done, when r fails, or when a strict run meets a line
// it cannot interpret. Moves resolved before the stop are still expanded.
// Only an invalid cfg yields a nil Result.
func Run(ctx context.Context, r gcode.Reader, cfg config.Config) (*Result, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	res := &Result{
		ID:      uuid.New(),
		sampler: path.Sampler{Tolerance: cfg.Tolerance, MaxSamples: cfg.MaxSamples},
	}
	log := Logger().With("run", res.ID.String())
	start := time.Now()

	rs := newResolver(cfg, log)
	moves, err := rs.run(ctx, r)
	log.Info("resolved",
		"lines", rs.stats.Lines,
		"motions", rs.stats.Motions,
		"skipped", rs.stats.Skipped,
		"elapsed", time.Since(start),
	)

	// the resolved prefix is bounded and already paid for
	xctx := ctx
	if err != nil {
		xctx = context.WithoutCancel(ctx)
	}
	expandStart := time.Now()
	segs, xerr := path.Expand(xctx, moves, path.Options{Workers: cfg.Workers})
	if err == nil {
		err = xerr
	}
	log.Info("expanded",
		"segments", len(segs),
		"workers", cfg.Workers,
		"elapsed", time.Since(expandStart),
	)

	res.segments = segs
	res.diags = rs.diags.List()
	res.stats = rs.stats
	res.stats.Segments = len(segs)
	res.stats.Warnings = rs.diags.Count(diag.Warning)
	res.stats.Errors = rs.diags.Count(diag.Error)
	for _, s := range segs {
		if s.Kind == path.KindArc {
			res.stats.Arcs++
		}
		res.stats.Travel += s.Length()
		res.stats.Extruded += s.Extrude
	}

	if err != nil {
		log.Warn("run stopped early", "err", err)
	}
	return res, err
}

// resolver is the sequential stage of a run.
type resolver struct {
	cfg   config.Config
	log   *slog.Logger
	m     *vm.Machine
	diags diag.Collector
	stats Stats

	lastNumber int
	haveNumber bool
}

func newResolver(cfg config.Config, log *slog.Logger) *resolver {
	units := vm.UnitsMM
	if cfg.Inches() {
		units = vm.UnitsInch
	}
	return &resolver{
		cfg: cfg,
		log: log,
		m:   vm.NewMachine(vm.Options{Units: units, ArcTolerance: cfg.ArcRadiusTolerance}),
	}
}

func (rs *resolver) run(ctx context.Context, r gcode.Reader) ([]vm.Move, error) {
	var moves []vm.Move
	for i := 0; ; i++ {
		if err := ctx.Err(); err != nil {
			return moves, err
		}
		raw, err := r.Read()
		if errors.Is(err, io.EOF) {
			return moves, nil
		}
		if err != nil {
			return moves, fmt.Errorf("read line %d: %w", i+1, err)
		}
		rs.stats.Lines++

		mv, ok, err := rs.line(i, raw)
		if ok {
			moves = append(moves, mv)
		}
		if err != nil {
			return moves, err
		}
	}
}

// line handles a single source line. A non-nil error stops the run.
func (rs *resolver) line(i int, raw string) (vm.Move, bool, error) {
	ln, err := gcode.Tokenize(i, raw)
	if err != nil {
		rs.stats.Skipped++
		rs.report(i, diag.Error, diag.CodeSyntax, err)
		return vm.Move{}, false, rs.escalate(i, err)
	}
	if ln.ChecksumErr != nil {
		rs.report(i, diag.Warning, diag.CodeChecksum, ln.ChecksumErr)
	}
	rs.checkNumber(ln)

	cmd, errs := gcode.Classify(ln)
	for _, err := range errs {
		var uerr *gcode.UnsupportedError
		if errors.As(err, &uerr) {
			rs.report(i, diag.Warning, diag.CodeUnsupported, err)
		} else {
			rs.report(i, diag.Error, diag.CodeInvalidBlock, err)
		}
	}

	switch c := cmd.(type) {
	case gcode.Motion:
		rs.stats.Motions++
	case gcode.Setting:
		rs.stats.Settings++
	case gcode.Noop:
		rs.stats.Noops++
		if c.Reason == gcode.NoopUnsupported || c.Reason == gcode.NoopInvalid {
			rs.stats.Skipped++
		}
	}
	if len(errs) > 0 {
		if err := rs.escalate(i, errs[0]); err != nil {
			return vm.Move{}, false, err
		}
	}

	mv, ok, err := rs.m.Run(ln, cmd)
	if err != nil {
		rs.report(i, diag.Error, diag.CodeGeometry, fmt.Errorf("%w; replaced by a straight move", err))
	}
	return mv, ok, nil
}

// checkNumber warns about gaps in N line numbers. M110 sets the next
// expected number.
func (rs *resolver) checkNumber(ln gcode.Line) {
	if !ln.HasNumber {
		return
	}
	if rs.haveNumber && ln.Number != rs.lastNumber+1 && !resetsNumber(ln.Words) {
		rs.diags.Warnf(ln.Index, diag.CodeLineNumber, "expected line number %d, got %d", rs.lastNumber+1, ln.Number)
	}
	rs.lastNumber, rs.haveNumber = ln.Number, true
}

func resetsNumber(b gcode.Block) bool {
	for _, w := range b {
		if w.Code('M', 110) {
			return true
		}
	}
	return false
}

func (rs *resolver) report(line int, sev diag.Severity, code diag.Code, err error) {
	d := diag.Diagnostic{Line: line, Severity: sev, Code: code, Detail: err.Error()}
	rs.diags.Add(d)
	rs.log.Debug("diagnostic", "line", line+1, "severity", sev, "code", code, "detail", d.Detail)
}

func (rs *resolver) escalate(line int, err error) error {
	if !rs.cfg.Strict() {
		return nil
	}
	return fmt.Errorf("%w: line %d: %w", ErrStrict, line+1, err)
}
