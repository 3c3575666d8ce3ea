// Package compiler invokes the external SWC transformer to turn
// composed TSX modules into executable JavaScript.
package compiler

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/rivet-web/rivet/internal/errors"
	"github.com/rivet-web/rivet/internal/metrics"
)

// Mode selects the compilation target. The set is closed: every switch
// over Mode handles all three values.
type Mode int

const (
	// ModeDefault is a plain transform with no target-specific tuning.
	ModeDefault Mode = iota
	// ModeServerRender targets the server-side render bundle.
	ModeServerRender
	// ModeClientHydration targets the browser hydration bundle.
	ModeClientHydration
)

func (m Mode) String() string {
	switch m {
	case ModeServerRender:
		return "server"
	case ModeClientHydration:
		return "client"
	default:
		return "default"
	}
}

// Result is one successful compilation.
type Result struct {
	OutputCode []byte
	SourceMap  []byte
	OutputSize int64
	Elapsed    time.Duration
}

// Config configures the adapter.
type Config struct {
	// Command is the transformer binary name or path.
	Command string
	// Timeout bounds a single invocation; the process group is killed
	// when it elapses.
	Timeout time.Duration
	// SourceMaps asks the transformer to emit a source map next to the
	// output.
	SourceMaps bool
	// WorkDir is the directory the transformer runs in, so a project's
	// node_modules stays resolvable.
	WorkDir string
	// Logger defaults to slog.Default.
	Logger *slog.Logger
	// Metrics defaults to the process-wide instruments.
	Metrics *metrics.Metrics
}

// Compiler shells out to the configured transformer. It is safe for
// concurrent use; each Compile runs its own process in its own temp
// directory.
type Compiler struct {
	command    string
	timeout    time.Duration
	sourceMaps bool
	workDir    string
	logger     *slog.Logger
	metrics    *metrics.Metrics
	tracer     trace.Tracer

	versionOnce sync.Once
	version     string
}

// New verifies the transformer exists and returns the adapter. A
// missing tool fails here, before any compile is attempted, so the
// error surfaces once with remediation instead of per route.
func New(cfg Config) (*Compiler, error) {
	if cfg.Command == "" {
		cfg.Command = "swc"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Default()
	}

	resolved, err := exec.LookPath(cfg.Command)
	if err != nil {
		return nil, errors.New(errors.KindToolUnavailable,
			"compiler command %q not found", cfg.Command).
			WithRemediation("install @swc/cli (npm install -g @swc/cli @swc/core) or point RIVET_COMPILER_CMD at the binary").
			Wrap(err)
	}

	return &Compiler{
		command:    resolved,
		timeout:    cfg.Timeout,
		sourceMaps: cfg.SourceMaps,
		workDir:    cfg.WorkDir,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
		tracer:     otel.Tracer("rivet/compiler"),
	}, nil
}

// Command returns the resolved transformer path.
func (c *Compiler) Command() string {
	return c.command
}

// Compile transforms one composed source module for the given mode.
// Transform rejections come back as compile errors carrying the tool's
// stderr; exceeding the time budget kills the process group and comes
// back as a timeout.
func (c *Compiler) Compile(ctx context.Context, source []byte, mode Mode) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "compiler.compile", trace.WithAttributes(
		attribute.String("mode", mode.String()),
		attribute.Int("source_bytes", len(source)),
	))
	defer span.End()

	start := time.Now()
	result, err := c.run(ctx, source, mode)
	elapsed := time.Since(start)

	c.metrics.CompileDuration.WithLabelValues(mode.String()).Observe(elapsed.Seconds())
	if err != nil {
		c.metrics.CompileErrors.WithLabelValues(string(errors.KindOf(err))).Inc()
		span.RecordError(err)
		return nil, err
	}
	result.Elapsed = elapsed
	span.SetAttributes(attribute.Int64("output_bytes", result.OutputSize))
	return result, nil
}

func (c *Compiler) run(ctx context.Context, source []byte, mode Mode) (*Result, error) {
	tmp, err := os.MkdirTemp("", "rivet-compile-*")
	if err != nil {
		return nil, errors.New(errors.KindFileSystem, "creating compile workspace: %v", err)
	}
	defer os.RemoveAll(tmp)

	inputPath := filepath.Join(tmp, "input.tsx")
	outputPath := filepath.Join(tmp, "output.js")
	configPath := filepath.Join(tmp, ".swcrc")

	source = prepareSource(source, mode)
	if err := os.WriteFile(inputPath, source, 0644); err != nil {
		return nil, errors.New(errors.KindFileSystem, "writing compile input: %v", err).WithPath(inputPath)
	}
	swcrc, err := swcConfig(mode, c.sourceMaps)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(configPath, swcrc, 0644); err != nil {
		return nil, errors.New(errors.KindFileSystem, "writing compiler config: %v", err).WithPath(configPath)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.command, inputPath, "-o", outputPath, "--config-file", configPath)
	cmd.Dir = c.workDir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	configureProcessGroup(cmd)

	err = cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return nil, errors.New(errors.KindTimeout,
			"compile exceeded %s budget (mode %s)", c.timeout, mode).
			WithRemediation("raise RIVET_COMPILE_TIMEOUT or split the route's source")
	}
	if err != nil {
		return nil, errors.New(errors.KindCompile,
			"transformer rejected source (mode %s): %s", mode, firstLines(stderr.String(), 8)).
			Wrap(err)
	}

	output, err := os.ReadFile(outputPath)
	if err != nil {
		return nil, errors.New(errors.KindCompile,
			"transformer produced no output (mode %s)", mode).Wrap(err)
	}

	result := &Result{OutputCode: output, OutputSize: int64(len(output))}
	if c.sourceMaps {
		if m, err := os.ReadFile(outputPath + ".map"); err == nil {
			result.SourceMap = m
		}
	}
	return result, nil
}

// Version reports the transformer's version string, probed once and
// cached. Probe failures degrade to "unknown" so cache keys stay
// derivable.
func (c *Compiler) Version() string {
	c.versionOnce.Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		out, err := exec.CommandContext(ctx, c.command, "--version").Output()
		if err != nil {
			c.logger.Warn("compiler version probe failed", "command", c.command, "error", err)
			c.version = "unknown"
			return
		}
		c.version = parseVersion(string(out))
	})
	return c.version
}

// parseVersion extracts the last field of the first non-empty line,
// which covers both "@swc/cli: 0.7.7" and bare "0.7.7" outputs.
func parseVersion(out string) string {
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 {
			return fields[len(fields)-1]
		}
	}
	return "unknown"
}

func firstLines(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
