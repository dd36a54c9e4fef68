// Package pipeline turns a ConversionRequest into one or two external tool
// runs: a direct conversion when there are no comment lines, otherwise a
// conversion into a workspace followed by a header reset.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/me/fastq2bam/internal/cmdline"
	"github.com/me/fastq2bam/internal/execution"
	"github.com/me/fastq2bam/internal/header"
	"github.com/me/fastq2bam/internal/logging"
	"github.com/me/fastq2bam/internal/workspace"
	"github.com/me/fastq2bam/pkg/model"
)

// Orchestrator selects and runs the conversion pipeline.
type Orchestrator struct {
	logger    *slog.Logger
	runtime   execution.Runtime
	builder   *cmdline.Builder
	tmpParent string
}

// Config holds orchestrator configuration.
type Config struct {
	Logger  *slog.Logger
	Runtime execution.Runtime
	Builder *cmdline.Builder

	// WorkspaceParent is where two-step workspaces are created. Empty means
	// the directory of the output file.
	WorkspaceParent string
}

// New creates an orchestrator, defaulting to local execution.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	rt := cfg.Runtime
	if rt == nil {
		rt = execution.NewLocalRuntime()
	}
	builder := cfg.Builder
	if builder == nil {
		builder = cmdline.NewBuilder(cmdline.Options{})
	}
	return &Orchestrator{
		logger:    logger.With("component", "pipeline"),
		runtime:   rt,
		builder:   builder,
		tmpParent: cfg.WorkspaceParent,
	}
}

// Result describes a completed run.
type Result struct {
	Path   model.Path
	Output string
	Steps  []model.ToolInvocation
}

// SelectPath reports which pipeline a request needs.
func SelectPath(req *model.ConversionRequest) model.Path {
	if req.TwoStep() {
		return model.PathTwoStep
	}
	return model.PathSingleStep
}

// Run validates req, normalizes its metadata and executes the selected
// pipeline. Nothing is executed if validation or normalization fails.
func (o *Orchestrator) Run(ctx context.Context, req *model.ConversionRequest) (*Result, error) {
	req, err := prepare(req)
	if err != nil {
		return nil, err
	}

	path := SelectPath(req)
	o.logger.Info("starting conversion", "path", path, "fastq_1", req.Fastq1, "fastq_2", req.Fastq2, "output", req.OutputPath)

	var steps []model.ToolInvocation
	switch path {
	case model.PathSingleStep:
		steps, err = o.runSingleStep(ctx, req)
	default:
		steps, err = o.runTwoStep(ctx, req)
	}
	if err != nil {
		return &Result{Path: path, Output: req.OutputPath, Steps: steps}, err
	}

	o.logger.Info("conversion complete", "output", req.OutputPath, logging.FileSize(req.OutputPath))
	return &Result{Path: path, Output: req.OutputPath, Steps: steps}, nil
}

func (o *Orchestrator) runSingleStep(ctx context.Context, req *model.ConversionRequest) ([]model.ToolInvocation, error) {
	inv := o.builder.Convert(req, true, req.OutputPath, true)
	return []model.ToolInvocation{inv}, o.execFinal(ctx, inv)
}

func (o *Orchestrator) runTwoStep(ctx context.Context, req *model.ConversionRequest) ([]model.ToolInvocation, error) {
	text, err := header.Build(req.ReadGroup, req.Comments)
	if err != nil {
		return nil, err
	}

	var steps []model.ToolInvocation
	err = workspace.With(o.workspaceParent(req), func(ws *workspace.Workspace) error {
		o.logger.Debug("workspace created", "dir", ws.Dir)

		headerPath, err := ws.WriteHeader(text)
		if err != nil {
			return err
		}

		convert := o.builder.Convert(req, false, ws.IntermediatePath(), false)
		steps = append(steps, convert)
		if err := o.exec(ctx, convert); err != nil {
			return err
		}

		reset := o.builder.Reset(ws.IntermediatePath(), headerPath, req.OutputPath)
		steps = append(steps, reset)
		return o.execFinal(ctx, reset)
	})
	return steps, err
}

// exec runs one invocation and turns a non-zero exit into a
// ToolExecutionError.
func (o *Orchestrator) exec(ctx context.Context, inv model.ToolInvocation) error {
	o.logger.Info("running tool", "step", inv.Step, "command", inv.String())

	result, err := o.runtime.Run(ctx, execution.RunSpec{
		Command: inv.Argv,
		Stdin:   inv.Stdin,
		Stdout:  inv.Stdout,
	})
	if err != nil {
		return fmt.Errorf("%s step: %s: %w", inv.Step, inv.Tool(), err)
	}
	if result.ExitCode != 0 {
		o.logger.Error("tool failed", "step", inv.Step, "tool", inv.Tool(), "exit_code", result.ExitCode)
		return &model.ToolExecutionError{
			Tool:     inv.Tool(),
			Step:     inv.Step,
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	o.logger.Debug("tool finished", "step", inv.Step, "tool", inv.Tool())
	return nil
}

// execFinal runs the invocation producing the final output and removes
// whatever partial file a failed run left behind.
func (o *Orchestrator) execFinal(ctx context.Context, inv model.ToolInvocation) error {
	err := o.exec(ctx, inv)
	if err == nil {
		return nil
	}
	if rmErr := os.Remove(inv.Stdout); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
		o.logger.Warn("could not remove partial output", "path", inv.Stdout, "error", rmErr)
	}
	return err
}

func (o *Orchestrator) workspaceParent(req *model.ConversionRequest) string {
	if o.tmpParent != "" {
		return o.tmpParent
	}
	return filepath.Dir(req.OutputPath)
}

// prepare validates req and returns a copy with normalized metadata.
func prepare(req *model.ConversionRequest) (*model.ConversionRequest, error) {
	if req == nil {
		return nil, errors.New("nil conversion request")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	rg, err := header.Normalize(req.ReadGroup)
	if err != nil {
		return nil, err
	}
	normalized := *req
	normalized.ReadGroup = rg
	return &normalized, nil
}
