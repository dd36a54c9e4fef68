package pipeline

import (
	"path/filepath"

	"github.com/me/fastq2bam/internal/header"
	"github.com/me/fastq2bam/internal/workspace"
	"github.com/me/fastq2bam/pkg/model"
)

// PlaceholderWorkspace stands in for the workspace directory in a Plan,
// since no workspace is created for a dry run.
const PlaceholderWorkspace = "<workspace>"

// Plan is the dry-run view of a conversion.
type Plan struct {
	Path      model.Path             `yaml:"path"`
	Output    string                 `yaml:"output"`
	ReadGroup []model.Field          `yaml:"read_group"`
	Header    string                 `yaml:"header,omitempty"`
	Steps     []model.ToolInvocation `yaml:"steps"`
}

// Plan validates req and returns the invocations Run would execute,
// without touching the filesystem.
func (o *Orchestrator) Plan(req *model.ConversionRequest) (*Plan, error) {
	req, err := prepare(req)
	if err != nil {
		return nil, err
	}

	plan := &Plan{
		Path:      SelectPath(req),
		Output:    req.OutputPath,
		ReadGroup: req.ReadGroup.Fields(),
	}
	if plan.Path == model.PathSingleStep {
		plan.Steps = []model.ToolInvocation{o.builder.Convert(req, true, req.OutputPath, true)}
		return plan, nil
	}

	text, err := header.Build(req.ReadGroup, req.Comments)
	if err != nil {
		return nil, err
	}
	plan.Header = text
	tmpBAM := filepath.Join(PlaceholderWorkspace, workspace.IntermediateFile)
	headerPath := filepath.Join(PlaceholderWorkspace, workspace.HeaderFile)
	plan.Steps = []model.ToolInvocation{
		o.builder.Convert(req, false, tmpBAM, false),
		o.builder.Reset(tmpBAM, headerPath, req.OutputPath),
	}
	return plan, nil
}
