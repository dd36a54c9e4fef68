package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/me/fastq2bam/internal/cmdline"
	"github.com/me/fastq2bam/internal/config"
	"github.com/me/fastq2bam/internal/execution"
	"github.com/me/fastq2bam/internal/pipeline"
	"github.com/me/fastq2bam/pkg/model"
)

func run(cmd *cobra.Command, opts *options) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}
	logger := newLogger(cmd, cfg.LogLevel, cfg.LogFormat, opts.debug)

	req, err := buildRequest(cmd, opts)
	if err != nil {
		return err
	}

	exclude, err := cfg.ExcludeList()
	if err != nil {
		return err
	}
	orch := pipeline.New(pipeline.Config{
		Logger: logger,
		Runtime: &execution.LocalRuntime{
			Stdout: cmd.OutOrStdout(),
			Stderr: cmd.ErrOrStderr(),
		},
		Builder: cmdline.NewBuilder(cmdline.Options{
			FastqToBamBin: cfg.FastqToBamBin,
			BamResetBin:   cfg.BamResetBin,
			ResetExclude:  exclude,
			MD5:           cfg.MD5,
		}),
		WorkspaceParent: cfg.TmpDir,
	})

	if opts.dryRun {
		plan, err := orch.Plan(req)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(plan); err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		return enc.Close()
	}

	if err := os.MkdirAll(opts.outputDir, 0o755); err != nil {
		return &model.ResourceError{Op: "create output directory", Path: opts.outputDir, Err: err}
	}
	_, err = orch.Run(cmd.Context(), req)
	return err
}

// loadConfig reads the config file and environment, then applies the
// flags the user set explicitly.
func loadConfig(cmd *cobra.Command, opts *options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("fastqtobam-bin") {
		cfg.FastqToBamBin = opts.fastqToBamBin
	}
	if flags.Changed("bamreset-bin") {
		cfg.BamResetBin = opts.bamResetBin
	}
	if flags.Changed("reset-exclude") {
		cfg.ResetExclude = opts.resetExclude
	}
	if flags.Changed("md5") {
		cfg.MD5 = opts.md5
	}
	if flags.Changed("tmp-dir") {
		cfg.TmpDir = opts.tmpDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.logFormat
	}
	return cfg, nil
}

// buildRequest turns flag values into a validated ConversionRequest.
func buildRequest(cmd *cobra.Command, opts *options) (*model.ConversionRequest, error) {
	rg := model.ReadGroupMetadata{
		ID: opts.rg.ID,
		CN: opts.rg.CN,
		DS: opts.rg.DS,
		DT: opts.rg.DT,
		FO: opts.rg.FO,
		KS: opts.rg.KS,
		LB: opts.rg.LB,
		PG: opts.rg.PG,
		PI: opts.rg.PI,
		PL: model.Platform(opts.rg.PL),
		PM: model.PlatformModel(opts.rg.PM),
		PU: opts.rg.PU,
		SM: opts.rg.SM,
	}

	req := &model.ConversionRequest{
		ReadGroup:    rg,
		Comments:     model.CommentLines(opts.comments),
		Fastq1:       opts.fastq1,
		Fastq2:       opts.fastq2,
		Gzipped:      bool(opts.isGz),
		CheckQuality: bool(opts.checkQuality),
		NameScheme:   model.NameScheme(opts.nameScheme),
	}

	flags := cmd.Flags()
	if flags.Changed("qualityoffset") {
		n := opts.qualityOffset
		req.QualityOffset = &n
	}
	if flags.Changed("qualitymax") {
		n := opts.qualityMax
		req.QualityMax = &n
	}

	if opts.fastq1 == "" {
		return nil, model.NewRequiredError("fastq_1")
	}
	filename := opts.outputFilename
	if filename == "" {
		filename = model.DefaultOutputFilename(opts.fastq1)
	}
	req.OutputPath = filepath.Join(opts.outputDir, filename)

	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
