// Package cmdline builds the argument vectors for the external conversion
// and header-reset tools. Every value is a discrete argv token; nothing is
// ever interpreted by a shell.
package cmdline

import (
	"strconv"
	"strings"

	"github.com/me/fastq2bam/pkg/model"
)

// Step names used in invocations, logs and errors.
const (
	StepConvert = "convert"
	StepReset   = "reset"
)

// Options configures the builder.
type Options struct {
	FastqToBamBin string   // conversion tool executable
	BamResetBin   string   // header-reset tool executable
	ResetExclude  []string // record classes dropped by the reset step; empty passes all
	MD5           bool     // emit an md5 sidecar for the final output
}

// Builder constructs ToolInvocations for a ConversionRequest.
type Builder struct {
	opts Options
}

// NewBuilder creates a builder, falling back to the default tool names.
func NewBuilder(opts Options) *Builder {
	if opts.FastqToBamBin == "" {
		opts.FastqToBamBin = "fastqtobam"
	}
	if opts.BamResetBin == "" {
		opts.BamResetBin = "bamreset"
	}
	return &Builder{opts: opts}
}

// Convert builds the conversion-tool invocation writing to stdout.
// withReadGroup adds RGID and RG<KEY> tokens; req.ReadGroup must already be
// normalized. final marks the invocation as producing the final output,
// which is the only one that gets an md5 sidecar.
func (b *Builder) Convert(req *model.ConversionRequest, withReadGroup bool, stdout string, final bool) model.ToolInvocation {
	argv := []string{b.opts.FastqToBamBin, "I=" + req.Fastq1}
	if req.Fastq2 != "" {
		argv = append(argv, "I="+req.Fastq2)
	}

	if withReadGroup {
		argv = append(argv, ReadGroupArgs(req.ReadGroup)...)
	}

	if req.Gzipped {
		argv = append(argv, "gz=1")
	}
	if !req.CheckQuality {
		argv = append(argv, "checkquality=0")
	}
	if req.QualityOffset != nil {
		argv = append(argv, "qualityoffset="+strconv.Itoa(*req.QualityOffset))
	}
	if req.QualityMax != nil {
		argv = append(argv, "qualitymax="+strconv.Itoa(*req.QualityMax))
	}
	if req.NameScheme != "" {
		argv = append(argv, "namescheme="+string(req.NameScheme))
	}
	if final {
		argv = b.appendMD5(argv, stdout)
	}

	return model.ToolInvocation{Step: StepConvert, Argv: argv, Stdout: stdout}
}

// Reset builds the header-reset invocation: input is attached as stdin,
// headerFile replaces the header, output goes to stdout.
func (b *Builder) Reset(input, headerFile, stdout string) model.ToolInvocation {
	argv := []string{b.opts.BamResetBin}
	if len(b.opts.ResetExclude) > 0 {
		argv = append(argv, "exclude="+strings.Join(b.opts.ResetExclude, ","))
	}
	argv = append(argv, "resetheadertext="+headerFile)
	argv = b.appendMD5(argv, stdout)

	return model.ToolInvocation{Step: StepReset, Argv: argv, Stdin: input, Stdout: stdout}
}

// ReadGroupArgs returns RGID=<ID> followed by RG<KEY>=<value> for every
// other present field, in canonical order.
func ReadGroupArgs(rg model.ReadGroupMetadata) []string {
	fields := rg.Fields()
	args := make([]string, 0, len(fields))
	for _, f := range fields {
		args = append(args, "RG"+f.Key+"="+f.Value)
	}
	return args
}

func (b *Builder) appendMD5(argv []string, output string) []string {
	if !b.opts.MD5 {
		return argv
	}
	return append(argv, "md5=1", "md5filename="+output+".md5")
}
