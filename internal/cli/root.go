// Package cli implements the fastq2bam command line.
package cli

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/me/fastq2bam/internal/logging"
	"github.com/me/fastq2bam/pkg/model"
)

const version = "0.3.0"

// options collects every flag of the root command.
type options struct {
	configPath string
	debug      bool
	logLevel   string
	logFormat  string
	dryRun     bool

	fastqToBamBin string
	bamResetBin   string
	resetExclude  string
	md5           bool
	tmpDir        string

	fastq1         string
	fastq2         string
	isGz           boolString
	checkQuality   boolString
	nameScheme     string
	qualityOffset  int
	qualityMax     int
	outputDir      string
	outputFilename string

	rg       readGroupFlags
	comments []string
}

// readGroupFlags mirrors the @RG fields as raw flag values.
type readGroupFlags struct {
	ID, CN, DS, DT, FO, KS, LB, PG, PI, PL, PM, PU, SM string
}

// NewRootCmd creates the root cobra command for fastq2bam.
func NewRootCmd() *cobra.Command {
	opts := &options{isGz: true, checkQuality: true}

	root := &cobra.Command{
		Use:   "fastq2bam --fastq_1 <fastq> [--fastq_2 <mate>] --ID <id> --LB <lib> --PL <platform> --SM <sample> [flags]",
		Short: "Convert fastq files to an unaligned BAM with a PCAWG style header",
		Long: `fastq2bam converts one or two fastq files into an unaligned BAM file whose
header carries a single @RG read group built from the --ID ... --SM flags.

Without --CO the conversion tool writes the read group directly. With one or
more --CO comments the reads are converted first and the header is then
replaced by a header-reset tool, since only that path can carry @CO lines.`,
		Args:          cobra.NoArgs,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts)
		},
	}

	f := root.Flags()
	f.SortFlags = false

	f.StringVar(&opts.fastq1, "fastq_1", "", "fastq file (required)")
	f.StringVar(&opts.fastq2, "fastq_2", "", "fastq mate file")
	f.Var(&opts.isGz, "is-gz", "input fastq files are gzip compressed (true|false)")
	f.StringVar(&opts.nameScheme, "namescheme", "", "read name scheme ("+choices(model.NameSchemes)+")")
	f.IntVar(&opts.qualityOffset, "qualityoffset", 0, "quality score offset (default: tool default)")
	f.IntVar(&opts.qualityMax, "qualitymax", 0, "maximum quality score (default: tool default)")
	f.Var(&opts.checkQuality, "checkquality", "check quality scores against the offset and maximum (true|false)")
	f.StringVar(&opts.outputDir, "output-dir", ".", "directory for the output BAM")
	f.StringVar(&opts.outputFilename, "output-filename", "", "output BAM name (default: derived from --fastq_1)")

	f.StringVar(&opts.rg.ID, "ID", "", "read group identifier, <centre_name>:<unique_text> (required)")
	f.StringVar(&opts.rg.CN, "CN", "", "sequencing centre name")
	f.StringVar(&opts.rg.DS, "DS", "", "description")
	f.StringVar(&opts.rg.DT, "DT", "", "date the run was produced, normalized to ISO 8601")
	f.StringVar(&opts.rg.FO, "FO", "", "flow order")
	f.StringVar(&opts.rg.KS, "KS", "", "key sequence")
	f.StringVar(&opts.rg.LB, "LB", "", "library, WGS:<centre_name>:<lib_id> (required)")
	f.StringVar(&opts.rg.PG, "PG", "", "programs used for processing the read group")
	f.StringVar(&opts.rg.PI, "PI", "", "predicted median insert size")
	f.StringVar(&opts.rg.PL, "PL", "", "platform ("+choices(model.Platforms)+") (required)")
	f.StringVar(&opts.rg.PM, "PM", "", "platform model ("+choices(model.PlatformModels)+")")
	f.StringVar(&opts.rg.PU, "PU", "", "platform unit, <centre_name>:<run>_<lane>[#<tag>]")
	f.StringVar(&opts.rg.SM, "SM", "", "sample uuid (required)")
	f.StringArrayVar(&opts.comments, "CO", nil, "@CO comment, e.g. dcc_project_code:<code> (repeatable)")

	f.StringVar(&opts.configPath, "config", "", "YAML config file")
	f.StringVar(&opts.fastqToBamBin, "fastqtobam-bin", "", "conversion tool executable (default from config)")
	f.StringVar(&opts.bamResetBin, "bamreset-bin", "", "header-reset tool executable (default from config)")
	f.StringVar(&opts.resetExclude, "reset-exclude", "", "record classes the header reset drops, comma separated; empty keeps all (default from config)")
	f.BoolVar(&opts.md5, "md5", false, "write an md5 checksum next to the output")
	f.StringVar(&opts.tmpDir, "tmp-dir", "", "parent of the temporary workspace (default: output directory)")
	f.BoolVar(&opts.dryRun, "dry-run", false, "print the execution plan as YAML instead of running it")

	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	root.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format (text, json)")

	return root
}

// ExitCode maps an error returned by the root command to a process exit
// status: the failing tool's status for tool failures, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var te *model.ToolExecutionError
	if errors.As(err, &te) && te.ExitCode > 0 {
		return te.ExitCode
	}
	return 1
}

func newLogger(cmd *cobra.Command, level, format string, debug bool) *slog.Logger {
	if debug {
		level = "debug"
	}
	return logging.NewLoggerWithWriter(logging.ParseLevel(level), format, cmd.ErrOrStderr())
}
