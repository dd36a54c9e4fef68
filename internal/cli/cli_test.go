package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/me/fastq2bam/internal/pipeline"
	"github.com/me/fastq2bam/pkg/model"
)

const fakeFastqToBam = `#!/bin/sh
dir=$(dirname "$0")
printf '%s\n' "$@" > "$dir/fastqtobam.args"
echo "fastqtobam: converting" >&2
printf 'BAM-CONVERTED'
exit ${FAKE_CONVERT_EXIT:-0}
`

const fakeBamReset = `#!/bin/sh
dir=$(dirname "$0")
printf '%s\n' "$@" > "$dir/bamreset.args"
for a in "$@"; do
	case "$a" in
	resetheadertext=*) cp "${a#resetheadertext=}" "$dir/header.copy" ;;
	esac
done
cat
exit ${FAKE_RESET_EXIT:-0}
`

type fakeTools struct {
	dir        string
	fastqToBam string
	bamReset   string
}

func installFakeTools(t *testing.T) *fakeTools {
	t.Helper()
	dir := t.TempDir()
	ft := &fakeTools{
		dir:        dir,
		fastqToBam: filepath.Join(dir, "fastqtobam"),
		bamReset:   filepath.Join(dir, "bamreset"),
	}
	if err := os.WriteFile(ft.fastqToBam, []byte(fakeFastqToBam), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ft.bamReset, []byte(fakeBamReset), 0o755); err != nil {
		t.Fatal(err)
	}
	return ft
}

// args returns the argv a fake tool recorded, or nil if it never ran.
func (ft *fakeTools) args(t *testing.T, tool string) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(ft.dir, tool+".args"))
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func (ft *fakeTools) flags() []string {
	return []string{"--fastqtobam-bin", ft.fastqToBam, "--bamreset-bin", ft.bamReset}
}

func requiredFlags(outDir string) []string {
	return []string{
		"--fastq_1", "reads_1.fq",
		"--ID", "CENTRE:RUN1",
		"--LB", "WGS:CENTRE:lib1",
		"--PL", "ILLUMINA",
		"--SM", "sample-uuid",
		"--output-dir", outDir,
	}
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestRun_SingleStepEndToEnd(t *testing.T) {
	ft := installFakeTools(t)
	outDir := t.TempDir()

	_, stderr, err := runCLI(t, append(requiredFlags(outDir), ft.flags()...)...)
	if err != nil {
		t.Fatalf("Execute() error = %v\nstderr:\n%s", err, stderr)
	}

	args := ft.args(t, "fastqtobam")
	for _, want := range []string{"I=reads_1.fq", "RGID=CENTRE:RUN1", "RGLB=WGS:CENTRE:lib1", "RGPL=ILLUMINA", "RGSM=sample-uuid", "gz=1"} {
		if !slices.Contains(args, want) {
			t.Errorf("fastqtobam args = %v, missing %q", args, want)
		}
	}
	if ft.args(t, "bamreset") != nil {
		t.Error("bamreset ran on the single-step path")
	}

	data, err := os.ReadFile(filepath.Join(outDir, "reads.bam"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "BAM-CONVERTED" {
		t.Errorf("output = %q", data)
	}
	if got := dirEntries(t, outDir); !slices.Equal(got, []string{"reads.bam"}) {
		t.Errorf("output dir = %v, want only reads.bam", got)
	}
	if !strings.Contains(stderr, "fastqtobam: converting") {
		t.Errorf("tool stderr not relayed, got:\n%s", stderr)
	}
}

func TestRun_TwoStepEndToEnd(t *testing.T) {
	ft := installFakeTools(t)
	outDir := t.TempDir()

	args := append(requiredFlags(outDir), ft.flags()...)
	args = append(args, "--CO", "project:TEST", "--output-filename", "final.bam")
	if _, stderr, err := runCLI(t, args...); err != nil {
		t.Fatalf("Execute() error = %v\nstderr:\n%s", err, stderr)
	}

	for _, a := range ft.args(t, "fastqtobam") {
		if strings.HasPrefix(a, "RG") {
			t.Errorf("conversion step got read-group token %q", a)
		}
	}
	reset := ft.args(t, "bamreset")
	if !slices.Contains(reset, "exclude=QCFAIL,SECONDARY,SUPPLEMENTARY") {
		t.Errorf("bamreset args = %v, want default exclusion", reset)
	}

	header, err := os.ReadFile(filepath.Join(ft.dir, "header.copy"))
	if err != nil {
		t.Fatalf("header not passed to bamreset: %v", err)
	}
	wantHeader := "@HD\tVN:1.4\n" +
		"@RG\tID:CENTRE:RUN1\tLB:WGS:CENTRE:lib1\tPL:ILLUMINA\tSM:sample-uuid\n" +
		"@CO\tproject:TEST\n"
	if string(header) != wantHeader {
		t.Errorf("header = %q, want %q", header, wantHeader)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "final.bam"))
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if string(data) != "BAM-CONVERTED" {
		t.Errorf("output = %q, want intermediate piped through bamreset", data)
	}
	if got := dirEntries(t, outDir); !slices.Equal(got, []string{"final.bam"}) {
		t.Errorf("output dir = %v, want workspace removed", got)
	}
}

func TestRun_TwoStepConversionFailure(t *testing.T) {
	ft := installFakeTools(t)
	outDir := t.TempDir()
	t.Setenv("FAKE_CONVERT_EXIT", "5")

	args := append(requiredFlags(outDir), ft.flags()...)
	args = append(args, "--CO", "project:TEST")
	_, _, err := runCLI(t, args...)

	var te *model.ToolExecutionError
	if !errors.As(err, &te) {
		t.Fatalf("Execute() error = %v, want *ToolExecutionError", err)
	}
	if got := ExitCode(err); got != 5 {
		t.Errorf("ExitCode() = %d, want 5", got)
	}
	if ft.args(t, "bamreset") != nil {
		t.Error("bamreset ran after conversion failed")
	}
	if got := dirEntries(t, outDir); len(got) != 0 {
		t.Errorf("output dir = %v, want empty", got)
	}
}

func TestRun_ArgumentErrors(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		field string
	}{
		{"missing ID", []string{"--fastq_1", "r_1.fq", "--LB", "l", "--PL", "ILLUMINA", "--SM", "s"}, "ID"},
		{"missing fastq", []string{"--ID", "i", "--LB", "l", "--PL", "ILLUMINA", "--SM", "s"}, "fastq_1"},
		{"bad platform", []string{"--fastq_1", "r_1.fq", "--ID", "i", "--LB", "l", "--PL", "NANOPORE", "--SM", "s"}, "PL"},
		{"bad model", []string{"--fastq_1", "r_1.fq", "--ID", "i", "--LB", "l", "--PL", "ILLUMINA", "--PM", "NovaSeq", "--SM", "s"}, "PM"},
		{"bad namescheme", []string{"--fastq_1", "r_1.fq", "--ID", "i", "--LB", "l", "--PL", "ILLUMINA", "--SM", "s", "--namescheme", "casava"}, "namescheme"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ft := installFakeTools(t)
			outDir := t.TempDir()
			args := append(tt.args, "--output-dir", outDir)
			_, _, err := runCLI(t, append(args, ft.flags()...)...)

			var ae *model.ArgumentError
			if !errors.As(err, &ae) || ae.Field != tt.field {
				t.Fatalf("Execute() error = %v, want ArgumentError on %s", err, tt.field)
			}
			if ExitCode(err) != 1 {
				t.Errorf("ExitCode() = %d, want 1", ExitCode(err))
			}
			if ft.args(t, "fastqtobam") != nil {
				t.Error("conversion tool ran despite invalid arguments")
			}
		})
	}
}

func TestRun_BadDateTime(t *testing.T) {
	ft := installFakeTools(t)
	outDir := t.TempDir()
	args := append(requiredFlags(outDir), ft.flags()...)
	_, _, err := runCLI(t, append(args, "--DT", "not-a-date")...)

	var mfe *model.MetadataFormatError
	if !errors.As(err, &mfe) {
		t.Fatalf("Execute() error = %v, want *MetadataFormatError", err)
	}
	if !strings.Contains(err.Error(), "not-a-date") {
		t.Errorf("error %q does not name the offending value", err)
	}
	if ft.args(t, "fastqtobam") != nil {
		t.Error("conversion tool ran despite bad DT")
	}
}

func TestRun_ConversionFlags(t *testing.T) {
	ft := installFakeTools(t)
	outDir := t.TempDir()
	args := append(requiredFlags(outDir), ft.flags()...)
	args = append(args,
		"--fastq_2", "reads_2.fq",
		"--is-gz", "false",
		"--checkquality", "no",
		"--qualityoffset", "64",
		"--namescheme", "pairedfiles",
		"--DT", "2020-01-15",
		"--md5",
	)
	if _, stderr, err := runCLI(t, args...); err != nil {
		t.Fatalf("Execute() error = %v\nstderr:\n%s", err, stderr)
	}

	got := ft.args(t, "fastqtobam")
	want := []string{
		"I=reads_1.fq",
		"I=reads_2.fq",
		"RGID=CENTRE:RUN1",
		"RGDT=2020-01-15T00:00:00Z",
		"RGLB=WGS:CENTRE:lib1",
		"RGPL=ILLUMINA",
		"RGSM=sample-uuid",
		"checkquality=0",
		"qualityoffset=64",
		"namescheme=pairedfiles",
		"md5=1",
		"md5filename=" + filepath.Join(outDir, "reads.bam") + ".md5",
	}
	if !slices.Equal(got, want) {
		t.Errorf("fastqtobam args = %v, want %v", got, want)
	}
}

func TestRun_InvalidBoolString(t *testing.T) {
	ft := installFakeTools(t)
	args := append(requiredFlags(t.TempDir()), ft.flags()...)
	if _, _, err := runCLI(t, append(args, "--is-gz", "maybe")...); err == nil {
		t.Error("Execute() error = nil for --is-gz maybe")
	}
}

func TestRun_DryRun(t *testing.T) {
	ft := installFakeTools(t)
	outDir := filepath.Join(t.TempDir(), "not-created")
	args := append(requiredFlags(outDir), ft.flags()...)
	args = append(args, "--CO", "project:TEST", "--dry-run")

	stdout, _, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	var plan pipeline.Plan
	if err := yaml.Unmarshal([]byte(stdout), &plan); err != nil {
		t.Fatalf("plan is not YAML: %v\n%s", err, stdout)
	}
	if plan.Path != model.PathTwoStep || len(plan.Steps) != 2 {
		t.Errorf("plan = %+v, want two steps", plan)
	}
	if !strings.HasSuffix(plan.Header, "@CO\tproject:TEST\n") {
		t.Errorf("plan header = %q", plan.Header)
	}
	if ft.args(t, "fastqtobam") != nil {
		t.Error("dry run executed the conversion tool")
	}
	if _, err := os.Stat(outDir); !os.IsNotExist(err) {
		t.Error("dry run created the output directory")
	}
}

func TestRun_ConfigFromEnvironment(t *testing.T) {
	ft := installFakeTools(t)
	outDir := t.TempDir()
	t.Setenv("FASTQ2BAM_FASTQTOBAM_BIN", ft.fastqToBam)
	t.Setenv("FASTQ2BAM_BAMRESET_BIN", ft.bamReset)
	t.Setenv("FASTQ2BAM_RESET_EXCLUDE", "")

	args := append(requiredFlags(outDir), "--CO", "project:TEST")
	if _, stderr, err := runCLI(t, args...); err != nil {
		t.Fatalf("Execute() error = %v\nstderr:\n%s", err, stderr)
	}
	reset := ft.args(t, "bamreset")
	for _, a := range reset {
		if strings.HasPrefix(a, "exclude=") {
			t.Errorf("bamreset args = %v, want pass-through", reset)
		}
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{errors.New("boom"), 1},
		{&model.ToolExecutionError{Tool: "bamreset", Step: "reset", ExitCode: 7}, 7},
		{&model.ToolExecutionError{Tool: "bamreset", Step: "reset", ExitCode: -1}, 1},
	}
	for _, tt := range tests {
		if got := ExitCode(tt.err); got != tt.want {
			t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestBoolString(t *testing.T) {
	var b boolString
	for in, want := range map[string]bool{"true": true, "False": false, "yes": true, "0": false, "Y": true} {
		if err := b.Set(in); err != nil || bool(b) != want {
			t.Errorf("Set(%q) = %v, %v; want %v", in, bool(b), err, want)
		}
	}
}

func TestBoolString_FlagSet(t *testing.T) {
	b := boolString(true)
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.SetOutput(&bytes.Buffer{})
	fs.Var(&b, "is-gz", "")
	if err := fs.Parse([]string{"--is-gz", "no"}); err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if bool(b) {
		t.Errorf("is-gz = %v, want false", bool(b))
	}
	if got := fs.Lookup("is-gz").Value.Type(); got != "bool-string" {
		t.Errorf("Type() = %q, want bool-string", got)
	}
	if err := fs.Parse([]string{"--is-gz", "maybe"}); err == nil {
		t.Error("Parse(maybe) succeeded, want error")
	}
}
