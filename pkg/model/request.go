package model

import (
	"path/filepath"
	"regexp"
	"strings"
)

// NameScheme selects how the conversion tool parses read names.
type NameScheme string

const (
	NameSchemeGeneric     NameScheme = "generic"
	NameSchemeC18S        NameScheme = "c18s"
	NameSchemeC18PE       NameScheme = "c18pe"
	NameSchemePairedFiles NameScheme = "pairedfiles"
)

// NameSchemes lists the accepted --namescheme values.
var NameSchemes = []NameScheme{
	NameSchemeGeneric,
	NameSchemeC18S,
	NameSchemeC18PE,
	NameSchemePairedFiles,
}

// ParseNameScheme validates s against NameSchemes.
func ParseNameScheme(s string) (NameScheme, error) {
	for _, n := range NameSchemes {
		if string(n) == s {
			return n, nil
		}
	}
	return "", &ArgumentError{Field: "namescheme", Value: s, Message: "must be one of " + joinChoices(NameSchemes)}
}

// ConversionRequest is everything one run needs: read-group metadata,
// comments, inputs, conversion flags and the destination path.
type ConversionRequest struct {
	ReadGroup ReadGroupMetadata
	Comments  CommentLines

	Fastq1 string
	Fastq2 string // optional mate file

	Gzipped       bool
	CheckQuality  bool
	QualityOffset *int
	QualityMax    *int
	NameScheme    NameScheme // empty means the tool default

	OutputPath string
}

// Validate checks the request before anything is executed.
func (r *ConversionRequest) Validate() error {
	if r.Fastq1 == "" {
		return NewRequiredError("fastq_1")
	}
	if r.OutputPath == "" {
		return NewRequiredError("output-filename")
	}
	if r.NameScheme != "" {
		if _, err := ParseNameScheme(string(r.NameScheme)); err != nil {
			return err
		}
	}
	if err := r.ReadGroup.Validate(); err != nil {
		return err
	}
	return r.Comments.Validate()
}

// TwoStep reports whether comment lines force conversion followed by a
// header reset.
func (r *ConversionRequest) TwoStep() bool {
	return len(r.Comments) > 0
}

var (
	mateSuffix  = regexp.MustCompile(`_[0-9]\.(fastq|fq)(\.gz)?$`)
	fastqSuffix = regexp.MustCompile(`\.(fastq|fq)(\.gz)?$`)
)

// DefaultOutputFilename derives "<stem>.bam" from the first fastq path,
// dropping a "_1.fq"-style mate suffix or a plain fastq extension.
func DefaultOutputFilename(fastq1 string) string {
	base := filepath.Base(fastq1)
	stem := mateSuffix.ReplaceAllString(base, "")
	if stem == base {
		stem = fastqSuffix.ReplaceAllString(base, "")
	}
	if stem == "" {
		stem = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return stem + ".bam"
}
