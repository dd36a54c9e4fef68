package model

import (
	"strconv"
	"strings"
)

// Platform is the sequencing technology recorded in RG PL.
type Platform string

const (
	PlatformCapillary  Platform = "CAPILLARY"
	PlatformLS454      Platform = "LS454"
	PlatformIllumina   Platform = "ILLUMINA"
	PlatformSolid      Platform = "SOLID"
	PlatformHelicos    Platform = "HELICOS"
	PlatformIonTorrent Platform = "IONTORRENT"
	PlatformPacBio     Platform = "PACBIO"
)

// Platforms lists the accepted PL values.
var Platforms = []Platform{
	PlatformCapillary,
	PlatformLS454,
	PlatformIllumina,
	PlatformSolid,
	PlatformHelicos,
	PlatformIonTorrent,
	PlatformPacBio,
}

// PlatformModel is the instrument model recorded in RG PM.
type PlatformModel string

const (
	ModelGenomeAnalyzerII PlatformModel = "Illumina Genome Analyzer II"
	ModelHiSeq            PlatformModel = "Illumina HiSeq"
	ModelHiSeq2000        PlatformModel = "Illumina HiSeq 2000"
	ModelHiSeq2500        PlatformModel = "Illumina HiSeq 2500"
)

// PlatformModels lists the accepted PM values.
var PlatformModels = []PlatformModel{
	ModelGenomeAnalyzerII,
	ModelHiSeq,
	ModelHiSeq2000,
	ModelHiSeq2500,
}

// ParsePlatform validates s against Platforms.
func ParsePlatform(s string) (Platform, error) {
	for _, p := range Platforms {
		if string(p) == s {
			return p, nil
		}
	}
	return "", &ArgumentError{Field: "PL", Value: s, Message: "must be one of " + joinChoices(Platforms)}
}

// ParsePlatformModel validates s against PlatformModels.
func ParsePlatformModel(s string) (PlatformModel, error) {
	for _, m := range PlatformModels {
		if string(m) == s {
			return m, nil
		}
	}
	return "", &ArgumentError{Field: "PM", Value: s, Message: "must be one of " + joinChoices(PlatformModels)}
}

// ReadGroupMetadata holds the @RG fields of the generated header.
// An empty string means the field is absent.
type ReadGroupMetadata struct {
	ID string
	CN string
	DS string
	DT string
	FO string
	KS string
	LB string
	PG string
	PI string
	PL Platform
	PM PlatformModel
	PU string
	SM string
}

// Field is one KEY:value pair of a read group.
type Field struct {
	Key   string `yaml:"key"`
	Value string `yaml:"value"`
}

// Fields returns the present read-group fields in canonical order:
// ID, CN, DS, DT, FO, KS, LB, PG, PI, PL, PM, PU, SM.
func (m ReadGroupMetadata) Fields() []Field {
	all := [...]Field{
		{"ID", m.ID},
		{"CN", m.CN},
		{"DS", m.DS},
		{"DT", m.DT},
		{"FO", m.FO},
		{"KS", m.KS},
		{"LB", m.LB},
		{"PG", m.PG},
		{"PI", m.PI},
		{"PL", string(m.PL)},
		{"PM", string(m.PM)},
		{"PU", m.PU},
		{"SM", m.SM},
	}
	fields := make([]Field, 0, len(all))
	for _, f := range all {
		if f.Value != "" {
			fields = append(fields, f)
		}
	}
	return fields
}

// Validate checks required fields, enumerations and characters that would
// break the tab-separated header line.
func (m ReadGroupMetadata) Validate() error {
	for _, req := range []Field{{"ID", m.ID}, {"LB", m.LB}, {"PL", string(m.PL)}, {"SM", m.SM}} {
		if req.Value == "" {
			return NewRequiredError(req.Key)
		}
	}
	if _, err := ParsePlatform(string(m.PL)); err != nil {
		return err
	}
	if m.PM != "" {
		if _, err := ParsePlatformModel(string(m.PM)); err != nil {
			return err
		}
	}
	if m.PI != "" {
		if n, err := strconv.Atoi(m.PI); err != nil || n < 0 {
			return &ArgumentError{Field: "PI", Value: m.PI, Message: "must be a non-negative integer"}
		}
	}
	for _, f := range m.Fields() {
		if strings.ContainsAny(f.Value, "\t\r\n") {
			return &ArgumentError{Field: f.Key, Value: f.Value, Message: "must not contain tabs or line breaks"}
		}
	}
	return nil
}

// CommentLines are the free-text @CO entries. Their content is opaque.
type CommentLines []string

// Validate rejects entries that cannot be written as a single @CO line.
func (c CommentLines) Validate() error {
	for _, line := range c {
		if strings.TrimSpace(line) == "" {
			return &ArgumentError{Field: "CO", Message: "comment must not be empty"}
		}
		if strings.ContainsAny(line, "\r\n") {
			return &ArgumentError{Field: "CO", Value: line, Message: "comment must not contain line breaks"}
		}
	}
	return nil
}

func joinChoices[T ~string](choices []T) string {
	parts := make([]string, len(choices))
	for i, c := range choices {
		parts[i] = strconv.Quote(string(c))
	}
	return strings.Join(parts, ", ")
}
