// Package header renders the SAM header text stamped onto the unaligned BAM:
// one @HD line, one @RG line and any @CO lines.
package header

import (
	"strings"

	"github.com/me/fastq2bam/pkg/model"
)

// FileFormatVersion is the VN written on the @HD line.
const FileFormatVersion = "1.4"

// Normalize returns a copy of rg with DT in its normalized form. It is the
// only transformation applied to read-group metadata.
func Normalize(rg model.ReadGroupMetadata) (model.ReadGroupMetadata, error) {
	if rg.DT == "" {
		return rg, nil
	}
	dt, err := NormalizeDateTime(rg.DT)
	if err != nil {
		return model.ReadGroupMetadata{}, &model.MetadataFormatError{Field: "DT", Value: rg.DT, Err: err}
	}
	rg.DT = dt
	return rg, nil
}

// HDLine returns the fixed @HD line.
func HDLine() string {
	return "@HD\tVN:" + FileFormatVersion
}

// RGLine formats the present read-group fields in canonical order. rg must
// already be normalized.
func RGLine(rg model.ReadGroupMetadata) string {
	var b strings.Builder
	b.WriteString("@RG")
	for _, f := range rg.Fields() {
		formatField(&b, f.Key, f.Value)
	}
	return b.String()
}

// COLines returns one @CO line per comment, in order.
func COLines(comments model.CommentLines) []string {
	lines := make([]string, len(comments))
	for i, c := range comments {
		lines[i] = "@CO\t" + c
	}
	return lines
}

// Build normalizes rg and renders the complete header text, each line
// terminated by a newline. ID is a hard precondition.
func Build(rg model.ReadGroupMetadata, comments model.CommentLines) (string, error) {
	if rg.ID == "" {
		return "", model.NewRequiredError("ID")
	}
	rg, err := Normalize(rg)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(HDLine())
	b.WriteByte('\n')
	b.WriteString(RGLine(rg))
	b.WriteByte('\n')
	for _, line := range COLines(comments) {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func formatField(b *strings.Builder, key, value string) {
	b.WriteByte('\t')
	b.WriteString(key)
	b.WriteByte(':')
	b.WriteString(value)
}
