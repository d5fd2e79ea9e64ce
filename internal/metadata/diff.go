package metadata

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// SegmentOp is the kind of a diff segment.
type SegmentOp int

const (
	SegmentEqual SegmentOp = iota
	SegmentInsert
	SegmentDelete
)

// Segment is a run of text that was kept, inserted or deleted.
type Segment struct {
	Op   SegmentOp
	Text string
}

// FieldChange is the before/after of one updated field.
type FieldChange struct {
	Field    string
	Old      string
	New      string
	Segments []Segment
}

// Inline renders the change as one line, deletions as [-text-] and
// insertions as {+text+}.
func (c FieldChange) Inline() string {
	var sb strings.Builder
	for _, s := range c.Segments {
		switch s.Op {
		case SegmentInsert:
			sb.WriteString("{+" + s.Text + "+}")
		case SegmentDelete:
			sb.WriteString("[-" + s.Text + "-]")
		default:
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

// Changes compares the editable fields of two records and returns one entry
// per field that differs, in title, description, keywords order.
func Changes(before, after Record) []FieldChange {
	fields := []struct {
		name     string
		old, new string
	}{
		{"title", before.Title, after.Title},
		{"description", before.Description, after.Description},
		{"keywords", before.Keywords, after.Keywords},
	}

	dmp := diffmatchpatch.New()
	var out []FieldChange
	for _, f := range fields {
		if f.old == f.new {
			continue
		}
		diffs := dmp.DiffMain(f.old, f.new, false)
		diffs = dmp.DiffCleanupSemantic(diffs)

		change := FieldChange{Field: f.name, Old: f.old, New: f.new}
		for _, d := range diffs {
			seg := Segment{Text: d.Text}
			switch d.Type {
			case diffmatchpatch.DiffInsert:
				seg.Op = SegmentInsert
			case diffmatchpatch.DiffDelete:
				seg.Op = SegmentDelete
			}
			change.Segments = append(change.Segments, seg)
		}
		out = append(out, change)
	}
	return out
}
