package verify

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/sourcegraph/go-diff/diff"
)

// LineChange is one run of equal, added, or removed lines.
type LineChange struct {
	Op    diffmatchpatch.Operation
	Lines []string
}

// DiffLines computes a line-level diff of before and after.
func DiffLines(before, after string) []LineChange {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	out := make([]LineChange, 0, len(diffs))
	for _, d := range diffs {
		out = append(out, LineChange{Op: d.Type, Lines: splitLines(d.Text)})
	}
	return out
}

// CountChanges returns the number of added and removed lines.
func CountChanges(changes []LineChange) (added, removed int) {
	for _, c := range changes {
		switch c.Op {
		case diffmatchpatch.DiffInsert:
			added += len(c.Lines)
		case diffmatchpatch.DiffDelete:
			removed += len(c.Lines)
		}
	}
	return added, removed
}

// RenderDiff renders before and after as a single-hunk unified diff that
// covers the whole file. It returns "" when nothing changed.
func RenderDiff(path, before, after string) (string, error) {
	changes := DiffLines(before, after)
	added, removed := CountChanges(changes)
	if added == 0 && removed == 0 {
		return "", nil
	}

	var body strings.Builder
	var origLines, newLines int32
	for _, c := range changes {
		prefix := " "
		switch c.Op {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
			newLines += int32(len(c.Lines))
		case diffmatchpatch.DiffDelete:
			prefix = "-"
			origLines += int32(len(c.Lines))
		default:
			origLines += int32(len(c.Lines))
			newLines += int32(len(c.Lines))
		}
		for _, l := range c.Lines {
			body.WriteString(prefix)
			body.WriteString(l)
			body.WriteString("\n")
		}
	}

	fd := &diff.FileDiff{
		OrigName: "a/" + strings.TrimPrefix(path, "/"),
		NewName:  "b/" + strings.TrimPrefix(path, "/"),
		Hunks: []*diff.Hunk{{
			OrigStartLine: 1,
			OrigLines:     origLines,
			NewStartLine:  1,
			NewLines:      newLines,
			Body:          []byte(body.String()),
		}},
	}
	out, err := diff.PrintFileDiff(fd)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// splitLines splits text into lines without their terminators. A trailing
// newline does not produce an empty final line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}
	text = strings.TrimSuffix(text, "\n")
	return strings.Split(text, "\n")
}
