package internal

import (
	"errors"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// DiffInsight compares the working copy of an insight file against its
// last committed version and renders a line-oriented diff. An insight
// absent from HEAD diffs against empty content.
func DiffInsight(h *History, store *FileStore, topic, name string) (string, error) {
	ins, err := store.Load(topic, name)
	if err != nil {
		return "", err
	}

	current, err := store.Render(ins)
	if err != nil {
		return "", err
	}

	committed, err := h.FileAtHead(store.RelPath(topic, name))
	if errors.Is(err, ErrNotFound) {
		committed = ""
	} else if err != nil {
		return "", err
	}

	return renderDiff(committed, current), nil
}

// renderDiff produces a +/- line diff between two texts.
func renderDiff(before, after string) string {
	if before == after {
		return ""
	}

	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var buf strings.Builder
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.Split(strings.TrimSuffix(d.Text, "\n"), "\n") {
			buf.WriteString(prefix)
			buf.WriteString(line)
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}
