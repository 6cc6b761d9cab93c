package tool

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// unifiedDiff produces a patch between two file states plus added/removed
// line counts. Write and edit attach it to result metadata and the
// file.edited event; the result string the model sees is unaffected.
func unifiedDiff(path, before, after, baseDir string) (string, int, int) {
	if before == after {
		return "", 0, 0
	}

	dmp := diffmatchpatch.New()
	a, b, lineArray := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lineArray)

	additions, deletions := 0, 0
	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			additions += countLines(d.Text)
		case diffmatchpatch.DiffDelete:
			deletions += countLines(d.Text)
		}
	}

	patch := dmp.PatchToText(dmp.PatchMake(before, diffs))
	if patch == "" {
		return "", additions, deletions
	}

	rel := path
	if baseDir != "" {
		if r, err := filepath.Rel(baseDir, path); err == nil {
			rel = r
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("--- %s\n", rel))
	sb.WriteString(fmt.Sprintf("+++ %s\n", rel))
	sb.WriteString(patch)
	return sb.String(), additions, deletions
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
