package workspace

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/quka-ai/studymate/pkg/types"
)

func TestBuildContext(t *testing.T) {
	docs := []types.Document{
		{ID: "d1", Title: "Cells", FileName: "cells.pdf", FileType: "application/pdf", Content: "Mitochondria make ATP."},
	}
	notes := []types.Note{
		{ID: "n1", Title: "Lecture 1", Category: "Biology", Content: "Cell membrane basics", AISummary: "Membranes", Tags: []string{"cell", "membrane"}},
	}

	out := BuildContext([]string{"d1", "missing"}, []string{"n1"}, docs, notes)
	assert.Equal(t, `DOCUMENTS:
Title: Cells
File: cells.pdf
Type: application/pdf
Content: Mitochondria make ATP.

NOTES:
Title: Lecture 1
Category: Biology
Content: Cell membrane basics
AI Summary: Membranes
Tags: cell, membrane`, out)

	// same input, same output
	assert.Equal(t, out, BuildContext([]string{"d1", "missing"}, []string{"n1"}, docs, notes))
}

func TestBuildContextEmpty(t *testing.T) {
	assert.Equal(t, "", BuildContext(nil, nil, nil, nil))
	assert.Equal(t, "", BuildContext([]string{"nope"}, []string{"nope"}, nil, nil))
}

func TestBuildContextOnlyNotes(t *testing.T) {
	out := BuildContext(nil, []string{"n1"}, nil, []types.Note{{ID: "n1", Title: "T"}})
	assert.True(t, strings.HasPrefix(out, "NOTES:\n"))
	assert.NotContains(t, out, "DOCUMENTS:")
	assert.NotContains(t, out, "AI Summary")
}

func contentLine(block string) string {
	for _, line := range strings.Split(block, "\n") {
		if strings.HasPrefix(line, "Content: ") {
			return strings.TrimPrefix(line, "Content: ")
		}
	}
	return ""
}

func TestBuildContextTruncation(t *testing.T) {
	long := strings.Repeat("é", 5000)
	docs := []types.Document{{ID: "d1", Content: long}}
	notes := []types.Note{{ID: "n1", Content: long}}

	docOut := contentLine(BuildContext([]string{"d1"}, nil, docs, nil))
	assert.Equal(t, DOCUMENT_CONTENT_LIMIT+3, utf8.RuneCountInString(docOut))
	assert.True(t, strings.HasSuffix(docOut, "..."))

	noteOut := contentLine(BuildContext(nil, []string{"n1"}, nil, notes))
	assert.Equal(t, NOTE_CONTENT_LIMIT+3, utf8.RuneCountInString(noteOut))

	short := contentLine(BuildContext([]string{"d2"}, nil, []types.Document{{ID: "d2", Content: strings.Repeat("a", DOCUMENT_CONTENT_LIMIT)}}, nil))
	assert.Equal(t, DOCUMENT_CONTENT_LIMIT, utf8.RuneCountInString(short))
	assert.False(t, strings.HasSuffix(short, "..."))
}
