package workspace

import (
	"strings"

	"github.com/quka-ai/studymate/pkg/types"
	"github.com/quka-ai/studymate/pkg/utils"
)

const (
	DOCUMENT_CONTENT_LIMIT = 2000
	NOTE_CONTENT_LIMIT     = 1500
)

// BuildContext renders the selected documents and notes into a prompt fragment.
// Ids missing from the collections are skipped, an empty selection gives "".
func BuildContext(documentIDs, noteIDs []string, documents []types.Document, notes []types.Note) string {
	docIndex := make(map[string]*types.Document, len(documents))
	for i := range documents {
		docIndex[documents[i].ID] = &documents[i]
	}
	noteIndex := make(map[string]*types.Note, len(notes))
	for i := range notes {
		noteIndex[notes[i].ID] = &notes[i]
	}

	var docBlocks, noteBlocks []string
	seen := make(map[string]struct{})
	for _, id := range documentIDs {
		doc, ok := docIndex[id]
		if _, dup := seen["d"+id]; !ok || dup {
			continue
		}
		seen["d"+id] = struct{}{}
		docBlocks = append(docBlocks, documentBlock(doc))
	}
	for _, id := range noteIDs {
		note, ok := noteIndex[id]
		if _, dup := seen["n"+id]; !ok || dup {
			continue
		}
		seen["n"+id] = struct{}{}
		noteBlocks = append(noteBlocks, noteBlock(note))
	}

	var sections []string
	if len(docBlocks) > 0 {
		sections = append(sections, "DOCUMENTS:\n"+strings.Join(docBlocks, "\n\n"))
	}
	if len(noteBlocks) > 0 {
		sections = append(sections, "NOTES:\n"+strings.Join(noteBlocks, "\n\n"))
	}
	return strings.Join(sections, "\n\n")
}

func documentBlock(d *types.Document) string {
	var sb strings.Builder
	sb.WriteString("Title: " + d.Title + "\n")
	sb.WriteString("File: " + d.FileName + "\n")
	sb.WriteString("Type: " + d.FileType + "\n")
	sb.WriteString("Content: " + utils.TruncateRunes(d.Content, DOCUMENT_CONTENT_LIMIT))
	return sb.String()
}

func noteBlock(n *types.Note) string {
	var sb strings.Builder
	sb.WriteString("Title: " + n.Title + "\n")
	sb.WriteString("Category: " + n.Category + "\n")
	sb.WriteString("Content: " + utils.TruncateRunes(n.Content, NOTE_CONTENT_LIMIT))
	if n.AISummary != "" {
		sb.WriteString("\nAI Summary: " + n.AISummary)
	}
	if len(n.Tags) > 0 {
		sb.WriteString("\nTags: " + strings.Join(n.Tags, ", "))
	}
	return sb.String()
}

// withContext prefixes a user turn with its rendered attachments.
func withContext(contextText, text string) string {
	if contextText == "" {
		return text
	}
	return contextText + "\n\nUSER QUESTION:\n" + text
}
