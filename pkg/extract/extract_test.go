package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quka-ai/studymate/pkg/ai"
)

type fakeExtractor struct {
	ExtractTextFunc func(ctx context.Context, file ai.InlineData) (string, error)
}

func (f *fakeExtractor) ExtractText(ctx context.Context, file ai.InlineData) (string, error) {
	return f.ExtractTextFunc(ctx, file)
}

func TestHTMLText(t *testing.T) {
	page := `<html><head><title>Cells</title><style>p{}</style></head><body>
<nav>menu</nav>
<h1>Cell   biology</h1>
<p>The <b>mitochondria</b> is the powerhouse.</p>
<ul><li>nucleus</li><li>ribosome</li></ul>
<script>alert(1)</script>
</body></html>`

	text, err := HTMLText([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "Cells\nCell biology\nThe mitochondria is the powerhouse.\nnucleus\nribosome", text)
}

func TestExtractPlainText(t *testing.T) {
	e := New(nil)
	text, err := e.Extract(context.Background(), "notes.md", "text/markdown; charset=utf-8", []byte("  # heading\n"))
	require.NoError(t, err)
	assert.Equal(t, "# heading", text)
}

func TestExtractDelegatesBinary(t *testing.T) {
	var got ai.InlineData
	e := New(&fakeExtractor{
		ExtractTextFunc: func(ctx context.Context, file ai.InlineData) (string, error) {
			got = file
			return "page one", nil
		},
	})

	text, err := e.Extract(context.Background(), "a.pdf", "application/pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "page one", text)
	assert.Equal(t, "application/pdf", got.MimeType)
}

func TestExtractUnsupported(t *testing.T) {
	e := New(nil)
	_, err := e.Extract(context.Background(), "a.pdf", "application/pdf", nil)
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = e.Extract(context.Background(), "a.zip", "application/zip", nil)
	assert.ErrorIs(t, err, ErrUnsupported)
}
