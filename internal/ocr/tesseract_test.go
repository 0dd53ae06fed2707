package ocr

import (
	"bytes"
	"context"
	"testing"

	"github.com/jung-kurt/gofpdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoPagePDF renders a small document with one line of text per page.
func twoPagePDF(t *testing.T) []byte {
	t.Helper()
	pdf := gofpdf.New("P", "mm", "A6", "")
	pdf.SetFont("Helvetica", "", 11)
	for _, line := range []string{"NOME: ANA SOUZA", "CPF 000.000.000-00"} {
		pdf.AddPage()
		pdf.CellFormat(0, 8, line, "", 1, "L", false, 0, "")
	}

	var buf bytes.Buffer
	require.NoError(t, pdf.Output(&buf))
	return buf.Bytes()
}

func TestFitz_RasterizesEveryPage(t *testing.T) {
	pages, err := Fitz{}.Rasterize(context.Background(), twoPagePDF(t), 72)
	require.NoError(t, err)
	require.Len(t, pages, 2)

	// A6 is 105mm wide, about 298px at 72 DPI
	width := pages[0].Bounds().Dx()
	assert.InDelta(t, 298, width, 3)
}

func TestFitz_HigherDPIGrowsPages(t *testing.T) {
	doc := twoPagePDF(t)

	low, err := Fitz{}.Rasterize(context.Background(), doc, 72)
	require.NoError(t, err)
	high, err := Fitz{}.Rasterize(context.Background(), doc, 144)
	require.NoError(t, err)

	assert.Greater(t, high[0].Bounds().Dx(), low[0].Bounds().Dx())
}

func TestFitz_RejectsGarbage(t *testing.T) {
	_, err := Fitz{}.Rasterize(context.Background(), []byte("not a pdf"), 72)
	assert.Error(t, err)
}

func TestFitz_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Fitz{}.Rasterize(ctx, twoPagePDF(t), 72)
	assert.ErrorIs(t, err, context.Canceled)
}
