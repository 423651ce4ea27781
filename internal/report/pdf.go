package report

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/signintech/gopdf"

	"github.com/ashureev/symcheck/internal/domain"
)

// DefaultFontPaths lists common DejaVuSans locations on Linux images.
var DefaultFontPaths = []string{
	"/usr/share/fonts/ttf-dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/dejavu/DejaVuSans.ttf",
	"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
}

const (
	pdfFont      = "DejaVu"
	pdfWrapWidth = 500
)

// PDF renders d as an A4 document. The first loadable font in fontPaths is
// used; DefaultFontPaths is tried when fontPaths is empty.
func PDF(d *domain.Diagnosis, fontPaths []string) ([]byte, error) {
	if d == nil {
		return nil, ErrNoDiagnosis
	}
	if len(fontPaths) == 0 {
		fontPaths = DefaultFontPaths
	}

	pdf := gopdf.GoPdf{}
	pdf.Start(gopdf.Config{PageSize: *gopdf.PageSizeA4})
	pdf.AddPage()

	var fontErr error
	loaded := false
	for _, path := range fontPaths {
		if err := pdf.AddTTFFont(pdfFont, path); err != nil {
			fontErr = err
			continue
		}
		loaded = true
		break
	}
	if !loaded {
		return nil, fmt.Errorf("load pdf font: %w", fontErr)
	}

	w := &pdfWriter{pdf: &pdf}
	w.heading(20, "Health Diagnosis Report")
	w.line(10, "Generated "+time.Now().Format("2006-01-02 15:04"))
	w.gap(15)

	w.section("Primary Disease", d.PrimaryDisease, d.PrimaryDescription, d.PrimaryPrecautions)
	w.gap(10)
	w.section("Secondary Disease", d.SecondaryDisease, d.SecondaryDescription, d.SecondaryPrecautions)
	w.gap(10)
	w.heading(13, strings.TrimSpace(strings.TrimLeft(Advice(d), "🚨✅")))

	if w.err != nil {
		return nil, w.err
	}

	var buf bytes.Buffer
	if _, err := pdf.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

// pdfWriter keeps the first error so layout code stays linear.
type pdfWriter struct {
	pdf *gopdf.GoPdf
	err error
}

func (w *pdfWriter) setFont(size float64) bool {
	if w.err != nil {
		return false
	}
	if err := w.pdf.SetFont(pdfFont, "", size); err != nil {
		w.err = fmt.Errorf("set pdf font: %w", err)
		return false
	}
	return true
}

func (w *pdfWriter) heading(size float64, text string) {
	if !w.setFont(size) {
		return
	}
	w.cell(text)
	w.pdf.Br(size + 8)
}

func (w *pdfWriter) line(size float64, text string) {
	if !w.setFont(size) {
		return
	}
	lines, err := w.pdf.SplitText(text, pdfWrapWidth)
	if err != nil {
		lines = []string{text}
	}
	for _, l := range lines {
		w.cell(l)
		w.pdf.Br(size + 3)
	}
}

func (w *pdfWriter) cell(text string) {
	if w.err != nil {
		return
	}
	if err := w.pdf.Cell(nil, text); err != nil {
		w.err = fmt.Errorf("write pdf cell: %w", err)
	}
}

func (w *pdfWriter) gap(h float64) {
	w.pdf.Br(h)
}

func (w *pdfWriter) section(title, disease, description string, precautions []string) {
	w.heading(14, title+": "+disease)
	w.line(11, "Description:")
	if description != "" {
		w.line(11, description)
	}
	w.gap(5)
	w.line(11, "Precautions:")
	for _, p := range precautions {
		w.line(11, "- "+p)
	}
}
