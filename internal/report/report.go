// Package report renders a diagnosis as a downloadable report.
package report

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ashureev/symcheck/internal/domain"
)

// Filename is the name the text report is saved and served under.
const Filename = "Health_Diagnosis_Report.txt"

// PDFFilename is the name of the PDF rendition.
const PDFFilename = "Health_Diagnosis_Report.pdf"

const (
	adviceDoctor      = "🚨 Consult a doctor immediately!"
	advicePrecautions = "✅ Follow precautions and monitor symptoms."
)

// ErrNoDiagnosis is returned when there is nothing to report yet.
var ErrNoDiagnosis = errors.New("report: no diagnosis available")

// Advice returns the recommendation line for d.
func Advice(d *domain.Diagnosis) string {
	if d.RecommendDoctor {
		return adviceDoctor
	}
	return advicePrecautions
}

// Format renders d using the fixed plain-text report template.
func Format(d *domain.Diagnosis) (string, error) {
	if d == nil {
		return "", ErrNoDiagnosis
	}

	var b strings.Builder
	b.WriteString("\nHealth Diagnosis Report\n")
	b.WriteString("-----------------------\n\n")
	writeBlock(&b, "Primary Disease", d.PrimaryDisease, d.PrimaryDescription, d.PrimaryPrecautions)
	b.WriteString("\n\n------------------------------------\n\n")
	writeBlock(&b, "Secondary Disease", d.SecondaryDisease, d.SecondaryDescription, d.SecondaryPrecautions)
	b.WriteString("\n\n\n")
	b.WriteString(Advice(d))
	b.WriteString("\n")
	return b.String(), nil
}

func writeBlock(b *strings.Builder, title, disease, description string, precautions []string) {
	fmt.Fprintf(b, "%s: %s\n\n", title, disease)
	fmt.Fprintf(b, "Description:\n%s\n\n", description)
	b.WriteString("Precautions:\n")
	b.WriteString(bullets(precautions))
}

func bullets(items []string) string {
	lines := make([]string, len(items))
	for i, p := range items {
		lines[i] = "- " + p
	}
	return strings.Join(lines, "\n")
}

// Save writes the text report into dir and returns the file path.
func Save(dir string, d *domain.Diagnosis) (string, error) {
	content, err := Format(d)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	path := filepath.Join(dir, Filename)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}
