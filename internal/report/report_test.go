package report

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashureev/symcheck/internal/domain"
)

func sampleDiagnosis() *domain.Diagnosis {
	return &domain.Diagnosis{
		PrimaryDisease:       "Common Cold",
		PrimaryDescription:   "A viral infection of the nose and throat.",
		PrimaryPrecautions:   []string{"drink vitamin c rich drinks", "take vapour"},
		SecondaryDisease:     "Allergy",
		SecondaryDescription: "An immune reaction.",
		SecondaryPrecautions: []string{"apply calamine"},
		RecommendDoctor:      true,
	}
}

func TestFormat(t *testing.T) {
	got, err := Format(sampleDiagnosis())
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}

	want := "\nHealth Diagnosis Report\n" +
		"-----------------------\n\n" +
		"Primary Disease: Common Cold\n\n" +
		"Description:\nA viral infection of the nose and throat.\n\n" +
		"Precautions:\n- drink vitamin c rich drinks\n- take vapour\n\n" +
		"------------------------------------\n\n" +
		"Secondary Disease: Allergy\n\n" +
		"Description:\nAn immune reaction.\n\n" +
		"Precautions:\n- apply calamine\n\n\n" +
		"🚨 Consult a doctor immediately!\n"

	if got != want {
		t.Errorf("Format mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestFormatFollowPrecautions(t *testing.T) {
	d := sampleDiagnosis()
	d.RecommendDoctor = false

	got, err := Format(d)
	if err != nil {
		t.Fatalf("Format failed: %v", err)
	}
	if !strings.HasSuffix(got, "✅ Follow precautions and monitor symptoms.\n") {
		t.Errorf("unexpected advice line in %q", got)
	}
}

func TestFormatNil(t *testing.T) {
	if _, err := Format(nil); !errors.Is(err, ErrNoDiagnosis) {
		t.Fatalf("expected ErrNoDiagnosis, got %v", err)
	}
}

func TestSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "reports")

	path, err := Save(dir, sampleDiagnosis())
	if err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if filepath.Base(path) != Filename {
		t.Errorf("saved as %q, want %q", filepath.Base(path), Filename)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(data), "Primary Disease: Common Cold") {
		t.Errorf("report content missing primary disease: %q", data)
	}
}

func TestPDFWithoutFont(t *testing.T) {
	missing := []string{filepath.Join(t.TempDir(), "nope.ttf")}
	if _, err := PDF(sampleDiagnosis(), missing); err == nil {
		t.Fatal("expected font load error")
	}
}

func TestPDF(t *testing.T) {
	var font string
	for _, p := range DefaultFontPaths {
		if _, err := os.Stat(p); err == nil {
			font = p
			break
		}
	}
	if font == "" {
		t.Skip("DejaVuSans not installed")
	}

	data, err := PDF(sampleDiagnosis(), []string{font})
	if err != nil {
		t.Fatalf("PDF failed: %v", err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Errorf("output does not look like a PDF: %q", data[:min(len(data), 16)])
	}
}
