package web

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/phpdave11/gofpdf"
)

// RenderItineraryPDF рендерит текст маршрута в A4 PDF.
//
// Встроенные шрифты gofpdf однобайтовые: текст переводится в cp1252,
// символы вне кодировки (эмодзи, кириллица) теряются.
func RenderItineraryPDF(destination string, days int, itinerary string, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	title := "Travel Itinerary"
	if destination != "" {
		title = fmt.Sprintf("%s: %d days", destination, days)
	}
	pdf.SetTitle(title, true)
	pdf.SetCreator("poncho-travel", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "I", 10)
	pdf.Cell(0, 6, "Generated "+now.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	for _, line := range strings.Split(strings.ReplaceAll(itinerary, "\r\n", "\n"), "\n") {
		text, style, size := markdownLine(line)
		pdf.SetFont("Helvetica", style, size)
		if text == "" {
			pdf.Ln(4)
			continue
		}
		pdf.MultiCell(0, 6, tr(text), "", "", false)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

var emphasis = regexp.MustCompile(`\*\*(.+?)\*\*|__(.+?)__`)

// markdownLine снимает простую markdown разметку заголовков и жирного.
func markdownLine(line string) (text, style string, size float64) {
	trimmed := strings.TrimSpace(line)
	style, size = "", 11

	switch {
	case strings.HasPrefix(trimmed, "### "):
		trimmed, style, size = strings.TrimPrefix(trimmed, "### "), "B", 12
	case strings.HasPrefix(trimmed, "## "):
		trimmed, style, size = strings.TrimPrefix(trimmed, "## "), "B", 14
	case strings.HasPrefix(trimmed, "# "):
		trimmed, style, size = strings.TrimPrefix(trimmed, "# "), "B", 16
	case strings.HasPrefix(trimmed, "* "), strings.HasPrefix(trimmed, "- "):
		trimmed = "• " + trimmed[2:]
	}

	return emphasis.ReplaceAllString(trimmed, "$1$2"), style, size
}

var slugChars = regexp.MustCompile(`[^a-z0-9]+`)

// pdfFilename — имя файла для Content-Disposition.
func pdfFilename(destination string) string {
	slug := strings.Trim(slugChars.ReplaceAllString(strings.ToLower(destination), "-"), "-")
	if slug == "" {
		return "itinerary.pdf"
	}
	return "itinerary-" + slug + ".pdf"
}
