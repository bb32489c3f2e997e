package scrub

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"go.uber.org/zap"
)

// ExtractPDFText extracts all text content from a PDF file so it can be
// scrubbed like any other document. Unreadable pages are skipped.
func ExtractPDFText(path string, logger *zap.Logger) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var fullText strings.Builder
	totalPages := r.NumPage()

	logger.Debug("Extracting text from PDF",
		zap.String("path", path),
		zap.Int("pages", totalPages))

	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		page := r.Page(pageNum)
		if page.V.IsNull() {
			logger.Warn("Skipping null page", zap.Int("page", pageNum))
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			logger.Warn("Failed to extract text from page",
				zap.Int("page", pageNum),
				zap.Error(err))
			continue
		}

		fullText.WriteString(text)
		fullText.WriteString("\n\n")
	}

	return fullText.String(), nil
}
