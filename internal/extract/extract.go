// internal/extract/extract.go

// Package extract pulls plain text out of uploaded resume files.
package extract

import (
	"bytes"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"

	"resume-matcher/internal/common/errors"
)

// Text extracts plain text from a resume file. fileType is the
// normalized extension: pdf, docx or doc.
func Text(data []byte, fileType string) (string, error) {
	var text string
	var err error

	switch strings.ToLower(fileType) {
	case "pdf":
		text, err = pdfText(data)
	case "docx":
		text, err = docxText(data)
	case "doc":
		text, err = docText(data)
	default:
		return "", errors.NewUnsupportedFileTypeError(fileType)
	}

	if err != nil {
		return "", errors.NewTextExtractionFailedError(fileType, err)
	}
	if strings.TrimSpace(text) == "" {
		return "", errors.NewTextExtractionFailedError(fileType, fmt.Errorf("document contains no extractable text"))
	}
	return text, nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var textBuilder strings.Builder
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, _ := page.GetPlainText(nil)
		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}
	return textBuilder.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return stripXMLTags(doc.Editable().GetContent()), nil
}

// docText is a best-effort extractor for legacy .doc binaries: it keeps
// printable runs long enough to be prose and drops the rest.
func docText(data []byte) (string, error) {
	var textBuilder strings.Builder
	var run []rune

	flush := func() {
		if len(run) >= 4 {
			textBuilder.WriteString(string(run))
			textBuilder.WriteString(" ")
		}
		run = run[:0]
	}

	for _, b := range string(data) {
		if unicode.IsPrint(b) && b != unicode.ReplacementChar {
			run = append(run, b)
		} else {
			flush()
		}
	}
	flush()

	return textBuilder.String(), nil
}

// stripXMLTags removes markup from docx document content, inserting
// breaks at paragraph boundaries.
func stripXMLTags(content string) string {
	content = strings.ReplaceAll(content, "</w:p>", "\n")
	var textBuilder strings.Builder
	inTag := false
	for _, r := range content {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			textBuilder.WriteRune(r)
		}
	}
	return textBuilder.String()
}
