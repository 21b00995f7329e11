// Package textsource reads pipeline input texts from local files. Plain
// text is passed through; PDF and DOCX payloads are reduced to their text
// content first.
package textsource

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrUnsupportedFormat reports a file extension the reader cannot handle.
var ErrUnsupportedFormat = errors.New("textsource: unsupported file format")

// ReadFiles extracts the text of each path in order.
func ReadFiles(ctx context.Context, paths []string) ([]string, error) {
	texts := make([]string, 0, len(paths))
	for _, path := range paths {
		text, err := ReadFile(ctx, path)
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	return texts, nil
}

// ReadFile extracts the text of a single file, dispatching on extension.
func ReadFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("textsource: read %s: %w", path, err)
	}
	text, err := FromBytes(data, filepath.Ext(path))
	if err != nil {
		return "", fmt.Errorf("textsource: extract %s: %w", path, err)
	}
	return text, nil
}

// FromBytes extracts text from an in-memory payload identified by its file
// extension.
func FromBytes(data []byte, ext string) (string, error) {
	switch strings.ToLower(ext) {
	case ".txt", ".md", "":
		return strings.TrimSpace(string(data)), nil
	case ".pdf":
		return fromPDF(data)
	case ".docx":
		return fromDOCX(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func fromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := reader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func fromDOCX(data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty docx data")
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("document.xml file not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	raw, err := io.ReadAll(rc)
	if err != nil {
		return "", err
	}
	return stripDocxXML(string(raw)), nil
}

func stripDocxXML(raw string) string {
	decoder := xml.NewDecoder(strings.NewReader(raw))
	var buf strings.Builder
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return raw
		}
		switch t := tok.(type) {
		case xml.CharData:
			buf.WriteString(string(t))
		case xml.EndElement:
			if t.Name.Local == "p" || t.Name.Local == "br" {
				if buf.Len() > 0 {
					buf.WriteString("\n")
				}
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
