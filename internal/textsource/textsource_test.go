package textsource

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestReadFilePlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(path, []byte("  I use MySQL for my database\n"), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}

	got, err := ReadFile(context.Background(), path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got != "I use MySQL for my database" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestReadFilesPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 0, 3)
	for i, content := range []string{"first", "second", "third"} {
		path := filepath.Join(dir, string(rune('a'+i))+".txt")
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("write input: %v", err)
		}
		paths = append(paths, path)
	}

	got, err := ReadFiles(context.Background(), paths)
	if err != nil {
		t.Fatalf("ReadFiles: %v", err)
	}
	if want := []string{"first", "second", "third"}; !reflect.DeepEqual(got, want) {
		t.Errorf("texts = %v, want %v", got, want)
	}
}

func TestFromBytesDocx(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create zip entry: %v", err)
	}
	doc := `<w:document><w:body><w:p><w:r><w:t>I use MongoDB</w:t></w:r></w:p></w:body></w:document>`
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("write zip entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}

	got, err := FromBytes(buf.Bytes(), ".docx")
	if err != nil {
		t.Fatalf("FromBytes: %v", err)
	}
	if got != "I use MongoDB" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestFromBytesUnsupported(t *testing.T) {
	_, err := FromBytes([]byte("x"), ".exe")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestReadFileMissing(t *testing.T) {
	_, err := ReadFile(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
