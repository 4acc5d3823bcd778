package storage

import (
	"bytes"
	"strings"
	"testing"

	"reimburse/internal"
)

func TestWriteConversionsCSV(t *testing.T) {
	emailID := 3
	rows := []internal.ConversionRow{
		{ID: "c-1", EmailID: &emailID, SourceName: "SMITH-JOHN DOE (March 15, 2024).pdf", Payer: "JOHN DOE SMITH", Records: 4, GrandTotal: "$1,019.50", Status: "succeeded"},
		{ID: "c-2", SourceName: "x.pdf", Status: "failed", Error: "filename format does not match expected pattern"},
	}

	var buf bytes.Buffer
	if err := WriteConversionsCSV(&buf, rows); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines=%d: %q", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[0], "id,email_id,source_name,output_path,payer,records") {
		t.Fatalf("header=%q", lines[0])
	}
	if !strings.HasPrefix(lines[1], `c-1,3,"SMITH-JOHN DOE (March 15, 2024).pdf",,JOHN DOE SMITH,4,0,"$1,019.50",succeeded`) {
		t.Fatalf("row=%q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "c-2,,x.pdf") {
		t.Fatalf("row=%q", lines[2])
	}
}

func TestWriteConversionsCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteConversionsCSV(&buf, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "id,email_id") {
		t.Fatalf("got %q", buf.String())
	}
}
