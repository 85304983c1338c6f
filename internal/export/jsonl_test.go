package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"testing"
)

func TestJSONLExporter_Export(t *testing.T) {
	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(testTranscript(), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(&buf)
	for scanner.Scan() {
		var obj map[string]interface{}
		if err := json.Unmarshal(scanner.Bytes(), &obj); err != nil {
			t.Fatalf("line is not JSON: %v: %s", err, scanner.Text())
		}
		lines = append(lines, obj)
	}

	if len(lines) != 2 {
		t.Fatalf("Export() wrote %d lines, want 2", len(lines))
	}
	if lines[0]["id"] != "m2" || lines[1]["id"] != "m1" {
		t.Errorf("Export() order = %v, %v; want m2, m1", lines[0]["id"], lines[1]["id"])
	}
	if lines[0]["session_id"] != "S1" {
		t.Errorf("session_id = %v, want S1", lines[0]["session_id"])
	}
	if lines[0]["created_at"] != "2024-01-02T03:04:05Z" {
		t.Errorf("created_at = %v", lines[0]["created_at"])
	}

	artifacts, ok := lines[0]["artifacts"].([]interface{})
	if !ok || len(artifacts) != 2 {
		t.Fatalf("artifacts = %v, want 2 entries", lines[0]["artifacts"])
	}
	unknown := artifacts[1].(map[string]interface{})
	if unknown["kind"] != "table" {
		t.Errorf("unknown artifact kind = %v, want table", unknown["kind"])
	}
	if _, ok := unknown["spec"].(map[string]interface{})["rows"]; !ok {
		t.Error("unknown artifact spec should be preserved verbatim")
	}
}

func TestJSONLExporter_Empty(t *testing.T) {
	tr := testTranscript()
	tr.Messages = nil

	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(tr, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("Export() of empty transcript wrote %q", buf.String())
	}
}
