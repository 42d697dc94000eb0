package cache

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-redis/redismock/v9"
)

func TestExporter_Export(t *testing.T) {
	c := NewInMemoryCache(3600)
	c.Set(elementKey("Hello", "es_ES"), "Hola")
	c.Set(elementKey("World", "es_ES"), "Mundo")

	var buf bytes.Buffer
	if err := NewExporter(c).Export(&buf, map[string]string{"model": "gpt-3.5-turbo"}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var export ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("Failed to parse export: %v", err)
	}

	if export.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", export.Version)
	}
	if len(export.Entries) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(export.Entries))
	}
	if export.Entries[0].Key > export.Entries[1].Key {
		t.Error("Entries should be sorted by key")
	}
	if export.Metadata["model"] != "gpt-3.5-turbo" {
		t.Errorf("Expected model metadata, got %v", export.Metadata)
	}
}

func TestExporter_RedisCache(t *testing.T) {
	db, mock := redismock.NewClientMock()
	defer db.Close()

	c := NewRedisCacheFromClient(db, 0, "test:")

	mock.ExpectScan(0, "test:*", scanCount).SetVal([]string{"test:k1", "test:k2"}, 0)
	mock.ExpectGet("test:k1").SetVal("uno")
	// k2 expired between listing and reading.
	mock.ExpectGet("test:k2").RedisNil()

	var buf bytes.Buffer
	err := NewExporter(c).Export(&buf, nil)
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var export ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("Failed to parse export: %v", err)
	}
	if len(export.Entries) != 1 || export.Entries[0].Key != "k1" || export.Entries[0].Value != "uno" {
		t.Errorf("unexpected entries: %+v", export.Entries)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestExporter_Unsupported(t *testing.T) {
	err := NewExporter(plainCache{}).Export(&bytes.Buffer{}, nil)
	if err == nil || !strings.Contains(err.Error(), "does not support export") {
		t.Errorf("expected unsupported cache error, got %v", err)
	}
}

// plainCache cannot list its keys.
type plainCache struct{}

func (plainCache) Get(string) (string, bool) { return "", false }
func (plainCache) Set(string, string) error  { return nil }

func TestImporter_Import(t *testing.T) {
	jsonData := `{
		"version": "1.0",
		"exported_at": "2026-01-01T00:00:00Z",
		"entries": [
			{"key": "key1", "value": "value1"},
			{"key": "key2", "value": "value2"}
		],
		"metadata": {"model": "gpt-3.5-turbo"}
	}`

	c := NewInMemoryCache(3600)
	result, err := NewImporter(c).Import(strings.NewReader(jsonData))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Imported != 2 || result.Failed != 0 {
		t.Errorf("Expected 2 imported and 0 failed, got %d and %d", result.Imported, result.Failed)
	}
	if result.Metadata["model"] != "gpt-3.5-turbo" {
		t.Errorf("metadata not carried: %v", result.Metadata)
	}
	if val, ok := c.Get("key2"); !ok || val != "value2" {
		t.Errorf("key2 not found or wrong value: %s", val)
	}
}

func TestExportImport_RoundTrip(t *testing.T) {
	src := NewInMemoryCache(3600)
	src.Set(elementKey("Hello", "es_ES"), "Hola")
	src.Set(elementKey(`<b rid="0">World</b>`, "es_ES"), `<b rid="0">Mundo</b>`)

	var buf bytes.Buffer
	if err := NewExporter(src).Export(&buf, nil); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dst := NewInMemoryCache(3600)
	result, err := NewImporter(dst).Import(&buf)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", result.Imported)
	}
	if val, ok := dst.Get(elementKey(`<b rid="0">World</b>`, "es_ES")); !ok || val != `<b rid="0">Mundo</b>` {
		t.Errorf("markup entry not round-tripped: %q", val)
	}
}

func TestImporter_InvalidJSON(t *testing.T) {
	_, err := NewImporter(NewInMemoryCache(3600)).Import(strings.NewReader("invalid json"))
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
