package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

type sampleResult struct {
	Symbol   string `json:"symbol"`
	Decision string `json:"decision"`
}

func TestResultStoreSaveLoad(t *testing.T) {
	store := NewResultStore(t.TempDir())

	saved := sampleResult{Symbol: "000001", Decision: "买入"}
	if err := store.Save("000001", "20240819_15-30-00", saved, "# 报告\n买入"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	var loaded sampleResult
	if err := store.Load("000001", "20240819_15-30-00", &loaded); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if loaded != saved {
		t.Errorf("round trip = %+v, want %+v", loaded, saved)
	}
}

func TestResultStoreWritesReport(t *testing.T) {
	base := t.TempDir()
	store := NewResultStore(base)

	if err := store.Save("600519", "20240819_09-30-00", sampleResult{Symbol: "600519"}, "# 贵州茅台 分析报告"); err != nil {
		t.Fatalf("Save: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(base, "600519", "20240819_09-30-00", "report.md"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(data), "分析报告") {
		t.Errorf("report content = %q", data)
	}
}

func TestResultStoreLoadMissing(t *testing.T) {
	store := NewResultStore(t.TempDir())
	var out sampleResult
	if err := store.Load("000001", "nope", &out); err == nil {
		t.Fatal("expected error for missing result")
	}
}
