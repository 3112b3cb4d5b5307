package repository

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/feedvault/metrics"
)

// backendCounterValue はbackendラベル付きカウンターの現在値を返す。
func backendCounterValue(t *testing.T, reg *prometheus.Registry, name, backend string) float64 {
	t.Helper()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("メトリクスの収集に失敗: %v", err)
	}
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "backend" && label.GetValue() == backend {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestInstrumented_RecordsRepositoryMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	repo := NewInstrumented(NewMemory(), collector, "memory")

	key := []string{"feeds", "ab12", "session.xml"}
	writeBlob(t, repo, key, "<feed/>")
	readBlob(t, repo, key)

	if _, err := repo.List(context.Background(), []string{"feeds"}); err != nil {
		t.Fatalf("Listに失敗: %v", err)
	}
	if _, err := repo.Reader(context.Background(), []string{"missing.xml"}); err == nil {
		t.Fatal("存在しないキーの読み出しがエラーになりませんでした")
	}

	tests := []struct {
		name   string
		metric string
		want   float64
	}{
		{"読み出しはReaderとListで2回", "feedvault_repository_reads_total", 2},
		{"書き込みは1回", "feedvault_repository_writes_total", 1},
		{"エラーは1回", "feedvault_repository_errors_total", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := backendCounterValue(t, reg, tt.metric, "memory"); got != tt.want {
				t.Errorf("%s = %v, want %v", tt.metric, got, tt.want)
			}
		})
	}
}

func TestInstrumented_DelegatesExists(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.NewCollector(reg)
	repo := NewInstrumented(NewMemory(), collector, "memory")

	key := []string{"doc.xml"}
	if repo.Exists(context.Background(), key) {
		t.Error("書き込み前にExistsがtrueを返しました")
	}
	writeBlob(t, repo, key, "x")
	if !repo.Exists(context.Background(), key) {
		t.Error("書き込み後にExistsがfalseを返しました")
	}
}
