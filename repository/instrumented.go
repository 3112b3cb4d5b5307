package repository

import (
	"context"
	"io"

	"github.com/hitoshi/feedvault/metrics"
)

// Instrumented は読み書きの回数をメトリクスとして記録するリポジトリ。
// 実際の入出力はinnerに委譲する。
type Instrumented struct {
	inner     Repository
	collector metrics.MetricsCollector
	backend   string
}

// NewInstrumented はinnerをメトリクス記録付きで包んだリポジトリを生成する。
// backendはメトリクスのラベル値になる（例: "fs", "postgres"）。
func NewInstrumented(inner Repository, collector metrics.MetricsCollector, backend string) *Instrumented {
	return &Instrumented{inner: inner, collector: collector, backend: backend}
}

func (r *Instrumented) Reader(ctx context.Context, key []string) (io.ReadCloser, error) {
	rc, err := r.inner.Reader(ctx, key)
	if err != nil {
		r.collector.RecordRepositoryError(r.backend)
		return nil, err
	}
	r.collector.RecordRepositoryRead(r.backend)
	return rc, nil
}

func (r *Instrumented) Writer(ctx context.Context, key []string) (io.WriteCloser, error) {
	wc, err := r.inner.Writer(ctx, key)
	if err != nil {
		r.collector.RecordRepositoryError(r.backend)
		return nil, err
	}
	r.collector.RecordRepositoryWrite(r.backend)
	return wc, nil
}

func (r *Instrumented) Exists(ctx context.Context, key []string) bool {
	return r.inner.Exists(ctx, key)
}

func (r *Instrumented) List(ctx context.Context, key []string) ([]string, error) {
	names, err := r.inner.List(ctx, key)
	if err != nil {
		r.collector.RecordRepositoryError(r.backend)
		return nil, err
	}
	r.collector.RecordRepositoryRead(r.backend)
	return names, nil
}

// compile-time interface check
var _ Repository = (*Instrumented)(nil)
