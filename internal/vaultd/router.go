// Package vaultd は保管庫デーモンのHTTP面を提供する。
// 状態確認の/healthzと、メトリクス公開の/metricsを公開する。
package vaultd

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/feedvault/internal/middleware"
	"github.com/hitoshi/feedvault/metrics"
	"github.com/hitoshi/feedvault/stage"
)

// StageReporter は状態応答に載せるステージ情報のインターフェース。
type StageReporter interface {
	Session() stage.Session
	Pending() int
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	Stage StageReporter
	// Gatherer がnilの場合は/metricsを公開しない。
	Gatherer prometheus.Gatherer
	Logger   *slog.Logger
}

// NewRouter は保管庫デーモンのルーティングとミドルウェアチェーンを
// 構成したルーターを返す。全ルートにリカバリとリクエストログが効く。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.NewRecoveryMiddleware(deps.Logger))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	r.Get("/healthz", NewHealthHandler(deps.Stage))
	if deps.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))
	}

	return r
}

// healthResponse は/healthzの応答ボディ。
type healthResponse struct {
	Status           string `json:"status"`
	Session          string `json:"session"`
	PendingDocuments int    `json:"pending_documents"`
}

// NewHealthHandler は保管庫デーモンの状態を返すハンドラーを生成する。
// セッションIDと未書き出しの文書数を含む。
func NewHealthHandler(st StageReporter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(healthResponse{
			Status:           "ok",
			Session:          st.Session().ID,
			PendingDocuments: st.Pending(),
		})
	}
}
