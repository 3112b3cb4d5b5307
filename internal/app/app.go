package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/hitoshi/feedvault/internal/config"
	"github.com/hitoshi/feedvault/internal/logger"
	"github.com/hitoshi/feedvault/internal/vaultd"
	"github.com/hitoshi/feedvault/metrics"
	"github.com/hitoshi/feedvault/repository"
	"github.com/hitoshi/feedvault/stage"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w, slog.LevelInfo)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	// 3. 設定されたレベルでロガーを張り直す
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to parse log level: %w", err)
	}
	logger.SetupDefault(w, level)

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("vault_url", maskVaultURL(cfg.VaultURL)),
	)

	switch cmd {
	case CommandStat:
		return runStat(w, cfg)
	case CommandFlush:
		return runFlush(cfg)
	case CommandServe:
		return runServe(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runStat(w, cfg)
	}
}

// openStage は設定からリポジトリを開き、ステージを構築する。
// メトリクスが有効な場合はリポジトリを計測付きで包み、レジストリも返す。
func openStage(cfg *config.Config) (*stage.Stage, *prometheus.Registry, error) {
	repo, err := repository.FromURL(cfg.VaultURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open repository: %w", err)
	}

	session, err := resolveSession(cfg.VaultSession)
	if err != nil {
		return nil, nil, err
	}

	var reg *prometheus.Registry
	var collector metrics.MetricsCollector
	if cfg.MetricsEnabled {
		reg = prometheus.NewRegistry()
		c := metrics.NewCollector(reg)
		collector = c
		repo = repository.NewInstrumented(repo, c, backendName(cfg.VaultURL))
	}

	st := stage.NewStage(repo, session, stage.Config{
		WriteRate:  rate.Limit(cfg.WriteRate),
		WriteBurst: cfg.WriteBurst,
		Metrics:    collector,
	}, slog.Default())

	return st, reg, nil
}

// resolveSession は設定のセッションIDを検証する。未設定なら新しい
// セッションを生成する。
func resolveSession(id string) (stage.Session, error) {
	if id == "" {
		return stage.NewSession(), nil
	}
	session, err := stage.ParseSession(id)
	if err != nil {
		return stage.Session{}, fmt.Errorf("failed to parse session id: %w", err)
	}
	return session, nil
}

// runStat は保管庫の統計を表示する。
func runStat(w io.Writer, cfg *config.Config) error {
	st, _, err := openStage(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	feeds, err := st.Feeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to read feeds: %w", err)
	}

	entries, read, starred := 0, 0, 0
	for _, f := range feeds {
		entries += len(f.Entries)
		for _, e := range f.Entries {
			if e.Read.Marked {
				read++
			}
			if e.Starred.Marked {
				starred++
			}
		}
	}

	fmt.Fprintf(w, "session: %s\n", st.Session().ID)
	fmt.Fprintf(w, "feeds: %d\n", len(feeds))
	fmt.Fprintf(w, "entries: %d\n", entries)
	fmt.Fprintf(w, "read: %d\n", read)
	fmt.Fprintf(w, "starred: %d\n", starred)
	return nil
}

// runFlush は全セッションの文書を統合した結果を自セッションの文書として
// 書き直す。分岐した写しが1つの文書へ畳み込まれるため、以後の読み出しが
// 軽くなる。
func runFlush(cfg *config.Config) error {
	st, _, err := openStage(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	feeds, err := st.Feeds(ctx)
	if err != nil {
		return fmt.Errorf("failed to read feeds: %w", err)
	}

	for _, f := range feeds {
		if err := st.SetFeed(ctx, f); err != nil {
			return fmt.Errorf("failed to restage feed %s: %w", f.ID, err)
		}
	}

	if err := st.Flush(ctx); err != nil {
		return fmt.Errorf("flush failed: %w", err)
	}

	slog.Info("vault compacted",
		slog.Int("feeds", len(feeds)),
		slog.String("session", st.Session().ID),
	)
	return nil
}

// runServe は保管庫デーモンモードで起動する。
// リポジトリを開き、定期書き出しループとHTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	st, reg, err := openStage(cfg)
	if err != nil {
		return err
	}

	var gatherer prometheus.Gatherer
	if reg != nil {
		gatherer = reg
	}
	router := vaultd.NewRouter(&vaultd.RouterDeps{
		Stage:    st,
		Gatherer: gatherer,
		Logger:   slog.Default(),
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 定期書き出しループの起動
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	flushDone := make(chan struct{})
	go func() {
		st.FlushLoop(ctx, cfg.FlushInterval)
		close(flushDone)
	}()

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("vault daemon starting",
			slog.String("addr", server.Addr),
			slog.String("session", st.Session().ID),
			slog.Duration("flush_interval", cfg.FlushInterval),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down vault daemon...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// 書き出しループを止め、残りの文書の書き出しを待つ
	cancel()
	<-flushDone

	slog.Info("vault daemon stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// Postgresリポジトリでのみ使用できる。
func runMigrate(cfg *config.Config) error {
	u, err := url.Parse(cfg.VaultURL)
	if err != nil || (u.Scheme != "postgres" && u.Scheme != "postgresql") {
		return fmt.Errorf("migrate requires a postgres vault url")
	}

	slog.Info("running database migrations",
		slog.String("database_url", maskVaultURL(cfg.VaultURL)),
	)

	if err := repository.RunMigrations(cfg.VaultURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// backendName は計測ラベルに使うバックエンド名をURLスキームから導出する。
func backendName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "unknown"
	}
	switch u.Scheme {
	case "file":
		return "fs"
	case "postgres", "postgresql":
		return "postgres"
	}
	return u.Scheme
}

// maskVaultURL はURL中の認証情報をマスクする。
func maskVaultURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.User("***")
	}
	return u.String()
}
