// Package stage はフィード文書のセッション別の保管と読み出し時の統合を提供する。
//
// 書き込みはセッションごとに別の文書として溜められ、読み出すときに
// 全セッションの文書を統合して1つのフィードに還元する。自セッションの
// 文書が新しい側として優先され、他セッションの文書が古い側として
// 取り込まれる。
package stage

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/feedvault/feed"
	"github.com/hitoshi/feedvault/metrics"
	"github.com/hitoshi/feedvault/repository"
)

// ErrFeedNotFound は指定されたIDのフィードがどのセッションにも
// 保管されていないことを表す。
var ErrFeedNotFound = errors.New("フィードが保管されていません")

// Config はステージの動作設定を保持する。
type Config struct {
	WriteRate  rate.Limit               // Flush時の書き込みレート（req/sec）。0以下なら制限なし
	WriteBurst int                      // 書き込みのバーストサイズ。0以下なら1
	Metrics    metrics.MetricsCollector // nilなら記録しない
}

// Stage はセッションを持つ書き込み主体としてフィード文書を保管する。
type Stage struct {
	buffer  *DirtyBuffer
	session Session
	metrics metrics.MetricsCollector
	logger  *slog.Logger
}

// NewStage はrepoを保管先とするステージを生成する。
func NewStage(repo repository.Repository, session Session, cfg Config, logger *slog.Logger) *Stage {
	var limiter *rate.Limiter
	if cfg.WriteRate > 0 {
		burst := cfg.WriteBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(cfg.WriteRate, burst)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Stage{
		buffer:  NewDirtyBuffer(repo, limiter),
		session: session,
		metrics: cfg.Metrics,
		logger:  logger,
	}
}

// Session はこのステージのセッションを返す。
func (s *Stage) Session() Session {
	return s.session
}

// feedHash はフィードIDからキー区画名を導出する。
func feedHash(id string) string {
	sum := sha256.Sum256([]byte(id))
	return fmt.Sprintf("%x", sum[:16])
}

// SetFeed はフィードを自セッションの文書として保管する。
// 内容はFlushされるまでバッファに留まる。
func (s *Stage) SetFeed(ctx context.Context, f *feed.Feed) error {
	if f.ID == "" {
		return fmt.Errorf("IDのないフィードは保管できません")
	}
	key := []string{"feeds", feedHash(f.ID), s.session.filename()}
	w, err := s.buffer.Writer(ctx, key)
	if err != nil {
		return err
	}
	if err := feed.Encode(w, f); err != nil {
		// Closeしない: 途中までの内容を確定させない
		return fmt.Errorf("フィード %s を書き出せません: %w", f.ID, err)
	}
	return w.Close()
}

// Feed は全セッションの文書を統合したフィードを返す。
// どのセッションにも保管されていない場合はErrFeedNotFoundを返す。
func (s *Stage) Feed(ctx context.Context, id string) (*feed.Feed, error) {
	return s.readMerged(ctx, feedHash(id))
}

// Feeds は保管されているすべてのフィードを統合して返す。
func (s *Stage) Feeds(ctx context.Context) ([]*feed.Feed, error) {
	hashes, err := s.buffer.List(ctx, []string{"feeds"})
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			return nil, nil
		}
		return nil, err
	}
	feeds := make([]*feed.Feed, 0, len(hashes))
	for _, hash := range hashes {
		f, err := s.readMerged(ctx, hash)
		if err != nil {
			if errors.Is(err, ErrFeedNotFound) {
				continue
			}
			return nil, err
		}
		feeds = append(feeds, f)
	}
	return feeds, nil
}

// readMerged はhash配下の全セッションの文書を統合する。
// 自セッションの文書を新しい側として最初に読み、残りをセッションIDの
// 辞書順で取り込む。
func (s *Stage) readMerged(ctx context.Context, hash string) (*feed.Feed, error) {
	names, err := s.buffer.List(ctx, []string{"feeds", hash})
	if err != nil {
		var notFound *repository.NotFoundError
		if errors.As(err, &notFound) {
			return nil, ErrFeedNotFound
		}
		return nil, err
	}

	own := s.session.filename()
	ordered := make([]string, 0, len(names))
	for _, name := range names {
		if name == own {
			ordered = append([]string{own}, ordered...)
			continue
		}
		ordered = append(ordered, name)
	}

	var merged *feed.Feed
	for _, name := range ordered {
		f, err := s.readDocument(ctx, []string{"feeds", hash, name})
		if err != nil {
			return nil, err
		}
		if merged == nil {
			merged = f
			continue
		}
		merged.Merge(*f)
		if s.metrics != nil {
			s.metrics.RecordStageMerge()
		}
	}
	if merged == nil {
		return nil, ErrFeedNotFound
	}
	return merged, nil
}

// readDocument は1セッション分の文書を読み出して解読する。
func (s *Stage) readDocument(ctx context.Context, key []string) (*feed.Feed, error) {
	r, err := s.buffer.Reader(ctx, key)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	f, err := feed.Decode(r)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordDecodeError()
		}
		return nil, fmt.Errorf("文書 %s を解読できません: %w", repository.JoinKey(key), err)
	}
	return f, nil
}

// Flush は溜めた文書を保管先へ書き出す。
func (s *Stage) Flush(ctx context.Context) error {
	start := time.Now()
	written, err := s.buffer.Flush(ctx)
	if err != nil {
		return fmt.Errorf("ステージの書き出しに失敗しました: %w", err)
	}
	duration := time.Since(start)
	if s.metrics != nil {
		s.metrics.RecordStageFlush()
		s.metrics.RecordFlushDuration(duration)
	}
	if written > 0 {
		s.logger.Info("ステージを書き出しました",
			slog.Int("documents", written),
			slog.Float64("duration_ms", float64(duration.Milliseconds())),
		)
	}
	return nil
}

// FlushLoop は一定間隔でFlushを実行する。
// コンテキストがキャンセルされたら残りを書き出してから戻る。
func (s *Stage) FlushLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("ステージの定期書き出しを開始しました",
		slog.Duration("interval", interval),
		slog.String("session", s.session.ID),
	)

	for {
		select {
		case <-ctx.Done():
			flushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := s.Flush(flushCtx); err != nil {
				s.logger.Error("終了時の書き出しに失敗しました",
					slog.String("error", err.Error()),
				)
			}
			s.logger.Info("ステージの定期書き出しを停止しました")
			return
		case <-ticker.C:
			if err := s.Flush(ctx); err != nil {
				s.logger.Error("ステージの書き出しに失敗しました",
					slog.String("error", err.Error()),
				)
			}
		}
	}
}

// Pending は未書き出しの文書数を返す。
func (s *Stage) Pending() int {
	return s.buffer.Pending()
}
