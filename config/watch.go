package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"pmm-quoter-go/infrastructure/logger"
)

// Watcher 监听配置文件变更，校验通过后回调最新配置。
// 无效更新只记录日志，运行中配置保持不变。
type Watcher struct {
	Path     string
	Cooldown time.Duration // 连续写入的冷却时间
	Log      *logger.Logger
}

// Start blocks until the context ends, delivering each valid reload to
// onUpdate. Run it in its own goroutine.
func (w Watcher) Start(ctx context.Context, onUpdate func(AppConfig)) error {
	if w.Cooldown <= 0 {
		w.Cooldown = time.Second
	}
	log := w.Log
	if log == nil {
		log = logger.Nop()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fsw.Close()

	// 监听目录而不是文件：编辑器多以 rename+create 方式落盘
	dir := filepath.Dir(w.Path)
	if err := fsw.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	var lastReload time.Time
	target := filepath.Clean(w.Path)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			if time.Since(lastReload) < w.Cooldown {
				continue
			}
			lastReload = time.Now()

			cfg, err := LoadWithEnvOverrides(w.Path)
			if err != nil {
				log.Warn("config reload rejected", zap.Error(err))
				continue
			}
			log.Info("config reloaded", zap.String("path", w.Path))
			if onUpdate != nil {
				onUpdate(cfg)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", zap.Error(err))
		}
	}
}
