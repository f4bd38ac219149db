package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SyncMusic/config"
	"SyncMusic/core/audio"
	"SyncMusic/core/auth"
	"SyncMusic/core/dispatch"
	"SyncMusic/core/pipeline"
	"SyncMusic/core/room"
	"SyncMusic/core/scheduler"
	"SyncMusic/core/session"
	"SyncMusic/core/state"
	"SyncMusic/core/watch"
	"SyncMusic/logger"

	"github.com/gorilla/mux"
)

// Start 初始化各组件并启动 HTTP 服务，直到收到退出信号
func Start(cfg *config.Config) error {
	logger.InitLogger(logger.Config{
		Level:      logger.ParseLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    cfg.LogMaxSize,
		MaxBackups: cfg.LogMaxBackups,
		MaxAge:     cfg.LogMaxAge,
		Compress:   cfg.LogCompress,
	})
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 状态存储不可用时直接退出，不能以空状态继续运行
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("open state store: %w", err)
	}
	defer closeStore()

	st := state.New(store)
	if err := st.Load(ctx); err != nil {
		return err
	}

	recovery := state.NewRecovery(cfg.DataDir)
	if queue, display, err := recovery.Load(); err != nil {
		logger.Warn("读取恢复文件失败", logger.ErrorField(err))
	} else if restored, err := st.Restore(ctx, queue, display); err != nil {
		return err
	} else if restored {
		logger.Info("已从恢复文件还原播放列表", logger.Int("queue", len(queue)))
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	fillers := watch.NewFillerList(dataFile(cfg, "random.txt"))
	nicknames := watch.NewNicknames(dataFile(cfg, "username.json"))
	watcher, err := watch.NewWatcher(cfg.DataDir, map[string]watch.Reloader{
		"random.txt":    fillers,
		"username.json": nicknames,
	})
	if err != nil {
		logger.Warn("数据文件热加载不可用", logger.ErrorField(err))
	} else {
		go watcher.Run(ctx)
	}

	media, err := newMediaCache(cfg)
	if err != nil {
		return err
	}
	p := pipeline.New(st, NewPlugins(cfg), media, audio.NewFFprobe(cfg.FFprobePath), cfg.MaxMusicLength, cfg.MediaURLPrefix)

	sessions := session.NewRegistry(cfg.MinChatWait)
	hub := room.NewHub()
	disp := dispatch.New(st, p, sessions, hub, auth.NewAdminPassword(cfg.AdminPassword), nicknames, dispatch.Config{
		MaxChatLength: cfg.MaxChatLength,
		MaxUserMusic:  cfg.MaxUserMusic,
	})
	hub.SetHandler(disp)

	sched := scheduler.New(st, p, sessions, hub, fillers, recovery, nicknames, cfg.TickInterval, cfg.PlayEpsilon)
	go func() {
		if err := sched.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Fatal("播放调度异常退出", logger.ErrorField(err))
		}
	}()

	roomHandler := NewRoomHandler(ctx, hub, st, sessions, cfg.UseXRealIP)
	mediaHandler := NewMediaHandler(media)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.HandleFunc(cfg.WSPath, roomHandler.HandleWebSocket)
	router.HandleFunc("/api/status", roomHandler.GetStatusHandler).Methods(http.MethodGet)
	router.HandleFunc("/media/{file}", mediaHandler.ServeMedia).Methods(http.MethodGet, http.MethodHead)

	server := &http.Server{
		Addr:        cfg.ListenAddr,
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server starting",
			logger.String("addr", cfg.ListenAddr),
			logger.String("ws", cfg.WSPath),
			logger.String("backend", cfg.StateBackend))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	hub.Close()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server stopped")
	return nil
}

// corsMiddleware 允许任意来源访问接口与媒体文件
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400") // 24 hours

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
