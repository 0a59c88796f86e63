// Package main 提供 hbbs 命令行入口
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	hbbs "github.com/ffrrbb/rustdesk-server"
	"github.com/ffrrbb/rustdesk-server/config"
	"github.com/ffrrbb/rustdesk-server/pkg/lib/log"
)

var logger = log.Logger("hbbs/cmd")

// shutdownTimeout 优雅关闭超时
const shutdownTimeout = 10 * time.Second

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
// 优先级：命令行参数 > 环境变量 > 配置文件 > 默认值
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile    = flag.String("config", "", "配置文件路径（JSON）")
	dbURL         = flag.String("db", "", "节点库 URL（覆盖 DB_URL）")
	metricsListen = flag.String("metrics", "", "指标监听地址（覆盖配置）")
	logLevel      = flag.String("log-level", "", "日志级别 (debug/info/warn/error)")

	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(hbbs.VersionInfo())
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	log.Setup(os.Stderr, cfg.Log.Format, log.ParseLevel(cfg.Log.Level))

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	srv, err := hbbs.New(
		hbbs.WithConfig(cfg),
		hbbs.WithRegistry(reg),
	)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := srv.Start(ctx); err != nil {
		return err
	}

	var httpSrv *http.Server
	if cfg.Metrics.Enable && cfg.Metrics.Listen != "" {
		httpSrv = newHTTPServer(cfg.Metrics.Listen, srv)
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("指标服务异常退出", "addr", cfg.Metrics.Listen, "error", err)
			}
		}()
		logger.Info("指标服务已启动", "addr", cfg.Metrics.Listen)
	}

	logger.Info("hbbs 已启动", "version", hbbs.Version)

	<-ctx.Done()
	logger.Info("收到退出信号，正在关闭")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs error
	if httpSrv != nil {
		errs = multierr.Append(errs, httpSrv.Shutdown(shutdownCtx))
	}
	errs = multierr.Append(errs, srv.Stop(shutdownCtx))
	return errs
}

// loadConfig 加载配置文件并应用环境变量和命令行覆盖
func loadConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	cfg.ApplyEnv()

	if *dbURL != "" {
		cfg.Storage.DBURL = *dbURL
	}
	if *metricsListen != "" {
		cfg.Metrics.Listen = *metricsListen
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newHTTPServer 创建 /metrics 和 /healthz 服务
func newHTTPServer(addr string, srv *hbbs.Server) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(srv.Gatherer(), promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, "ok %d\n", srv.CachedPeers())
	})
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}
