package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	flags "github.com/jessevdk/go-flags"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"tokyobot/arena"
	"tokyobot/client"
	"tokyobot/internal/logging"
)

// options 命令行参数；凭据走环境变量（见 client.LoadConfig）
type options struct {
	LogFile  string        `long:"logfile" default:"bot.log" description:"Log file path (rotated); empty writes to stderr"`
	Debug    bool          `long:"debug" description:"Log at debug level"`
	Period   time.Duration `long:"period" default:"1s" description:"Game plan period"`
	Metrics  string        `long:"metrics" description:"Serve session metrics on this address, e.g. :9090"`
	Practice string        `long:"practice" description:"Start a local practice arena on this address and play there, e.g. 127.0.0.1:8080"`
}

// 示例机器人：每个周期随机转向、低速前进并开火
func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	level := zapcore.InfoLevel
	if opts.Debug {
		level = zapcore.DebugLevel
	}
	log := logging.New(logging.Options{File: opts.LogFile, Level: level})
	err := run(opts, log)
	if err != nil {
		log.Errorw("bot stopped", "err", err)
	}
	logging.Sync(log)
	if err != nil {
		os.Exit(1)
	}
}

// run 连接并运行到收到退出信号或服务端断开
func run(opts options, log *zap.SugaredLogger) error {
	cfg, err := loadConfig(opts, log)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	session, err := client.New(cfg, client.WithLogger(log), client.WithOnOpen(func(ev client.OpenEvent) {
		log.Infof("joined %s (status %d)", ev.Target, ev.Status)
	}))
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer session.Close()

	ctl := session.Controller()
	if _, err := session.SetGamePlan(func(state *client.Snapshot) {
		log.Debugw("current map state", "seq", state.Seq, "state", string(state.Raw))
		angle := client.RandomFloat(0.1, 1.0, 1) * 2 * math.Pi
		for _, err := range []error{ctl.Throttle(0.2), ctl.Rotate(angle), ctl.Fire()} {
			if err != nil {
				log.Warnw("command dropped", "err", err)
			}
		}
	}, opts.Period); err != nil {
		return fmt.Errorf("game plan: %w", err)
	}

	if opts.Metrics != "" {
		go serveMetrics(opts.Metrics, session, log)
	}

	// 优雅退出（Ctrl+C）
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
		if err := session.Close(); err != nil {
			log.Warnw("close", "err", err)
		}
		select {
		case <-session.Done():
		case <-time.After(2 * time.Second):
		}
	case <-session.Done():
		log.Info("server closed the connection")
	}
	return nil
}

// loadConfig 练习模式下启动本地服务端并指向它，否则完全依赖环境变量
func loadConfig(opts options, log *zap.SugaredLogger) (client.Config, error) {
	if opts.Practice == "" {
		return client.LoadConfig()
	}
	cfg, err := client.LoadConfig()
	if err != nil {
		cfg = client.Config{APIKey: "practice", UserName: "bot"}
	}

	ln, err := net.Listen("tcp", opts.Practice)
	if err != nil {
		return client.Config{}, err
	}
	srv := arena.NewServer(arena.Options{Log: log.Named("arena")})
	go func() {
		if err := http.Serve(ln, srv.Handler()); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Errorw("practice arena stopped", "err", err)
		}
	}()
	log.Infof("practice arena listening on %s", ln.Addr())

	cfg.ServerHost = ln.Addr().String()
	cfg.UseSecureConnection = false
	return cfg, nil
}

// serveMetrics GET /metrics 输出会话指标
func serveMetrics(addr string, s *client.Session, log *zap.SugaredLogger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"state":   s.State().String(),
			"metrics": s.Metrics().Snapshot(),
		}
		if snap := s.LatestSnapshot(); snap != nil {
			payload["last_state_seq"] = snap.Seq
			payload["last_state_at"] = snap.ReceivedAt
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	})
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Errorw("metrics server", "err", err)
	}
}
