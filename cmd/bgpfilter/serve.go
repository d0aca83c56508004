package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/John-Robertt/bgpfilter-go/internal/httpapi"
	"github.com/John-Robertt/bgpfilter-go/internal/logging"
	"github.com/John-Robertt/bgpfilter-go/internal/model"
	"github.com/John-Robertt/bgpfilter-go/internal/routeros"
	"github.com/John-Robertt/bgpfilter-go/internal/store"
)

const defaultListen = "127.0.0.1:25510"

type serveConfig struct {
	listen            string
	schema            string
	defaultChain      string
	dropTarget        string
	readHeaderTimeout time.Duration
	shutdownTimeout   time.Duration
	fetchTimeout      time.Duration
	importRate        float64
	importBurst       int
	logLevel          string
	logFormat         string
	sample            bool
}

func (c *serveConfig) register(fs *flag.FlagSet) {
	fs.StringVar(&c.listen, "listen", defaultListen, "HTTP 监听地址")
	fs.StringVar(&c.schema, "schema", string(model.SchemaChain), "规则分组方式：chain | asn")
	fs.StringVar(&c.defaultChain, "default-chain", routeros.DefaultChain, "缺省 filter chain")
	fs.StringVar(&c.dropTarget, "drop-target", routeros.DefaultDropTarget, "drop 规则跳转的 chain")
	fs.DurationVar(&c.readHeaderTimeout, "read-header-timeout", 5*time.Second, "HTTP ReadHeaderTimeout（请求头读取超时）")
	fs.DurationVar(&c.shutdownTimeout, "shutdown-timeout", 10*time.Second, "收到退出信号后的优雅退出等待时间")
	fs.DurationVar(&c.fetchTimeout, "fetch-timeout", 15*time.Second, "从 URL 导入时单次拉取的超时")
	fs.Float64Var(&c.importRate, "import-rate", 1, "URL 导入的速率上限（次/秒，<=0 表示不限）")
	fs.IntVar(&c.importBurst, "import-burst", 3, "URL 导入的突发上限")
	fs.StringVar(&c.logLevel, "log-level", "info", "日志级别：debug | info | warn | error")
	fs.StringVar(&c.logFormat, "log-format", "json", "日志格式：json | console")
	fs.BoolVar(&c.sample, "sample", false, "启动时载入示例规则")
}

func newServeCommand(env cliEnv) *ffcli.Command {
	var cfg serveConfig
	fs := flag.NewFlagSet("bgpfilter serve", flag.ContinueOnError)
	fs.SetOutput(env.stderr)
	cfg.register(fs)
	_ = fs.String("config", "", "配置文件路径（每行一个 flag value）")

	return &ffcli.Command{
		Name:       "serve",
		ShortUsage: "bgpfilter serve [flags]",
		ShortHelp:  "启动 HTTP 服务与内置编辑页面",
		LongHelp:   "每个 flag 也可以通过 " + envPrefix + "_<FLAG> 环境变量或 -config 文件设置。",
		FlagSet:    fs,
		Options: []ff.Option{
			ff.WithEnvVarPrefix(envPrefix),
			ff.WithConfigFileFlag("config"),
			ff.WithConfigFileParser(ff.PlainParser),
		},
		Exec: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("serve takes no arguments, got %q", args)
			}
			return serve(ctx, cfg)
		},
	}
}

func (c serveConfig) handlerOptions(logger *zap.Logger, reg *prometheus.Registry) (httpapi.Options, error) {
	schema, ok := model.ParseSchema(c.schema)
	if !ok {
		return httpapi.Options{}, fmt.Errorf("invalid -schema %q (expected chain|asn)", c.schema)
	}
	st := store.New()
	if c.sample {
		st.Append(store.SampleRules(schema)...)
	}
	limit := rate.Inf
	if c.importRate > 0 {
		limit = rate.Limit(c.importRate)
	}
	return httpapi.Options{
		Store:        st,
		Schema:       schema,
		DefaultChain: c.defaultChain,
		DropTarget:   c.dropTarget,
		FetchTimeout: c.fetchTimeout,
		ImportRate:   limit,
		ImportBurst:  c.importBurst,
		Logger:       logger,
		Registry:     reg,
	}, nil
}

func serve(ctx context.Context, cfg serveConfig) error {
	logger, err := logging.New(cfg.logLevel, cfg.logFormat)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	opt, err := cfg.handlerOptions(logger, reg)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.listen,
		Handler:           httpapi.NewHandler(opt),
		ReadHeaderTimeout: cfg.readHeaderTimeout,
	}

	logger.Info("listening",
		zap.String("addr", "http://"+cfg.listen),
		zap.String("schema", string(opt.Schema)),
		zap.Int("rules", opt.Store.Len()),
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")

		shCtx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Warn("graceful shutdown failed", zap.Error(err))
			_ = srv.Close()
		}

		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
