package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	zaplogfmt "github.com/sykesm/zap-logfmt"
	"github.com/thecodeteam/goodbye"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/simplesurance/steve/internal/annotate"
	"github.com/simplesurance/steve/internal/cfg"
	"github.com/simplesurance/steve/internal/evloop"
	"github.com/simplesurance/steve/internal/githubclt"
	"github.com/simplesurance/steve/internal/logfields"
	"github.com/simplesurance/steve/internal/provider/github"
	"github.com/simplesurance/steve/internal/retry"
)

const appName = "steve"

// goodbye runs shutdown handlers with lower priority values first.
// The servers stop accepting webhooks before the event loop is stopped.
const (
	shutdownPrioServers   = 0
	shutdownPrioEventLoop = 10
	shutdownPrioLogger    = 20
)

var logger *zap.Logger

// Version is set via a ldflag on compilation
var Version = "unknown"

func exitOnErr(msg string, err error) {
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "ERROR:", msg+", error:", err.Error())
	os.Exit(1)
}

func panicHandler() {
	if r := recover(); r != nil {
		logger.Info(
			"panic caught, terminating gracefully",
			zap.String("panic", fmt.Sprintf("%v", r)),
			zap.StackSkip("stacktrace", 1),
		)

		ctx, cancelFn := context.WithTimeout(context.Background(), time.Minute)
		defer cancelFn()

		goodbye.Exit(ctx, 1)
	}
}

func startHTTPServer(name, listenAddr string, handler http.Handler, listenFn func(*http.Server) error) {
	srv := http.Server{
		Addr:              listenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 30 * time.Second,
	}

	goodbye.RegisterWithPriority(func(context.Context, os.Signal) {
		const shutdownTimeout = 30 * time.Second
		ctx, cancelFn := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelFn()

		logger.Debug(
			"terminating "+name+" server",
			logfields.Event(name+"_server_terminating"),
			zap.Duration("shutdown_timeout", shutdownTimeout),
		)

		err := srv.Shutdown(ctx)
		if err != nil {
			logger.Warn(
				"shutting down "+name+" server failed",
				logfields.Event(name+"_server_termination_failed"),
				zap.Error(err),
			)
		}
	}, shutdownPrioServers)

	go func() {
		defer panicHandler()

		logger.Info(
			name+" server started",
			logfields.Event(name+"_server_started"),
			zap.String("listenAddr", listenAddr),
		)

		err := listenFn(&srv)
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info(name+" server terminated", logfields.Event(name+"_server_terminated"))
			return
		}

		logger.Fatal(
			name+" server terminated unexpectedly",
			logfields.Event(name+"_server_terminated_unexpectedly"),
			zap.Error(err),
		)
	}()
}

type arguments struct {
	Verbose     *bool
	ConfigFile  *string
	ShowVersion *bool
}

var args arguments

const defConfigFile = "/etc/steve/config.toml"

func mustParseCommandlineParams() {
	args = arguments{
		Verbose: pflag.BoolP(
			"verbose",
			"v",
			false,
			"enable verbose logging",
		),
		ConfigFile: pflag.StringP(
			"cfg-file",
			"c",
			defConfigFile,
			"path to the steve configuration file",
		),
		ShowVersion: pflag.Bool(
			"version",
			false,
			"print the version and exit",
		),
	}

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTION]\nAdd QA labels and assignees to issues referenced by merged GitHub pull requests.\n", appName)
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\n%s\n", cfg.EnvUsage())
	}

	pflag.Parse()
}

func loadCfg(path string) (*cfg.Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	config, err := cfg.Load(file)
	if err != nil {
		return nil, err
	}

	env, err := cfg.LoadEnv()
	if err != nil {
		return nil, fmt.Errorf("reading environment variables failed: %w", err)
	}

	if err := config.ApplyEnv(env); err != nil {
		return nil, err
	}

	return config, nil
}

func mustParseCfg() *cfg.Config {
	// we use exitOnErr in this function instead of logger.Fatal() because
	// the logger is not initialized yet

	config, err := loadCfg(*args.ConfigFile)
	exitOnErr(fmt.Sprintf("could not load configuration file: %s", *args.ConfigFile), err)

	if config.GithubAPIToken == "" {
		exitOnErr("invalid configuration", errors.New("github_api_token or STEVE_GITHUB_TOKEN must be set"))
	}

	return config
}

func initLogFmtLogger(config *cfg.Config, logLevel zapcore.Level) *zap.Logger {
	cfg := zapEncoderConfig(config)

	logger := zap.New(zapcore.NewCore(
		zaplogfmt.NewEncoder(cfg),
		os.Stdout,
		logLevel),
	)

	return logger
}

func zapEncoderConfig(config *cfg.Config) zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()

	cfg.LevelKey = "loglevel"
	cfg.TimeKey = config.LogTimeKey
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncodeDuration = zapcore.StringDurationEncoder

	return cfg
}

func mustInitZapFormatLogger(config *cfg.Config, logLevel zapcore.Level) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.Sampling = nil
	cfg.EncoderConfig = zapEncoderConfig(config)
	cfg.OutputPaths = []string{"stdout"}
	cfg.Encoding = config.LogFormat
	cfg.Level = zap.NewAtomicLevelAt(logLevel)

	logger, err := cfg.Build()
	exitOnErr("could not initialize logger", err)

	return logger
}

func mustInitLogger(config *cfg.Config) {
	var logLevel zapcore.Level
	if *args.Verbose {
		logLevel = zapcore.DebugLevel
	} else {
		if err := (&logLevel).Set(config.LogLevel); err != nil {
			fmt.Fprintf(os.Stderr, "can not set log level to %q: %s \n", config.LogLevel, err)
			os.Exit(2)
		}
	}

	switch config.LogFormat {
	case "logfmt":
		logger = initLogFmtLogger(config, logLevel)
	case "console", "json":
		logger = mustInitZapFormatLogger(config, logLevel)
	default:
		fmt.Fprintf(os.Stderr, "unsupported log-format argument: %q\n", config.LogFormat)
		os.Exit(2)
	}

	logger = logger.Named("main")
	zap.ReplaceGlobals(logger)

	goodbye.RegisterWithPriority(func(context.Context, os.Signal) {
		if err := logger.Sync(); err != nil {
			fmt.Fprintf(os.Stderr, "flushing logs failed: %s\n", err)
		}
	}, shutdownPrioLogger)
}

func hide(in string) string {
	if in == "" {
		return in
	}

	return "**hidden**"
}

// reloadOnSignal replaces the active configuration when SIGUSR1 is received.
// Settings other than the repository configurations only take effect after a
// restart.
func reloadOnSignal(store *cfg.Store) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1)

	go func() {
		defer panicHandler()

		for range sigCh {
			config, err := loadCfg(*args.ConfigFile)
			if err != nil {
				logger.Error(
					"reloading configuration failed, keeping active configuration",
					logfields.Event("cfg_reload_failed"),
					zap.String("cfg_file", *args.ConfigFile),
					zap.Error(err),
				)
				continue
			}

			store.Replace(config)

			logger.Info(
				"reloaded configuration",
				logfields.Event("cfg_reloaded"),
				zap.String("cfg_file", *args.ConfigFile),
				zap.Stringer("repositories", config.Repos),
			)
		}
	}()
}

func main() {
	defer panicHandler()

	defer goodbye.Exit(context.Background(), 1)
	goodbye.Notify(context.Background())

	mustParseCommandlineParams()

	if *args.ShowVersion {
		fmt.Printf("%s %s\n", appName, Version)
		os.Exit(0) // nolint:gocritic // defer functions won't run
	}

	config := mustParseCfg()

	mustInitLogger(config)

	callTimeout, err := config.CallTimeoutDuration()
	exitOnErr("invalid configuration", err)

	logger.Info(
		"loaded cfg file",
		logfields.Event("cfg_loaded"),
		zap.String("cfg_file", *args.ConfigFile),
		zap.String("http_server_listen_addr", config.HTTPListenAddr),
		zap.String("https_server_listen_addr", config.HTTPSListenAddr),
		zap.String("github_webhook_endpoint", config.HTTPGithubWebhookEndpoint),
		zap.String("github_webhook_secret", hide(config.GithubWebHookSecret)),
		zap.String("github_api_token", hide(config.GithubAPIToken)),
		zap.String("api_root", config.APIRoot),
		zap.String("graphql_api_url", config.GraphQLURL()),
		zap.Bool("skip_issue_lookup", config.SkipIssueLookup),
		zap.Int("max_parallel_mutations", config.MaxParallelMutations),
		zap.Int("max_retries", config.MaxRetries),
		zap.Duration("call_timeout", callTimeout),
		zap.String("prometheus_metrics_endpoint", config.PrometheusMetricsEndpoint),
		zap.String("log_format", config.LogFormat),
		zap.String("log_time_key", config.LogTimeKey),
		zap.String("log_level", config.LogLevel),
		zap.Stringer("repositories", config.Repos),
	)

	if config.GithubWebHookSecret == "" {
		logger.Warn(
			"github_webhook_secret is not set, webhook payloads are not authenticated",
			logfields.Event("webhook_secret_missing"),
		)
	}

	goodbye.Register(func(_ context.Context, sig os.Signal) {
		logger.Info(fmt.Sprintf("terminating, received signal %s", sig.String()))
	})

	store := cfg.NewStore(config)
	reloadOnSignal(store)

	githubClient, err := githubclt.New(config.APIRoot, config.GraphQLURL(), config.GithubAPIToken)
	exitOnErr("could not create github client", err)

	pipeline := annotate.New(
		githubClient,
		retry.NewRetryer(config.MaxRetries, retry.WithAttemptTimeout(callTimeout)),
		annotate.WithMaxParallelMutations(config.MaxParallelMutations),
		annotate.WithIssueLookup(!config.SkipIssueLookup),
	)

	evLoop := evloop.New(
		pipeline,
		store,
		evloop.WithActionRoutineDeferFunc(panicHandler),
	)

	go func() {
		defer panicHandler()
		evLoop.Start()
	}()

	gh := github.New(
		[]chan<- *github.Event{evLoop.C()},
		github.WithPayloadSecret(config.GithubWebHookSecret),
	)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Post(config.HTTPGithubWebhookEndpoint, gh.HTTPHandler)
	logger.Info(
		"registered github webhook event http endpoint",
		logfields.Event("github_http_handler_registered"),
		zap.String("endpoint", config.HTTPGithubWebhookEndpoint),
	)

	if config.PrometheusMetricsEndpoint != "" {
		router.Handle(config.PrometheusMetricsEndpoint, promhttp.Handler())
		logger.Info(
			"registered prometheus metrics http endpoint",
			logfields.Event("metrics_http_handler_registered"),
			zap.String("endpoint", config.PrometheusMetricsEndpoint),
		)
	}

	if config.HTTPListenAddr != "" {
		startHTTPServer("http", config.HTTPListenAddr, router, func(srv *http.Server) error {
			return srv.ListenAndServe()
		})
	}

	if config.HTTPSListenAddr != "" {
		startHTTPServer("https", config.HTTPSListenAddr, router, func(srv *http.Server) error {
			return srv.ListenAndServeTLS(config.HTTPSCertFile, config.HTTPSKeyFile)
		})
	}

	goodbye.RegisterWithPriority(func(context.Context, os.Signal) {
		logger.Debug(
			"stopping event loop",
			logfields.Event("event_loop_stopping"),
		)
		evLoop.Stop()
	}, shutdownPrioEventLoop)

	select {}
}
