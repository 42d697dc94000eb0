// Command autotranslate translates HTML pages with a language model while
// keeping their markup intact.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ZaguanLabs/autotranslate"
	"github.com/ZaguanLabs/autotranslate/cache"
	"github.com/ZaguanLabs/autotranslate/protocol"
	"github.com/ZaguanLabs/autotranslate/provider"
	"github.com/ZaguanLabs/autotranslate/settings"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Build-time variables (can be overridden with ldflags)
var (
	version   = autotranslate.Version
	commit    = autotranslate.GitCommit
	buildDate = autotranslate.BuildDate
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	output      string
	view        string
	dryRun      bool
	jsonOutput  bool
	serve       bool
	importCache string
	exportCache string
	verbose     bool
	quiet       bool
}

func run(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("autotranslate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options

	// Flags
	fs.String("lang", "", "Target language (e.g., es_ES, Spanish)")
	fs.StringVar(&opts.configPath, "config", "", "Config file (default: ./autotranslate.yaml)")
	fs.String("api-key", "", "API key (default: AUTOTRANSLATE_API_KEY or OPENAI_API_KEY env)")
	fs.String("model", "", "Model to use")
	fs.String("endpoint", "", "Chat completions endpoint URL")
	fs.Float64("temperature", 0, "Sampling temperature")
	fs.Int("limit", 0, "Page-wide character budget")
	fs.Int("batch-size", 0, "Maximum characters per request")
	fs.Duration("timeout", 0, "Timeout of each request")
	fs.Bool("text-nodes", false, "Translate individual text nodes instead of whole elements")
	fs.String("redis", "", "Redis URL for a shared translation cache")
	fs.Int("cache-ttl", 0, "Cache TTL in seconds (0 disables the in-memory cache)")
	fs.Int("rpm", 0, "Maximum requests per minute")
	fs.StringVar(&opts.output, "output", "", "Output file (default: stdout)")
	outputShort := fs.String("o", "", "Output file (short for --output)")
	fs.StringVar(&opts.view, "view", "translated", "View to write: translated or original")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Show the request batches without calling the API")
	fs.BoolVar(&opts.jsonOutput, "json", false, "Output result as JSON")
	fs.BoolVar(&opts.serve, "serve", false, "Serve the page protocol over HTTP")
	fs.String("addr", "", "Listen address for --serve (default: :8080)")
	fs.StringVar(&opts.importCache, "import-cache", "", "Load cache entries from a JSON export first")
	fs.StringVar(&opts.exportCache, "export-cache", "", "Write cache entries to a JSON export afterwards")
	fs.BoolVar(&opts.verbose, "verbose", false, "Verbose logging")
	fs.BoolVar(&opts.quiet, "quiet", false, "Suppress progress output")
	showVersion := fs.Bool("version", false, "Show version")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *showVersion {
		fmt.Fprintf(stdout, "%s %s\n", autotranslate.Name, version)
		if commit != "unknown" && commit != "" {
			fmt.Fprintf(stdout, "  commit:  %s\n", commit)
		}
		if buildDate != "unknown" && buildDate != "" {
			fmt.Fprintf(stdout, "  built:   %s\n", buildDate)
		}
		return nil
	}

	// Handle -o alias for --output
	if *outputShort != "" && opts.output == "" {
		opts.output = *outputShort
	}
	if opts.view != "translated" && opts.view != "original" {
		return fmt.Errorf("--view must be translated or original, got %q", opts.view)
	}

	s, err := settings.Load(opts.configPath)
	if err != nil {
		return err
	}
	applyFlags(fs, s)
	if err := s.Validate(); err != nil {
		return err
	}

	logger, err := newLogger(stderr, s.LogLevel, opts.verbose, opts.quiet)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if !opts.dryRun && s.API.Key == "" {
		return fmt.Errorf("API key required (--api-key, %s_API_KEY or OPENAI_API_KEY env)", settings.EnvPrefix)
	}

	// Get input
	var input io.Reader = os.Stdin
	inputName := "stdin"
	if fs.NArg() > 0 {
		inputPath := fs.Arg(0)
		f, err := os.Open(inputPath) // #nosec G304 - CLI tool reads user-specified files
		if err != nil {
			return fmt.Errorf("reading file: %w", err)
		}
		defer f.Close()
		input = f
		inputName = filepath.Base(inputPath)
	}

	pageOpts := append(s.PageOptions(), autotranslate.WithLogger(logger))
	page, err := autotranslate.LoadPage(input, pageOpts...)
	if err != nil {
		return err
	}

	if opts.dryRun {
		return runDryRun(page, inputName, s, stdout, opts.jsonOutput)
	}

	tc, err := newCache(s, logger)
	if err != nil {
		return err
	}
	if closer, ok := tc.(io.Closer); ok {
		defer closer.Close()
	}
	if opts.importCache != "" && tc != nil {
		result, err := cache.NewImporter(tc).ImportFromFile(opts.importCache)
		if err != nil {
			return fmt.Errorf("importing cache: %w", err)
		}
		logger.Info("cache imported", zap.Int("entries", result.Imported), zap.Int("failed", result.Failed))
	}

	factory := translatorFactory(s, tc)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.serve {
		return runServe(ctx, page, factory, s, logger, stderr, opts.quiet)
	}

	translator, err := factory(s.APIConfig())
	if err != nil {
		return err
	}

	if !opts.quiet {
		fmt.Fprintf(stderr, "Translating %s to %s...\n", inputName, s.TargetLanguage)
	}

	summary, err := page.TranslatePage(ctx, translator, autotranslate.TranslateOptions{
		TargetLanguage: s.TargetLanguage,
		CharacterLimit: s.CharacterLimit,
		Notifier:       newProgress(stderr, opts.quiet),
	})
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	if opts.exportCache != "" && tc != nil {
		if err := cache.NewExporter(tc).ExportToFile(opts.exportCache, map[string]string{
			"model":    s.API.Model,
			"language": s.TargetLanguage,
		}); err != nil {
			return fmt.Errorf("exporting cache: %w", err)
		}
	}

	if opts.view == "original" {
		page.DisplayOriginal()
	}

	html, err := page.HTML()
	if err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}

	// Output
	var out io.Writer = stdout
	if opts.output != "" {
		f, err := os.Create(opts.output)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if opts.jsonOutput {
		return outputJSON(out, html, summary)
	}
	fmt.Fprint(out, html)

	// Stats
	if !opts.quiet {
		fmt.Fprintf(stderr, "\nDone in %v\n", summary.Elapsed.Round(time.Millisecond))
		fmt.Fprintf(stderr, "  Batches:      %d (%d failed)\n", summary.Batches, summary.FailedBatches)
		fmt.Fprintf(stderr, "  Translated:   %d of %d\n", summary.Translated, summary.Units)
		if summary.Excluded > 0 {
			fmt.Fprintf(stderr, "  Over budget:  %d\n", summary.Excluded)
		}
		if summary.Dropped+summary.Missing > 0 {
			fmt.Fprintf(stderr, "  Dropped:      %d\n", summary.Dropped+summary.Missing)
		}
	}

	return nil
}

// applyFlags copies explicitly set flags over the loaded settings.
func applyFlags(fs *flag.FlagSet, s *settings.Settings) {
	fs.Visit(func(f *flag.Flag) {
		getter, ok := f.Value.(flag.Getter)
		if !ok {
			return
		}
		v := getter.Get()
		switch f.Name {
		case "lang":
			s.TargetLanguage = v.(string)
		case "api-key":
			s.API.Key = v.(string)
		case "model":
			s.API.Model = v.(string)
		case "endpoint":
			s.API.Endpoint = v.(string)
		case "temperature":
			s.API.Temperature = float32(v.(float64))
		case "limit":
			s.CharacterLimit = v.(int)
		case "batch-size":
			s.BatchCharLimit = v.(int)
		case "timeout":
			s.RequestTimeout = v.(time.Duration)
		case "text-nodes":
			s.TextUnits = v.(bool)
		case "redis":
			s.Cache.RedisURL = v.(string)
		case "cache-ttl":
			s.Cache.TTL = v.(int)
			s.Cache.Enabled = s.Cache.TTL > 0 || s.Cache.RedisURL != ""
		case "addr":
			s.Server.Addr = v.(string)
		case "rpm":
			s.RateLimit.RequestsPerMinute = v.(int)
		}
	})
}

// newLogger builds the CLI logger on top of stderr.
func newLogger(w io.Writer, levelName string, verbose, quiet bool) (*zap.Logger, error) {
	if quiet {
		return zap.NewNop(), nil
	}

	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", levelName, err)
	}
	cfg := zap.NewProductionEncoderConfig()
	if verbose {
		level = zapcore.DebugLevel
		cfg = zap.NewDevelopmentEncoderConfig()
	}
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(cfg), zapcore.AddSync(w), level)
	return zap.New(core), nil
}

// newCache returns the configured translation cache, or nil when caching is off.
func newCache(s *settings.Settings, logger *zap.Logger) (cache.TranslationCache, error) {
	if s.Cache.RedisURL != "" {
		rc, err := cache.NewRedisCache(cache.RedisConfig{
			URL:       s.Cache.RedisURL,
			TTL:       s.Cache.TTL,
			KeyPrefix: s.Cache.KeyPrefix,
			Logger:    logger,
		})
		if err != nil {
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return rc, nil
	}
	if !s.Cache.Enabled {
		return nil, nil
	}
	return cache.NewInMemoryCache(s.Cache.TTL), nil
}

// translatorFactory builds the translator chain for an endpoint:
// cache, then retries, then rate limiting in front of the model.
func translatorFactory(s *settings.Settings, tc cache.TranslationCache) protocol.TranslatorFactory {
	limits := s.RateLimitConfig()
	retry := s.RetryConfig()

	return func(api autotranslate.APIConfig) (autotranslate.BatchTranslator, error) {
		if api.Key == "" {
			return nil, errors.New("API key required")
		}

		var tr autotranslate.BatchTranslator = provider.NewOpenAIProvider(provider.OpenAIConfig{
			APIKey:      api.Key,
			Model:       api.Model,
			Temperature: api.Temperature,
			Endpoint:    api.Endpoint,
			Role:        api.Role,
			JSONMode:    s.API.JSONMode,
		})
		tr = autotranslate.NewRateLimitedTranslator(tr, limits)
		tr = autotranslate.NewRetryableTranslator(tr, retry)
		if tc != nil {
			model := api.Model
			if model == "" {
				model = provider.DefaultModel
			}
			tr = autotranslate.NewCachingTranslator(tr, tc, model)
		}
		return tr, nil
	}
}

// runDryRun shows the batches that would be sent without calling the API.
func runDryRun(page *autotranslate.Page, inputName string, s *settings.Settings, stdout io.Writer, jsonOut bool) error {
	batches := page.Plan(s.CharacterLimit)

	if jsonOut {
		type dryRunOutput struct {
			InputFile  string                            `json:"input_file"`
			TargetLang string                            `json:"target_lang"`
			UnitCount  int                               `json:"unit_count"`
			Batches    []*autotranslate.TranslationBatch `json:"batches"`
		}

		out := dryRunOutput{
			InputFile:  inputName,
			TargetLang: s.TargetLanguage,
			Batches:    batches,
		}
		for _, b := range batches {
			out.UnitCount += b.Len()
		}

		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(stdout, "Dry run: %s -> %s\n", inputName, s.TargetLanguage)
	fmt.Fprintf(stdout, "%d request batches:\n", len(batches))

	for i, b := range batches {
		fmt.Fprintf(stdout, "\nBatch %d (%d units, %d chars)\n", i+1, b.Len(), b.CharCount())
		for _, id := range b.IDs() {
			content, _ := b.Content(id)
			if autotranslate.CharCount(content) > 60 {
				content = string([]rune(content)[:57]) + "..."
			}
			fmt.Fprintf(stdout, "  %-12s %q\n", id, content)
		}
	}

	return nil
}

// runServe exposes the page over HTTP until ctx is done.
func runServe(ctx context.Context, page *autotranslate.Page, factory protocol.TranslatorFactory, s *settings.Settings, logger *zap.Logger, stderr io.Writer, quiet bool) error {
	addr := s.Server.Addr
	notifications := protocol.NewBuffer()
	d := protocol.NewDispatcher(page, factory, notifications,
		protocol.WithLogger(logger),
		protocol.WithDefaults(protocol.TranslatePageParams{
			TargetLanguage: s.TargetLanguage,
			CharacterLimit: s.CharacterLimit,
			APIConfig:      s.APIConfig(),
		}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           protocol.NewServer(d, notifications, logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		errc <- srv.ListenAndServe()
	}()
	if !quiet {
		fmt.Fprintf(stderr, "Serving session %s on %s\n", d.Session(), addr)
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	d.Wait()
	return nil
}

// progress reports translation progress on stderr.
type progress struct {
	w     io.Writer
	quiet bool
}

func newProgress(w io.Writer, quiet bool) autotranslate.Notifier {
	if quiet {
		return autotranslate.NopNotifier{}
	}
	return &progress{w: w}
}

func (p *progress) ProcessingStarted(batches int) {
	fmt.Fprintf(p.w, "Sending %d batches\n", batches)
}

func (p *progress) BatchFailed(err *autotranslate.BatchError) {
	fmt.Fprintf(p.w, "  %s batch failed: %v\n", protocol.ErrorKind(err), err)
}

func (p *progress) ProcessingFinished(autotranslate.Summary) {}

// JSONOutput represents the JSON output format.
type JSONOutput struct {
	Content        string `json:"content"`
	TargetLanguage string `json:"target_language"`
	Batches        int    `json:"batches"`
	Units          int    `json:"units"`
	Excluded       int    `json:"excluded"`
	Translated     int    `json:"translated"`
	Dropped        int    `json:"dropped"`
	Missing        int    `json:"missing"`
	FailedBatches  int    `json:"failed_batches"`
	ElapsedMs      int64  `json:"elapsed_ms"`
}

// outputJSON writes the result as JSON.
func outputJSON(w io.Writer, content string, summary *autotranslate.Summary) error {
	out := JSONOutput{
		Content:        content,
		TargetLanguage: summary.TargetLanguage,
		Batches:        summary.Batches,
		Units:          summary.Units,
		Excluded:       summary.Excluded,
		Translated:     summary.Translated,
		Dropped:        summary.Dropped,
		Missing:        summary.Missing,
		FailedBatches:  summary.FailedBatches,
		ElapsedMs:      summary.Elapsed.Milliseconds(),
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
