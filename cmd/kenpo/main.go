// Package main is the kenpo CLI entry point.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/kenpo/internal/cli"
	"github.com/hyperjump/kenpo/internal/config"
	"github.com/hyperjump/kenpo/internal/country"
	"github.com/hyperjump/kenpo/internal/export"
	"github.com/hyperjump/kenpo/internal/indexer"
	"github.com/hyperjump/kenpo/internal/models"
	"github.com/hyperjump/kenpo/internal/server"
	"github.com/hyperjump/kenpo/internal/storage"
	"github.com/hyperjump/kenpo/internal/watcher"
	"github.com/hyperjump/kenpo/pkg/utils"
)

var version = "dev"

const (
	defaultConfigPath = "/usr/local/etc/kenpo/config.yaml"
	defaultServerURL  = "http://localhost:8080"
)

// loadConfig loads config from path. When path is the default, it first looks for
// config.yaml in the current directory (for development); if that exists it is used.
// Returns the config and the path that was actually loaded.
func loadConfig(path string) (*config.Config, string, error) {
	if path == defaultConfigPath {
		if cwd, cwdErr := os.Getwd(); cwdErr == nil {
			fallback := filepath.Join(cwd, "config.yaml")
			if _, statErr := os.Stat(fallback); statErr == nil {
				cfg, loadErr := config.Load(fallback)
				if loadErr != nil {
					return nil, "", loadErr
				}
				return cfg, fallback, nil
			}
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	command := os.Args[1]
	switch command {
	case "server":
		runServer()
	case "search":
		runSearch()
	case "compare":
		runCompare()
	case "export":
		runExport()
	case "index":
		runIndex()
	case "delete":
		runDelete()
	case "status":
		runStatus()
	case "countries":
		runCountries()
	case "version", "--version", "-v":
		fmt.Printf("kenpo version %s\n", version)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

// setup loads config, builds the logger and initializes components.
// Any failure exits the process.
func setup(configPath string, debugFlag bool) (*config.Config, string, *zap.Logger, *Components) {
	cfg, resolved, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	debugMode := cfg.Debug || debugFlag
	logger, err := utils.NewLogger(debugMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	components, err := initializeComponents(context.Background(), cfg, logger, debugMode)
	if err != nil {
		logger.Fatal("Failed to initialize components", zap.Error(err))
	}
	return cfg, resolved, logger, components
}

func runServer() {
	fs := flag.NewFlagSet("server", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	debug := fs.Bool("debug", false, "enable debug logging")
	_ = fs.Parse(os.Args[2:])

	cfg, resolvedConfigPath, logger, components := setup(*configPath, *debug)
	defer logger.Sync()
	defer components.Close()

	logger.Info("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.Bool("debug", cfg.Debug || *debug),
	)

	countries, err := country.NewNameIndex()
	if err != nil {
		logger.Fatal("Failed to build country index", zap.Error(err))
	}
	defer countries.Close()

	watchCtx, watchCancel := context.WithCancel(context.Background())
	defer watchCancel()
	if len(cfg.Watch.Directories) > 0 {
		watchSvc := watcher.NewWatcher(watcher.Config{
			Directories: cfg.Watch.Directories,
			Extensions:  cfg.Watch.Extensions,
			Recursive:   cfg.Watch.RecursiveOrDefault(),
		}, components.Indexer, watcher.WithLogger(logger))
		if err := watchSvc.Start(watchCtx); err != nil {
			logger.Fatal("Failed to start watcher", zap.Error(err))
		}
		go watchSvc.SyncExisting()
	}

	srv := server.NewServer(components.Engine, components.Compare, components.Store, countries, cfg, logger)
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down...")
	watchCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Stop(ctx)
}

func printSearchUsage(fs *flag.FlagSet) {
	fmt.Fprintf(fs.Output(), "Usage: kenpo search [flags] <query>\n\n")
	fmt.Fprintf(fs.Output(), "Query is all remaining arguments joined by spaces. Multi-word queries work with or without quotes.\n\n")
	fs.PrintDefaults()
	fmt.Fprintf(fs.Output(), `
Examples:
  kenpo search 인간의 존엄
  kenpo search --country DE "human dignity"
  kenpo search 제10조                      # exact article lookup
  kenpo search --threshold 0.5 --top-k 20 표현의 자유
`)
}

// buildSearchQuery joins all positional args with spaces so multi-word queries
// work the same with or without shell quoting.
func buildSearchQuery(args []string) string {
	return strings.TrimSpace(strings.Join(args, " "))
}

// configPathFromArgs returns the value of -config/--config from args if present, else defaultPath.
func configPathFromArgs(args []string, defaultPath string) string {
	for i, a := range args {
		if (a == "-config" || a == "--config") && i+1 < len(args) {
			return args[i+1]
		}
	}
	return defaultPath
}

// serverURLFromConfig returns the API base URL of the configured server, or
// defaultServerURL when the config cannot be loaded.
func serverURLFromConfig(path string) string {
	cfg, _, err := loadConfig(path)
	if err != nil || cfg == nil {
		return defaultServerURL
	}
	host := cfg.Server.Host
	if host == "" || host == "0.0.0.0" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%d", host, cfg.Server.Port)
}

// argsReorder moves any flags (and their values) that appear after the query
// to the front of the slice so that flag.Parse() sees them.
func argsReorder(args []string) []string {
	for i, a := range args {
		if len(a) > 0 && a[0] == '-' {
			if i == 0 {
				return args
			}
			reordered := make([]string, 0, len(args))
			reordered = append(reordered, args[i:]...)
			reordered = append(reordered, args[:i]...)
			return reordered
		}
	}
	return args
}

func parseFormat(s string) cli.OutputFormat {
	format, err := cli.ParseFormat(s)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	return format
}

func runSearch() {
	args := argsReorder(os.Args[2:])
	configPath := configPathFromArgs(args, defaultConfigPath)

	fs := flag.NewFlagSet("search", flag.ExitOnError)
	fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", serverURLFromConfig(configPath), "server URL (empty = use direct storage when server is not running)")
	topK := fs.Int("top-k", 0, "number of results (default from config)")
	countryCode := fs.String("country", "", "restrict to one country code")
	exclude := fs.String("exclude-country", "", "exclude one country code")
	threshold := fs.Float64("threshold", -1, "minimum score; negative disables the threshold")
	minResults := fs.Int("min-results", 0, "results kept even when below the threshold")
	noRerank := fs.Bool("no-rerank", false, "disable reranking")
	boost := fs.Bool("boost", false, "boost articles whose number or keywords match the query")
	outputFormat := fs.String("output", "text", "output format: text or json")
	fs.Usage = func() { printSearchUsage(fs) }
	_ = fs.Parse(args)

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		printSearchUsage(fs)
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	query := &models.SearchQuery{
		Query:      queryStr,
		TopK:       *topK,
		Filter:     models.Filter{Country: *countryCode, ExcludeCountry: *exclude},
		MinResults: *minResults,
		Boost:      *boost,
	}
	if *threshold >= 0 {
		query.ScoreThreshold = threshold
	}
	if *noRerank {
		off := false
		query.UseReranker = &off
	}

	var response models.SearchResponse
	if *serverURL != "" {
		// Use HTTP API when server is running (avoids SQLite lock conflict).
		if err := postJSON(*serverURL+"/api/v1/search", query, &response); err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		_, _, logger, components := setup(configPath, false)
		defer logger.Sync()
		defer components.Close()
		res, err := components.Engine.Execute(context.Background(), query)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search failed: %v\n", err)
			os.Exit(1)
		}
		response = *res
	}
	if err := cli.WriteSearchResults(os.Stdout, &response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

// compareFlags are shared by compare and export.
type compareFlags struct {
	configPath string
	serverURL  *string
	koreanTopK *int
	foreignTop *int
	target     *string
	pageSize   *int
	noSummary  *bool
	noRerank   *bool
}

func newCompareFlags(fs *flag.FlagSet, args []string) *compareFlags {
	configPath := configPathFromArgs(args, defaultConfigPath)
	fs.String("config", defaultConfigPath, "config file path")
	return &compareFlags{
		configPath: configPath,
		serverURL:  fs.String("server", serverURLFromConfig(configPath), "server URL (empty = run locally)"),
		koreanTopK: fs.Int("korean-top-k", 0, "number of Korean anchor articles (default 3)"),
		foreignTop: fs.Int("foreign-top-k", 0, "foreign matches per country per anchor (default 5)"),
		target:     fs.String("target", "", "compare against one country only"),
		pageSize:   fs.Int("page-size", 0, "page size per country (default foreign-top-k)"),
		noSummary:  fs.Bool("no-summary", false, "skip the generated comparison summary"),
		noRerank:   fs.Bool("no-rerank", false, "disable reranking"),
	}
}

func (f *compareFlags) request(query string) *models.CompareRequest {
	req := &models.CompareRequest{
		Query:         query,
		KoreanTopK:    *f.koreanTopK,
		ForeignTopK:   *f.foreignTop,
		TargetCountry: *f.target,
		PageSize:      *f.pageSize,
	}
	if *f.noSummary {
		off := false
		req.GenerateSummary = &off
	}
	if *f.noRerank {
		off := false
		req.UseReranker = &off
	}
	return req
}

func runCompare() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	flags := newCompareFlags(fs, args)
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: kenpo compare [flags] <query>")
		os.Exit(1)
	}
	format := parseFormat(*outputFormat)

	response, err := compareRequest(flags, queryStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compare failed: %v\n", err)
		os.Exit(1)
	}
	if err := cli.WriteCompare(os.Stdout, response, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func compareRequest(flags *compareFlags, query string) (*models.CompareResponse, error) {
	req := flags.request(query)
	if *flags.serverURL != "" {
		var response models.CompareResponse
		if err := postJSON(*flags.serverURL+"/api/v1/compare", req, &response); err != nil {
			return nil, err
		}
		return &response, nil
	}
	_, _, logger, components := setup(flags.configPath, false)
	defer logger.Sync()
	defer components.Close()
	return components.Compare.Compare(context.Background(), req)
}

func runExport() {
	args := argsReorder(os.Args[2:])
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	flags := newCompareFlags(fs, args)
	out := fs.String("o", "", "output file (default kenpo-<search id>.xlsx)")
	_ = fs.Parse(args)

	queryStr := buildSearchQuery(fs.Args())
	if queryStr == "" {
		fmt.Println("Usage: kenpo export [flags] <query>")
		os.Exit(1)
	}
	response, err := compareRequest(flags, queryStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Compare failed: %v\n", err)
		os.Exit(1)
	}
	path := *out
	if path == "" {
		path = "kenpo-" + response.SearchID + ".xlsx"
	}
	f, err := os.Create(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Create %s: %v\n", path, err)
		os.Exit(1)
	}
	if err := export.WritePairs(f, response); err != nil {
		_ = f.Close()
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		fmt.Fprintf(os.Stderr, "Export failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d pairs to %s\n", len(response.Pairs), path)
}

func postJSON(url string, body, out interface{}) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// statusResponse is the shape of GET /api/v1/status response.
type statusResponse struct {
	Records        int                    `json:"records"`
	StoreBackend   string                 `json:"store_backend"`
	CacheBackend   string                 `json:"cache_backend"`
	DiskUsageBytes *int64                 `json:"disk_usage_bytes,omitempty"`
	Config         map[string]interface{} `json:"config,omitempty"`
}

func runStatus() {
	args := os.Args[2:]
	fs := flag.NewFlagSet("status", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	serverURL := fs.String("server", serverURLFromConfig(configPathFromArgs(args, defaultConfigPath)), "server URL (empty = use direct storage)")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(args)

	var status statusResponse
	if *serverURL != "" {
		if err := getJSON(*serverURL+"/api/v1/status", &status); err != nil {
			fmt.Fprintf(os.Stderr, "Status failed: %v\n", err)
			os.Exit(1)
		}
	} else {
		cfg, _, logger, components := setup(*configPath, false)
		defer logger.Sync()
		defer components.Close()
		count, err := components.Store.Count(context.Background(), models.Filter{})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Count records failed: %v\n", err)
			os.Exit(1)
		}
		status = statusResponse{
			Records:      count,
			StoreBackend: components.Store.Name(),
			CacheBackend: components.Pools.Name(),
			Config: map[string]interface{}{
				"embedding_provider": cfg.Embedding.Provider,
				"reranker_provider":  cfg.Reranker.Provider,
				"database_path":      cfg.Storage.DatabasePath,
			},
		}
		if components.Store.Name() == "sqlite" {
			if diskBytes, err := storage.DiskUsageBytes(storage.SQLiteFiles(cfg.Storage.DatabasePath)...); err == nil {
				status.DiskUsageBytes = &diskBytes
			}
		}
	}

	switch *outputFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(status); err != nil {
			fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
			os.Exit(1)
		}
	case "text":
		fmt.Printf("records:            %d   # indexed constitution chunks\n", status.Records)
		fmt.Printf("store_backend:      %s\n", status.StoreBackend)
		fmt.Printf("cache_backend:      %s\n", status.CacheBackend)
		if status.DiskUsageBytes != nil {
			fmt.Printf("disk_usage_bytes:   %d\n", *status.DiskUsageBytes)
		}
		if len(status.Config) > 0 {
			fmt.Println()
			fmt.Println("# configuration")
			for _, key := range []string{"embedding_provider", "embedding_dimensions", "reranker_provider", "database_path"} {
				if v, ok := status.Config[key]; ok {
					fmt.Printf("%-19s %v\n", key+":", v)
				}
			}
		}
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format %q; use text or json\n", *outputFormat)
		os.Exit(1)
	}
}

func getJSON(url string, out interface{}) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func runIndex() {
	fs := flag.NewFlagSet("index", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kenpo index [flags] <file-or-directory>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	_, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	ctx := context.Background()
	info, err := os.Stat(path)
	if err != nil {
		fmt.Printf("Failed to stat path: %v\n", err)
		os.Exit(1)
	}
	var stats indexer.Stats
	if info.IsDir() {
		stats, err = components.Indexer.IndexDirectory(ctx, path)
	} else {
		stats, err = components.Indexer.IndexFile(ctx, path)
	}
	if err != nil {
		fmt.Printf("Indexing failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Indexed %d record(s) from %d file(s) (%d skipped, %d replaced)\n",
		stats.Indexed, stats.Files, stats.Skipped, stats.Deleted)
}

func runDelete() {
	fs := flag.NewFlagSet("delete", flag.ExitOnError)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	_ = fs.Parse(os.Args[2:])

	if fs.NArg() < 1 {
		fmt.Println("Usage: kenpo delete [flags] <file>")
		os.Exit(1)
	}
	path := fs.Arg(0)

	_, _, logger, components := setup(*configPath, false)
	defer logger.Sync()
	defer components.Close()

	n, err := components.Indexer.DeleteSource(context.Background(), path)
	if err != nil {
		fmt.Printf("Deletion failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Deleted %d record(s) from %s\n", n, path)
}

func runCountries() {
	fs := flag.NewFlagSet("countries", flag.ExitOnError)
	continent := fs.String("continent", "", "list one continent (e.g. europe, \"North America\")")
	query := fs.String("search", "", "search by code, Korean or English name")
	outputFormat := fs.String("output", "text", "output format: text or json")
	_ = fs.Parse(os.Args[2:])
	format := parseFormat(*outputFormat)

	list, err := listCountries(*continent, *query)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := writeCountries(os.Stdout, list, format); err != nil {
		fmt.Fprintf(os.Stderr, "Output failed: %v\n", err)
		os.Exit(1)
	}
}

func listCountries(continent, query string) ([]country.Country, error) {
	if strings.TrimSpace(query) != "" {
		idx, err := country.NewNameIndex()
		if err != nil {
			return nil, err
		}
		defer idx.Close()
		return idx.Search(query)
	}
	if strings.TrimSpace(continent) != "" {
		list := country.ByContinent(continent)
		if len(list) == 0 {
			return nil, fmt.Errorf("unknown continent: %s", continent)
		}
		return list, nil
	}
	return country.All(), nil
}

func writeCountries(w io.Writer, list []country.Country, format cli.OutputFormat) error {
	if format == cli.OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}
	for _, c := range list {
		fmt.Fprintf(w, "%s  %-24s %-16s %s\n", c.Code, c.NameEn, c.NameKo, c.Continent)
	}
	return nil
}

func printUsage() {
	fmt.Println(`kenpo - Comparative constitution search

Usage:
  kenpo server [flags]             Start the HTTP server
  kenpo search [flags] <query>     Hybrid search over constitution articles
  kenpo compare [flags] <query>    Compare Korean articles with foreign constitutions
  kenpo export [flags] <query>     Run a comparison and save it as xlsx
  kenpo index [flags] <path>       Index a JSONL file or directory
  kenpo delete [flags] <file>      Delete every record ingested from a file
  kenpo status [flags]             Show store/cache status
  kenpo countries [flags]          List or search supported countries
  kenpo version                    Show version
  kenpo help                       Show this help

Server Flags:
  --config string    Config file path (default: /usr/local/etc/kenpo/config.yaml)
  --debug            Enable debug logging

Search Flags:
  --server string            Server URL (default from config). Use --server "" to search the local store.
  --top-k int                Number of results
  --country string           Restrict to one country code
  --exclude-country string   Exclude one country code
  --threshold float          Minimum score (negative disables)
  --min-results int          Results kept even when below the threshold
  --no-rerank                Disable reranking
  --boost                    Boost article number and keyword matches
  --output string            text or json

Compare/Export Flags:
  --server string       Server URL (default from config). Use --server "" to run locally.
  --korean-top-k int    Korean anchor articles (1-10, default 3)
  --foreign-top-k int   Foreign matches per country (1-20, default 5)
  --target string       Compare against one country only
  --page-size int       Page size per country
  --no-summary          Skip the comparison summary
  --no-rerank           Disable reranking
  --output string       text or json (compare only)
  -o string             Output file (export only)

Examples:
  kenpo server
  kenpo search 인간의 존엄
  kenpo search --country DE "human dignity"
  kenpo compare --target US 표현의 자유
  kenpo export -o dignity.xlsx 인간의 존엄
  kenpo index ./data/constitutions
  kenpo countries --continent europe
  kenpo status --output json`)
}
