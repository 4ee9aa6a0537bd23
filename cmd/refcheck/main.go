package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/refcheck/internal/app"
	"github.com/hyperifyio/refcheck/internal/pdftext"
	"github.com/hyperifyio/refcheck/internal/progress"
	"github.com/hyperifyio/refcheck/internal/segment"
)

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	var (
		inputPath       string
		configPath      string
		outputJSON      string
		outputText      string
		timeout         time.Duration
		delay           time.Duration
		validate        bool
		searchEnable    bool
		searchMax       int
		searchFile      string
		searxURL        string
		searxKey        string
		searxUA         string
		segmentFallback bool
		verbose         bool
	)

	flag.StringVar(&inputPath, "input", "", "Path to document to check (.txt, .md or .pdf)")
	flag.StringVar(&configPath, "config", os.Getenv("REFCHECK_CONFIG"), "Path to YAML config file")
	flag.StringVar(&outputJSON, "output", "", "Path to write the JSON report (default stdout)")
	flag.StringVar(&outputText, "output.text", "", "Path to write a human-readable text report (optional)")
	flag.DurationVar(&timeout, "timeout", 10*time.Second, "Per-request HTTP timeout")
	flag.DurationVar(&delay, "delay", time.Second, "Pause between consecutive HTTP requests")
	flag.BoolVar(&validate, "validate", true, "Fetch extracted URLs and score page content")
	flag.BoolVar(&searchEnable, "search.enable", false, "Search online for references that carry no URL")
	flag.IntVar(&searchMax, "search.max", 5, "Maximum search results scored per reference")
	flag.StringVar(&searchFile, "search.file", os.Getenv("SEARCH_FILE"), "Path to JSON file for offline file-based search provider")
	flag.StringVar(&searxURL, "searx.url", os.Getenv("SEARX_URL"), "SearxNG base URL (default search uses DuckDuckGo)")
	flag.StringVar(&searxKey, "searx.key", os.Getenv("SEARX_KEY"), "SearxNG API key (optional)")
	flag.StringVar(&searxUA, "searx.ua", "", "Custom User-Agent for search requests")
	flag.BoolVar(&segmentFallback, "segment.fallback", false, "Scan the document tail when no references heading is found")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.Parse()

	// Flags the user typed win over the config file; everything else may
	// be filled from it.
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			log.Error().Err(err).Msg("config file")
			os.Exit(1)
		}
		if !set["input"] && fc.Input != "" {
			inputPath = fc.Input
		}
		if !set["output"] && fc.Output.JSON != "" {
			outputJSON = fc.Output.JSON
		}
		if !set["output.text"] && fc.Output.Text != "" {
			outputText = fc.Output.Text
		}
		if !set["timeout"] && fc.Timeout != nil {
			timeout = time.Duration(*fc.Timeout) * time.Second
		}
		if !set["delay"] && fc.Delay != nil {
			delay = time.Duration(*fc.Delay * float64(time.Second))
		}
		if !set["validate"] && fc.Validate != nil {
			validate = *fc.Validate
		}
		if !set["search.enable"] && fc.Search.Enable != nil {
			searchEnable = *fc.Search.Enable
		}
		if !set["search.max"] && fc.Search.Max != nil {
			searchMax = *fc.Search.Max
		}
		if !set["search.file"] && fc.Search.File != "" {
			searchFile = fc.Search.File
		}
		if !set["searx.url"] && fc.Searx.URL != "" {
			searxURL = fc.Searx.URL
		}
		if !set["searx.key"] && fc.Searx.Key != "" {
			searxKey = fc.Searx.Key
		}
		if !set["searx.ua"] && fc.Searx.UserAgent != "" {
			searxUA = fc.Searx.UserAgent
		}
		if !set["segment.fallback"] && fc.Segment.Fallback != nil {
			segmentFallback = *fc.Segment.Fallback
		}
		if !set["v"] && fc.Verbose != nil {
			verbose = *fc.Verbose
		}
	}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	if inputPath == "" {
		fmt.Fprintln(os.Stderr, "refcheck: -input is required")
		flag.Usage()
		os.Exit(1)
	}

	cfg := app.Config{
		Timeout:          timeout,
		Delay:            delay,
		ValidateURLs:     validate,
		EnableSearch:     searchEnable,
		MaxSearchResults: searchMax,
		SearchFile:       searchFile,
		SearxURL:         searxURL,
		SearxKey:         searxKey,
		SearxUA:          searxUA,
		SegmentFallback:  segmentFallback,
		Notify: func(e progress.Event) {
			log.Debug().Int("seq", e.Seq).Str("stage", string(e.Stage)).Msg(e.Message)
		},
	}

	result, err := run(cfg, inputPath, outputJSON, outputText)
	if err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: 2 when the document simply has no checkable
		// bibliography, 1 for input and output failures.
		if errors.Is(err, segment.ErrNotFound) || errors.Is(err, app.ErrNoReferences) {
			os.Exit(2)
		}
		os.Exit(1)
	}
	log.Info().Int("references", len(result.References)).Msg("done")
}

func run(cfg app.Config, inputPath, outputJSON, outputText string) (*app.JobResult, error) {
	text, err := readDocument(inputPath)
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	result, err := app.New(cfg).Run(context.Background(), text)
	if err != nil {
		return nil, err
	}

	if err := writeJSONReport(result, outputJSON); err != nil {
		return nil, fmt.Errorf("write report: %w", err)
	}
	if outputText != "" {
		if err := writeTextReport(result, outputText); err != nil {
			return nil, fmt.Errorf("write text report: %w", err)
		}
	}
	return result, nil
}

// readDocument loads the input file, extracting plain text from PDFs.
func readDocument(path string) (string, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return pdftext.FromFile(path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
