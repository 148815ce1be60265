package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/kabuka/internal/app"
	"github.com/ternarybob/kabuka/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	configFiles  configPaths
	eventsMode   = flag.String("mode", "", "Retrieval mode: cache_only, cache_first or always_refresh (overrides config)")
	serveHTTP    = flag.Bool("serve", false, "Start the HTTP API instead of printing results")
	codesText    = flag.String("text", "", "Free text (e.g. OCR output) to scan for codes; \"-\" reads standard input")
	serverPort   = flag.Int("port", 0, "Server port (overrides config)")
	serverHost   = flag.String("host", "", "Server host (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: kabuka [flags] CODE...\n       kabuka -text - [flags] < ocr.txt\n       kabuka -serve [flags]\n\n")
		flag.PrintDefaults()
	}
}

func main() {
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("kabuka version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup order: .env -> config files -> env overrides -> CLI flags -> logger
	if err := common.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	if len(configFiles) == 0 {
		if _, err := os.Stat("kabuka.toml"); err == nil {
			configFiles = append(configFiles, "kabuka.toml")
		} else if _, err := os.Stat("deployments/local/kabuka.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/kabuka.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *serverPort, *serverHost, strings.TrimSpace(*eventsMode))

	if err := config.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	common.InstallCrashHandler(config.Logging.Dir)
	logger := common.SetupLogger(config)

	codes := flag.Args()
	if !*serveHTTP && len(codes) == 0 && *codesText == "" {
		flag.Usage()
		os.Exit(2)
	}

	if *serveHTTP {
		common.PrintBanner(config, logger)
	}

	logger.Debug().
		Strs("config_files", configFiles).
		Str("storage_type", config.Storage.Type).
		Str("default_mode", config.Events.DefaultMode).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	if *serveHTTP {
		runServe(application)
		return
	}

	text, err := readCodesText(*codesText, os.Stdin)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read text input")
		application.Close()
		os.Exit(1)
	}

	if err := runLookup(application, codes, text, *eventsMode, os.Stdout); err != nil {
		logger.Error().Err(err).Msg("Lookup failed")
		application.Close()
		os.Exit(1)
	}
}
