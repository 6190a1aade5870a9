package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/xuri/excelize/v2"

	"github.com/hris-tools/sf-apidoc/constants"
	"github.com/hris-tools/sf-apidoc/internal/assemble"
	"github.com/hris-tools/sf-apidoc/internal/common"
	"github.com/hris-tools/sf-apidoc/internal/flatten"
	"github.com/hris-tools/sf-apidoc/internal/jobs"
	"github.com/hris-tools/sf-apidoc/internal/metadata"
	"github.com/hris-tools/sf-apidoc/internal/odata"
	"github.com/hris-tools/sf-apidoc/internal/sfclient"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// Parse CLI flags
	var (
		configPath = flag.String("config", "", "optional YAML config file")
		template   = flag.String("template", "", "template workbook path (overrides config)")
		out        = flag.String("out", "", "output workbook path (overrides config)")
		entities   = flag.String("entities", "", "comma-separated entity sets (overrides config)")
	)
	flag.Parse()

	// Best-effort .env bootstrap before config resolution
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: loading config: %v\n", err)
		os.Exit(1)
	}
	if *template != "" {
		cfg.Files.TemplatePath = *template
	}
	if *out != "" {
		cfg.Files.OutputPath = *out
	}
	if *entities != "" {
		cfg.EntitySets = splitList(*entities)
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *common.Config, logger *slog.Logger) error {
	client := sfclient.New(sfclient.Options{
		Username:    cfg.API.Username,
		Password:    cfg.API.Password,
		BearerToken: cfg.API.BearerToken,
		OAuth:       cfg.OAuth,
		Timeout:     cfg.HTTP.Timeout,
	}, logger)

	// Fail-soft: the fallback tiers cover requests when no token comes back.
	client.Authenticate(ctx)

	entitySets := cfg.EntitySets
	if len(entitySets) == 0 {
		entitySets = constants.DefaultEntitySets
	}

	extractor := metadata.NewExtractor(client, "https://"+cfg.API.Server, logger)
	dict := extractor.BuildDictionary(ctx, entitySets)
	logger.Info("metadata extraction complete", "rows", len(dict.Rows()))

	if cfg.Files.DictionaryPath != "" {
		if err := dict.SaveXLSX(cfg.Files.DictionaryPath); err != nil {
			logger.Warn("dictionary workbook not saved", "path", cfg.Files.DictionaryPath, "error", err)
		} else {
			logger.Info("dictionary workbook saved", "path", cfg.Files.DictionaryPath)
		}
	}

	if _, err := os.Stat(cfg.Files.TemplatePath); err != nil {
		return common.NewAppError("TEMPLATE_ERROR", "template workbook not found: "+cfg.Files.TemplatePath, common.ErrTemplate)
	}
	wb, err := excelize.OpenFile(cfg.Files.TemplatePath)
	if err != nil {
		return common.NewAppError("TEMPLATE_ERROR", "open template workbook", err)
	}
	defer wb.Close()

	jobList := jobs.FromWorkbook(wb, logger)
	runner := jobs.NewRunner(client, cfg.API.TestServer, logger)
	assembler := assemble.NewService(wb, dict, logger)

	processed := 0
	failures := 0
	for _, job := range jobList {
		logger.Info("processing job", "entity", job.Entity, "api_name", job.APIName)

		endpoint, body := runner.Fetch(ctx, job)

		if string(body) != "{}" {
			if err := odata.ValidateEnvelope(body); err != nil {
				logger.Warn("response envelope check failed", "entity", job.Entity, "error", err)
			}
		}

		doc, err := flatten.Parse(body)
		if err != nil {
			logger.Warn("response not decodable, using empty document", "entity", job.Entity, "error", err)
			doc = flatten.EmptyObject()
		}

		if err := assembler.WriteJobSheet(job, endpoint, doc); err != nil {
			logger.Error("job sheet failed", "entity", job.Entity, "error", err)
			failures++
			continue
		}
		processed++
	}

	assembler.Cleanup()

	if err := wb.SaveAs(cfg.Files.OutputPath); err != nil {
		return fmt.Errorf("save output workbook: %w", err)
	}

	logger.Info("documentation generated",
		"jobs_processed", processed,
		"failures", failures,
		"output_file", cfg.Files.OutputPath,
	)

	fmt.Printf("Documentation generated!\n")
	fmt.Printf("- Jobs processed: %d\n", processed)
	fmt.Printf("- Failures: %d\n", failures)
	fmt.Printf("- Output: %s\n", cfg.Files.OutputPath)
	return nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
