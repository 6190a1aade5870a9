// Package jobs reads the master job list from the template workbook and runs
// one query per job.
package jobs

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hris-tools/sf-apidoc/constants"
	"github.com/hris-tools/sf-apidoc/internal/sfclient"
)

// Job is one row of the master job list that survived filtering.
type Job struct {
	RowIndex     int // 1-based row in the master sheet, for sample write-back
	Entity       string
	APIName      string
	Introduction string
	Endpoint     string // unresolved template string
	Trigger      string
	DataFlow     string
}

// FromWorkbook reads the master job list, keeping rows where the system
// column is the target platform, the category column is the API-resource
// marker, and both entity and endpoint are non-empty. A missing or unreadable
// master sheet is a warning and yields no jobs.
func FromWorkbook(f *excelize.File, logger *slog.Logger) []Job {
	if logger == nil {
		logger = slog.Default()
	}

	rows, err := f.GetRows(constants.MasterListSheet)
	if err != nil {
		logger.Warn("jobs.master_list_unavailable", "sheet", constants.MasterListSheet, "error", err)
		return nil
	}

	var out []Job
	for i, row := range rows {
		if i == 0 { // header
			continue
		}
		if cell(row, constants.MasterColSystem) != constants.SystemFilter {
			continue
		}
		if cell(row, constants.MasterColCategory) != constants.CategoryFilter {
			continue
		}
		entity := cell(row, constants.MasterColEntity)
		endpoint := cell(row, constants.MasterColEndpoint)
		if entity == "" || endpoint == "" {
			continue
		}
		out = append(out, Job{
			RowIndex:     i + 1,
			Entity:       entity,
			APIName:      cell(row, constants.MasterColAPIName),
			Introduction: cell(row, constants.MasterColIntroduction),
			Endpoint:     endpoint,
			Trigger:      cell(row, constants.MasterColTrigger),
			DataFlow:     cell(row, constants.MasterColDataFlow),
		})
	}

	logger.Info("jobs.loaded", "count", len(out))
	return out
}

func cell(row []string, idx int) string {
	if idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// ResolveEndpoint substitutes the server and date placeholders in an endpoint
// template.
func ResolveEndpoint(template, server string, now time.Time) string {
	resolved := strings.ReplaceAll(template, constants.PlaceholderServerBraced, server)
	resolved = strings.ReplaceAll(resolved, constants.PlaceholderServer, server)
	return strings.ReplaceAll(resolved, constants.PlaceholderToday, now.Format("2006-01-02"))
}

// Runner executes query jobs through the authenticated client.
type Runner struct {
	client     *sfclient.Client
	testServer string
	logger     *slog.Logger
	now        func() time.Time
}

func NewRunner(client *sfclient.Client, testServer string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{client: client, testServer: testServer, logger: logger, now: time.Now}
}

// Fetch resolves the job's endpoint and issues the query. Any failure —
// transport error or non-2xx status — degrades to an empty JSON object so
// the job still produces a documentation sheet.
func (r *Runner) Fetch(ctx context.Context, job Job) (endpoint string, body []byte) {
	endpoint = ResolveEndpoint(job.Endpoint, r.testServer, r.now())

	raw, status, err := r.client.Get(ctx, endpoint)
	if err != nil {
		r.logger.Warn("jobs.query_failed", "entity", job.Entity, "error", err)
		return endpoint, []byte("{}")
	}
	if status/100 != 2 {
		r.logger.Warn("jobs.query_failed", "entity", job.Entity, "status", status)
		return endpoint, []byte("{}")
	}
	if status == http.StatusNoContent || len(raw) == 0 {
		return endpoint, []byte("{}")
	}
	return endpoint, raw
}
