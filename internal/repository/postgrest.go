package repository

import (
	"context"
	"fmt"
	"net/http"
	"path"
	"strconv"
	"strings"

	"backtest-catalog/config"
	"backtest-catalog/internal/model"
	"backtest-catalog/pkg/httpclient"
	"backtest-catalog/pkg/logger"
	"backtest-catalog/pkg/utils"
)

const maxErrorBody = 256

type postgrestManifestRepository struct {
	httpClient httpclient.HTTPClient
	log        *logger.Logger
	restPath   string
	manifest   config.Manifest
}

func NewPostgrestManifestRepository(client httpclient.HTTPClient, log *logger.Logger, restPath string, manifest config.Manifest) *postgrestManifestRepository {
	return &postgrestManifestRepository{
		httpClient: client,
		log:        log,
		restPath:   restPath,
		manifest:   manifest,
	}
}

// ListPublished sends
//
//	GET /rest/v1/<table>?select=code:<col>,...&<published>=eq.true&order=<col>.desc&limit=N&offset=M
//
// and reads the exact total from Content-Range when withCount is set.
func (r *postgrestManifestRepository) ListPublished(ctx context.Context, limit, offset int, withCount bool) ([]model.ManifestEntry, *int64, error) {
	m := r.manifest
	direction := "asc"
	if m.OrderDesc {
		direction = "desc"
	}

	params := map[string]string{
		"select": strings.Join([]string{
			selectColumn("code", m.CodeColumn),
			selectColumn("image_url", m.ImageColumn),
			selectColumn("excel_url", m.ExcelColumn),
		}, ","),
		m.PublishedColumn: "eq.true",
		"order":           fmt.Sprintf("%s.%s", m.OrderColumn, direction),
		"limit":           strconv.Itoa(limit),
		"offset":          strconv.Itoa(offset),
	}
	var headers map[string]string
	if withCount {
		headers = map[string]string{"Prefer": "count=exact"}
	}

	var rows []model.ManifestEntry
	resp, err := r.httpClient.Get(ctx, tablePath(r.restPath, m.Table), params, headers, &rows)
	if err != nil {
		return nil, nil, model.NewConnectivityError("list published manifest", m.Table, resp.StatusCode, err)
	}

	switch resp.StatusCode {
	case http.StatusOK, http.StatusPartialContent:
	case http.StatusRequestedRangeNotSatisfiable:
		// offset past the end on older PostgREST versions
		rows = nil
	default:
		r.log.WarnContext(ctx, "Return NON-200 response",
			logger.StringField("collection", m.Table),
			logger.IntField("status_code", resp.StatusCode),
		)
		return nil, nil, model.NewConnectivityError("list published manifest", m.Table, resp.StatusCode, errorBody(resp.Body))
	}

	var total *int64
	if withCount {
		total = parseContentRangeTotal(resp.Headers.Get("Content-Range"))
	}
	return rows, total, nil
}

type postgrestDetailsRepository struct {
	httpClient httpclient.HTTPClient
	log        *logger.Logger
	restPath   string
	details    config.Details
}

func NewPostgrestDetailsRepository(client httpclient.HTTPClient, log *logger.Logger, restPath string, details config.Details) *postgrestDetailsRepository {
	return &postgrestDetailsRepository{
		httpClient: client,
		log:        log,
		restPath:   restPath,
		details:    details,
	}
}

// GetPerformanceByCodes sends GET /rest/v1/<table>?select=...&<code>=in.("A","B").
func (r *postgrestDetailsRepository) GetPerformanceByCodes(ctx context.Context, codes []string) ([]model.BacktestDetail, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	d := r.details

	params := map[string]string{
		"select": strings.Join([]string{
			selectColumn("code", d.CodeColumn),
			selectColumn("performance_json", d.PerformanceColumn),
		}, ","),
		d.CodeColumn: inFilter(codes),
	}

	var rows []model.BacktestDetail
	resp, err := r.httpClient.Get(ctx, tablePath(r.restPath, d.Table), params, nil, &rows)
	if err != nil {
		return nil, model.NewConnectivityError("get performance by codes", d.Table, resp.StatusCode, err)
	}
	if resp.StatusCode != http.StatusOK {
		r.log.WarnContext(ctx, "Return NON-200 response",
			logger.StringField("collection", d.Table),
			logger.IntField("status_code", resp.StatusCode),
		)
		return nil, model.NewConnectivityError("get performance by codes", d.Table, resp.StatusCode, errorBody(resp.Body))
	}
	return rows, nil
}

func tablePath(restPath, table string) string {
	return path.Join("/", restPath, table)
}

// selectColumn renames column to alias unless they already match.
func selectColumn(alias, column string) string {
	if alias == column {
		return column
	}
	return alias + ":" + column
}

// inFilter builds in.("A","B") with every value double quoted, escaping
// backslashes and quotes.
func inFilter(values []string) string {
	quoted := make([]string, len(values))
	replacer := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	for i, v := range values {
		quoted[i] = `"` + replacer.Replace(v) + `"`
	}
	return "in.(" + strings.Join(quoted, ",") + ")"
}

// parseContentRangeTotal reads the total from "0-11/57" or "*/0". An unknown
// total ("0-11/*") or a malformed header gives nil.
func parseContentRangeTotal(header string) *int64 {
	i := strings.LastIndexByte(header, '/')
	if i < 0 {
		return nil
	}
	total, err := strconv.ParseInt(strings.TrimSpace(header[i+1:]), 10, 64)
	if err != nil || total < 0 {
		return nil
	}
	return utils.ToPointer(total)
}

func errorBody(body []byte) error {
	s := strings.TrimSpace(string(body))
	if len(s) > maxErrorBody {
		s = s[:maxErrorBody]
	}
	if s == "" {
		return model.ErrBackendUnavailable
	}
	return fmt.Errorf("%w: %s", model.ErrBackendUnavailable, s)
}
