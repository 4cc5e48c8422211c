package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"backtest-catalog/config"
	"backtest-catalog/internal/metrics"
	"backtest-catalog/internal/model"
	"backtest-catalog/internal/pagination"
	"backtest-catalog/internal/performance"
	"backtest-catalog/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	promdto "github.com/prometheus/client_model/go"
)

type fakeManifestRepo struct {
	rows    []model.ManifestEntry
	err     error
	offsets []int
}

func (f *fakeManifestRepo) ListPublished(ctx context.Context, limit, offset int, withCount bool) ([]model.ManifestEntry, *int64, error) {
	f.offsets = append(f.offsets, offset)
	if f.err != nil {
		return nil, nil, f.err
	}
	var total *int64
	if withCount {
		n := int64(len(f.rows))
		total = &n
	}
	if offset >= len(f.rows) {
		return []model.ManifestEntry{}, total, nil
	}
	end := offset + limit
	if end > len(f.rows) {
		end = len(f.rows)
	}
	return f.rows[offset:end], total, nil
}

type fakeDetailsRepo struct {
	rows  []model.BacktestDetail
	err   error
	calls [][]string
}

func (f *fakeDetailsRepo) GetPerformanceByCodes(ctx context.Context, codes []string) ([]model.BacktestDetail, error) {
	f.calls = append(f.calls, codes)
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[string]bool, len(codes))
	for _, c := range codes {
		wanted[c] = true
	}
	var out []model.BacktestDetail
	for _, r := range f.rows {
		if wanted[r.Code] {
			out = append(out, r)
		}
	}
	return out, nil
}

func testConfig(withCount bool) *config.Config {
	return &config.Config{
		Backend: config.Backend{
			Manifest: config.Manifest{Table: "backtests"},
			Details:  config.Details{Table: "backtest_details"},
		},
		Catalog: config.Catalog{
			Title:           "Catalogo",
			PageSizeMobile:  6,
			PageSizeDesktop: 12,
			ColumnsMobile:   1,
			ColumnsDesktop:  3,
			ContactURL:      "https://example.com/contact",
			WithCount:       withCount,
		},
	}
}

func entry(code string) model.ManifestEntry {
	return model.ManifestEntry{Code: code}
}

func entries(n int) []model.ManifestEntry {
	rows := make([]model.ManifestEntry, n)
	for i := range rows {
		rows[i] = entry(fmt.Sprintf("BT%02d", i+1))
	}
	return rows
}

func detail(code, payload string) model.BacktestDetail {
	if payload == "" {
		return model.BacktestDetail{Code: code}
	}
	js := datatypes.JSON(payload)
	return model.BacktestDetail{Code: code, PerformanceJSON: &js}
}

func newTestService(withCount bool, manifest *fakeManifestRepo, details *fakeDetailsRepo) CatalogService {
	return NewCatalogService(testConfig(withCount), logger.NewNop(), manifest, details)
}

func TestFetchPage_MergesInManifestOrder(t *testing.T) {
	img := "https://img/b.png"
	manifest := &fakeManifestRepo{rows: []model.ManifestEntry{
		{Code: "B", ImageURL: &img},
		entry("A"),
		entry("C"),
	}}
	details := &fakeDetailsRepo{rows: []model.BacktestDetail{
		detail("A", `{"returns":{"net_profit_eur":100}}`),
		detail("B", `{"trades":{"count":3}}`),
	}}

	page, err := newTestService(true, manifest, details).FetchPage(context.Background(), 12, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	assert.Equal(t, "B", page.Items[0].Code)
	assert.Equal(t, &img, page.Items[0].ImageURL)
	assert.JSONEq(t, `{"trades":{"count":3}}`, string(page.Items[0].PerformanceJSON))
	assert.Equal(t, "A", page.Items[1].Code)
	assert.JSONEq(t, `{"returns":{"net_profit_eur":100}}`, string(page.Items[1].PerformanceJSON))
	assert.Equal(t, "C", page.Items[2].Code)
	assert.Nil(t, page.Items[2].PerformanceJSON)

	require.NotNil(t, page.Total)
	assert.Equal(t, int64(3), *page.Total)
	assert.Equal(t, [][]string{{"B", "A", "C"}}, details.calls)
}

func TestFetchPage_EmptyManifestSkipsDetails(t *testing.T) {
	manifest := &fakeManifestRepo{}
	details := &fakeDetailsRepo{}

	page, err := newTestService(false, manifest, details).FetchPage(context.Background(), 6, 0)
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.NotNil(t, page.Items)
	assert.Nil(t, page.Total)
	assert.Empty(t, details.calls)
}

func TestFetchPage_DuplicateCodes(t *testing.T) {
	manifest := &fakeManifestRepo{rows: []model.ManifestEntry{entry("A"), entry("A"), entry("B")}}
	details := &fakeDetailsRepo{rows: []model.BacktestDetail{
		detail("A", `{"count":1}`),
		detail("A", `{"count":2}`),
		detail("B", "null"),
	}}

	page, err := newTestService(false, manifest, details).FetchPage(context.Background(), 12, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	assert.Equal(t, [][]string{{"A", "B"}}, details.calls)
	assert.JSONEq(t, `{"count":1}`, string(page.Items[0].PerformanceJSON))
	assert.JSONEq(t, `{"count":1}`, string(page.Items[1].PerformanceJSON))
	assert.Nil(t, page.Items[2].PerformanceJSON)
}

func TestFetchPage_BackendErrors(t *testing.T) {
	connErr := model.NewConnectivityError("list", "backtests", 503, errors.New("down"))

	tests := []struct {
		name     string
		manifest *fakeManifestRepo
		details  *fakeDetailsRepo
	}{
		{
			name:     "manifest",
			manifest: &fakeManifestRepo{err: connErr},
			details:  &fakeDetailsRepo{},
		},
		{
			name:     "details",
			manifest: &fakeManifestRepo{rows: entries(2)},
			details:  &fakeDetailsRepo{err: connErr},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := newTestService(true, tt.manifest, tt.details).FetchPage(context.Background(), 6, 0)
			require.Error(t, err)
			assert.Nil(t, page)
			assert.True(t, errors.Is(err, model.ErrBackendUnavailable))
		})
	}
}

func TestRenderPage_NormalizesCards(t *testing.T) {
	xls := "https://xls/a.xlsx"
	manifest := &fakeManifestRepo{rows: []model.ManifestEntry{{Code: "A", ExcelURL: &xls}, entry("B")}}
	details := &fakeDetailsRepo{rows: []model.BacktestDetail{
		detail("A", `{"returns":{"net_profit_eur":100}}`),
	}}

	view, state, err := newTestService(true, manifest, details).RenderPage(context.Background(), pagination.NewState(false))
	require.NoError(t, err)
	require.Len(t, view.Cards, 2)

	a := view.Cards[0]
	assert.Equal(t, "A", a.Code)
	assert.Equal(t, "100,00", a.NetProfit)
	assert.Equal(t, performance.NoData, a.ProfitFactor)
	assert.Equal(t, performance.NoData, a.MaxDrawdown)
	assert.Equal(t, performance.NoData, a.WinRate)
	assert.Equal(t, performance.NoData, a.TradeCount)
	assert.True(t, a.HasExcel())
	assert.False(t, a.HasImage())
	assert.Equal(t, "https://example.com/contact", a.ContactURL)

	b := view.Cards[1]
	assert.Equal(t, "B", b.Code)
	for _, v := range []string{b.NetProfit, b.ProfitFactor, b.MaxDrawdown, b.WinRate, b.TradeCount} {
		assert.Equal(t, performance.NoData, v)
	}
	assert.False(t, b.HasExcel())

	assert.Equal(t, 1, view.Page)
	assert.Equal(t, 1, view.TotalPages)
	assert.Equal(t, 3, view.Columns)
	assert.False(t, view.HasPrev)
	assert.False(t, view.HasNext)
	assert.Empty(t, view.Note)
	assert.Equal(t, pagination.State{Page: 1, TotalPages: 1}, state)
}

func TestRenderPage_OvershootWithoutCount(t *testing.T) {
	manifest := &fakeManifestRepo{rows: entries(7)}
	svc := newTestService(false, manifest, &fakeDetailsRepo{})

	view, state, err := svc.RenderPage(context.Background(), pagination.State{Page: 3, Mobile: true})
	require.NoError(t, err)

	assert.Equal(t, []int{12, 6}, manifest.offsets)
	assert.Equal(t, OvershootNote, view.Note)
	assert.Equal(t, 2, view.Page)
	require.Len(t, view.Cards, 1)
	assert.Equal(t, "BT07", view.Cards[0].Code)
	assert.Equal(t, pagination.State{Page: 2, TotalPages: 2, Mobile: true}, state)
	assert.True(t, view.HasPrev)
	assert.False(t, view.HasNext)
}

func TestRenderPage_OvershootWithCountJumpsToLastPage(t *testing.T) {
	manifest := &fakeManifestRepo{rows: entries(14)}
	svc := newTestService(true, manifest, &fakeDetailsRepo{})

	view, state, err := svc.RenderPage(context.Background(), pagination.State{Page: 9})
	require.NoError(t, err)

	assert.Equal(t, []int{96, 12}, manifest.offsets)
	assert.Equal(t, OvershootNote, view.Note)
	assert.Equal(t, 2, state.Page)
	assert.Equal(t, 2, state.TotalPages)
	assert.Len(t, view.Cards, 2)
}

func TestRenderPage_FarOvershootBisects(t *testing.T) {
	manifest := &fakeManifestRepo{rows: entries(7)}
	svc := newTestService(false, manifest, &fakeDetailsRepo{})

	state := pagination.Jump(pagination.NewState(true), math.MaxInt64)
	view, state, err := svc.RenderPage(context.Background(), state)
	require.NoError(t, err)

	for _, offset := range manifest.offsets {
		assert.GreaterOrEqual(t, offset, 0)
	}
	assert.LessOrEqual(t, len(manifest.offsets), 25)
	assert.Equal(t, OvershootNote, view.Note)
	assert.Equal(t, 2, state.Page)
	require.Len(t, view.Cards, 1)
	assert.Equal(t, "BT07", view.Cards[0].Code)
}

func TestLayoutFromConfig(t *testing.T) {
	assert.Equal(t, pagination.DefaultLayout, layoutFromConfig(config.Catalog{}))

	layout := layoutFromConfig(config.Catalog{PageSizeMobile: 4, ColumnsDesktop: 4})
	assert.Equal(t, pagination.Density{PageSize: 4, Columns: 1}, layout.Mobile)
	assert.Equal(t, pagination.Density{PageSize: 12, Columns: 4}, layout.Desktop)
}

func TestRenderPage_EmptyCatalog(t *testing.T) {
	manifest := &fakeManifestRepo{}
	view, state, err := newTestService(true, manifest, &fakeDetailsRepo{}).RenderPage(context.Background(), pagination.State{Page: 1})
	require.NoError(t, err)

	assert.Empty(t, view.Cards)
	assert.Empty(t, view.Note)
	assert.Equal(t, 1, state.Page)
	assert.Equal(t, 1, state.TotalPages)
	assert.Equal(t, []int{0}, manifest.offsets)
}

func TestRenderPage_OptimisticNextPage(t *testing.T) {
	manifest := &fakeManifestRepo{rows: entries(13)}
	view, state, err := newTestService(false, manifest, &fakeDetailsRepo{}).RenderPage(context.Background(), pagination.NewState(false))
	require.NoError(t, err)

	assert.Len(t, view.Cards, 12)
	assert.Equal(t, 2, state.TotalPages)
	assert.True(t, view.HasNext)

	require.Len(t, view.Rows, 4)
	for _, row := range view.Rows {
		assert.Len(t, row, 3)
	}
}

func TestRenderPage_ConnectivityError(t *testing.T) {
	manifest := &fakeManifestRepo{err: model.NewConnectivityError("list", "backtests", 0, errors.New("dial tcp"))}
	view, state, err := newTestService(true, manifest, &fakeDetailsRepo{}).RenderPage(context.Background(), pagination.State{Page: 4})
	require.Error(t, err)
	assert.Nil(t, view)
	assert.True(t, errors.Is(err, model.ErrBackendUnavailable))
	assert.Equal(t, 4, state.Page)
}

func TestRenderPage_MalformedPayloadIsSilent(t *testing.T) {
	manifest := &fakeManifestRepo{rows: []model.ManifestEntry{entry("A"), entry("B")}}
	details := &fakeDetailsRepo{rows: []model.BacktestDetail{
		detail("A", `"not json"`),
		detail("B", `[1,2,3]`),
	}}

	before := malformedCount(t)
	view, _, err := newTestService(false, manifest, details).RenderPage(context.Background(), pagination.NewState(true))
	require.NoError(t, err)
	require.Len(t, view.Cards, 2)
	for _, c := range view.Cards {
		assert.Equal(t, performance.NoData, c.NetProfit)
	}
	assert.Equal(t, before+2, malformedCount(t))
}

func TestGridRows(t *testing.T) {
	svc := newTestService(false, &fakeManifestRepo{rows: entries(7)}, &fakeDetailsRepo{})
	view, _, err := svc.RenderPage(context.Background(), pagination.NewState(false))
	require.NoError(t, err)

	lengths := make([]int, len(view.Rows))
	for i, row := range view.Rows {
		lengths[i] = len(row)
	}
	assert.Equal(t, []int{3, 3, 1}, lengths)
	assert.Empty(t, gridRows(nil, 3))
}

func malformedCount(t *testing.T) float64 {
	t.Helper()
	m := &promdto.Metric{}
	require.NoError(t, metrics.MalformedPayloadsTotal.Write(m))
	return m.GetCounter().GetValue()
}
