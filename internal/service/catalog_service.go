package service

import (
	"context"
	"encoding/json"
	"time"

	"backtest-catalog/config"
	"backtest-catalog/internal/dto"
	"backtest-catalog/internal/metrics"
	"backtest-catalog/internal/model"
	"backtest-catalog/internal/pagination"
	"backtest-catalog/internal/performance"
	"backtest-catalog/internal/repository"
	"backtest-catalog/pkg/logger"
	"backtest-catalog/pkg/utils"
)

// OvershootNote is shown after an empty page was replaced by an earlier one.
const OvershootNote = "Fine elenco. Torno alla pagina precedente."

// CatalogService reads published backtests page by page and turns them into
// renderable cards.
type CatalogService interface {
	// FetchPage returns the published records in [offset, offset+limit) in
	// manifest order, each merged with its performance payload.
	FetchPage(ctx context.Context, limit, offset int) (*dto.CatalogPage, error)
	// RenderPage fetches the page of state, stepping back over empty pages
	// past the first. It returns the view and the corrected state.
	RenderPage(ctx context.Context, state pagination.State) (*dto.PageView, pagination.State, error)
}

type catalogService struct {
	log          *logger.Logger
	manifestRepo repository.ManifestRepository
	detailsRepo  repository.DetailsRepository
	manifest     config.Manifest
	details      config.Details
	layout       pagination.Layout
	title        string
	contactURL   string
	withCount    bool
}

func NewCatalogService(
	cfg *config.Config,
	log *logger.Logger,
	manifestRepo repository.ManifestRepository,
	detailsRepo repository.DetailsRepository,
) CatalogService {
	return &catalogService{
		log:          log,
		manifestRepo: manifestRepo,
		detailsRepo:  detailsRepo,
		manifest:     cfg.Backend.Manifest,
		details:      cfg.Backend.Details,
		layout:       layoutFromConfig(cfg.Catalog),
		title:        cfg.Catalog.Title,
		contactURL:   cfg.Catalog.ContactURL,
		withCount:    cfg.Catalog.WithCount,
	}
}

func (s *catalogService) FetchPage(ctx context.Context, limit, offset int) (*dto.CatalogPage, error) {
	start := time.Now()
	entries, total, err := s.manifestRepo.ListPublished(ctx, limit, offset, s.withCount)
	metrics.RecordBackendRequest(s.manifest.Table, time.Since(start).Seconds(), err)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list published backtests",
			logger.IntField("limit", limit),
			logger.IntField("offset", offset),
			logger.ErrorField(err),
		)
		return nil, err
	}

	page := &dto.CatalogPage{Items: []dto.BacktestRecord{}, Total: total}
	if len(entries) == 0 {
		return page, nil
	}

	codes := uniqueCodes(entries)
	start = time.Now()
	details, err := s.detailsRepo.GetPerformanceByCodes(ctx, codes)
	metrics.RecordBackendRequest(s.details.Table, time.Since(start).Seconds(), err)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get backtest performance",
			logger.IntField("codes", len(codes)),
			logger.ErrorField(err),
		)
		return nil, err
	}

	payloads := make(map[string]json.RawMessage, len(details))
	for _, d := range details {
		if _, seen := payloads[d.Code]; seen {
			continue
		}
		payloads[d.Code] = rawPayload(d)
	}

	page.Items = make([]dto.BacktestRecord, 0, len(entries))
	for _, e := range entries {
		page.Items = append(page.Items, dto.BacktestRecord{
			Code:            e.Code,
			ImageURL:        e.ImageURL,
			ExcelURL:        e.ExcelURL,
			PerformanceJSON: payloads[e.Code],
		})
	}
	return page, nil
}

func (s *catalogService) RenderPage(ctx context.Context, state pagination.State) (*dto.PageView, pagination.State, error) {
	density := s.layout.For(state.Mobile)
	state = pagination.Jump(state, state.Page)

	page, err := s.fetchPageNumber(ctx, state.Page, density)
	if err != nil {
		return nil, state, err
	}

	var note string
	if len(page.Items) == 0 && state.Page > 1 {
		from := state.Page
		var to int
		page, to, err = s.stepBack(ctx, state, density, page.Total)
		if err != nil {
			return nil, state, err
		}
		state.Page = to
		note = OvershootNote
		metrics.RecordOvershootCorrection()
		s.log.InfoContext(ctx, "Page past the end of the catalog, stepping back",
			logger.IntField("from_page", from),
			logger.IntField("to_page", state.Page),
		)
	}

	state.TotalPages = pagination.BestKnownTotalPages(state.Page, len(page.Items), density.PageSize, page.Total)
	state.Page = pagination.Clamp(state.Page, state.TotalPages)

	cards := make([]dto.Card, 0, len(page.Items))
	for _, item := range page.Items {
		cards = append(cards, s.card(ctx, item))
	}

	view := &dto.PageView{
		Title:      s.title,
		Cards:      cards,
		Rows:       gridRows(cards, density.Columns),
		Columns:    density.Columns,
		PageSize:   density.PageSize,
		Page:       state.Page,
		TotalPages: state.TotalPages,
		Total:      page.Total,
		Mobile:     state.Mobile,
		Note:       note,
		HasPrev:    state.Page > 1,
		HasNext:    state.Page < state.TotalPages,
	}

	metrics.RecordPageRender(state.Mobile)
	s.log.DebugContext(ctx, "Rendered catalog page",
		logger.IntField("page", view.Page),
		logger.IntField("total_pages", view.TotalPages),
		logger.IntField("cards", len(cards)),
		logger.BoolField("mobile", view.Mobile),
	)
	return view, state, nil
}

func (s *catalogService) fetchPageNumber(ctx context.Context, page int, density pagination.Density) (*dto.CatalogPage, error) {
	return s.FetchPage(ctx, density.PageSize, pagination.ComputeOffset(page, density.PageSize))
}

// stepBack finds the last non-empty page before the empty page of state.
// The previous page (or the last page of a known total) is tried first, then
// the range is bisected, so a far overshoot costs O(log page) fetches. Page 1
// is returned, possibly empty, when nothing earlier has items.
func (s *catalogService) stepBack(ctx context.Context, state pagination.State, density pagination.Density, total *int64) (*dto.CatalogPage, int, error) {
	// lo has items (0 when none found yet), hi is known to be empty
	lo, hi := 0, state.Page
	var found, last *dto.CatalogPage

	first := true
	for hi-lo > 1 {
		var next int
		switch {
		case first && total != nil:
			next = pagination.Clamp(hi-1, pagination.TotalPages(*total, density.PageSize))
		case first:
			prev, _ := pagination.StepBack(pagination.State{Page: hi})
			next = prev.Page
		default:
			next = lo + (hi-lo)/2
		}
		first = false

		page, err := s.fetchPageNumber(ctx, next, density)
		if err != nil {
			return nil, next, err
		}
		last = page
		if len(page.Items) == 0 {
			hi = next
			continue
		}
		lo, found = next, page
		if page.Total != nil {
			break
		}
	}

	if found == nil {
		return last, 1, nil
	}
	return found, lo, nil
}

func (s *catalogService) card(ctx context.Context, item dto.BacktestRecord) dto.Card {
	summary := performance.Normalize(item.PerformanceJSON)
	if item.PerformanceJSON != nil && !summary.Parsed {
		metrics.RecordMalformedPayload()
		s.log.DebugContext(ctx, "Unreadable performance payload", logger.StringField("code", item.Code))
	}

	return dto.Card{
		Code:         item.Code,
		ImageURL:     utils.Deref(item.ImageURL),
		ExcelURL:     utils.Deref(item.ExcelURL),
		NetProfit:    summary.NetProfit,
		ProfitFactor: summary.ProfitFactor,
		MaxDrawdown:  summary.MaxDrawdown,
		WinRate:      summary.WinRate,
		TradeCount:   summary.TradeCount,
		ContactURL:   s.contactURL,
	}
}

// layoutFromConfig overrides pagination.DefaultLayout with the positive
// values of cfg.
func layoutFromConfig(cfg config.Catalog) pagination.Layout {
	layout := pagination.DefaultLayout
	override := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	override(&layout.Mobile.PageSize, cfg.PageSizeMobile)
	override(&layout.Mobile.Columns, cfg.ColumnsMobile)
	override(&layout.Desktop.PageSize, cfg.PageSizeDesktop)
	override(&layout.Desktop.Columns, cfg.ColumnsDesktop)
	return layout
}

func uniqueCodes(entries []model.ManifestEntry) []string {
	seen := make(map[string]struct{}, len(entries))
	codes := make([]string, 0, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.Code]; ok {
			continue
		}
		seen[e.Code] = struct{}{}
		codes = append(codes, e.Code)
	}
	return codes
}

// rawPayload returns nil for a NULL column so that JSON null never reaches
// the normalizer as a malformed document.
func rawPayload(d model.BacktestDetail) json.RawMessage {
	if d.PerformanceJSON == nil {
		return nil
	}
	raw := json.RawMessage(*d.PerformanceJSON)
	if string(raw) == "null" {
		return nil
	}
	return raw
}

// gridRows splits cards into rows of columns cards. The last row may be short.
func gridRows(cards []dto.Card, columns int) [][]dto.Card {
	if columns < 1 {
		columns = 1
	}
	rows := make([][]dto.Card, 0, (len(cards)+columns-1)/columns)
	for i := 0; i < len(cards); i += columns {
		end := i + columns
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, cards[i:end])
	}
	return rows
}
