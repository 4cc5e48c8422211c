package http

import (
	"errors"
	"net/http"
	"strconv"

	"backtest-catalog/internal/dto"
	"backtest-catalog/internal/model"
	"backtest-catalog/internal/pagination"
	"backtest-catalog/pkg/logger"

	"github.com/labstack/echo/v4"
)

const backendErrorMessage = "Impossibile contattare il catalogo in questo momento. Riprova tra qualche istante."

type errorView struct {
	Title    string
	Message  string
	RetryURL string
}

func (h *HttpAPIHandler) SetupCatalog(base *echo.Group) {
	base.GET("/", h.showCatalog)
	base.POST("/page/prev", h.previousPage)
	base.POST("/page/next", h.nextPage)
}

func (h *HttpAPIHandler) SetupAPI(base *echo.Group) {
	base.GET("/backtests", h.listBacktests)
}

// showCatalog renders the session page. ?mobile=1|0 switches density and
// ?page=N jumps to a page.
func (h *HttpAPIHandler) showCatalog(c echo.Context) error {
	sess := h.sessions.Acquire(c)
	defer h.sessions.Release(sess)

	ctx := logger.NewContext(c.Request().Context(),
		h.log.FromContext(c.Request().Context()).With(logger.StringField("session_id", sess.ID)))

	state := sess.State
	if raw := c.QueryParam("mobile"); raw != "" {
		if mobile, err := strconv.ParseBool(raw); err == nil && mobile != state.Mobile {
			state.Mobile = mobile
			state.TotalPages = 0
		}
	}
	if raw := c.QueryParam("page"); raw != "" {
		if page, err := strconv.Atoi(raw); err == nil {
			state = pagination.Jump(state, page)
		}
	}

	view, state, err := h.service.CatalogService.RenderPage(ctx, state)
	if err != nil {
		return h.renderBackendError(c, err)
	}
	sess.State = state

	return c.Render(http.StatusOK, catalogTemplate, view)
}

func (h *HttpAPIHandler) previousPage(c echo.Context) error {
	sess := h.sessions.Acquire(c)
	sess.State = pagination.Retreat(sess.State)
	h.sessions.Release(sess)
	return c.Redirect(http.StatusSeeOther, "/")
}

func (h *HttpAPIHandler) nextPage(c echo.Context) error {
	sess := h.sessions.Acquire(c)
	sess.State = pagination.Advance(sess.State)
	h.sessions.Release(sess)
	return c.Redirect(http.StatusSeeOther, "/")
}

// listBacktests is the stateless JSON variant of the catalog page.
func (h *HttpAPIHandler) listBacktests(c echo.Context) error {
	ctx := c.Request().Context()

	query := new(dto.CatalogQuery)
	if err := c.Bind(query); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse("invalid query parameters"))
	}
	if err := h.validator.Struct(query); err != nil {
		return c.JSON(http.StatusBadRequest, dto.NewBadRequestResponse(err.Error()))
	}

	state := pagination.NewState(query.Mobile)
	state = pagination.Jump(state, query.Page)

	view, _, err := h.service.CatalogService.RenderPage(ctx, state)
	if err != nil {
		if errors.Is(err, model.ErrBackendUnavailable) {
			return c.JSON(http.StatusBadGateway, dto.NewBadGatewayResponse(backendErrorMessage))
		}
		return c.JSON(http.StatusInternalServerError, dto.NewBaseResponse(http.StatusInternalServerError, "failed to load catalog", nil))
	}

	return c.JSON(http.StatusOK, dto.NewSuccessResponse("success", view))
}

func (h *HttpAPIHandler) renderBackendError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	if errors.Is(err, model.ErrBackendUnavailable) {
		status = http.StatusBadGateway
	}
	return c.Render(status, errorTemplate, errorView{
		Title:    h.cfg.Catalog.Title,
		Message:  backendErrorMessage,
		RetryURL: "/",
	})
}
