package api

import (
	"errors"

	"Heatmap/internal/domain/models"
	drepo "Heatmap/internal/domain/repository"
	"Heatmap/internal/repository"
	"Heatmap/internal/service/finnhub"
	"Heatmap/internal/usecase"
	xhttp "Heatmap/pkg/http"
	xlogger "Heatmap/pkg/logger"

	"github.com/labstack/echo/v4"
)

const maxSearchResults = 20

// MarketHandler exposes the quote-orchestration endpoints over Echo.
type MarketHandler struct {
	logger   *xlogger.Logger
	quotes   *usecase.QuoteService
	keyStore drepo.KeyStore
}

func NewMarketHandler(logger *xlogger.Logger, quotes *usecase.QuoteService, keyStore drepo.KeyStore) *MarketHandler {
	return &MarketHandler{logger: logger, quotes: quotes, keyStore: keyStore}
}

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/quotes", h.Quotes)
	g.POST("/quotes", h.Quotes)
	g.GET("/market-status", h.MarketStatus)
	g.GET("/search", h.Search)
	g.GET("/config", h.Config)
	g.PUT("/config", h.UpdateConfig)
}

// Quotes serves the orchestrated batch. GET asks for every registered
// symbol; POST may name a subset.
func (h *MarketHandler) Quotes(c echo.Context) error {
	req := &models.QuotesRequest{}
	if c.Request().Method == echo.POST {
		if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
			return xhttp.BadRequestResponse(c, verr)
		}
	}

	res, err := h.quotes.GetQuotes(c.Request().Context(), req.Symbols)
	if err != nil {
		h.logger.Error("quotes usecase error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MarketHandler) MarketStatus(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.quotes.GetMarketStatus())
}

func (h *MarketHandler) Search(c echo.Context) error {
	req := &models.SearchRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	results, err := h.quotes.SearchSymbols(c.Request().Context(), req.Query, req.Exchange)
	if err != nil {
		h.logger.Error("search error", xlogger.String("query", req.Query), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, providerAppError(err))
	}
	if len(results) > maxSearchResults {
		results = results[:maxSearchResults]
	}
	return xhttp.SuccessResponse(c, results)
}

func (h *MarketHandler) Config(c echo.Context) error {
	key, updatedAt, err := h.keyStore.StoredKey(c.Request().Context())
	if err != nil {
		h.logger.Error("key store read error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	view := models.ConfigView{HasKey: key != "", Masked: repository.MaskKey(key)}
	if updatedAt > 0 {
		view.UpdatedAt = &updatedAt
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *MarketHandler) UpdateConfig(c echo.Context) error {
	req := &models.ConfigUpdateRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if err := h.keyStore.SetKey(c.Request().Context(), req.FinnhubAPIKey); err != nil {
		h.logger.Error("key store write error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	view := models.ConfigView{HasKey: req.FinnhubAPIKey != "", Masked: repository.MaskKey(req.FinnhubAPIKey)}
	return xhttp.SuccessResponse(c, view)
}

// providerAppError maps a classified provider failure onto an HTTP status.
func providerAppError(err error) error {
	var fe *finnhub.Error
	if !errors.As(err, &fe) {
		return err
	}
	switch fe.Code {
	case finnhub.CodeNoAPIKey:
		return xhttp.BadRequestError(fe.Message).WithError(fe)
	case finnhub.CodeInvalidKey:
		return xhttp.UnauthorizedError(fe.Message).WithError(fe)
	case finnhub.CodeRateLimit:
		return xhttp.TooManyRequestsError(fe.Message).WithError(fe)
	default:
		return xhttp.BadGatewayError(fe.Message).WithError(fe)
	}
}
