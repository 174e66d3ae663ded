package api

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/zeebo/xxh3"
	"golang.org/x/sync/singleflight"

	"meatdash/internal/engine"
	"meatdash/internal/export"
	"meatdash/internal/models"
	"meatdash/internal/render"
)

type Handler struct {
	base       atomic.Pointer[engine.Relation]
	generation atomic.Uint64
	flight     singleflight.Group
	logger     *log.Logger
}

// NewHandler creates a handler. A nil store means the dataset is still
// loading; routes answer 503 until SetData is called.
func NewHandler(store *engine.Store, logger *log.Logger) *Handler {
	if logger == nil {
		logger = log.New("api")
		logger.SetOutput(io.Discard)
	}
	h := &Handler{logger: logger}
	if store != nil {
		h.SetData(store)
	}
	return h
}

// SetData publishes the loaded dataset.
func (h *Handler) SetData(store *engine.Store) {
	rel := store.All()
	h.generation.Add(1)
	h.base.Store(&rel)
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/health", h.GetHealth)
	api.GET("/intro", h.GetIntro)
	api.GET("/facets", h.GetFacets)
	api.GET("/plan", h.GetPlan)
	api.GET("/charts/distribution", h.GetDistribution)
	api.GET("/charts/heatmap", h.GetHeatmap)
	api.GET("/charts/grouped", h.GetGrouped)
	api.GET("/charts/distribution.png", h.GetDistributionPNG)
	api.GET("/charts/grouped.png", h.GetGroupedPNG)
	api.GET("/export/records.arrow", h.GetRecordsArrow)
}

// --- HELPERS ---

var errLoading = echo.NewHTTPError(http.StatusServiceUnavailable, "dataset is loading")

func (h *Handler) relation() (engine.Relation, error) {
	rel := h.base.Load()
	if rel == nil {
		return engine.Relation{}, errLoading
	}
	return *rel, nil
}

func (h *Handler) interaction(c echo.Context) (interaction, error) {
	in, err := parseInteraction(c.QueryParams())
	if err != nil {
		return in, echo.NewHTTPError(http.StatusBadRequest, err.Error()).SetInternal(err)
	}
	return in, nil
}

// plan computes the render plan of the request. Identical concurrent
// requests share one computation; the result must not be modified.
func (h *Handler) plan(c echo.Context) (*models.RenderPlan, string, error) {
	base, err := h.relation()
	if err != nil {
		return nil, "", err
	}
	in, err := h.interaction(c)
	if err != nil {
		return nil, "", err
	}

	key := fmt.Sprintf("%d|%s", h.generation.Load(), in.key())
	etag := fmt.Sprintf(`"%016x"`, xxh3.HashString(key))
	v, err, _ := h.flight.Do(etag, func() (interface{}, error) {
		start := time.Now()
		plan, err := engine.HandleInteraction(base, in.sel, in.groupBy)
		if err != nil {
			return nil, err
		}
		observePlan(plan, time.Since(start))
		h.logger.Debugf("plan %s: rows=%d took=%v", key, plan.Rows, time.Since(start))
		return plan, nil
	})
	if err != nil {
		return nil, "", err
	}
	return v.(*models.RenderPlan), etag, nil
}

// chartPlan is plan() for chart routes: an incomplete selection is answered
// with the prompt and no chart.
func (h *Handler) chartPlan(c echo.Context) (*models.RenderPlan, bool, error) {
	plan, _, err := h.plan(c)
	if err != nil {
		return nil, false, err
	}
	if plan.Incomplete != nil {
		return plan, false, c.JSON(http.StatusUnprocessableEntity, plan.Incomplete)
	}
	return plan, true, nil
}

func getPaginationParams(c echo.Context, defaultLimit int) (int, int) {
	limit, err := strconv.Atoi(c.QueryParam("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	offset, err := strconv.Atoi(c.QueryParam("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

// etagMatch reports whether an If-None-Match header names etag. The header is
// a comma-separated list or "*"; comparison is weak, so W/ prefixes are ignored.
func etagMatch(header, etag string) bool {
	for _, tag := range strings.Split(header, ",") {
		tag = strings.TrimSpace(tag)
		if tag == "*" || strings.TrimPrefix(tag, "W/") == etag {
			return true
		}
	}
	return false
}

// --- HANDLERS ---

func (h *Handler) GetHealth(c echo.Context) error {
	rel := h.base.Load()
	if rel == nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]interface{}{"status": "loading", "rows": 0})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"status": "ok", "rows": rel.Len()})
}

func (h *Handler) GetIntro(c echo.Context) error {
	base, err := h.relation()
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]string{"text": engine.Introduction(base)})
}

// GetFacets returns the choices offered for each facet under the current
// selection, without aggregating.
func (h *Handler) GetFacets(c echo.Context) error {
	base, err := h.relation()
	if err != nil {
		return err
	}
	in, err := h.interaction(c)
	if err != nil {
		return err
	}

	_, opts, err := engine.Cascade(base, in.sel)
	resp := struct {
		Mode       string              `json:"mode"`
		Options    models.FacetOptions `json:"options"`
		Incomplete *models.Prompt      `json:"incomplete,omitempty"`
	}{Mode: in.sel.Mode.String(), Options: opts}

	var incomplete *engine.IncompleteSelectionError
	if errors.As(err, &incomplete) {
		resp.Incomplete = &models.Prompt{Facet: incomplete.Facet.String(), Message: incomplete.Facet.Prompt()}
	} else if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetPlan(c echo.Context) error {
	plan, etag, err := h.plan(c)
	if err != nil {
		return err
	}
	c.Response().Header().Set("ETag", etag)
	if etagMatch(c.Request().Header.Get("If-None-Match"), etag) {
		return c.NoContent(http.StatusNotModified)
	}
	return c.JSON(http.StatusOK, plan)
}

func (h *Handler) GetDistribution(c echo.Context) error {
	plan, ok, err := h.chartPlan(c)
	if !ok || err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan.Distribution)
}

func (h *Handler) GetHeatmap(c echo.Context) error {
	plan, ok, err := h.chartPlan(c)
	if !ok || err != nil {
		return err
	}
	return c.JSON(http.StatusOK, plan.Heatmap)
}

// GetGrouped returns the grouped bar rows, paginated with limit/offset.
func (h *Handler) GetGrouped(c echo.Context) error {
	plan, ok, err := h.chartPlan(c)
	if !ok || err != nil {
		return err
	}

	rows := plan.Grouped.Rows
	total := len(rows)
	limit, offset := getPaginationParams(c, total)
	page := *plan.Grouped
	if offset >= total {
		page.Rows = []models.GroupedRow{}
	} else {
		page.Rows = rows[offset:min(offset+limit, total)]
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   page,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

func (h *Handler) GetDistributionPNG(c echo.Context) error {
	plan, ok, err := h.chartPlan(c)
	if !ok || err != nil {
		return err
	}
	var buf bytes.Buffer
	return h.png(c, &buf, render.DistributionPNG(&buf, plan.Distribution))
}

// GetGroupedPNG renders one animation frame; year defaults to the first.
func (h *Handler) GetGroupedPNG(c echo.Context) error {
	plan, ok, err := h.chartPlan(c)
	if !ok || err != nil {
		return err
	}
	year, hasYear, err := intParam(c.QueryParams(), "year")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !hasYear {
		if len(plan.Grouped.Years) == 0 {
			return c.NoContent(http.StatusNoContent)
		}
		year = plan.Grouped.Years[0]
	}
	var buf bytes.Buffer
	return h.png(c, &buf, render.GroupedFramePNG(&buf, plan.Grouped, year))
}

func (h *Handler) png(c echo.Context, buf *bytes.Buffer, renderErr error) error {
	if errors.Is(renderErr, render.ErrNothingToRender) {
		return c.NoContent(http.StatusNoContent)
	}
	if renderErr != nil {
		h.logger.Errorf("render chart: %v", renderErr)
		return renderErr
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

// GetRecordsArrow streams the filtered relation as Arrow IPC.
func (h *Handler) GetRecordsArrow(c echo.Context) error {
	base, err := h.relation()
	if err != nil {
		return err
	}
	in, err := h.interaction(c)
	if err != nil {
		return err
	}

	rel, err := engine.Apply(base, in.sel)
	var incomplete *engine.IncompleteSelectionError
	if errors.As(err, &incomplete) {
		return c.JSON(http.StatusUnprocessableEntity, &models.Prompt{Facet: incomplete.Facet.String(), Message: incomplete.Facet.Prompt()})
	} else if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := export.WriteRelation(&buf, rel); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, export.MIMEArrowStream, buf.Bytes())
}
