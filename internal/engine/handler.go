package engine

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"resource-backend/internal/metadata"
	"resource-backend/internal/store"
)

type Handler struct {
	store    *store.Store
	registry *metadata.Registry
	defaults Defaults
}

func NewHandler(s *store.Store, reg *metadata.Registry, d Defaults) *Handler {
	return &Handler{store: s, registry: reg, defaults: d}
}

// List handles GET /api/:resource
func (h *Handler) List(c *fiber.Ctx) error {
	res, err := h.resolveResource(c)
	if err != nil {
		return err
	}

	// Interpret request parameters; recoverable issues become notifications,
	// never errors.
	var notes []Notification

	page, n := NormalizePage(c.Query("page"))
	notes = append(notes, n...)

	perPage, n := NormalizePerPage(c.Query("per_page"), h.defaults)
	notes = append(notes, n...)

	search, n := NormalizeSearch(c.Query("search"), h.defaults)
	notes = append(notes, n...)

	sortParam, n := NormalizeSort(c.Query("sort"), c.Query("dir"), res, h.defaults)
	notes = append(notes, n...)

	filter, n := NormalizeFilter(rawFilterParams(c), res)
	notes = append(notes, n...)

	plan := &ListPlan{
		Resource: res,
		Filter:   filter,
		Search:   search,
		Sort:     sortParam,
		Page:     page,
		PerPage:  perPage,
	}

	// Count first so out-of-range pages clamp before the slice query runs.
	cr := BuildCountSQL(plan)
	countRow, err := store.QueryRow(c.Context(), h.store.Pool, cr.SQL, cr.Params...)
	if err != nil {
		return fmt.Errorf("count %s: %w", res.Name, err)
	}
	total := toInt(countRow["count"])

	pageInfo, n := Paginate(total, page, perPage, c.Path(), string(c.Request().URI().QueryString()))
	notes = append(notes, n...)
	plan.Page = pageInfo.CurrentPage

	qr := BuildSelectSQL(plan)
	rows, err := store.QueryRows(c.Context(), h.store.Pool, qr.SQL, qr.Params...)
	if err != nil {
		return fmt.Errorf("list %s: %w", res.Name, err)
	}

	meta := ComposeMetadata(res, filter, search, sortParam)
	return c.JSON(NewListEnvelope("Resources retrieved successfully", rows, pageInfo, meta, notes))
}

// Show handles GET /api/:resource/:id
func (h *Handler) Show(c *fiber.Ctx) error {
	res, err := h.resolveResource(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	row, err := fetchRecord(c.Context(), h.store.Pool, res, id)
	if err != nil {
		// An id that cannot be cast to the key type names nothing.
		if errors.Is(err, store.ErrNotFound) || store.IsInvalidInput(err) {
			return NotFoundError(res.Name, id)
		}
		return fmt.Errorf("get %s/%s: %w", res.Name, id, err)
	}

	return c.JSON(SuccessEnvelope("Resource retrieved successfully", row))
}

// Create handles POST /api/:resource
func (h *Handler) Create(c *fiber.Ctx) error {
	res, err := h.resolveResource(c)
	if err != nil {
		return err
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return InvalidParametersError("Invalid JSON body")
	}

	plan, validationErrs := PlanWrite(res, body, nil)
	if len(validationErrs) > 0 {
		return ValidationError(validationErrs)
	}

	record, err := ExecuteWritePlan(c.Context(), h.store, plan)
	if err != nil {
		return h.mapWriteError(err)
	}

	return c.Status(fiber.StatusCreated).JSON(SuccessEnvelope("Resource created successfully", record))
}

// Update handles PUT /api/:resource/:id
func (h *Handler) Update(c *fiber.Ctx) error {
	res, err := h.resolveResource(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	if _, err := fetchRecord(c.Context(), h.store.Pool, res, id); err != nil {
		if errors.Is(err, store.ErrNotFound) || store.IsInvalidInput(err) {
			return NotFoundError(res.Name, id)
		}
		return fmt.Errorf("fetch %s/%s: %w", res.Name, id, err)
	}

	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return InvalidParametersError("Invalid JSON body")
	}

	plan, validationErrs := PlanWrite(res, body, id)
	if len(validationErrs) > 0 {
		return ValidationError(validationErrs)
	}

	record, err := ExecuteWritePlan(c.Context(), h.store, plan)
	if err != nil {
		return h.mapWriteError(err)
	}

	return c.JSON(SuccessEnvelope("Resource updated successfully", record))
}

// Delete handles DELETE /api/:resource/:id. The success shape carries only
// success and message; no data, no metadata.
func (h *Handler) Delete(c *fiber.Ctx) error {
	res, err := h.resolveResource(c)
	if err != nil {
		return err
	}

	id := c.Params("id")
	sql, params := BuildDeleteSQL(res, id)
	affected, err := store.Exec(c.Context(), h.store.Pool, sql, params...)
	if err != nil {
		if store.IsInvalidInput(err) {
			return NotFoundError(res.Name, id)
		}
		return fmt.Errorf("delete %s/%s: %w", res.Name, id, err)
	}
	if affected == 0 {
		return NotFoundError(res.Name, id)
	}

	return c.JSON(DeleteEnvelope("Resource deleted successfully"))
}

func (h *Handler) resolveResource(c *fiber.Ctx) (*metadata.Resource, error) {
	name := c.Params("resource")
	res := h.registry.GetResource(name)
	if res == nil {
		return nil, UnknownResourceError(name)
	}
	return res, nil
}

func (h *Handler) mapWriteError(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	if store.IsUniqueViolation(err) {
		return ConflictError("A record with this value already exists")
	}
	return err
}

// rawFilterParams returns every filter query value in request order, so the
// single-filter policy can keep the last valid one.
func rawFilterParams(c *fiber.Ctx) []string {
	values := c.Context().QueryArgs().PeekMulti("filter")
	raws := make([]string, 0, len(values))
	for _, v := range values {
		raws = append(raws, string(v))
	}
	return raws
}

func toInt(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int32:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}
