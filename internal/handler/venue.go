package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/court-reservation/internal/middleware"
	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/service"
	"github.com/iliyamo/court-reservation/internal/utils"
)

// VenueStore is the venue persistence used by VenueHandler.
type VenueStore interface {
	Create(ctx context.Context, v *model.Venue) error
	GetVenue(ctx context.Context, id string) (*model.Venue, error)
	List(ctx context.Context) ([]model.Venue, error)
	Update(ctx context.Context, v *model.Venue) error
	Delete(ctx context.Context, id string) error
}

// VenueHandler serves /v1/venues.  Writes purge the cached public listing.
type VenueHandler struct {
	Venues       VenueStore
	DefaultSlots service.Catalog
	Cache        *redis.Client
	CachePrefix  string
	Clock        utils.Clock
	Timeout      time.Duration
}

func NewVenueHandler(v VenueStore, defaultSlots service.Catalog, cache *redis.Client, cachePrefix string, timeout time.Duration) *VenueHandler {
	return &VenueHandler{
		Venues:       v,
		DefaultSlots: defaultSlots,
		Cache:        cache,
		CachePrefix:  cachePrefix,
		Clock:        utils.SystemClock{},
		Timeout:      timeout,
	}
}

type venueReq struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Location    string             `json:"location"`
	Price       *float64           `json:"price"`
	Slots       []model.SlotWindow `json:"slots"`
}

func (r *venueReq) validate() error {
	r.Name = strings.TrimSpace(r.Name)
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	var missing []string
	if r.Name == "" {
		missing = append(missing, "name")
	}
	if r.Description == "" {
		missing = append(missing, "description")
	}
	if r.Location == "" {
		missing = append(missing, "location")
	}
	if r.Price == nil {
		missing = append(missing, "price")
	}
	if len(missing) > 0 {
		return errMissing(missing)
	}
	if *r.Price < 0 {
		return errInvalid("price must not be negative")
	}
	if r.Slots != nil {
		return service.Catalog(r.Slots).Validate()
	}
	return nil
}

func (h *VenueHandler) purge(ctx context.Context) {
	if err := middleware.PurgeCache(ctx, h.Cache, h.CachePrefix); err != nil {
		logrus.WithError(err).Warn("venue cache purge failed")
	}
}

// Create adds a venue.  Without a catalog in the body the configured
// default catalog is used.
func (h *VenueHandler) Create(c echo.Context) error {
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := req.validate(); err != nil {
		return writeServiceError(c, err)
	}
	slots := req.Slots
	if len(slots) == 0 {
		slots = append([]model.SlotWindow(nil), h.DefaultSlots...)
	}
	now := h.Clock.Now()
	v := model.Venue{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Price:       *req.Price,
		Slots:       slots,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()
	if err := h.Venues.Create(ctx, &v); err != nil {
		return writeServiceError(c, err)
	}
	h.purge(ctx)
	return c.JSON(http.StatusCreated, v)
}

// List returns every venue with its catalog.
func (h *VenueHandler) List(c echo.Context) error {
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	venues, err := h.Venues.List(ctx)
	if err != nil {
		return writeServiceError(c, err)
	}
	if venues == nil {
		venues = []model.Venue{}
	}
	return c.JSON(http.StatusOK, venues)
}

// Get returns one venue.
func (h *VenueHandler) Get(c echo.Context) error {
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	v, err := h.Venues.GetVenue(ctx, c.Param("id"))
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, v)
}

// Update rewrites the display attributes, and the catalog when one is sent.
func (h *VenueHandler) Update(c echo.Context) error {
	var req venueReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}
	if err := req.validate(); err != nil {
		return writeServiceError(c, err)
	}
	v := model.Venue{
		ID:          c.Param("id"),
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Price:       *req.Price,
		Slots:       req.Slots,
	}

	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()
	if err := h.Venues.Update(ctx, &v); err != nil {
		return writeServiceError(c, err)
	}
	h.purge(ctx)
	updated, err := h.Venues.GetVenue(ctx, v.ID)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete removes the venue.  Its bookings stay behind.
func (h *VenueHandler) Delete(c echo.Context) error {
	ctx, cancel := requestCtx(c, h.Timeout)
	defer cancel()

	if err := h.Venues.Delete(ctx, c.Param("id")); err != nil {
		return writeServiceError(c, err)
	}
	h.purge(ctx)
	return c.NoContent(http.StatusNoContent)
}
