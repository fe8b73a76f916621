package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/court-reservation/internal/config"
	"github.com/iliyamo/court-reservation/internal/model"
	"github.com/iliyamo/court-reservation/internal/service"
)

type fakeVenues struct {
	byID map[string]model.Venue
}

func (f *fakeVenues) Create(_ context.Context, v *model.Venue) error {
	f.byID[v.ID] = *v
	return nil
}

func (f *fakeVenues) GetVenue(_ context.Context, id string) (*model.Venue, error) {
	v, ok := f.byID[id]
	if !ok {
		return nil, service.ErrVenueNotFound
	}
	return &v, nil
}

func (f *fakeVenues) List(context.Context) ([]model.Venue, error) {
	out := make([]model.Venue, 0, len(f.byID))
	for _, v := range f.byID {
		out = append(out, v)
	}
	return out, nil
}

func (f *fakeVenues) Update(_ context.Context, v *model.Venue) error {
	cur, ok := f.byID[v.ID]
	if !ok {
		return service.ErrVenueNotFound
	}
	cur.Name, cur.Description, cur.Location, cur.Price = v.Name, v.Description, v.Location, v.Price
	if v.Slots != nil {
		cur.Slots = v.Slots
	}
	f.byID[v.ID] = cur
	return nil
}

func (f *fakeVenues) Delete(_ context.Context, id string) error {
	if _, ok := f.byID[id]; !ok {
		return service.ErrVenueNotFound
	}
	delete(f.byID, id)
	return nil
}

func venueServer(t *testing.T, store VenueStore) *echo.Echo {
	t.Helper()
	defaults, err := service.ParseCatalog(config.DefaultSlots)
	require.NoError(t, err)
	h := NewVenueHandler(store, defaults, nil, "cache", 0)
	e := echo.New()
	e.GET("/v1/venues", h.List)
	e.GET("/v1/venues/:id", h.Get)
	e.POST("/v1/venues", h.Create)
	e.PUT("/v1/venues/:id", h.Update)
	e.DELETE("/v1/venues/:id", h.Delete)
	return e
}

func TestCreateVenueUsesDefaultCatalog(t *testing.T) {
	store := &fakeVenues{byID: map[string]model.Venue{}}
	e := venueServer(t, store)

	rec := do(e, http.MethodPost, "/v1/venues", `{"name":"Cancha 1","description":"Futbol 5","location":"Palermo","price":12000}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var v model.Venue
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.NotEmpty(t, v.ID)
	require.Len(t, v.Slots, 6)
	assert.Equal(t, model.SlotWindow{StartTime: "14:00", EndTime: "15:30"}, v.Slots[0])
	assert.Equal(t, model.SlotWindow{StartTime: "21:30", EndTime: "23:00"}, v.Slots[5])

	rec = do(e, http.MethodGet, "/v1/venues/"+v.ID, "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreateVenueValidation(t *testing.T) {
	e := venueServer(t, &fakeVenues{byID: map[string]model.Venue{}})

	rec := do(e, http.MethodPost, "/v1/venues", `{"name":"Cancha 1"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "description, location, price")

	rec = do(e, http.MethodPost, "/v1/venues",
		`{"name":"C","description":"d","location":"l","price":1,"slots":[{"startTime":"15:00","endTime":"14:00"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "endTime debe ser mayor que startTime")

	rec = do(e, http.MethodPost, "/v1/venues", `{"name":"C","description":"d","location":"l","price":-5}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateAndDeleteVenue(t *testing.T) {
	store := &fakeVenues{byID: map[string]model.Venue{
		"v1": {ID: "v1", Name: "Old", Description: "d", Location: "l", Price: 1,
			Slots: []model.SlotWindow{{StartTime: "14:00", EndTime: "15:30"}}},
	}}
	e := venueServer(t, store)

	rec := do(e, http.MethodPut, "/v1/venues/v1", `{"name":"New","description":"d","location":"l","price":2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "New", store.byID["v1"].Name)
	assert.Len(t, store.byID["v1"].Slots, 1)

	rec = do(e, http.MethodPut, "/v1/venues/v1",
		`{"name":"New","description":"d","location":"l","price":2,"slots":[{"startTime":"10:00","endTime":"11:00"},{"startTime":"11:00","endTime":"12:00"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, store.byID["v1"].Slots, 2)

	assert.Equal(t, http.StatusNotFound,
		do(e, http.MethodPut, "/v1/venues/zz", `{"name":"N","description":"d","location":"l","price":2}`).Code)

	assert.Equal(t, http.StatusNoContent, do(e, http.MethodDelete, "/v1/venues/v1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodGet, "/v1/venues/v1", "").Code)
	assert.Equal(t, http.StatusNotFound, do(e, http.MethodDelete, "/v1/venues/v1", "").Code)
}
