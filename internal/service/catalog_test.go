package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/court-reservation/internal/model"
)

func TestParseCatalog(t *testing.T) {
	c, err := ParseCatalog("14:00-15:30, 15:30-17:00,17:00-18:30,18:30-20:00,20:00-21:30,21:30-23:00")
	require.NoError(t, err)
	assert.Equal(t, Catalog(sixWindows), c)
	assert.Equal(t, "14:00-15:30,15:30-17:00,17:00-18:30,18:30-20:00,20:00-21:30,21:30-23:00", c.String())

	for _, bad := range []string{"", "14:00", "14:00-13:00", "14:00-15:30,14:00-16:00", "25:00-26:00", "9:00-10:00"} {
		_, err := ParseCatalog(bad)
		assert.ErrorIs(t, err, ErrValidation, bad)
	}
}

func TestCatalog_Require(t *testing.T) {
	c := Catalog(sixWindows)

	w, err := c.Require("18:30", "20:00")
	require.NoError(t, err)
	assert.Equal(t, model.SlotWindow{StartTime: "18:30", EndTime: "20:00"}, w)

	_, err = c.Require("18:30", "19:30")
	var mismatch *CatalogMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, "18:30", mismatch.StartTime)
	assert.Len(t, mismatch.Valid, 6)
	assert.Contains(t, Message(err), "horarios válidos: 14:00-15:30, 15:30-17:00")
}

func TestCatalog_Free(t *testing.T) {
	c := Catalog(sixWindows)
	occupied := []model.Booking{
		{StartTime: "14:00", EndTime: "15:30"},
		{StartTime: "21:30", EndTime: "23:00"},
		{StartTime: "09:00", EndTime: "10:00"},
	}

	free := c.Free(occupied)
	assert.Equal(t, []model.FreeSlot{
		{ID: 1, StartTime: "15:30", EndTime: "17:00"},
		{ID: 2, StartTime: "17:00", EndTime: "18:30"},
		{ID: 3, StartTime: "18:30", EndTime: "20:00"},
		{ID: 4, StartTime: "20:00", EndTime: "21:30"},
	}, free)

	assert.Len(t, c.Free(nil), 6)
	assert.Empty(t, Catalog(sixWindows[:1]).Free(occupied))
}
