package activity

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/database"
	"github.com/Additional-Code/portal/internal/entity"
)

func TestNewJournalDisabledDiscards(t *testing.T) {
	j := NewJournal(&database.Connections{}, zap.NewNop())

	require.NoError(t, j.Record(context.Background(), &entity.Activity{Kind: entity.ActivityInvoicePayment}))
	entries, err := j.List(context.Background(), "u1", 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestPrepareAssignsIDAndTime(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 9, 30, 0, 0, time.FixedZone("IST", 5*3600+1800))
	a := &entity.Activity{}
	prepare(a, func() time.Time { return fixed })

	_, err := uuid.Parse(a.ID)
	require.NoError(t, err)
	assert.Equal(t, fixed.UTC(), a.CreatedAt)

	kept := &entity.Activity{ID: "keep", CreatedAt: fixed}
	prepare(kept, time.Now)
	assert.Equal(t, "keep", kept.ID)
	assert.Equal(t, fixed, kept.CreatedAt)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, DefaultLimit, clampLimit(0))
	assert.Equal(t, DefaultLimit, clampLimit(-3))
	assert.Equal(t, 20, clampLimit(20))
	assert.Equal(t, 500, clampLimit(10000))
}
