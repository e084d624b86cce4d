package branding

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/portal/internal/backend/backendtest"
	"github.com/Additional-Code/portal/internal/cache"
	"github.com/Additional-Code/portal/internal/entity"
	"github.com/Additional-Code/portal/internal/query"
	"github.com/Additional-Code/portal/internal/session"
	"github.com/Additional-Code/portal/pkg/errorbank"
)

func newService(fake *backendtest.Fake) *Service {
	qc := query.NewCache(cache.NewMemoryStore(8, time.Minute), time.Minute, zap.NewNop())
	return NewService(fake, qc, zap.NewNop())
}

func TestGet(t *testing.T) {
	fake := &backendtest.Fake{Branding: entity.Branding{CompanyName: "Acme", LogoURL: "https://cdn/logo.png"}}
	b, err := newService(fake).Get(context.Background(), session.Session{UserID: "u1", Token: "t"})
	require.NoError(t, err)
	assert.Equal(t, "Acme", b.CompanyName)
}

func TestLetterheadFallsBack(t *testing.T) {
	fake := &backendtest.Fake{BrandingErr: errors.New("boom")}
	svc := newService(fake)

	_, err := svc.Get(context.Background(), session.Session{UserID: "u1"})
	assert.True(t, errorbank.Is(err, errorbank.KindUpstream))
	assert.Equal(t, entity.Branding{}, svc.Letterhead(context.Background(), session.Session{UserID: "u1"}))
}
