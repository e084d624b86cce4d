package app

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
)

func TestGraphsResolve(t *testing.T) {
	require.NoError(t, fx.ValidateApp(HTTP))
	require.NoError(t, fx.ValidateApp(Worker))
}
