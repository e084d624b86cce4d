package grpc

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"

	"github.com/Additional-Code/portal/pkg/errorbank"
)

func TestHealthStartsNotServing(t *testing.T) {
	h := NewHealth()
	resp, err := h.Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServicePortal})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestUnaryErrorsMapsKinds(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/test"}
	call := func(err error) error {
		_, got := UnaryErrors(context.Background(), nil, info, func(context.Context, interface{}) (interface{}, error) {
			return nil, err
		})
		return got
	}

	assert.NoError(t, call(nil))
	assert.Equal(t, codes.NotFound, status.Code(call(errorbank.NotFound("missing"))))
	assert.Equal(t, codes.Unavailable, status.Code(call(errorbank.Upstream("down"))))
	assert.Equal(t, codes.Internal, status.Code(call(errors.New("boom"))))
	assert.Equal(t, codes.Aborted, status.Code(call(status.Error(codes.Aborted, "kept"))))
}
