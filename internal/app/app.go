// Package app composes the portal's Fx modules into runnable applications.
package app

import (
	"go.uber.org/fx"

	"github.com/Additional-Code/portal/internal/backend"
	"github.com/Additional-Code/portal/internal/cache"
	"github.com/Additional-Code/portal/internal/config"
	"github.com/Additional-Code/portal/internal/database"
	"github.com/Additional-Code/portal/internal/event"
	"github.com/Additional-Code/portal/internal/logger"
	"github.com/Additional-Code/portal/internal/messaging"
	"github.com/Additional-Code/portal/internal/observability"
	"github.com/Additional-Code/portal/internal/query"
	repositoryactivity "github.com/Additional-Code/portal/internal/repository/activity"
	grpcserver "github.com/Additional-Code/portal/internal/server/grpc"
	httpserver "github.com/Additional-Code/portal/internal/server/http"
	serviceactivity "github.com/Additional-Code/portal/internal/service/activity"
	servicebranding "github.com/Additional-Code/portal/internal/service/branding"
	serviceinvoice "github.com/Additional-Code/portal/internal/service/invoice"
	servicesalesorder "github.com/Additional-Code/portal/internal/service/salesorder"
	"github.com/Additional-Code/portal/internal/session"
	transporthttp "github.com/Additional-Code/portal/internal/transport/http"
	"github.com/Additional-Code/portal/internal/worker"
	"github.com/Additional-Code/portal/internal/worker/invalidation"
)

// Infra provides configuration, logging and the stores the portal runs on.
var Infra = fx.Options(
	config.Module,
	logger.Module,
	observability.Module,
	cache.Module,
	query.Module,
	database.Module,
	messaging.Module,
)

// Core provides the foundational modules shared across executables.
var Core = fx.Options(
	Infra,
	backend.Module,
	session.Module,
	event.Module,
	repositoryactivity.Module,
	servicebranding.Module,
	serviceinvoice.Module,
	servicesalesorder.Module,
	serviceactivity.Module,
)

// Worker exposes background invalidation processing.
var Worker = fx.Options(
	Infra,
	worker.Module,
	invalidation.Module,
)

// HTTP wires the HTTP and gRPC health transports on top of the core modules.
// Invalidation events are consumed in-process so each instance's memory
// cache follows mutations made elsewhere.
var HTTP = fx.Options(
	Core,
	httpserver.Module,
	grpcserver.Module,
	transporthttp.Module,
	worker.Module,
	invalidation.Module,
)

// Module is the default application wiring.
var Module = HTTP
