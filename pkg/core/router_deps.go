package core

import (
	"net/http"

	"github.com/joeydtaylor/steeze-sinks/pkg/admin"
	"github.com/joeydtaylor/steeze-sinks/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-sinks/pkg/middleware/logger"
	httpx "github.com/joeydtaylor/steeze-sinks/pkg/transport/httpx"
	"go.uber.org/zap"
)

type BuildDeps struct {
	Auth    *auth.Middleware
	LogMW   *logger.Middleware
	Metrics http.Handler
	Router  httpx.Router
	Service *admin.Service
	Logger  *zap.Logger
}
