package bundlefx

import (
	"github.com/joeydtaylor/steeze-sinks/pkg/middleware/auth"
	"github.com/joeydtaylor/steeze-sinks/pkg/middleware/logger"
	"github.com/joeydtaylor/steeze-sinks/pkg/middleware/metrics"
	"go.uber.org/fx"
)

// Module provides authentication, access/system logging and metrics.
var Module = fx.Options(
	auth.Module,
	logger.Module,
	metrics.Module,
)
