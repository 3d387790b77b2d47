package metrics

import "go.uber.org/fx"

// Module provides the /metrics handler (named "metrics") and the domain collectors.
var Module = fx.Options(
	fx.Provide(fx.Annotate(ProvideMetrics, fx.ResultTags(`name:"metrics"`))),
	fx.Provide(ProvideDomain),
)
