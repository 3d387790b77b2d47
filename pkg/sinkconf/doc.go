// Package sinkconf is the configuration model for telemetry event sinks.
//
// Every sink type is a variant: a struct embedding Base plus its own
// Options and Credentials groups, implementing Configuration. Variants are
// created through a Registry keyed by SinkType, edited in place through
// their exported fields, checked with Validate and turned into a plain
// Record with Export. Export is the only way to obtain a Record and it
// always re-runs validation.
package sinkconf
