/*
Package observability provides tools for monitoring the palette engine.

It turns lifecycle hooks into Prometheus metrics and structured log lines. Both are
plain domain.LifecycleHooks values, so hosts combine them with their own hooks
through palette.WithLifecycleHooks.
*/
package observability
