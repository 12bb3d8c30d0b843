// Package health probes upstream HTTP endpoints and rolls the results up
// into a single status.
//
// A Checker reports one component's Status: Healthy, Degraded or Unhealthy.
// EndpointChecker adapts any request function (typically a client.Client
// call) into a Checker that classifies the outcome:
//
//   - success within the slow threshold is Healthy
//   - success above the slow threshold, or a 4xx status, is Degraded
//   - a 5xx status or a transport failure is Unhealthy
//
// Aggregator runs registered checkers concurrently under one deadline:
//
//	agg := health.NewAggregator(health.AggregatorConfig{Timeout: 5 * time.Second})
//	agg.Register("api", health.NewEndpointChecker(url, probe))
//	reports := agg.CheckAll(ctx)
//	if health.Overall(reports) == health.StatusUnhealthy {
//		// page someone
//	}
package health
