/*
Package ratelimit groups the admission control primitives of tenantgate.

The window subpackage implements a per-tenant sliding-window log: every
tenant may make at most MaxRequests requests in any window of the
configured length, and tenants never affect each other's quota.

	limiter, err := window.NewSafe(10*time.Second, 10, 100)
	if err != nil {
		return err
	}
	decision, err := limiter.Allow("acme")
	if err == nil && decision == window.Allowed {
		// Process request
	}

Limiters are safe for concurrent use. Checks for different tenants
proceed in parallel; checks for the same tenant are serialized so that
eviction and admission happen as one step.
*/
package ratelimit
