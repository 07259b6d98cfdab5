// Tenantgate is per-tenant sliding-window admission control.
//
// Usage:
//
//	# Replay synthetic multi-tenant traffic on a virtual clock
//	tenantgate simulate --workers 5 --requests 200 --tenants 3
//
//	# Serve admission checks over HTTP
//	tenantgate serve --config tenantgate.yaml
//
//	# Show version information
//	tenantgate version
package main

func main() {
	Execute()
}
