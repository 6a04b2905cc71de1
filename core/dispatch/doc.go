// Package dispatch implements the per-request orchestration of the CMS: the
// coordinator fans out to every enabled module's router concurrently, joins
// on all of them, applies the hot-reload check, and resolves the terminal
// response action (install redirect, 404, 500, raw body, themed render, or
// redirect).
//
// The shared per-request state lives in RequestContext: the matched
// parameters, block and menu accumulators, and the response scalars. Module
// handlers never see the RequestContext or the network; they write through a
// ModuleContext sink bound to their module's name and priority, which makes
// concurrent scalar writes deterministic (higher-priority module wins,
// first write wins among equals) instead of racing on completion order.
//
// The module registry and the theme are read through snapshot accessors:
// one request reads one snapshot for its whole lifetime, and a reload swaps
// the snapshot pointer for subsequent requests.
package dispatch
