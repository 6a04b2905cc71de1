// Package router implements the per-module route table of the CMS.
//
// Patterns are "<METHOD> <path-template>" strings compiled to anchored,
// case-insensitive regular expressions: ":name" captures one path segment,
// ":name?" makes the segment (and its preceding separator) optional,
// ":name(\d+)" restricts the capture, "*" captures greedily across
// segments, and raw regular expressions can be registered directly for GET.
//
// A Router owns the ordered registrations of exactly one module. During
// dispatch every registration is matched; all matching handlers run, in
// registration order, unless a matching registration declared itself last.
// Matching a universal wildcard does not mark the route as handled, which
// is how catch-all decorator routes coexist with 404 detection.
package router
