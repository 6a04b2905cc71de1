// Package module defines the CMS module contract and the registry that
// loads, reloads, and snapshots module generations.
//
// A module registers routes during Init and handles matching requests
// through the dispatch coordinator. The registry keeps each loaded
// generation immutable behind an atomic pointer: configuration reloads
// build a complete new generation and swap it in only when every module
// initialized successfully, so in-flight requests always see a coherent
// set and a broken reload never takes the site down.
//
// Optional interfaces extend the contract: Reloader for modules that
// handle configuration changes in place, Disabler for teardown when a
// module is removed from the configuration, Installer for first-run
// setup, and Prioritized for modules that must win write conflicts on
// shared per-request state.
package module
