// Package theme implements the composition layer of the CMS: declarative
// layouts loaded from a theme directory, an eagerly pre-compiled template
// cache, and the per-request assembly of accumulated blocks and menus into
// the final page.
//
// A theme directory contains theme.json describing named layouts, each a
// set of sections bound to template files and either a list of source
// blocks or a menu region. Templates are compiled once at activation and
// cached under "<layout>.<section>" keys; lookups fall back to
// "default.<section>", undeclared layouts fall back to the default layout,
// and only a missing default layout is fatal.
//
// The active theme sits behind an atomic pointer in Registry: reload
// (explicit, or triggered by the fsnotify watcher) builds a whole new
// Theme and swaps the pointer, so in-flight requests keep rendering with
// the snapshot they started with.
package theme
