// Package admin implements site administration: the configuration form that
// edits and persists the site settings and module set, the first-run install
// flow that creates the administrator account, and the admin menu decorating
// every page for signed-in admins. Saving configuration triggers a full
// hot reload through the dispatch coordinator.
package admin
