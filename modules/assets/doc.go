// Package assets serves uploaded files for the CMS. Assets live behind the
// Backend interface with local-directory and S3 implementations; GET
// /assets/* streams them raw past theme composition, and an admin-gated
// manager handles uploads and deletion.
package assets
