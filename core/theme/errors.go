package theme

import "errors"

var (
	// ErrThemeUnreadable reports a theme directory without a readable
	// theme.json. Fatal at startup for the configured theme.
	ErrThemeUnreadable = errors.New("theme: theme.json unreadable")

	// ErrThemeInvalid reports an unparseable theme.json.
	ErrThemeInvalid = errors.New("theme: theme.json invalid")

	// ErrDefaultLayoutMissing reports a theme without a usable default
	// layout. Every other template gap is recoverable; this one is not.
	ErrDefaultLayoutMissing = errors.New("theme: default layout missing")

	// ErrTemplateMissing reports an unreadable referenced template file.
	ErrTemplateMissing = errors.New("theme: template missing")

	// ErrTemplateInvalid reports a template file that failed to compile.
	ErrTemplateInvalid = errors.New("theme: template invalid")

	// ErrRenderFailed reports a template execution failure at render time.
	ErrRenderFailed = errors.New("theme: render failed")
)
