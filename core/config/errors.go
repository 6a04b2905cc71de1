package config

import "errors"

var (
	ErrNilConfig       = errors.New("config: nil config pointer")
	ErrParseFailed     = errors.New("config: failed to parse environment")
	ErrSiteUnreadable  = errors.New("config: site configuration unreadable")
	ErrSiteUnparseable = errors.New("config: site configuration unparseable")
	ErrSiteSaveFailed  = errors.New("config: site configuration save failed")
)
