package i18n

import "errors"

// ErrBadOption wraps any option failure during Catalog construction.
var ErrBadOption = errors.New("i18n: invalid option")
