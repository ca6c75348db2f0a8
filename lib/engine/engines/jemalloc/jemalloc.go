package jemalloc

import (
	"errors"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("jemalloc")

// ErrUnavailable is returned by New when the binary was built without the
// jemalloc build tag or without cgo.
var ErrUnavailable = errors.New("jemalloc: engine not compiled in (build with -tags jemalloc and cgo enabled)")
