package app

import (
	"os"
	"strconv"
	"sync/atomic"
)

const testModeEnv = "EASYSTOCK_TEST_MODE"

var testMode atomic.Bool

func init() {
	RefreshTestMode()
}

// InTestMode reports whether binaries should return before touching postgres or redis.
func InTestMode() bool {
	return testMode.Load()
}

// RefreshTestMode re-reads EASYSTOCK_TEST_MODE, accepting any strconv.ParseBool form.
func RefreshTestMode() {
	on, _ := strconv.ParseBool(os.Getenv(testModeEnv))
	testMode.Store(on)
}
