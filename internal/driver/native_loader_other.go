//go:build !((linux || darwin) && cgo)

package driver

import (
	"fmt"

	"github.com/angara-lang/angarac/internal/nativeabi"
)

// LoadNativeModule is unimplemented on platforms without a POSIX dynamic
// loader; native modules are a Non-goal on these platforms.
func LoadNativeModule(path string) ([]nativeabi.FuncDef, error) {
	return nil, fmt.Errorf("native module loading is not supported on this platform: %s", path)
}
