package driver

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/google/uuid"
)

// BuildLogName is the build log the link stage leaves in the cwd on failure
const BuildLogName = "angara_build.log"

// link performs the final link: spawn the configured C
// compiler over every generated .c file, the runtime source, with the
// collected native-library directories/names, threading and math libs, and
// an rpath to the native-module install directory.
//
// The in-flight log gets a uuid-suffixed name before it is moved to its
// documented name, so concurrent builds in the same directory never
// clobber each other.
func (d *Driver) link(outputPath string) (string, error) {
	args := []string{"-o", outputPath}
	for _, g := range d.generated {
		args = append(args, g.SourcePath)
	}
	args = append(args, filepath.Join(d.Cfg.RuntimeDir, "angara_runtime.c"))
	args = append(args, "-I.", "-I"+d.Cfg.RuntimeDir)

	for dir := range d.nativeDirs {
		args = append(args, "-L"+dir)
	}
	seen := map[string]bool{}
	for _, lib := range d.nativeLibs {
		if seen[lib] {
			continue
		}
		seen[lib] = true
		args = append(args, "-l"+lib)
	}

	args = append(args, "-pthread", "-lm")
	if runtime.GOOS != "windows" {
		args = append(args, "-Wl,-rpath,"+d.Cfg.NativeModuleDir)
	}

	cc := d.Cfg.CC
	if cc == "" {
		cc = "gcc"
	}

	cmd := exec.Command(cc, args...)
	out, err := cmd.CombinedOutput()

	tmpLog := ".angarac-tmp-" + uuid.NewString() + ".log"
	if werr := os.WriteFile(tmpLog, out, 0o644); werr == nil {
		_ = os.Rename(tmpLog, BuildLogName)
	}

	if err != nil {
		return fmt.Sprintf("%s %s\n%s", cc, strings.Join(args, " "), string(out)), err
	}
	os.Remove(BuildLogName)
	return "", nil
}
