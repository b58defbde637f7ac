//go:build (linux || darwin) && cgo

package driver

/*
#cgo LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

typedef struct AngaraFieldDef {
	const char *name;
	const char *type_string;
	int is_const;
} AngaraFieldDef;

typedef struct AngaraMethodDef {
	const char *name;
	const char *type_string;
	int is_const;
} AngaraMethodDef;

typedef struct AngaraClassDef {
	const char *name;
	const AngaraFieldDef *fields;    // name == NULL terminates
	const AngaraMethodDef *methods;  // name == NULL terminates
} AngaraClassDef;

typedef struct AngaraFuncDef {
	const char *name;
	void *fn;
	const char *type_string;
	const AngaraClassDef *constructs; // NULL if this symbol is not a constructor
} AngaraFuncDef;

typedef const AngaraFuncDef *(*AngaraInitFn)(int *out_count);

static const AngaraFuncDef *angara_call_init(void *sym, int *out_count) {
	AngaraInitFn fn = (AngaraInitFn)sym;
	return fn(out_count);
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"github.com/angara-lang/angarac/internal/nativeabi"
)

// LoadNativeModule dlopen()s the shared library at path, resolves its
// Angara_<module>_Init entry point, invokes it, and converts the returned
// FuncDef array into Go-side nativeabi.FuncDef values.
//
// Native modules expose a plain C ABI, which Go's own `plugin` package
// cannot consume (it only loads Go-compiled plugins), so this is done with
// cgo and libdl directly.
func LoadNativeModule(path string) ([]nativeabi.FuncDef, error) {
	cPath := C.CString(path)
	defer C.free(unsafe.Pointer(cPath))

	handle := C.dlopen(cPath, C.RTLD_NOW)
	if handle == nil {
		return nil, fmt.Errorf("dlopen %s: %s", path, C.GoString(C.dlerror()))
	}

	entry := "Angara_" + moduleBaseName(path) + "_Init"
	cEntry := C.CString(entry)
	defer C.free(unsafe.Pointer(cEntry))

	sym := C.dlsym(handle, cEntry)
	if sym == nil {
		return nil, fmt.Errorf("dlsym %s in %s: %s", entry, path, C.GoString(C.dlerror()))
	}

	var count C.int
	arr := C.angara_call_init(sym, &count)
	if arr == nil || count == 0 {
		return nil, nil
	}

	n := int(count)
	cFuncs := unsafe.Slice(arr, n)
	classCache := map[unsafe.Pointer]*nativeabi.ClassDef{}

	out := make([]nativeabi.FuncDef, 0, n)
	for _, cf := range cFuncs {
		fd := nativeabi.FuncDef{
			Name:       C.GoString(cf.name),
			FnSymbol:   uintptr(cf.fn),
			TypeString: C.GoString(cf.type_string),
		}
		if cf.constructs != nil {
			fd.Constructs = convertClassDef(cf.constructs, classCache)
		}
		out = append(out, fd)
	}
	return out, nil
}

func convertClassDef(c *C.AngaraClassDef, cache map[unsafe.Pointer]*nativeabi.ClassDef) *nativeabi.ClassDef {
	key := unsafe.Pointer(c)
	if cached, ok := cache[key]; ok {
		return cached
	}
	cd := &nativeabi.ClassDef{Name: C.GoString(c.name)}
	cache[key] = cd

	if c.fields != nil {
		for p := c.fields; p.name != nil; p = (*C.AngaraFieldDef)(unsafe.Add(unsafe.Pointer(p), unsafe.Sizeof(*p))) {
			cd.Fields = append(cd.Fields, nativeabi.FieldDef{
				Name:       C.GoString(p.name),
				TypeString: C.GoString(p.type_string),
				IsConst:    p.is_const != 0,
			})
		}
	}
	if c.methods != nil {
		for p := c.methods; p.name != nil; p = (*C.AngaraMethodDef)(unsafe.Add(unsafe.Pointer(p), unsafe.Sizeof(*p))) {
			cd.Methods = append(cd.Methods, nativeabi.MethodDef{
				Name:       C.GoString(p.name),
				TypeString: C.GoString(p.type_string),
				IsConst:    p.is_const != 0,
			})
		}
	}
	return cd
}
