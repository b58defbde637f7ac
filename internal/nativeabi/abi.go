// Package nativeabi implements the Native ABI Decoder: it
// parses the compact type-signature strings exported by native modules into
// canonical semantic types, and assembles a Module from the raw symbol list
// a platform loader reads out of a shared library.
package nativeabi

import (
	"fmt"
	"strings"

	"github.com/angara-lang/angarac/internal/types"
)

// FieldDef mirrors the native ABI's FieldDef: { name, type_string, is_const }
type FieldDef struct {
	Name       string
	TypeString string
	IsConst    bool
}

// MethodDef mirrors the native ABI's MethodDef (same shape as FieldDef).
type MethodDef struct {
	Name       string
	TypeString string
	IsConst    bool
}

// ClassDef mirrors the native ABI's ClassDef: a name plus null-terminated
// field and method lists (already materialized into Go slices by the
// platform loader before reaching this package).
type ClassDef struct {
	Name    string
	Fields  []FieldDef
	Methods []MethodDef
}

// FuncDef mirrors the native ABI's FuncDef. FnSymbol is an
// opaque handle the platform loader resolved (a *C.void in the real
// dlsym-backed loader); the decoder never calls it, only the backend's
// generated C code does, at runtime, via the (argc, argv) prototype emitted
// for this symbol.
type FuncDef struct {
	Name       string
	FnSymbol   uintptr
	TypeString string
	Constructs *ClassDef // non-nil if this function constructs instances of Constructs
}

// Decode runs one pass that collects class declarations (from Constructs)
// first, then decodes each function and method signature in the context of
// those classes. It
// returns the assembled Module plus, for every class introduced by a
// constructor, the *types.Class so the driver can also export it under the
// class's own name.
func Decode(moduleName string, funcs []FuncDef, builtins *types.Builtins) (*types.Module, map[string]*types.Class, error) {
	mod := types.NewModule(moduleName)
	mod.IsNative = true
	classes := map[string]*types.Class{}

	// Pass A: collect class declarations from `constructs`, decoding each
	// class's field list in the context of classes declared before it.
	for _, fd := range funcs {
		if fd.Constructs == nil {
			continue
		}
		cd := fd.Constructs
		if _, exists := classes[cd.Name]; exists {
			continue
		}
		cls := types.NewClass(cd.Name)
		cls.IsNative = true
		for _, f := range cd.Fields {
			ft, err := decodeValue(f.TypeString, classes, builtins)
			if err != nil {
				return nil, nil, fmt.Errorf("class %s field %s: %w", cd.Name, f.Name, err)
			}
			cls.Fields[f.Name] = &types.Member{Type: ft, Access: types.AccessPublic, Const: f.IsConst}
		}
		for _, m := range cd.Methods {
			mt, err := decodeSignature(m.TypeString, classes, builtins)
			if err != nil {
				return nil, nil, fmt.Errorf("class %s method %s: %w", cd.Name, m.Name, err)
			}
			fnt, ok := mt.(*types.Function)
			if !ok {
				return nil, nil, fmt.Errorf("class %s method %s: signature %q is not function-shaped", cd.Name, m.Name, m.TypeString)
			}
			cls.Methods[m.Name] = &types.Member{Type: fnt, Access: types.AccessPublic, Const: m.IsConst}
		}
		classes[cd.Name] = cls
	}

	// Pass B: decode each function/method signature in the context of the
	// classes collected above; every native symbol becomes a Module export.
	for _, fd := range funcs {
		t, err := decodeSignature(fd.TypeString, classes, builtins)
		if err != nil {
			return nil, nil, fmt.Errorf("symbol %s: %w", fd.Name, err)
		}
		mod.Exports[fd.Name] = t
		if fd.Constructs != nil {
			if cls, ok := classes[fd.Constructs.Name]; ok {
				mod.Exports[cls.Name] = cls
			}
		}
	}

	return mod, classes, nil
}

// decodeSignature parses `sig := optional ('->' optional)?`, returning a
// *types.Function when an arrow is present (this is a callable symbol) or
// the bare value type otherwise; a signature without '->' describes a
// value type, used for fields.
func decodeSignature(sig string, classes map[string]*types.Class, b *types.Builtins) (types.Type, error) {
	sig = strings.TrimSpace(sig)
	params, variadic, rest, hasArrow := splitParams(sig)
	if !hasArrow {
		return decodeValue(sig, classes, b)
	}
	var paramTypes []types.Type
	for _, p := range params {
		t, err := decodeValue(p, classes, b)
		if err != nil {
			return nil, err
		}
		paramTypes = append(paramTypes, t)
	}
	ret, err := decodeValue(rest, classes, b)
	if err != nil {
		return nil, err
	}
	return types.NewFunction(paramTypes, ret, variadic), nil
}

// splitParams extracts a leading comma-joined parameter list (themselves
// `optional` grammar productions) up to the first top-level '->'. A bare
// value signature (no '->') has hasArrow=false.
//
// Because `optional` productions may themselves contain nested `l<...>`
// brackets, this is a one-pass bracket-aware scan rather than a naive
// strings.Split, since otherwise `l<i>,l<d>->b` would split inside `l<i`.
func splitParams(sig string) (params []string, variadic bool, ret string, hasArrow bool) {
	depth := 0
	start := 0
	var fields []string
	for i := 0; i < len(sig); i++ {
		switch sig[i] {
		case '<':
			depth++
		case '>':
			depth--
		case ',':
			if depth == 0 {
				fields = append(fields, sig[start:i])
				start = i + 1
			}
		case '-':
			if depth == 0 && i+1 < len(sig) && sig[i+1] == '>' {
				last := sig[start:i]
				if strings.TrimSpace(last) != "" {
					fields = append(fields, last)
				}
				ret = sig[i+2:]
				hasArrow = true
				goto done
			}
		}
	}
done:
	if !hasArrow {
		return nil, false, "", false
	}
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "..." {
			variadic = true
			continue
		}
		params = append(params, f)
	}
	return params, variadic, strings.TrimSpace(ret), true
}

// decodeValue parses `optional := base '?'?`.
func decodeValue(s string, classes map[string]*types.Class, b *types.Builtins) (types.Type, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return b.Nil, nil
	}
	optional := strings.HasSuffix(s, "?")
	if optional {
		s = s[:len(s)-1]
	}
	base, err := decodeBase(s, classes, b)
	if err != nil {
		return nil, err
	}
	if optional {
		return types.NewOptional(base), nil
	}
	return base, nil
}

// decodeBase parses `base := prim | name | 'l<' optional '>' | '{}'`.
func decodeBase(s string, classes map[string]*types.Class, b *types.Builtins) (types.Type, error) {
	switch s {
	case "i":
		return b.I64, nil
	case "d":
		return b.F64, nil
	case "s":
		return b.String, nil
	case "b":
		return b.Bool, nil
	case "a":
		return b.Any, nil
	case "n":
		return b.Nil, nil
	case "{}":
		return types.NewRecord(nil), nil
	}
	if strings.HasPrefix(s, "l<") && strings.HasSuffix(s, ">") {
		inner, err := decodeValue(s[2:len(s)-1], classes, b)
		if err != nil {
			return nil, err
		}
		return types.NewList(inner), nil
	}
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		if cls, ok := classes[s]; ok {
			return types.NewInstance(cls), nil
		}
		return nil, fmt.Errorf("unknown native class %q (must be declared earlier in this module)", s)
	}
	return nil, fmt.Errorf("malformed type signature element %q", s)
}
