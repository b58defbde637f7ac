// Package types holds the canonical representations of every semantic type
// and the structural predicates used throughout the checker and backend.
//
// Built-in types are created once per checker instance and shared by
// reference; user-defined types are created as placeholders in Pass 1 of
// the checker and filled in during Pass 2, so every holder of the pointer
// observes the later mutations.
//
// Function equality is implemented via canonical-string comparison; the
// canonical string is memoized on first computation to avoid quadratic
// rescans during contract and trait validation.
package types

import "strings"

// Kind identifies which variant of the semantic type sum a Type is.
type Kind int

const (
	KindPrimitive Kind = iota
	KindNil
	KindAny
	KindOptional
	KindList
	KindRecord
	KindFunction
	KindClass
	KindInstance
	KindTrait
	KindContract
	KindData
	KindEnum
	KindThread
	KindMutex
	KindException
	KindCPtr
	KindModule
	KindError
)

// Type is the common interface implemented by every semantic type variant.
type Type interface {
	Kind() Kind
	String() string
}

// ---------------------------------------------------------------------------
// Primitive

type PrimitiveName string

const (
	I8   PrimitiveName = "i8"
	I16  PrimitiveName = "i16"
	I32  PrimitiveName = "i32"
	I64  PrimitiveName = "i64"
	U8   PrimitiveName = "u8"
	U16  PrimitiveName = "u16"
	U32  PrimitiveName = "u32"
	U64  PrimitiveName = "u64"
	F32  PrimitiveName = "f32"
	F64  PrimitiveName = "f64"
	Bool PrimitiveName = "bool"
	Str  PrimitiveName = "string"
)

type Primitive struct{ Name PrimitiveName }

func (*Primitive) Kind() Kind       { return KindPrimitive }
func (p *Primitive) String() string { return string(p.Name) }

// Shared singletons for built-ins; constructed once per checker instance via
// NewBuiltins and handed out by reference everywhere.
type Builtins struct {
	I8, I16, I32, I64 *Primitive
	U8, U16, U32, U64 *Primitive
	F32, F64          *Primitive
	Bool              *Primitive
	String            *Primitive
	Nil               *Nil
	Any               *Any
	Thread            *Thread
	Mutex             *Mutex
	Exception         *Exception
	CPtr              *CPtr
	Error             *Error
}

func NewBuiltins() *Builtins {
	return &Builtins{
		I8: &Primitive{I8}, I16: &Primitive{I16}, I32: &Primitive{I32}, I64: &Primitive{I64},
		U8: &Primitive{U8}, U16: &Primitive{U16}, U32: &Primitive{U32}, U64: &Primitive{U64},
		F32: &Primitive{F32}, F64: &Primitive{F64},
		Bool:      &Primitive{Bool},
		String:    &Primitive{Str},
		Nil:       &Nil{},
		Any:       &Any{},
		Thread:    &Thread{},
		Mutex:     &Mutex{},
		Exception: &Exception{},
		CPtr:      &CPtr{},
		Error:     &Error{},
	}
}

func (b *Builtins) ByName(name string) (Type, bool) {
	switch PrimitiveName(name) {
	case I8:
		return b.I8, true
	case I16:
		return b.I16, true
	case I32:
		return b.I32, true
	case I64:
		return b.I64, true
	case U8:
		return b.U8, true
	case U16:
		return b.U16, true
	case U32:
		return b.U32, true
	case U64:
		return b.U64, true
	case F32:
		return b.F32, true
	case F64:
		return b.F64, true
	case Bool:
		return b.Bool, true
	case Str:
		return b.String, true
	}
	switch name {
	case "nil":
		return b.Nil, true
	case "any":
		return b.Any, true
	case "Thread":
		return b.Thread, true
	case "Mutex":
		return b.Mutex, true
	case "Exception":
		return b.Exception, true
	case "cptr":
		return b.CPtr, true
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Nil, Any, Thread, Mutex, Exception, CPtr, Error: zero-field sentinels.

type Nil struct{}

func (*Nil) Kind() Kind     { return KindNil }
func (*Nil) String() string { return "nil" }

type Any struct{}

func (*Any) Kind() Kind     { return KindAny }
func (*Any) String() string { return "any" }

type Thread struct{}

func (*Thread) Kind() Kind     { return KindThread }
func (*Thread) String() string { return "Thread" }

type Mutex struct{}

func (*Mutex) Kind() Kind     { return KindMutex }
func (*Mutex) String() string { return "Mutex" }

type Exception struct{}

func (*Exception) Kind() Kind     { return KindException }
func (*Exception) String() string { return "Exception" }

type CPtr struct{}

func (*CPtr) Kind() Kind     { return KindCPtr }
func (*CPtr) String() string { return "cptr" }

// Error is the sentinel type used to suppress diagnostic cascades: once an
// expression fails to type, it's typed Error and further checks involving
// it are silently accepted.
type Error struct{}

func (*Error) Kind() Kind     { return KindError }
func (*Error) String() string { return "<error>" }

// ---------------------------------------------------------------------------
// Optional

// Optional never wraps another Optional; NewOptional
// normalizes this by returning the inner type unchanged if it is already
// Optional, and collapses Optional(Any) to Any.
type Optional struct{ Elem Type }

func NewOptional(inner Type) Type {
	if o, ok := inner.(*Optional); ok {
		return o
	}
	if _, ok := inner.(*Any); ok {
		return inner
	}
	return &Optional{Elem: inner}
}

func (*Optional) Kind() Kind       { return KindOptional }
func (o *Optional) String() string { return o.Elem.String() + "?" }

// Unwrap returns the inner type of an Optional, or the type itself if it is
// not Optional (so callers can unconditionally unwrap one layer).
func Unwrap(t Type) Type {
	if o, ok := t.(*Optional); ok {
		return o.Elem
	}
	return t
}

// ---------------------------------------------------------------------------
// List

type List struct{ Elem Type }

func NewList(elem Type) *List { return &List{Elem: elem} }

func (*List) Kind() Kind       { return KindList }
func (l *List) String() string { return "list<" + l.Elem.String() + ">" }

// ---------------------------------------------------------------------------
// Record is a structural map of field name -> type. An empty Fields map is
// the structural "any record", assignable-from by any typed record.
type Record struct{ Fields map[string]Type }

func NewRecord(fields map[string]Type) *Record { return &Record{Fields: fields} }

func (*Record) Kind() Kind { return KindRecord }
func (r *Record) String() string {
	if len(r.Fields) == 0 {
		return "{}"
	}
	names := make([]string, 0, len(r.Fields))
	for n := range r.Fields {
		names = append(names, n)
	}
	sortStrings(names)
	var sb strings.Builder
	sb.WriteString("{")
	for i, n := range names {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(n)
		sb.WriteString(" as ")
		sb.WriteString(r.Fields[n].String())
	}
	sb.WriteString("}")
	return sb.String()
}

func sortStrings(ss []string) {
	for i := 1; i < len(ss); i++ {
		for j := i; j > 0 && ss[j-1] > ss[j]; j-- {
			ss[j-1], ss[j] = ss[j], ss[j-1]
		}
	}
}

// ---------------------------------------------------------------------------
// Function

type Function struct {
	Params   []Type
	Return   Type
	Variadic bool

	canonical string // memoized by String()
}

func NewFunction(params []Type, ret Type, variadic bool) *Function {
	return &Function{Params: params, Return: ret, Variadic: variadic}
}

func (*Function) Kind() Kind { return KindFunction }

func (f *Function) String() string {
	if f.canonical != "" {
		return f.canonical
	}
	var sb strings.Builder
	sb.WriteString("(")
	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(p.String())
	}
	if f.Variadic {
		if len(f.Params) > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("...")
	}
	sb.WriteString(") -> ")
	if f.Return == nil {
		sb.WriteString("nil")
	} else {
		sb.WriteString(f.Return.String())
	}
	f.canonical = sb.String()
	return f.canonical
}

// Equals implements structural Function equality: arity, variadic flag,
// each parameter's canonical form, and return.
func (f *Function) Equals(other *Function) bool {
	return f.String() == other.String()
}

// ---------------------------------------------------------------------------
// Class / Instance

type Member struct {
	Type   Type
	Access MemberAccess
	Const  bool
}

type MemberAccess int

const (
	AccessPublic MemberAccess = iota
	AccessPrivate
)

// Class is a user-defined class type, first registered as an empty
// placeholder in checker Pass 1 and filled in during Pass 2.
type Class struct {
	Name     string
	Super    *Class // nil if no superclass
	Fields   map[string]*Member
	Methods  map[string]*Member // Member.Type is always *Function
	IsNative bool
}

func NewClass(name string) *Class {
	return &Class{Name: name, Fields: map[string]*Member{}, Methods: map[string]*Member{}}
}

func (*Class) Kind() Kind       { return KindClass }
func (c *Class) String() string { return c.Name }

// Instance is a heap-allocated value of a Class. Two Instances are the same
// type iff they reference the identical *Class value.
type Instance struct{ Class *Class }

func NewInstance(c *Class) *Instance { return &Instance{Class: c} }

func (*Instance) Kind() Kind       { return KindInstance }
func (i *Instance) String() string { return i.Class.Name }

// ---------------------------------------------------------------------------
// Trait

type Trait struct {
	Name    string
	Methods map[string]*Function
}

func NewTrait(name string) *Trait { return &Trait{Name: name, Methods: map[string]*Function{}} }

func (*Trait) Kind() Kind       { return KindTrait }
func (t *Trait) String() string { return t.Name }

// ---------------------------------------------------------------------------
// Contract

type RequiredMember struct {
	Type    Type // *Function for methods, field type otherwise
	IsField bool
	Const   bool
}

type Contract struct {
	Name            string
	RequiredFields  map[string]*RequiredMember
	RequiredMethods map[string]*RequiredMember
}

func NewContract(name string) *Contract {
	return &Contract{Name: name, RequiredFields: map[string]*RequiredMember{}, RequiredMethods: map[string]*RequiredMember{}}
}

func (*Contract) Kind() Kind       { return KindContract }
func (c *Contract) String() string { return c.Name }

// ---------------------------------------------------------------------------
// Data

type DataField struct {
	Name  string
	Type  Type
	Const bool
}

// Data is an immutable-by-construction named record with a synthesized
// constructor and structural equality.
type Data struct {
	Name        string
	Fields      []DataField
	Constructor *Function
	IsForeign   bool
}

func NewData(name string) *Data { return &Data{Name: name} }

func (*Data) Kind() Kind       { return KindData }
func (d *Data) String() string { return d.Name }

func (d *Data) FieldByName(name string) (DataField, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return DataField{}, false
}

// ---------------------------------------------------------------------------
// Enum

type Enum struct {
	Name     string
	Variants map[string]*Function // each Function's Return is this *Enum
	Order    []string             // declaration order, for exhaustiveness diagnostics
}

func NewEnum(name string) *Enum {
	return &Enum{Name: name, Variants: map[string]*Function{}}
}

func (*Enum) Kind() Kind       { return KindEnum }
func (e *Enum) String() string { return e.Name }

// ---------------------------------------------------------------------------
// Module

type Module struct {
	Name     string
	Exports  map[string]Type
	IsNative bool
	// NativeLibDir/NativeLibName are set for native modules only, recorded
	// by the driver for link-time -L/-l.
	NativeLibDir  string
	NativeLibName string
}

func NewModule(name string) *Module {
	return &Module{Name: name, Exports: map[string]Type{}}
}

func (*Module) Kind() Kind       { return KindModule }
func (m *Module) String() string { return m.Name }
