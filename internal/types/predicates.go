package types

// IsIntegerPrimitive reports whether t is one of the fixed-width integer
// primitives (i8..i64, u8..u64).
func IsIntegerPrimitive(t Type) bool {
	p, ok := t.(*Primitive)
	if !ok {
		return false
	}
	switch p.Name {
	case I8, I16, I32, I64, U8, U16, U32, U64:
		return true
	}
	return false
}

// IsFloatPrimitive reports whether t is f32 or f64.
func IsFloatPrimitive(t Type) bool {
	p, ok := t.(*Primitive)
	if !ok {
		return false
	}
	return p.Name == F32 || p.Name == F64
}

// IsNumeric reports whether t is any integer or float primitive.
func IsNumeric(t Type) bool {
	return IsIntegerPrimitive(t) || IsFloatPrimitive(t)
}

// IsString reports whether t is the string primitive.
func IsString(t Type) bool {
	p, ok := t.(*Primitive)
	return ok && p.Name == Str
}

// IsBool reports whether t is the bool primitive.
func IsBool(t Type) bool {
	p, ok := t.(*Primitive)
	return ok && p.Name == Bool
}

// IsOptional reports whether t is an Optional.
func IsOptional(t Type) bool {
	_, ok := t.(*Optional)
	return ok
}

// IsNilType reports whether t is the Nil sentinel.
func IsNilType(t Type) bool {
	_, ok := t.(*Nil)
	return ok
}

// IsAny reports whether t is the Any sentinel.
func IsAny(t Type) bool {
	_, ok := t.(*Any)
	return ok
}

// IsErrorType reports whether t is the cascade-suppressing Error sentinel.
func IsErrorType(t Type) bool {
	_, ok := t.(*Error)
	return ok
}

// Equals is structural equality for Primitive/Optional/List/Record/Function
// and nominal (identity) equality for Class/Instance/Enum/Data/Contract/
// Trait/Module.
func Equals(a, b Type) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		// Any two Error types, or Error alongside anything, compare equal
		// so a single bad expression doesn't cascade mismatched-kind noise.
		return false
	}
	switch av := a.(type) {
	case *Primitive:
		return av.Name == b.(*Primitive).Name
	case *Nil, *Any, *Thread, *Mutex, *Exception, *CPtr, *Error:
		return true
	case *Optional:
		return Equals(av.Elem, b.(*Optional).Elem)
	case *List:
		return Equals(av.Elem, b.(*List).Elem)
	case *Record:
		bv := b.(*Record)
		if len(av.Fields) != len(bv.Fields) {
			return false
		}
		for name, t := range av.Fields {
			ot, ok := bv.Fields[name]
			if !ok || !Equals(t, ot) {
				return false
			}
		}
		return true
	case *Function:
		return av.Equals(b.(*Function))
	case *Class:
		return av == b.(*Class)
	case *Instance:
		return av.Class == b.(*Instance).Class
	case *Trait:
		return av == b.(*Trait)
	case *Contract:
		return av == b.(*Contract)
	case *Data:
		return av == b.(*Data)
	case *Enum:
		return av == b.(*Enum)
	case *Module:
		return av == b.(*Module)
	}
	return false
}

// CanAssign reports whether a value of type actual may be stored in a
// destination of type expected.
//
// literalIsInt reports whether the actual expression being checked is an
// integer-literal expression, the one context in which an i64 literal may
// widen to any integer target.
func CanAssign(expected, actual Type, literalIsInt bool) bool {
	if expected == nil || actual == nil {
		return false
	}
	if expected.String() == actual.String() && expected.Kind() == actual.Kind() {
		return true
	}
	if IsAny(expected) || IsAny(actual) {
		return true
	}
	if opt, ok := expected.(*Optional); ok {
		if Equals(opt.Elem, actual) || IsNilType(actual) {
			return true
		}
		// actual may itself already be optional-compatible (e.g. re-assigning
		// an Optional(T) value into an Optional(T) destination), covered by
		// the identical-canonical-string check above, so nothing further here.
	}
	if er, ok := expected.(*Record); ok && len(er.Fields) > 0 {
		if ar, ok := actual.(*Record); ok && len(ar.Fields) == 0 {
			return true
		}
	}
	if literalIsInt && IsIntegerPrimitive(expected) && IsIntegerPrimitive(actual) {
		return true
	}
	return false
}
