// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package npapi

// Identifier is an opaque browser-interned property or method name.
type Identifier uintptr

// Class is the vtable of a scriptable object. Only the version is modelled.
type Class struct {
	StructVersion uint32
}

// Object is a scriptable object owned by the browser.
type Object struct {
	Class          *Class
	ReferenceCount uint32
}

// VariantType tags the value held by a Variant.
type VariantType int32

// Variant types.
const (
	VariantVoid   VariantType = 0
	VariantNull   VariantType = 1
	VariantBool   VariantType = 2
	VariantInt32  VariantType = 3
	VariantDouble VariantType = 4
	VariantString VariantType = 5
	VariantObject VariantType = 6
)

// String returns the npruntime.h enumerator name.
func (t VariantType) String() string {
	switch t {
	case VariantVoid:
		return "NPVariantType_Void"
	case VariantNull:
		return "NPVariantType_Null"
	case VariantBool:
		return "NPVariantType_Bool"
	case VariantInt32:
		return "NPVariantType_Int32"
	case VariantDouble:
		return "NPVariantType_Double"
	case VariantString:
		return "NPVariantType_String"
	case VariantObject:
		return "NPVariantType_Object"
	default:
		return unlisted
	}
}

// Variant is a script value. Value holds a bool, int32, float64, string or *Object
// according to Type.
type Variant struct {
	Type  VariantType
	Value any
}
