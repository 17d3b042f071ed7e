// Package ast holds every SQL construct the engine understands once a
// parser-level tree has been translated: statements, expressions, data
// types, join structures, and the row-shaping annotations the planner
// attaches (IndexItem, table factors). Each node family (Expr, Statement,
// TableFactor, ...) is a sealed interface with an unexported marker method,
// implemented by concrete structs and walked with a type switch.
package ast

import "gluedb/value"

// DataType names a declared column type, independent of the runtime Kind a
// Value carries (DataType is surface syntax; value.Kind is the runtime tag).
type DataType uint8

const (
	TypeBoolean DataType = iota
	TypeInt8
	TypeInt16
	TypeInt32
	TypeInt64
	TypeInt128
	TypeUint8
	TypeUint16
	TypeUint32
	TypeUint64
	TypeUint128
	TypeFloat32
	TypeFloat64
	TypeDecimal
	TypeText
	TypeBytea
	TypeInet
	TypeDate
	TypeTime
	TypeTimestamp
	TypeIntervalYearToMonth
	TypeIntervalDayToSecond
	TypeUuid
	TypePoint
	TypeMap
	TypeList
)

// ValueKind maps surface DataType to the runtime value.Kind it materializes.
func (d DataType) ValueKind() value.Kind {
	switch d {
	case TypeBoolean:
		return value.Bool
	case TypeInt8:
		return value.I8
	case TypeInt16:
		return value.I16
	case TypeInt32:
		return value.I32
	case TypeInt64:
		return value.I64
	case TypeInt128:
		return value.I128
	case TypeUint8:
		return value.U8
	case TypeUint16:
		return value.U16
	case TypeUint32:
		return value.U32
	case TypeUint64:
		return value.U64
	case TypeUint128:
		return value.U128
	case TypeFloat32:
		return value.F32
	case TypeFloat64:
		return value.F64
	case TypeDecimal:
		return value.DecimalKind
	case TypeText:
		return value.Str
	case TypeBytea:
		return value.Bytea
	case TypeInet:
		return value.Inet
	case TypeDate:
		return value.Date
	case TypeTime:
		return value.Time
	case TypeTimestamp:
		return value.Timestamp
	case TypeIntervalYearToMonth, TypeIntervalDayToSecond:
		return value.IntervalKind
	case TypeUuid:
		return value.Uuid
	case TypePoint:
		return value.Point
	case TypeMap:
		return value.Map
	case TypeList:
		return value.List
	default:
		return value.Null
	}
}

func (d DataType) String() string {
	names := [...]string{
		"BOOLEAN", "INT8", "INT16", "INT32", "INT64", "INT128",
		"UINT8", "UINT16", "UINT32", "UINT64", "UINT128",
		"FLOAT32", "FLOAT64", "DECIMAL", "TEXT", "BYTEA", "INET",
		"DATE", "TIME", "TIMESTAMP",
		"INTERVAL YEAR TO MONTH", "INTERVAL DAY TO SECOND",
		"UUID", "POINT", "MAP", "LIST",
	}
	if int(d) < len(names) {
		return names[d]
	}
	return "UNKNOWN"
}
