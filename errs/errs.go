// Package errs defines the unified error taxonomy returned by every layer of
// the engine: translation, schema validation, value/type operations,
// constraint enforcement, execution, and storage. Every fallible call in the
// engine returns an *errs.Error (or wraps one), so callers can switch on Kind
// without parsing message text.
package errs

import "fmt"

// Kind tags the class of failure. Callers should switch on Kind rather than
// inspect Error(); the message text is for humans.
type Kind string

const (
	// Translation / parsing.
	KindUnsupportedSyntax       Kind = "unsupported_syntax"
	KindCompositeIndexNotSupported Kind = "composite_index_not_supported"
	KindNamedFunctionArg        Kind = "named_function_arg_not_supported"
	KindWildcardFunctionArg     Kind = "wildcard_function_arg_not_accepted"
	KindFunctionArgsLength      Kind = "function_args_length_not_matching"
	KindInvalidParamLiteral     Kind = "invalid_param_literal"
	KindNonFiniteFloatParameter Kind = "non_finite_float_parameter"

	// Schema.
	KindTableNotFound        Kind = "table_not_found"
	KindColumnNotFound       Kind = "column_not_found"
	KindTableAliasNotFound   Kind = "table_alias_not_found"
	KindMultiplePrimaryKey   Kind = "multiple_primary_key"
	KindEmptyUniqueColumns   Kind = "empty_unique_columns"
	KindDuplicateColumn      Kind = "duplicate_column"
	KindDuplicateConstraint  Kind = "duplicate_constraint_name"
	KindUnsupportedIndexExpr Kind = "unsupported_index_expr"

	// Value / type.
	KindImpossibleCast                     Kind = "impossible_cast"
	KindFloatToDecimalConversionFailure     Kind = "float_to_decimal_conversion_failure"
	KindNonNumericMathOperation             Kind = "non_numeric_math_operation"
	KindBinaryOperationOverflow             Kind = "binary_operation_overflow"
	KindDivisorShouldNotBeZero              Kind = "divisor_should_not_be_zero"
	KindDateOverflow                        Kind = "date_overflow"
	KindAddBetweenYearToMonthAndHourToSecond Kind = "add_between_year_to_month_and_hour_to_second"
	KindSubBetweenYearToMonthAndHourToSecond Kind = "sub_between_year_to_month_and_hour_to_second"
	KindAddYearOrMonthToTime                 Kind = "add_year_or_month_to_time"
	KindSubYearOrMonthToTime                 Kind = "sub_year_or_month_to_time"
	KindUnsupportedRange                     Kind = "unsupported_range"
	KindConversionErrorFromDataTypeAToB      Kind = "conversion_error_from_datatype_a_to_b"

	// Constraint.
	KindNullabilityViolation      Kind = "nullability_violation"
	KindCannotFindReferencedValue Kind = "cannot_find_referenced_value"
	KindReferencingColumnExists   Kind = "referencing_column_exists"
	KindUniqueViolation           Kind = "unique_violation"
	KindCannotDropTableWithReferencing Kind = "cannot_drop_table_with_referencing"

	// Execution.
	KindValueNotFound                  Kind = "value_not_found"
	KindNestedSelectRowNotFound         Kind = "nested_select_row_not_found"
	KindUnreachableEmptyContext         Kind = "unreachable_empty_context"
	KindUnreachableEmptyAggregateValue  Kind = "unreachable_empty_aggregate_value"
	KindUnsupportedCompoundIdentifier   Kind = "unsupported_compound_identifier"
	KindWildcardUnreachablePosition     Kind = "wildcard_unreachable_position"
	KindSeriesSizeWrong                 Kind = "series_size_wrong"
	KindSchemalessMixedJoinWildcard     Kind = "schemaless_mixed_join_wildcard_projection"
	KindFunctionRequiresStringValue     Kind = "function_requires_string_value"
	KindFunctionRequiresFloatValue      Kind = "function_requires_float_value"
	KindFunctionRequiresIntegerValue    Kind = "function_requires_integer_value"
	KindFunctionRequiresFloatOrIntegerValue Kind = "function_requires_float_or_integer_value"
	KindFunctionRequiresMapValue        Kind = "function_requires_map_value"
	KindFunctionRequiresUSizeValue      Kind = "function_requires_usize_value"
	KindNegativeSubstrLenNotAllowed     Kind = "negative_substr_len_not_allowed"

	// Storage.
	KindTransactionNotFound   Kind = "transaction_not_found"
	KindTransactionConflict   Kind = "transaction_conflict"
	KindUnsupportedCapability Kind = "unsupported_capability"
	KindStorageIO             Kind = "storage_io"
	KindVersionMismatch       Kind = "version_mismatch"
	KindMigrationRequired     Kind = "migration_required"
)

// Error is the single error type returned across the engine. Fields beyond
// Kind/Message are populated on a best-effort basis to aid diagnostics.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is lets errors.Is match on Kind alone, so callers can write
// errors.Is(err, errs.New(errs.KindValueNotFound, "")) style checks, but the
// idiomatic path is Kind(err) + a switch.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New builds an *Error with a formatted message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap builds an *Error that carries an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Kind, true
	}
	return "", false
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
