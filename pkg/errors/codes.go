package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common Error Codes
const (
	ErrCodeInternal        ErrorCode = "COMMON_001"
	ErrCodeInvalidParam    ErrorCode = "COMMON_002"
	ErrCodeNotFound        ErrorCode = "COMMON_003"
	ErrCodeConflict        ErrorCode = "COMMON_004"
	ErrCodeTimeout         ErrorCode = "COMMON_005"
	ErrCodeSerialization   ErrorCode = "COMMON_006"
	ErrCodeDatabaseError   ErrorCode = "COMMON_007"
	ErrCodeCacheError      ErrorCode = "COMMON_008"
	ErrCodeExternalService ErrorCode = "COMMON_009"
	ErrCodeNotImplemented  ErrorCode = "COMMON_010"
	ErrCodeDiskError       ErrorCode = "COMMON_011"
)

// Chemoinformatics Error Codes
const (
	ErrCodeEmptyInput            ErrorCode = "CHEM_001"
	ErrCodeTypeKind              ErrorCode = "CHEM_002"
	ErrCodeInvalidMolecule       ErrorCode = "CHEM_003"
	ErrCodeInvalidPattern        ErrorCode = "CHEM_004"
	ErrCodeMalformedReaction     ErrorCode = "CHEM_005"
	ErrCodeMoleculeFormatInvalid ErrorCode = "CHEM_006"
	ErrCodeRuleFormatInvalid     ErrorCode = "CHEM_007"
	ErrCodeHashingFailed         ErrorCode = "CHEM_008"
)

// Template Module Error Codes
const (
	ErrCodeTemplateExtraction   ErrorCode = "TPL_001"
	ErrCodeTemplateConstruction ErrorCode = "TPL_002"
)

// Blueprint Module Error Codes
const (
	ErrCodeMissingTemplate    ErrorCode = "BP_001"
	ErrCodeInvalidDirection   ErrorCode = "BP_002"
	ErrCodeIndexOutOfRange    ErrorCode = "BP_003"
	ErrCodeReactionExecution  ErrorCode = "BP_004"
	ErrCodeSubstructureSearch ErrorCode = "BP_005"
	ErrCodeInvalidRecord      ErrorCode = "BP_006"
)

// Data Source Error Codes
const (
	ErrCodeDataSourceUnavailable ErrorCode = "SRC_001"
	ErrCodeDataSourceRateLimited ErrorCode = "SRC_002"
	ErrCodeDataSourceParseError  ErrorCode = "SRC_003"
	ErrCodeMappingError          ErrorCode = "SRC_004"
)

// Aliases used at call sites throughout the codebase.
const (
	CodeInternal     = ErrCodeInternal
	CodeInvalidParam = ErrCodeInvalidParam
	CodeNotFound     = ErrCodeNotFound
	CodeUnknown      = ErrorCode("UNKNOWN")
	CodeOK           = ErrorCode("OK")
)

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:        "internal error",
	ErrCodeInvalidParam:    "bad request",
	ErrCodeNotFound:        "resource not found",
	ErrCodeConflict:        "resource conflict",
	ErrCodeTimeout:         "operation timed out",
	ErrCodeSerialization:   "serialization failed",
	ErrCodeDatabaseError:   "database error",
	ErrCodeCacheError:      "cache error",
	ErrCodeExternalService: "external service error",
	ErrCodeNotImplemented:  "not implemented",
	ErrCodeDiskError:       "disk operation failed",

	ErrCodeEmptyInput:            "input is empty",
	ErrCodeTypeKind:              "input has the wrong kind",
	ErrCodeInvalidMolecule:       "invalid molecule string",
	ErrCodeInvalidPattern:        "invalid pattern string",
	ErrCodeMalformedReaction:     "malformed reaction string",
	ErrCodeMoleculeFormatInvalid: "unsupported molecule format",
	ErrCodeRuleFormatInvalid:     "unsupported reaction rule format",
	ErrCodeHashingFailed:         "hashing failed",

	ErrCodeTemplateExtraction:   "template extraction failed",
	ErrCodeTemplateConstruction: "template construction failed",

	ErrCodeMissingTemplate:    "reaction carries no template",
	ErrCodeInvalidDirection:   "invalid reaction direction",
	ErrCodeIndexOutOfRange:    "index out of range",
	ErrCodeReactionExecution:  "reaction execution failed",
	ErrCodeSubstructureSearch: "substructure search failed",
	ErrCodeInvalidRecord:      "invalid blueprint record",

	ErrCodeDataSourceUnavailable: "data source unavailable",
	ErrCodeDataSourceRateLimited: "data source rate limited",
	ErrCodeDataSourceParseError:  "failed to parse data source response",
	ErrCodeMappingError:          "mapping operation failed",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
