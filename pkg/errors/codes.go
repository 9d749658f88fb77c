package errors

import "strings"

// ErrorCode is a string representation of a specific error condition.
// Codes are grouped by module prefix: CFG (configuration), SDF (structure
// files), STD (standardization), MD (molecular descriptors), RUN (workflow /
// parallel execution), CACHE (result cache).
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	CodeOK           ErrorCode = "OK"
	CodeUnknown      ErrorCode = "COMMON_000"
	CodeInternal     ErrorCode = "COMMON_001"
	CodeInvalidParam ErrorCode = "COMMON_002"
	CodeNotFound     ErrorCode = "COMMON_003"
	CodeIO           ErrorCode = "COMMON_004"
)

// Configuration error codes.
const (
	CodeConfigInvalid    ErrorCode = "CFG_001"
	CodeConfigUnreadable ErrorCode = "CFG_002"
)

// Structure-file error codes.
const (
	CodeSDFileUnreadable   ErrorCode = "SDF_001"
	CodeSDFileEmpty        ErrorCode = "SDF_002"
	CodeSDFileWriteFailed  ErrorCode = "SDF_003"
	CodeSDFileSplitFailed  ErrorCode = "SDF_004"
	CodeMolBlockMalformed  ErrorCode = "SDF_005"
	CodeDataFileUnreadable ErrorCode = "SDF_006"
)

// Standardization / structure-transform error codes.
const (
	CodeStandardizeFailed      ErrorCode = "STD_001"
	CodeIonizeMethodUnknown    ErrorCode = "STD_002"
	CodeConvert3DMethodUnknown ErrorCode = "STD_003"
	CodeConvert3DFailed        ErrorCode = "STD_004"
	CodeIonizeFailed           ErrorCode = "STD_005"
)

// Descriptor error codes.
const (
	CodeDescriptorMethodUnknown ErrorCode = "MD_001"
	CodeDescriptorFailed        ErrorCode = "MD_002"
	CodeNoDescriptors           ErrorCode = "MD_003"
	CodeRowCountMismatch        ErrorCode = "MD_004"
)

// Workflow / parallel-execution error codes.
const (
	CodeChunkFailed   ErrorCode = "RUN_001"
	CodeShapeMismatch ErrorCode = "RUN_002"
	CodeEmptyRun      ErrorCode = "RUN_003"
)

// Result-cache error codes.
const (
	CodeCacheStoreFailed  ErrorCode = "CACHE_001"
	CodeCacheLookupFailed ErrorCode = "CACHE_002"
	CodeCacheDecodeFailed ErrorCode = "CACHE_003"
)

// codeMessages maps ErrorCodes to default messages.
var codeMessages = map[ErrorCode]string{
	CodeInternal:     "internal error",
	CodeInvalidParam: "invalid parameter",
	CodeNotFound:     "not found",
	CodeIO:           "i/o error",

	CodeConfigInvalid:    "invalid configuration",
	CodeConfigUnreadable: "cannot read configuration",

	CodeSDFileUnreadable:   "cannot read structure file",
	CodeSDFileEmpty:        "structure file contains no records",
	CodeSDFileWriteFailed:  "cannot write structure file",
	CodeSDFileSplitFailed:  "cannot split structure file",
	CodeMolBlockMalformed:  "malformed mol block",
	CodeDataFileUnreadable: "cannot read data file",

	CodeStandardizeFailed:      "chemical standardization failed",
	CodeIonizeMethodUnknown:    "unknown ionization method",
	CodeConvert3DMethodUnknown: "unknown 3D conversion method",
	CodeConvert3DFailed:        "3D conversion failed",
	CodeIonizeFailed:           "ionization failed",

	CodeDescriptorMethodUnknown: "unknown descriptor method",
	CodeDescriptorFailed:        "descriptor computation failed",
	CodeNoDescriptors:           "no descriptors computed",
	CodeRowCountMismatch:        "descriptor row counts differ between methods",

	CodeChunkFailed:   "chunk processing failed",
	CodeShapeMismatch: "descriptor shapes differ between chunks",
	CodeEmptyRun:      "no molecules survived processing",

	CodeCacheStoreFailed:  "cannot persist result snapshot",
	CodeCacheLookupFailed: "cannot query result cache",
	CodeCacheDecodeFailed: "cannot decode cached snapshot",
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := codeMessages[code]; ok {
		return msg
	}
	return "unknown error"
}

// ModuleForCode returns the module prefix of an ErrorCode ("SDF", "MD", ...).
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
