package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndAccessors(t *testing.T) {
	err := New(CodeSDFileEmpty, "nothing to read")

	assert.Equal(t, CodeSDFileEmpty, GetCode(err))
	assert.Contains(t, err.Error(), "SDF_002")
	assert.Contains(t, err.Error(), "nothing to read")
	assert.True(t, IsCode(err, CodeSDFileEmpty))
	assert.False(t, IsCode(err, CodeSDFileUnreadable))
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk is on fire")
	err := Wrap(cause, CodeStandardizeFailed, "standardization aborted")

	assert.True(t, IsCode(err, CodeStandardizeFailed))
	assert.ErrorContains(t, err, "standardization aborted")

	var appErr *AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, cause, appErr.Unwrap())
}

func TestWrapKeepsInnerCode(t *testing.T) {
	inner := New(CodeMolBlockMalformed, "bad counts line")
	outer := Wrap(inner, CodeUnknown, "while reading record")

	// Wrapping with CodeUnknown must not mask the precise inner code.
	assert.True(t, IsCode(outer, CodeMolBlockMalformed))
}

func TestWithStage(t *testing.T) {
	err := New(CodeChunkFailed, "worker 3 died")
	staged := WithStage(err, "standardize")

	assert.Equal(t, "standardize", GetStage(staged))
	assert.True(t, IsCode(staged, CodeChunkFailed))
	// The original error value is untouched.
	assert.Equal(t, "", GetStage(err))
}

func TestWithDetail(t *testing.T) {
	err := New(CodeNoDescriptors, "no method produced results").
		WithDetail("properties: parse failure; morgan: parse failure")

	assert.Contains(t, err.Error(), "morgan: parse failure")
}

func TestNilSafety(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, "", GetStage(nil))
	assert.False(t, IsCode(nil, CodeInternal))
	assert.Nil(t, WithStage(nil, "ionize"))
}

func TestGetCodeOnForeignError(t *testing.T) {
	assert.Equal(t, CodeUnknown, GetCode(fmt.Errorf("plain error")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "SDF", ModuleForCode(CodeSDFileEmpty))
	assert.Equal(t, "MD", ModuleForCode(CodeNoDescriptors))
	assert.Equal(t, "CACHE", ModuleForCode(CodeCacheStoreFailed))
}
