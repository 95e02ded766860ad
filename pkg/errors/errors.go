// Package errors 提供统一的错误定义
package errors

import (
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeUnauthorized       ErrorCode = "1002"
	CodeForbidden          ErrorCode = "1003"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 配置错误 (2xxx)
	CodeConfigInvalid        ErrorCode = "2001"
	CodeProviderTableEmpty   ErrorCode = "2002"
	CodeSensitivitySetEmpty  ErrorCode = "2003"
	CodeThresholdInvalid     ErrorCode = "2004"
	CodePIIKeywordListEmpty  ErrorCode = "2005"
	CodeEnrichmentKeyMissing ErrorCode = "2006"

	// 规范化/解析错误 (3xxx)
	CodeNormalizationFailed ErrorCode = "3001"
	CodeTimestampInvalid    ErrorCode = "3002"
	CodeByteCountInvalid    ErrorCode = "3003"
	CodeURLMissing          ErrorCode = "3004"
	CodeIngestFailed        ErrorCode = "3005"
	CodeErrorBudgetExceeded ErrorCode = "3006"

	// 业务错误 (4xxx)
	CodeEventNotFound    ErrorCode = "4001"
	CodeSummaryNotFound  ErrorCode = "4002"
	CodeEnrichmentFailed ErrorCode = "4003"
	CodeVerdictInvalid   ErrorCode = "4004"

	// 外部服务错误 (5xxx)
	CodeDatabaseError    ErrorCode = "5001"
	CodeCacheError       ErrorCode = "5002"
	CodeStreamError      ErrorCode = "5003"
	CodeLLMProviderError ErrorCode = "5004"
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithDetail 返回携带详细信息的副本，预定义错误本身保持不变
func (e *AppError) WithDetail(detail string) *AppError {
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithError 返回携带底层错误的副本
func (e *AppError) WithError(err error) *AppError {
	clone := *e
	clone.Err = err
	return &clone
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeNormalizationFailed, CodeTimestampInvalid, CodeByteCountInvalid, CodeURLMissing:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeEventNotFound, CodeSummaryNotFound:
		return http.StatusNotFound
	case CodeConflict:
		return http.StatusConflict
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误
var (
	ErrInvalidParam       = New(CodeInvalidParam, "invalid parameter")
	ErrUnauthorized       = New(CodeUnauthorized, "unauthorized")
	ErrForbidden          = New(CodeForbidden, "forbidden")
	ErrNotFound           = New(CodeNotFound, "resource not found")
	ErrInternalError      = New(CodeInternalError, "internal server error")
	ErrServiceUnavailable = New(CodeServiceUnavailable, "service unavailable")

	ErrConfigInvalid       = New(CodeConfigInvalid, "analysis configuration invalid")
	ErrProviderTableEmpty  = New(CodeProviderTableEmpty, "provider domain table is empty")
	ErrSensitivitySetEmpty = New(CodeSensitivitySetEmpty, "department sensitivity set is empty")
	ErrThresholdInvalid    = New(CodeThresholdInvalid, "byte threshold must be positive")
	ErrPIIKeywordListEmpty = New(CodePIIKeywordListEmpty, "pii keyword list is empty")

	ErrEventNotFound    = New(CodeEventNotFound, "event not found")
	ErrSummaryNotFound  = New(CodeSummaryNotFound, "summary not found")
	ErrEnrichmentFailed = New(CodeEnrichmentFailed, "value enrichment failed")
	ErrVerdictInvalid   = New(CodeVerdictInvalid, "enrichment verdict invalid")
)

// IsAppError 检查是否为 AppError
func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}
