package fault

import (
	"context"
	"errors"
	"fmt"
)

// Kind 单条分析失败的最小分类，用于诊断记录与日志汇总
type Kind string

const (
	KindUnknown          Kind = "unknown"
	KindDecode           Kind = "decode"
	KindMalformedInput   Kind = "malformed_input"
	KindProvider         Kind = "provider"
	KindSchemaValidation Kind = "schema_validation"
	KindConfiguration    Kind = "configuration"
	KindCanceled         Kind = "canceled"
)

// DecodeError 输入文档无法解码为 CompanyRecord
type DecodeError struct {
	Item string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Item, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// MalformedInputError 输入缺少结构上必需的字段
type MalformedInputError struct {
	Field  string
	Reason string
}

func (e *MalformedInputError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("malformed input: missing %s", e.Field)
	}
	return fmt.Sprintf("malformed input: %s: %s", e.Field, e.Reason)
}

// ProviderError 推理服务不可达、限流或返回传输层错误
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("reasoning provider %s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// SchemaValidationError 推理服务有响应，但无法转换为 CreditReport。
// Raw 保留原始响应，供诊断使用。
type SchemaValidationError struct {
	Raw    string
	Reason string
}

func (e *SchemaValidationError) Error() string {
	return "schema validation: " + e.Reason
}

// ConfigurationError 启动前即可检测到的配置缺失，属于致命错误
type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("configuration: %s is not set", e.Key)
	}
	return fmt.Sprintf("configuration: %s: %s", e.Key, e.Reason)
}

// Classify 将错误归入 Kind。只依赖 errors.As/Is，不做字符串匹配。
func Classify(err error) Kind {
	if err == nil {
		return KindUnknown
	}

	var (
		cfgErr      *ConfigurationError
		schemaErr   *SchemaValidationError
		providerErr *ProviderError
		inputErr    *MalformedInputError
		decodeErr   *DecodeError
	)
	switch {
	case errors.As(err, &cfgErr):
		return KindConfiguration
	case errors.As(err, &schemaErr):
		return KindSchemaValidation
	case errors.As(err, &providerErr):
		// 超时属于推理服务失败
		return KindProvider
	case errors.As(err, &inputErr):
		return KindMalformedInput
	case errors.As(err, &decodeErr):
		return KindDecode
	case errors.Is(err, context.Canceled):
		return KindCanceled
	}
	return KindUnknown
}

// RawResponse 返回错误链中保留的原始推理响应（若有）
func RawResponse(err error) string {
	var schemaErr *SchemaValidationError
	if errors.As(err, &schemaErr) {
		return schemaErr.Raw
	}
	return ""
}
