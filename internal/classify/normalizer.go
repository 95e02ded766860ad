package classify

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"shadow-ai-sentinel/internal/domain/entity"
)

// NormalizationError 行级规范化失败
// 携带行的来源信息与出错字段，行被跳过并记入诊断列表，运行继续。
type NormalizationError struct {
	SourceFile string `json:"source_file,omitempty"`
	Line       int    `json:"line"`
	Field      string `json:"field"`
	Reason     string `json:"reason"`
}

// Error 实现 error 接口
func (e *NormalizationError) Error() string {
	if e.SourceFile != "" {
		return fmt.Sprintf("%s:%d: field %q: %s", e.SourceFile, e.Line, e.Field, e.Reason)
	}
	return fmt.Sprintf("line %d: field %q: %s", e.Line, e.Field, e.Reason)
}

// normalizedRecord 规范化后的记录
type normalizedRecord struct {
	timestamp     time.Time
	userEmail     string
	department    string
	sourceIP      string
	method        string
	url           string
	bytesSent     *int64
	bytesReceived *int64
}

// 接受的时间戳格式；不带时区的格式按 UTC 解释
var timestampLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// normalize 校验并转换一行原始记录
// 纯函数：时间戳必须可解析（绝不回退为当前时间），字节数必须为
// 非负整数，缺失的字节数保持为显式未知而不是零。
func normalize(rec entity.RawRecord) (*normalizedRecord, *NormalizationError) {
	fail := func(field, reason string) *NormalizationError {
		return &NormalizationError{
			SourceFile: rec.SourceFile,
			Line:       rec.Line,
			Field:      field,
			Reason:     reason,
		}
	}

	url := strings.TrimSpace(rec.URL)
	if url == "" {
		return nil, fail("url", "missing url")
	}

	ts, ok := parseTimestamp(strings.TrimSpace(rec.Timestamp))
	if !ok {
		return nil, fail("timestamp", fmt.Sprintf("unparseable timestamp %q", rec.Timestamp))
	}

	bytesSent, err := parseByteCount(rec.BytesSent)
	if err != nil {
		return nil, fail("bytes_sent", err.Error())
	}
	bytesReceived, err := parseByteCount(rec.BytesReceived)
	if err != nil {
		return nil, fail("bytes_received", err.Error())
	}

	return &normalizedRecord{
		timestamp:     ts,
		userEmail:     strings.TrimSpace(rec.UserEmail),
		department:    strings.TrimSpace(rec.Department),
		sourceIP:      strings.TrimSpace(rec.SourceIP),
		method:        strings.ToUpper(strings.TrimSpace(rec.Method)),
		url:           url,
		bytesSent:     bytesSent,
		bytesReceived: bytesReceived,
	}, nil
}

// parseTimestamp 解析为带时区的 UTC 时间点
func parseTimestamp(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseByteCount 解析字节数
// 空值表示未知，返回 nil；负数或非数字是行级错误。
func parseByteCount(s string) (*int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("non-numeric byte count %q", s)
	}
	if n < 0 {
		return nil, fmt.Errorf("negative byte count %d", n)
	}
	return &n, nil
}
