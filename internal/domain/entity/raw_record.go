// Package entity 定义领域实体
package entity

// RawRecord 一行未经校验的网络日志
// 字段保持来源的原始字符串形态，由 Record Normalizer 统一校验和转换；
// SourceFile 与 Line 仅用于诊断信息。
type RawRecord struct {
	Timestamp     string
	UserEmail     string
	Department    string
	SourceIP      string
	Method        string
	URL           string
	BytesSent     string
	BytesReceived string

	SourceFile string
	Line       int
}
