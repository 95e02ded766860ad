// Package ingest 从 CSV 网络日志读取原始记录
// 只做读取与列名映射，不做任何字段校验；校验统一由分类流水线的
// 规范化阶段完成，这里保留原始字符串与行号来源信息。
package ingest

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shadow-ai-sentinel/internal/domain/entity"
	apperrors "shadow-ai-sentinel/pkg/errors"
)

// 各字段接受的列名别名，全部小写比较
var columnAliases = map[string][]string{
	"timestamp":      {"timestamp", "time", "date", "event_time"},
	"user_email":     {"user_email", "user", "email", "username"},
	"department":     {"department", "dept", "team"},
	"source_ip":      {"source_ip", "src_ip", "ip", "client_ip"},
	"method":         {"method", "http_method"},
	"url":            {"url", "destination_url", "dest_url", "request_url"},
	"bytes_sent":     {"bytes_sent", "bytes_out", "upload_bytes", "sent_bytes"},
	"bytes_received": {"bytes_received", "bytes_in", "download_bytes", "received_bytes"},
}

// ReadFile 读取单个 CSV 文件
// 首行是表头，列顺序任意，列名大小写不敏感；url 列缺失视为文件
// 级错误，其余列缺失时对应字段留空交给规范化阶段判定。
func ReadFile(path string) ([]entity.RawRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeIngestFailed, "failed to open input file").
			WithDetail(path)
	}
	defer f.Close()

	records, err := readAll(f, filepath.Base(path))
	if err != nil {
		return nil, err
	}
	return records, nil
}

// ReadDir 读取目录下所有 CSV 文件并拼接
// 文件按名称排序，保证多次运行的记录顺序一致。
func ReadDir(dir string) ([]entity.RawRecord, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeIngestFailed, "failed to read input directory").
			WithDetail(dir)
	}

	var paths []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)

	var all []entity.RawRecord
	for _, p := range paths {
		records, err := ReadFile(p)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)
	}
	return all, nil
}

func readAll(r io.Reader, sourceFile string) ([]entity.RawRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	// 行内列数不一致交给字段映射容错处理
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeIngestFailed, "failed to read csv header").
			WithDetail(sourceFile)
	}

	cols, err := mapColumns(header, sourceFile)
	if err != nil {
		return nil, err
	}

	var records []entity.RawRecord
	line := 1
	for {
		row, err := cr.Read()
		line++
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeIngestFailed, "failed to read csv row").
				WithDetail(sourceFile)
		}

		field := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return row[idx]
		}

		records = append(records, entity.RawRecord{
			Timestamp:     field("timestamp"),
			UserEmail:     field("user_email"),
			Department:    field("department"),
			SourceIP:      field("source_ip"),
			Method:        field("method"),
			URL:           field("url"),
			BytesSent:     field("bytes_sent"),
			BytesReceived: field("bytes_received"),
			SourceFile:    sourceFile,
			Line:          line,
		})
	}
	return records, nil
}

// mapColumns 把表头解析为字段到列下标的映射
func mapColumns(header []string, sourceFile string) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	cols := make(map[string]int, len(columnAliases))
	for field, aliases := range columnAliases {
		for _, alias := range aliases {
			if idx, ok := byName[alias]; ok {
				cols[field] = idx
				break
			}
		}
	}

	if _, ok := cols["url"]; !ok {
		return nil, apperrors.New(apperrors.CodeIngestFailed, "csv header missing url column").
			WithDetail(sourceFile)
	}
	return cols, nil
}
