// Package report 输出分析产物
// JSON 产物供程序消费，HTML 简报面向管理层阅读。产物总是
// 整体覆盖写入，不做增量追加。
package report

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"shadow-ai-sentinel/internal/classify"
	"shadow-ai-sentinel/internal/domain/entity"
	apperrors "shadow-ai-sentinel/pkg/errors"
	"shadow-ai-sentinel/pkg/logger"
)

// 产物文件名
const (
	EventsFile   = "events.json"
	SummaryFile  = "summary.json"
	SkippedFile  = "skipped_rows.json"
	ExecBriefFile = "exec_brief.html"
)

// Writer 把分析产物写入输出目录
type Writer struct {
	dir string
}

// NewWriter 构造产物写入器，目录不存在时创建
func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternalError, "failed to create output directory").
			WithDetail(dir)
	}
	return &Writer{dir: dir}, nil
}

// WriteEvents 写出全量事件明细
func (w *Writer) WriteEvents(ctx context.Context, events []*entity.AIUsageEvent) error {
	return w.writeJSON(ctx, EventsFile, events)
}

// WriteSummary 写出汇总
func (w *Writer) WriteSummary(ctx context.Context, summary *entity.Summary) error {
	return w.writeJSON(ctx, SummaryFile, summary)
}

// WriteSkipped 写出被跳过行的诊断列表
func (w *Writer) WriteSkipped(ctx context.Context, skipped []*classify.NormalizationError) error {
	if skipped == nil {
		skipped = []*classify.NormalizationError{}
	}
	return w.writeJSON(ctx, SkippedFile, skipped)
}

func (w *Writer) writeJSON(ctx context.Context, name string, v any) error {
	path := filepath.Join(w.dir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternalError, "failed to marshal report artifact").
			WithDetail(name)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternalError, "failed to write report artifact").
			WithDetail(path)
	}
	logger.Info(ctx, "report artifact written", "path", path, "bytes", len(data))
	return nil
}
