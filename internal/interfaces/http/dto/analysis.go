package dto

// RunRequest 触发一次分析运行
// source_path 为服务端可见的 CSV 文件或目录路径。
type RunRequest struct {
	SourcePath string `json:"source_path" binding:"required"`
}

// RunResponse 分析运行结果概要
type RunResponse struct {
	RunID         string `json:"run_id"`
	Events        int    `json:"events"`
	Skipped       int    `json:"skipped"`
	HighRiskCount int    `json:"high_risk_count"`
}

// BackfillRequest 存量事件补投评估任务
type BackfillRequest struct {
	Limit int `json:"limit"`
}

// BackfillResponse 补投结果
type BackfillResponse struct {
	Published int `json:"published"`
}
