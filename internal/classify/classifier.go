package classify

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"shadow-ai-sentinel/internal/config"
	"shadow-ai-sentinel/internal/domain/entity"
)

// SourceSystem 当前唯一的摄入来源标识
const SourceSystem = "network_logs_v1"

// Classifier 单条记录的完整分类流水线
// 规范化、供应商识别、风险分级、PII 检测、用途推断依次执行。
// 无跨事件状态，可被多个 worker 并发共享。
type Classifier struct {
	rules *Ruleset
}

// New 构造分类器
// 配置非法时返回 ConfigurationError。
func New(cfg *config.AnalysisConfig) (*Classifier, error) {
	rules, err := NewRuleset(cfg)
	if err != nil {
		return nil, err
	}
	return &Classifier{rules: rules}, nil
}

// Rules 返回底层规则集，供聚合阶段查询部门敏感度
func (c *Classifier) Rules() *Ruleset {
	return c.rules
}

// Classify 对一行原始记录执行完整分类
// 规范化失败时返回行级错误，调用方跳过该行并继续。
// 成功时返回完整填充的事件，分类输出字段之后不再变更。
func (c *Classifier) Classify(rec entity.RawRecord) (*entity.AIUsageEvent, *NormalizationError) {
	nr, nerr := normalize(rec)
	if nerr != nil {
		return nil, nerr
	}

	provider, service := c.rules.DetectProvider(nr.url)
	riskLevel, riskReasons := c.rules.ClassifyRisk(provider, nr.department, nr.bytesSent)
	piiRisk, piiReasons := c.rules.AssessPII(nr.url, nr.department, nr.bytesSent)
	useCase := c.rules.InferUseCase(provider, service, nr.bytesSent)

	return &entity.AIUsageEvent{
		ID:            eventID(rec),
		Timestamp:     nr.timestamp,
		UserEmail:     nr.userEmail,
		Department:    nr.department,
		SourceIP:      nr.sourceIP,
		Method:        nr.method,
		URL:           nr.url,
		BytesSent:     nr.bytesSent,
		BytesReceived: nr.bytesReceived,
		Provider:      provider,
		Service:       service,
		RiskLevel:     riskLevel,
		RiskReasons:   riskReasons,
		PIIRisk:       piiRisk,
		PIIReasons:    piiReasons,
		UseCase:       useCase,
		SourceSystem:  SourceSystem,
	}, nil
}

// eventID 由原始字段派生的稳定事件标识
// 同一行记录在任意一次运行中得到相同 ID，便于跨运行幂等入库。
func eventID(rec entity.RawRecord) string {
	h := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%d",
		rec.Timestamp, rec.UserEmail, rec.URL, rec.Line)))
	return "evt_" + hex.EncodeToString(h[:])[:12]
}
