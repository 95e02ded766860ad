// Package aggregate 把已分类事件归并为组织级汇总
// Accumulator 支持分片累加后合并，Merge 满足交换律与结合律，
// 任意切分与合并顺序产出相同的 Summary。汇总始终整体重建，
// 绝不增量修改既有汇总的单个字段。
package aggregate

import (
	"sort"
	"time"

	"shadow-ai-sentinel/internal/classify"
	"shadow-ai-sentinel/internal/domain/entity"
)

// Accumulator 聚合累加器
// 非并发安全；并行流水线为每个 worker 建一个分片，最后 Merge。
type Accumulator struct {
	rules *classify.Ruleset
	topN  int

	totalRecords int
	totalEvents  int
	skippedRows  int

	users       map[string]struct{}
	riskCounts  entity.RiskCounts
	byProvider  map[entity.Provider]int
	byDept      map[string]int
	byUseCase   map[entity.UseCase]int
	perDay      map[string]int
	highByDept  map[string]int
	highByUse   map[entity.UseCase]int
	piiByDept   map[string]int
	piiEvents   int
	highByUser  map[string]int

	enrichedCount  int
	minutesSaved   int
	valueCats      map[string]int

	earliest *time.Time
	latest   *time.Time

	// Medium 与 High 事件全部保留为候选发现，排序截断留到 Finalize
	findings []entity.RiskFinding
}

// NewAccumulator 构造空累加器
// topN 为最终保留的风险发现条数，rules 用于部门敏感度排序。
func NewAccumulator(rules *classify.Ruleset, topN int) *Accumulator {
	return &Accumulator{
		rules:      rules,
		topN:       topN,
		users:      make(map[string]struct{}),
		byProvider: make(map[entity.Provider]int),
		byDept:     make(map[string]int),
		byUseCase:  make(map[entity.UseCase]int),
		perDay:     make(map[string]int),
		highByDept: make(map[string]int),
		highByUse:  make(map[entity.UseCase]int),
		piiByDept:  make(map[string]int),
		highByUser: make(map[string]int),
		valueCats:  make(map[string]int),
	}
}

// Add 累加一条已分类事件
// 非 AI 流量只计入总记录数，不进入任何 AI 维度统计。
func (a *Accumulator) Add(ev *entity.AIUsageEvent) {
	a.totalRecords++
	if !ev.Provider.IsAI() {
		return
	}

	a.totalEvents++
	if ev.UserEmail != "" {
		a.users[ev.UserEmail] = struct{}{}
	}

	switch ev.RiskLevel {
	case entity.RiskHigh:
		a.riskCounts.High++
		a.highByDept[ev.Department]++
		a.highByUse[ev.UseCase]++
		if ev.UserEmail != "" {
			a.highByUser[ev.UserEmail]++
		}
	case entity.RiskMedium:
		a.riskCounts.Medium++
	default:
		a.riskCounts.Low++
	}

	a.byProvider[ev.Provider]++
	a.byDept[ev.Department]++
	a.byUseCase[ev.UseCase]++
	a.perDay[ev.Day()]++

	if ev.PIIRisk {
		a.piiEvents++
		a.piiByDept[ev.Department]++
	}

	if ev.Enriched() {
		a.enrichedCount++
		if ev.EstimatedMinutesSaved != nil {
			a.minutesSaved += *ev.EstimatedMinutesSaved
		}
		a.valueCats[*ev.ValueCategory]++
	}

	ts := ev.Timestamp
	if a.earliest == nil || ts.Before(*a.earliest) {
		t := ts
		a.earliest = &t
	}
	if a.latest == nil || ts.After(*a.latest) {
		t := ts
		a.latest = &t
	}

	if ev.RiskLevel.Rank() >= entity.RiskMedium.Rank() {
		a.findings = append(a.findings, entity.RiskFinding{
			EventID:        ev.ID,
			Timestamp:      ev.Timestamp,
			UserEmail:      ev.UserEmail,
			Department:     ev.Department,
			Provider:       ev.Provider,
			RiskLevel:      ev.RiskLevel,
			RiskReasons:    append([]string(nil), ev.RiskReasons...),
			Recommendation: recommendationFor(ev.RiskLevel),
		})
	}
}

// AddSkipped 记录被跳过的行数
func (a *Accumulator) AddSkipped(n int) {
	a.skippedRows += n
}

// Merge 并入另一个分片的累加结果
func (a *Accumulator) Merge(other *Accumulator) {
	a.totalRecords += other.totalRecords
	a.totalEvents += other.totalEvents
	a.skippedRows += other.skippedRows
	a.piiEvents += other.piiEvents
	a.enrichedCount += other.enrichedCount
	a.minutesSaved += other.minutesSaved

	a.riskCounts.Low += other.riskCounts.Low
	a.riskCounts.Medium += other.riskCounts.Medium
	a.riskCounts.High += other.riskCounts.High

	for u := range other.users {
		a.users[u] = struct{}{}
	}
	for k, v := range other.byProvider {
		a.byProvider[k] += v
	}
	for k, v := range other.byDept {
		a.byDept[k] += v
	}
	for k, v := range other.byUseCase {
		a.byUseCase[k] += v
	}
	for k, v := range other.perDay {
		a.perDay[k] += v
	}
	for k, v := range other.highByDept {
		a.highByDept[k] += v
	}
	for k, v := range other.highByUse {
		a.highByUse[k] += v
	}
	for k, v := range other.piiByDept {
		a.piiByDept[k] += v
	}
	for k, v := range other.highByUser {
		a.highByUser[k] += v
	}
	for k, v := range other.valueCats {
		a.valueCats[k] += v
	}

	if other.earliest != nil && (a.earliest == nil || other.earliest.Before(*a.earliest)) {
		t := *other.earliest
		a.earliest = &t
	}
	if other.latest != nil && (a.latest == nil || other.latest.After(*a.latest)) {
		t := *other.latest
		a.latest = &t
	}

	a.findings = append(a.findings, other.findings...)
}

// Finalize 产出汇总
// 此处才做排序与截断，保证合并顺序不影响结果。
func (a *Accumulator) Finalize() *entity.Summary {
	s := &entity.Summary{
		RiskCounts:           a.riskCounts,
		EventsByProvider:     copyMap(a.byProvider),
		EventsByDepartment:   copyMap(a.byDept),
		EventsByUseCase:      copyMap(a.byUseCase),
		EventsPerDay:         copyMap(a.perDay),
		HighRiskByDepartment: copyMap(a.highByDept),
		HighRiskByUseCase:    copyMap(a.highByUse),
		PIIByDepartment:      copyMap(a.piiByDept),
		GeneratedAt:          time.Now().UTC(),
	}

	s.KPIs = entity.KPIs{
		TotalRecords:       a.totalRecords,
		TotalEvents:        a.totalEvents,
		UniqueUsers:        len(a.users),
		AIUsagePercentage:  percentage(a.totalEvents, a.totalRecords),
		HighRiskEvents:     a.riskCounts.High,
		HighRiskPercentage: percentage(a.riskCounts.High, a.totalEvents),
		PIIEvents:          a.piiEvents,
		PIIPercentage:      percentage(a.piiEvents, a.totalEvents),
		EnrichedEvents:     a.enrichedCount,
		EnrichedPercentage: percentage(a.enrichedCount, a.totalEvents),
		TotalMinutesSaved:  a.minutesSaved,
		TotalHoursSaved:    round1(float64(a.minutesSaved) / 60),
		SkippedRows:        a.skippedRows,
	}

	if a.earliest != nil {
		t := *a.earliest
		s.TimeRange.Start = &t
	}
	if a.latest != nil {
		t := *a.latest
		s.TimeRange.End = &t
	}

	s.TopDepartments = topCounts(a.byDept, 5)
	s.TopHighRiskUsers = topCounts(a.highByUser, 5)
	s.TopRisks = a.topRisks()
	s.Recommendations = a.recommendations()
	s.ShadowAIProfile = a.profile()

	s.ValueEnrichment = entity.EnrichmentStats{
		EnrichedCount:       a.enrichedCount,
		TotalMinutesSaved:   a.minutesSaved,
		TotalHoursSaved:     round1(float64(a.minutesSaved) / 60),
		ValueCategoryCounts: a.valueCats,
	}
	if a.enrichedCount > 0 {
		s.ValueEnrichment.AverageMinutesPerEvent = round1(float64(a.minutesSaved) / float64(a.enrichedCount))
	}

	return s
}

// topRisks 排序候选发现并截断
// 等级降序，部门敏感度降序，时间降序；事件 ID 升序兜底，
// 保证相同输入集合在任何合并顺序下产出相同的前 N 条。
func (a *Accumulator) topRisks() []entity.RiskFinding {
	findings := append([]entity.RiskFinding(nil), a.findings...)
	sort.SliceStable(findings, func(i, j int) bool {
		fi, fj := &findings[i], &findings[j]
		if ri, rj := fi.RiskLevel.Rank(), fj.RiskLevel.Rank(); ri != rj {
			return ri > rj
		}
		if si, sj := a.rules.SensitivityRank(fi.Department), a.rules.SensitivityRank(fj.Department); si != sj {
			return si > sj
		}
		if !fi.Timestamp.Equal(fj.Timestamp) {
			return fi.Timestamp.After(fj.Timestamp)
		}
		return fi.EventID < fj.EventID
	})
	if a.topN > 0 && len(findings) > a.topN {
		findings = findings[:a.topN]
	}
	return findings
}

// topCounts 取计数最高的前 limit 项，计数降序、名称升序
func topCounts(m map[string]int, limit int) []entity.NameCount {
	out := make([]entity.NameCount, 0, len(m))
	for name, count := range m {
		out = append(out, entity.NameCount{Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func copyMap[K comparable](m map[K]int) map[K]int {
	out := make(map[K]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return round1(float64(part) / float64(total) * 100)
}
