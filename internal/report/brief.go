package report

import (
	"context"
	"html/template"
	"io"
	"os"
	"path/filepath"
	"sort"

	"shadow-ai-sentinel/internal/domain/entity"
	apperrors "shadow-ai-sentinel/pkg/errors"
	"shadow-ai-sentinel/pkg/logger"
)

// WriteExecBrief 渲染管理层简报
func (w *Writer) WriteExecBrief(ctx context.Context, summary *entity.Summary) error {
	path := filepath.Join(w.dir, ExecBriefFile)

	f, err := os.Create(path)
	if err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternalError, "failed to create exec brief").
			WithDetail(path)
	}
	defer f.Close()

	if err := RenderExecBrief(f, summary); err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternalError, "failed to render exec brief").
			WithDetail(path)
	}
	logger.Info(ctx, "report artifact written", "path", path)
	return nil
}

// RenderExecBrief 把管理层简报渲染到任意输出
func RenderExecBrief(w io.Writer, summary *entity.Summary) error {
	return briefTemplate.Execute(w, briefData(summary))
}

type briefView struct {
	Summary   *entity.Summary
	Providers []entity.NameCount
}

// briefData 把 map 维度转成确定性排序的切片，模板渲染稳定
func briefData(summary *entity.Summary) briefView {
	providers := make([]entity.NameCount, 0, len(summary.EventsByProvider))
	for p, n := range summary.EventsByProvider {
		providers = append(providers, entity.NameCount{Name: string(p), Count: n})
	}
	sort.Slice(providers, func(i, j int) bool {
		if providers[i].Count != providers[j].Count {
			return providers[i].Count > providers[j].Count
		}
		return providers[i].Name < providers[j].Name
	})
	return briefView{Summary: summary, Providers: providers}
}

var briefTemplate = template.Must(template.New("exec_brief").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Shadow AI Executive Brief</title>
<style>
body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem auto; max-width: 880px; color: #1a1a2e; }
h1 { border-bottom: 2px solid #16213e; padding-bottom: .4rem; }
.kpis { display: flex; flex-wrap: wrap; gap: 1rem; margin: 1.5rem 0; }
.kpi { border: 1px solid #d0d0e0; border-radius: 8px; padding: 1rem 1.4rem; min-width: 140px; }
.kpi .value { font-size: 1.8rem; font-weight: 700; }
.kpi .label { color: #555; font-size: .85rem; }
table { border-collapse: collapse; width: 100%; margin: 1rem 0; }
th, td { border: 1px solid #d0d0e0; padding: .45rem .7rem; text-align: left; font-size: .9rem; }
th { background: #f4f4fb; }
.risk-high { color: #c0392b; font-weight: 600; }
.risk-medium { color: #d68910; font-weight: 600; }
.risk-low { color: #1e8449; }
footer { color: #777; font-size: .8rem; margin-top: 2rem; }
</style>
</head>
<body>
<h1>Shadow AI Executive Brief</h1>
<p>{{ .Summary.ShadowAIProfile }}</p>

<div class="kpis">
  <div class="kpi"><div class="value">{{ .Summary.KPIs.TotalEvents }}</div><div class="label">AI events</div></div>
  <div class="kpi"><div class="value">{{ .Summary.KPIs.AIUsagePercentage }}%</div><div class="label">of all traffic</div></div>
  <div class="kpi"><div class="value">{{ .Summary.KPIs.UniqueUsers }}</div><div class="label">unique users</div></div>
  <div class="kpi"><div class="value risk-high">{{ .Summary.KPIs.HighRiskEvents }}</div><div class="label">high-risk events</div></div>
  <div class="kpi"><div class="value">{{ .Summary.KPIs.PIIEvents }}</div><div class="label">PII exposure signals</div></div>
  <div class="kpi"><div class="value">{{ .Summary.KPIs.TotalHoursSaved }}</div><div class="label">estimated hours saved</div></div>
</div>

<h2>Usage by provider</h2>
<table>
<tr><th>Provider</th><th>Events</th></tr>
{{ range .Providers }}<tr><td>{{ .Name }}</td><td>{{ .Count }}</td></tr>
{{ end }}</table>

<h2>Top departments</h2>
<table>
<tr><th>Department</th><th>Events</th></tr>
{{ range .Summary.TopDepartments }}<tr><td>{{ .Name }}</td><td>{{ .Count }}</td></tr>
{{ end }}</table>

<h2>Top risk findings</h2>
<table>
<tr><th>When</th><th>User</th><th>Department</th><th>Provider</th><th>Level</th><th>Reasons</th><th>Recommendation</th></tr>
{{ range .Summary.TopRisks }}<tr>
<td>{{ .Timestamp.Format "2006-01-02 15:04" }}</td>
<td>{{ .UserEmail }}</td>
<td>{{ .Department }}</td>
<td>{{ .Provider }}</td>
<td class="risk-{{ .RiskLevel }}">{{ .RiskLevel }}</td>
<td>{{ range $i, $r := .RiskReasons }}{{ if $i }}, {{ end }}{{ $r }}{{ end }}</td>
<td>{{ .Recommendation }}</td>
</tr>
{{ end }}</table>

<h2>Recommendations</h2>
<ul>
{{ range .Summary.Recommendations }}<li>{{ . }}</li>
{{ end }}</ul>

<footer>Generated {{ .Summary.GeneratedAt.Format "2006-01-02 15:04:05 MST" }} &middot; {{ .Summary.KPIs.SkippedRows }} rows skipped during ingestion</footer>
</body>
</html>
`))
