package alerts

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/Edgar-Del/malaria-predict-mono/internal/models"
)

var emailTmpl = template.Must(template.New("alert_email").Funcs(template.FuncMap{
	"pct": func(v float64) float64 { return v * 100 },
}).Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: Arial, sans-serif; color: #333;">
  <h2>{{.Alert.Subject}}</h2>
  <p><strong>{{.Alert.Message}}</strong></p>
  <p>Epidemiological week: {{.Alert.EpiWeek}} &middot; Level: {{.Alert.Level}} &middot; High risk: {{printf "%.1f" .Alert.PctHighRisk}}%</p>

  {{if .HighRisk}}
  <h3>High-risk municipalities</h3>
  {{range .HighRisk}}
  <div style="background-color:#f8f9fa; padding:12px; margin:8px 0; border-left:4px solid #dc3545;">
    <h4 style="margin:0 0 6px 0;">{{.Municipality}}</h4>
    <p style="margin:0;">Risk score: {{printf "%.1f" (pct .RiskScore)}}% &middot;
       P(high): {{printf "%.1f" (pct .ProbHigh)}}% &middot;
       Model: {{.ModelVersion}}</p>
  </div>
  {{end}}
  {{end}}

  <h3>All predictions</h3>
  <table border="1" cellpadding="6" cellspacing="0" style="border-collapse:collapse;">
    <tr><th>Municipality</th><th>Week</th><th>Class</th><th>Score</th><th>P(low)</th><th>P(medium)</th><th>P(high)</th></tr>
    {{range .Alert.Predictions}}
    <tr>
      <td>{{.Municipality}}</td>
      <td>{{.TargetEpiWeek}}</td>
      <td>{{.RiskClass}}</td>
      <td>{{printf "%.1f" (pct .RiskScore)}}%</td>
      <td>{{printf "%.2f" .ProbLow}}</td>
      <td>{{printf "%.2f" .ProbMedium}}</td>
      <td>{{printf "%.2f" .ProbHigh}}</td>
    </tr>
    {{end}}
  </table>

  <h3>Recommendations</h3>
  <ul>
    {{range .Recommendations}}<li>{{.}}</li>{{end}}
  </ul>
</body>
</html>`))

// RenderEmail renders the HTML bulletin body.
func RenderEmail(alert models.Alert) (string, error) {
	data := struct {
		Alert           models.Alert
		HighRisk        []models.PredictionResult
		Recommendations []string
	}{
		Alert:           alert,
		HighRisk:        alert.HighRisk(),
		Recommendations: Recommendations(alert),
	}
	var buf strings.Builder
	if err := emailTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render alert email: %w", err)
	}
	return buf.String(), nil
}

// RenderTelegram renders the short markdown summary pushed to chats.
func RenderTelegram(alert models.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n%s\n", alert.Subject, alert.Message)
	for _, p := range alert.HighRisk() {
		fmt.Fprintf(&b, "\n• %s: score %.0f%%, P(high) %.0f%%", p.Municipality, p.RiskScore*100, p.ProbHigh*100)
	}
	return b.String()
}
