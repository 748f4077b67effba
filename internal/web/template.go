package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/blind-control/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"actionOrDash": func(s string) string {
		if s == "" {
			return "—"
		}
		return s
	},
	"percent": func(pos, max int) int {
		if max <= 0 {
			return 0
		}
		return pos * 100 / max
	},
	"localTime": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("15:04:05")
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Blind Control</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.bar { background: #eee; width: 120px; height: 10px; display: inline-block; vertical-align: middle; }
.bar span { background: #4a90d9; height: 10px; display: block; }
.connected { color: green; }
.disconnected { color: red; }
.sim { color: orange; }
</style>
</head>
<body>
<h1>Blind Control</h1>

<table>
<tr><th>Channel</th><th>Position</th><th>Last action</th></tr>
{{range .Channels}}
<tr>
<td>{{.Nr}}</td>
<td><div class="bar"><span style="width: {{percent .Position $.Config.MaxPosition}}%"></span></div> {{.Position}} / {{$.Config.MaxPosition}}</td>
<td>{{actionOrDash .LastAction}}{{if not .LastActionAt.IsZero}} at {{localTime .LastActionAt}}{{end}}</td>
</tr>
{{end}}
</table>

<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Commands</th><td>{{.Counts.Commands}} ok, {{.Counts.Rejected}} rejected</td></tr>
<tr><th>Hardware</th><td>{{if .Config.Hardware}}GPIO{{else}}<span class="sim">simulated</span>{{end}}</td></tr>
{{if .Config.Broker}}
<tr><th>MQTT</th><td>{{if .MQTTConnected}}<span class="connected">connected</span>{{else}}<span class="disconnected">disconnected</span>{{end}} ({{.Config.Broker}})</td></tr>
{{end}}
<tr><th>State file</th><td>{{.Config.StateFile}}</td></tr>
</table>

</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Rendering errors are rare (broken pipe); nothing useful to do here.
	_ = indexTmpl.Execute(w, snap)
}
