package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/http-gpio/internal/status"
)

var statusTmpl = template.Must(template.New("status").Funcs(template.FuncMap{
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
	"utc": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
}).Parse(statusHTML))

const statusHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>GPIO</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.high { color: green; font-weight: bold; }
.low { color: #888; }
.failed { color: red; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>GPIO</h1>

<h2>Claimed lines</h2>
{{if .Claimed}}<table>
<tr><th>Chip</th><th>Pin</th><th>Direction</th><th>Claimed</th></tr>
{{range .Claimed}}<tr><td>{{.Key.Chip}}</td><td>{{.Key.Pin}}</td><td>{{.Key.Direction}}</td><td>{{utc .ClaimedAt}}</td></tr>
{{end}}</table>{{else}}<p>none</p>{{end}}

<h2>Last operations</h2>
{{if .Pins}}<table>
<tr><th>Line</th><th>Event</th><th>Value</th><th>Ops</th></tr>
{{range .Pins}}<tr><td>{{.Key}}</td><td>{{.LastEvent}}</td>{{if .Error}}<td class="failed">{{.Error}}</td>{{else}}<td class="{{if eq .Value 1}}high{{else}}low{{end}}">{{.Value}}</td>{{end}}<td>{{.Ops}}</td></tr>
{{end}}</table>{{else}}<p>none</p>{{end}}

<h2>Counts</h2>
<table>
<tr><th>Writes</th><td>{{.Counts.Writes}}</td></tr>
<tr><th>Reads</th><td>{{.Counts.Reads}}</td></tr>
<tr><th>Failures</th><td>{{.Counts.Failures}}</td></tr>
<tr><th>Cache claims</th><td>{{.CacheStats.Claims}}</td></tr>
<tr><th>Cache hits</th><td>{{.CacheStats.Hits}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{utc .StartTime}}</td></tr>
<tr><th>Listen</th><td>{{.Config.Listen}}</td></tr>
<tr><th>Consumer</th><td>{{.Config.Consumer}}</td></tr>
<tr><th>Settle</th><td>{{if eq .Config.SettleMs 0}}none{{else}}{{.Config.SettleMs}}ms{{end}}</td></tr>
{{if .Config.Broker}}<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{.Config.Broker}} ({{if .MQTTConnected}}connected{{else}}disconnected{{end}})</td></tr>{{end}}
</table>

<p><a href="/gpio/status">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return statusTmpl.Execute(w, data)
}
