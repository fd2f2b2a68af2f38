package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/shower-regulator/internal/status"
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
	"celsius": func(v float64) string { return fmt.Sprintf("%.1f °C", v) },
	"percent": func(v float64) string { return fmt.Sprintf("%.0f%%", v*100) },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Shower Regulator</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.digits { font-size: 2em; letter-spacing: 0.2em; }
.setpoint { color: #06c; }
.power { color: #c60; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Shower Regulator<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Water</h2>
<table>
<tr><th>Display</th><td id="display" class="digits {{if .Frame.Setpoint}}setpoint{{else}}power{{end}}">{{.Frame.Tens}}{{.Frame.Ones}}</td></tr>
<tr><th>Temperature</th><td id="temperature">{{celsius .Regulator.Temperature}}</td></tr>
<tr><th>Setpoint</th><td id="desired">{{celsius .Regulator.Desired}}</td></tr>
<tr><th>Power</th><td id="power">{{percent .Regulator.Duty}}</td></tr>
<tr><th>Ambient</th><td>{{celsius .Regulator.Ambient}}</td></tr>
<tr><th>Ready</th><td>{{if .Regulator.Started}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Firing</h2>
<table>
<tr><th>State</th><td id="firing-state">{{.FiringState}}</td></tr>
<tr><th>Timed pulses</th><td>{{.Firing.Fires}}</td></tr>
<tr><th>Full power pulses</th><td>{{.Firing.Immediate}}</td></tr>
<tr><th>Skipped</th><td>{{.Firing.Skipped}}</td></tr>
<tr><th>Trigger errors</th><td>{{.Firing.Errors}}</td></tr>
</table>

<h2>Counts</h2>
<table>
<tr><th>Half-cycles</th><td>{{.Regulator.Counts.HalfCycles}}</td></tr>
<tr><th>Control updates</th><td>{{.Regulator.Counts.ControlUpdates}}</td></tr>
<tr><th>Setpoint up</th><td>{{.Regulator.Counts.SetpointUp}}</td></tr>
<tr><th>Setpoint down</th><td>{{.Regulator.Counts.SetpointDown}}</td></tr>
<tr><th>Sensor errors</th><td>{{.Regulator.Counts.SensorErrors}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Mains</th><td>{{.Config.MainsHz}} Hz</td></tr>
<tr><th>Poll</th><td>{{.Config.PollUs}}µs</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }
  function text(id, v) {
    document.getElementById(id).textContent = v;
  }
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var s = JSON.parse(ev.data).status;
        var d = document.getElementById("display");
        d.textContent = s.display.digits;
        d.className = "digits " + s.display.mode;
        text("temperature", s.temperature_c.toFixed(1) + " °C");
        text("desired", s.desired_c.toFixed(1) + " °C");
        text("power", s.power_pct + "%");
        text("firing-state", s.firing.state);
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
