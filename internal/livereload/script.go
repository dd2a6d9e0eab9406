package livereload

import "strings"

// ScriptPath is where the client script is served.
const ScriptPath = "/livereload.js"

// Script connects over WebSocket and falls back to server-sent events.
const Script = `(() => {
  if (window.__WEBPUB_LR__) return;
  window.__WEBPUB_LR__ = true;
  const proto = location.protocol === "https:" ? "wss:" : "ws:";
  function onMessage(data) {
    if (data === "reload") { console.log("[webpub] reloading"); location.reload(); }
  }
  function sse() {
    const es = new EventSource("/livereload/events");
    es.onmessage = (e) => onMessage(e.data);
  }
  function connect() {
    if (!("WebSocket" in window)) { sse(); return; }
    const ws = new WebSocket(proto + "//" + location.host + "/livereload");
    ws.onmessage = (e) => onMessage(e.data);
    ws.onclose = () => setTimeout(connect, 1000);
  }
  connect();
})();
`

const snippet = `<script src="` + ScriptPath + `"></script>`

// Inject adds the client script tag before the closing body tag, or appends it
// when there is none.
func Inject(html string) string {
	idx := lastIndexFold(html, "</body>")
	if idx < 0 {
		return html + snippet
	}
	return html[:idx] + snippet + html[idx:]
}

func lastIndexFold(s, substr string) int {
	for i := len(s) - len(substr); i >= 0; i-- {
		if strings.EqualFold(s[i:i+len(substr)], substr) {
			return i
		}
	}
	return -1
}
