package console

// indexPage is the minimal web page served at /. It drives the JSON API
// directly; there is no build step.
const indexPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>mockdeck</title>
<style>
  body { font-family: system-ui, sans-serif; margin: 2rem auto; max-width: 48rem; }
  button { margin-right: .5rem; }
  pre { background: #f4f4f4; padding: 1rem; overflow: auto; max-height: 24rem; }
  .row { margin: 1rem 0; }
</style>
</head>
<body>
<h1>mockdeck</h1>
<div class="row">
  <input type="file" id="spec" accept=".yaml,.yml,.json">
  <button onclick="upload()">Upload spec</button>
</div>
<div class="row">
  <label>Port <input type="number" id="port" value="8000" style="width:6rem"></label>
  <label>Host <input type="text" id="host" value="0.0.0.0" style="width:8rem"></label>
  <button onclick="start()">Start</button>
  <button onclick="stop()">Stop</button>
  <button onclick="refresh()">Refresh</button>
</div>
<div class="row" id="state"></div>
<h2>Logs</h2>
<pre id="logs"></pre>
<script>
async function api(path, opts) {
  const res = await fetch(path, opts);
  if (res.status === 204) return null;
  return res.json();
}
async function upload() {
  const f = document.getElementById('spec').files[0];
  if (!f) return;
  const form = new FormData();
  form.append('file', f);
  await api('/specs', {method: 'POST', body: form});
  refresh();
}
async function start() {
  const port = parseInt(document.getElementById('port').value, 10);
  const host = document.getElementById('host').value;
  await api('/server/start', {
    method: 'POST',
    headers: {'Content-Type': 'application/json'},
    body: JSON.stringify({port, host}),
  });
  refresh();
}
async function stop() {
  await api('/server/stop', {method: 'POST'});
  refresh();
}
async function refresh() {
  const status = await api('/status');
  const e = status.engine;
  document.getElementById('state').textContent = e.running
    ? 'running pid=' + e.pid + ' at ' + e.baseUrl + (e.ready ? '' : ' (not ready)')
    : 'stopped';
  const logs = await api('/server/logs');
  document.getElementById('logs').textContent = logs.content;
}
refresh();
setInterval(refresh, 3000);
</script>
</body>
</html>
`
