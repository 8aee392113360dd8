package http

import nethttp "net/http"

func dashboardHandler(w nethttp.ResponseWriter, r *nethttp.Request) {
	if r.URL.Path != "/" {
		nethttp.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(nethttp.StatusOK)
	_, _ = w.Write([]byte(dashboardHTML))
}

func faviconHandler(w nethttp.ResponseWriter, _ *nethttp.Request) {
	w.WriteHeader(nethttp.StatusNoContent)
}

const dashboardHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Parametric Simulation Tracker</title>
  <style>
    @import url("https://fonts.googleapis.com/css?family=Open+Sans:300,400,600,700");

    :root {
      --brand: #0e5d8f;
      --brand-2: #0971b2;
      --bg: #f7f7f7;
      --paper: #fff;
      --text: #333;
      --muted: #777;
      --line: #ddd;
      --line-soft: #eee;
      --head: #f0f0f0;
      --ok-bg: #dff0d8;
      --ok-text: #3c763d;
      --bad-bg: #f2dede;
      --bad-text: #a94442;
    }

    * { box-sizing: border-box; }

    body {
      margin: 0;
      background: var(--bg);
      color: var(--text);
      font-family: "Open Sans", "Helvetica Neue", Helvetica, Arial, sans-serif;
      font-size: 14px;
      line-height: 1.42857143;
    }

    a { color: #428bca; text-decoration: none; }
    a:hover { color: #2a6496; text-decoration: underline; }

    header {
      background: linear-gradient(to right, var(--brand) 0, var(--brand-2) 100%);
      border-bottom: 1px solid #0b4e79;
      box-shadow: 0 2px 5px rgba(0, 0, 0, 0.15);
    }

    .container {
      margin-right: auto;
      margin-left: auto;
      padding-left: 15px;
      padding-right: 15px;
      width: 100%;
      max-width: 1480px;
    }

    .header-inner {
      min-height: 70px;
      display: flex;
      align-items: center;
      justify-content: space-between;
      gap: 16px;
    }

    .navbar-brand {
      color: #fff;
      font-size: 22px;
      font-weight: 300;
      letter-spacing: 0.2px;
    }

    .navbar-brand strong { font-weight: 600; }

    .navbar-note {
      color: rgba(255, 255, 255, 0.88);
      font-size: 13px;
      font-weight: 300;
      text-align: right;
    }

    .demo-banner {
      text-align: center;
      background-color: #ffb400;
      padding: 9px 8px 8px;
      border-top: 1px solid #0b4eac;
      box-shadow: inset 1px 1px 1px rgba(125, 125, 125, 0.2);
      font-size: 13px;
      color: #222;
    }

    main { padding: 18px 0 32px; }

    .tabs {
      display: flex;
      gap: 8px;
      margin-bottom: 14px;
      border-bottom: 1px solid var(--line);
      padding-bottom: 8px;
    }

    .tab-btn {
      border: 1px solid #c7d7e5;
      background: #f3f8fc;
      color: #0e5d8f;
      padding: 6px 10px;
      font-size: 12px;
      font-weight: 600;
      cursor: pointer;
    }

    .tab-btn.active {
      background: #0e5d8f;
      color: #fff;
      border-color: #0e5d8f;
    }

    .tab-pane { display: none; }
    .tab-pane.active { display: block; }

    .sheet {
      background: var(--paper);
      border: 1px solid var(--line);
      box-shadow: 0 1px 2px rgba(0, 0, 0, 0.05);
      padding: 16px;
      margin-bottom: 16px;
    }

    h1 {
      margin: 0 0 12px;
      font-size: 30px;
      font-weight: 300;
      border-bottom: 1px solid var(--line-soft);
      padding-bottom: 8px;
      color: #444;
    }

    h2 {
      margin: 20px 0 10px;
      font-size: 22px;
      font-weight: 400;
      color: #444;
      border-bottom: 1px solid var(--line-soft);
      padding-bottom: 6px;
    }

    h3 {
      margin: 0;
      font-size: 16px;
      font-weight: 600;
      color: #444;
    }

    .kpi-grid {
      display: grid;
      gap: 12px;
      grid-template-columns: repeat(4, minmax(0, 1fr));
      margin: 10px 0 14px;
    }

    .kpi {
      border: 1px solid var(--line);
      background: var(--paper);
      padding: 10px 12px;
    }

    .kpi-label {
      color: var(--muted);
      font-size: 11px;
      text-transform: uppercase;
      letter-spacing: 0.5px;
    }

    .kpi-value {
      font-size: 26px;
      font-weight: 600;
      color: #0e5d8f;
      margin-top: 2px;
    }

    .panel-grid {
      display: grid;
      gap: 14px;
      grid-template-columns: 1fr 1fr;
      margin-bottom: 14px;
    }

    .panel {
      border: 1px solid var(--line);
      background: var(--paper);
    }

    .panel-heading {
      padding: 10px 12px;
      border-bottom: 1px solid var(--line);
      background: var(--head);
      display: flex;
      align-items: center;
      justify-content: space-between;
      gap: 8px;
      flex-wrap: wrap;
    }

    .panel-body { padding: 10px 12px 12px; }

    table {
      width: 100%;
      max-width: 100%;
      border-collapse: collapse;
    }

    th,
    td {
      padding: 7px 8px;
      line-height: 1.42857143;
      vertical-align: middle;
      border-top: 1px solid var(--line);
      text-align: left;
      font-size: 13px;
    }

    thead th {
      vertical-align: bottom;
      border-bottom: 2px solid var(--line);
      border-top: 0;
      color: #555;
      font-size: 11px;
      text-transform: uppercase;
      letter-spacing: 0.5px;
      background: #fafafa;
    }

    tbody tr:nth-child(odd) td { background: #f9f9f9; }

    .row-failed td { background: #fdf2f2 !important; color: #8f2c2a; }
    .row-dirty td { background: #fff7e6 !important; }

    .pill {
      display: inline-block;
      border-radius: 2px;
      font-size: 11px;
      padding: 2px 6px;
      font-weight: 700;
      border: 1px solid transparent;
      text-transform: uppercase;
      letter-spacing: 0.2px;
    }

    .ok { color: var(--ok-text); background: var(--ok-bg); border-color: #d6e9c6; }
    .bad { color: var(--bad-text); background: var(--bad-bg); border-color: #ebccd1; }
    .warn { color: #8a6d3b; background: #fcf8e3; border-color: #faebcc; }
    .info { color: #31708f; background: #d9edf7; border-color: #bce8f1; }
    .idle { color: #555; background: #eee; border-color: #ddd; }

    .mono {
      font-family: Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace;
      word-break: break-all;
    }

    canvas {
      width: 100%;
      height: 220px;
      border: 1px solid var(--line);
      background: #fff;
    }

    .hint {
      margin-top: 8px;
      color: var(--muted);
      font-size: 12px;
    }

    select, input[type="number"], input[type="text"] {
      padding: 4px 6px;
      border: 1px solid #ccc;
      font-size: 13px;
    }

    pre {
      margin: 0;
      padding: 10px;
      border: 1px solid var(--line);
      background: #fafafa;
      max-height: 340px;
      overflow: auto;
      white-space: pre-wrap;
      font: 12px/1.4 Menlo, Monaco, Consolas, "Liberation Mono", "Courier New", monospace;
    }

    .advisor-text {
      font: 13px/1.5 "Open Sans", sans-serif;
      white-space: pre-wrap;
      max-height: 420px;
      overflow: auto;
      border: 1px solid var(--line);
      background: #fafdff;
      padding: 12px;
    }

    .service-table td, .service-table th { font-size: 12px; }

    @media (max-width: 1024px) {
      .kpi-grid { grid-template-columns: repeat(2, minmax(0, 1fr)); }
      .panel-grid { grid-template-columns: 1fr; }
    }

    @media (max-width: 640px) {
      .header-inner {
        flex-direction: column;
        align-items: flex-start;
        justify-content: center;
        padding: 10px 0;
      }
      .navbar-note { text-align: left; }
      .kpi-grid { grid-template-columns: 1fr; }
      h1 { font-size: 26px; }
    }
  </style>
</head>
<body>
  <header>
    <div class="container header-inner">
      <div class="navbar-brand"><strong>Parametric</strong> Simulation Tracker</div>
      <div class="navbar-note">Building energy model batch monitoring</div>
    </div>
  </header>

  <div class="demo-banner">Session-scoped demo matrix. Statuses are simulated at startup; edits live in memory until the session is reset.</div>

  <main>
    <div class="container">
      <div class="sheet">
        <div class="tabs">
          <button class="tab-btn active" data-tab="overview">Overview</button>
          <button class="tab-btn" data-tab="matrix">Batch Matrix</button>
          <button class="tab-btn" data-tab="advisor">AI Advisor</button>
          <button class="tab-btn" data-tab="services">Services Status</button>
        </div>

        <section id="tab-overview" class="tab-pane active">
          <h1>Simulation Overview</h1>

          <div class="kpi-grid">
            <article class="kpi"><div class="kpi-label">Progress</div><div class="kpi-value" id="kpi-progress">-</div></article>
            <article class="kpi"><div class="kpi-label">Active (Queued + Running)</div><div class="kpi-value" id="kpi-active">-</div></article>
            <article class="kpi"><div class="kpi-label">Failures</div><div class="kpi-value" id="kpi-failed">-</div></article>
            <article class="kpi"><div class="kpi-label">Total Permutations</div><div class="kpi-value" id="kpi-permutations">-</div></article>
          </div>

          <section class="panel-grid">
            <article class="panel">
              <div class="panel-heading"><h3>Status Distribution</h3></div>
              <div class="panel-body">
                <canvas id="status-chart" width="560" height="220"></canvas>
                <div class="hint">Source: <span class="mono">/api/v1/stats</span></div>
              </div>
            </article>
            <article class="panel">
              <div class="panel-heading">
                <h3>Breakdown</h3>
                <label>Dimension
                  <select id="breakdown-dimension">
                    <option value="archetype">Archetype</option>
                    <option value="layout">Layout</option>
                    <option value="location">Location</option>
                    <option value="zone">Climate Zone</option>
                    <option value="hvac">HVAC System</option>
                  </select>
                </label>
              </div>
              <div class="panel-body">
                <canvas id="breakdown-chart" width="560" height="220"></canvas>
                <div class="hint">Source: <span class="mono">/api/v1/charts/status-breakdown</span></div>
              </div>
            </article>
          </section>

          <article class="panel">
            <div class="panel-heading">
              <h3>Session</h3>
              <button class="tab-btn" id="session-reset" type="button">Reset Session Matrix</button>
            </div>
            <div class="panel-body">
              <div class="hint" id="session-info">Loading...</div>
            </div>
          </article>
        </section>

        <section id="tab-matrix" class="tab-pane">
          <h1>Batch Matrix</h1>

          <article class="panel">
            <div class="panel-heading">
              <h3>Batches</h3>
              <div style="display:flex;gap:10px;align-items:center;flex-wrap:wrap">
                <label>Archetype
                  <select id="filter-archetype"><option value="">All</option></select>
                </label>
                <label>Status
                  <select id="filter-status">
                    <option value="">All</option>
                    <option value="PENDING">PENDING</option>
                    <option value="QUEUED">QUEUED</option>
                    <option value="RUNNING">RUNNING</option>
                    <option value="COMPLETED">COMPLETED</option>
                    <option value="FAILED">FAILED</option>
                  </select>
                </label>
                <label>Limit
                  <input id="filter-limit" type="number" min="1" max="2000" value="200" style="width:80px" />
                </label>
                <button class="tab-btn" id="matrix-refresh" type="button">Refresh</button>
                <button class="tab-btn" id="matrix-save" type="button">Save Changes</button>
              </div>
            </div>
            <div class="panel-body">
              <div class="hint" id="matrix-summary">Loading...</div>
              <table>
                <thead><tr><th>Batch ID</th><th>Archetype</th><th>Layout</th><th>Location</th><th>Zone</th><th>HVAC</th><th>Status</th><th>Last Updated</th></tr></thead>
                <tbody id="matrix-body"><tr><td colspan="8">Loading...</td></tr></tbody>
              </table>
            </div>
          </article>
        </section>

        <section id="tab-advisor" class="tab-pane">
          <h1>AI Failure Advisor</h1>

          <article class="panel">
            <div class="panel-heading">
              <h3>Failure Analysis</h3>
              <button class="tab-btn" id="advisor-run" type="button">Analyze Failures</button>
            </div>
            <div class="panel-body">
              <div class="hint" id="advisor-meta">No analysis yet.</div>
              <div class="advisor-text" id="advisor-text">Press "Analyze Failures" to ask the advisor about the current FAILED batches.</div>
            </div>
          </article>

          <article class="panel">
            <div class="panel-heading">
              <h3>Run Log Snapshots</h3>
              <div style="display:flex;gap:8px;align-items:center">
                <input id="snapshot-label" type="text" placeholder="label (optional)" style="min-width:160px" />
                <button class="tab-btn" id="snapshot-save" type="button">Save Snapshot</button>
              </div>
            </div>
            <div class="panel-body">
              <table class="service-table">
                <thead><tr><th>ID</th><th>Label</th><th>Progress</th><th>Completed</th><th>Failed</th><th>Created</th></tr></thead>
                <tbody id="snapshot-body"><tr><td colspan="6">Loading...</td></tr></tbody>
              </table>
              <div class="hint" id="snapshot-hint"></div>
            </div>
          </article>
        </section>

        <section id="tab-services" class="tab-pane">
          <h1>Services Status</h1>

          <section class="panel-grid">
            <article class="panel">
              <div class="panel-heading"><h3>Integrations</h3></div>
              <div class="panel-body">
                <table class="service-table">
                  <thead><tr><th>Service</th><th>Status</th><th>Detail</th></tr></thead>
                  <tbody id="services-body"><tr><td colspan="3">Loading...</td></tr></tbody>
                </table>
              </div>
            </article>
            <article class="panel">
              <div class="panel-heading"><h3>App Metrics: Slow Endpoints</h3></div>
              <div class="panel-body">
                <table class="service-table">
                  <thead><tr><th>Method</th><th>Path</th><th>Status</th><th>Count</th><th>Avg ms</th></tr></thead>
                  <tbody id="services-http-body"><tr><td colspan="5">Loading...</td></tr></tbody>
                </table>
                <div class="hint" id="services-errors">Errors: -</div>
              </div>
            </article>
          </section>
        </section>
      </div>
    </div>
  </main>

  <script>
    const q = (s) => document.querySelector(s);
    const qq = (s) => Array.from(document.querySelectorAll(s));
    const text = (id, v) => document.getElementById(id).textContent = v;

    const STATUS_ORDER = ['PENDING', 'QUEUED', 'RUNNING', 'COMPLETED', 'FAILED'];
    const STATUS_COLORS = {
      PENDING: '#9aa7b2',
      QUEUED: '#31708f',
      RUNNING: '#f0ad4e',
      COMPLETED: '#3c763d',
      FAILED: '#a94442',
    };

    let matrixRows = [];
    let dirtyEdits = {};

    async function getJSON(url) {
      const r = await fetch(url);
      if (!r.ok) throw new Error(url + " -> " + r.status);
      return r.json();
    }

    function statusPill(status) {
      const cls = { PENDING: 'idle', QUEUED: 'info', RUNNING: 'warn', COMPLETED: 'ok', FAILED: 'bad' }[status] || 'idle';
      return '<span class="pill ' + cls + '">' + status + '</span>';
    }

    function switchTab(tab) {
      qq('.tab-btn[data-tab]').forEach((b) => b.classList.toggle('active', b.dataset.tab === tab));
      qq('.tab-pane').forEach((p) => p.classList.toggle('active', p.id === 'tab-' + tab));
      if (tab === 'matrix') loadMatrix();
      if (tab === 'advisor') { loadAdvisorLast(); loadSnapshots(); }
      if (tab === 'services') loadServicesStatus();
    }

    function drawBars(canvasId, labels, values, colors) {
      const canvas = q('#' + canvasId);
      const ctx = canvas.getContext('2d');
      const W = canvas.width, H = canvas.height;
      ctx.clearRect(0, 0, W, H);
      const max = Math.max(1, ...values);
      const pad = 28;
      const barW = (W - pad * 2) / Math.max(1, labels.length);
      ctx.font = '10px sans-serif';
      ctx.textAlign = 'center';
      labels.forEach((label, i) => {
        const h = ((H - pad * 2) * values[i]) / max;
        const x = pad + i * barW;
        ctx.fillStyle = colors[i] || '#0e5d8f';
        ctx.fillRect(x + barW * 0.15, H - pad - h, barW * 0.7, h);
        ctx.fillStyle = '#555';
        ctx.fillText(String(values[i]), x + barW / 2, H - pad - h - 4);
        ctx.fillText(label, x + barW / 2, H - pad + 12);
      });
      ctx.strokeStyle = '#ddd';
      ctx.beginPath();
      ctx.moveTo(pad, H - pad);
      ctx.lineTo(W - pad, H - pad);
      ctx.stroke();
    }

    function drawStackedBars(canvasId, groups) {
      const canvas = q('#' + canvasId);
      const ctx = canvas.getContext('2d');
      const W = canvas.width, H = canvas.height;
      ctx.clearRect(0, 0, W, H);
      const labels = Object.keys(groups);
      const totals = labels.map((l) => STATUS_ORDER.reduce((acc, s) => acc + (groups[l][s] || 0), 0));
      const max = Math.max(1, ...totals);
      const pad = 28;
      const barW = (W - pad * 2) / Math.max(1, labels.length);
      ctx.font = '10px sans-serif';
      ctx.textAlign = 'center';
      labels.forEach((label, i) => {
        const x = pad + i * barW;
        let y = H - pad;
        STATUS_ORDER.forEach((s) => {
          const v = groups[label][s] || 0;
          if (!v) return;
          const h = ((H - pad * 2) * v) / max;
          ctx.fillStyle = STATUS_COLORS[s];
          ctx.fillRect(x + barW * 0.15, y - h, barW * 0.7, h);
          y -= h;
        });
        ctx.fillStyle = '#555';
        const shown = label.length > 9 ? label.slice(0, 8) + '…' : label;
        ctx.fillText(shown, x + barW / 2, H - pad + 12);
      });
      ctx.strokeStyle = '#ddd';
      ctx.beginPath();
      ctx.moveTo(pad, H - pad);
      ctx.lineTo(W - pad, H - pad);
      ctx.stroke();
    }

    async function loadStats() {
      try {
        const res = await getJSON('/api/v1/stats');
        const d = res.data || {};
        const counts = d.counts_by_status || {};
        text('kpi-progress', (d.progress_percent ?? 0).toFixed(1) + '%');
        text('kpi-active', String((counts.QUEUED || 0) + (counts.RUNNING || 0)));
        text('kpi-failed', String(counts.FAILED || 0));
        text('kpi-permutations', Number(d.total_permutations || 0).toLocaleString());
        drawBars('status-chart',
          STATUS_ORDER,
          STATUS_ORDER.map((s) => counts[s] || 0),
          STATUS_ORDER.map((s) => STATUS_COLORS[s]));
        text('session-info', 'Batches: ' + (d.total || 0) + ' / Permutations per batch: 81 / Matrix built at: ' + (res.meta?.built_at || '-'));
      } catch (err) {
        text('session-info', 'Failed to load stats: ' + err.message);
      }
    }

    async function loadBreakdown() {
      const dim = q('#breakdown-dimension').value || 'archetype';
      try {
        const res = await getJSON('/api/v1/charts/status-breakdown?dimension=' + encodeURIComponent(dim));
        const groups = {};
        (res.data || []).forEach((g) => {
          groups[g.value] = groups[g.value] || {};
          groups[g.value][g.status] = g.count;
        });
        drawStackedBars('breakdown-chart', groups);
      } catch (err) {
        // chart stays stale on fetch error
      }
    }

    async function loadCatalog() {
      try {
        const res = await getJSON('/api/v1/catalog');
        const sel = q('#filter-archetype');
        (res.data?.archetypes || []).forEach((a) => {
          const opt = document.createElement('option');
          opt.value = a.id;
          opt.textContent = a.name;
          sel.appendChild(opt);
        });
      } catch (err) {
        // archetype filter falls back to "All"
      }
    }

    function renderMatrix() {
      const tbody = q('#matrix-body');
      tbody.innerHTML = '';
      matrixRows.forEach((row) => {
        const edited = dirtyEdits[row.batch_id] !== undefined;
        const shownStatus = edited ? dirtyEdits[row.batch_id] : row.status;
        const tr = document.createElement('tr');
        if (edited) tr.classList.add('row-dirty');
        else if (row.status === 'FAILED') tr.classList.add('row-failed');
        const opts = STATUS_ORDER.map((s) =>
          '<option value="' + s + '"' + (s === shownStatus ? ' selected' : '') + '>' + s + '</option>').join('');
        tr.innerHTML =
          '<td class="mono">' + row.batch_id + '</td>' +
          '<td>' + row.archetype + '</td>' +
          '<td>' + row.layout + '</td>' +
          '<td>' + row.location + '</td>' +
          '<td>' + row.zone + '</td>' +
          '<td>' + row.hvac + '</td>' +
          '<td><select data-batch="' + row.batch_id + '">' + opts + '</select> ' + statusPill(row.status) + '</td>' +
          '<td class="mono">' + new Date(row.last_updated).toLocaleTimeString() + '</td>';
        tbody.appendChild(tr);
      });
      if (!tbody.children.length) {
        tbody.innerHTML = '<tr><td colspan="8">No batches match the selected filters.</td></tr>';
      }
      qq('#matrix-body select').forEach((sel) => {
        sel.addEventListener('change', () => {
          const id = sel.dataset.batch;
          const original = matrixRows.find((r) => r.batch_id === id);
          if (original && sel.value === original.status) delete dirtyEdits[id];
          else dirtyEdits[id] = sel.value;
          renderMatrix();
          updateMatrixSummary();
        });
      });
    }

    function updateMatrixSummary(meta) {
      const pending = Object.keys(dirtyEdits).length;
      let msg = '';
      if (meta) {
        msg = 'Showing ' + (meta.count || 0) + ' of ' + (meta.total || 0) + ' matching batches.';
      } else {
        msg = 'Showing ' + matrixRows.length + ' batches.';
      }
      if (pending > 0) msg += ' Unsaved edits: ' + pending + '.';
      text('matrix-summary', msg);
    }

    async function loadMatrix() {
      try {
        const params = new URLSearchParams();
        const archetype = q('#filter-archetype').value;
        const status = q('#filter-status').value;
        const limit = Math.max(1, Math.min(2000, Number(q('#filter-limit').value || 200)));
        if (archetype) params.set('archetype', archetype);
        if (status) params.set('status', status);
        params.set('limit', String(limit));
        const res = await getJSON('/api/v1/matrix?' + params.toString());
        matrixRows = res.data || [];
        renderMatrix();
        updateMatrixSummary(res.meta || null);
      } catch (err) {
        q('#matrix-body').innerHTML = '<tr><td colspan="8">Failed: ' + err.message + '</td></tr>';
      }
    }

    async function saveMatrixEdits() {
      const ids = Object.keys(dirtyEdits);
      if (!ids.length) {
        text('matrix-summary', 'No pending edits to save.');
        return;
      }
      const edits = matrixRows.map((r) => ({
        batch_id: r.batch_id,
        status: dirtyEdits[r.batch_id] !== undefined ? dirtyEdits[r.batch_id] : r.status,
      }));
      try {
        const res = await fetch('/api/v1/matrix/reconcile', {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify({ edits: edits }),
        });
        const payload = await res.json();
        if (!res.ok) throw new Error(payload.error || ('HTTP ' + res.status));
        dirtyEdits = {};
        text('matrix-summary', 'Saved: ' + (payload.data?.applied ?? 0) + ' applied, ' + (payload.data?.unchanged ?? 0) + ' unchanged.');
        await loadMatrix();
        await loadStats();
        await loadBreakdown();
      } catch (err) {
        text('matrix-summary', 'Save failed: ' + err.message);
      }
    }

    function renderAnalysis(meta, data) {
      if (!data) return;
      let info = '';
      if (data.skipped) {
        info = 'Nothing to analyze.';
      } else {
        info = 'Failed batches: ' + (data.failed_count ?? 0) +
          ' / Sampled: ' + (data.sample_size ?? 0) +
          ' / Generated at: ' + (data.generated_at ? new Date(data.generated_at).toLocaleString() : '-');
      }
      text('advisor-meta', info);
      text('advisor-text', data.text || '');
    }

    async function loadAdvisorLast() {
      try {
        const res = await getJSON('/api/v1/advisor');
        if (!res.meta?.enabled) {
          text('advisor-meta', 'Advisor disabled: no API key configured.');
          return;
        }
        if (res.meta?.has_analysis) renderAnalysis(res.meta, res.data);
      } catch (err) {
        text('advisor-meta', 'Failed to load advisor state: ' + err.message);
      }
    }

    async function runAdvisor() {
      text('advisor-meta', 'Analyzing failures...');
      try {
        const res = await fetch('/api/v1/advisor/analyze', { method: 'POST' });
        const payload = await res.json();
        if (!res.ok) {
          let msg = payload.error || ('HTTP ' + res.status);
          if (payload.hint) msg += ' (' + payload.hint + ')';
          text('advisor-meta', msg);
          if (payload.previous) renderAnalysis(payload.meta, payload.previous);
          return;
        }
        renderAnalysis(payload.meta, payload.data);
      } catch (err) {
        text('advisor-meta', 'Advisor call failed: ' + err.message);
      }
    }

    async function loadSnapshots() {
      try {
        const res = await getJSON('/api/v1/runlog/snapshots?limit=20');
        const tbody = q('#snapshot-body');
        tbody.innerHTML = '';
        (res.data || []).forEach((s) => {
          const tr = document.createElement('tr');
          tr.innerHTML =
            '<td>' + s.id + '</td>' +
            '<td>' + (s.label || '-') + '</td>' +
            '<td>' + Number(s.progress_percent || 0).toFixed(1) + '%</td>' +
            '<td>' + (s.completed || 0) + '</td>' +
            '<td>' + (s.failed || 0) + '</td>' +
            '<td class="mono">' + (s.created_at ? new Date(s.created_at).toLocaleString() : '-') + '</td>';
          tbody.appendChild(tr);
        });
        if (!tbody.children.length) {
          tbody.innerHTML = '<tr><td colspan="6">No snapshots yet.</td></tr>';
        }
        text('snapshot-hint', '');
      } catch (err) {
        q('#snapshot-body').innerHTML = '<tr><td colspan="6">Snapshot archive unavailable.</td></tr>';
        text('snapshot-hint', 'Set APP_RUNLOG_SQLITE_PATH to enable snapshot archiving.');
      }
    }

    async function saveSnapshot() {
      try {
        const res = await fetch('/api/v1/runlog/snapshots', {
          method: 'POST',
          headers: { 'Content-Type': 'application/json' },
          body: JSON.stringify({ label: q('#snapshot-label').value || '' }),
        });
        const payload = await res.json();
        if (!res.ok) {
          let msg = payload.error || ('HTTP ' + res.status);
          if (payload.hint) msg += ' (' + payload.hint + ')';
          text('snapshot-hint', msg);
          return;
        }
        q('#snapshot-label').value = '';
        await loadSnapshots();
      } catch (err) {
        text('snapshot-hint', 'Snapshot save failed: ' + err.message);
      }
    }

    async function resetSession() {
      try {
        const res = await fetch('/api/v1/session/reset', { method: 'POST' });
        if (!res.ok) throw new Error('HTTP ' + res.status);
        dirtyEdits = {};
        await loadStats();
        await loadBreakdown();
        await loadMatrix();
        text('session-info', 'Session matrix rebuilt.');
      } catch (err) {
        text('session-info', 'Reset failed: ' + err.message);
      }
    }

    async function loadServicesStatus() {
      try {
        const res = await getJSON('/api/v1/status/services');
        const services = res.data || {};
        const tbody = q('#services-body');
        tbody.innerHTML = '';
        Object.keys(services).sort().forEach((name) => {
          const svc = services[name] || {};
          const pill = svc.ok
            ? '<span class="pill ok">ok</span>'
            : (svc.enabled ? '<span class="pill bad">down</span>' : '<span class="pill idle">disabled</span>');
          let detail = svc.error || '-';
          if (svc.ok) {
            const facts = Object.assign({}, svc.stats || {});
            if (svc.rows !== undefined) facts.rows = svc.rows;
            if (svc.progress !== undefined) facts.progress = Number(svc.progress).toFixed(1) + '%';
            if (svc.last_analysis_at) facts.last_analysis = new Date(svc.last_analysis_at).toLocaleString();
            detail = Object.entries(facts).map(([k, v]) => k + '=' + v).join(' ') || 'ok';
          }
          const tr = document.createElement('tr');
          tr.innerHTML = '<td>' + name + '</td><td>' + pill + '</td><td class="mono">' + detail + '</td>';
          tbody.appendChild(tr);
        });
      } catch (err) {
        q('#services-body').innerHTML = '<tr><td colspan="3">Failed: ' + err.message + '</td></tr>';
      }

      try {
        const res = await getJSON('/api/v1/metrics/app');
        const rows = res.data?.top_http_slowest_avg_ms || [];
        const tbody = q('#services-http-body');
        tbody.innerHTML = '';
        rows.forEach((r) => {
          const tr = document.createElement('tr');
          tr.innerHTML =
            '<td>' + r.method + '</td>' +
            '<td class="mono">' + r.path + '</td>' +
            '<td>' + r.status + '</td>' +
            '<td>' + r.count + '</td>' +
            '<td>' + Number(r.avg_ms || 0).toFixed(2) + '</td>';
          tbody.appendChild(tr);
        });
        if (!tbody.children.length) {
          tbody.innerHTML = '<tr><td colspan="5">No requests observed yet.</td></tr>';
        }
        const errs = res.data?.errors || {};
        text('services-errors', 'Errors: store=' + (errs.store_op_total || 0) + ' external=' + (errs.external_probe_total || 0));
      } catch (err) {
        q('#services-http-body').innerHTML = '<tr><td colspan="5">Failed: ' + err.message + '</td></tr>';
      }
    }

    qq('.tab-btn[data-tab]').forEach((b) => b.addEventListener('click', () => switchTab(b.dataset.tab)));
    q('#breakdown-dimension').addEventListener('change', loadBreakdown);
    q('#matrix-refresh').addEventListener('click', loadMatrix);
    q('#matrix-save').addEventListener('click', saveMatrixEdits);
    q('#advisor-run').addEventListener('click', runAdvisor);
    q('#snapshot-save').addEventListener('click', saveSnapshot);
    q('#session-reset').addEventListener('click', resetSession);

    loadCatalog();
    loadStats();
    loadBreakdown();

    setInterval(() => {
      if (q('#tab-overview').classList.contains('active')) {
        loadStats();
        loadBreakdown();
      }
    }, 15000);
  </script>
</body>
</html>
`
