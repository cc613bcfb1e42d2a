package web

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>VidSpot</title>
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <style>
        body { font-family: system-ui, sans-serif; background: #f4f5f7; margin: 0; }
        .app { max-width: 640px; margin: 40px auto; background: #fff; border-radius: 8px; padding: 24px; box-shadow: 0 1px 4px rgba(0,0,0,.1); }
        h1 { margin-top: 0; }
        label { display: block; margin: 16px 0 6px; font-weight: 600; }
        input[type=text] { width: 100%; padding: 8px; box-sizing: border-box; }
        button { margin-top: 20px; padding: 10px 18px; font-size: 1rem; cursor: pointer; }
        button:disabled { cursor: not-allowed; opacity: .6; }
        .muted { color: #666; font-size: .9rem; }
        .result { margin-top: 24px; padding: 16px; border-radius: 6px; display: none; }
        .result.ok { background: #e7f6ec; border: 1px solid #7ac48f; }
        .result.fail { background: #fdecea; border: 1px solid #e58b84; }
        .result dl { display: grid; grid-template-columns: max-content auto; gap: 4px 16px; margin: 12px 0 0; }
        .result dt { font-weight: 600; }
        .result dd { margin: 0; }
    </style>
</head>
<body>
    <div class="app">
        <h1>🔎 VidSpot</h1>
        <p class="muted">Upload a video and name an object to find when it appears.{{if .APIURL}} Backend: {{.APIURL}}{{end}}</p>

        <label for="video">Video file</label>
        <input type="file" id="video" accept="video/*">
        <div class="muted" id="file-info">No file selected.</div>

        <label for="target">Object to find</label>
        <input type="text" id="target" value="{{.Label}}" placeholder="e.g. person, dog, car">

        <button type="button" id="submit">Search Video</button>

        <div class="result" id="result">
            <strong id="result-title"></strong>
            <div id="result-message"></div>
            <dl id="result-detail"></dl>
        </div>
    </div>

    <script>
    (function () {
        var lastVersion = -1;
        var fileInput = document.getElementById('video');
        var targetInput = document.getElementById('target');
        var button = document.getElementById('submit');
        var labelTimer = null;

        function render(state) {
            if (state.version < lastVersion) {
                return;
            }
            lastVersion = state.version;

            document.getElementById('file-info').textContent = state.file
                ? state.file.name + ' (' + state.file.size + ' bytes)'
                : 'No file selected.';

            if (document.activeElement !== targetInput) {
                targetInput.value = state.label;
            }

            button.disabled = state.pending;
            button.textContent = state.pending ? 'Searching...' : 'Search Video';

            var box = document.getElementById('result');
            var s = state.summary;
            if (!s) {
                box.style.display = 'none';
                return;
            }
            box.style.display = 'block';
            box.className = 'result ' + (s.ok ? 'ok' : 'fail');
            document.getElementById('result-title').textContent = (s.ok ? '✅ ' : '❌ ') + s.title;
            document.getElementById('result-message').textContent = s.message;

            var dl = document.getElementById('result-detail');
            dl.innerHTML = '';
            if (!s.ok) {
                return;
            }
            [
                ['First detection', 'Frame ' + s.first_frame + ' (' + s.first_time + 's)'],
                ['Last detection', 'Frame ' + s.last_frame + ' (' + s.last_time + 's)'],
                ['Duration', s.duration + 's'],
                ['Video FPS', s.fps],
                ['Confidence', s.confidence],
                ['Total frames', s.total_frames]
            ].forEach(function (row) {
                if (!row[1]) {
                    return;
                }
                var dt = document.createElement('dt');
                dt.textContent = row[0];
                var dd = document.createElement('dd');
                dd.textContent = row[1];
                dl.appendChild(dt);
                dl.appendChild(dd);
            });
            if (s.video_url) {
                var a = document.createElement('a');
                a.href = s.video_url;
                a.textContent = 'Open processed video';
                a.target = '_blank';
                var dd = document.createElement('dd');
                dd.appendChild(a);
                dl.appendChild(document.createElement('dt'));
                dl.appendChild(dd);
            }
        }

        function post(url, body) {
            return fetch(url, { method: 'POST', body: body })
                .then(function (r) { return r.json(); })
                .then(function (data) {
                    if (data && data.version !== undefined) {
                        render(data);
                    }
                });
        }

        function sendLabel() {
            var form = new FormData();
            form.append('target_class', targetInput.value);
            return post('/api/label', form);
        }

        fileInput.addEventListener('change', function () {
            if (!fileInput.files.length) {
                return;
            }
            var form = new FormData();
            form.append('video', fileInput.files[0]);
            post('/api/video', form);
        });

        targetInput.addEventListener('input', function () {
            clearTimeout(labelTimer);
            labelTimer = setTimeout(sendLabel, 250);
        });

        button.addEventListener('click', function () {
            clearTimeout(labelTimer);
            button.disabled = true;
            sendLabel().then(function () { return post('/api/search'); });
        });

        function connect() {
            var proto = location.protocol === 'https:' ? 'wss://' : 'ws://';
            var ws = new WebSocket(proto + location.host + '/ws');
            ws.onmessage = function (ev) { render(JSON.parse(ev.data)); };
            ws.onclose = function () { setTimeout(connect, 1000); };
        }

        fetch('/api/state').then(function (r) { return r.json(); }).then(render);
        connect();
    })();
    </script>
</body>
</html>
`
