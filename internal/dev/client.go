package dev

// DevClientScript is injected into every dev HTML shell. It connects to
// the reload endpoint, reloads the page on each update, and renders a
// full-screen overlay for compile errors. Sequence numbers are checked
// so a dropped message is visible in the console.
const DevClientScript = `<script>
(function() {
    'use strict';

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;
    var lastSequence = 0;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        var ws = new WebSocket(protocol + '//' + location.host + '/_rivet/reload');

        ws.onopen = function() {
            console.log('[rivet] live update connected');
            reconnectDelay = 1000;
            clearOverlay();
        };

        ws.onmessage = function(e) {
            var msg;
            try { msg = JSON.parse(e.data); } catch (err) { return; }

            if (msg.type === 'update') {
                if (lastSequence && msg.sequence !== lastSequence + 1) {
                    console.warn('[rivet] missed update', lastSequence + 1);
                }
                lastSequence = msg.sequence;
                console.log('[rivet] update #' + msg.sequence, msg.changedFiles);
                location.reload();
            } else if (msg.type === 'error') {
                showOverlay(msg.error);
            }
        };

        ws.onclose = function() {
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() { ws.close(); };
    }

    function showOverlay(text) {
        clearOverlay();
        var overlay = document.createElement('div');
        overlay.id = 'rivet-error-overlay';
        overlay.style.cssText = 'position:fixed;inset:0;background:rgba(0,0,0,0.9);color:#fff;font-family:monospace;font-size:14px;padding:24px;overflow:auto;z-index:999999;';
        var pre = document.createElement('pre');
        pre.style.cssText = 'white-space:pre-wrap;background:#1a1a1a;padding:16px;border-radius:8px;';
        pre.textContent = text;
        overlay.appendChild(pre);
        document.body.appendChild(overlay);
    }

    function clearOverlay() {
        var overlay = document.getElementById('rivet-error-overlay');
        if (overlay) overlay.remove();
    }

    if (document.readyState === 'loading') {
        document.addEventListener('DOMContentLoaded', connect);
    } else {
        connect();
    }
})();
</script>`
