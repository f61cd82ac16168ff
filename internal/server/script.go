package server

import (
	"fmt"
	"strconv"
)

// ReloadPath is the websocket endpoint for the live-reload channel.
const ReloadPath = "/_liveserve/reload"

// clientScript returns the JavaScript injected into served HTML pages.
// wsPort selects where the browser connects: 0 means the page's own
// host and port, anything else a dedicated websocket listener.
func clientScript(wsPort int) string {
	hostExpr := "location.host"
	if wsPort != 0 {
		hostExpr = "location.hostname + ':" + strconv.Itoa(wsPort) + "'"
	}
	return fmt.Sprintf(clientScriptTemplate, hostExpr)
}

const clientScriptTemplate = `
<script>
(function() {
    'use strict';

    var reconnectDelay = 1000;
    var maxReconnectDelay = 30000;
    var ws = null;

    function connect() {
        var protocol = location.protocol === 'https:' ? 'wss:' : 'ws:';
        ws = new WebSocket(protocol + '//' + %s + '/_liveserve/reload');

        ws.onopen = function() {
            console.log('[liveserve] Live reload connected');
            reconnectDelay = 1000;
        };

        ws.onmessage = function(e) {
            var msg;
            try {
                msg = JSON.parse(e.data);
            } catch (err) {
                return;
            }

            switch (msg.type) {
                case 'reload':
                    console.log('[liveserve] Reloading...');
                    location.reload();
                    break;

                case 'css':
                    console.log('[liveserve] Reloading CSS...');
                    reloadCSS();
                    break;
            }
        };

        ws.onclose = function() {
            console.log('[liveserve] Connection lost, reconnecting in', reconnectDelay + 'ms');
            setTimeout(function() {
                reconnectDelay = Math.min(reconnectDelay * 2, maxReconnectDelay);
                connect();
            }, reconnectDelay);
        };

        ws.onerror = function() {
            ws.close();
        };
    }

    function reloadCSS() {
        var links = document.querySelectorAll('link[rel="stylesheet"]');
        for (var i = 0; i < links.length; i++) {
            var link = links[i];
            var href = link.getAttribute('href');
            if (!href) {
                continue;
            }
            var url = new URL(href, location.href);
            url.searchParams.set('_liveserve', Date.now());
            link.setAttribute('href', url.pathname + url.search);
        }
    }

    connect();
})();
</script>
`
