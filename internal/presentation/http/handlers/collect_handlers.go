// Package handlers provides HTTP request handlers for the presentation layer.
package handlers

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/beaconview/beaconview-go/internal/application/services"
	"github.com/beaconview/beaconview-go/internal/infrastructure/messaging"
	"github.com/beaconview/beaconview-go/internal/infrastructure/observability/logging"
	"github.com/beaconview/beaconview-go/pkg/config"
	"github.com/gin-gonic/gin"
)

// activeStreamConnections tracks open SSE connections across all handlers.
var activeStreamConnections int64

// CollectHandlers contains the beacon ingestion and live stream handlers.
type CollectHandlers struct {
	ingestionService *services.IngestionService
	broadcaster      *messaging.EventBroadcaster
	logger           *logging.ChanneledLogger
}

// NewCollectHandlers creates collect handlers with injected dependencies.
func NewCollectHandlers(ingestionService *services.IngestionService, broadcaster *messaging.EventBroadcaster, logger *logging.ChanneledLogger) *CollectHandlers {
	return &CollectHandlers{
		ingestionService: ingestionService,
		broadcaster:      broadcaster,
		logger:           logger,
	}
}

// PostCollect handles POST /api/v1/collect. The sender is a fire-and-forget
// beacon, so the response is always 204: the request is acknowledged before
// processing and malformed payloads are dropped without telling the caller.
func (h *CollectHandlers) PostCollect(c *gin.Context) {
	var req services.CollectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Ingest().Debug("Unparseable beacon payload", "error", err.Error(), "remoteAddr", c.ClientIP())
		c.Status(http.StatusNoContent)
		return
	}

	clientIP := c.ClientIP()
	userAgent := c.GetHeader("User-Agent")

	c.Status(http.StatusNoContent)

	go h.ingestionService.Ingest(req, clientIP, userAgent)
}

// GetStream handles GET /api/v1/stream - establishes a Server-Sent Events
// connection carrying every ingested event as it happens.
func (h *CollectHandlers) GetStream(c *gin.Context) {
	current := atomic.LoadInt64(&activeStreamConnections)
	if current >= int64(config.MaxStreamConnections) {
		h.logger.SSE().Warn("Stream connection limit reached", "currentConnections", current)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "stream connection limit reached"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	subscriberID, ch := h.broadcaster.Subscribe()

	atomic.AddInt64(&activeStreamConnections, 1)
	defer func() {
		atomic.AddInt64(&activeStreamConnections, -1)
		h.broadcaster.Unsubscribe(subscriberID)
	}()

	// Initial confirmation so the client knows the stream is live.
	ack := fmt.Sprintf("data: {\"type\":\"connected\",\"subscriberId\":\"%s\",\"timestamp\":\"%s\"}\n\n", subscriberID, time.Now().UTC().Format(time.RFC3339))
	if _, err := c.Writer.WriteString(ack); err != nil {
		return
	}
	c.Writer.Flush()

	h.logger.SSE().Info("Stream connection established",
		"subscriberId", subscriberID,
		"totalConnections", atomic.LoadInt64(&activeStreamConnections))

	clientCtx := c.Request.Context()
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	connectionStart := time.Now()
	for {
		select {
		case <-clientCtx.Done():
			h.logger.SSE().Info("Stream client disconnected",
				"subscriberId", subscriberID,
				"connectionDuration", time.Since(connectionStart))
			return

		case message, ok := <-ch:
			if !ok {
				// Broadcaster dropped us, likely for a full buffer.
				h.logger.SSE().Info("Stream channel closed",
					"subscriberId", subscriberID,
					"connectionDuration", time.Since(connectionStart))
				return
			}
			if _, err := c.Writer.WriteString(message); err != nil {
				h.logger.SSE().Error("Stream write failed", "subscriberId", subscriberID, "error", err.Error())
				return
			}
			c.Writer.Flush()

		case <-ticker.C:
			heartbeat := fmt.Sprintf("data: {\"type\":\"heartbeat\",\"timestamp\":\"%s\"}\n\n", time.Now().UTC().Format(time.RFC3339))
			if _, err := c.Writer.WriteString(heartbeat); err != nil {
				return
			}
			c.Writer.Flush()
		}
	}
}

// collectorScript is the embeddable tracker served at /bv.js. It fingerprints
// the browser, maintains a per-tab session id, and posts beacons for
// pageviews, outbound clicks, and exits.
const collectorScript = `(function () {
  var s = document.currentScript;
  var siteId = s && s.getAttribute('data-site-id');
  if (!siteId) return;
  var base = s.src.replace(/\/bv\.js.*$/, '');
  var endpoint = base + '/api/v1/collect';

  function fingerprint() {
    var raw = [
      navigator.userAgent,
      navigator.language,
      screen.width + 'x' + screen.height,
      new Date().getTimezoneOffset(),
      navigator.platform || ''
    ].join('|');
    var h = 5381;
    for (var i = 0; i < raw.length; i++) {
      h = ((h << 5) + h + raw.charCodeAt(i)) >>> 0;
    }
    return h.toString(16);
  }

  function sessionId() {
    var sid = sessionStorage.getItem('_bv_sid');
    if (!sid) {
      sid = Date.now().toString(36) + Math.random().toString(36).slice(2, 10);
      sessionStorage.setItem('_bv_sid', sid);
    }
    return sid;
  }

  var fp = fingerprint();
  var sid = sessionId();
  var maxScroll = 0;

  function token() {
    try {
      var m = new URLSearchParams(location.search).get('_bvt');
      if (m) sessionStorage.setItem('_bv_token', m);
      return sessionStorage.getItem('_bv_token') || undefined;
    } catch (e) { return undefined; }
  }

  function send(type, data, sync) {
    var payload = JSON.stringify({
      siteId: siteId,
      fingerprint: fp,
      sessionId: sid,
      type: type,
      timestamp: Date.now(),
      data: data
    });
    if (sync && navigator.sendBeacon) {
      navigator.sendBeacon(endpoint, new Blob([payload], { type: 'application/json' }));
      return;
    }
    fetch(endpoint, {
      method: 'POST',
      headers: { 'Content-Type': 'application/json' },
      body: payload,
      keepalive: true
    }).catch(function () {});
  }

  window.addEventListener('scroll', function () {
    var d = document.documentElement;
    var depth = (window.scrollY + window.innerHeight) / d.scrollHeight;
    if (depth > maxScroll) maxScroll = Math.min(depth, 1);
  }, { passive: true });

  document.addEventListener('click', function (e) {
    var a = e.target && e.target.closest && e.target.closest('a');
    if (!a || !a.href) return;
    if (a.host === location.host) return;
    send('click', { page: location.pathname, target: a.href });
  }, true);

  window.addEventListener('pagehide', function () {
    send('exit', { page: location.pathname, scrollDepth: maxScroll }, true);
  });

  send('pageview', {
    page: location.pathname,
    referrer: document.referrer || undefined,
    trackingToken: token()
  });
})();
`

// GetCollectorScript handles GET /bv.js - serves the embeddable tracker.
func (h *CollectHandlers) GetCollectorScript(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", []byte(collectorScript))
}
