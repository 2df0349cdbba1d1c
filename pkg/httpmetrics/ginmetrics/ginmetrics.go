// Package ginmetrics adapts the httpmetrics hooks to gin.
//
//	r := gin.New()
//	r.Use(gin.Recovery())
//	r.Use(ginmetrics.Middleware(tracker, collector))
//
// The route label is gin's full path ("/users/:id"); requests that matched
// no route are labelled "unmatched".
package ginmetrics

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cap-mahdi/TP2-devops/pkg/httpmetrics"
)

// Middleware records every request through tracker and collector. Either may
// be nil. Install it after gin.Recovery so a panicking handler is recorded as
// 500 before Recovery writes the response.
func Middleware(tracker *httpmetrics.ConnectionTracker, collector *httpmetrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		method := c.Request.Method

		var conn, req httpmetrics.Observation
		if tracker != nil {
			conn = tracker.Begin(method)
		}
		if collector != nil && !collector.Skips(c.Request.URL.Path) {
			req = collector.Begin(method)
		}

		defer func() {
			rec := recover()

			status := c.Writer.Status()
			if rec != nil && !c.Writer.Written() {
				status = http.StatusInternalServerError
			}
			route := c.FullPath()
			if route == "" {
				route = httpmetrics.UnmatchedRoute
			}

			if req != nil {
				req.End(status, route)
			}
			if conn != nil {
				conn.End(status, route)
			}
			if rec != nil {
				panic(rec)
			}
		}()

		c.Next()
	}
}
