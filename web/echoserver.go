//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package web

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/mm"
	"github.com/e-gun/HipparchiaMorphTagger/internal/pred"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"net/http"
	"strings"
	"time"
)

// Server - the routes share one predictor; it only ever reads the model
type Server struct {
	Pred     *pred.Predictor
	Cfg      *str.CurrentConfiguration
	Msg      *mm.MessageMaker
	Upgrader websocket.Upgrader
}

func NewServer(p *pred.Predictor, cfg *str.CurrentConfiguration, msg *mm.MessageMaker) *Server {
	return &Server{Pred: p, Cfg: cfg, Msg: msg}
}

// Echo - middleware and routes, ready to Start() or to hand to httptest
func (s *Server) Echo() *echo.Echo {
	const (
		LLOGFMT = "r: ${status}\tt: ${latency_human}\tu: ${uri}\n"
		RLOGFMT = "${remote_ip}\t${custom}\t${status}\t${bytes_out}\t${uri}\t${id}\n"
	)

	// ctf - a CustomTagFunc return a short user agent
	ctf := func(c echo.Context, buf *bytes.Buffer) (int, error) {
		ua := strings.Split(c.Request().UserAgent(), " ")
		if len(ua) == 0 {
			return 0, nil
		}
		return buf.Write([]byte(ua[len(ua)-1]))
	}

	//
	// SETUP
	//

	e := echo.New()
	e.Server.ReadTimeout = vv.TIMEOUTRD
	e.Server.WriteTimeout = vv.TIMEOUTWR

	switch s.Cfg.EchoLog {
	case 3:
		e.Use(middleware.Logger())
	case 2:
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{Format: RLOGFMT, CustomTagFunc: ctf}))
	case 1:
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{Format: LLOGFMT}))
	default:
		// do nothing
	}

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	e.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(vv.MAXECHOREQPERSECOND)))
	e.Use(middleware.Recover())

	if s.Cfg.Gzip {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{Level: 5}))
	}

	//
	// ROUTES
	//

	// [a] analysis ("rt-analyze.go")

	e.POST("/analyze", s.RtAnalyze)            // {"tokens": ["arma", "virumque", "cano"]}
	e.POST("/analyze/conll", s.RtAnalyzeCONLL) // one sentence per line

	// [b] websocket ("rt-websocket.go")

	e.GET("/ws", s.RtWebsocket)

	// [c] charts ("rt-chart.go")

	e.GET("/chart/tags", s.RtTagChart) // "/chart/tags?tokens=arma+virumque&word=2"

	// [d] info ("rt-info.go")

	e.GET("/version", s.RtVersion)
	e.GET("/stats", s.RtStats)

	e.HideBanner = true
	e.HidePort = false
	e.Debug = false
	e.DisableHTTP2 = true
	return e
}

// StartEchoServer - serve until ctx is cancelled, then shut down gracefully
func (s *Server) StartEchoServer(ctx context.Context) error {
	const (
		MSG1 = "serving on %s"
		MSG2 = "shutting down"
	)
	e := s.Echo()
	addr := fmt.Sprintf("%s:%d", s.Cfg.HostIP, s.Cfg.HostPort)

	errc := make(chan error, 1)
	go func() {
		s.Msg.NOTE(fmt.Sprintf(MSG1, addr))
		errc <- e.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.Msg.NOTE(MSG2)
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := e.Shutdown(sctx); err != nil {
			return err
		}
		<-errc
		return nil
	}
}
