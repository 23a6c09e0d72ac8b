//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package web

import (
	"github.com/e-gun/HipparchiaMorphTagger/internal/lnch"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
	"github.com/labstack/echo/v4"
	"net/http"
	"runtime"
)

type VersionReply struct {
	Name         string `json:"name"`
	Version      string `json:"version"`
	GitCommit    string `json:"git,omitempty"`
	BuildDate    string `json:"built,omitempty"`
	LemmaDecoder string `json:"lemmadecoder"`
	TagDecoder   string `json:"tagdecoder"`
	Transformer  bool   `json:"transformer"`
	Params       int    `json:"params"`
}

type StatsReply struct {
	Routes     map[string]int `json:"routes"`
	Order      []string       `json:"order"`
	Sentences  int64          `json:"sentences"`
	Incomplete int64          `json:"incompletebeams"`
	HeapMB     uint64         `json:"heapmb"`
	Goroutines int            `json:"goroutines"`
}

// RtVersion - build and model facts
func (s *Server) RtVersion(c echo.Context) error {
	c.Response().After(func() { s.Msg.LogPaths("RtVersion()") })
	h := s.Pred.Model.Hyper
	vr := VersionReply{
		Name:         vv.MYNAME,
		Version:      vv.VERSION + lnch.VersSuppl,
		GitCommit:    lnch.GitCommit,
		BuildDate:    lnch.BuildDate,
		LemmaDecoder: h.LemmaDecoder,
		TagDecoder:   h.TagDecoder,
		Transformer:  h.UseTransformer,
		Params:       s.Pred.Model.ParamCount(),
	}
	return c.JSONPretty(http.StatusOK, vr, vv.JSONINDENT)
}

// RtStats - route counts and prediction counters
func (s *Server) RtStats(c echo.Context) error {
	c.Response().After(func() { s.Msg.LogPaths("RtStats()") })
	kk, counts := s.Msg.PathStats()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	sr := StatsReply{
		Routes:     counts,
		Order:      kk,
		Sentences:  s.Pred.Predicted(),
		Incomplete: s.Pred.Model.Incomplete(),
		HeapMB:     mem.HeapAlloc / 1024 / 1024,
		Goroutines: runtime.NumGoroutine(),
	}
	return c.JSONPretty(http.StatusOK, sr, vv.JSONINDENT)
}
