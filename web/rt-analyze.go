//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package web

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/conll"
	"github.com/e-gun/HipparchiaMorphTagger/internal/gen"
	"github.com/e-gun/HipparchiaMorphTagger/internal/str"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vv"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"golang.org/x/text/unicode/norm"
	"net/http"
)

type AnalyzeRequest struct {
	Tokens []string `json:"tokens"`
}

type AnalyzeReply struct {
	ID    string         `json:"id"`
	Words []str.Analysis `json:"words"`
}

type ErrorReply struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

var (
	errNoTokens = errors.New("no tokens")
	errTooLong  = errors.New("too many tokens")
	errBadToken = errors.New("unacceptable token")
)

// requestid - the id the RequestID middleware stamped on the response, or a fresh one
func requestid(c echo.Context) string {
	if id := c.Response().Header().Get(echo.HeaderXRequestID); id != "" {
		return id
	}
	return uuid.NewString()
}

// cleantokens - NFC-normalise a sentence coming in over the wire; reject it whole rather than drop or cut
// tokens, so that every position in the reply matches a position in the request
func cleantokens(tt []string) ([]string, error) {
	const (
		FAIL1 = "%w: %d > %d"
		FAIL2 = "%w: #%d ('%s') is blank or contains one of %s"
	)
	if len(tt) == 0 {
		return nil, errNoTokens
	}
	if len(tt) > vv.MAXINPUTLEN {
		return nil, fmt.Errorf(FAIL1, errTooLong, len(tt), vv.MAXINPUTLEN)
	}
	out := make([]string, len(tt))
	for i := range tt {
		out[i] = norm.NFC.String(tt[i])
	}
	if i := gen.FirstUnacceptable(vv.UNACCEPTABLEINPUT, out); i >= 0 {
		return nil, fmt.Errorf(FAIL2, errBadToken, i+1, out[i], vv.UNACCEPTABLEINPUT)
	}
	return out, nil
}

func (s *Server) failed(c echo.Context, status int, err error) error {
	s.Msg.FYI(c.Path() + ": " + err.Error())
	return c.JSONPretty(status, ErrorReply{ID: requestid(c), Error: err.Error()}, vv.JSONINDENT)
}

// RtAnalyze - one sentence as a JSON token list in, positional analyses out
func (s *Server) RtAnalyze(c echo.Context) error {
	c.Response().After(func() { s.Msg.LogPaths("RtAnalyze()") })

	var req AnalyzeRequest
	if err := c.Bind(&req); err != nil {
		return s.failed(c, http.StatusBadRequest, err)
	}
	tt, err := cleantokens(req.Tokens)
	if err != nil {
		return s.failed(c, http.StatusBadRequest, err)
	}

	aa, err := s.Pred.PredictSentence(c.Request().Context(), tt)
	if err != nil {
		return s.failed(c, http.StatusUnprocessableEntity, err)
	}
	return c.JSONPretty(http.StatusOK, AnalyzeReply{ID: requestid(c), Words: aa}, vv.JSONINDENT)
}

// RtAnalyzeCONLL - plain text, one whitespace-separated sentence per line, in; CONLL blocks out
func (s *Server) RtAnalyzeCONLL(c echo.Context) error {
	c.Response().After(func() { s.Msg.LogPaths("RtAnalyzeCONLL()") })

	ss, err := conll.SplitLines(c.Request().Body)
	if err != nil {
		return s.failed(c, http.StatusBadRequest, err)
	}
	for i := range ss {
		if ss[i], err = cleantokens(ss[i]); err != nil {
			return s.failed(c, http.StatusBadRequest, err)
		}
	}
	if len(ss) == 0 {
		return s.failed(c, http.StatusBadRequest, errNoTokens)
	}

	aa, err := s.Pred.PredictAll(c.Request().Context(), ss, s.Cfg.WorkerCount, nil)
	if err != nil {
		return s.failed(c, http.StatusUnprocessableEntity, err)
	}

	var buf bytes.Buffer
	if err = conll.Write(&buf, aa); err != nil {
		return err
	}
	return c.Blob(http.StatusOK, echo.MIMETextPlainCharsetUTF8, buf.Bytes())
}
