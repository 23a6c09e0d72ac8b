//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package web

import (
	"bytes"
	"errors"
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/dec"
	"github.com/e-gun/HipparchiaMorphTagger/internal/vocab"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/labstack/echo/v4"
	"net/http"
	"strconv"
	"strings"
)

var errNotFeedForward = errors.New("the tag decoder is not feed-forward: no per-tag probabilities to chart")

// RtTagChart - bar chart of every tag's probability for one word; word is 1-based like the analysis index
func (s *Server) RtTagChart(c echo.Context) error {
	const (
		FAIL1 = "word must be an integer in [1,%d]"
	)
	c.Response().After(func() { s.Msg.LogPaths("RtTagChart()") })

	if s.Pred.Model.Morph.Kind() != dec.KindFeedForward {
		return s.failed(c, http.StatusBadRequest, errNotFeedForward)
	}

	tt, err := cleantokens(strings.Fields(c.QueryParam("tokens")))
	if err != nil {
		return s.failed(c, http.StatusBadRequest, err)
	}

	w := 1
	if q := c.QueryParam("word"); q != "" {
		w, err = strconv.Atoi(q)
		if err != nil || w < 1 || w > len(tt) {
			return s.failed(c, http.StatusBadRequest, fmt.Errorf(FAIL1, len(tt)))
		}
	}

	names, p, err := s.Pred.Model.TagProbabilities(c.Request().Context(), tt, w-1)
	if err != nil {
		return s.failed(c, http.StatusUnprocessableEntity, err)
	}

	var buf bytes.Buffer
	if err = tagbars(tt[w-1], names, p).Render(&buf); err != nil {
		return err
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// tagbars - one bar per real tag; reserved ids are left off the axis
func tagbars(word string, names []string, p []float64) *charts.Bar {
	const (
		CHRTWIDTH  = "1200px"
		CHRTHEIGHT = "600px"
		TITLESTR   = "Tag probabilities for »%s«"
		SUBTITLE   = "a tag fires above %.2f"
		SAVETYPE   = "svg"
		SAVESTR    = "Save to file..."
	)

	var xs []string
	var bars []opts.BarData
	for id := range names {
		if vocab.IsReserved(id) {
			continue
		}
		xs = append(xs, names[id])
		bars = append(bars, opts.BarData{Value: p[id]})
	}

	tbo := opts.Toolbox{
		Show:   true,
		Orient: "vertical",
		Feature: &opts.ToolBoxFeature{
			SaveAsImage: &opts.ToolBoxFeatureSaveAsImage{Show: true, Type: SAVETYPE, Name: word, Title: SAVESTR},
		},
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: CHRTWIDTH, Height: CHRTHEIGHT}),
		charts.WithTitleOpts(opts.Title{Title: fmt.Sprintf(TITLESTR, word), Subtitle: fmt.Sprintf(SUBTITLE, dec.THRESHOLD)}),
		charts.WithToolboxOpts(tbo),
		charts.WithYAxisOpts(opts.YAxis{Min: 0, Max: 1}),
	)
	bar.SetXAxis(xs).AddSeries("p", bars)
	return bar
}
