//    HipparchiaMorphTagger
//    Copyright: E Gunderson 2024
//    License: GNU GENERAL PUBLIC LICENSE 3
//        (see LICENSE in the top level directory of the distribution)

package web

import (
	"fmt"
	"github.com/e-gun/HipparchiaMorphTagger/internal/conll"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"strings"
)

//
// THE ROUTE
//

// RtWebsocket - a sentence per message in, its CONLL block back; runs until the client goes away
func (s *Server) RtWebsocket(c echo.Context) error {
	const (
		FAILCON = "RtWebsocket(): ws connection failed"
		ERRLINE = "# error: %s\n\n"
	)

	c.Response().After(func() { s.Msg.LogPaths("RtWebsocket()") })

	ws, err := s.Upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		s.Msg.NOTE(FAILCON)
		return nil
	}
	defer ws.Close()

	ctx := c.Request().Context()
	for {
		mt, m, rerr := ws.ReadMessage()
		if rerr != nil {
			if !websocket.IsCloseError(rerr, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.Msg.TMI(fmt.Sprintf("RtWebsocket(): %s", rerr.Error()))
			}
			return nil
		}
		if mt != websocket.TextMessage {
			continue
		}

		var reply string
		tt, terr := cleantokens(strings.Fields(string(m)))
		if terr != nil {
			reply = fmt.Sprintf(ERRLINE, terr.Error())
		} else if aa, perr := s.Pred.PredictSentence(ctx, tt); perr != nil {
			reply = fmt.Sprintf(ERRLINE, perr.Error())
		} else {
			reply = conll.FormatSentence(aa)
		}

		if werr := ws.WriteMessage(websocket.TextMessage, []byte(reply)); werr != nil {
			return nil
		}
	}
}
