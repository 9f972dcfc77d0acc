package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"nhooyr.io/websocket"
)

// wsDeliverTimeout bounds each underlying Deliver poll so the connection can
// still observe context cancellation (client disconnect) promptly.
const wsDeliverTimeout = 5 * time.Second

// DeliverWS handles GET /v1/deliver/stream: a WebSocket-based push variant
// of Deliver (spec.md §4.5) for consumers that want updates pushed over a
// single long-lived connection instead of polling the REST deliver
// endpoint. Each received batch is framed as one JSON text message.
func (s *Server) DeliverWS(w http.ResponseWriter, r *http.Request) {
	cs := clientSessionFromContext(r.Context())

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		log.Ctx(r.Context()).Warn().Err(err).Msg("websocket accept failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "closing")

	ctx := conn.CloseRead(r.Context())

	for {
		values, err := cs.Store.Deliver(ctx, 256, wsDeliverTimeout)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				conn.Close(websocket.StatusNormalClosure, "")
				return
			}
			log.Ctx(r.Context()).Warn().Err(err).Msg("deliver failed on stream")
			conn.Close(websocket.StatusInternalError, err.Error())
			return
		}
		if len(values) == 0 {
			continue
		}

		payload, err := json.Marshal(values)
		if err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("encoding delivered batch")
			conn.Close(websocket.StatusInternalError, "encoding failure")
			return
		}
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			return
		}
	}
}
