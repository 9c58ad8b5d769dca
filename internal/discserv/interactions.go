package discserv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
)

// followupWindow is how long discord accepts followups for an interaction
const followupWindow = 15 * time.Minute

var errAlreadyResponded = errors.New("interaction already responded")

// webhookResponder hands the first response back to the http handler, which
// writes it as the response body. Anything after that has to be a followup,
// and so does anything once the handler stopped waiting.
type webhookResponder struct {
	mu     sync.Mutex
	sent   bool
	closed bool
	resps  chan *discordgo.InteractionResponse
}

func newWebhookResponder() *webhookResponder {
	return &webhookResponder{resps: make(chan *discordgo.InteractionResponse, 1)}
}

func (wr *webhookResponder) Respond(resp *discordgo.InteractionResponse) error {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	if wr.sent || wr.closed {
		return errAlreadyResponded
	}
	wr.sent = true
	wr.resps <- resp
	return nil
}

// expire stops accepting responses. It returns a response that raced in
// before the handler gave up, if any.
func (wr *webhookResponder) expire() *discordgo.InteractionResponse {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	wr.closed = true
	select {
	case resp := <-wr.resps:
		return resp
	default:
		return nil
	}
}

func (s *Server) handleDiscordInteraction() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !discordgo.VerifyInteraction(r, s.key) {
			http.Error(w, "invalid signature", http.StatusUnauthorized)
			return
		}

		var i discordgo.Interaction
		if err := json.NewDecoder(r.Body).Decode(&i); err != nil {
			http.Error(w, fmt.Sprintf("error decoding: %s", err), http.StatusBadRequest)
			return
		}

		if i.Type == discordgo.InteractionPing {
			writeJSON(w, &discordgo.InteractionResponse{Type: discordgo.InteractionResponsePong})
			return
		}

		// The handler outlives the request when it sends followups
		wr := newWebhookResponder()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), followupWindow)
			defer cancel()
			s.h.HandleInteraction(ctx, &i, wr)
		}()

		timer := time.NewTimer(s.responseTimeout)
		defer timer.Stop()

		select {
		case resp := <-wr.resps:
			writeJSON(w, resp)
		case <-timer.C:
			if resp := wr.expire(); resp != nil {
				writeJSON(w, resp)
				return
			}
			s.l.Errorw("interaction not answered in time", "interaction_id", i.ID, "type", i.Type.String())
			http.Error(w, "interaction timed out", http.StatusGatewayTimeout)
		case <-r.Context().Done():
			wr.expire()
		}
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Add("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
