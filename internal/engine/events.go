package engine

import (
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Event is the common shape for every observable transition. Off-system
// consumers (indexers, the websocket hub) receive these in emission
// order.
type Event struct {
	ID         string            `json:"id"`
	Type       string            `json:"type"`
	At         time.Time         `json:"at"`
	Attributes map[string]string `json:"attributes"`
}

const (
	EventGameCreated        = "gameCreated"
	EventGameJoined         = "gameJoined"
	EventMovePlayed         = "movePlayed"
	EventGameWon            = "gameWon"
	EventGameDrawn          = "gameDrawn"
	EventGameForfeited      = "gameForfeited"
	EventGameResigned       = "gameResigned"
	EventChallengeCreated   = "challengeCreated"
	EventChallengeAccepted  = "challengeAccepted"
	EventChallengeCancelled = "challengeCancelled"
	EventRatingUpdated      = "ratingUpdated"
	EventRewardClaimed      = "rewardClaimed"
	EventPlayerRegistered   = "playerRegistered"
)

// Emitter receives engine events. Implementations must not call back
// into the engine from Emit.
type Emitter interface {
	Emit(Event)
}

// NopEmitter discards events.
type NopEmitter struct{}

func (NopEmitter) Emit(Event) {}

func (e *Engine) emit(eventType string, attrs map[string]string) {
	ev := Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		At:         e.now(),
		Attributes: attrs,
	}
	e.log.Info().Str("event", ev.Type).Fields(map[string]interface{}{"attributes": attrs}).Msg("engine event")
	e.emitter.Emit(ev)
}

func u64(v uint64) string { return strconv.FormatUint(v, 10) }
func i64(v int64) string  { return strconv.FormatInt(v, 10) }
