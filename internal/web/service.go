package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"
	"github.com/stakeboard/stakeboard/internal/auth"
	"github.com/stakeboard/stakeboard/internal/config"
	"github.com/stakeboard/stakeboard/internal/engine"
	"github.com/stakeboard/stakeboard/internal/treasury"
)

type Service struct {
	engine *engine.Engine
	vault  *treasury.Vault
	tokens *auth.Manager
	config *config.Config
}

func NewService(eng *engine.Engine, vault *treasury.Vault, tokens *auth.Manager, cfg *config.Config) *Service {
	return &Service{
		engine: eng,
		vault:  vault,
		tokens: tokens,
		config: cfg,
	}
}

// RegisterRoutes attaches the API surface to a router. Mutating
// endpoints sit behind the session-token middleware; reads are open.
func (s *Service) RegisterRoutes(api *mux.Router) {
	api.HandleFunc("/health", s.HealthHandler).Methods("GET")
	api.HandleFunc("/register", s.RegisterHandler).Methods("POST")

	api.HandleFunc("/games", s.requireAuth(s.CreateGameHandler)).Methods("POST")
	api.HandleFunc("/games/{id}/join", s.requireAuth(s.JoinGameHandler)).Methods("POST")
	api.HandleFunc("/games/{id}/moves", s.requireAuth(s.PlayMoveHandler)).Methods("POST")
	api.HandleFunc("/games/{id}/resign", s.requireAuth(s.ResignHandler)).Methods("POST")
	api.HandleFunc("/games/{id}/forfeit", s.requireAuth(s.ForfeitHandler)).Methods("POST")
	api.HandleFunc("/games/{id}/claim", s.requireAuth(s.ClaimHandler)).Methods("POST")
	api.HandleFunc("/games/{id}", s.GetGameHandler).Methods("GET")
	api.HandleFunc("/games/{id}/time", s.TimeRemainingHandler).Methods("GET")
	api.HandleFunc("/games/{id}/claimable/{address}", s.ClaimableHandler).Methods("GET")

	api.HandleFunc("/challenges", s.requireAuth(s.CreateChallengeHandler)).Methods("POST")
	api.HandleFunc("/challenges/{id}/accept", s.requireAuth(s.AcceptChallengeHandler)).Methods("POST")
	api.HandleFunc("/challenges/{id}/cancel", s.requireAuth(s.CancelChallengeHandler)).Methods("POST")
	api.HandleFunc("/challenges/{id}", s.GetChallengeHandler).Methods("GET")

	api.HandleFunc("/players/{address}", s.GetPlayerHandler).Methods("GET")
	api.HandleFunc("/players/{address}/balance/{asset}", s.GetBalanceHandler).Methods("GET")
	api.HandleFunc("/leaderboard", s.LeaderboardHandler).Methods("GET")
	api.HandleFunc("/recent-wins", s.RecentWinsHandler).Methods("GET")
}

// requireAuth resolves the Bearer token to a principal address and
// hands it to the wrapped handler. The engine never sees the token.
func (s *Service) requireAuth(next func(w http.ResponseWriter, r *http.Request, caller string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found {
			http.Error(w, "Missing bearer token", http.StatusUnauthorized)
			return
		}
		caller, err := s.tokens.Verify(token)
		if err != nil {
			log.Debug().Err(err).Msg("Rejected session token")
			http.Error(w, "Invalid session token", http.StatusUnauthorized)
			return
		}
		next(w, r, caller)
	}
}

func pathID(r *http.Request) (uint64, error) {
	return strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeEngineError translates engine error kinds to HTTP statuses. The
// engine message goes through verbatim so clients see which rule fired.
func writeEngineError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, engine.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, engine.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, engine.ErrPaused):
		status = http.StatusServiceUnavailable
	case errors.Is(err, engine.ErrTransferFailed):
		status = http.StatusPaymentRequired
	case errors.Is(err, engine.ErrWrongTurn),
		errors.Is(err, engine.ErrCellOccupied),
		errors.Is(err, engine.ErrNotActive),
		errors.Is(err, engine.ErrAlreadyStarted),
		errors.Is(err, engine.ErrAlreadyAccepted),
		errors.Is(err, engine.ErrChallengeExpired),
		errors.Is(err, engine.ErrChallengeCancelled),
		errors.Is(err, engine.ErrTimeoutNotReached),
		errors.Is(err, engine.ErrNothingToClaim),
		errors.Is(err, engine.ErrAlreadyRegistered),
		errors.Is(err, engine.ErrUsernameTaken):
		status = http.StatusConflict
	case errors.Is(err, engine.ErrInvalidStake),
		errors.Is(err, engine.ErrInvalidSize),
		errors.Is(err, engine.ErrUnsupportedAsset),
		errors.Is(err, engine.ErrInvalidMove),
		errors.Is(err, engine.ErrInvalidAddress),
		errors.Is(err, engine.ErrInvalidUsername),
		errors.Is(err, engine.ErrSelfPlay),
		errors.Is(err, engine.ErrSelfChallenge),
		errors.Is(err, engine.ErrNotRegistered):
		status = http.StatusBadRequest
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Service) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type RegisterRequest struct {
	Address  string `json:"address"`
	Username string `json:"username"`
}

type RegisterResponse struct {
	Player *engine.PlayerRecord `json:"player"`
	Token  string               `json:"token"`
}

func (s *Service) RegisterHandler(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	player, err := s.engine.RegisterPlayer(req.Address, req.Username)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	// Development faucet: seed freshly registered players so local
	// setups can play without a funding step.
	if amount := s.config.Development.FaucetAmount; amount > 0 {
		for _, asset := range s.config.Engine.SupportedAssets {
			s.vault.Credit(player.Address, asset, amount)
		}
		log.Debug().Str("address", player.Address).Int64("amount", amount).Msg("Faucet credit issued")
	}

	token, err := s.tokens.Mint(player.Address)
	if err != nil {
		log.Error().Err(err).Str("address", player.Address).Msg("Failed to mint session token")
		http.Error(w, "Failed to mint session token", http.StatusInternalServerError)
		return
	}

	log.Info().Str("address", player.Address).Str("username", player.Username).Msg("Player registered")
	writeJSON(w, http.StatusCreated, RegisterResponse{Player: player, Token: token})
}

type CreateGameRequest struct {
	Stake        int64  `json:"stake"`
	BoardSize    int    `json:"board_size"`
	Asset        string `json:"asset"`
	OpeningIndex int    `json:"opening_index"`
}

func (s *Service) CreateGameHandler(w http.ResponseWriter, r *http.Request, caller string) {
	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	game, err := s.engine.CreateGame(caller, req.Stake, req.BoardSize, req.Asset, req.OpeningIndex)
	if err != nil {
		log.Debug().Err(err).Str("caller", caller).Msg("Create game rejected")
		writeEngineError(w, err)
		return
	}

	log.Info().Uint64("gameID", game.ID).Str("caller", caller).Int64("stake", game.Stake).Msg("Game created")
	writeJSON(w, http.StatusCreated, game)
}

type MoveRequest struct {
	Index int `json:"index"`
}

func (s *Service) JoinGameHandler(w http.ResponseWriter, r *http.Request, caller string) {
	gameID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid game ID", http.StatusBadRequest)
		return
	}
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	game, err := s.engine.JoinGame(caller, gameID, req.Index)
	if err != nil {
		log.Debug().Err(err).Uint64("gameID", gameID).Str("caller", caller).Msg("Join rejected")
		writeEngineError(w, err)
		return
	}

	log.Info().Uint64("gameID", gameID).Str("caller", caller).Msg("Game joined")
	writeJSON(w, http.StatusOK, game)
}

func (s *Service) PlayMoveHandler(w http.ResponseWriter, r *http.Request, caller string) {
	gameID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid game ID", http.StatusBadRequest)
		return
	}
	var req MoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	game, err := s.engine.PlayMove(caller, gameID, req.Index)
	if err != nil {
		log.Debug().Err(err).Uint64("gameID", gameID).Str("caller", caller).Int("index", req.Index).Msg("Move rejected")
		writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (s *Service) ResignHandler(w http.ResponseWriter, r *http.Request, caller string) {
	gameID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid game ID", http.StatusBadRequest)
		return
	}

	game, err := s.engine.Resign(caller, gameID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	log.Info().Uint64("gameID", gameID).Str("caller", caller).Msg("Game resigned")
	writeJSON(w, http.StatusOK, game)
}

func (s *Service) ForfeitHandler(w http.ResponseWriter, r *http.Request, caller string) {
	gameID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid game ID", http.StatusBadRequest)
		return
	}

	game, err := s.engine.Forfeit(caller, gameID)
	if err != nil {
		log.Debug().Err(err).Uint64("gameID", gameID).Str("caller", caller).Msg("Forfeit rejected")
		writeEngineError(w, err)
		return
	}

	log.Info().Uint64("gameID", gameID).Str("winner", caller).Msg("Game forfeited on timeout")
	writeJSON(w, http.StatusOK, game)
}

func (s *Service) ClaimHandler(w http.ResponseWriter, r *http.Request, caller string) {
	gameID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid game ID", http.StatusBadRequest)
		return
	}

	amount, err := s.engine.Claim(caller, gameID)
	if err != nil {
		writeEngineError(w, err)
		return
	}

	log.Info().Uint64("gameID", gameID).Str("caller", caller).Int64("amount", amount).Msg("Reward claimed")
	writeJSON(w, http.StatusOK, map[string]int64{"amount": amount})
}

func (s *Service) GetGameHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid game ID", http.StatusBadRequest)
		return
	}

	game, err := s.engine.GetGame(gameID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, game)
}

func (s *Service) TimeRemainingHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid game ID", http.StatusBadRequest)
		return
	}

	remaining, err := s.engine.TimeRemaining(gameID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"gameId":           gameID,
		"remainingSeconds": int64(remaining.Seconds()),
	})
}

func (s *Service) ClaimableHandler(w http.ResponseWriter, r *http.Request) {
	gameID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid game ID", http.StatusBadRequest)
		return
	}
	addr := mux.Vars(r)["address"]

	writeJSON(w, http.StatusOK, map[string]int64{
		"amount": s.engine.Claimable(gameID, addr),
	})
}

type CreateChallengeRequest struct {
	Challenged string `json:"challenged"`
	Stake      int64  `json:"stake"`
	Asset      string `json:"asset"`
	BoardSize  int    `json:"board_size"`
}

func (s *Service) CreateChallengeHandler(w http.ResponseWriter, r *http.Request, caller string) {
	var req CreateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	challenge, err := s.engine.CreateChallenge(caller, req.Challenged, req.Stake, req.Asset, req.BoardSize)
	if err != nil {
		log.Debug().Err(err).Str("caller", caller).Msg("Create challenge rejected")
		writeEngineError(w, err)
		return
	}

	log.Info().Uint64("challengeID", challenge.ID).Str("challenger", caller).Str("challenged", req.Challenged).Msg("Challenge created")
	writeJSON(w, http.StatusCreated, challenge)
}

type AcceptChallengeRequest struct {
	OpeningIndex int `json:"opening_index"`
}

func (s *Service) AcceptChallengeHandler(w http.ResponseWriter, r *http.Request, caller string) {
	challengeID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid challenge ID", http.StatusBadRequest)
		return
	}
	var req AcceptChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	game, err := s.engine.AcceptChallenge(caller, challengeID, req.OpeningIndex)
	if err != nil {
		log.Debug().Err(err).Uint64("challengeID", challengeID).Str("caller", caller).Msg("Accept rejected")
		writeEngineError(w, err)
		return
	}

	log.Info().Uint64("challengeID", challengeID).Uint64("gameID", game.ID).Msg("Challenge accepted")
	writeJSON(w, http.StatusCreated, game)
}

func (s *Service) CancelChallengeHandler(w http.ResponseWriter, r *http.Request, caller string) {
	challengeID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid challenge ID", http.StatusBadRequest)
		return
	}

	if err := s.engine.CancelChallenge(caller, challengeID); err != nil {
		writeEngineError(w, err)
		return
	}

	log.Info().Uint64("challengeID", challengeID).Str("caller", caller).Msg("Challenge cancelled")
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) GetChallengeHandler(w http.ResponseWriter, r *http.Request) {
	challengeID, err := pathID(r)
	if err != nil {
		http.Error(w, "Invalid challenge ID", http.StatusBadRequest)
		return
	}

	challenge, err := s.engine.GetChallenge(challengeID)
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, challenge)
}

func (s *Service) GetPlayerHandler(w http.ResponseWriter, r *http.Request) {
	player, err := s.engine.GetPlayer(mux.Vars(r)["address"])
	if err != nil {
		writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, player)
}

func (s *Service) GetBalanceHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"address": vars["address"],
		"asset":   vars["asset"],
		"balance": s.vault.Balance(vars["address"], vars["asset"]),
	})
}

func (s *Service) LeaderboardHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.Leaderboard())
}

func (s *Service) RecentWinsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.engine.RecentWins())
}
