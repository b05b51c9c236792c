package services

import (
	"errors"

	"github.com/Dosada05/chess-league/brackets"
	"github.com/Dosada05/chess-league/scoring"
)

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// Ошибки движка турнира
	ErrInvalidTournamentSize  = brackets.ErrInvalidTournamentSize
	ErrInsufficientRoster     = brackets.ErrInsufficientRoster
	ErrGameNotFound           = scoring.ErrGameNotFound
	ErrMatchNotFound          = scoring.ErrMatchNotFound
	ErrRoundNotFound          = scoring.ErrRoundNotFound
	ErrPlayerNotFound         = scoring.ErrPlayerNotFound
	ErrResultAlreadySubmitted = scoring.ErrResultAlreadySubmitted
	ErrResultNotSubmitted     = scoring.ErrResultNotSubmitted
	ErrInvalidOutcome         = scoring.ErrInvalidOutcome
	ErrInvalidBoard           = scoring.ErrInvalidBoard

	ErrTournamentNotFound = errors.New("tournament not found")
	ErrTeamNotFound       = errors.New("team not found")

	// Ошибки валидации и бизнес-правил
	ErrTournamentNameRequired            = errors.New("tournament name is required")
	ErrTeamNameRequired                  = errors.New("team name is required")
	ErrPlayerNameRequired                = errors.New("player name is required")
	ErrInvalidRating                     = errors.New("player rating must be positive")
	ErrTeamTooLarge                      = errors.New("team cannot have more than six players")
	ErrTournamentInvalidDateRange        = errors.New("tournament end date must be after start date")
	ErrRoundInvalidDateRange             = errors.New("round end date must be after start date")
	ErrTournamentInvalidStatus           = errors.New("invalid tournament status provided")
	ErrTournamentInvalidStatusTransition = errors.New("invalid tournament status transition")
	ErrTournamentNotActive               = errors.New("tournament is paused")
	ErrTournamentCompleted               = errors.New("tournament is already completed")
	ErrPlayerHasGames                    = errors.New("player has already been paired and cannot be removed")
	ErrPlayersNotTeammates               = errors.New("players must belong to the same team")
	ErrInvalidColor                      = errors.New("color must be white or black")
	ErrSubstituteWrongTeam               = errors.New("substitute must belong to the team playing that color on this board")
	ErrSubstituteAlreadySeated           = errors.New("substitute is already seated on another board of this match")

	// Ошибки конфликтов
	ErrTeamNameConflict   = errors.New("team name is already in use in this tournament")
	ErrPlayerNameConflict = errors.New("player name is already in use in this team")

	ErrPublishingDisabled = errors.New("standings publishing is not configured")
)
