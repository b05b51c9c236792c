package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/chess-league/models"
	"github.com/Dosada05/chess-league/repositories"
	"github.com/Dosada05/chess-league/scoring"
	"github.com/Dosada05/chess-league/storage"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"golang.org/x/sync/errgroup"
)

const standingsContentType = "application/json"

// StandingsSnapshot is the document published to object storage.
type StandingsSnapshot struct {
	Tournament     *models.Tournament    `json:"tournament"`
	Standings      []models.TeamStanding `json:"standings"`
	PlayerRankings []models.PlayerStat   `json:"player_rankings"`
	GeneratedAt    time.Time             `json:"generated_at"`
}

type PublishedStandings struct {
	URL         string    `json:"url"`
	ArchiveURL  string    `json:"archive_url"`
	PublishedAt time.Time `json:"published_at"`
}

type StandingsService interface {
	RecalculateStandings(ctx context.Context, tournamentID int) ([]models.TeamStanding, error)
	RecalculatePlayerRankings(ctx context.Context, tournamentID int) ([]models.PlayerStat, error)
	PublishStandings(ctx context.Context, tournamentID int) (*PublishedStandings, error)
}

type standingsService struct {
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	playerRepo     repositories.PlayerRepository
	matchRepo      repositories.MatchRepository
	uploader       storage.FileUploader
	logger         *slog.Logger
}

// NewStandingsService creates the service. uploader may be nil, in which
// case PublishStandings returns ErrPublishingDisabled.
func NewStandingsService(
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	playerRepo repositories.PlayerRepository,
	matchRepo repositories.MatchRepository,
	uploader storage.FileUploader,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		playerRepo:     playerRepo,
		matchRepo:      matchRepo,
		uploader:       uploader,
		logger:         loggerOrDefault(logger),
	}
}

func (s *standingsService) ensureTournament(ctx context.Context, tournamentID int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, nil, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err)
	}
	return tournament, nil
}

// RecalculateStandings строит таблицу заново по сохранённым матчам.
// Ничего не записывает.
func (s *standingsService) RecalculateStandings(ctx context.Context, tournamentID int) ([]models.TeamStanding, error) {
	if _, err := s.ensureTournament(ctx, tournamentID); err != nil {
		return nil, err
	}

	var (
		teams   []*models.Team
		matches []*models.Match
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByTournament(gCtx, nil, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		matches, err = s.matchRepo.ListByTournament(gCtx, nil, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load standings data for tournament %d: %w", tournamentID, err)
	}
	return scoring.CalculateStandings(teams, matches), nil
}

func (s *standingsService) RecalculatePlayerRankings(ctx context.Context, tournamentID int) ([]models.PlayerStat, error) {
	if _, err := s.ensureTournament(ctx, tournamentID); err != nil {
		return nil, err
	}

	var (
		teams   []*models.Team
		players []*models.Player
	)
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = s.teamRepo.ListByTournament(gCtx, nil, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		players, err = s.playerRepo.ListByTournament(gCtx, nil, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load ranking data for tournament %d: %w", tournamentID, err)
	}

	teamNames := make(map[int]string, len(teams))
	for _, t := range teams {
		teamNames[t.ID] = t.Name
	}
	return scoring.RankPlayers(players, teamNames), nil
}

func standingsKey(tournamentID int) string {
	return fmt.Sprintf("tournaments/%d/standings.json", tournamentID)
}

func archiveKey(tournamentID int, snapshotID string) string {
	return fmt.Sprintf("tournaments/%d/archive/%s.json", tournamentID, snapshotID)
}

// PublishStandings выгружает текущую таблицу в хранилище: постоянный ключ
// перезаписывается, плюс сохраняется архивная копия.
func (s *standingsService) PublishStandings(ctx context.Context, tournamentID int) (*PublishedStandings, error) {
	if s.uploader == nil {
		return nil, ErrPublishingDisabled
	}

	tournament, err := s.ensureTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	standings, err := s.RecalculateStandings(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	rankings, err := s.RecalculatePlayerRankings(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	body, err := json.Marshal(StandingsSnapshot{
		Tournament:     tournament,
		Standings:      standings,
		PlayerRankings: rankings,
		GeneratedAt:    now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode standings snapshot: %w", err)
	}

	snapshotID, err := gonanoid.New()
	if err != nil {
		return nil, fmt.Errorf("failed to generate snapshot id: %w", err)
	}

	key := standingsKey(tournamentID)
	if _, err := s.uploader.Upload(ctx, key, standingsContentType, bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("failed to upload standings: %w", err)
	}
	archived := archiveKey(tournamentID, snapshotID)
	if _, err := s.uploader.Upload(ctx, archived, standingsContentType, bytes.NewReader(body)); err != nil {
		return nil, fmt.Errorf("failed to upload standings archive: %w", err)
	}

	s.logger.InfoContext(ctx, "standings published",
		slog.Int("tournament_id", tournamentID),
		slog.String("key", key),
		slog.String("archive_key", archived),
	)
	return &PublishedStandings{
		URL:         s.uploader.GetPublicURL(key),
		ArchiveURL:  s.uploader.GetPublicURL(archived),
		PublishedAt: now,
	}, nil
}
