package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/tatianab/campus-life/internal/models"
	"gorm.io/gorm"
)

// LeaderboardRow is one uploaded ending.
type LeaderboardRow struct {
	ID          string  `gorm:"primaryKey;size:36"`
	PlayerName  string  `gorm:"size:64;not null"`
	Score       int     `gorm:"index;not null"`
	ChallengeID *string `gorm:"size:64;index"`
	Difficulty  string  `gorm:"size:16"`
	Title       string  `gorm:"size:64"`
	Rank        int
	CreatedAt   time.Time
}

func (LeaderboardRow) TableName() string {
	return "leaderboard_entries"
}

func (r LeaderboardRow) Entry() models.LeaderboardEntry {
	return models.LeaderboardEntry{
		PlayerName:  r.PlayerName,
		Score:       r.Score,
		ChallengeID: r.ChallengeID,
		Difficulty:  models.Difficulty(r.Difficulty),
		Details:     models.LeaderboardDetails{Title: r.Title, Rank: r.Rank},
	}
}

type LeaderboardRepository interface {
	Create(ctx context.Context, entry models.LeaderboardEntry) (string, error)
	// Top returns the best entries of one challenge, or of the open board
	// when challengeID is nil, ordered by score.
	Top(ctx context.Context, challengeID *string, limit int) ([]models.LeaderboardEntry, error)
}

type leaderboardRepo struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepo{db: db}
}

func (r *leaderboardRepo) Create(ctx context.Context, entry models.LeaderboardEntry) (string, error) {
	row := LeaderboardRow{
		ID:          uuid.NewString(),
		PlayerName:  entry.PlayerName,
		Score:       entry.Score,
		ChallengeID: entry.ChallengeID,
		Difficulty:  string(entry.Difficulty),
		Title:       entry.Details.Title,
		Rank:        entry.Details.Rank,
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return "", err
	}
	return row.ID, nil
}

func (r *leaderboardRepo) Top(ctx context.Context, challengeID *string, limit int) ([]models.LeaderboardEntry, error) {
	query := r.db.WithContext(ctx).Model(&LeaderboardRow{})
	if challengeID == nil {
		query = query.Where("challenge_id IS NULL")
	} else {
		query = query.Where("challenge_id = ?", *challengeID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []LeaderboardRow
	if err := query.Order("score DESC").Order("created_at ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]models.LeaderboardEntry, len(rows))
	for i, row := range rows {
		entries[i] = row.Entry()
	}
	return entries, nil
}
