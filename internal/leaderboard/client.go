package leaderboard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tatianab/campus-life/internal/engine"
	"github.com/tatianab/campus-life/internal/models"
	"go.uber.org/zap"
)

var ErrDisabled = errors.New("leaderboard not configured")

// Client talks to a remote leaderboard. Failures never reach the game:
// reads return an empty list alongside the error.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient returns a client for the server at baseURL. An empty baseURL
// yields a client whose calls return ErrDisabled.
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// EntryFor builds the upload for a finished playthrough.
func EntryFor(s models.GameState, challengeID string) models.LeaderboardEntry {
	ending := engine.EndingScore(s)
	var challenge *string
	if challengeID != "" {
		challenge = &challengeID
	}
	name := s.PlayerName
	if name == "" {
		name = "无名氏"
	}
	return models.LeaderboardEntry{
		PlayerName:  name,
		Score:       ending.Score,
		ChallengeID: challenge,
		Difficulty:  s.Difficulty,
		Details:     models.LeaderboardDetails{Title: ending.Title, Rank: ending.Rank},
	}
}

func (c *Client) Submit(ctx context.Context, entry models.LeaderboardEntry) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	body, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/leaderboard", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("leaderboard upload failed", zap.Error(err))
		return fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		c.logger.Warn("leaderboard upload rejected", zap.Int("status", resp.StatusCode))
		return fmt.Errorf("upload: status %d", resp.StatusCode)
	}
	c.logger.Info("leaderboard upload", zap.String("player", entry.PlayerName), zap.Int("score", entry.Score))
	return nil
}

// Top fetches the ranked entries of challengeID, or the open board when it
// is empty.
func (c *Client) Top(ctx context.Context, challengeID string, limit int) ([]models.LeaderboardEntry, error) {
	if !c.Enabled() {
		return []models.LeaderboardEntry{}, ErrDisabled
	}

	q := url.Values{}
	if challengeID != "" {
		q.Set("challenge_id", challengeID)
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	u := c.baseURL + "/api/v1/leaderboard"
	if len(q) > 0 {
		u += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return []models.LeaderboardEntry{}, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("leaderboard fetch failed", zap.Error(err))
		return []models.LeaderboardEntry{}, fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("leaderboard fetch rejected", zap.Int("status", resp.StatusCode))
		return []models.LeaderboardEntry{}, fmt.Errorf("fetch: status %d", resp.StatusCode)
	}

	var out struct {
		Entries []models.LeaderboardEntry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return []models.LeaderboardEntry{}, fmt.Errorf("fetch: %w", err)
	}
	if out.Entries == nil {
		out.Entries = []models.LeaderboardEntry{}
	}
	return out.Entries, nil
}
