// Package leaderboard serves and uploads ranked playthrough endings.
package leaderboard

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tatianab/campus-life/internal/models"
	"github.com/tatianab/campus-life/internal/store"
	"go.uber.org/zap"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// SubmitRequest is the body of POST /leaderboard.
type SubmitRequest struct {
	PlayerName  string            `json:"player_name" binding:"required,max=64"`
	Score       *int              `json:"score" binding:"required"`
	ChallengeID *string           `json:"challenge_id" binding:"omitempty,max=64"`
	Difficulty  models.Difficulty `json:"difficulty" binding:"omitempty,oneof=NORMAL HARD REALITY"`
	Details     struct {
		Title string `json:"title" binding:"max=64"`
		Rank  int    `json:"rank" binding:"min=0"`
	} `json:"details"`
}

func (r SubmitRequest) entry() models.LeaderboardEntry {
	challenge := r.ChallengeID
	if challenge != nil && *challenge == "" {
		challenge = nil
	}
	difficulty := r.Difficulty
	if difficulty == "" {
		difficulty = models.DifficultyNormal
	}
	return models.LeaderboardEntry{
		PlayerName:  r.PlayerName,
		Score:       *r.Score,
		ChallengeID: challenge,
		Difficulty:  difficulty,
		Details:     models.LeaderboardDetails{Title: r.Details.Title, Rank: r.Details.Rank},
	}
}

type Handler struct {
	repo   store.LeaderboardRepository
	logger *zap.Logger
}

func NewHandler(repo store.LeaderboardRepository, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, logger: logger}
}

// Register mounts the leaderboard routes on rg.
func (h *Handler) Register(rg *gin.RouterGroup) {
	lb := rg.Group("/leaderboard")
	lb.GET("", h.List)
	lb.POST("", h.Submit)
}

// Submit appends one entry.
func (h *Handler) Submit(c *gin.Context) {
	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid entry: " + err.Error()})
		return
	}

	entry := req.entry()
	id, err := h.repo.Create(c.Request.Context(), entry)
	if err != nil {
		h.logger.Error("save leaderboard entry", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save entry"})
		return
	}

	h.logger.Info("leaderboard entry",
		zap.String("id", id),
		zap.String("player", entry.PlayerName),
		zap.Int("score", entry.Score),
	)
	c.JSON(http.StatusCreated, gin.H{"id": id})
}

// List returns the ranked entries of ?challenge_id=, or of the open board.
func (h *Handler) List(c *gin.Context) {
	limit := DefaultLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = min(n, MaxLimit)
	}

	var challenge *string
	if id := c.Query("challenge_id"); id != "" {
		challenge = &id
	}

	entries, err := h.repo.Top(c.Request.Context(), challenge, limit)
	if err != nil {
		h.logger.Error("list leaderboard", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load leaderboard"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
