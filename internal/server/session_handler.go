package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tatianab/campus-life/internal/engine"
	"github.com/tatianab/campus-life/internal/models"
	"go.uber.org/zap"
)

type SessionHandler struct {
	sessions *SessionManager
	logger   *zap.Logger
}

func NewSessionHandler(sessions *SessionManager, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, logger: logger}
}

// CreateRequest is the body of POST /sessions.
type CreateRequest struct {
	Name        string             `json:"name" binding:"max=32"`
	Talents     []string           `json:"talents"`
	Competition models.Competition `json:"competition" binding:"omitempty,oneof=OI"`
	Difficulty  models.Difficulty  `json:"difficulty" binding:"omitempty,oneof=NORMAL HARD REALITY"`
	Seed        uint64             `json:"seed"`
}

type ChooseRequest struct {
	Index *int `json:"index" binding:"required,min=0"`
}

type WeekendRequest struct {
	Activity string `json:"activity" binding:"required"`
}

type SubjectsRequest struct {
	Electives []models.Subject `json:"electives" binding:"required,len=3"`
}

type ItemRequest struct {
	Item string `json:"item" binding:"required"`
}

// ClubRequest joins Club, or declines the offer when Club is empty.
type ClubRequest struct {
	Club string `json:"club"`
}

// StateResponse is returned by every session route.
type StateResponse struct {
	ID      string           `json:"id"`
	State   models.GameState `json:"state"`
	Pending engine.Pending   `json:"pending"`
	// Ending is set once the playthrough is over.
	Ending *engine.Ending `json:"ending,omitempty"`
}

func (h *SessionHandler) Register(rg *gin.RouterGroup) {
	s := rg.Group("/sessions")
	s.POST("", h.Create)
	s.GET("", h.List)
	s.GET("/:id", h.Get)
	s.DELETE("/:id", h.Delete)
	s.POST("/:id/tick", h.Tick)
	s.POST("/:id/choose", h.Choose)
	s.POST("/:id/confirm", h.Confirm)
	s.POST("/:id/weekend", h.Weekend)
	s.POST("/:id/weekend/end", h.EndWeekend)
	s.POST("/:id/subjects", h.Subjects)
	s.POST("/:id/club", h.Club)
	s.POST("/:id/exam", h.Exam)
	s.POST("/:id/exam/dismiss", h.DismissExam)
	s.POST("/:id/items/buy", h.BuyItem)
	s.POST("/:id/items/use", h.UseItem)
	s.GET("/:id/stream", h.Stream)
}

func (h *SessionHandler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	id, state, err := h.sessions.Create(c.Request.Context(), engine.Options{
		Name:        req.Name,
		Talents:     req.Talents,
		Competition: req.Competition,
		Difficulty:  req.Difficulty,
		Seed:        req.Seed,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, respond(id, state))
}

// List returns the ids of saved sessions, restorable with GET /sessions/:id.
func (h *SessionHandler) List(c *gin.Context) {
	ids, err := h.sessions.Saved(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": ids, "active": h.sessions.Len()})
}

func (h *SessionHandler) Get(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, respond(c.Param("id"), sess.State()))
}

func (h *SessionHandler) Delete(c *gin.Context) {
	if err := h.sessions.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Tick(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	res, err := sess.Tick(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := respond(c.Param("id"), res.State)
	c.JSON(http.StatusOK, gin.H{
		"id":           resp.ID,
		"state":        resp.State,
		"pending":      resp.Pending,
		"ending":       resp.Ending,
		"unlocked":     res.Unlocked,
		"club_offered": res.ClubOffered,
	})
}

func (h *SessionHandler) Choose(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req ChooseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	result, err := sess.Choose(c.Request.Context(), *req.Index)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := respond(c.Param("id"), sess.State())
	c.JSON(http.StatusOK, gin.H{"id": resp.ID, "state": resp.State, "pending": resp.Pending, "result": result})
}

func (h *SessionHandler) Confirm(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, respond(c.Param("id"), sess.Confirm(c.Request.Context())))
}

func (h *SessionHandler) Weekend(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req WeekendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	msg, err := sess.Weekend(c.Request.Context(), req.Activity)
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := respond(c.Param("id"), sess.State())
	c.JSON(http.StatusOK, gin.H{"id": resp.ID, "state": resp.State, "pending": resp.Pending, "message": msg})
}

func (h *SessionHandler) EndWeekend(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, respond(c.Param("id"), sess.EndWeekend(c.Request.Context())))
}

func (h *SessionHandler) Subjects(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req SubjectsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := sess.SelectSubjects(c.Request.Context(), req.Electives); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, respond(c.Param("id"), sess.State()))
}

func (h *SessionHandler) Club(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req ClubRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if req.Club == "" {
		c.JSON(http.StatusOK, respond(c.Param("id"), sess.DeclineClub(c.Request.Context())))
		return
	}
	if err := sess.JoinClub(c.Request.Context(), req.Club); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, respond(c.Param("id"), sess.State()))
}

func (h *SessionHandler) Exam(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	result, err := sess.SitExam(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	resp := respond(c.Param("id"), sess.State())
	c.JSON(http.StatusOK, gin.H{"id": resp.ID, "state": resp.State, "pending": resp.Pending, "result": result})
}

func (h *SessionHandler) DismissExam(c *gin.Context) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, respond(c.Param("id"), sess.DismissExamResult(c.Request.Context())))
}

func (h *SessionHandler) BuyItem(c *gin.Context) {
	h.item(c, (*engine.Session).BuyItem)
}

func (h *SessionHandler) UseItem(c *gin.Context) {
	h.item(c, (*engine.Session).UseItem)
}

func (h *SessionHandler) item(c *gin.Context, fn func(*engine.Session, context.Context, string) error) {
	sess, ok := h.session(c)
	if !ok {
		return
	}
	var req ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}
	if err := fn(sess, c.Request.Context(), req.Item); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, respond(c.Param("id"), sess.State()))
}

func (h *SessionHandler) session(c *gin.Context) (*engine.Session, bool) {
	sess, err := h.sessions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return nil, false
	}
	return sess, true
}

func respond(id string, s models.GameState) StateResponse {
	resp := StateResponse{ID: id, State: s, Pending: engine.PendingOf(&s)}
	if s.Phase.IsTerminal() {
		ending := engine.EndingScore(s)
		resp.Ending = &ending
	}
	return resp
}

var badRequest = []error{
	engine.ErrNoEvent,
	engine.ErrInvalidChoice,
	engine.ErrTalentBudget,
	engine.ErrUnknownTalent,
	engine.ErrInvalidElectives,
	engine.ErrUnknownClub,
	engine.ErrUnknownItem,
	engine.ErrNotEnoughMoney,
	engine.ErrAlreadyOwned,
	engine.ErrItemNotOwned,
	engine.ErrNotConsumable,
	engine.ErrUnknownActivity,
	engine.ErrActivityLocked,
	engine.ErrNotEnoughPoints,
}

var conflict = []error{
	engine.ErrTickBlocked,
	engine.ErrResultPending,
	engine.ErrNotExam,
	engine.ErrNotSelecting,
	engine.ErrNoClubOffer,
	engine.ErrNotWeekend,
}

// fail maps an error to its status code and writes it.
func (h *SessionHandler) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, engine.ErrNoGame):
		status = http.StatusNotFound
	case errors.Is(err, ErrTooManySessions):
		status = http.StatusServiceUnavailable
	case matches(err, badRequest):
		status = http.StatusBadRequest
	case matches(err, conflict):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.logger.Error("session request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func matches(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
