package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nikolag/summit/internal/domain"
	"github.com/nikolag/summit/internal/storage"
)

// notFoundOr500 maps storage errors to the right status code.
func notFoundOr500(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func (s *Server) handleAPILogin(c *gin.Context) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	token, ok := s.login(c, req.Username, req.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (s *Server) handleCounts(c *gin.Context) {
	counts, err := s.storage.CountAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	s.metrics.setCounts(counts)
	c.JSON(http.StatusOK, counts)
}

func (s *Server) handleListCountries(c *gin.Context) {
	list, err := s.storage.ListCountries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": list})
}

func (s *Server) handleResolveCountry(c *gin.Context) {
	q := c.Query("q")
	match, ok := s.resolver.Resolve(q)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no country matches " + strconv.Quote(q)})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"country": match.Country,
		"method":  match.Method,
		"score":   match.Score,
	})
}

func (s *Server) handleListParticipants(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "25"))

	result, err := s.storage.ListParticipants(c.Request.Context(), c.Query("search"), page, perPage)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetParticipant(c *gin.Context) {
	p, err := s.storage.GetParticipant(c.Request.Context(), c.Param("pid"))
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// handleCreateParticipant creates a new participant. The PID is
// allocated by the store when the body carries none; posting an
// existing PID is rejected rather than overwriting the record.
func (s *Server) handleCreateParticipant(c *gin.Context) {
	var p domain.Participant
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	created, err := s.storage.CreateParticipant(c.Request.Context(), p)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, created)
}

// handleUpdateParticipant replaces the profile at the path PID.
func (s *Server) handleUpdateParticipant(c *gin.Context) {
	var p domain.Participant
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	p.PID = c.Param("pid")

	if err := s.storage.SaveParticipant(c.Request.Context(), p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleDeleteParticipant(c *gin.Context) {
	if err := s.storage.DeleteParticipant(c.Request.Context(), c.Param("pid")); err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("pid")})
}

func (s *Server) handleNormalizePhones(c *gin.Context) {
	result, err := s.storage.NormalizeParticipantPhones(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": result.Updated, "skipped": result.Skipped})
}

func (s *Server) handleParticipantEvents(c *gin.Context) {
	events, err := s.storage.ListEventsForParticipant(c.Request.Context(), c.Param("pid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleListEvents(c *gin.Context) {
	events, err := s.storage.ListEvents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"events": events})
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	var e domain.Event
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	if e.EID == "" {
		eid, err := s.storage.NextEID(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		e.EID = eid
	}

	if err := s.storage.CreateEvent(ctx, e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (s *Server) handleGetEvent(c *gin.Context) {
	e, err := s.storage.GetEvent(c.Request.Context(), c.Param("eid"))
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) handleUpdateEvent(c *gin.Context) {
	var e domain.Event
	if err := c.ShouldBindJSON(&e); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	e.EID = c.Param("eid")

	if err := s.storage.UpdateEvent(c.Request.Context(), e); err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (s *Server) handleDeleteEvent(c *gin.Context) {
	if err := s.storage.DeleteEvent(c.Request.Context(), c.Param("eid")); err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": c.Param("eid")})
}

func (s *Server) handleEventParticipants(c *gin.Context) {
	ctx := c.Request.Context()
	eid := c.Param("eid")

	snapshots, err := s.storage.ListEventParticipants(ctx, eid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	avgPre, avgPost, err := s.storage.EventScoreAverages(ctx, eid)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"participants": snapshots,
		"avg_pre":      avgPre,
		"avg_post":     avgPost,
	})
}

func (s *Server) handleGetSnapshot(c *gin.Context) {
	snapshot, err := s.storage.GetSnapshot(c.Request.Context(), c.Param("eid"), c.Param("pid"))
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// handleAssign stores a participant snapshot on an event. With an empty
// body the snapshot is taken from the current profile.
func (s *Server) handleAssign(c *gin.Context) {
	eid, pid := c.Param("eid"), c.Param("pid")
	ctx := c.Request.Context()

	var req struct {
		Role domain.Role `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Role == "" {
		req.Role = domain.RoleParticipant
	}

	p, err := s.storage.GetParticipant(ctx, pid)
	if err != nil {
		notFoundOr500(c, err)
		return
	}

	snapshot := domain.SnapshotFrom(eid, p, req.Role)
	if err := s.storage.AssignParticipant(ctx, snapshot); err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

// handleRecordTestScore stores a pre- or post-training score. Posting
// the same attempt again replaces the score.
func (s *Server) handleRecordTestScore(c *gin.Context) {
	var tt domain.TrainingTest
	if err := c.ShouldBindJSON(&tt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := s.storage.SaveTestScore(c.Request.Context(), tt); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, tt)
}

func (s *Server) handleListEventTests(c *gin.Context) {
	tests, err := s.storage.ListEventTests(c.Request.Context(), c.Param("eid"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"tests": tests})
}

func (s *Server) handleGetTestScore(c *gin.Context) {
	attempt, err := domain.ParseAttemptType(c.Param("attempt"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tt, err := s.storage.GetTestScore(c.Request.Context(), c.Param("eid"), c.Param("pid"), attempt)
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, tt)
}

func (s *Server) handleUnassign(c *gin.Context) {
	if err := s.storage.UnassignParticipant(c.Request.Context(), c.Param("eid"), c.Param("pid")); err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unassigned": c.Param("pid")})
}
