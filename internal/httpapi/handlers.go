package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alexanderramin/barnlog/internal/domain"
)

type horseJSON struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type riderJSON struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type sessionJSON struct {
	ID              string          `json:"id"`
	HorseID         string          `json:"horseId"`
	RiderID         string          `json:"riderId"`
	RiderName       string          `json:"riderName"`
	Date            string          `json:"date"`
	WorkType        domain.WorkType `json:"workType"`
	WorkTypeLabel   string          `json:"workTypeLabel"`
	DurationMinutes int             `json:"durationMinutes"`
	Notes           string          `json:"notes"`
	CreatedAt       time.Time       `json:"createdAt"`
}

func toSessionJSON(s *domain.Session) sessionJSON {
	return sessionJSON{
		ID:              s.ID,
		HorseID:         s.HorseID,
		RiderID:         s.RiderID,
		RiderName:       s.RiderName,
		Date:            s.Date.Format(time.DateOnly),
		WorkType:        s.WorkType,
		WorkTypeLabel:   s.WorkType.Label(),
		DurationMinutes: s.DurationMinutes,
		Notes:           s.Notes,
		CreatedAt:       s.CreatedAt,
	}
}

type verifyRequest struct {
	Token string `json:"token" binding:"required"`
}

func (a *api) verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, a.Logger, badInput(CodeInvalidRequest, "A token is required."))
		return
	}
	id, err := a.Verifier.Verify(req.Token)
	if err != nil {
		respond(c, a.Logger, err)
		return
	}
	c.JSON(http.StatusOK, id)
}

func (a *api) listHorses(c *gin.Context) {
	horses, err := a.Horses.ListByBarn(c.Request.Context(), mustIdentity(c).BarnID)
	if err != nil {
		respond(c, a.Logger, err)
		return
	}
	out := make([]horseJSON, 0, len(horses))
	for _, h := range horses {
		out = append(out, horseJSON{ID: h.ID, Name: h.Name, CreatedAt: h.CreatedAt})
	}
	c.JSON(http.StatusOK, gin.H{"horses": out})
}

type createHorseRequest struct {
	Name string `json:"name" binding:"required,max=80"`
}

func (a *api) createHorse(c *gin.Context) {
	var req createHorseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, a.Logger, badInput(CodeInvalidRequest, "A horse name of at most 80 characters is required."))
		return
	}
	h, err := a.Horses.Add(c.Request.Context(), mustIdentity(c).BarnID, req.Name)
	if err != nil {
		respond(c, a.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, horseJSON{ID: h.ID, Name: h.Name, CreatedAt: h.CreatedAt})
}

func (a *api) listRiders(c *gin.Context) {
	riders, err := a.Riders.ListByBarn(c.Request.Context(), mustIdentity(c).BarnID)
	if err != nil {
		respond(c, a.Logger, err)
		return
	}
	out := make([]riderJSON, 0, len(riders))
	for _, r := range riders {
		out = append(out, riderJSON{ID: r.ID, Name: r.Name})
	}
	c.JSON(http.StatusOK, gin.H{"riders": out})
}

func (a *api) listSessions(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond(c, a.Logger, badInput(CodeInvalidRequest, "limit must be a positive number."))
			return
		}
		limit = n
	}
	sessions, err := a.Sessions.ListByHorse(c.Request.Context(), mustIdentity(c).BarnID, c.Param("id"), limit)
	if err != nil {
		respond(c, a.Logger, err)
		return
	}
	out := make([]sessionJSON, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, toSessionJSON(s))
	}
	c.JSON(http.StatusOK, gin.H{"sessions": out})
}

type logSessionRequest struct {
	HorseID string `json:"horseId" binding:"required"`
	// RiderID defaults to the caller.
	RiderID         string `json:"riderId"`
	Date            string `json:"date" binding:"required,datetime=2006-01-02"`
	WorkType        string `json:"workType" binding:"required"`
	DurationMinutes int    `json:"durationMinutes" binding:"required,gt=0"`
	Notes           string `json:"notes" binding:"max=5000"`
}

func (a *api) logSession(c *gin.Context) {
	var req logSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond(c, a.Logger, badInput(CodeInvalidRequest, err.Error()))
		return
	}
	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		respond(c, a.Logger, badInput(CodeInvalidRequest, "date must be YYYY-MM-DD."))
		return
	}
	id := mustIdentity(c)
	riderID := strings.TrimSpace(req.RiderID)
	if riderID == "" {
		riderID = id.RiderID
	}

	s := &domain.Session{
		HorseID:         req.HorseID,
		RiderID:         riderID,
		Date:            date,
		WorkType:        domain.WorkType(strings.ToLower(strings.TrimSpace(req.WorkType))),
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
	}
	if err := a.Sessions.LogSession(c.Request.Context(), id.BarnID, s); err != nil {
		respond(c, a.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, toSessionJSON(s))
}

func (a *api) deleteSession(c *gin.Context) {
	if err := a.Sessions.Delete(c.Request.Context(), mustIdentity(c).BarnID, c.Param("id")); err != nil {
		respond(c, a.Logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
