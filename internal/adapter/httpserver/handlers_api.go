package httpserver

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "github.com/pscheid92/chatpolls/internal/errors"
	"github.com/pscheid92/chatpolls/internal/poll"
)

func (s *Server) registerAPIRoutes() {
	s.echo.GET("/api/owners", s.handleListOwners)
	s.echo.GET("/api/owners/:owner/polls", s.handleListPolls)
	s.echo.GET("/api/owners/:owner/polls/:id", s.handleGetPoll)
	s.echo.POST("/api/save", s.handleSave, newRateLimiter(saveRatePerSecond, saveBurst))
}

type pollSummary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	Options   []string  `json:"options"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Voters    int       `json:"voters"`
}

type pollDetail struct {
	pollSummary
	Description       string         `json:"description"`
	CreatedAt         time.Time      `json:"created_at"`
	OptionVotes       map[string]int `json:"option_votes,omitempty"`
	Winner            string         `json:"winner,omitempty"`
	Rewards           []string       `json:"rewards"`
	RewardOnlyWinners bool           `json:"reward_only_winners"`
}

func summarize(p *poll.Poll) pollSummary {
	return pollSummary{
		ID:        p.ID(),
		Title:     p.Title(),
		Type:      p.Type().String(),
		Status:    p.Status().String(),
		Options:   p.Options(),
		StartTime: p.StartTime(),
		EndTime:   p.EndTime(),
		Voters:    p.VoterCount(),
	}
}

func describe(p *poll.Poll) pollDetail {
	d := pollDetail{
		pollSummary:       summarize(p),
		Description:       p.Description(),
		CreatedAt:         p.CreatedAt(),
		Rewards:           []string{},
		RewardOnlyWinners: p.RewardOnlyWinners(),
	}
	if p.Type() == poll.TypeSingle {
		d.OptionVotes = p.OptionVotes()
	}
	if winner, ok := p.Winner(); ok {
		d.Winner = winner
	}
	for _, r := range p.Rewards() {
		d.Rewards = append(d.Rewards, r.Describe())
	}
	return d
}

func parseOwner(c echo.Context) (uuid.UUID, error) {
	raw := c.Param("owner")
	ownerID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperrors.ValidationError("invalid owner id", err).WithContext("owner", raw)
	}
	return ownerID, nil
}

func (s *Server) handleListOwners(c echo.Context) error {
	owners := s.app.Owners()
	ids := make([]string, 0, len(owners))
	for _, o := range owners {
		ids = append(ids, o.String())
	}

	if err := c.JSON(http.StatusOK, map[string][]string{"owners": ids}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleListPolls(c echo.Context) error {
	ownerID, err := parseOwner(c)
	if err != nil {
		return err
	}

	polls := s.app.ListPolls(ownerID)
	out := make([]pollSummary, 0, len(polls))
	for _, p := range polls {
		out = append(out, summarize(p))
	}

	if err := c.JSON(http.StatusOK, map[string]any{"polls": out}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleGetPoll(c echo.Context) error {
	ownerID, err := parseOwner(c)
	if err != nil {
		return err
	}

	p, err := s.app.GetPoll(ownerID, c.Param("id"))
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, describe(p)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSave(c echo.Context) error {
	if err := s.app.Save(c.Request().Context()); err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "saved"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
