// Package api declares the read-only admin HTTP surface.
package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/velstra/garrison/internal/domain/model"
	"github.com/velstra/garrison/internal/domain/progression"
)

// ProgressHandler serves per-member promotion progress.
type ProgressHandler struct {
	deps Dependencies
}

// NewProgressHandler creates a new progress handler.
func NewProgressHandler(deps Dependencies) *ProgressHandler {
	return &ProgressHandler{deps: deps}
}

// progressResponse mirrors the progression decision in JSON form.
type progressResponse struct {
	MemberID           string                `json:"member_id"`
	Rank               string                `json:"rank"`
	NextRank           string                `json:"next_rank,omitempty"`
	Ready              bool                  `json:"ready"`
	Requirements       []requirementResponse `json:"requirements"`
	AssessmentRequired bool                  `json:"assessment_required"`
	AssessmentPassed   bool                  `json:"assessment_passed"`
	TotalHosted        int                   `json:"total_hosted"`
	WarfareHosted      int                   `json:"warfare_hosted"`
}

type requirementResponse struct {
	Name     string `json:"name"`
	Current  int    `json:"current"`
	Required int    `json:"required"`
	Met      bool   `json:"met"`
}

// HandleGetProgress handles GET /progress/{member} requests.
func (h *ProgressHandler) HandleGetProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	member := strings.TrimPrefix(r.URL.Path, "/progress/")
	if member == "" || strings.Contains(member, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing member id"))
		return
	}

	d, err := h.deps.Evaluate(r.Context(), model.MemberID(member))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "evaluation_failed", err)
		return
	}

	writeJSON(w, http.StatusOK, toProgressResponse(member, d))
}

func toProgressResponse(member string, d progression.Decision) progressResponse {
	reqs := make([]requirementResponse, 0, len(d.Requirements))
	for _, req := range d.Requirements {
		reqs = append(reqs, requirementResponse{
			Name:     req.Name,
			Current:  req.Current,
			Required: req.Required,
			Met:      req.Met(),
		})
	}
	return progressResponse{
		MemberID:           member,
		Rank:               d.Tier.Label,
		NextRank:           d.Next,
		Ready:              d.Ready,
		Requirements:       reqs,
		AssessmentRequired: d.AssessmentRequired,
		AssessmentPassed:   d.AssessmentPassed,
		TotalHosted:        d.Stats.TotalHosted,
		WarfareHosted:      d.Stats.WarfareHosted,
	}
}
