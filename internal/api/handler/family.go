package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/learnadoodle/planner/internal/api/middleware"
	"github.com/learnadoodle/planner/internal/api/response"
	"github.com/learnadoodle/planner/internal/family"
)

// FamilyReader is the read side of the family repository.
type FamilyReader interface {
	FamilyName(ctx context.Context, familyID uuid.UUID) (string, error)
	ListChildren(ctx context.Context, familyID uuid.UUID) ([]family.Child, error)
	ListMembers(ctx context.Context, familyID uuid.UUID) ([]family.Member, error)
}

type familyMembersData struct {
	FamilyName string          `json:"familyName"`
	Children   []family.Child  `json:"children"`
	Members    []family.Member `json:"members"`
}

// FamilyHandler handles GET /api/family/members.
type FamilyHandler struct {
	families FamilyReader
}

// NewFamilyHandler creates a new FamilyHandler.
func NewFamilyHandler(families FamilyReader) *FamilyHandler {
	return &FamilyHandler{families: families}
}

// Members lists the family's name, active children and members.
func (h *FamilyHandler) Members(w http.ResponseWriter, r *http.Request) {
	familyID := middleware.GetFamilyID(r.Context())

	var data familyMembersData
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() (err error) {
		data.FamilyName, err = h.families.FamilyName(ctx, familyID)
		return err
	})
	g.Go(func() (err error) {
		data.Children, err = h.families.ListChildren(ctx, familyID)
		return err
	})
	g.Go(func() (err error) {
		data.Members, err = h.families.ListMembers(ctx, familyID)
		return err
	})
	if err := g.Wait(); err != nil {
		serviceError(w, r, err, "list family members")
		return
	}

	response.Success(w, http.StatusOK, data, middleware.GetRequestID(r.Context()))
}
