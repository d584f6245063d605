package importer

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/google/uuid"
)

// Converted is an import schema turned into domain objects. Nodes keep the
// file order, so parents come before their children. WbsCode and Level are
// left for the WBS tree to derive on insert.
type Converted struct {
	Project      *domain.Project
	Nodes        []*domain.WbsNode
	Subtasks     []*domain.Subtask
	Dependencies []*domain.Dependency
	Refs         map[string]string // ref -> node ID
}

// Convert transforms a validated ImportSchema into domain objects ready for persistence.
// Call ValidateImportSchema first; Convert assumes the schema is valid.
func Convert(schema *ImportSchema, now time.Time) (*Converted, error) {
	startDate, err := domain.ParseDate(schema.Project.StartDate)
	if err != nil {
		return nil, fmt.Errorf("parsing start_date: %w", err)
	}

	project := &domain.Project{
		ID:        uuid.New().String(),
		ShortID:   strings.ToUpper(strings.TrimSpace(schema.Project.ShortID)),
		Name:      strings.TrimSpace(schema.Project.Name),
		StartDate: startDate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	out := &Converted{Project: project, Refs: make(map[string]string, len(schema.Nodes))}

	for _, n := range schema.Nodes {
		realID := uuid.New().String()
		out.Refs[n.Ref] = realID

		var parentID *string
		if n.ParentRef != nil && *n.ParentRef != "" {
			pid, ok := out.Refs[*n.ParentRef]
			if !ok {
				return nil, fmt.Errorf("parent_ref %q not found for node %q", *n.ParentRef, n.Ref)
			}
			parentID = &pid
		}

		node := &domain.WbsNode{
			ID:                  realID,
			ProjectID:           project.ID,
			ParentID:            parentID,
			SortOrder:           n.Order,
			Name:                strings.TrimSpace(n.Name),
			PlannedStart:        parseOptionalDate(n.PlannedStart),
			PlannedDurationDays: n.DurationDays,
			PlannedCost:         n.PlannedCost,
			Weight:              domain.Or(domain.DefaultWeight, n.Weight),
			Quantity:            n.Quantity,
			QuantityDone:        n.QuantityDone,
			PercentComplete:     leafPercent(n),
			IsMilestone:         n.Milestone,
			IsInspection:        n.Inspection,
			ManualDates:         n.ManualDates,
			DateLocked:          n.DateLocked,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		node.NormalizeSchedule()
		out.Nodes = append(out.Nodes, node)

		for _, st := range n.Subtasks {
			out.Subtasks = append(out.Subtasks, &domain.Subtask{
				ID:           uuid.New().String(),
				BacklogID:    realID,
				Name:         strings.TrimSpace(st.Name),
				Weight:       domain.Or(domain.DefaultWeight, st.Weight),
				Quantity:     st.Quantity,
				QuantityDone: st.QuantityDone,
				Status:       domain.SubtaskStatus(domain.CoalesceStr(st.Status, string(domain.SubtaskPending))),
				CreatedAt:    now,
				UpdatedAt:    now,
			})
		}
	}

	for _, d := range schema.Dependencies {
		predID, ok := out.Refs[d.PredecessorRef]
		if !ok {
			return nil, fmt.Errorf("predecessor_ref %q not found", d.PredecessorRef)
		}
		succID, ok := out.Refs[d.SuccessorRef]
		if !ok {
			return nil, fmt.Errorf("successor_ref %q not found", d.SuccessorRef)
		}
		out.Dependencies = append(out.Dependencies, &domain.Dependency{
			ProjectID:     project.ID,
			PredecessorID: predID,
			SuccessorID:   succID,
			Type:          domain.DependencyType(domain.CoalesceStr(strings.ToUpper(d.Type), string(domain.FinishToStart))),
			LagDays:       d.LagDays,
			CreatedAt:     now,
		})
	}

	return out, nil
}

// leafPercent is the stored percent of an imported node. An explicit
// percent wins; a quantity-tracked node without one derives it.
func leafPercent(n NodeImport) float64 {
	if n.PercentComplete > 0 || n.Quantity <= 0 {
		return n.PercentComplete
	}
	return domain.ClampPercent(n.QuantityDone / n.Quantity * 100)
}

func parseOptionalDate(s *string) *time.Time {
	if s == nil || *s == "" {
		return nil
	}
	t, err := domain.ParseDate(*s)
	if err != nil {
		return nil
	}
	return &t
}
