package testutil

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/google/uuid"
)

var (
	testShortIDCounter atomic.Int64
	testCodeCounter    atomic.Int64
)

// Project options
type ProjectOption func(*domain.Project)

func WithShortID(id string) ProjectOption {
	return func(p *domain.Project) {
		p.ShortID = id
	}
}

func WithStartDate(d time.Time) ProjectOption {
	return func(p *domain.Project) {
		p.StartDate = domain.Day(d)
	}
}

func defaultShortID(name string) string {
	upper := strings.ToUpper(name)
	var letters []byte
	for i := 0; i < len(upper) && len(letters) < 3; i++ {
		if upper[i] >= 'A' && upper[i] <= 'Z' {
			letters = append(letters, upper[i])
		}
	}
	for len(letters) < 3 {
		letters = append(letters, 'X')
	}
	n := testShortIDCounter.Add(1)
	return fmt.Sprintf("%s%02d", string(letters), n)
}

func NewTestProject(name string, opts ...ProjectOption) *domain.Project {
	now := time.Now().UTC()
	p := &domain.Project{
		ID:        uuid.New().String(),
		ShortID:   defaultShortID(name),
		Name:      name,
		StartDate: domain.Day(now),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WbsNode options
type NodeOption func(*domain.WbsNode)

// WithParent places the node one level under parent.
func WithParent(parent *domain.WbsNode) NodeOption {
	return func(n *domain.WbsNode) {
		id := parent.ID
		n.ParentID = &id
		n.Level = parent.Level + 1
	}
}

func WithCode(code string) NodeOption {
	return func(n *domain.WbsNode) {
		n.WbsCode = code
	}
}

func WithSortOrder(o int) NodeOption {
	return func(n *domain.WbsNode) {
		n.SortOrder = o
	}
}

func WithWeight(w float64) NodeOption {
	return func(n *domain.WbsNode) {
		n.Weight = w
	}
}

func WithPercent(p float64) NodeOption {
	return func(n *domain.WbsNode) {
		n.PercentComplete = p
	}
}

// WithSchedule sets the planned start and duration and derives the end.
func WithSchedule(start time.Time, days int) NodeOption {
	return func(n *domain.WbsNode) {
		s := domain.Day(start)
		n.PlannedStart = &s
		n.PlannedDurationDays = days
		n.NormalizeSchedule()
	}
}

func WithMilestone() NodeOption {
	return func(n *domain.WbsNode) {
		n.IsMilestone = true
		n.NormalizeSchedule()
	}
}

func WithDateLocked() NodeOption {
	return func(n *domain.WbsNode) {
		n.DateLocked = true
	}
}

func WithPlannedCost(c float64) NodeOption {
	return func(n *domain.WbsNode) {
		n.PlannedCost = c
	}
}

// NewTestNode builds a root node with a unique WBS code. Combine with
// WithParent and WithCode for nested fixtures.
func NewTestNode(projectID, name string, opts ...NodeOption) *domain.WbsNode {
	now := time.Now().UTC()
	seq := int(testCodeCounter.Add(1))
	n := &domain.WbsNode{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		WbsCode:   strconv.Itoa(seq),
		SortOrder: seq,
		Name:      name,
		Weight:    1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Subtask options
type SubtaskOption func(*domain.Subtask)

func WithSubtaskWeight(w float64) SubtaskOption {
	return func(s *domain.Subtask) {
		s.Weight = w
	}
}

func WithQuantity(total, done float64) SubtaskOption {
	return func(s *domain.Subtask) {
		s.Quantity = total
		s.QuantityDone = done
	}
}

func WithSubtaskStatus(st domain.SubtaskStatus) SubtaskOption {
	return func(s *domain.Subtask) {
		s.Status = st
	}
}

func NewTestSubtask(nodeID, name string, opts ...SubtaskOption) *domain.Subtask {
	now := time.Now().UTC()
	s := &domain.Subtask{
		ID:        uuid.New().String(),
		BacklogID: nodeID,
		Name:      name,
		Weight:    1,
		Status:    domain.SubtaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func NewTestDependency(projectID, predecessorID, successorID string, typ domain.DependencyType, lag int) *domain.Dependency {
	return &domain.Dependency{
		ProjectID:     projectID,
		PredecessorID: predecessorID,
		SuccessorID:   successorID,
		Type:          typ,
		LagDays:       lag,
		CreatedAt:     time.Now().UTC(),
	}
}

func NewTestSprint(projectID, name string, start time.Time, days int) *domain.Sprint {
	now := time.Now().UTC()
	return &domain.Sprint{
		ID:        uuid.New().String(),
		ProjectID: projectID,
		Name:      name,
		StartDate: domain.Day(start),
		EndDate:   domain.AddDays(start, days),
		Status:    domain.SprintFuture,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func NewTestSprintTask(sprintID, nodeID string) *domain.SprintTask {
	now := time.Now().UTC()
	return &domain.SprintTask{
		ID:        uuid.New().String(),
		SprintID:  sprintID,
		BacklogID: nodeID,
		Status:    domain.SprintTaskPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
