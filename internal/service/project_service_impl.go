package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/cronograma/internal/db"
	"github.com/alexanderramin/cronograma/internal/domain"
	"github.com/google/uuid"
)

type projectService struct {
	uow   db.UnitOfWork
	locks *ProjectLocks
}

func NewProjectService(uow db.UnitOfWork, locks *ProjectLocks) ProjectService {
	return &projectService{uow: uow, locks: locksOrNew(locks)}
}

func (s *projectService) Create(ctx context.Context, p *domain.Project) error {
	if strings.TrimSpace(p.Name) == "" {
		return domain.NewValidationError(domain.ErrInvalidInput, "project name is required")
	}
	p.ShortID = strings.ToUpper(strings.TrimSpace(p.ShortID))
	if err := p.ValidateShortID(); err != nil {
		return domain.NewValidationError(domain.ErrInvalidInput, err.Error())
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	ts := now()
	if p.StartDate.IsZero() {
		p.StartDate = ts
	}
	p.StartDate = domain.Day(p.StartDate)
	p.CreatedAt = ts
	p.UpdatedAt = ts
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return reposFor(tx).projects.Create(ctx, p)
	})
}

func (s *projectService) GetByID(ctx context.Context, id string) (p *domain.Project, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		p, err = reposFor(tx).projects.GetByID(ctx, id)
		return err
	})
	return p, err
}

func (s *projectService) Resolve(ctx context.Context, ref string) (p *domain.Project, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		p, err = repos.projects.GetByShortID(ctx, ref)
		if isNotFound(err) {
			p, err = repos.projects.GetByID(ctx, ref)
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("resolving project %q: %w", ref, err)
	}
	return p, nil
}

func (s *projectService) List(ctx context.Context) (list []*domain.Project, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		list, err = reposFor(tx).projects.List(ctx)
		return err
	})
	return list, err
}

// Update saves name, short ID and start date. Moving the start date does
// not re-plan by itself; run a propagation afterwards.
func (s *projectService) Update(ctx context.Context, p *domain.Project) error {
	p.ShortID = strings.ToUpper(strings.TrimSpace(p.ShortID))
	if err := p.ValidateShortID(); err != nil {
		return domain.NewValidationError(domain.ErrInvalidInput, err.Error())
	}
	defer s.locks.Lock(p.ID)()
	p.StartDate = domain.Day(p.StartDate)
	p.UpdatedAt = now()
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return reposFor(tx).projects.Update(ctx, p)
	})
}

func (s *projectService) Delete(ctx context.Context, id string) error {
	defer s.locks.Lock(id)()
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		repos := reposFor(tx)
		if _, err := repos.projects.GetByID(ctx, id); err != nil {
			return err
		}
		return repos.projects.Delete(ctx, id)
	})
}
