package catalog

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hackgods/salon-scheduling/internal/user"
)

// UserLookup resolves the master a service belongs to.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*user.User, error)
}

// Catalog owns the services masters offer. Changing a duration never
// re-validates appointments that were booked under the old one.
type Catalog struct {
	repo  Repository
	users UserLookup
	log   *zap.Logger
}

func NewCatalog(repo Repository, users UserLookup, log *zap.Logger) *Catalog {
	return &Catalog{
		repo:  repo,
		users: users,
		log:   log,
	}
}

func validateService(s Service) error {
	if s.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidService)
	}
	if s.DurationQuanta <= 0 {
		return fmt.Errorf("%w: duration must be positive", ErrInvalidService)
	}
	if s.Price <= 0 {
		return fmt.Errorf("%w: price must be positive", ErrInvalidService)
	}
	return nil
}

// master loads a user that is allowed to offer services.
func (c *Catalog) master(ctx context.Context, id int64) (*user.User, error) {
	u, err := c.users.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrMasterNotFound
		}
		return nil, fmt.Errorf("load master: %w", err)
	}
	if !u.Role.IsMaster() {
		return nil, ErrMasterNotFound
	}
	return u, nil
}

func (c *Catalog) Create(ctx context.Context, s Service) (*Service, error) {
	if err := validateService(s); err != nil {
		return nil, err
	}
	if _, err := c.master(ctx, s.MasterID); err != nil {
		return nil, err
	}

	created, err := c.repo.CreateService(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("create service: %w", err)
	}

	c.log.Info("service created",
		zap.Int64("service_id", created.ID),
		zap.Int64("master_id", created.MasterID),
		zap.Int("duration_quanta", created.DurationQuanta),
	)
	return created, nil
}

// Get returns a service with its master. A service whose master vanished is
// reported as ErrMasterNotFound.
func (c *Catalog) Get(ctx context.Context, id int64) (*ServiceWithMaster, error) {
	s, err := c.repo.GetServiceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	m, err := c.users.GetUserByID(ctx, s.MasterID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrMasterNotFound
		}
		return nil, fmt.Errorf("load master: %w", err)
	}

	return withMaster(*s, m), nil
}

func (c *Catalog) List(ctx context.Context) ([]ServiceWithMaster, error) {
	services, err := c.repo.ListServices(ctx)
	if err != nil {
		return nil, fmt.Errorf("list services: %w", err)
	}
	return services, nil
}

func (c *Catalog) ListByMaster(ctx context.Context, masterID int64) ([]ServiceWithMaster, error) {
	m, err := c.users.GetUserByID(ctx, masterID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrMasterNotFound
		}
		return nil, fmt.Errorf("load master: %w", err)
	}

	services, err := c.repo.ListServicesByMaster(ctx, masterID)
	if err != nil {
		return nil, fmt.Errorf("list services of master %d: %w", masterID, err)
	}

	result := make([]ServiceWithMaster, 0, len(services))
	for _, s := range services {
		result = append(result, *withMaster(s, m))
	}
	return result, nil
}

func (c *Catalog) Update(ctx context.Context, id int64, patch Patch) (*Service, error) {
	if patch.MasterID != nil {
		if _, err := c.master(ctx, *patch.MasterID); err != nil {
			return nil, err
		}
	}

	current, err := c.repo.GetServiceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	next := *current
	patch.apply(&next)
	if err := validateService(next); err != nil {
		return nil, err
	}

	updated, err := c.repo.UpdateService(ctx, next)
	if err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update service: %w", err)
	}

	if updated.DurationQuanta > current.DurationQuanta {
		c.log.Warn("service duration increased, existing appointments keep their start",
			zap.Int64("service_id", id),
			zap.Int("from", current.DurationQuanta),
			zap.Int("to", updated.DurationQuanta),
		)
	}
	return updated, nil
}

func (c *Catalog) Delete(ctx context.Context, id int64) error {
	if err := c.repo.DeleteService(ctx, id); err != nil {
		if errors.Is(err, ErrServiceNotFound) {
			return err
		}
		return fmt.Errorf("delete service: %w", err)
	}
	c.log.Info("service deleted", zap.Int64("service_id", id))
	return nil
}

func withMaster(s Service, m *user.User) *ServiceWithMaster {
	return &ServiceWithMaster{
		Service:           s,
		MasterFullName:    m.FullName,
		MasterRole:        m.Role,
		MasterPhoneNumber: m.PhoneNumber,
	}
}
