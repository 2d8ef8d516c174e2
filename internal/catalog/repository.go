package catalog

import (
	"context"
	"errors"
)

var (
	ErrServiceNotFound = errors.New("service not found")
	ErrMasterNotFound  = errors.New("master not found")
	ErrInvalidService  = errors.New("invalid service")
)

type Repository interface {
	CreateService(ctx context.Context, s Service) (*Service, error)
	GetServiceByID(ctx context.Context, id int64) (*Service, error)
	ListServices(ctx context.Context) ([]ServiceWithMaster, error)
	ListServicesByMaster(ctx context.Context, masterID int64) ([]Service, error)
	// UpdateService replaces the stored row with s; s.ID selects it.
	UpdateService(ctx context.Context, s Service) (*Service, error)
	DeleteService(ctx context.Context, id int64) error
}
