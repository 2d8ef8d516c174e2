package catalog

import "github.com/hackgods/salon-scheduling/internal/user"

// Service is something a master offers, with a fixed length in quanta.
type Service struct {
	ID             int64
	Title          string
	DurationQuanta int
	Price          float64
	MasterID       int64
}

// ServiceWithMaster is a service joined with the public fields of its master.
type ServiceWithMaster struct {
	Service
	MasterFullName    string
	MasterRole        user.Role
	MasterPhoneNumber string
}

// Patch holds the fields of a partial update; nil means unchanged.
type Patch struct {
	Title          *string
	DurationQuanta *int
	Price          *float64
	MasterID       *int64
}

func (p Patch) apply(s *Service) {
	if p.Title != nil {
		s.Title = *p.Title
	}
	if p.DurationQuanta != nil {
		s.DurationQuanta = *p.DurationQuanta
	}
	if p.Price != nil {
		s.Price = *p.Price
	}
	if p.MasterID != nil {
		s.MasterID = *p.MasterID
	}
}
