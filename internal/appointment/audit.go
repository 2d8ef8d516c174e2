package appointment

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/salon-scheduling/internal/schedule"
)

// OverlapReport is a pair of appointments of one master that overlap on a day.
// Bookings never create these; they appear when a service gets longer.
type OverlapReport struct {
	MasterID int64
	Date     time.Time
	First    schedule.Booking
	Second   schedule.Booking
}

// AuditOverlaps scans days [from, from+days) and reports overlapping pairs,
// writing an OVERLAP_DETECTED event for each. Appointments are left as they are.
func (s *Service) AuditOverlaps(ctx context.Context, from time.Time, days int) ([]OverlapReport, error) {
	if days <= 0 {
		return nil, nil
	}
	start := truncateDay(from)
	end := start.AddDate(0, 0, days-1)

	keys, err := s.repo.ListBookedDays(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list booked days: %w", err)
	}

	var reports []OverlapReport
	for _, k := range keys {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		bookings, err := s.repo.ListDayBookings(ctx, k.MasterID, k.Date)
		if err != nil {
			return reports, fmt.Errorf("list day bookings: %w", err)
		}

		for _, pair := range schedule.Conflicts(bookings) {
			r := OverlapReport{MasterID: k.MasterID, Date: k.Date, First: pair[0], Second: pair[1]}
			reports = append(reports, r)

			first, second := pair[0].AppointmentID, pair[1].AppointmentID
			s.logEvent(ctx, &second, EventOverlapDetected, map[string]any{
				"master_id":         k.MasterID,
				"date":              k.Day(),
				"appointment_id":    first,
				"conflicting_id":    second,
				"appointment_range": schedule.Occupied(pair[0].Start, pair[0].Duration),
				"conflicting_range": schedule.Occupied(pair[1].Start, pair[1].Duration),
			})
			s.log.Warn("overlapping appointments",
				zap.Int64("master_id", k.MasterID),
				zap.String("date", k.Day()),
				zap.Int64("appointment_id", first),
				zap.Int64("conflicting_id", second),
			)
		}
	}

	return reports, nil
}
