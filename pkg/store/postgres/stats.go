package postgres

import (
	"context"

	"github.com/salonsync/salonsync/pkg/models"
)

// Appointment demand reporting. Aggregation runs against the primary store
// only: there is no cross-store consistency concern in a read-only rollup, so
// the mirror is never consulted.

// TimeSlotStat counts appointments booked in one date/time slot.
type TimeSlotStat struct {
	Date  string `json:"date"`
	Time  string `json:"time"`
	Count int64  `json:"count"`
}

// ServiceStat counts how often one service was requested.
type ServiceStat struct {
	Service string `json:"service"`
	Count   int64  `json:"count"`
}

// AppointmentStats is the demand rollup for a date range.
type AppointmentStats struct {
	TotalAppointments int64          `json:"total_appointments"`
	TopTimeSlots      []TimeSlotStat `json:"top_time_slots"`
	TopServices       []ServiceStat  `json:"top_services"`
}

// AppointmentStats aggregates bookings between from and to (inclusive ISO
// dates): the total count, the five busiest time slots, and the five most
// requested services.
func (s *Store) AppointmentStats(ctx context.Context, from, to string) (*AppointmentStats, error) {
	stats := &AppointmentStats{}
	db := s.db.WithContext(ctx).Model(&models.Appointment{})

	if err := db.Where("date BETWEEN ? AND ?", from, to).Count(&stats.TotalAppointments).Error; err != nil {
		return nil, err
	}

	err := s.db.WithContext(ctx).Model(&models.Appointment{}).
		Select("date, time, COUNT(id) AS count").
		Where("date BETWEEN ? AND ?", from, to).
		Group("date, time").
		Order("count DESC").
		Limit(5).
		Scan(&stats.TopTimeSlots).Error
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(&models.Appointment{}).
		Select("service, COUNT(service) AS count").
		Where("date BETWEEN ? AND ?", from, to).
		Group("service").
		Order("count DESC").
		Limit(5).
		Scan(&stats.TopServices).Error
	if err != nil {
		return nil, err
	}

	return stats, nil
}
