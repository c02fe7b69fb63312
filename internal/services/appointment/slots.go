package appointment

import (
	"time"

	"crew-portal/internal/models"
)

// FreeSlots returns the slots no active booking holds and whose start lies
// after now. A booking holds a slot by slotId, or by date and start time
// when it carries no slotId. Cancelled bookings hold nothing. Input order is
// kept.
func FreeSlots(slots []models.Slot, bookings []models.Appointment, now time.Time) []models.Slot {
	takenByID := make(map[models.ID]bool, len(bookings))
	takenByTime := make(map[string]bool, len(bookings))
	for _, b := range bookings {
		if b.Status == models.AppointmentCancelled {
			continue
		}
		if !b.SlotID.Empty() {
			takenByID[b.SlotID] = true
			continue
		}
		takenByTime[b.Date+" "+b.StartTime] = true
	}

	free := make([]models.Slot, 0, len(slots))
	for _, s := range slots {
		if takenByID[s.ID] || takenByTime[s.Date+" "+s.StartTime] {
			continue
		}
		start, err := s.Start(now.Location())
		if err != nil || !start.After(now) {
			continue
		}
		free = append(free, s)
	}
	return free
}
