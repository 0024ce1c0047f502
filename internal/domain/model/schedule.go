package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Day is a lower-case day of the week.
type Day string

// Days of the week.
const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
	Saturday  Day = "saturday"
	Sunday    Day = "sunday"
)

const (
	minutesPerHour = 60
	hoursPerDay    = 24
)

// TimeOfDay is a wall-clock time expressed in minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses "H:MM" or "HH:MM" in the range 00:00..23:59.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(m) != 2 || len(h) == 0 || len(h) > 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours >= hoursPerDay {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes >= minutesPerHour {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTime, s)
	}
	return TimeOfDay(hours*minutesPerHour + minutes), nil
}

// MustTimeOfDay is ParseTimeOfDay for literals; it panics on bad input.
func MustTimeOfDay(s string) TimeOfDay {
	t, err := ParseTimeOfDay(s)
	if err != nil {
		panic(err)
	}
	return t
}

// String formats t as HH:MM.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/minutesPerHour, int(t)%minutesPerHour)
}

// MarshalJSON encodes t as "HH:MM".
func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes "HH:MM".
func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidTime, string(b))
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TimeSlot is a half-open interval [Start, End) within one day.
type TimeSlot struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Overlaps reports whether two half-open slots intersect. Touching
// endpoints do not overlap.
func (s TimeSlot) Overlaps(o TimeSlot) bool {
	return s.Start < o.End && o.Start < s.End
}

// DaySchedule lists the slots a user is available on one day.
type DaySchedule struct {
	Day   Day        `json:"day"`
	Slots []TimeSlot `json:"time_slots"`
}

// Availability is a recurring weekly schedule. An empty Schedule means the
// user has not shared availability, which scores as neutral.
type Availability struct {
	Timezone string        `json:"timezone,omitempty"`
	Schedule []DaySchedule `json:"schedule,omitempty"`
}

// IsEmpty reports whether no schedule entries are present.
func (a Availability) IsEmpty() bool {
	return len(a.Schedule) == 0
}

// EffectiveTimezone returns the timezone with the UTC default applied.
func (a Availability) EffectiveTimezone() string {
	if a.Timezone == "" {
		return "UTC"
	}
	return a.Timezone
}

// DayEntry returns the first schedule entry for day.
func (a Availability) DayEntry(day Day) (DaySchedule, bool) {
	for _, d := range a.Schedule {
		if d.Day == day {
			return d, true
		}
	}
	return DaySchedule{}, false
}
