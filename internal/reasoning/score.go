package reasoning

// Score converts one day's entry into office presence. A full office day
// scores 1.0, a half-day leave worked from office scores 0.5, everything
// else (leave, WFH, no entry) scores 0.
func Score(entry *Entry) float64 {
	if entry == nil {
		return 0
	}
	switch entry.Status {
	case StatusOffice:
		return 1.0
	case StatusLeave:
		if entry.LeaveDuration == LeaveHalf && entry.WorkingPortion == PortionOffice {
			return 0.5
		}
		return 0
	default:
		return 0
	}
}

// dayScore looks up the entry for a date and scores it. Missing dates score 0.
func dayScore(sched UserSchedule, date string) float64 {
	entry, ok := sched.Entries[date]
	if !ok {
		return 0
	}
	return Score(&entry)
}

// isFullLeave reports whether the date is a recorded full-day leave.
func isFullLeave(sched UserSchedule, date string) bool {
	entry, ok := sched.Entries[date]
	return ok && entry.Status == StatusLeave && entry.LeaveDuration != LeaveHalf
}

// officeDayCount counts working days with any office presence, half days
// included.
func officeDayCount(sched UserSchedule) int {
	count := 0
	for _, date := range sched.WorkingDays {
		if dayScore(sched, date) > 0 {
			count++
		}
	}
	return count
}

// officePercent is the share of working days with office presence, weighted
// so a half day counts as 0.5.
func officePercent(sched UserSchedule) float64 {
	if len(sched.WorkingDays) == 0 {
		return 0
	}
	total := 0.0
	for _, date := range sched.WorkingDays {
		total += dayScore(sched, date)
	}
	return 100 * total / float64(len(sched.WorkingDays))
}

// ComputeStats fills ScheduleStats from the schedule's working days and
// entries. WFH days are working days with neither office presence nor leave.
func ComputeStats(sched UserSchedule) ScheduleStats {
	stats := ScheduleStats{}
	for _, date := range sched.WorkingDays {
		entry, ok := sched.Entries[date]
		if !ok {
			stats.WFHDays++
			continue
		}
		switch entry.Status {
		case StatusOffice:
			stats.OfficeDays++
		case StatusLeave:
			stats.LeaveDays++
			if entry.LeaveDuration == LeaveHalf && entry.WorkingPortion == PortionOffice {
				stats.OfficeDays++
			}
		default:
			stats.WFHDays++
		}
	}
	stats.OfficePercent = officePercent(sched)
	return stats
}
