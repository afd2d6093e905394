package domain

// CalculateStreak counts the consecutive completed days around pivot:
// the run from pivot forward to Saturday plus the run from pivot-1 back to
// Sunday. Saturday and Sunday are not adjacent.
func CalculateStreak(week Week, pivot int) (int, error) {
	if !ValidDayIndex(pivot) {
		return 0, ErrIndexOutOfRange
	}

	streak := 0
	for i := pivot; i < DaysPerWeek; i++ {
		if !week[i] {
			break
		}
		streak++
	}

	for i := pivot - 1; i >= 0; i-- {
		if !week[i] {
			break
		}
		streak++
	}

	return streak, nil
}
