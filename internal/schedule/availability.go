package schedule

// FreeQuarters lists, in ascending order, every quantum at which an
// appointment of the given duration could start without leaving the day or
// touching a busy quantum.
func (c Config) FreeQuarters(duration int, existing []Booking) []int {
	free := []int{}
	if duration <= 0 || duration > c.DayQuanta {
		return free
	}

	busy := make([]bool, c.DayQuanta+1)
	for _, b := range existing {
		if !b.resolved() {
			continue
		}
		iv := Occupied(b.Start, b.Duration)
		for q := max(iv.Start, 1); q <= min(iv.End, c.DayQuanta); q++ {
			busy[q] = true
		}
	}
	// busyBefore[q] counts busy quanta in [1, q].
	busyBefore := make([]int, c.DayQuanta+1)
	for q := 1; q <= c.DayQuanta; q++ {
		busyBefore[q] = busyBefore[q-1]
		if busy[q] {
			busyBefore[q]++
		}
	}

	for s := 1; s+duration-1 <= c.DayQuanta; s++ {
		e := s + duration - 1
		if busyBefore[e]-busyBefore[s-1] == 0 {
			free = append(free, s)
		}
	}
	return free
}
