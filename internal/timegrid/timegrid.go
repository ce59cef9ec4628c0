package timegrid

// Slots is the fixed ordered vocabulary of hourly teaching slots. All slot
// arithmetic in the engine is defined against this sequence.
var Slots = []string{
	"8.00 AM - 9.00 AM",
	"9.00 AM - 10.00 AM",
	"10.00 AM - 11.00 AM",
	"11.00 AM - 12.00 PM",
	"12.00 PM - 1.00 PM",
	"1.00 PM - 2.00 PM",
	"2.00 PM - 3.00 PM",
	"3.00 PM - 4.00 PM",
	"4.00 PM - 5.00 PM",
}

// Days is the fixed ordered list of teaching days.
var Days = []string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

var slotIndex = buildIndex(Slots)
var dayIndex = buildIndex(Days)

func buildIndex(labels []string) map[string]int {
	index := make(map[string]int, len(labels))
	for i, label := range labels {
		index[label] = i
	}
	return index
}

// SlotCount returns the number of slots in a teaching day.
func SlotCount() int {
	return len(Slots)
}

// SlotIndex returns the position of a slot label, or -1 when unknown.
func SlotIndex(label string) int {
	if i, ok := slotIndex[label]; ok {
		return i
	}
	return -1
}

// DayIndex returns the position of a day label, or -1 when unknown.
func DayIndex(label string) int {
	if i, ok := dayIndex[label]; ok {
		return i
	}
	return -1
}

// ValidDay reports whether the label names a teaching day.
func ValidDay(label string) bool {
	return DayIndex(label) >= 0
}

// SlotAt returns the label at index i, or "" when out of range.
func SlotAt(i int) string {
	if i < 0 || i >= len(Slots) {
		return ""
	}
	return Slots[i]
}

// EndTime returns the closing boundary of the slot at index i, e.g.
// "9.00 AM" for the first slot. Empty when i is out of range.
func EndTime(i int) string {
	label := SlotAt(i)
	if label == "" {
		return ""
	}
	// labels are "<start> - <end>"
	const sep = " - "
	for j := 0; j+len(sep) <= len(label); j++ {
		if label[j:j+len(sep)] == sep {
			return label[j+len(sep):]
		}
	}
	return ""
}

// StartTime returns the opening boundary of the slot at index i.
func StartTime(i int) string {
	label := SlotAt(i)
	if label == "" {
		return ""
	}
	const sep = " - "
	for j := 0; j+len(sep) <= len(label); j++ {
		if label[j:j+len(sep)] == sep {
			return label[:j]
		}
	}
	return ""
}

// RangeFits reports whether a class starting at slot index start with the
// given duration stays inside the grid. A range that does not fit signals
// the TimeSlotExceeded condition.
func RangeFits(start, duration int) bool {
	return start >= 0 && duration >= 1 && start+duration <= len(Slots)
}

// SlotRange returns the slot labels covered by [start, start+duration). The
// returned slice is nil when the range does not fit the grid.
func SlotRange(start, duration int) []string {
	if !RangeFits(start, duration) {
		return nil
	}
	return Slots[start : start+duration]
}
