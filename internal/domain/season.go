package domain

// Season indexes the five temporal slices of a year.
type Season int

const (
	DJF Season = iota
	MAM
	JJA
	SON
	Annual

	// SeasonCount is the size of the season axis.
	SeasonCount = 5
)

var seasonNames = [SeasonCount]string{"DJF", "MAM", "JJA", "SON", "annual"}

func (s Season) String() string {
	if s < 0 || s >= SeasonCount {
		return "unknown"
	}
	return seasonNames[s]
}

// seasonMonths lists the member months of each season. December of year Y
// belongs to DJF of year Y (see package doc), so the table is read against
// months of a single calendar year.
var seasonMonths = [SeasonCount][]int{
	DJF:    {12, 1, 2},
	MAM:    {3, 4, 5},
	JJA:    {6, 7, 8},
	SON:    {9, 10, 11},
	Annual: {1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12},
}

// Months returns the calendar months summed into the season slice.
func (s Season) Months() []int {
	if s < 0 || s >= SeasonCount {
		return nil
	}
	months := make([]int, len(seasonMonths[s]))
	copy(months, seasonMonths[s])
	return months
}

// Seasons returns all five seasons in axis order.
func Seasons() []Season {
	return []Season{DJF, MAM, JJA, SON, Annual}
}

// SeasonForName maps a season label back to its axis index. Returns -1 for
// unknown labels.
func SeasonForName(name string) Season {
	for i, n := range seasonNames {
		if n == name {
			return Season(i)
		}
	}
	return -1
}
