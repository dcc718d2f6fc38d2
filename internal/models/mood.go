package models

type Mood string

const (
	MoodJoyful  Mood = "joyful"
	MoodHappy   Mood = "happy"
	MoodNeutral Mood = "neutral"
	MoodSad     Mood = "sad"
	MoodAngry   Mood = "angry"
)

// Moods lists every mood from most to least positive.
var Moods = []Mood{MoodJoyful, MoodHappy, MoodNeutral, MoodSad, MoodAngry}

var moodColors = map[Mood]string{
	MoodJoyful:  "#FFD700",
	MoodHappy:   "#98FB98",
	MoodNeutral: "#808080",
	MoodSad:     "#87CEEB",
	MoodAngry:   "#FF6B6B",
}

var moodValues = map[Mood]int{
	MoodJoyful:  5,
	MoodHappy:   4,
	MoodNeutral: 3,
	MoodSad:     2,
	MoodAngry:   1,
}

func (m Mood) Valid() bool {
	_, ok := moodColors[m]
	return ok
}

// Color returns the palette color for m, or the neutral color for unknown moods.
func (m Mood) Color() string {
	if c, ok := moodColors[m]; ok {
		return c
	}
	return moodColors[MoodNeutral]
}

// Value maps a mood onto a 1..5 scale used for averaging. Unknown moods count as neutral.
func (m Mood) Value() int {
	if v, ok := moodValues[m]; ok {
		return v
	}
	return moodValues[MoodNeutral]
}
