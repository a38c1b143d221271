// Package colors assigns each task a card color derived from its ID, so a
// task keeps the same color across renders and processes.
package colors

import "github.com/cespare/xxhash/v2"

type Color struct {
	Name string
	// Border is the card border color.
	Border string
	// Background is the hover tint paired with Border.
	Background string
	// CalendarID is the closest Google Calendar event color ID.
	CalendarID string
}

// Palette is the fixed set of card colors.
var Palette = []Color{
	{Name: "blue", Border: "#60a5fa", Background: "#ebf8ff", CalendarID: "9"},
	{Name: "green", Border: "#4ade80", Background: "#e6fffa", CalendarID: "10"},
	{Name: "yellow", Border: "#facc15", Background: "#fffff0", CalendarID: "5"},
	{Name: "red", Border: "#f87171", Background: "#ffe5e5", CalendarID: "11"},
	{Name: "purple", Border: "#c084fc", Background: "#f3e8ff", CalendarID: "3"},
	{Name: "pink", Border: "#f472b6", Background: "#ffe4e6", CalendarID: "4"},
	{Name: "indigo", Border: "#818cf8", Background: "#e6e8ff", CalendarID: "1"},
}

// ForTask returns the palette entry for a task ID.
func ForTask(id string) Color {
	return Palette[xxhash.Sum64String(id)%uint64(len(Palette))]
}
