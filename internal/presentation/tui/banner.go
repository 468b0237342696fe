package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{" _ _                                                 ", "#34d399"},
	{"| (_)_   _____ _ __   __ _ _ __ __ _ _ __ ___  ___ ", "#2dd4bf"},
	{"| | \\ \\ / / _ \\ '_ \\ / _` | '__/ _` | '_ ` _ \\/ __|", "#22d3ee"},
	{"| | |\\ V /  __/ |_) | (_| | | | (_| | | | | | \\__ \\", "#38bdf8"},
	{"|_|_| \\_/ \\___| .__/ \\__,_|_|  \\__,_|_| |_| |_|___/", "#60a5fa"},
	{"              |_|                                  ", "#818cf8"},
}

// PrintBanner writes the liveparams banner to w using the given color profile.
func PrintBanner(w io.Writer, p termenv.Profile) {
	fmt.Fprintln(w)
	for _, line := range bannerLines {
		fmt.Fprintln(w, p.String(line.text).Foreground(p.Color(line.color)))
	}
	fmt.Fprintln(w)
}
