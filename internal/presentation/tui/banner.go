package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`  __                        _`,
	` / _|_   _ _ __  _ __   ___| |`,
	`| |_| | | | '_ \| '_ \ / _ \ |`,
	`|  _| |_| | | | | | | |  __/ |`,
	`|_|  \__,_|_| |_|_| |_|\___|_|`,
}

// Teal to indigo.
var bannerColors = []string{"#2dd4bf", "#22d3ee", "#38bdf8", "#60a5fa", "#818cf8"}

// PrintBanner writes the funnel banner to w, colored when the terminal supports it.
func PrintBanner(w io.Writer) {
	p := termenv.NewOutput(w).ColorProfile()
	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, termenv.String(line).Foreground(p.Color(bannerColors[i])))
	}
	fmt.Fprintln(w)
}
