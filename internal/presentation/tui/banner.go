package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

var bannerLines = []string{
	`              _      _   _       `,
	`  _ __   __ _| | ___| |_| |_ ___ `,
	` | '_ \ / _` + "`" + ` | |/ _ \ __| __/ _ \`,
	` | |_) | (_| | |  __/ |_| ||  __/`,
	` | .__/ \__,_|_|\___|\__|\__\___|`,
	` |_|                             `,
}

var bannerColors = []string{"#818cf8", "#a78bfa", "#c084fc", "#e879f9", "#f472b6", "#fb7185"}

// PrintBanner writes the palette banner and version to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	p := out.ColorProfile()

	fmt.Fprintln(w)
	for i, line := range bannerLines {
		fmt.Fprintln(w, out.String(line).Foreground(p.Color(bannerColors[i%len(bannerColors)])))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, out.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
