package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner outputs an ASCII art banner for Capsid.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	// Using a subtle gradient-like color scheme (Teal/Lime)
	s1 := termenv.String(`  ____     _     ____   ____   ___   ____  `).Foreground(p.Color("#2dd4bf"))
	s2 := termenv.String(` / ___|   / \   |  _ \ / ___| |_ _| |  _ \ `).Foreground(p.Color("#34d399"))
	s3 := termenv.String(`| |      / _ \  | |_) |\___ \  | |  | | | |`).Foreground(p.Color("#4ade80"))
	s4 := termenv.String(`| |___  / ___ \ |  __/  ___) | | |  | |_| |`).Foreground(p.Color("#a3e635"))
	s5 := termenv.String(` \____|/_/   \_\|_|    |____/ |___| |____/ `).Foreground(p.Color("#facc15"))

	fmt.Fprintln(w)
	fmt.Fprintln(w, s1)
	fmt.Fprintln(w, s2)
	fmt.Fprintln(w, s3)
	fmt.Fprintln(w, s4)
	fmt.Fprintln(w, s5)
	fmt.Fprintln(w)
}
