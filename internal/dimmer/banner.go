package dimmer

import (
	"strings"
	"time"
)

const asciiArt = ` _ _       _     _      _ _
| (_) __ _| |__ | |_ __| (_)_ __ ___  _ __ ___   ___ _ __
| | |/ _' | '_ \| __/ _' | | '_ ' _ \| '_ ' _ \ / _ \ '__|
| | | (_| | | | | || (_| | | | | | | | | | | | |  __/ |
|_|_|\__, |_| |_|\__\__,_|_|_| |_| |_|_| |_| |_|\___|_|
     |___/`

// Banner formats the boot message. Lines end in CRLF like every other
// message on the serial port.
func Banner(authors []string, license, docs string, built time.Time) string {
	var b strings.Builder
	line := func(s string) {
		b.WriteString(s)
		b.WriteString("\r\n")
	}
	for _, l := range strings.Split(asciiArt, "\n") {
		line(l)
	}
	line("")
	line("Author(s): " + strings.Join(authors, ", "))
	line("License: " + license)
	line("Build date: " + built.Format("Jan 02 2006"))
	line("Documentation: " + docs)
	return b.String()
}

// CreditsText lists the authors for the credits easter egg.
func CreditsText(authors []string) string {
	var b strings.Builder
	b.WriteString("Credits\r\n")
	for _, a := range authors {
		b.WriteString("  ")
		b.WriteString(a)
		b.WriteString("\r\n")
	}
	return b.String()
}
