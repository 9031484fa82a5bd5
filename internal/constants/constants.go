package constants

// Logo is the ASCII art shown by --logo.
const Logo = `
                 _           _ _                                      _ _
 _ __   ___ _ __(_) ___   __| (_) ___       ___ ___  _ __ ___  _ __ ___ (_) |_
| '_ \ / _ \ '__| |/ _ \ / _' | |/ __|____ / __/ _ \| '_ ' _ \| '_ ' _ \| | __|
| |_) |  __/ |  | | (_) | (_| | | (_|_____| (_| (_) | | | | | | | | | | | | |_
| .__/ \___|_|  |_|\___/ \__,_|_|\___|     \___\___/|_| |_| |_|_| |_| |_|_|\__|
|_|
`

// Tagline is printed centered under the logo.
const Tagline = "Ticket-tagged commits, written by your local model"

// LogoWidth is the width Tagline is centered in.
const LogoWidth = 80
