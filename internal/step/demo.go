package step

import _ "embed"

//go:embed demo.stp
var demo string

// Demo returns the bundled five-tread staircase document.
func Demo() string {
	return demo
}
