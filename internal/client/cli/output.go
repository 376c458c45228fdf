package cli

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/turbouploader/internal/common"
)

// Interactive input indirections, swapped in tests.
var (
	getSimpleText   = GetSimpleText
	getPassword     = GetPassword
	getConfirmation = GetConfirmation
)

// printErr renders err the way the UI shows a {kind, message} failure.
func (a *App) printErr(err error) {
	var e *common.Error
	if errors.As(err, &e) {
		fmt.Fprintf(a.out, "Error [%s]: %s\n", e.Kind, e.Error())
		return
	}
	fmt.Fprintf(a.out, "Error: %v\n", err)
}

// shortAddress is the 10-character prefix shown next to the prompt.
func shortAddress(addr string) string {
	if len(addr) <= 10 {
		return addr
	}
	return addr[:10] + "..."
}

// formatFileSize renders n bytes as Bytes, KB, MB or GB with two decimals.
func formatFileSize(n int64) string {
	if n == 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	size := float64(n)
	i := 0
	for size >= 1024 && i < len(units)-1 {
		size /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d Bytes", n)
	}
	return fmt.Sprintf("%.2f %s", size, units[i])
}
