package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Sprint color functions for building styled strings.
var (
	Bold        = color.New(color.Bold).SprintFunc()
	Dim         = color.New(color.Faint).SprintFunc()
	Cyan        = color.New(color.FgCyan).SprintFunc()
	Green       = color.New(color.FgGreen).SprintFunc()
	Red         = color.New(color.FgRed).SprintFunc()
	Yellow      = color.New(color.FgYellow).SprintFunc()
	Magenta     = color.New(color.FgMagenta).SprintFunc()
	BoldCyan    = color.New(color.Bold, color.FgCyan).SprintFunc()
	BoldGreen   = color.New(color.Bold, color.FgGreen).SprintFunc()
	BoldRed     = color.New(color.Bold, color.FgRed).SprintFunc()
	BoldYellow  = color.New(color.Bold, color.FgYellow).SprintFunc()
	BoldMagenta = color.New(color.Bold, color.FgMagenta).SprintFunc()
	BoldWhite   = color.New(color.Bold, color.FgWhite).SprintFunc()
)

// PrintLogo renders the colored pmsched banner.
func PrintLogo(w io.Writer) {
	frame := color.New(color.FgCyan)
	bars := color.New(color.FgYellow)
	crit := color.New(color.FgRed)
	brand := color.New(color.Bold, color.FgMagenta)
	tag := color.New(color.Faint)

	fmt.Fprintln(w)
	frame.Fprintln(w, "   +--------------------------+")
	crit.Fprintln(w, "   |  =====>                  |")
	bars.Fprintln(w, "   |     ==========>          |")
	crit.Fprintln(w, "   |        ==========>       |")
	brand.Fprintln(w, "   |  P  M  S  C  H  E  D     |")
	frame.Fprintln(w, "   +--------------------------+")
	tag.Fprintln(w, "   Critical path scheduling")
	fmt.Fprintln(w)
}

// activityColors is a palette of distinct bold colors for differentiating
// activities.
var activityColors = []func(a ...interface{}) string{
	BoldMagenta,
	BoldCyan,
	BoldYellow,
	BoldGreen,
	color.New(color.Bold, color.FgHiBlue).SprintFunc(),
	color.New(color.Bold, color.FgHiRed).SprintFunc(),
}

// activityColorIndex hashes an activity ID to a palette index.
func activityColorIndex(id string) int {
	var h uint32
	for _, c := range id {
		h = h*31 + uint32(c)
	}
	return int(h % uint32(len(activityColors)))
}

// ActivityPrefix returns a colored [activity-id] prefix string.
// Each ID gets a stable color from the palette.
func ActivityPrefix(id string) string {
	c := activityColors[activityColorIndex(id)]
	return Dim("[") + c(id) + Dim("]")
}

// CriticalMarker returns the marker shown beside critical activities.
func CriticalMarker(critical bool) string {
	if critical {
		return BoldYellow("⚡")
	}
	return " "
}

// Float renders a float value: red when negative, yellow at zero, dim
// otherwise.
func Float(v int) string {
	s := fmt.Sprintf("%d", v)
	switch {
	case v < 0:
		return BoldRed(s)
	case v == 0:
		return Yellow(s)
	default:
		return Dim(s)
	}
}

// Slip renders a signed schedule movement. Positive is late.
func Slip(v int) string {
	switch {
	case v > 0:
		return Red(fmt.Sprintf("+%d", v))
	case v < 0:
		return Green(fmt.Sprintf("%d", v))
	default:
		return Dim("0")
	}
}

// VarianceIcon returns a colored icon for a baseline comparison status.
func VarianceIcon(status string) string {
	switch status {
	case "changed":
		return Yellow("~")
	case "added":
		return Green("+")
	case "removed":
		return Red("-")
	default:
		return Dim("=")
	}
}
