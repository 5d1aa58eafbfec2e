package output

import "github.com/fatih/color"

// ColorScheme holds one color per kind of output element. Status colors
// are chosen by response class through Status.
type ColorScheme struct {
	Method    *color.Color
	URL       *color.Color
	Success   *color.Color
	Redirect  *color.Color
	Failure   *color.Color
	HeaderKey *color.Color
	Cookie    *color.Color
	Hop       *color.Color
	Error     *color.Color
}

// DefaultColorScheme is the palette used on terminals
func DefaultColorScheme() *ColorScheme {
	return &ColorScheme{
		Method:    color.New(color.FgBlue, color.Bold),
		URL:       color.New(color.FgCyan),
		Success:   color.New(color.FgGreen, color.Bold),
		Redirect:  color.New(color.FgYellow, color.Bold),
		Failure:   color.New(color.FgRed, color.Bold),
		HeaderKey: color.New(color.FgYellow),
		Cookie:    color.New(color.FgMagenta),
		Hop:       color.New(color.FgWhite, color.Bold),
		Error:     color.New(color.FgRed),
	}
}

// NoColorScheme is DefaultColorScheme with escape codes switched off
func NoColorScheme() *ColorScheme {
	s := DefaultColorScheme()
	for _, c := range []*color.Color{
		s.Method, s.URL, s.Success, s.Redirect, s.Failure,
		s.HeaderKey, s.Cookie, s.Hop, s.Error,
	} {
		c.DisableColor()
	}
	return s
}

// Status picks the color for a response code. A code of 0 means the
// exchange never produced a status line.
func (s *ColorScheme) Status(code int) *color.Color {
	switch code / 100 {
	case 2:
		return s.Success
	case 3:
		return s.Redirect
	default:
		return s.Failure
	}
}

// Mark renders a check mark for ok and a cross otherwise.
func Mark(ok, noColor bool) string {
	mark, attr := "✗", color.FgRed
	if ok {
		mark, attr = "✓", color.FgGreen
	}
	if noColor {
		return mark
	}
	return color.New(attr).Sprint(mark)
}
