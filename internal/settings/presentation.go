package settings

import "strconv"

var cursorPixels = map[CursorSize]int{
	CursorSmall:      16,
	CursorMedium:     24,
	CursorLarge:      32,
	CursorExtraLarge: 48,
}

// PresentationAttributes converts visual settings into the document
// attributes and CSS variables applied to the local control UI.
func PresentationAttributes(v VisualSettings) map[string]string {
	cursor, ok := cursorPixels[v.CursorSize]
	if !ok {
		cursor = cursorPixels[CursorMedium]
	}
	scheme := v.ColorScheme
	if scheme == "" {
		scheme = ColorSchemeDefault
	}

	return map[string]string{
		"--font-size":         strconv.Itoa(v.FontSize) + "px",
		"--line-spacing":      strconv.FormatFloat(v.LineSpacing, 'f', -1, 64),
		"--cursor-size":       strconv.Itoa(cursor) + "px",
		"--magnification":     strconv.FormatFloat(float64(v.MagnificationLevel)/100, 'f', -1, 64),
		"data-high-contrast":  strconv.FormatBool(v.HighContrast),
		"data-color-scheme":   string(scheme),
		"data-reduced-motion": strconv.FormatBool(v.ReducedMotion),
	}
}
