package status

// Level is a display classification shared by cards, lists and charts.
type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelDefault Level = "default"
)

var severity = map[Level]int{
	LevelDefault: 0,
	LevelSuccess: 1,
	LevelWarning: 2,
	LevelError:   3,
}

// Color returns the palette token the renderer maps to a theme colour.
func (l Level) Color() string {
	switch l {
	case LevelSuccess, LevelWarning, LevelError:
		return string(l) + ".main"
	default:
		return "grey.main"
	}
}

// Worst returns the most severe of the given levels, LevelDefault if none.
func Worst(levels ...Level) Level {
	worst := LevelDefault
	for _, l := range levels {
		if severity[l] > severity[worst] {
			worst = l
		}
	}
	return worst
}

// StatusCodeLevel classifies an HTTP status code for the status distribution.
// 401 is an expected authentication challenge and is shown as a warning.
func StatusCodeLevel(code int) Level {
	switch {
	case code == 401:
		return LevelWarning
	case code >= 200 && code < 300:
		return LevelSuccess
	case code >= 300 && code < 400:
		return LevelWarning
	case code >= 400 && code < 600:
		return LevelError
	default:
		return LevelDefault
	}
}
