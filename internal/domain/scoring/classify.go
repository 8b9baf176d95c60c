package scoring

import (
	"strings"

	"github.com/workpulse/agent/internal/foreground"
)

// Classification buckets the foreground application for one window.
type Classification string

const (
	ClassCoding        Classification = "coding"
	ClassBrowsing      Classification = "browsing"
	ClassResearch      Classification = "research"
	ClassCommunication Classification = "communication"
	ClassTerminal      Classification = "terminal"
	ClassOther         Classification = "other"
	ClassUnknown       Classification = "unknown"
)

var editorApps = []string{
	"code", "visual studio", "intellij", "goland", "pycharm", "webstorm",
	"rider", "clion", "sublime", "vim", "neovim", "emacs", "xcode",
	"android studio", "zed", "cursor", "eclipse", "netbeans",
}

var browserApps = []string{
	"chrome", "chromium", "firefox", "safari", "edge", "brave", "arc", "opera", "vivaldi",
}

var devSiteKeywords = []string{
	"stack overflow", "stackoverflow", "github", "gitlab", "bitbucket",
	"documentation", "docs", "mdn", "api reference", "localhost", "developer",
	"pkg.go.dev", "godoc",
}

var chatApps = []string{
	"slack", "discord", "teams", "telegram", "whatsapp", "zoom", "messages",
	"mattermost", "signal", "skype",
}

var terminalApps = []string{
	"terminal", "iterm", "alacritty", "kitty", "wezterm", "konsole",
	"powershell", "cmd", "warp", "hyper", "ghostty",
}

// Classify maps the active window to a classification. An empty window
// (inspector failure) yields unknown, never an error.
func Classify(win foreground.WindowInfo) Classification {
	app := strings.ToLower(strings.TrimSpace(win.ApplicationName))
	title := strings.ToLower(win.WindowTitle)
	if app == "" && title == "" {
		return ClassUnknown
	}

	switch {
	case matchesAny(app, editorApps):
		return ClassCoding
	case matchesAny(app, browserApps):
		if matchesAny(title, devSiteKeywords) {
			return ClassResearch
		}
		return ClassBrowsing
	case matchesAny(app, chatApps):
		return ClassCommunication
	case matchesAny(app, terminalApps):
		return ClassTerminal
	}
	return ClassOther
}

func matchesAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
