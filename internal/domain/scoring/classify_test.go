package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/workpulse/agent/internal/foreground"
)

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		win  foreground.WindowInfo
		want Classification
	}{
		{"editor", foreground.WindowInfo{ApplicationName: "GoLand", WindowTitle: "tracker.go"}, ClassCoding},
		{"vscode", foreground.WindowInfo{ApplicationName: "Visual Studio Code", WindowTitle: "main.go"}, ClassCoding},
		{"browser dev site", foreground.WindowInfo{ApplicationName: "Google Chrome", WindowTitle: "slices - Stack Overflow"}, ClassResearch},
		{"browser docs", foreground.WindowInfo{ApplicationName: "Firefox", WindowTitle: "net/http - pkg.go.dev"}, ClassResearch},
		{"browser plain", foreground.WindowInfo{ApplicationName: "Safari", WindowTitle: "News"}, ClassBrowsing},
		{"chat", foreground.WindowInfo{ApplicationName: "Slack", WindowTitle: "#general"}, ClassCommunication},
		{"terminal", foreground.WindowInfo{ApplicationName: "iTerm2", WindowTitle: "~/src"}, ClassTerminal},
		{"misc app", foreground.WindowInfo{ApplicationName: "Preview", WindowTitle: "invoice.pdf"}, ClassOther},
		{"inspector failure", foreground.WindowInfo{}, ClassUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.win))
		})
	}
}
