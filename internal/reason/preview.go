package reason

import (
	"bytes"

	"github.com/sirupsen/logrus"
	"github.com/yuin/goldmark"
)

// Preview is a reason plus its message rendered the way customers see it
type Preview struct {
	Reason
	MessageHTML string `json:"messageHtml"`
}

var markdown = goldmark.New()

// RenderMessage converts a Markdown reason message to HTML. Raw HTML in
// the message is not passed through.
func RenderMessage(message string) (string, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(message), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Previews renders every reason. A message that fails to render is shown
// without HTML.
func Previews(reasons []Reason) []Preview {
	out := make([]Preview, 0, len(reasons))
	for _, r := range reasons {
		html, err := RenderMessage(r.Message)
		if err != nil {
			logrus.WithError(err).WithField("reason_id", r.ID).Warn("Failed to render reason message")
		}
		out = append(out, Preview{Reason: r, MessageHTML: html})
	}
	return out
}
