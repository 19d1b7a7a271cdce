package review

import (
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday/v2"
)

var commentPolicy = bluemonday.UGCPolicy()

// RenderComment converts a markdown comment into sanitized HTML.
func RenderComment(s string) string {
	if s == "" {
		return ""
	}
	extensions := blackfriday.CommonExtensions | blackfriday.Autolink
	renderer := blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{
		Flags: blackfriday.CommonHTMLFlags,
	})
	unsafe := blackfriday.Run([]byte(s), blackfriday.WithRenderer(renderer), blackfriday.WithExtensions(extensions))
	return string(commentPolicy.SanitizeBytes(unsafe))
}
