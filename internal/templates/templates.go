package templates

import (
	"embed"
	"html/template"
	"io"

	"github.com/AndrewLester/ntpsync/internal/rpc"
)

//go:embed templates/*
var resources embed.FS

var TemplateExecutor = template.Must(template.ParseFS(resources, "templates/*"))

// ReportPage is what report.tmpl.html renders. Reply is nil when the daemon
// could not be asked at all, in which case Error says why.
type ReportPage struct {
	Hostname string
	Reply    *rpc.Reply
	Error    string
}

func RenderReport(w io.Writer, page ReportPage) error {
	if page.Hostname == "" && page.Reply != nil {
		page.Hostname = page.Reply.Hostname
	}
	return TemplateExecutor.ExecuteTemplate(w, "report.tmpl.html", page)
}
