// Package templates renders the HTML pages of the web UI. Components live in
// the .templ files; run `templ generate` after editing them.
package templates

//go:generate templ generate

import (
	"fmt"
	"net/url"

	"github.com/JonMunkholm/DataSweeper/internal/core"
)

// AppTitle is shown in the page header and the browser tab.
const AppTitle = "Data Sweeper"

func pageTitle(title string) string {
	if title == "" || title == AppTitle {
		return AppTitle
	}
	return title + " | " + AppTitle
}

// FileURL returns the path of a file page or one of its actions, with the
// column selection as repeated "columns" query values.
func FileURL(id, action string, columns []string) string {
	u := "/files/" + url.PathEscape(id)
	if action != "" {
		u += "/" + action
	}
	if len(columns) > 0 {
		u += "?" + url.Values{"columns": columns}.Encode()
	}
	return u
}

func chartPageURL(id string, columns []string) string {
	u := FileURL(id, "", columns)
	if len(columns) > 0 {
		return u + "&chart=1"
	}
	return u + "?chart=1"
}

func fileMeta(v *core.FileView) string {
	return fmt.Sprintf("Size: %.2f KB · %d rows · %d columns", v.File.SizeKB(), v.Rows, len(v.Columns))
}

func chartAlt(data *core.ChartData) string {
	return "Bar chart of " + data.Series[0].Label + " and " + data.Series[1].Label
}

// NoticeKind selects the styling of a Notice.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeInfo    NoticeKind = "info"
	NoticeWarning NoticeKind = "warning"
	NoticeError   NoticeKind = "error"
)

// Notice is a message shown above page content.
type Notice struct {
	Kind    NoticeKind
	Message string
	Action  string
	Code    string
}

func (n Notice) role() string {
	if n.Kind == NoticeError {
		return "alert"
	}
	return "status"
}

func Success(msg string) Notice { return Notice{Kind: NoticeSuccess, Message: msg} }
func Info(msg string) Notice    { return Notice{Kind: NoticeInfo, Message: msg} }
func Warning(msg string) Notice { return Notice{Kind: NoticeWarning, Message: msg} }

// FromError maps err through the error catalogue. Informational errors become
// info notices, everything else an error notice. prefix, when set, names the
// file the error belongs to.
func FromError(prefix string, err error) Notice {
	msg := core.MapError(err)
	n := Notice{Kind: NoticeError, Message: msg.Message, Action: msg.Action, Code: msg.Code}
	if core.IsInformational(err) {
		n.Kind = NoticeInfo
	}
	if prefix != "" {
		n.Message = prefix + ": " + n.Message
	}
	return n
}
