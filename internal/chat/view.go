package chat

import (
	"bytes"
	"html/template"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/xxxsen/insintel/internal/model"
)

const DefaultPreviewChars = 200

var statusText = map[UploadStatus]string{
	StatusUploading: "Uploading...",
	StatusSuccess:   "Upload successful!",
	StatusError:     "Upload failed. Please try again.",
}

type ReferenceView struct {
	Index      int
	Text       string
	Expandable bool
	Expanded   bool
}

type EntryView struct {
	Question string
	Answer   template.HTML
}

// Page is everything the chat template needs.
type Page struct {
	Documents        []model.Document
	DocumentsMessage string
	Recent           []string
	History          []EntryView
	References       []ReferenceView
	UploadStatus     UploadStatus
	StatusText       string
	Uploading        bool
	Querying         bool
	PendingQuestion  string
	QueryError       string
	Alerts           []string
	RefreshSeconds   int
}

type Viewer struct {
	previewChars int
	md           goldmark.Markdown
}

func NewViewer(previewChars int) *Viewer {
	if previewChars <= 0 {
		previewChars = DefaultPreviewChars
	}
	return &Viewer{
		previewChars: previewChars,
		// raw HTML from the backend is dropped, not passed through
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
	}
}

func (v *Viewer) Build(st State) Page {
	page := Page{
		Documents:        st.Documents,
		DocumentsMessage: st.DocumentsMessage,
		Recent:           st.Recent,
		UploadStatus:     st.UploadStatus,
		StatusText:       statusText[st.UploadStatus],
		Uploading:        st.UploadStatus == StatusUploading,
		Querying:         st.Querying,
		PendingQuestion:  st.PendingQuestion,
		QueryError:       st.QueryError,
		Alerts:           st.Alerts,
		History:          make([]EntryView, 0, len(st.History)),
		References:       make([]ReferenceView, 0, len(st.References)),
	}
	if st.UploadStatus == StatusSuccess || st.UploadStatus == StatusUploading || st.Querying {
		page.RefreshSeconds = 1
	}
	for _, e := range st.History {
		page.History = append(page.History, EntryView{Question: e.Question, Answer: v.RenderAnswer(e.Answer)})
	}
	for i, ref := range st.References {
		expanded := i < len(st.Expanded) && st.Expanded[i]
		page.References = append(page.References, v.Reference(i, ref, expanded))
	}
	return page
}

// Reference shortens text beyond the preview length unless expanded.
func (v *Viewer) Reference(index int, text string, expanded bool) ReferenceView {
	ref := ReferenceView{Index: index, Text: text, Expanded: expanded}
	if utf8.RuneCountInString(text) <= v.previewChars {
		return ref
	}
	ref.Expandable = true
	if !expanded {
		ref.Text = string([]rune(text)[:v.previewChars]) + "..."
	}
	return ref
}

func (v *Viewer) RenderAnswer(markdown string) template.HTML {
	var out bytes.Buffer
	if err := v.md.Convert([]byte(markdown), &out); err != nil {
		return template.HTML(template.HTMLEscapeString(markdown))
	}
	return template.HTML(out.String())
}
