package domain

// Action names a pending admin input step as stored in the document.
type Action string

const (
	ActionAddingGuideTitle   Action = "adding_guide_title"
	ActionAddingGuideContent Action = "adding_guide_content"
	ActionAddingFileTitle    Action = "adding_file_title"
	ActionAddingFileURL      Action = "adding_file_url"
)

// Step is one pending step of an admin flow. Each variant carries only the
// input collected so far.
type Step interface {
	Action() Action
}

// AddingGuideTitle waits for the title of a new guide.
type AddingGuideTitle struct{}

// AddingGuideContent waits for the body of a guide whose title is known.
type AddingGuideContent struct {
	Title string
}

// AddingFileTitle waits for the title of a new file link.
type AddingFileTitle struct{}

// AddingFileURL waits for the url of a file whose title is known.
type AddingFileURL struct {
	Title string
}

func (AddingGuideTitle) Action() Action   { return ActionAddingGuideTitle }
func (AddingGuideContent) Action() Action { return ActionAddingGuideContent }
func (AddingFileTitle) Action() Action    { return ActionAddingFileTitle }
func (AddingFileURL) Action() Action      { return ActionAddingFileURL }

type stepRecord struct {
	Action Action   `json:"action"`
	Temp   stepTemp `json:"temp"`
}

type stepTemp struct {
	Title string `json:"title,omitempty"`
}

func encodeStep(s Step) stepRecord {
	rec := stepRecord{Action: s.Action()}
	switch v := s.(type) {
	case AddingGuideContent:
		rec.Temp.Title = v.Title
	case AddingFileURL:
		rec.Temp.Title = v.Title
	}
	return rec
}

func decodeStep(rec stepRecord) (Step, bool) {
	switch rec.Action {
	case ActionAddingGuideTitle:
		return AddingGuideTitle{}, true
	case ActionAddingGuideContent:
		return AddingGuideContent{Title: rec.Temp.Title}, true
	case ActionAddingFileTitle:
		return AddingFileTitle{}, true
	case ActionAddingFileURL:
		return AddingFileURL{Title: rec.Temp.Title}, true
	}
	return nil, false
}
