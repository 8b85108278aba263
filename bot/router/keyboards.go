package router

import (
	"strconv"

	"github.com/m3rciful/polbot/bot/domain"
)

// Callback identifiers carried in button data.
const (
	KeyMain            = "main"
	KeyFiles           = "files"
	KeyGuides          = "guides"
	KeyProfile         = "profile"
	KeyGuidePrefix     = "guide_"
	KeyAdminPanel      = "admin_panel"
	KeyAdminAddGuide   = "admin_add_guide"
	KeyAdminAddFile    = "admin_add_file"
	KeyAdminListGuides = "admin_list_guides"
	KeyAdminListFiles  = "admin_list_files"
	KeyAdminCancel     = "admin_cancel"
)

func mainMenu(showAdmin bool) Keyboard {
	kb := Keyboard{
		{{Text: textButtonFiles, Data: KeyFiles}},
		{{Text: textButtonGuides, Data: KeyGuides}},
		{{Text: textButtonProfile, Data: KeyProfile}},
	}
	if showAdmin {
		kb = append(kb, []Button{{Text: textButtonAdmin, Data: KeyAdminPanel}})
	}
	return kb
}

func filesKeyboard(files []domain.File) Keyboard {
	kb := make(Keyboard, 0, len(files)+1)
	for _, f := range files {
		kb = append(kb, []Button{{Text: f.Title, URL: f.URL}})
	}
	return append(kb, backRow(KeyMain))
}

func guidesKeyboard(guides []domain.Guide) Keyboard {
	kb := make(Keyboard, 0, len(guides)+1)
	for _, g := range guides {
		kb = append(kb, []Button{{Text: g.Title, Data: KeyGuidePrefix + strconv.FormatInt(g.ID, 10)}})
	}
	return append(kb, backRow(KeyMain))
}

func adminKeyboard() Keyboard {
	return Keyboard{
		{{Text: textButtonAddGuide, Data: KeyAdminAddGuide}},
		{{Text: textButtonAddFile, Data: KeyAdminAddFile}},
		{{Text: textButtonListGuides, Data: KeyAdminListGuides}},
		{{Text: textButtonListFiles, Data: KeyAdminListFiles}},
		backRow(KeyMain),
	}
}

func cancelKeyboard() Keyboard {
	return Keyboard{{{Text: textButtonCancel, Data: KeyAdminCancel}}}
}

func backRow(key string) []Button {
	return []Button{{Text: textButtonBack, Data: key}}
}
