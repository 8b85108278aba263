package router

const (
	textGreeting         = "Hello %s! Welcome to Pol."
	textGreetingNoName   = "Hello! Welcome to Pol."
	textMainMenu         = "Main menu:"
	textActivated        = "Account activated. Organization: %s | Role: %s"
	textInvalidCode      = "The activation code is invalid or has already been used."
	textInvalidCodeHint  = "If you have a code, type it here or ask an admin for help."
	textActivateFirst    = "You need to activate your account with an activation code first."
	textNoFilesForUser   = "No files are available for you."
	textFilesHeader      = "Available files:"
	textNoGuides         = "No guides available."
	textGuidesHeader     = "Guides:"
	textGuideBody        = "📘 %s\n\n%s"
	textGuideNotFound    = "Guide not found."
	textProfile          = "👤 Profile\nName: %s\nOrganization: %s\nRole: %s"
	textUnknownAction    = "Unknown action."
	textAdminPanel       = "Admin panel:"
	textAskGuideTitle    = "Please send the guide title."
	textAskGuideContent  = "Guide title saved. Now send the guide content (text)."
	textGuideAdded       = "Guide «%s» added."
	textAskFileTitle     = "Please send the file title."
	textAskFileURL       = "File title saved. Now send the direct file link (URL)."
	textFileAdded        = "File «%s» added with its link."
	textGuideListHeader  = "Guides:"
	textFileListHeader   = "Files:"
	textNoFiles          = "No files available."
	textCancelled        = "Cancelled."
	textSomethingWrong   = "Something went wrong. Please try again."
	textButtonFiles      = "📂 Files"
	textButtonGuides     = "📘 Guides"
	textButtonProfile    = "👤 My profile"
	textButtonAdmin      = "🛠 Admin panel"
	textButtonBack       = "🔙 Back"
	textButtonAddGuide   = "➕ Add guide"
	textButtonAddFile    = "➕ Add file"
	textButtonListGuides = "📋 Guide list"
	textButtonListFiles  = "📂 File list"
	textButtonCancel     = "❌ Cancel"
)
