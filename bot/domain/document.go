package domain

import "encoding/json"

// Document is the whole persisted bot state. Entities are siblings keyed by
// their own identifiers; nothing is shared between containers.
type Document struct {
	ActivationCodes map[string]ActivationCode
	Users           map[int64]User
	Guides          []Guide
	Files           []File
	States          map[int64]Step
	NextIDs         NextIDs

	// SkippedStates lists users whose stored state had an unknown action
	// on decode. It is not persisted.
	SkippedStates []int64
}

// DefaultDocument returns the seed document used when nothing is persisted yet.
func DefaultDocument() *Document {
	return &Document{
		ActivationCodes: map[string]ActivationCode{
			"12345": {Organization: "ORG1", Role: RoleStudent},
			"99999": {Organization: "ORG1", Role: RoleAdmin},
		},
		Users:   map[int64]User{},
		Guides:  []Guide{},
		Files:   []File{},
		States:  map[int64]Step{},
		NextIDs: NextIDs{Guide: 1, File: 1},
	}
}

// Clone returns a deep copy so a mutation can be discarded if persisting fails.
func (d *Document) Clone() *Document {
	out := &Document{
		ActivationCodes: make(map[string]ActivationCode, len(d.ActivationCodes)),
		Users:           make(map[int64]User, len(d.Users)),
		Guides:          append([]Guide(nil), d.Guides...),
		Files:           make([]File, len(d.Files)),
		States:          make(map[int64]Step, len(d.States)),
		NextIDs:         d.NextIDs,
	}
	for k, v := range d.ActivationCodes {
		out.ActivationCodes[k] = v
	}
	for k, v := range d.Users {
		out.Users[k] = v
	}
	for i, f := range d.Files {
		if f.Role != nil {
			r := *f.Role
			f.Role = &r
		}
		out.Files[i] = f
	}
	for k, v := range d.States {
		out.States[k] = v
	}
	if out.Guides == nil {
		out.Guides = []Guide{}
	}
	return out
}

// GuideByID returns the guide with the given id.
func (d *Document) GuideByID(id int64) (Guide, bool) {
	for _, g := range d.Guides {
		if g.ID == id {
			return g, true
		}
	}
	return Guide{}, false
}

// AppendGuide allocates the next guide id and appends the guide.
func (d *Document) AppendGuide(title, content string) Guide {
	g := Guide{ID: d.NextIDs.Guide, Title: title, Content: content}
	d.Guides = append(d.Guides, g)
	d.NextIDs.Guide++
	return g
}

// AppendFile allocates the next file id and appends the file.
func (d *Document) AppendFile(title, url, org string, role *Role) File {
	f := File{ID: d.NextIDs.File, Title: title, URL: url, Organization: org, Role: role}
	d.Files = append(d.Files, f)
	d.NextIDs.File++
	return f
}

type documentJSON struct {
	ActivationCodes map[string]ActivationCode `json:"activation_codes"`
	Users           map[int64]User            `json:"users"`
	Guides          []Guide                   `json:"guides"`
	Files           []File                    `json:"files"`
	States          map[int64]stepRecord      `json:"states"`
	NextIDs         NextIDs                   `json:"next_ids"`
}

// MarshalJSON writes the document in the data.json layout.
func (d *Document) MarshalJSON() ([]byte, error) {
	wire := documentJSON{
		ActivationCodes: d.ActivationCodes,
		Users:           d.Users,
		Guides:          d.Guides,
		Files:           d.Files,
		States:          make(map[int64]stepRecord, len(d.States)),
		NextIDs:         d.NextIDs,
	}
	for uid, st := range d.States {
		if st == nil {
			continue
		}
		wire.States[uid] = encodeStep(st)
	}
	return json.Marshal(wire)
}

// UnmarshalJSON reads the data.json layout. Missing sections are initialised
// empty; a state with an unknown action is dropped and listed in
// SkippedStates.
func (d *Document) UnmarshalJSON(data []byte) error {
	var wire documentJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	doc := Document{
		ActivationCodes: wire.ActivationCodes,
		Users:           wire.Users,
		Guides:          wire.Guides,
		Files:           wire.Files,
		States:          make(map[int64]Step, len(wire.States)),
		NextIDs:         wire.NextIDs,
	}
	for uid, rec := range wire.States {
		st, ok := decodeStep(rec)
		if !ok {
			doc.SkippedStates = append(doc.SkippedStates, uid)
			continue
		}
		doc.States[uid] = st
	}
	if doc.ActivationCodes == nil {
		doc.ActivationCodes = map[string]ActivationCode{}
	}
	if doc.Users == nil {
		doc.Users = map[int64]User{}
	}
	if doc.Guides == nil {
		doc.Guides = []Guide{}
	}
	if doc.Files == nil {
		doc.Files = []File{}
	}
	if doc.NextIDs.Guide <= 0 {
		doc.NextIDs.Guide = 1
	}
	if doc.NextIDs.File <= 0 {
		doc.NextIDs.File = 1
	}
	*d = doc
	return nil
}
