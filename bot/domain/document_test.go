package domain

import (
	"encoding/json"
	"testing"
)

const legacyData = `{
  "activation_codes": {
    "12345": {"org": "ORG1", "role": "STUDENT", "used": true},
    "99999": {"org": "ORG1", "role": "ADMIN", "used": false}
  },
  "users": {
    "111": {"user_id": 111, "name": "Amir", "org": "ORG1", "role": "STUDENT"}
  },
  "guides": [{"id": 1, "title": "Intro", "content": "Welcome text"}],
  "files": [
    {"id": 1, "title": "Math 1", "url": "https://example.com/m1", "org": "ORG1", "role": null},
    {"id": 2, "title": "Keys", "url": "https://example.com/k", "org": "ORG1", "role": "ADMIN"}
  ],
  "states": {
    "42": {"action": "adding_file_url", "temp": {"title": "Physics"}},
    "43": {"action": "adding_guide_title", "temp": {}}
  },
  "next_ids": {"guide": 2, "file": 3}
}`

func TestDocumentDecodesLegacyLayout(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(legacyData), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !doc.ActivationCodes["12345"].Used {
		t.Fatal("expected code 12345 to be used")
	}
	if u, ok := doc.Users[111]; !ok || u.DisplayName != "Amir" || u.Role != RoleStudent {
		t.Fatalf("unexpected user: %+v", u)
	}
	if doc.Files[0].Role != nil {
		t.Fatalf("expected nil role for public file, got %v", *doc.Files[0].Role)
	}
	if doc.Files[1].Role == nil || *doc.Files[1].Role != RoleAdmin {
		t.Fatal("expected ADMIN role on second file")
	}
	st, ok := doc.States[42].(AddingFileURL)
	if !ok || st.Title != "Physics" {
		t.Fatalf("unexpected state for 42: %#v", doc.States[42])
	}
	if _, ok := doc.States[43].(AddingGuideTitle); !ok {
		t.Fatalf("unexpected state for 43: %#v", doc.States[43])
	}
	if doc.NextIDs.Guide != 2 || doc.NextIDs.File != 3 {
		t.Fatalf("unexpected next ids: %+v", doc.NextIDs)
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(legacyData), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	first, err := json.Marshal(&doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var again Document
	if err := json.Unmarshal(first, &again); err != nil {
		t.Fatalf("unmarshal again: %v", err)
	}
	second, err := json.Marshal(&again)
	if err != nil {
		t.Fatalf("marshal again: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("round trip changed document:\n%s\n%s", first, second)
	}
}

func TestDocumentDropsUnknownActionKeepsRest(t *testing.T) {
	raw := `{
		"activation_codes": {"77777": {"org": "ORG2", "role": "STUDENT", "used": true}},
		"users": {"5": {"user_id": 5, "name": "Sara", "org": "ORG2", "role": "STUDENT"}},
		"guides": [{"id": 1, "title": "Enrolment", "content": "Bring ID."}],
		"files": [],
		"states": {
			"5": {"action": "adding_guide_tilte", "temp": {}},
			"6": {"action": "adding_file_url", "temp": {"title": "Map"}}
		},
		"next_ids": {"guide": 2, "file": 1}
	}`
	var doc Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if code := doc.ActivationCodes["77777"]; !code.Used || code.Organization != "ORG2" {
		t.Fatalf("used code lost: %+v", code)
	}
	if _, ok := doc.Users[5]; !ok || len(doc.Guides) != 1 || doc.NextIDs.Guide != 2 {
		t.Fatalf("sections lost: users=%v guides=%v next=%+v", doc.Users, doc.Guides, doc.NextIDs)
	}
	if _, ok := doc.States[5]; ok {
		t.Fatal("unknown action must be dropped")
	}
	if st, ok := doc.States[6].(AddingFileURL); !ok || st.Title != "Map" {
		t.Fatalf("valid state lost: %#v", doc.States[6])
	}
	if len(doc.SkippedStates) != 1 || doc.SkippedStates[0] != 5 {
		t.Fatalf("skipped = %v", doc.SkippedStates)
	}
}

func TestDocumentMissingSectionsDefaulted(t *testing.T) {
	var doc Document
	if err := json.Unmarshal([]byte(`{}`), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Users == nil || doc.States == nil || doc.ActivationCodes == nil {
		t.Fatal("expected maps to be initialised")
	}
	if doc.NextIDs.Guide != 1 || doc.NextIDs.File != 1 {
		t.Fatalf("expected counters to start at 1, got %+v", doc.NextIDs)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	doc := DefaultDocument()
	admin := RoleAdmin
	doc.AppendFile("Keys", "https://example.com/k", "ORG1", &admin)
	clone := doc.Clone()

	clone.ActivationCodes["12345"] = ActivationCode{Organization: "X", Used: true}
	clone.States[7] = AddingGuideTitle{}
	*clone.Files[0].Role = RoleStudent
	clone.AppendGuide("t", "c")

	if doc.ActivationCodes["12345"].Used {
		t.Fatal("clone mutation leaked into codes")
	}
	if len(doc.States) != 0 {
		t.Fatal("clone mutation leaked into states")
	}
	if *doc.Files[0].Role != RoleAdmin {
		t.Fatal("clone mutation leaked into file role")
	}
	if len(doc.Guides) != 0 || doc.NextIDs.Guide != 1 {
		t.Fatal("clone mutation leaked into guides")
	}
}

func TestAppendAllocatesMonotonicIDs(t *testing.T) {
	doc := DefaultDocument()
	g1 := doc.AppendGuide("a", "1")
	g2 := doc.AppendGuide("b", "2")
	f1 := doc.AppendFile("f", "u", "ORG1", nil)
	if g1.ID != 1 || g2.ID != 2 || f1.ID != 1 {
		t.Fatalf("unexpected ids: %d %d %d", g1.ID, g2.ID, f1.ID)
	}
	if doc.NextIDs.Guide != 3 || doc.NextIDs.File != 2 {
		t.Fatalf("unexpected counters: %+v", doc.NextIDs)
	}
	if g, ok := doc.GuideByID(2); !ok || g.Title != "b" {
		t.Fatalf("lookup failed: %+v", g)
	}
	if _, ok := doc.GuideByID(9); ok {
		t.Fatal("expected missing guide")
	}
}

func TestFileVisibleTo(t *testing.T) {
	admin := RoleAdmin
	student := User{Organization: "ORG1", Role: RoleStudent}
	cases := []struct {
		file File
		want bool
	}{
		{File{Organization: "ORG1"}, true},
		{File{Organization: "ORG1", Role: &admin}, false},
		{File{Organization: "ORG2"}, false},
	}
	for i, tc := range cases {
		if got := tc.file.VisibleTo(student); got != tc.want {
			t.Fatalf("case %d: got %v want %v", i, got, tc.want)
		}
	}
}
