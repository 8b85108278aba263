package router

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/m3rciful/polbot/bot/domain"
	"github.com/m3rciful/polbot/bot/service"
	"github.com/m3rciful/polbot/bot/store"
	"github.com/m3rciful/polbot/core/storage"
)

const ownerID int64 = 1000

type call struct {
	kind      string
	chatID    int64
	messageID int
	cbID      string
	text      string
	kb        Keyboard
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []call
}

func (f *fakeNotifier) SendMessage(_ context.Context, chatID int64, text string, kb Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: "send", chatID: chatID, text: text, kb: kb})
	return nil
}

func (f *fakeNotifier) EditMessageText(_ context.Context, chatID int64, messageID int, text string, kb Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: "edit", chatID: chatID, messageID: messageID, text: text, kb: kb})
	return nil
}

func (f *fakeNotifier) AnswerCallback(_ context.Context, callbackID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call{kind: "ack", cbID: callbackID, text: text})
	return nil
}

func (f *fakeNotifier) reset() {
	f.mu.Lock()
	f.calls = nil
	f.mu.Unlock()
}

func (f *fakeNotifier) last(t *testing.T) call {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		t.Fatal("expected at least one notifier call")
	}
	return f.calls[len(f.calls)-1]
}

func (f *fakeNotifier) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.kind == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	router *Router
	store  *store.Store
	notify *fakeNotifier
}

// flakyBackend fails every save while fail is set.
type flakyBackend struct {
	storage.Backend
	fail bool
}

func (f *flakyBackend) Save(ctx context.Context, data []byte) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.Backend.Save(ctx, data)
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureOn(t, nil)
}

func newFixtureOn(t *testing.T, wrap func(storage.Backend) storage.Backend) *fixture {
	t.Helper()
	var b storage.Backend
	b, err := storage.NewFileBackend(filepath.Join(t.TempDir(), "data.json"))
	if err != nil {
		t.Fatalf("backend: %v", err)
	}
	if wrap != nil {
		b = wrap(b)
	}
	s := store.New(b)
	s.Load(context.Background())
	n := &fakeNotifier{}
	r := New(Options{
		OwnerID:      ownerID,
		Activation:   service.NewActivation(s),
		Content:      service.NewContent(s),
		Conversation: service.NewConversation(s, "ORG1"),
		Notifier:     n,
	})
	return &fixture{router: r, store: s, notify: n}
}

func (f *fixture) text(t *testing.T, userID int64, text string) string {
	t.Helper()
	name, err := f.router.HandleMessage(context.Background(), Message{ChatID: userID, UserID: userID, FirstName: "Ann", Text: text})
	if err != nil {
		t.Fatalf("HandleMessage(%q): %v", text, err)
	}
	return name
}

func (f *fixture) press(t *testing.T, userID int64, data string) string {
	t.Helper()
	name, err := f.router.HandleCallback(context.Background(), Callback{ID: "cb-" + data, UserID: userID, ChatID: userID, MessageID: 7, Data: data})
	if err != nil {
		t.Fatalf("HandleCallback(%q): %v", data, err)
	}
	return name
}

func hasButton(kb Keyboard, data string) bool {
	for _, row := range kb {
		for _, b := range row {
			if b.Data == data {
				return true
			}
		}
	}
	return false
}

func TestStartWithCodeRegistersUser(t *testing.T) {
	f := newFixture(t)
	if name := f.text(t, 111, "/start 12345"); name != "start" {
		t.Fatalf("expected start handler, got %q", name)
	}
	reply := f.notify.last(t)
	if !strings.Contains(reply.text, "ORG1") || !strings.Contains(reply.text, "STUDENT") {
		t.Fatalf("unexpected reply: %q", reply.text)
	}
	snap := f.store.Snapshot()
	if u, ok := snap.Users[111]; !ok || u.Organization != "ORG1" || u.Role != domain.RoleStudent {
		t.Fatalf("user 111 not registered: %+v", u)
	}
	if !snap.ActivationCodes["12345"].Used {
		t.Fatal("code not marked used")
	}
}

func TestUsedCodeIsRejected(t *testing.T) {
	f := newFixture(t)
	f.text(t, 111, "/start 12345")
	f.text(t, 222, "/start 12345")
	reply := f.notify.last(t)
	if !strings.Contains(reply.text, textInvalidCode) || !strings.Contains(reply.text, textInvalidCodeHint) {
		t.Fatalf("expected invalid code reply with hint, got %q", reply.text)
	}
	if _, ok := f.store.Snapshot().Users[222]; ok {
		t.Fatal("user 222 must not be registered")
	}
}

func TestStartEqualsSyntax(t *testing.T) {
	f := newFixture(t)
	f.text(t, 5, "/start=99999")
	if u, ok := f.store.Snapshot().Users[5]; !ok || u.Role != domain.RoleAdmin {
		t.Fatalf("expected admin registration, got %+v", u)
	}
}

func TestBareCodeRedeems(t *testing.T) {
	f := newFixture(t)
	if name := f.text(t, 6, "  12345 "); name != "code" {
		t.Fatalf("expected code handler, got %q", name)
	}
	if _, ok := f.store.Snapshot().Users[6]; !ok {
		t.Fatal("bare code did not register user")
	}
	f.text(t, 7, "12345")
	reply := f.notify.last(t)
	if reply.text != textInvalidCode {
		t.Fatalf("bare code path must not carry the hint, got %q", reply.text)
	}
}

func TestGreetingShowsAdminButtonForOwnerAndAdminRole(t *testing.T) {
	f := newFixture(t)
	f.text(t, 8, "hello")
	if hasButton(f.notify.last(t).kb, KeyAdminPanel) {
		t.Fatal("unregistered user must not see admin panel")
	}
	f.text(t, ownerID, "hello")
	if !hasButton(f.notify.last(t).kb, KeyAdminPanel) {
		t.Fatal("owner must see admin panel")
	}
	f.text(t, 9, "99999")
	f.text(t, 9, "hello")
	if !hasButton(f.notify.last(t).kb, KeyAdminPanel) {
		t.Fatal("ADMIN role must see admin panel")
	}
	if !strings.Contains(f.notify.last(t).text, "Ann") {
		t.Fatalf("greeting should use the name, got %q", f.notify.last(t).text)
	}
}

func TestRedeemReplyShowsAdminButtonOnlyToOwner(t *testing.T) {
	f := newFixture(t)
	f.text(t, 9, "99999")
	if u := f.store.Snapshot().Users[9]; u.Role != domain.RoleAdmin {
		t.Fatalf("expected admin registration, got %+v", u)
	}
	if hasButton(f.notify.last(t).kb, KeyAdminPanel) {
		t.Fatal("activation reply must not show admin panel to a non-owner")
	}
	f.text(t, 9, "99999")
	if hasButton(f.notify.last(t).kb, KeyAdminPanel) {
		t.Fatal("invalid code reply must not show admin panel to a non-owner")
	}
	f.text(t, ownerID, "12345")
	if !hasButton(f.notify.last(t).kb, KeyAdminPanel) {
		t.Fatal("owner must see admin panel after activation")
	}
}

func TestRedeemSaveFailureRepliesAndKeepsCode(t *testing.T) {
	var fb *flakyBackend
	f := newFixtureOn(t, func(b storage.Backend) storage.Backend {
		fb = &flakyBackend{Backend: b}
		return fb
	})
	fb.fail = true

	_, err := f.router.HandleMessage(context.Background(), Message{ChatID: 111, UserID: 111, FirstName: "Ann", Text: "/start 12345"})
	if err == nil {
		t.Fatal("expected save error to surface")
	}
	if reply := f.notify.last(t); reply.text != textSomethingWrong {
		t.Fatalf("expected failure reply, got %q", reply.text)
	}
	if f.notify.count("send") != 1 {
		t.Fatalf("expected a single reply, got %d", f.notify.count("send"))
	}
	snap := f.store.Snapshot()
	if snap.ActivationCodes["12345"].Used {
		t.Fatal("code consumed although save failed")
	}
	if _, ok := snap.Users[111]; ok {
		t.Fatal("user registered although save failed")
	}
}

func TestConsumeSaveFailureKeepsPendingStep(t *testing.T) {
	var fb *flakyBackend
	f := newFixtureOn(t, func(b storage.Backend) storage.Backend {
		fb = &flakyBackend{Backend: b}
		return fb
	})
	f.press(t, ownerID, KeyAdminAddGuide)
	f.text(t, ownerID, "Intro")
	fb.fail = true
	f.notify.reset()

	_, err := f.router.HandleMessage(context.Background(), Message{ChatID: ownerID, UserID: ownerID, Text: "Welcome text"})
	if err == nil {
		t.Fatal("expected save error to surface")
	}
	if f.notify.count("send") != 1 || f.notify.last(t).text != textSomethingWrong {
		t.Fatalf("expected only the failure reply, got %+v", f.notify.calls)
	}
	snap := f.store.Snapshot()
	if len(snap.Guides) != 0 || snap.NextIDs.Guide != 1 {
		t.Fatalf("guide stored although save failed: %+v next=%+v", snap.Guides, snap.NextIDs)
	}
	if st, ok := snap.States[ownerID].(domain.AddingGuideContent); !ok || st.Title != "Intro" {
		t.Fatalf("pending step lost: %#v", snap.States[ownerID])
	}

	fb.fail = false
	f.text(t, ownerID, "Welcome text")
	if g := f.store.Snapshot().Guides; len(g) != 1 || g[0].Content != "Welcome text" {
		t.Fatalf("retry did not store the guide: %+v", g)
	}
}

func TestOwnerAddsGuide(t *testing.T) {
	f := newFixture(t)
	f.press(t, ownerID, KeyAdminAddGuide)
	if f.notify.count("ack") != 1 {
		t.Fatal("callback must be acknowledged once")
	}
	if name := f.text(t, ownerID, "Intro"); name != "conversation" {
		t.Fatalf("expected conversation handler, got %q", name)
	}
	f.text(t, ownerID, "Welcome text")

	reply := f.notify.last(t)
	if !strings.Contains(reply.text, "Intro") || !hasButton(reply.kb, KeyAdminPanel) {
		t.Fatalf("unexpected confirmation: %+v", reply)
	}
	snap := f.store.Snapshot()
	if len(snap.Guides) != 1 {
		t.Fatalf("expected one guide, got %d", len(snap.Guides))
	}
	g := snap.Guides[0]
	if g.ID != 1 || g.Title != "Intro" || g.Content != "Welcome text" {
		t.Fatalf("unexpected guide: %+v", g)
	}
	if _, ok := snap.States[ownerID]; ok {
		t.Fatal("state not cleared")
	}
}

func TestPendingStateWinsOverCommandsAndCodes(t *testing.T) {
	f := newFixture(t)
	f.press(t, ownerID, KeyAdminAddFile)
	f.text(t, ownerID, "/start 12345")
	f.text(t, ownerID, "12345")

	snap := f.store.Snapshot()
	if snap.ActivationCodes["12345"].Used {
		t.Fatal("pending state must consume the text before code routing")
	}
	if len(snap.Files) != 1 || snap.Files[0].Title != "/start 12345" || snap.Files[0].URL != "12345" {
		t.Fatalf("unexpected files: %+v", snap.Files)
	}
	if snap.Files[0].Organization != "ORG1" || snap.Files[0].Role != nil {
		t.Fatalf("unexpected file scope: %+v", snap.Files[0])
	}
}

func TestNonOwnerCannotOpenAdminPanel(t *testing.T) {
	f := newFixture(t)
	f.text(t, 9, "99999")
	f.notify.reset()

	f.press(t, 9, KeyAdminPanel)
	if f.notify.count("edit") != 0 || f.notify.count("send") != 0 {
		t.Fatal("admin panel must not render for non-owner")
	}
	reply := f.notify.last(t)
	if reply.kind != "ack" || reply.text != textUnknownAction {
		t.Fatalf("expected generic ack, got %+v", reply)
	}
}

func TestNonOwnerCannotStartFlow(t *testing.T) {
	f := newFixture(t)
	f.press(t, 42, KeyAdminAddGuide)
	if _, ok := f.store.Snapshot().States[42]; ok {
		t.Fatal("non-owner must not get a pending state")
	}
}

func TestStaleStateOfNonOwnerIsDropped(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Update(context.Background(), func(doc *domain.Document) error {
		doc.States[55] = domain.AddingGuideTitle{}
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if name := f.text(t, 55, "12345"); name != "code" {
		t.Fatalf("expected normal routing after drop, got %q", name)
	}
	snap := f.store.Snapshot()
	if _, ok := snap.States[55]; ok {
		t.Fatal("stale state not dropped")
	}
	if len(snap.Guides) != 0 {
		t.Fatal("non-owner text must not create a guide")
	}
}

func TestFilesScopedToOrgAndRole(t *testing.T) {
	f := newFixture(t)
	admin := domain.RoleAdmin
	if err := f.store.Update(context.Background(), func(doc *domain.Document) error {
		doc.AppendFile("Public", "https://e.com/1", "ORG1", nil)
		doc.AppendFile("Admins", "https://e.com/2", "ORG1", &admin)
		doc.AppendFile("Other", "https://e.com/3", "ORG2", nil)
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	f.text(t, 20, "/start 12345")
	f.notify.reset()

	f.press(t, 20, KeyFiles)
	reply := f.notify.last(t)
	if reply.kind != "edit" || reply.text != textFilesHeader {
		t.Fatalf("unexpected reply: %+v", reply)
	}
	if len(reply.kb) != 2 || reply.kb[0][0].URL != "https://e.com/1" || reply.kb[1][0].Data != KeyMain {
		t.Fatalf("unexpected keyboard: %+v", reply.kb)
	}
}

func TestFilesRequiresRegistration(t *testing.T) {
	f := newFixture(t)
	f.press(t, 21, KeyFiles)
	reply := f.notify.last(t)
	if reply.kind != "send" || reply.text != textActivateFirst {
		t.Fatalf("unexpected reply: %+v", reply)
	}
}

func TestGuideNotFound(t *testing.T) {
	f := newFixture(t)
	for _, data := range []string{"guide_99", "guide_abc"} {
		f.notify.reset()
		f.press(t, 30, data)
		if f.notify.count("ack") != 1 || f.notify.count("edit") != 0 {
			t.Fatalf("%s: expected a single ack and no edit", data)
		}
		if reply := f.notify.last(t); reply.text != textGuideNotFound {
			t.Fatalf("%s: unexpected ack text %q", data, reply.text)
		}
	}
}

func TestGuideView(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Update(context.Background(), func(doc *domain.Document) error {
		doc.AppendGuide("Intro", "Read me")
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if name := f.press(t, 30, "guide_1"); name != "callback.guide" {
		t.Fatalf("unexpected handler name %q", name)
	}
	reply := f.notify.last(t)
	if !strings.Contains(reply.text, "Intro") || !strings.Contains(reply.text, "Read me") || !hasButton(reply.kb, KeyGuides) {
		t.Fatalf("unexpected guide view: %+v", reply)
	}
}

func TestUnknownCallback(t *testing.T) {
	f := newFixture(t)
	f.press(t, 30, "whatever")
	if f.notify.count("ack") != 1 {
		t.Fatal("unknown callback must be acknowledged once")
	}
	if reply := f.notify.last(t); reply.text != textUnknownAction {
		t.Fatalf("unexpected ack text %q", reply.text)
	}
}

func TestEveryCallbackAcksBeforeEffect(t *testing.T) {
	f := newFixture(t)
	for _, data := range []string{KeyMain, KeyFiles, KeyGuides, KeyProfile, KeyAdminPanel, KeyAdminListGuides, KeyAdminListFiles} {
		f.notify.reset()
		f.press(t, ownerID, data)
		f.notify.mu.Lock()
		calls := append([]call(nil), f.notify.calls...)
		f.notify.mu.Unlock()
		if len(calls) < 2 || calls[0].kind != "ack" {
			t.Fatalf("%s: expected ack first, got %+v", data, calls)
		}
		if f.notify.count("ack") != 1 {
			t.Fatalf("%s: expected exactly one ack", data)
		}
	}
}

func TestAdminCancelClearsState(t *testing.T) {
	f := newFixture(t)
	f.press(t, ownerID, KeyAdminAddGuide)
	f.press(t, ownerID, KeyAdminCancel)
	if _, ok := f.store.Snapshot().States[ownerID]; ok {
		t.Fatal("cancel did not clear state")
	}
	if name := f.text(t, ownerID, "hello"); name != "greeting" {
		t.Fatalf("expected greeting after cancel, got %q", name)
	}
}

func TestAdminLists(t *testing.T) {
	f := newFixture(t)
	if err := f.store.Update(context.Background(), func(doc *domain.Document) error {
		doc.AppendGuide("Intro", "x")
		doc.AppendFile("Slides", "https://e.com/s", "ORG1", nil)
		return nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	f.press(t, ownerID, KeyAdminListGuides)
	if got := f.notify.last(t).text; !strings.Contains(got, "- 1: Intro") {
		t.Fatalf("unexpected guide list %q", got)
	}
	f.press(t, ownerID, KeyAdminListFiles)
	if got := f.notify.last(t).text; !strings.Contains(got, "- 1: Slides (https://e.com/s)") {
		t.Fatalf("unexpected file list %q", got)
	}
}

func TestProfile(t *testing.T) {
	f := newFixture(t)
	f.text(t, 40, "/start 12345")
	f.press(t, 40, KeyProfile)
	got := f.notify.last(t).text
	if !strings.Contains(got, "Ann") || !strings.Contains(got, "ORG1") || !strings.Contains(got, "STUDENT") {
		t.Fatalf("unexpected profile %q", got)
	}
}

func TestParseStartCode(t *testing.T) {
	cases := map[string]string{
		"/start 12345":  "12345",
		"/start=12345":  "12345",
		" /start  abc ": "abc",
	}
	for in, want := range cases {
		got, ok := ParseStartCode(in)
		if !ok || got != want {
			t.Fatalf("ParseStartCode(%q) = %q, %v", in, got, ok)
		}
	}
	for _, in := range []string{"/start", "/start=", "hello", "12345"} {
		if _, ok := ParseStartCode(in); ok {
			t.Fatalf("ParseStartCode(%q) should not match", in)
		}
	}
}

func TestRegistryPrefixAndDuplicates(t *testing.T) {
	reg := NewRegistry()
	h := func(context.Context, *press, string) error { return nil }
	if err := reg.Register("a", h, false); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := reg.Register("a", h, false); err == nil {
		t.Fatal("expected duplicate error")
	}
	if err := reg.RegisterPrefix("a_", h, true); err != nil {
		t.Fatalf("register prefix: %v", err)
	}
	key, arg, entry, ok := reg.lookup("a_12")
	if !ok || key != "a_" || arg != "12" || !entry.adminOnly {
		t.Fatalf("lookup = %q %q %+v %v", key, arg, entry, ok)
	}
	if _, _, _, ok := reg.lookup("b"); ok {
		t.Fatal("unexpected match")
	}
	if keys := reg.Keys(); len(keys) != 2 || keys[0] != "a" || keys[1] != "a_*" {
		t.Fatalf("unexpected keys %v", keys)
	}
}
