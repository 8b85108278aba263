package router

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/m3rciful/polbot/bot/domain"
)

func (r *Router) registerCallbacks() {
	user := []struct {
		key string
		h   CallbackFunc
	}{
		{KeyMain, r.onMain},
		{KeyFiles, r.onFiles},
		{KeyGuides, r.onGuides},
		{KeyProfile, r.onProfile},
	}
	for _, c := range user {
		_ = r.callbacks.Register(c.key, c.h, false)
	}
	_ = r.callbacks.RegisterPrefix(KeyGuidePrefix, r.onGuide, false)

	admin := []struct {
		key string
		h   CallbackFunc
	}{
		{KeyAdminPanel, r.onAdminPanel},
		{KeyAdminAddGuide, r.beginFlow(domain.AddingGuideTitle{}, textAskGuideTitle)},
		{KeyAdminAddFile, r.beginFlow(domain.AddingFileTitle{}, textAskFileTitle)},
		{KeyAdminListGuides, r.onAdminListGuides},
		{KeyAdminListFiles, r.onAdminListFiles},
		{KeyAdminCancel, r.onAdminCancel},
	}
	for _, c := range admin {
		_ = r.callbacks.Register(c.key, c.h, true)
	}
}

func (r *Router) onMain(ctx context.Context, p *press, _ string) error {
	p.edit(ctx, textMainMenu, mainMenu(r.showAdmin(p.UserID)))
	return nil
}

func (r *Router) onFiles(ctx context.Context, p *press, _ string) error {
	u, ok := r.content.User(p.UserID)
	if !ok {
		p.send(ctx, textActivateFirst, mainMenu(r.showAdmin(p.UserID)))
		return nil
	}
	files := r.content.FilesFor(u)
	if len(files) == 0 {
		p.edit(ctx, textNoFilesForUser, mainMenu(r.showAdmin(p.UserID)))
		return nil
	}
	p.edit(ctx, textFilesHeader, filesKeyboard(files))
	return nil
}

func (r *Router) onGuides(ctx context.Context, p *press, _ string) error {
	guides := r.content.Guides()
	if len(guides) == 0 {
		p.edit(ctx, textNoGuides, mainMenu(r.showAdmin(p.UserID)))
		return nil
	}
	p.edit(ctx, textGuidesHeader, guidesKeyboard(guides))
	return nil
}

func (r *Router) onGuide(ctx context.Context, p *press, arg string) error {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		p.ack(ctx, textGuideNotFound)
		return nil
	}
	g, err := r.content.GuideByID(ctx, id)
	if err != nil {
		p.ack(ctx, textGuideNotFound)
		return nil
	}
	p.edit(ctx, fmt.Sprintf(textGuideBody, g.Title, g.Content), Keyboard{backRow(KeyGuides)})
	return nil
}

func (r *Router) onProfile(ctx context.Context, p *press, _ string) error {
	u, ok := r.content.User(p.UserID)
	if !ok {
		p.edit(ctx, textActivateFirst, mainMenu(r.showAdmin(p.UserID)))
		return nil
	}
	p.edit(ctx, fmt.Sprintf(textProfile, u.DisplayName, u.Organization, u.Role), Keyboard{backRow(KeyMain)})
	return nil
}

func (r *Router) onAdminPanel(ctx context.Context, p *press, _ string) error {
	p.edit(ctx, textAdminPanel, adminKeyboard())
	return nil
}

func (r *Router) beginFlow(step domain.Step, prompt string) CallbackFunc {
	return func(ctx context.Context, p *press, _ string) error {
		if err := r.conversation.Begin(ctx, p.UserID, step); err != nil {
			p.send(ctx, textSomethingWrong, nil)
			return err
		}
		p.send(ctx, prompt, cancelKeyboard())
		return nil
	}
}

func (r *Router) onAdminListGuides(ctx context.Context, p *press, _ string) error {
	guides := r.content.Guides()
	if len(guides) == 0 {
		p.edit(ctx, textNoGuides, adminKeyboard())
		return nil
	}
	lines := make([]string, 0, len(guides)+1)
	lines = append(lines, textGuideListHeader)
	for _, g := range guides {
		lines = append(lines, fmt.Sprintf("- %d: %s", g.ID, g.Title))
	}
	p.edit(ctx, strings.Join(lines, "\n"), adminKeyboard())
	return nil
}

func (r *Router) onAdminListFiles(ctx context.Context, p *press, _ string) error {
	files := r.content.Files()
	if len(files) == 0 {
		p.edit(ctx, textNoFiles, adminKeyboard())
		return nil
	}
	lines := make([]string, 0, len(files)+1)
	lines = append(lines, textFileListHeader)
	for _, f := range files {
		lines = append(lines, fmt.Sprintf("- %d: %s (%s)", f.ID, f.Title, f.URL))
	}
	p.edit(ctx, strings.Join(lines, "\n"), adminKeyboard())
	return nil
}

func (r *Router) onAdminCancel(ctx context.Context, p *press, _ string) error {
	if _, err := r.conversation.Cancel(ctx, p.UserID); err != nil {
		p.send(ctx, textSomethingWrong, nil)
		return err
	}
	p.edit(ctx, textCancelled, adminKeyboard())
	return nil
}

// consume feeds an owner's text into the pending step and replies only
// after the transition is persisted.
func (r *Router) consume(ctx context.Context, msg Message) error {
	out, err := r.conversation.Advance(ctx, msg.UserID, msg.Text)
	if err != nil {
		r.send(ctx, msg.ChatID, textSomethingWrong, nil)
		return err
	}
	switch {
	case out.Guide != nil:
		r.send(ctx, msg.ChatID, fmt.Sprintf(textGuideAdded, out.Guide.Title), mainMenu(true))
	case out.File != nil:
		r.send(ctx, msg.ChatID, fmt.Sprintf(textFileAdded, out.File.Title), mainMenu(true))
	default:
		switch out.Next.(type) {
		case domain.AddingGuideContent:
			r.send(ctx, msg.ChatID, textAskGuideContent, cancelKeyboard())
		case domain.AddingFileURL:
			r.send(ctx, msg.ChatID, textAskFileURL, cancelKeyboard())
		}
	}
	return nil
}
