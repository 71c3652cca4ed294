package main

import (
	"context"
	"fmt"

	"github.com/seranote/seranote/internal/formatter"
	"github.com/seranote/seranote/internal/notes"
	"github.com/seranote/seranote/internal/shared"
	"github.com/urfave/cli/v3"
)

// NotesList prints the caller's sent or received notes.
func (r *Runner) NotesList(ctx context.Context, cmd *cli.Command) error {
	api, err := r.apiClient()
	if err != nil {
		return err
	}

	kind := cmd.String("type")
	list, err := api.ListNotes(ctx, kind)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(list, true)
	}
	if len(list) == 0 {
		return r.writePlain("No %s notes.\n", kind)
	}

	table, err := formatter.NotesToTable(list)
	if err != nil {
		return err
	}
	return r.writePlain("%s", table)
}

// NotesCreate composes a note from flags and prints the share link.
func (r *Runner) NotesCreate(ctx context.Context, cmd *cli.Command) error {
	api, err := r.apiClient()
	if err != nil {
		return err
	}

	view, err := api.CreateNote(ctx, notes.CreateNoteInput{
		Title:         cmd.String("title"),
		Message:       cmd.String("message"),
		SongID:        cmd.String("song"),
		ClipStart:     cmd.Float("start"),
		ClipDuration:  cmd.Float("duration"),
		ReceiverEmail: cmd.String("to"),
		ShareEmail:    cmd.String("email"),
	})
	if err != nil {
		return err
	}

	r.writePlain("✓ Note created\n")
	if view.Song != nil {
		r.writePlain("Song:  %s — %s\n", view.Song.Title, view.Song.Artist)
	}
	r.writePlain("Clip:  %.1fs – %.1fs\n",
		view.Note.ClipStart, view.Note.ClipStart+view.Note.ClipDuration)
	return r.writePlain("Share: %s\n", api.ShareURL(view.Note.ID))
}

// NotesShow opens a note. For a shared link this is the claim: the first
// non-sender to run it becomes the receiver.
func (r *Runner) NotesShow(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: note id is required", shared.ErrValidation)
	}

	api, err := r.apiClient()
	if err != nil {
		return err
	}

	view, err := api.GetNote(ctx, id)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(view, true)
	}

	r.writePlain("%s", formatter.NoteToText(view.Note))
	if view.Song != nil {
		r.writePlainln("Track: %s — %s (%s)", view.Song.Title, view.Song.Artist, view.Song.Album)
	}
	if view.UnreadCount > 0 {
		r.writePlain("Unread messages: %d\n", view.UnreadCount)
	}
	return nil
}

// NotesDelete removes a note and its thread.
func (r *Runner) NotesDelete(ctx context.Context, cmd *cli.Command) error {
	id := cmd.StringArg("id")
	if id == "" {
		return fmt.Errorf("%w: note id is required", shared.ErrValidation)
	}

	api, err := r.apiClient()
	if err != nil {
		return err
	}
	if err := api.DeleteNote(ctx, id); err != nil {
		return err
	}
	return r.writePlain("✓ Note %s deleted\n", id)
}
