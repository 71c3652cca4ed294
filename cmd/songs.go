package main

import (
	"context"
	"fmt"

	"github.com/seranote/seranote/internal/formatter"
	"github.com/seranote/seranote/internal/shared"
	"github.com/urfave/cli/v3"
)

// SongsList prints the song catalog.
func (r *Runner) SongsList(ctx context.Context, cmd *cli.Command) error {
	api, err := r.apiClient()
	if err != nil {
		return err
	}

	songs, err := api.ListSongs(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(songs, cmd.Bool("pretty"))
	}
	if len(songs) == 0 {
		return r.writePlain("The catalog is empty.\n")
	}

	table, err := formatter.SongsToTable(songs)
	if err != nil {
		return err
	}
	return r.writePlain("%s", table)
}

// SongsShow prints one catalog entry by slug.
func (r *Runner) SongsShow(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.StringArg("slug")
	if slug == "" {
		return fmt.Errorf("%w: song slug is required", shared.ErrValidation)
	}

	api, err := r.apiClient()
	if err != nil {
		return err
	}

	song, err := api.GetSong(ctx, slug)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(song, true)
	}

	r.writePlain("Title:    %s\n", song.Title)
	r.writePlain("Artist:   %s\n", song.Artist)
	r.writePlain("Album:    %s\n", song.Album)
	r.writePlain("Length:   %.0fs\n", song.AudioDuration)
	if song.AudioURL != "" {
		r.writePlain("Audio:    %s\n", song.AudioURL)
	}
	return nil
}
