// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The compose flow walks a multi-view workflow:
//  1. [SongListView] : Browse the song catalog
//  2. [ClipView] : Trim the clip with live playback against the selection
//  3. [ComposeFormView] : Write the title, message and optional share email
//  4. [SentView] : Display the share link
//
// The chat flow is a single view over a note's thread. Sends are optimistic
// through chat.Thread; pushed events arrive over the note's websocket channel
// and flow into the update loop as bubbletea messages.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
