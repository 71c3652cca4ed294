// Package models defines the data model for the seranote service.
//
// A Note pairs a short text message with a clip of a catalog song and is
// shared from a sender to a receiver. Messages form the lightweight chat
// thread attached to a note. ReadWatermark is the per-(viewer, note) "read up
// to this time" marker that unread counts are computed from; the per-message
// is_read flag is display convenience only and is always derived from the
// watermark.
package models
