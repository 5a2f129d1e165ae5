// Package offline reads offline-format files: full event records with
// snapshot hits, Monte Carlo truth and reconstructed tracks. The field
// tables mirror the dotted sub-branch naming of the offline data
// format.
package offline

import (
	"github.com/km3py/km3go/jagged"
	"github.com/km3py/km3go/klog"
	"github.com/km3py/km3go/ktree"
	"github.com/km3py/km3go/rootio"
)

// EventSchema is the offline event layout. Field tables are part of
// the naming contract with the production chain, entries absent from a
// given file version are filtered at open.
var EventSchema = &rootio.Schema{
	EventPath:  "E/Evt",
	ItemName:   "OfflineEvent",
	SkipFields: []string{"t", "AAObject", "mc_event_time", "header_uuid[16]"},
	Aliases: []rootio.Field{
		{Name: "mc_event_time_sec", Path: "mc_event_time/mc_event_time.fSec"},
		{Name: "mc_event_time_ns", Path: "mc_event_time/mc_event_time.fNanoSec"},
		{Name: "t_sec", Path: "t/t.fSec"},
		{Name: "t_ns", Path: "t/t.fNanoSec"},
		{Name: "usr", Path: "AAObject/usr"},
		{Name: "usr_names", Path: "AAObject/usr_names"},
		{Name: "header_uuid", Path: "header_uuid[16]"},
	},
	Nested: []rootio.CollectionSchema{
		{Name: "hits", Fields: []rootio.Field{
			{Name: "id", Path: "hits.id"},
			{Name: "channel_id", Path: "hits.channel_id"},
			{Name: "dom_id", Path: "hits.dom_id"},
			{Name: "t", Path: "hits.t"},
			{Name: "tdc", Path: "hits.tdc"},
			{Name: "pos_x", Path: "hits.pos.x"},
			{Name: "pos_y", Path: "hits.pos.y"},
			{Name: "pos_z", Path: "hits.pos.z"},
			{Name: "dir_x", Path: "hits.dir.x"},
			{Name: "dir_y", Path: "hits.dir.y"},
			{Name: "dir_z", Path: "hits.dir.z"},
			{Name: "tot", Path: "hits.tot"},
			{Name: "a", Path: "hits.a"},       // hit amplitude (in p.e.)
			{Name: "trig", Path: "hits.trig"}, // non-zero if the hit is a triggered hit
		}},
		{Name: "mc_hits", Fields: []rootio.Field{
			{Name: "id", Path: "mc_hits.id"},
			{Name: "pmt_id", Path: "mc_hits.pmt_id"},
			{Name: "t", Path: "mc_hits.t"},
			{Name: "a", Path: "mc_hits.a"},
			{Name: "origin", Path: "mc_hits.origin"},
			{Name: "pure_t", Path: "mc_hits.pure_t"}, // photon time before pmt simulation
			{Name: "pure_a", Path: "mc_hits.pure_a"},
			{Name: "type", Path: "mc_hits.type"},
		}},
		{Name: "trks", Fields: []rootio.Field{
			{Name: "id", Path: "trks.id"},
			{Name: "pos_x", Path: "trks.pos.x"},
			{Name: "pos_y", Path: "trks.pos.y"},
			{Name: "pos_z", Path: "trks.pos.z"},
			{Name: "dir_x", Path: "trks.dir.x"},
			{Name: "dir_y", Path: "trks.dir.y"},
			{Name: "dir_z", Path: "trks.dir.z"},
			{Name: "t", Path: "trks.t"},
			{Name: "E", Path: "trks.E"},
			{Name: "len", Path: "trks.len"},
			{Name: "lik", Path: "trks.lik"},
			{Name: "rec_type", Path: "trks.rec_type"},
			{Name: "rec_stages", Path: "trks.rec_stages"},
			{Name: "fitinf", Path: "trks.fitinf"},
		}},
		{Name: "mc_trks", Fields: []rootio.Field{
			{Name: "id", Path: "mc_trks.id"},
			{Name: "pos_x", Path: "mc_trks.pos.x"},
			{Name: "pos_y", Path: "mc_trks.pos.y"},
			{Name: "pos_z", Path: "mc_trks.pos.z"},
			{Name: "dir_x", Path: "mc_trks.dir.x"},
			{Name: "dir_y", Path: "mc_trks.dir.y"},
			{Name: "dir_z", Path: "mc_trks.dir.z"},
			{Name: "E", Path: "mc_trks.E"},
			{Name: "t", Path: "mc_trks.t"},
			{Name: "len", Path: "mc_trks.len"},
			{Name: "status", Path: "mc_trks.status"},
			{Name: "mother_id", Path: "mc_trks.mother_id"},
			{Name: "counter", Path: "mc_trks.counter"},
			{Name: "pdgid", Path: "mc_trks.type"},
			{Name: "hit_ids", Path: "mc_trks.hit_ids"},
			{Name: "usr", Path: "mc_trks.usr"},
			{Name: "usr_names", Path: "mc_trks.usr_names"},
		}},
	},
	NestedAliases: []rootio.Field{
		{Name: "tracks", Path: "trks"},
		{Name: "mc_tracks", Path: "mc_trks"},
	},
}

// Reader is the offline-format event container.
type Reader struct {
	*rootio.Reader
	file *ktree.File

	headerOnce bool
	header     *rootio.Header
}

// Open opens an offline file and binds the event schema.
func Open(path string, opts ...ktree.Option) (*Reader, error) {
	f, err := ktree.Open(path, opts...)
	if err != nil {
		return nil, err
	}
	r, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	return r, nil
}

// NewReader wraps an already open container.
func NewReader(f *ktree.File) (*Reader, error) {
	base, err := rootio.NewReader(f, EventSchema)
	if err != nil {
		return nil, err
	}
	return &Reader{Reader: base, file: f}, nil
}

// Header parses the file header once and caches it. An unsupported or
// absent header yields nil after a warning, never an error; callers
// must check for absence.
func (r *Reader) Header() *rootio.Header {
	if !r.headerOnce {
		r.headerOnce = true
		text := r.file.HeaderText()
		if text == "" {
			klog.Warn("the file header has an unsupported format", "offline")
		} else {
			r.header = rootio.ParseHeader(text)
		}
	}
	return r.header
}

// Index derives a reader with the chain extended by one operation.
func (r *Reader) Index(ix jagged.Index) *Reader {
	child := *r
	child.Reader = r.Reader.Index(ix)
	return &child
}

// Hits is the snapshot-hit collection accumulator.
func (r *Reader) Hits() (*rootio.Branch, error) { return r.Branch("hits") }

// MCHits is the Monte Carlo truth hit collection.
func (r *Reader) MCHits() (*rootio.Branch, error) { return r.Branch("mc_hits") }

// Tracks is the reconstructed track collection.
func (r *Reader) Tracks() (*rootio.Branch, error) { return r.Branch("tracks") }

// MCTracks is the Monte Carlo truth track collection.
func (r *Reader) MCTracks() (*rootio.Branch, error) { return r.Branch("mc_tracks") }
