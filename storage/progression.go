// Package storage records issued progressions in NATS KV.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/modulator/modulation"
)

// DefaultBucket is the KV bucket used when none is configured.
const DefaultBucket = "MODULATION_PROGRESSIONS"

// ProgressionRecord is the stored form of an issued progression.
type ProgressionRecord struct {
	ID          string     `json:"id"`
	RequestID   string     `json:"request_id,omitempty"`
	Start       string     `json:"start"`
	Destination string     `json:"destination"`
	Route       []string   `json:"route"`
	Chords      [][]string `json:"chords"`
	Hops        int        `json:"hops"`
	Fingerprint string     `json:"fingerprint"`
	CreatedAt   time.Time  `json:"created_at"`
}

// FromProgression converts a progression into a record. Fingerprint
// identifies the key graph that produced it.
func FromProgression(p *modulation.Progression, fingerprint string) *ProgressionRecord {
	rec := &ProgressionRecord{
		Start:       p.Start.String(),
		Destination: p.Destination.String(),
		Route:       make([]string, len(p.Route)),
		Chords:      make([][]string, len(p.Chords)),
		Hops:        p.Hops(),
		Fingerprint: fingerprint,
	}
	for i, k := range p.Route {
		rec.Route[i] = k.String()
	}
	for i, c := range p.Chords {
		tones := make([]string, len(c))
		for j, t := range c {
			tones[j] = string(t)
		}
		rec.Chords[i] = tones
	}
	return rec
}

// records is the subset of KV operations the store needs.
type records interface {
	get(ctx context.Context, key string) ([]byte, error)
	put(ctx context.Context, key string, value []byte) error
	keys(ctx context.Context) ([]string, error)
}

type kvRecords struct {
	kv jetstream.KeyValue
}

func (r kvRecords) get(ctx context.Context, key string) ([]byte, error) {
	entry, err := r.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	return entry.Value(), nil
}

func (r kvRecords) put(ctx context.Context, key string, value []byte) error {
	_, err := r.kv.Put(ctx, key, value)
	return err
}

func (r kvRecords) keys(ctx context.Context) ([]string, error) {
	keys, err := r.kv.Keys(ctx)
	if errors.Is(err, jetstream.ErrNoKeysFound) {
		return nil, nil
	}
	return keys, err
}

// Store provides progression storage backed by NATS KV.
type Store struct {
	records records
	now     func() time.Time
}

// NewStore creates a new Store with the given JetStream context.
// It creates the bucket if it doesn't exist.
func NewStore(ctx context.Context, js jetstream.JetStream, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	kv, err := getOrCreateBucket(ctx, js, bucket)
	if err != nil {
		return nil, fmt.Errorf("create progressions bucket: %w", err)
	}
	return newStore(kvRecords{kv: kv}), nil
}

func newStore(r records) *Store {
	return &Store{records: r, now: time.Now}
}

func getOrCreateBucket(ctx context.Context, js jetstream.JetStream, name string) (jetstream.KeyValue, error) {
	kv, err := js.KeyValue(ctx, name)
	if err == nil {
		return kv, nil
	}
	// Bucket doesn't exist, create it
	return js.CreateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      name,
		Description: "Issued modulation progressions",
		History:     1,
	})
}

// Record stores rec under a new ID and returns that ID.
func (s *Store) Record(ctx context.Context, rec *ProgressionRecord) (string, error) {
	rec.ID = uuid.New().String()
	rec.CreatedAt = s.now().UTC()

	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal progression: %w", err)
	}

	if err := s.records.put(ctx, rec.ID, data); err != nil {
		return "", fmt.Errorf("store progression: %w", err)
	}

	return rec.ID, nil
}

// Get retrieves a progression record by ID.
func (s *Store) Get(ctx context.Context, id string) (*ProgressionRecord, error) {
	data, err := s.records.get(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get progression: %w", err)
	}

	var rec ProgressionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal progression: %w", err)
	}

	return &rec, nil
}

// List returns all stored progressions, oldest first.
func (s *Store) List(ctx context.Context) ([]*ProgressionRecord, error) {
	keys, err := s.records.keys(ctx)
	if err != nil {
		return nil, fmt.Errorf("list progression keys: %w", err)
	}

	recs := make([]*ProgressionRecord, 0, len(keys))
	for _, key := range keys {
		data, err := s.records.get(ctx, key)
		if err != nil {
			continue // Skip entries that fail to load
		}
		var rec ProgressionRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			continue
		}
		recs = append(recs, &rec)
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].CreatedAt.Equal(recs[j].CreatedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CreatedAt.Before(recs[j].CreatedAt)
	})
	return recs, nil
}

// isNotFound checks if an error indicates a key was not found.
func isNotFound(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, jetstream.ErrKeyNotFound) || strings.Contains(err.Error(), "key not found")
}
