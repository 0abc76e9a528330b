package storage

import (
	"encoding/json"
	"fmt"

	"github.com/keshon/server-ops/datastore"
)

// Storage persists announcement subscriptions, keyed by topic.
type Storage struct {
	ds *datastore.DataStore
}

// Target is one delivery destination for a topic: a channel or a user's DMs.
// Exactly one of the two ids is set.
type Target struct {
	ChannelID string `json:"channel_id,omitempty"`
	UserID    string `json:"user_id,omitempty"`
}

type Record struct {
	Subscribers []Target `json:"subscribers"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// getOrCreateTopicRecord loads the record for a topic, creating it on first use
func (s *Storage) getOrCreateTopicRecord(topic string) (*Record, error) {
	data, exists := s.ds.Get(topic)
	if !exists {
		newRecord := &Record{Subscribers: []Target{}}
		s.ds.Add(topic, newRecord)
		return newRecord, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}

	var record Record
	if err := json.Unmarshal(jsonData, &record); err != nil {
		return nil, fmt.Errorf("error unmarshalling to *Record: %w", err)
	}
	return &record, nil
}

// AddSubscription adds a target to a topic. Adding an existing target is a no-op.
func (s *Storage) AddSubscription(topic string, target Target) error {
	record, err := s.getOrCreateTopicRecord(topic)
	if err != nil {
		return err
	}

	for _, t := range record.Subscribers {
		if t == target {
			return nil
		}
	}

	record.Subscribers = append(record.Subscribers, target)
	s.ds.Add(topic, record)
	return nil
}

// RemoveSubscription removes a target from a topic.
func (s *Storage) RemoveSubscription(topic string, target Target) error {
	record, err := s.getOrCreateTopicRecord(topic)
	if err != nil {
		return err
	}

	found := false
	filtered := make([]Target, 0, len(record.Subscribers))
	for _, t := range record.Subscribers {
		if t == target {
			found = true
			continue
		}
		filtered = append(filtered, t)
	}
	if !found {
		return fmt.Errorf("target not subscribed to topic '%s'", topic)
	}

	record.Subscribers = filtered
	s.ds.Add(topic, record)
	return nil
}

// Subscriptions returns all targets subscribed to a topic.
func (s *Storage) Subscriptions(topic string) ([]Target, error) {
	record, err := s.getOrCreateTopicRecord(topic)
	if err != nil {
		return nil, err
	}
	return record.Subscribers, nil
}

// Topics returns all known topics in sorted order.
func (s *Storage) Topics() []string {
	return s.ds.Keys()
}
