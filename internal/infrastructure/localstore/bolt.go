package localstore

import (
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	bolt "go.etcd.io/bbolt"

	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/activegame"
	"github.com/icpchainapps-hash/ignite-pitchboard/internal/domain/matchclock"
)

const (
	bucketClocks = "clocks"
	bucketPitch  = "pitch"
)

// clockRecord is the persisted clock payload. It carries its own schema
// version so old on-device files are rejected rather than misread.
type clockRecord struct {
	SchemaVersion  int       `json:"schema_version"`
	ElapsedSeconds int       `json:"elapsed_seconds"`
	Running        bool      `json:"running"`
	Half           int       `json:"half"`
	MinutesPerHalf int       `json:"minutes_per_half"`
	AnchorAt       time.Time `json:"anchor_at"`
}

type BoltStore struct {
	db *bolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketClocks)); err != nil {
			return fmt.Errorf("create clocks bucket: %w", err)
		}
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketPitch)); err != nil {
			return fmt.Errorf("create pitch bucket: %w", err)
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) SaveClock(teamID string, state matchclock.State) error {
	record := clockRecord{
		SchemaVersion:  activegame.SchemaVersion,
		ElapsedSeconds: state.ElapsedSeconds,
		Running:        state.Running,
		Half:           state.Half,
		MinutesPerHalf: state.MinutesPerHalf,
		AnchorAt:       state.AnchorAt,
	}
	data, err := sonic.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal clock state: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketClocks)).Put([]byte(teamID), data)
	})
}

func (s *BoltStore) LoadClock(teamID string) (matchclock.State, bool, error) {
	var record clockRecord
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketClocks)).Get([]byte(teamID))
		if data == nil {
			return nil
		}
		if err := sonic.Unmarshal(data, &record); err != nil {
			return fmt.Errorf("unmarshal clock state: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return matchclock.State{}, false, err
	}
	if !found || record.SchemaVersion != activegame.SchemaVersion {
		return matchclock.State{}, false, nil
	}

	return matchclock.State{
		ElapsedSeconds: record.ElapsedSeconds,
		Running:        record.Running,
		Half:           record.Half,
		MinutesPerHalf: record.MinutesPerHalf,
		AnchorAt:       record.AnchorAt,
	}, true, nil
}

func (s *BoltStore) SavePitch(teamID string, state activegame.PitchState) error {
	data, err := sonic.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal pitch state: %w", err)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketPitch)).Put([]byte(teamID), data)
	})
}

func (s *BoltStore) LoadPitch(teamID string) (activegame.PitchState, bool, error) {
	var state activegame.PitchState
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(bucketPitch)).Get([]byte(teamID))
		if data == nil {
			return nil
		}
		if err := sonic.Unmarshal(data, &state); err != nil {
			return fmt.Errorf("unmarshal pitch state: %w", err)
		}
		found = true
		return nil
	})
	if err != nil {
		return activegame.PitchState{}, false, err
	}
	if !found {
		return activegame.PitchState{}, false, nil
	}

	return state, true, nil
}

func (s *BoltStore) DeleteTeam(teamID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(bucketClocks)).Delete([]byte(teamID)); err != nil {
			return err
		}
		return tx.Bucket([]byte(bucketPitch)).Delete([]byte(teamID))
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
