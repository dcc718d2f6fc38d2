// Package boltstore implements store.Store on an embedded bbolt file.
package boltstore

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"moodcircle/internal/models"
	"moodcircle/internal/store"
)

var (
	// Bucket names
	bucketUsers         = []byte("users")
	bucketJournals      = []byte("journals")
	bucketCircles       = []byte("circles")
	bucketCircleMembers = []byte("circle_members")
)

// BoltStore keeps one bucket per entity kind, keyed by big-endian id, with JSON values.
// Ids come from each bucket's own sequence.
type BoltStore struct {
	db *bolt.DB
}

var _ store.Store = (*BoltStore)(nil)

func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketUsers, bucketJournals, bucketCircles, bucketCircleMembers} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Ping(context.Context) error {
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketUsers) == nil {
			return fmt.Errorf("bucket %s missing", bucketUsers)
		}
		return nil
	})
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func itob(id int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func put(b *bolt.Bucket, id int, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return b.Put(itob(id), data)
}

func get(b *bolt.Bucket, id int, v any) error {
	data := b.Get(itob(id))
	if data == nil {
		return store.ErrNotFound
	}
	return json.Unmarshal(data, v)
}

func nextID(b *bolt.Bucket) (int, error) {
	seq, err := b.NextSequence()
	if err != nil {
		return 0, err
	}
	return int(seq), nil
}

// each decodes every value of b into a fresh T and hands it to fn.
func each[T any](b *bolt.Bucket, fn func(T) error) error {
	return b.ForEach(func(_, v []byte) error {
		var item T
		if err := json.Unmarshal(v, &item); err != nil {
			return err
		}
		return fn(item)
	})
}

// User operations
func (s *BoltStore) CreateUser(_ context.Context, user *models.User) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketUsers)
		if _, err := findUserByUsername(b, user.Username); err == nil {
			return store.ErrConflict
		}
		id, err := nextID(b)
		if err != nil {
			return err
		}
		user.ID = id
		return put(b, id, storedUser{ID: id, Username: user.Username, PasswordHash: user.PasswordHash})
	})
}

// storedUser carries the password hash, which models.User hides from JSON.
type storedUser struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

func (s *BoltStore) GetUser(_ context.Context, id int) (*models.User, error) {
	var u storedUser
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx.Bucket(bucketUsers), id, &u)
	})
	if err != nil {
		return nil, err
	}
	return &models.User{ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash}, nil
}

func (s *BoltStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	var user *models.User
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		user, err = findUserByUsername(tx.Bucket(bucketUsers), username)
		return err
	})
	return user, err
}

func findUserByUsername(b *bolt.Bucket, username string) (*models.User, error) {
	var found *models.User
	err := each(b, func(u storedUser) error {
		if u.Username == username {
			found = &models.User{ID: u.ID, Username: u.Username, PasswordHash: u.PasswordHash}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, store.ErrNotFound
	}
	return found, nil
}

func usernameOf(tx *bolt.Tx, userID int) (string, error) {
	var u storedUser
	if err := get(tx.Bucket(bucketUsers), userID, &u); err != nil {
		return "", err
	}
	return u.Username, nil
}

// Journal operations
func (s *BoltStore) CreateJournal(_ context.Context, journal *models.Journal) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if _, err := usernameOf(tx, journal.UserID); err != nil {
			return err
		}
		b := tx.Bucket(bucketJournals)
		id, err := nextID(b)
		if err != nil {
			return err
		}
		journal.ID = id
		return put(b, id, journal)
	})
}

func (s *BoltStore) GetJournal(_ context.Context, id int) (*models.Journal, error) {
	var j models.Journal
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx.Bucket(bucketJournals), id, &j)
	})
	if err != nil {
		return nil, err
	}
	return &j, nil
}

func (s *BoltStore) ListJournals(_ context.Context) ([]models.Journal, error) {
	return s.listJournals(func(models.Journal) bool { return true })
}

func (s *BoltStore) ListJournalsByUser(_ context.Context, userID int) ([]models.Journal, error) {
	return s.listJournals(func(j models.Journal) bool { return j.UserID == userID })
}

func (s *BoltStore) listJournals(keep func(models.Journal) bool) ([]models.Journal, error) {
	out := []models.Journal{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return each(tx.Bucket(bucketJournals), func(j models.Journal) error {
			if keep(j) {
				out = append(out, j)
			}
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) UpdateJournalSharing(_ context.Context, id int, circleID *int) (*models.Journal, error) {
	var j models.Journal
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketJournals)
		if err := get(b, id, &j); err != nil {
			return err
		}
		j.SharedWithCircleID = circleID
		return put(b, id, j)
	})
	if err != nil {
		return nil, err
	}
	return &j, nil
}

// Circle operations
func (s *BoltStore) CreateCircle(_ context.Context, circle *models.Circle) (*models.CircleMember, error) {
	var admin models.CircleMember
	err := s.db.Update(func(tx *bolt.Tx) error {
		username, err := usernameOf(tx, circle.OwnerID)
		if err != nil {
			return err
		}

		circles := tx.Bucket(bucketCircles)
		if circle.ID, err = nextID(circles); err != nil {
			return err
		}
		if err := put(circles, circle.ID, circle); err != nil {
			return err
		}

		members := tx.Bucket(bucketCircleMembers)
		admin = models.CircleMember{CircleID: circle.ID, UserID: circle.OwnerID, Role: models.RoleAdmin}
		if admin.ID, err = nextID(members); err != nil {
			return err
		}
		if err := put(members, admin.ID, admin); err != nil {
			return err
		}
		admin.Username = username
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (s *BoltStore) GetCircle(_ context.Context, id int) (*models.Circle, error) {
	var c models.Circle
	err := s.db.View(func(tx *bolt.Tx) error {
		return get(tx.Bucket(bucketCircles), id, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *BoltStore) ListCirclesForUser(_ context.Context, userID int) ([]models.Circle, error) {
	out := []models.Circle{}
	err := s.db.View(func(tx *bolt.Tx) error {
		joined := make(map[int]bool)
		err := each(tx.Bucket(bucketCircleMembers), func(m models.CircleMember) error {
			if m.UserID == userID {
				joined[m.CircleID] = true
			}
			return nil
		})
		if err != nil {
			return err
		}
		return each(tx.Bucket(bucketCircles), func(c models.Circle) error {
			if c.OwnerID == userID || joined[c.ID] {
				out = append(out, c)
			}
			return nil
		})
	})
	return out, err
}

// Membership operations
func (s *BoltStore) AddCircleMember(_ context.Context, member *models.CircleMember) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		var c models.Circle
		if err := get(tx.Bucket(bucketCircles), member.CircleID, &c); err != nil {
			return err
		}
		username, err := usernameOf(tx, member.UserID)
		if err != nil {
			return err
		}

		b := tx.Bucket(bucketCircleMembers)
		if _, found, err := findMember(b, member.CircleID, member.UserID); err != nil {
			return err
		} else if found {
			return store.ErrConflict
		}
		if member.ID, err = nextID(b); err != nil {
			return err
		}
		member.Username = ""
		if err := put(b, member.ID, member); err != nil {
			return err
		}
		member.Username = username
		return nil
	})
}

func findMember(b *bolt.Bucket, circleID, userID int) (int, bool, error) {
	id := 0
	err := each(b, func(m models.CircleMember) error {
		if m.CircleID == circleID && m.UserID == userID {
			id = m.ID
		}
		return nil
	})
	return id, id != 0, err
}

func (s *BoltStore) RemoveCircleMember(_ context.Context, circleID, userID int) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketCircleMembers)
		id, found, err := findMember(b, circleID, userID)
		if err != nil || !found {
			return err
		}
		return b.Delete(itob(id))
	})
}

func (s *BoltStore) ListCircleMembers(_ context.Context, circleID int) ([]models.CircleMember, error) {
	out := []models.CircleMember{}
	err := s.db.View(func(tx *bolt.Tx) error {
		return each(tx.Bucket(bucketCircleMembers), func(m models.CircleMember) error {
			if m.CircleID != circleID {
				return nil
			}
			username, err := usernameOf(tx, m.UserID)
			if err != nil {
				return err
			}
			m.Username = username
			out = append(out, m)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) IsCircleMember(_ context.Context, circleID, userID int) (bool, error) {
	var found bool
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		_, found, err = findMember(tx.Bucket(bucketCircleMembers), circleID, userID)
		return err
	})
	return found, err
}
