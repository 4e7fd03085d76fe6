package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"

	"github.com/Zuo-Peng/ai-chat-archive/internal/parse"
)

var conversationsBucket = []byte("conversations")

// Bolt keeps one JSON value per conversation id in a single bucket.
type Bolt struct {
	db   *bolt.DB
	path string
}

func OpenBolt(path string) (*Bolt, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create bolt dir")
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, errors.Wrap(err, "open bolt")
	}
	return &Bolt{db: db, path: path}, nil
}

func (b *Bolt) Close() error {
	return b.db.Close()
}

func (b *Bolt) LoadAll() ([]parse.Conversation, error) {
	var convs []parse.Conversation
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(conversationsBucket)
		if bk == nil {
			return nil
		}
		return bk.ForEach(func(k, v []byte) error {
			var c parse.Conversation
			if err := json.Unmarshal(v, &c); err != nil {
				return errors.Wrapf(err, "decode conversation %s", k)
			}
			convs = append(convs, c)
			return nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, "load conversations")
	}
	parse.SortByUpdateDesc(convs)
	return convs, nil
}

func (b *Bolt) Get(id string) (*parse.Conversation, error) {
	var c *parse.Conversation
	err := b.db.View(func(tx *bolt.Tx) error {
		bk := tx.Bucket(conversationsBucket)
		if bk == nil {
			return nil
		}
		v := bk.Get([]byte(id))
		if v == nil {
			return nil
		}
		c = &parse.Conversation{}
		return json.Unmarshal(v, c)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "get conversation %s", id)
	}
	return c, nil
}

// SaveAll recreates the bucket so it reflects convs exactly.
func (b *Bolt) SaveAll(convs []parse.Conversation) error {
	err := b.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(conversationsBucket) != nil {
			if err := tx.DeleteBucket(conversationsBucket); err != nil {
				return err
			}
		}
		bk, err := tx.CreateBucket(conversationsBucket)
		if err != nil {
			return err
		}
		for i := range convs {
			enc, err := json.Marshal(&convs[i])
			if err != nil {
				return errors.Wrapf(err, "encode conversation %s", convs[i].ID)
			}
			if err := bk.Put([]byte(convs[i].ID), enc); err != nil {
				return err
			}
		}
		return nil
	})
	return errors.Wrap(err, "save conversations")
}

func (b *Bolt) Clear() error {
	return b.SaveAll(nil)
}

func (b *Bolt) Stats() (Stats, error) {
	st := Stats{Backend: "bolt", Path: b.path}
	convs, err := b.LoadAll()
	if err != nil {
		return st, err
	}
	st.Conversations = len(convs)
	for _, c := range convs {
		for _, p := range c.Pairs {
			st.Messages += 1 + len(p.Answers)
		}
	}
	return st, nil
}
