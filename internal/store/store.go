// package store implements the persistent credential store.
//
// Tokens and transient PKCE artifacts live in a single bbolt bucket keyed
// by fixed names. The store is the sole owner of credential state: the
// authenticator and API client read and write through it on every
// operation and never hold a copy that can diverge.
package store

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

const (
	// storeDirPerm is the permission mode for the store's parent directory.
	storeDirPerm = fs.FileMode(0o700)

	// storeFilePerm is the permission mode for the database file.
	storeFilePerm = fs.FileMode(0o600)

	// storeOpenTimeout is the maximum time to wait for the bolt file lock.
	storeOpenTimeout = 5 * time.Second
)

// Credential keys. These are the only keys ClearAll touches.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeyTokenExpiry  = "token_expiry"
	KeyCodeVerifier = "code_verifier"
	KeyPKCEState    = "pkce_state"
)

var credentialsBucket = []byte("credentials")

func credentialKeys() []string {
	return []string{KeyAccessToken, KeyRefreshToken, KeyTokenExpiry, KeyCodeVerifier, KeyPKCEState}
}

// Store wraps a bbolt database holding credential state.
type Store struct {
	db *bolt.DB
}

// Open opens the credential database at the given path, creating the file
// and its parent directory if they do not exist.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), storeDirPerm); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := bolt.Open(path, storeFilePerm, &bolt.Options{Timeout: storeOpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(credentialsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing credential store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key. Absence is not a fault: a
// missing key returns ("", nil).
func (s *Store) Get(key string) (string, error) {
	var value string
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(credentialsBucket).Get([]byte(key)); v != nil {
			value = string(v)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, overwriting any previous value.
func (s *Store) Set(key, value string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Put([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Delete removes key from the store. Deleting an absent key is a no-op.
func (s *Store) Delete(key string) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// ClearAll removes every credential and transient PKCE key. Idempotent
// and safe to call when nothing is stored.
func (s *Store) ClearAll() error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(credentialsBucket)
		for _, key := range credentialKeys() {
			if err := b.Delete([]byte(key)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	return nil
}

// AccessToken returns the stored access token, or "" if none is stored.
func (s *Store) AccessToken() (string, error) {
	return s.Get(KeyAccessToken)
}

// RefreshToken returns the stored refresh token, or "" if none is stored.
func (s *Store) RefreshToken() (string, error) {
	return s.Get(KeyRefreshToken)
}

// Expiry returns the stored token expiry. ok is false when no expiry is
// stored or the stored value does not parse.
func (s *Store) Expiry() (expiry time.Time, ok bool, err error) {
	raw, err := s.Get(KeyTokenExpiry)
	if err != nil || raw == "" {
		return time.Time{}, false, err
	}

	millis, perr := strconv.ParseInt(raw, 10, 64)
	if perr != nil {
		return time.Time{}, false, nil
	}
	return time.UnixMilli(millis), true, nil
}

// SetTokens stores a freshly issued access token with its expiry, and the
// refresh token when the service issued one. An empty refresh token leaves
// any previously stored refresh token in place (the service may omit it
// on rotation).
func (s *Store) SetTokens(access, refresh string, expiry time.Time) error {
	if err := s.Set(KeyAccessToken, access); err != nil {
		return err
	}
	if refresh != "" {
		if err := s.Set(KeyRefreshToken, refresh); err != nil {
			return err
		}
	}
	return s.Set(KeyTokenExpiry, strconv.FormatInt(expiry.UnixMilli(), 10))
}
