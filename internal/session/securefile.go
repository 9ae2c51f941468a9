package session

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/scrypt"
)

const (
	vaultFile  = "vault.bin"
	secretFile = "install.id"

	vaultMagic   = "MCSV"
	vaultVersion = 1

	saltLen = 16

	// scrypt parameters; interactive-strength, the vault is rewritten on
	// every session change.
	scryptN = 1 << 15
	scryptR = 8
	scryptP = 1
	keyLen  = 32
)

// FileStore is the persistent Store: a single AES-256-GCM-encrypted
// document on disk, keyed by an scrypt derivation of a per-install
// secret. Reads always go to disk, so a vault rewritten by another
// process is observed on the next Get. Writes replace the whole document
// atomically (temp file + rename).
type FileStore struct {
	mu     sync.Mutex
	path   string
	secret []byte
	log    zerolog.Logger
}

// OpenFileStore opens (or initializes) the vault under dir. The
// per-install secret is created on first use and never leaves the
// directory; losing it orphans the vault, which simply means the user
// signs in again.
func OpenFileStore(dir string, log zerolog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating session dir: %w", err)
	}

	secretPath := filepath.Join(dir, secretFile)
	secret, err := os.ReadFile(secretPath)
	if os.IsNotExist(err) {
		secret = []byte(uuid.NewString())
		if err := os.WriteFile(secretPath, secret, 0o600); err != nil {
			return nil, fmt.Errorf("writing install secret: %w", err)
		}
		log.Debug().Str("dir", dir).Msg("initialized install secret")
	} else if err != nil {
		return nil, fmt.Errorf("reading install secret: %w", err)
	}

	return &FileStore{
		path:   filepath.Join(dir, vaultFile),
		secret: []byte(strings.TrimSpace(string(secret))),
		log:    log,
	}, nil
}

// Path returns the vault file location, for watchers.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, _, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := doc[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (f *FileStore) Set(ctx context.Context, key, value string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, salt, err := f.load()
	if err != nil {
		return err
	}
	doc[key] = value
	return f.save(doc, salt)
}

func (f *FileStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	doc, salt, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := doc[key]; !ok {
		// Deleting an absent key is not an error.
		return nil
	}
	delete(doc, key)
	return f.save(doc, salt)
}

// load reads and decrypts the vault. A missing vault is an empty
// document, not an error. The salt is returned so save can keep the
// derived key stable across rewrites.
func (f *FileStore) load() (map[string]string, []byte, error) {
	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading vault: %w", err)
	}

	header := len(vaultMagic) + 1 + saltLen
	if len(raw) < header || string(raw[:len(vaultMagic)]) != vaultMagic {
		return nil, nil, fmt.Errorf("vault at %s is not a Medicure vault", f.path)
	}
	if raw[len(vaultMagic)] != vaultVersion {
		return nil, nil, fmt.Errorf("unsupported vault version %d", raw[len(vaultMagic)])
	}
	salt := raw[len(vaultMagic)+1 : header]

	gcm, err := f.sealer(salt)
	if err != nil {
		return nil, nil, err
	}
	if len(raw) < header+gcm.NonceSize() {
		return nil, nil, fmt.Errorf("vault at %s is truncated", f.path)
	}
	nonce := raw[header : header+gcm.NonceSize()]
	plain, err := gcm.Open(nil, nonce, raw[header+gcm.NonceSize():], nil)
	if err != nil {
		return nil, nil, fmt.Errorf("decrypting vault: %w", err)
	}

	doc := map[string]string{}
	if err := json.Unmarshal(plain, &doc); err != nil {
		return nil, nil, fmt.Errorf("decoding vault: %w", err)
	}
	return doc, salt, nil
}

// save encrypts and atomically replaces the vault file.
func (f *FileStore) save(doc map[string]string, salt []byte) error {
	if salt == nil {
		salt = make([]byte, saltLen)
		if _, err := rand.Read(salt); err != nil {
			return fmt.Errorf("generating vault salt: %w", err)
		}
	}

	gcm, err := f.sealer(salt)
	if err != nil {
		return err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return fmt.Errorf("generating nonce: %w", err)
	}

	plain, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding vault: %w", err)
	}

	out := make([]byte, 0, len(vaultMagic)+1+len(salt)+len(nonce)+len(plain)+gcm.Overhead())
	out = append(out, vaultMagic...)
	out = append(out, vaultVersion)
	out = append(out, salt...)
	out = append(out, nonce...)
	out = gcm.Seal(out, nonce, plain, nil)

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o600); err != nil {
		return fmt.Errorf("writing vault: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replacing vault: %w", err)
	}
	return nil
}

func (f *FileStore) sealer(salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(f.secret, salt, scryptN, scryptR, scryptP, keyLen)
	if err != nil {
		return nil, fmt.Errorf("deriving vault key: %w", err)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("initializing vault cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("initializing vault cipher: %w", err)
	}
	return gcm, nil
}
