package stl

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/route-sculpture/internal/fsutil"
	"github.com/banshee-data/route-sculpture/internal/httputil"
	"github.com/banshee-data/route-sculpture/internal/monitoring"
	"github.com/banshee-data/route-sculpture/internal/security"
	"github.com/banshee-data/route-sculpture/internal/timeutil"
)

// ErrDownloadNotFound is returned for unknown or revoked tokens.
var ErrDownloadNotFound = errors.New("download not found")

// ContentType is the MIME type served for STL files.
const ContentType = "model/stl"

// Download is a published export, retrievable until revoked.
type Download struct {
	Token    string    `json:"token"`
	Filename string    `json:"filename"`
	Size     int64     `json:"size"`
	Created  time.Time `json:"created"`
	URL      string    `json:"url"`

	path  string
	owner *Downloads
}

// Revoke releases the download. Revoking again is a no-op.
func (d *Download) Revoke() error {
	return d.owner.Revoke(d.Token)
}

// Downloads holds exported files under dir until each is fetched, revoked
// or expired. The owner must Close it to release everything still published.
type Downloads struct {
	fs     fsutil.FileSystem
	dir    string
	prefix string

	mu    sync.Mutex
	items map[string]*Download
	// orphans are files whose removal failed; Sweep and Close retry them.
	orphans map[string]string
	clock   timeutil.Clock
}

// NewDownloads stores files under dir on fsys. URLs are urlPrefix + token.
func NewDownloads(fsys fsutil.FileSystem, dir, urlPrefix string) *Downloads {
	return &Downloads{
		fs:      fsys,
		dir:     dir,
		prefix:  urlPrefix,
		items:   make(map[string]*Download),
		orphans: make(map[string]string),
		clock:   timeutil.RealClock{},
	}
}

// SetClock replaces the clock used to stamp and expire downloads.
func (d *Downloads) SetClock(c timeutil.Clock) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.clock = c
}

// Publish stores a successful export and returns its handle.
func (d *Downloads) Publish(res Result) (*Download, error) {
	if !res.Success {
		return nil, fmt.Errorf("cannot publish failed export: %s", res.Error)
	}
	token := uuid.NewString()
	filename := security.SanitizeFilename(res.Filename)
	path, err := security.JoinWithin(d.dir, token+"-"+filename)
	if err != nil {
		return nil, err
	}
	if err := fsutil.WriteFileAtomic(d.fs, path, res.Data, 0o644); err != nil {
		return nil, err
	}

	d.mu.Lock()
	dl := &Download{
		Token:    token,
		Filename: filename,
		Size:     int64(len(res.Data)),
		Created:  d.clock.Now().UTC(),
		URL:      d.prefix + token,
		path:     path,
		owner:    d,
	}
	d.items[token] = dl
	d.mu.Unlock()
	monitoring.Logf("stl: published %s as %s (%d bytes)", filename, token, dl.Size)
	return dl, nil
}

// Open returns the download and its bytes without consuming it.
func (d *Downloads) Open(token string) (*Download, []byte, error) {
	d.mu.Lock()
	dl, ok := d.items[token]
	d.mu.Unlock()
	if !ok {
		return nil, nil, ErrDownloadNotFound
	}
	data, err := d.fs.ReadFile(dl.path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", dl.Filename, err)
	}
	return dl, data, nil
}

// claim takes token out of the live set. Only one caller can claim a token.
func (d *Downloads) claim(token string) (*Download, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	dl, ok := d.items[token]
	delete(d.items, token)
	return dl, ok
}

// discard removes the file of a claimed download. A failed removal is kept
// as an orphan for the next Sweep or Close.
func (d *Downloads) discard(token, path string) error {
	if err := d.fs.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		d.mu.Lock()
		d.orphans[token] = path
		d.mu.Unlock()
		return fmt.Errorf("revoke %s: %w", token, err)
	}
	monitoring.Logf("stl: revoked %s", token)
	return nil
}

// Revoke removes the file behind token. Unknown tokens are ignored.
func (d *Downloads) Revoke(token string) error {
	dl, ok := d.claim(token)
	if !ok {
		return nil
	}
	return d.discard(token, dl.path)
}

// Len is the number of live downloads.
func (d *Downloads) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}

// release claims every download selected by expired plus all orphans and
// removes their files.
func (d *Downloads) release(expired func(*Download) bool) error {
	d.mu.Lock()
	paths := d.orphans
	d.orphans = make(map[string]string)
	for token, dl := range d.items {
		if expired(dl) {
			paths[token] = dl.path
			delete(d.items, token)
		}
	}
	d.mu.Unlock()

	var errs []error
	for token, path := range paths {
		errs = append(errs, d.discard(token, path))
	}
	return errors.Join(errs...)
}

// Sweep revokes downloads older than maxAge and retries failed removals.
func (d *Downloads) Sweep(maxAge time.Duration) error {
	d.mu.Lock()
	clock := d.clock
	d.mu.Unlock()
	return d.release(func(dl *Download) bool {
		return clock.Since(dl.Created) > maxAge
	})
}

// RunSweeper calls Sweep every interval until ctx is done.
func (d *Downloads) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.Sweep(maxAge); err != nil {
				monitoring.Logf("stl: sweep: %v", err)
			}
		}
	}
}

// Close revokes every live download.
func (d *Downloads) Close() error {
	return d.release(func(*Download) bool { return true })
}

// ServeHTTP sends GET {prefix}{token} as an attachment once, then revokes it.
func (d *Downloads) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		httputil.MethodNotAllowed(w)
		return
	}
	token := strings.TrimPrefix(r.URL.Path, d.prefix)
	dl, ok := d.claim(token)
	if !ok {
		httputil.NotFound(w, "download not found or already used")
		return
	}
	data, err := d.fs.ReadFile(dl.path)
	if err == nil {
		httputil.WriteAttachment(w, dl.Filename, ContentType, data)
	} else {
		httputil.InternalServerError(w, fmt.Sprintf("read %s: %v", dl.Filename, err))
	}
	if err := d.discard(token, dl.path); err != nil {
		monitoring.Logf("stl: %v", err)
	}
}
