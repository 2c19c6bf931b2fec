// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package store

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/walteh/shuttle/pkg/config"
	"gitlab.com/tozd/go/errors"
)

// 📄 FileEntry describes one non-directory entry in a remote listing
type FileEntry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// 📂 DirectoryListing maps filename to entry for one remote path.
// It is rebuilt on every request and never cached.
type DirectoryListing = map[string]FileEntry

// 🔌 Lister is the listing half of the client, split out so the
// transfer and monitor packages can be tested against a mock.
type Lister interface {
	ListDirectory(ctx context.Context, path string) (DirectoryListing, error)
}

// 🔌 Store is the full remote store surface consumed by the orchestrator
type Store interface {
	Lister
	Copy(ctx context.Context, srcDir, dstDir string, names []string) error
	Delete(ctx context.Context, dir string, names []string) error
}

// 🎯 Client talks to an Alist-style remote store API. The only state it
// owns is the Authorization header; everything else is per-call.
type Client struct {
	baseURL string
	token   string
	args    config.StoreArgs
	http    *http.Client
}

var _ Store = (*Client)(nil)

// 🏭 New creates a client. The token is either taken from the config or
// established later by Login.
func New(args config.StoreArgs) *Client {
	return &Client{
		baseURL: strings.TrimRight(args.URL, "/"),
		token:   args.Token,
		args:    args,
		// The remote copies can take a while server-side, but every call we
		// make only acknowledges a request, so a flat timeout is safe.
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

// 📨 envelope is the common response wrapper of the store API
type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// 🔑 Login exchanges username/password for a token. A failure here is
// fatal to the caller: without a token nothing else can proceed.
func (c *Client) Login(ctx context.Context) error {
	if c.token != "" {
		return nil
	}
	if c.args.Username == "" || c.args.Password == "" {
		return errors.New("no token configured and username or password is empty")
	}

	body := map[string]string{
		"username": c.args.Username,
		"password": c.args.Password,
	}
	env, err := c.post(ctx, "/api/auth/login", body)
	if err != nil {
		return errors.Errorf("logging in: %w", err)
	}
	if env.Code != http.StatusOK {
		return errors.Errorf("login rejected: %s", env.Message)
	}

	var data struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		return errors.Errorf("decoding login response: %w", err)
	}
	if data.Token == "" {
		return errors.New("login succeeded but response carried no token")
	}

	c.token = data.Token
	zerolog.Ctx(ctx).Info().Msg("logged in to remote store")
	return nil
}

// 📂 ListDirectory requests a full force-refreshed listing of path and
// returns only the non-directory entries keyed by name.
//
// A transport-level failure is returned as an error so the caller can
// apply its own backoff. An application-level failure (non-2xx status,
// unexpected body) is logged and degrades to an empty listing: listings
// are re-polled, so "no files visible right now" is the right reading.
func (c *Client) ListDirectory(ctx context.Context, path string) (DirectoryListing, error) {
	logger := zerolog.Ctx(ctx)

	body := map[string]any{
		"path":     path,
		"password": "",
		"page":     1,
		"per_page": 0,
		"refresh":  true,
	}
	env, err := c.post(ctx, "/api/fs/list", body)
	if err != nil {
		if isStatusError(err) {
			logger.Error().Err(err).Str("path", path).Msg("listing directory failed")
			return DirectoryListing{}, nil
		}
		return nil, errors.Errorf("listing %s: %w", path, err)
	}
	if env.Code != http.StatusOK {
		logger.Error().Int("code", env.Code).Str("message", env.Message).Str("path", path).Msg("listing directory rejected")
		return DirectoryListing{}, nil
	}

	var data struct {
		Content []struct {
			Name     string    `json:"name"`
			Size     int64     `json:"size"`
			IsDir    bool      `json:"is_dir"`
			Modified time.Time `json:"modified"`
		} `json:"content"`
	}
	if err := json.Unmarshal(env.Data, &data); err != nil {
		logger.Error().Err(err).Str("path", path).Msg("decoding directory listing")
		return DirectoryListing{}, nil
	}

	listing := make(DirectoryListing, len(data.Content))
	for _, item := range data.Content {
		if item.IsDir {
			continue
		}
		listing[item.Name] = FileEntry{
			Name:     item.Name,
			Size:     item.Size,
			Modified: item.Modified,
		}
	}
	return listing, nil
}

// 📋 Copy asks the store to copy names from srcDir to dstDir. The store
// performs the copy asynchronously: a nil error means the request was
// accepted, not that the copy finished. Completion is confirmed by
// re-listing the destination.
func (c *Client) Copy(ctx context.Context, srcDir, dstDir string, names []string) error {
	body := map[string]any{
		"src_dir": srcDir,
		"dst_dir": dstDir,
		"names":   names,
	}
	env, err := c.post(ctx, "/api/fs/copy", body)
	if err != nil {
		return errors.Errorf("requesting copy: %w", err)
	}
	if env.Code != http.StatusOK {
		return errors.Errorf("copy rejected: %s", env.Message)
	}
	return nil
}

// 🗑️ Delete asks the store to remove names from dir. Asynchronous in the
// same way as Copy; absence must be confirmed by re-listing.
func (c *Client) Delete(ctx context.Context, dir string, names []string) error {
	body := map[string]any{
		"dir":   dir,
		"names": names,
	}
	env, err := c.post(ctx, "/api/fs/remove", body)
	if err != nil {
		return errors.Errorf("requesting delete: %w", err)
	}
	if env.Code != http.StatusOK {
		return errors.Errorf("delete rejected: %s", env.Message)
	}
	return nil
}

// 🚨 statusError marks a response that came back over the wire but with a
// non-2xx HTTP status, so callers can tell it apart from transport failure.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return "unexpected status " + http.StatusText(e.status) + ": " + e.body
}

func isStatusError(err error) bool {
	var se *statusError
	return errors.As(err, &se)
}

// 📮 post issues one JSON request and decodes the response envelope
func (c *Client) post(ctx context.Context, apiPath string, body any) (*envelope, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Errorf("encoding request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+apiPath, bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Errorf("reading response body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.WithStack(&statusError{status: resp.StatusCode, body: strings.TrimSpace(string(raw))})
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, errors.Errorf("decoding response envelope: %w", err)
	}
	return &env, nil
}
