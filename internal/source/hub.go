package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sentinel-go/internal/sentinel"
)

// DefaultHubEndpoint is the public Hugging Face Hub.
const DefaultHubEndpoint = "https://huggingface.co"

// HubProvider enumerates and downloads files from a Hugging Face model
// repository over the Hub HTTP API.
type HubProvider struct {
	endpoint string
	token    string
	client   *http.Client

	// Repository info fetched by Resolve, keyed by "{id}@{revision}", so
	// ListFiles does not hit the API a second time within a session.
	info map[string]*repoInfo
}

type repoInfo struct {
	SHA      string `json:"sha"`
	Siblings []struct {
		RFileName string `json:"rfilename"`
	} `json:"siblings"`
}

// NewHubProvider creates a provider for hosted repositories. endpoint may be
// empty for the public Hub; token may be empty for public repositories.
func NewHubProvider(endpoint, token string) *HubProvider {
	if endpoint == "" {
		endpoint = DefaultHubEndpoint
	}
	return &HubProvider{
		endpoint: endpoint,
		token:    token,
		client:   &http.Client{Timeout: 60 * time.Second},
		info:     make(map[string]*repoInfo),
	}
}

var _ sentinel.SourceProvider = (*HubProvider)(nil)

// Resolve fills in the default revision, fetches the repository info for the
// named revision, and returns the commit it currently points at.
func (p *HubProvider) Resolve(ctx context.Context, target sentinel.TargetRecord) (sentinel.TargetRecord, string, error) {
	if target.Revision == "" {
		target.Revision = sentinel.DefaultRevision
	}

	info, err := p.repoInfo(ctx, target)
	if err != nil {
		return target, "", err
	}

	return target, info.SHA, nil
}

// ListFiles returns the relative paths of every file in the repository at
// the target revision.
func (p *HubProvider) ListFiles(ctx context.Context, target sentinel.TargetRecord) ([]string, error) {
	info, err := p.repoInfo(ctx, target)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(info.Siblings))
	for _, s := range info.Siblings {
		paths = append(paths, s.RFileName)
	}
	return paths, nil
}

// ReadFile downloads one file's content at the target revision.
func (p *HubProvider) ReadFile(ctx context.Context, target sentinel.TargetRecord, path string) ([]byte, error) {
	u := fmt.Sprintf("%s/%s/resolve/%s/%s",
		p.endpoint, target.ID, url.PathEscape(target.Revision), escapePath(path))

	body, err := p.get(ctx, target, u)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, &sentinel.ReadFailureError{Target: target.DisplayName(), Path: path, Err: err}
	}
	return data, nil
}

// escapePath escapes each segment of a repository file path, keeping the
// slashes between them. File names with spaces, '#', or '?' would otherwise
// produce a wrong URL.
func escapePath(p string) string {
	segs := strings.Split(p, "/")
	for i, s := range segs {
		segs[i] = url.PathEscape(s)
	}
	return strings.Join(segs, "/")
}

// repoInfo returns the cached repository info for a target, fetching it on
// first use.
func (p *HubProvider) repoInfo(ctx context.Context, target sentinel.TargetRecord) (*repoInfo, error) {
	key := target.ID + "@" + target.Revision
	if info, ok := p.info[key]; ok {
		return info, nil
	}

	u := fmt.Sprintf("%s/api/models/%s/revision/%s",
		p.endpoint, target.ID, url.PathEscape(target.Revision))

	body, err := p.get(ctx, target, u)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var info repoInfo
	if err := json.NewDecoder(body).Decode(&info); err != nil {
		return nil, &sentinel.TransportError{Target: target.DisplayName(), Op: "decoding repository info", Err: err}
	}

	p.info[key] = &info
	return &info, nil
}

// get issues an authenticated GET and returns the response body on 200.
// 404 maps to ErrNotFound; everything else is a TransportError.
func (p *HubProvider) get(ctx context.Context, target sentinel.TargetRecord, u string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &sentinel.TransportError{Target: target.DisplayName(), Op: "building request", Err: err}
	}
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &sentinel.TransportError{Target: target.DisplayName(), Op: "GET " + u, Err: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, fmt.Errorf("%s: %w", u, sentinel.ErrNotFound)
	default:
		resp.Body.Close()
		return nil, &sentinel.TransportError{
			Target: target.DisplayName(),
			Op:     "GET " + u,
			Err:    fmt.Errorf("unexpected status %s", resp.Status),
		}
	}
}
