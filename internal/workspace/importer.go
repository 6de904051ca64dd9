package workspace

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/Project-Sylos/Tabula/internal/metrics"
	"github.com/Project-Sylos/Tabula/internal/projection"
	"github.com/Project-Sylos/Tabula/internal/tree"
	"github.com/Project-Sylos/Tabula/internal/types"
)

// Import sources
const (
	SourceAPI     = "api"
	SourceURL     = "url"
	SourceWatcher = "watcher"
	SourceCLI     = "cli"
)

// downloadTimeFormat is appended to the name of fetched documents
const downloadTimeFormat = "2006-01-02 15:04:05"

// ImportCSV stores text as a new file at the root. The text must parse.
func (c *Controller) ImportCSV(ctx context.Context, source, name, text string) (node *types.Node, err error) {
	defer func() { metrics.RecordImport(source, err) }()

	if c.imp.MaxBytes > 0 && int64(len(text)) > c.imp.MaxBytes {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, len(text))
	}
	if _, err := projection.Parse(text); err != nil {
		return nil, fmt.Errorf("failed to import %q: %w", name, err)
	}
	if strings.TrimSpace(name) == "" {
		name = c.editor.FileName
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	forest, content, err := c.stores.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load workspace: %w", err)
	}

	node = &types.Node{ID: c.newID(), Name: name, Type: types.NodeTypeFile, Children: []*types.Node{}}
	content = content.Clone()
	content[node.ID] = types.ContentEntry{Content: text}

	if err := c.commitLocked(ctx, "import", tree.Insert(forest, "", node), content); err != nil {
		return nil, err
	}
	c.logger.Info("csv imported", zap.String("source", source), zap.String("id", node.ID), zap.String("name", name))
	return node, nil
}

// FetchCSV downloads a remote document and imports it. Responses whose media
// type is not an accepted CSV type are logged and dropped without touching
// the stores.
func (c *Controller) FetchCSV(ctx context.Context, url string) (*types.Node, error) {
	text, err := c.fetch(ctx, url)
	if err != nil {
		metrics.RecordImport(SourceURL, err)
		c.logger.Warn("csv fetch aborted", zap.String("url", url), zap.Error(err))
		return nil, err
	}
	name := "Downloaded CSV " + c.now().Format(downloadTimeFormat)
	return c.ImportCSV(ctx, SourceURL, name, text)
}

func (c *Controller) fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	mediaType, _, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil || !c.acceptedType(mediaType) {
		return "", fmt.Errorf("%w: %q", ErrContentType, resp.Header.Get("Content-Type"))
	}

	limit := c.imp.MaxBytes
	if limit <= 0 {
		limit = 10 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrFetch, err)
	}
	if int64(len(body)) > limit {
		return "", fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}
	return string(body), nil
}

func (c *Controller) acceptedType(mediaType string) bool {
	accepted := c.imp.ContentTypes
	if len(accepted) == 0 {
		accepted = []string{"text/csv"}
	}
	for _, t := range accepted {
		if strings.EqualFold(t, mediaType) {
			return true
		}
	}
	return false
}

// Attach builds the message that hands a file's CSV to a page upload field
func (c *Controller) Attach(ctx context.Context, id string) (types.AttachPayload, error) {
	c.mu.Lock()
	id = c.resolve(id)
	c.mu.Unlock()

	node, text, err := c.Content(ctx, id)
	if err != nil {
		return types.AttachPayload{}, err
	}
	return types.AttachPayload{
		Type: types.AttachMessageType,
		Name: node.Name,
		CSV:  projection.TrimTrailingSeparators(text),
	}, nil
}
