package webiny

import (
	"context"
	"fmt"
	"regexp"
)

var reFileID = regexp.MustCompile(`/files/([^/]+)/`)

// FileID extracts the identifier from a file URL of the form
// .../files/{fileId}/{filename}.
func FileID(url string) (string, bool) {
	m := reFileID.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

type getFileData struct {
	FileManager struct {
		GetFile struct {
			Data *File `json:"data"`
		} `json:"getFile"`
	} `json:"fileManager"`
}

// GetFile returns file manager metadata for id, or nil when no file matches.
func (c *Client) GetFile(ctx context.Context, id string) (*File, error) {
	var out getFileData
	if err := c.RequestFileManager(ctx, GetFileQuery, map[string]interface{}{"id": id}, &out); err != nil {
		return nil, fmt.Errorf("webiny: get file %s: %w", id, err)
	}
	return out.FileManager.GetFile.Data, nil
}
