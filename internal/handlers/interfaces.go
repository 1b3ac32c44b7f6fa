package handlers

import (
	"openboard/internal/client"
	"openboard/internal/files"
)

// Gateway defines the broadcast operations the processor needs.
type Gateway interface {
	SendAll(roomID int64, action string, payload map[string]any)
	SendOthers(roomID int64, action string, payload map[string]any, excludeUID string)
	SendTo(c *client.Client, action string, payload map[string]any)
}

// FileStore is the file-storage collaborator: lookups for attachment
// resolution and create/read for board export and import.
type FileStore interface {
	Get(id int64) (*files.Item, error)
	Create(item *files.Item, contents []byte) (*files.Item, error)
	ReadFile(item *files.Item) ([]byte, error)
	Exists(item *files.Item) bool
}

// URLSigner issues per-session file URLs for direct responses (download).
type URLSigner interface {
	SignURL(fileID int64, roomUID, objectUID, clientUID string) (string, error)
}
