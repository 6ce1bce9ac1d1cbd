package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"path"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/gebo/internal/storage"
)

const maxImageSize = 10 << 20 // 10 MB

var allowedImageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true,
	".gif": true, ".webp": true, ".svg": true,
}

type saveImageResult struct {
	Success  bool   `json:"success"`
	Filename string `json:"filename,omitempty"`
	Path     string `json:"path,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *Server) saveImage(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	encoded, err := req.RequireString("data")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	filename := ""
	if v, fErr := req.RequireString("filename"); fErr == nil {
		filename = v
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return imageFailure("data is not valid base64"), nil
	}
	if len(data) == 0 {
		return imageFailure("image is empty"), nil
	}
	if len(data) > maxImageSize {
		return imageFailure("image exceeds the size limit"), nil
	}

	if filename == "" {
		filename = storage.GeneratedImageName(".png")
	} else {
		ext := strings.ToLower(filepath.Ext(filename))
		if !allowedImageExtensions[ext] {
			return imageFailure("unsupported image extension: " + ext), nil
		}
		filename = storage.UniqueImageName(s.fs, filename)
	}

	if err := s.fs.WriteImage(filename, data); err != nil {
		return imageFailure(err.Error()), nil
	}

	out, _ := json.Marshal(saveImageResult{
		Success:  true,
		Filename: filename,
		Path:     path.Join("..", "data", "images", filename),
	})
	return mcp.NewToolResultText(string(out)), nil
}

func imageFailure(msg string) *mcp.CallToolResult {
	out, _ := json.Marshal(saveImageResult{Success: false, Error: msg})
	return mcp.NewToolResultText(string(out))
}
