// Multipart upload calls for [Client]
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/gamescout/internal/models"
	"github.com/desertthunder/gamescout/internal/shared"
)

// progressReader reports how much of a known-size payload has been read.
type progressReader struct {
	r        io.Reader
	total    int64
	read     int64
	onChange func(percent int)
	last     int
}

func (p *progressReader) Read(buf []byte) (int, error) {
	n, err := p.r.Read(buf)
	p.read += int64(n)
	if p.onChange != nil && p.total > 0 {
		percent := int(p.read * 100 / p.total)
		if percent > 100 {
			percent = 100
		}
		if percent != p.last {
			p.last = percent
			p.onChange(percent)
		}
	}
	return n, err
}

// UploadFile submits a game binary plus metadata as one multipart request.
// The request body is piped so large files never buffer fully in memory.
// onProgress reports the percent of the local payload sent; storage-side
// progress is polled separately via [Client.UploadProgress].
func (c *Client) UploadFile(ctx context.Context, filePath string, meta models.GameUpload, uploadID string, onProgress func(percent int)) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("failed to open upload file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat upload file: %w", err)
	}

	if meta.Name == "" {
		base := filepath.Base(filePath)
		meta.Name = base[:len(base)-len(filepath.Ext(base))]
	}

	reader := &progressReader{r: file, total: info.Size(), onChange: onProgress, last: -1}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeFileForm(writer, meta, uploadID, filepath.Base(filePath), reader)
		if closeErr := writer.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()

	return c.doMultipart(ctx, "/upload/file", writer.FormDataContentType(), pr, nil)
}

// writeFileForm writes metadata fields, the optional cover image, and the
// game binary into one multipart form.
func writeFileForm(writer *multipart.Writer, meta models.GameUpload, uploadID, filename string, file io.Reader) error {
	if err := writeMetaFields(writer, meta, uploadID); err != nil {
		return err
	}

	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("failed to write file part: %w", err)
	}

	return nil
}

// UploadNetdisk submits a cloud-drive share link with metadata. No binary is
// sent; the server records the link and reports terminal progress quickly.
func (c *Client) UploadNetdisk(ctx context.Context, meta models.GameUpload, uploadID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if meta.NetdiskURL == "" {
		return fmt.Errorf("%w: netdisk share link is required", shared.ErrInvalidInput)
	}
	if meta.NetdiskType == "" {
		meta.NetdiskType = "quark"
	}

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeMetaFields(writer, meta, uploadID)
		if err == nil {
			err = writer.WriteField("netdisk_url", meta.NetdiskURL)
		}
		if err == nil {
			err = writer.WriteField("netdisk_type", meta.NetdiskType)
		}
		if closeErr := writer.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()

	return c.doMultipart(ctx, "/upload/netdisk", writer.FormDataContentType(), pr, nil)
}

// UploadImage submits a standalone image and returns its hosted URL.
func (c *Client) UploadImage(ctx context.Context, filePath string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait: %w", err)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image: %w", err)
	}
	defer file.Close()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		part, err := writer.CreateFormFile("file", filepath.Base(filePath))
		if err == nil {
			_, err = io.Copy(part, file)
		}
		if closeErr := writer.Close(); err == nil {
			err = closeErr
		}
		pw.CloseWithError(err)
	}()

	var result struct {
		URL string `json:"url"`
	}
	if err := c.doMultipart(ctx, "/upload/image", writer.FormDataContentType(), pr, &result); err != nil {
		return "", err
	}
	return result.URL, nil
}

// writeMetaFields writes the shared metadata fields of both upload forms.
func writeMetaFields(writer *multipart.Writer, meta models.GameUpload, uploadID string) error {
	fields := map[string]string{
		"name":      meta.Name,
		"upload_id": uploadID,
	}
	if meta.NameEN != "" {
		fields["name_en"] = meta.NameEN
	}
	if meta.Description != "" {
		fields["description"] = meta.Description
	}
	if meta.Category != "" {
		fields["category"] = meta.Category
	}
	if meta.FileSize > 0 {
		fields["file_size"] = strconv.FormatInt(meta.FileSize, 10)
	}

	for field, value := range fields {
		if err := writer.WriteField(field, value); err != nil {
			return fmt.Errorf("failed to write field %s: %w", field, err)
		}
	}

	if meta.CoverImage != "" {
		cover, err := os.Open(meta.CoverImage)
		if err != nil {
			return fmt.Errorf("failed to open cover image: %w", err)
		}
		defer cover.Close()

		part, err := writer.CreateFormFile("cover_image", filepath.Base(meta.CoverImage))
		if err != nil {
			return fmt.Errorf("failed to create cover part: %w", err)
		}
		if _, err := io.Copy(part, cover); err != nil {
			return fmt.Errorf("failed to write cover part: %w", err)
		}
	}

	return nil
}

// doMultipart posts a multipart body with the long upload timeout client and
// decodes the response into result when non-nil.
func (c *Client) doMultipart(ctx context.Context, endpoint, contentType string, body io.Reader, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.uploadClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUploadFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
