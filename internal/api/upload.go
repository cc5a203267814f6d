package api

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
)

type UploadFileOptions struct {
	SessionID string
	Category  string
	// Path is the local file; it is sent under its base name.
	Path string
	// Progress receives cumulative sent bytes against the file size.
	Progress func(sent, total int64)
}

// UploadFile streams one file into an upload session as multipart form
// data. The body is piped, not buffered, so large clips do not sit in
// memory.
func (c *Client) UploadFile(ctx context.Context, opts UploadFileOptions) error {
	if opts.SessionID == "" {
		return fmt.Errorf("upload: session id is required")
	}
	if opts.Category == "" {
		return fmt.Errorf("upload: category is required")
	}

	f, err := os.Open(opts.Path)
	if err != nil {
		return fmt.Errorf("open upload source: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat upload source: %w", err)
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		pw.CloseWithError(writeUploadForm(mw, opts, f, info.Size()))
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", pr)
	if err != nil {
		return fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.logger.Debug("uploading file", "session_id", opts.SessionID, "category", opts.Category, "file", filepath.Base(opts.Path), "bytes", info.Size())
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s: %w", filepath.Base(opts.Path), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return responseError(resp)
	}
	io.Copy(io.Discard, resp.Body)
	return nil
}

func writeUploadForm(mw *multipart.Writer, opts UploadFileOptions, f *os.File, size int64) error {
	if err := mw.WriteField("session_id", opts.SessionID); err != nil {
		return err
	}
	if err := mw.WriteField("category", opts.Category); err != nil {
		return err
	}
	part, err := mw.CreateFormFile("files", filepath.Base(opts.Path))
	if err != nil {
		return err
	}
	var reader io.Reader = f
	if opts.Progress != nil {
		reader = &progressReader{r: f, total: size, report: opts.Progress}
	}
	if _, err := io.Copy(part, reader); err != nil {
		return err
	}
	return mw.Close()
}

type progressReader struct {
	r      io.Reader
	total  int64
	sent   int64
	report func(sent, total int64)
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if n > 0 {
		p.sent += int64(n)
		p.report(p.sent, p.total)
	}
	return n, err
}
