package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/JonMunkholm/DataSweeper/internal/core"
	"github.com/JonMunkholm/DataSweeper/internal/web/templates"
)

// multipartOverhead is allowed on top of the file bytes for part headers and
// form fields.
const multipartOverhead = 1 << 20

// handleUpload ingests every file of a multipart upload into the session and
// shows the dashboard with one notice per file.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	files, skipped, err := s.readUploads(w, r)
	if err != nil {
		respondError(w, r, err, statusFor(err))
		return
	}

	results := s.service.Ingest(requestContext(r), session(r), files)
	notices := make([]templates.Notice, 0, len(results)+1)
	for _, res := range results {
		notices = append(notices, ingestNotice(res))
	}
	if skipped > 0 {
		notices = append(notices, templates.Warning(fmt.Sprintf(
			"Only the first %d files were processed; %d more were skipped.", s.cfg.Upload.MaxFiles, skipped)))
	}
	s.renderDashboard(w, r, notices)
}

// readUploads streams the "files" parts of the request body. Each file is
// read up to one byte past the size limit so the service can reject it
// without buffering the rest. Files past the count limit are skipped.
func (s *Server) readUploads(w http.ResponseWriter, r *http.Request) ([]core.UploadedFile, int, error) {
	maxSize := s.cfg.Upload.MaxFileSize.Int64()
	maxFiles := s.cfg.Upload.MaxFiles
	r.Body = http.MaxBytesReader(w, r.Body, maxSize*int64(maxFiles)+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, 0, fmt.Errorf("read upload: %v: %w", err, core.ErrNoFile)
	}

	var (
		files   []core.UploadedFile
		skipped int
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, uploadError(err)
		}
		if part.FormName() != "files" || part.FileName() == "" {
			part.Close()
			continue
		}
		if len(files) == maxFiles {
			skipped++
			part.Close()
			continue
		}

		data, err := io.ReadAll(io.LimitReader(part, maxSize+1))
		part.Close()
		if err != nil {
			return nil, 0, uploadError(err)
		}
		files = append(files, core.NewUploadedFile(part.FileName(), data))
	}

	if len(files) == 0 {
		return nil, 0, core.ErrNoFile
	}
	return files, skipped, nil
}

func uploadError(err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		return fmt.Errorf("upload exceeds %d bytes: %w", tooBig.Limit, core.ErrFileTooLarge)
	}
	return fmt.Errorf("read upload: %w", err)
}

func ingestNotice(res core.IngestResult) templates.Notice {
	switch {
	case res.Err != nil:
		return templates.FromError(res.Name, res.Err)
	case res.ContentChanged:
		return templates.Warning(res.Name + " is already loaded. The new upload differs, but the current table is kept.")
	case res.Cached:
		return templates.Info(res.Name + " is already loaded.")
	default:
		return templates.Success(fmt.Sprintf("Loaded %s: %d rows, %d columns.",
			res.Name, res.Entry.Table.NumRows(), res.Entry.Table.NumCols()))
	}
}
