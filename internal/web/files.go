package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/koustreak/sharebox/internal/errs"
	"github.com/koustreak/sharebox/internal/logger"
)

// multipart parts beyond this are spooled to disk
const uploadMemory = 32 << 20

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	username := userFrom(ctx)

	keys, err := s.deps.Files.List(ctx)
	if err != nil {
		s.storeError(w, r, "list files", err)
		return
	}

	name, err := s.deps.Users.DisplayName(ctx, username)
	if err != nil {
		log := logger.FromContext(ctx)
		if errs.IsNotFound(err) {
			log.WarnWith("session user has no account", err, map[string]any{"username": username})
			s.deps.Sessions.Logout(w)
			redirectWithMessage(w, r, "/login", msgAccountMissing)
			return
		}
		log.ErrorWith("display name lookup failed", err, map[string]any{"username": username})
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	deleted, _ := strconv.ParseBool(r.URL.Query().Get("deleted"))
	s.render(w, r, "dashboard.html", pageData{
		Name:    capitalize(name),
		Files:   keys,
		Deleted: deleted,
	})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.deps.MaxUploadBytes)

	if err := r.ParseMultipartForm(uploadMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			http.Error(w, "file too large", http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, "invalid upload", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "no file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	key, err := s.deps.Files.Upload(r.Context(), hdr.Filename, file, hdr.Size, hdr.Header.Get("Content-Type"))
	if err != nil {
		if errs.IsInvalidInput(err) {
			http.Error(w, "invalid file name", http.StatusBadRequest)
			return
		}
		s.storeError(w, r, "upload file", err)
		return
	}

	s.render(w, r, "upload_success.html", pageData{Filename: key})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	key, ok := filenameParam(w, r)
	if !ok {
		return
	}

	u, err := s.deps.Files.DownloadURL(r.Context(), key)
	if err != nil {
		s.storeError(w, r, "presign download", err)
		return
	}

	s.render(w, r, "download_success.html", pageData{Filename: key, DownloadURL: u})
}

// handleDeletePage only asks for confirmation; nothing is removed until
// the form posts to /confirmdelete.
func (s *Server) handleDeletePage(w http.ResponseWriter, r *http.Request) {
	key, ok := filenameParam(w, r)
	if !ok {
		return
	}
	s.render(w, r, "delete_confirmation.html", pageData{Filename: key})
}

func (s *Server) handleConfirmDelete(w http.ResponseWriter, r *http.Request) {
	key, ok := filenameParam(w, r)
	if !ok {
		return
	}

	if err := s.deps.Files.Delete(r.Context(), key); err != nil {
		s.storeError(w, r, "delete file", err)
		return
	}

	http.Redirect(w, r, "/dashboard?deleted=true", http.StatusFound)
}

// filenameParam reads {filename}. chi matches against RawPath when the
// request has one, in which case the value is still escaped.
func filenameParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	key := chi.URLParam(r, "filename")
	var err error
	if r.URL.RawPath != "" {
		key, err = url.PathUnescape(key)
	}
	if err != nil || key == "" {
		http.Error(w, "invalid file name", http.StatusBadRequest)
		return "", false
	}
	return key, true
}

// storeError answers an object-store failure with a 500. The cause is
// logged, never shown.
func (s *Server) storeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	logger.FromContext(r.Context()).ErrorWith("object store request failed", err, map[string]any{
		"op":   op,
		"kind": errs.KindOf(err).String(),
	})

	msg := "object store request failed"
	if errs.IsCredentialsUnavailable(err) {
		msg = "object store credentials not available"
	}
	http.Error(w, msg, http.StatusInternalServerError)
}
