package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrz1836/docsign/internal/document"
	"github.com/mrz1836/docsign/internal/domain"
	dserrors "github.com/mrz1836/docsign/internal/errors"
	"github.com/mrz1836/docsign/internal/keystore"
)

// documentResponse is the JSON shape of a stored document.
type documentResponse struct {
	Ref           string           `json:"ref"`
	Name          string           `json:"name"`
	Identity      string           `json:"identity"`
	Size          int64            `json:"size"`
	UploadedAt    time.Time        `json:"uploadedAt"`
	Signed        bool             `json:"signed"`
	Metadata      *domain.Metadata `json:"metadata,omitempty"`
	MetadataError string           `json:"metadataError,omitempty"`
}

func toDocument(rec *domain.DocumentRecord) documentResponse {
	out := documentResponse{
		Ref:        rec.Ref,
		Name:       rec.Name,
		Identity:   rec.Identity.String(),
		Size:       rec.Size,
		UploadedAt: rec.UploadedAt,
		Signed:     rec.Signed(),
	}
	if rec.Signed() {
		md := rec.Metadata()
		out.Metadata = &md
	}
	if rec.MetadataErr != nil {
		out.MetadataError = rec.MetadataErr.Error()
	}
	return out
}

// outcomeResponse is the JSON shape of a verification outcome.
type outcomeResponse struct {
	Ref string `json:"ref,omitempty"`
	domain.Outcome
	Retryable bool `json:"retryable,omitempty"`
}

// writeOutcome renders an outcome. A Malformed outcome caused by a retryable
// availability failure is served as 503 so clients know to try again.
func writeOutcome(c *gin.Context, ref string, o domain.Outcome) {
	resp := outcomeResponse{Ref: ref, Outcome: o, Retryable: dserrors.IsRetryable(o.Err)}
	status := http.StatusOK
	if resp.Retryable {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, resp)
}

type keyResponse struct {
	Identity    string    `json:"identity"`
	Algorithm   string    `json:"algorithm"`
	PublicKey   string    `json:"publicKey"`
	PEM         string    `json:"pem"`
	Fingerprint string    `json:"fingerprint"`
	CreatedAt   time.Time `json:"createdAt"`
	Created     bool      `json:"created,omitempty"`
}

func toKey(entry *keystore.Entry, created bool) keyResponse {
	return keyResponse{
		Identity:    entry.Identity.String(),
		Algorithm:   entry.Algorithm,
		PublicKey:   entry.PublicKey.Base64(),
		PEM:         document.PublicKeyPEM(entry.PublicKey),
		Fingerprint: entry.PublicKey.Fingerprint(),
		CreatedAt:   entry.CreatedAt,
		Created:     created,
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// multipartOverhead is the body allowance beyond MaxUploadSize for boundaries and form fields.
const multipartOverhead = 64 << 10

// readFormFile reads the multipart "file" part, bounded by the upload limit.
func (s *Server) readFormFile(c *gin.Context) (name string, data []byte, err error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadSize+multipartOverhead)
	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return "", nil, fmt.Errorf("%w: request body exceeds %d bytes", dserrors.ErrContentTooLarge, tooLarge.Limit)
		}
		return "", nil, fmt.Errorf("%w: multipart field 'file' is required", dserrors.ErrEmptyValue)
	}
	if fh.Size > s.opts.MaxUploadSize {
		return "", nil, fmt.Errorf("%w: %d bytes exceeds %d", dserrors.ErrContentTooLarge, fh.Size, s.opts.MaxUploadSize)
	}
	f, err := fh.Open()
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", dserrors.ErrContentUnavailable, err)
	}
	defer func() { _ = f.Close() }()

	data, err = io.ReadAll(io.LimitReader(f, s.opts.MaxUploadSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", dserrors.ErrContentUnavailable, err)
	}
	if int64(len(data)) > s.opts.MaxUploadSize {
		return "", nil, fmt.Errorf("%w: exceeds %d bytes", dserrors.ErrContentTooLarge, s.opts.MaxUploadSize)
	}
	return fh.Filename, data, nil
}

func (s *Server) uploadDocument(c *gin.Context) {
	filename, data, err := s.readFormFile(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	name := c.PostForm("name")
	if name == "" {
		name = filename
	}
	unsigned, _ := strconv.ParseBool(c.DefaultPostForm("unsigned", "false"))

	rec, err := s.docs.Upload(c.Request.Context(), document.UploadRequest{
		Identity: domain.Identity(c.PostForm("identity")),
		Name:     name,
		Content:  data,
		Unsigned: unsigned,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Location", "/api/v1/documents/"+rec.Ref)
	c.JSON(http.StatusCreated, toDocument(rec))
}

func (s *Server) listDocuments(c *gin.Context) {
	recs, err := s.docs.List(c.Request.Context(), domain.Identity(c.Query("identity")))
	if err != nil {
		s.writeError(c, err)
		return
	}
	out := make([]documentResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, toDocument(rec))
	}
	c.JSON(http.StatusOK, gin.H{"documents": out})
}

func (s *Server) getDocument(c *gin.Context) {
	rec, err := s.docs.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDocument(rec))
}

func (s *Server) getContent(c *gin.Context) {
	ctx := c.Request.Context()
	ref := c.Param("ref")
	rec, err := s.docs.Get(ctx, ref)
	if err != nil {
		s.writeError(c, err)
		return
	}
	data, err := s.docs.Content(ctx, ref)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", rec.Name))
	c.Data(http.StatusOK, "application/octet-stream", data)
}

func (s *Server) verifyDocument(c *gin.Context) {
	ref := c.Param("ref")
	outcome, err := s.docs.VerifyRef(c.Request.Context(), ref)
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeOutcome(c, ref, outcome)
}

func (s *Server) verifyDetached(c *gin.Context) {
	_, data, err := s.readFormFile(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	outcome, err := s.docs.VerifyDetached(c.Request.Context(), data, c.PostForm("publicKey"), c.PostForm("signature"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	writeOutcome(c, "", outcome)
}

func (s *Server) deleteDocument(c *gin.Context) {
	if err := s.docs.Delete(c.Request.Context(), c.Param("ref")); err != nil {
		s.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) shareDocument(c *gin.Context) {
	link, err := s.docs.Share(c.Request.Context(), c.Param("ref"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func (s *Server) resolveShare(c *gin.Context) {
	rec, err := s.docs.Resolve(c.Request.Context(), c.Param("token"))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDocument(rec))
}

func (s *Server) getPublicKey(c *gin.Context) {
	entry, err := s.docs.PublicKey(c.Request.Context(), domain.Identity(c.Param("identity")))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toKey(entry, false))
}

func (s *Server) provisionKey(c *gin.Context) {
	res, err := s.docs.ProvisionKey(c.Request.Context(), domain.Identity(c.Param("identity")))
	if err != nil {
		s.writeError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, toKey(res.Entry, res.Created))
}
