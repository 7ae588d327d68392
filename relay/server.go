package relay

import (
	"io"
	"net/http"
	"strings"

	Logger "github.com/Luismorlan/teamfeed/utils/log"
	"github.com/gin-gonic/gin"
)

// CompanyHeader carries the company scoping every relay request.
const CompanyHeader = "x-company-id"

// UploadResponse is the wire shape of /initialize and /upload answers.
// Uploads that fail for reasons the client can do nothing about still answer
// HTTP 200 with Success false, so a flaky store never turns into a hard
// error on the posting path.
type UploadResponse struct {
	Success     bool   `json:"success"`
	Key         string `json:"key,omitempty"`
	Size        int64  `json:"size,omitempty"`
	ContentType string `json:"contentType,omitempty"`
	Message     string `json:"message"`
}

// Server is the object store relay: it accepts multipart uploads, writes
// them to the backing ObjectStore and proxies reads back by key. Reads go
// through the relay instead of direct store URLs to avoid cross-origin
// restrictions in browser clients.
type Server struct {
	store ObjectStore
}

func NewServer(store ObjectStore) *Server {
	return &Server{store: store}
}

// Register installs the relay routes on the given router.
func (s *Server) Register(router *gin.Engine) {
	router.POST("/initialize", s.handleInitialize)
	router.POST("/upload", s.handleUpload)
	router.GET("/files/*key", s.handleGetFile)
}

// handleInitialize is a liveness ping. It never blocks uploads: a client
// that cannot reach it should still try to upload.
func (s *Server) handleInitialize(c *gin.Context) {
	if c.GetHeader(CompanyHeader) == "" {
		c.JSON(http.StatusOK, UploadResponse{Success: false, Message: "missing " + CompanyHeader + " header"})
		return
	}
	c.JSON(http.StatusOK, UploadResponse{Success: true, Message: "ready"})
}

func (s *Server) handleUpload(c *gin.Context) {
	companyId := c.GetHeader(CompanyHeader)
	if companyId == "" {
		c.JSON(http.StatusOK, UploadResponse{Success: false, Message: "missing " + CompanyHeader + " header"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusOK, UploadResponse{Success: false, Message: "missing multipart field file"})
		return
	}

	key, err := GenerateKey(companyId, c.PostForm("folder"), fileHeader.Filename)
	if err != nil {
		c.JSON(http.StatusOK, UploadResponse{Success: false, Message: err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusOK, UploadResponse{Success: false, Message: err.Error()})
		return
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if err := s.store.Put(c.Request.Context(), key, contentType, file); err != nil {
		Logger.Log.Warn("fail to store uploaded file: ", err)
		c.JSON(http.StatusOK, UploadResponse{Success: false, Message: err.Error()})
		return
	}

	c.JSON(http.StatusOK, UploadResponse{
		Success:     true,
		Key:         key,
		Size:        fileHeader.Size,
		ContentType: contentType,
		Message:     "uploaded",
	})
}

func (s *Server) handleGetFile(c *gin.Context) {
	key := strings.TrimPrefix(c.Param("key"), "/")

	body, contentType, err := s.store.Get(c.Request.Context(), key)
	if err == ErrKeyNotFound {
		c.JSON(http.StatusNotFound, gin.H{"message": "no such key"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	defer body.Close()

	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	io.Copy(c.Writer, body)
}
