package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	Logger "github.com/Luismorlan/teamfeed/utils/log"
	"github.com/pkg/errors"
)

// ImageUpload is one image the caller wants attached to a post.
type ImageUpload struct {
	FileName    string
	ContentType string
	Body        io.Reader
}

// Client talks to a relay Server over HTTP. It is safe for concurrent use
// and carries immutable config: base url and company id are fixed at
// construction, there is no mutable process-wide state to set up first.
type Client struct {
	baseUrl   string
	companyId string
	http      *http.Client
}

func NewClient(baseUrl, companyId string) *Client {
	return &Client{
		baseUrl:   strings.TrimRight(baseUrl, "/"),
		companyId: companyId,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

// Initialize pings the relay. Failure is logged and swallowed: the relay
// contract says an unreachable /initialize must never block uploads.
func (c *Client) Initialize(ctx context.Context) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl+"/initialize", nil)
	if err != nil {
		Logger.Log.Warn("fail to build relay initialize request: ", err)
		return
	}
	req.Header.Set(CompanyHeader, c.companyId)

	resp, err := c.http.Do(req)
	if err != nil {
		Logger.Log.Warn("relay initialize ping failed: ", err)
		return
	}
	resp.Body.Close()
}

// Upload sends one file as multipart form data and returns the storage key.
// Any transport failure or success:false answer is an error; the caller
// (the post creation pipeline) collects these per image instead of failing
// the whole post.
func (c *Client) Upload(ctx context.Context, image ImageUpload, folder string) (string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, image.FileName))
	contentType := image.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, image.Body); err != nil {
		return "", err
	}
	if folder != "" {
		if err := writer.WriteField("folder", folder); err != nil {
			return "", err
		}
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl+"/upload", &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(CompanyHeader, c.companyId)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "relay unreachable")
	}
	defer resp.Body.Close()

	var decoded UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", errors.Wrap(err, "undecodable relay answer")
	}
	if !decoded.Success {
		return "", errors.Errorf("upload rejected: %s", decoded.Message)
	}
	return decoded.Key, nil
}

// FileURL returns the proxy read url for a stored key.
func (c *Client) FileURL(key string) string {
	return c.baseUrl + "/files/" + key
}
