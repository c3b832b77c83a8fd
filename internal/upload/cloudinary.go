package upload

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
)

const cloudinaryBaseURL = "https://api.cloudinary.com"

type CloudinaryOptions struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string

	// BaseURL overrides the API host, used by tests.
	BaseURL string
}

// Cloudinary performs signed uploads against the image upload endpoint.
type Cloudinary struct {
	opts   CloudinaryOptions
	client *resty.Client
	log    *logrus.Logger
	now    func() time.Time
}

type cloudinaryResult struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

type cloudinaryError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func NewCloudinary(opts CloudinaryOptions, log *logrus.Logger) *Cloudinary {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = cloudinaryBaseURL
	}

	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)

	return &Cloudinary{opts: opts, client: client, log: log, now: time.Now}
}

func (c *Cloudinary) Upload(ctx context.Context, file *File) (string, error) {
	params := map[string]string{
		"timestamp": strconv.FormatInt(c.now().Unix(), 10),
	}
	if c.opts.Folder != "" {
		params["folder"] = c.opts.Folder
	}

	form := map[string]string{
		"api_key":   c.opts.APIKey,
		"signature": Sign(params, c.opts.APISecret),
	}
	for k, v := range params {
		form[k] = v
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("cloud", c.opts.CloudName).
		SetFormData(form).
		SetFileReader("file", file.Name, bytes.NewReader(file.Data)).
		SetResult(&cloudinaryResult{}).
		SetError(&cloudinaryError{}).
		Post("/v1_1/{cloud}/image/upload")
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}

	if resp.IsError() {
		msg := resp.Status()
		if e, ok := resp.Error().(*cloudinaryError); ok && e.Error.Message != "" {
			msg = e.Error.Message
		}
		return "", fmt.Errorf("cloudinary upload: %s", msg)
	}

	result := resp.Result().(*cloudinaryResult)
	if result.SecureURL == "" {
		return "", fmt.Errorf("cloudinary upload: response has no secure_url")
	}

	c.log.WithFields(logrus.Fields{
		"public_id": result.PublicID,
		"size":      file.Size(),
	}).Debug("Image uploaded to Cloudinary")

	return result.SecureURL, nil
}

// Sign computes the request signature: the parameters sorted by name,
// joined as k=v pairs with '&', followed by the API secret, SHA-1 hex.
func Sign(params map[string]string, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, len(keys))
	for i, k := range keys {
		pairs[i] = k + "=" + params[k]
	}

	sum := sha1.Sum([]byte(strings.Join(pairs, "&") + secret))
	return hex.EncodeToString(sum[:])
}
