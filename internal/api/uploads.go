package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"campushub/internal/types"
)

type multipartBody struct {
	buf         *bytes.Buffer
	contentType string
}

func newMultipartBody(field, filename string, r io.Reader) (*multipartBody, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copy upload data: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("finish multipart body: %w", err)
	}
	return &multipartBody{buf: buf, contentType: w.FormDataContentType()}, nil
}

// UploadResult is the backend's response for image and file uploads.
type UploadResult struct {
	URL  string `json:"url"`
	Name string `json:"name,omitempty"`
	Size int64  `json:"size,omitempty"`
}

// UploadAvatar replaces the viewer's avatar and returns the updated profile.
func (c *Client) UploadAvatar(ctx context.Context, filename string, r io.Reader) (*types.User, error) {
	body, err := newMultipartBody("file", filename, r)
	if err != nil {
		return nil, err
	}
	var user types.User
	if err := c.do(ctx, http.MethodPost, "/uploads/avatar", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadCover replaces the viewer's cover image and returns the updated profile.
func (c *Client) UploadCover(ctx context.Context, filename string, r io.Reader) (*types.User, error) {
	body, err := newMultipartBody("file", filename, r)
	if err != nil {
		return nil, err
	}
	var user types.User
	if err := c.do(ctx, http.MethodPost, "/uploads/cover", nil, body, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// UploadPostImage stores an image for use in a post body.
func (c *Client) UploadPostImage(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	body, err := newMultipartBody("file", filename, r)
	if err != nil {
		return nil, err
	}
	var res UploadResult
	if err := c.do(ctx, http.MethodPost, "/uploads/post-image", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// UploadFile stores a generic attachment.
func (c *Client) UploadFile(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	body, err := newMultipartBody("file", filename, r)
	if err != nil {
		return nil, err
	}
	var res UploadResult
	if err := c.do(ctx, http.MethodPost, "/uploads/file", nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
