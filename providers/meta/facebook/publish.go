package facebook

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/transport"
)

type reelStartResponse struct {
	VideoID   string `json:"video_id"`
	UploadURL string `json:"upload_url"`
}

type successResponse struct {
	Success bool   `json:"success"`
	PostID  string `json:"post_id"`
}

type handleResponse struct {
	H string `json:"h"`
}

// publishReel opens a reel upload session, lets Facebook pull the video from
// its URL, finishes the session and invites collaborators.
func (p *Provider) publishReel(ctx context.Context, account core.Account, post core.FacebookPost) (string, error) {
	var started reelStartResponse
	if err := p.postForm(ctx, account.ID+"/video_reels", url.Values{"upload_phase": {"start"}},
		account.AccessToken, "Failed to start reel upload", &started); err != nil {
		return "", err
	}
	if started.VideoID == "" {
		return "", core.PlatformError("Failed to start reel upload: response missing video id", http.StatusOK, nil)
	}

	upload := core.TransportRequest{
		Method: http.MethodPost,
		URL:    RuploadURL + "/video-upload/" + p.version + "/" + started.VideoID,
		Headers: map[string]string{
			"Authorization": "OAuth " + account.AccessToken,
			"file_url":      post.Media[0].URL,
		},
	}
	var uploaded successResponse
	if err := p.CallJSON(ctx, upload, "Failed to upload reel", &uploaded); err != nil {
		return "", err
	}
	if !uploaded.Success {
		return "", core.PlatformError("Failed to upload reel", http.StatusOK, nil)
	}

	finish := url.Values{
		"upload_phase": {"finish"},
		"video_id":     {started.VideoID},
		"video_state":  {"PUBLISHED"},
		"description":  {post.Text},
	}
	if post.Options.PublishAt != nil {
		finish.Set("video_state", "SCHEDULED")
		finish.Set("scheduled_publish_time", strconv.FormatInt(post.Options.PublishAt.Unix(), 10))
	}
	if place := strings.TrimSpace(post.Options.Reel.PlaceID); place != "" {
		finish.Set("place", place)
	}
	var finished successResponse
	if err := p.postForm(ctx, account.ID+"/video_reels", finish, account.AccessToken, "Failed to publish reel", &finished); err != nil {
		return "", err
	}
	if !finished.Success {
		return "", core.PlatformError("Failed to publish reel", http.StatusOK, nil)
	}

	for _, collaborator := range post.Options.Reel.Collaborators {
		collaborator = strings.TrimSpace(collaborator)
		if collaborator == "" {
			continue
		}
		var invited successResponse
		err := p.postForm(ctx, started.VideoID+"/collaborators", url.Values{"target_id": {collaborator}},
			account.AccessToken, "Failed to invite reel collaborator", &invited)
		if err != nil {
			core.LogWarn(ctx, p.Logger(), "reel collaborator invite failed", map[string]any{
				"account_id":   account.ID,
				"video_id":     started.VideoID,
				"collaborator": collaborator,
				"error":        err.Error(),
			})
		}
	}

	if finished.PostID != "" {
		return finished.PostID, nil
	}
	return started.VideoID, nil
}

// publishVideo runs the resumable upload: open an upload session sized from
// the remote file, let Facebook fetch the bytes, then attach the returned
// handle to a page video.
func (p *Provider) publishVideo(ctx context.Context, account core.Account, post core.FacebookPost) (string, error) {
	media := post.Media[0]
	size, err := p.remoteSize(ctx, media.URL)
	if err != nil {
		return "", err
	}

	var session idResponse
	err = p.postForm(ctx, p.OAuth().ClientID+"/uploads", url.Values{
		"file_name":   {fileName(media.URL)},
		"file_length": {strconv.FormatInt(size, 10)},
		"file_type":   {"video/mp4"},
	}, account.AccessToken, "Failed to start video upload", &session)
	if err != nil {
		return "", err
	}
	if session.ID == "" {
		return "", core.PlatformError("Failed to start video upload: response missing id", http.StatusOK, nil)
	}

	transfer := core.TransportRequest{
		Method: http.MethodPost,
		URL:    p.graph(session.ID),
		Headers: map[string]string{
			"Authorization": "OAuth " + account.AccessToken,
			"file_offset":   "0",
			"file_url":      media.URL,
		},
	}
	var handle handleResponse
	if err := p.CallJSON(ctx, transfer, "Failed to upload video", &handle); err != nil {
		return "", err
	}
	if handle.H == "" {
		return "", core.PlatformError("Failed to upload video: response missing file handle", http.StatusOK, nil)
	}

	description := post.Options.Video.Description
	if description == "" {
		description = post.Text
	}
	form := url.Values{
		"fbuploader_video_file_chunk": {handle.H},
		"description":                 {description},
	}
	if title := strings.TrimSpace(post.Options.Video.Title); title != "" {
		form.Set("title", title)
	}
	schedule(form, post.Options.PublishAt)

	var video idResponse
	if err := p.postForm(ctx, account.ID+"/videos", form, account.AccessToken, "Failed to publish video", &video); err != nil {
		return "", err
	}
	if video.ID == "" {
		return "", core.PlatformError("Failed to publish video: response missing id", http.StatusOK, nil)
	}
	return video.ID, nil
}

// publishFeed uploads every image unpublished and attaches them to a single
// feed post.
func (p *Provider) publishFeed(ctx context.Context, account core.Account, post core.FacebookPost) (string, error) {
	form := url.Values{}
	if text := strings.TrimSpace(post.Text); text != "" {
		form.Set("message", post.Text)
	}
	if link := strings.TrimSpace(post.Link); link != "" {
		form.Set("link", link)
	}

	for i, media := range post.Media {
		var photo idResponse
		err := p.postForm(ctx, account.ID+"/photos", url.Values{
			"url":       {media.URL},
			"published": {"false"},
		}, account.AccessToken, "Failed to upload photo", &photo)
		if err != nil {
			return "", err
		}
		if photo.ID == "" {
			return "", core.PlatformError("Failed to upload photo: response missing id", http.StatusOK, nil)
		}
		form.Set(fmt.Sprintf("attached_media[%d]", i), fmt.Sprintf(`{"media_fbid":%q}`, photo.ID))
	}
	schedule(form, post.Options.PublishAt)

	var created idResponse
	if err := p.postForm(ctx, account.ID+"/feed", form, account.AccessToken, core.MessagePublishFailed, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", core.PlatformError(core.MessagePublishFailed+": response missing id", http.StatusOK, nil)
	}
	return created.ID, nil
}

// remoteSize reads the Content-Length of a remote file without downloading it.
func (p *Provider) remoteSize(ctx context.Context, rawURL string) (int64, error) {
	res, err := p.Call(ctx, core.TransportRequest{Method: http.MethodHead, URL: rawURL}, "Failed to read video size")
	if err != nil {
		return 0, err
	}
	if length, ok := res.Metadata["content_length"].(int64); ok && length > 0 {
		return length, nil
	}
	for key, value := range res.Headers {
		if strings.EqualFold(key, "Content-Length") {
			if length, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil && length > 0 {
				return length, nil
			}
		}
	}
	return 0, core.BadInputError("Could not determine the size of the video at " + transport.RedactURL(rawURL))
}

func fileName(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "video.mp4"
	}
	name := path.Base(parsed.Path)
	if name == "" || name == "." || name == "/" {
		return "video.mp4"
	}
	return name
}
