package common

import (
	"context"
	"net/http"
	"strings"

	"github.com/goliatone/go-sotsial/core"
	"github.com/goliatone/go-sotsial/providers"
	"golang.org/x/sync/errgroup"
)

// Containers drives the create then publish protocol Threads and Instagram
// share: every post is first staged as a media container and then published
// by id.
type Containers struct {
	Base *providers.Base
	// Endpoint is the versioned Graph origin, e.g. https://graph.threads.net/v1.0.
	Endpoint    string
	CreatePath  string
	PublishPath string
}

type containerResponse struct {
	ID string `json:"id"`
}

// Create stages one container with params on account.
func (c Containers) Create(ctx context.Context, account core.Account, params map[string]string, failure string) (string, error) {
	return c.post(ctx, account, c.CreatePath, params, failure)
}

// Carousel stages every item as a carousel child concurrently, then stages
// the parent container that references them in order. The first failing
// child cancels the others.
func (c Containers) Carousel(ctx context.Context, account core.Account, items []core.MediaItem, parent map[string]string) (string, error) {
	children := make([]string, len(items))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, item := range items {
		group.Go(func() error {
			params := MediaParams(item)
			params["is_carousel_item"] = "true"
			id, err := c.Create(groupCtx, account, params, "Failed to upload media")
			if err != nil {
				return err
			}
			children[i] = id
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return "", err
	}

	params := map[string]string{}
	for key, value := range parent {
		params[key] = value
	}
	params["media_type"] = "CAROUSEL"
	params["children"] = strings.Join(children, ",")
	return c.Create(ctx, account, params, "Failed to create carousel")
}

// Publish publishes a staged container.
func (c Containers) Publish(ctx context.Context, account core.Account, containerID string, extra map[string]string) (core.PublishOutcome, error) {
	params := map[string]string{"creation_id": containerID}
	for key, value := range extra {
		params[key] = value
	}
	id, err := c.post(ctx, account, c.PublishPath, params, core.MessagePublishFailed)
	if err != nil {
		return core.PublishOutcome{}, err
	}
	return core.PublishOutcome{PostID: id, AccountID: account.ID}, nil
}

func (c Containers) post(ctx context.Context, account core.Account, path string, params map[string]string, failure string) (string, error) {
	if strings.TrimSpace(account.AccessToken) == "" {
		return "", core.BadInputError("No access token found")
	}
	query := make(map[string]string, len(params)+1)
	for key, value := range params {
		query[key] = value
	}
	query["access_token"] = account.AccessToken

	req := core.TransportRequest{
		Method:  http.MethodPost,
		URL:     strings.TrimRight(c.Endpoint, "/") + "/" + account.ID + "/" + path,
		Query:   query,
		Headers: map[string]string{"Accept": "application/json"},
	}
	var decoded containerResponse
	if err := c.Base.CallJSON(ctx, req, failure, &decoded); err != nil {
		return "", err
	}
	if strings.TrimSpace(decoded.ID) == "" {
		return "", core.PlatformError(failure+": response missing id", http.StatusOK, nil)
	}
	return decoded.ID, nil
}

// MediaParams maps a media item onto container parameters.
func MediaParams(item core.MediaItem) map[string]string {
	if item.Type == core.MediaVideo {
		return map[string]string{"media_type": "VIDEO", "video_url": item.URL}
	}
	return map[string]string{"media_type": "IMAGE", "image_url": item.URL}
}
