package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dhima/feishu-notifier/internal/models"
)

// ErrMalformedBody is returned when an inbound body is not JSON at all.
var ErrMalformedBody = errors.New("event body is not valid JSON")

// Headers names the request headers a source uses for its event metadata.
type Headers struct {
	Event             string
	Signature         string
	FallbackSignature string
	Delivery          string
}

var (
	GitHubHeaders = Headers{
		Event:     "X-GitHub-Event",
		Signature: "X-Hub-Signature-256",
		Delivery:  "X-GitHub-Delivery",
	}
	GitLabHeaders = Headers{
		Event:             "X-Gitlab-Event",
		Signature:         "X-Gitlab-Token",
		FallbackSignature: "X-Hub-Signature-256",
		Delivery:          "X-Gitlab-Event-UUID",
	}
)

// HeadersFor returns the header set of source.
func HeadersFor(source models.EventSource) Headers {
	if source == models.EventSourceGitLab {
		return GitLabHeaders
	}
	return GitHubHeaders
}

// Decode builds the transient event for one webhook request. Any JSON value is accepted;
// only an object yields a payload and a repository path.
func Decode(source models.EventSource, header http.Header, body []byte) (models.InboundEvent, error) {
	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return models.InboundEvent{}, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	payload, _ := value.(map[string]any)

	names := HeadersFor(source)
	signature := header.Get(names.Signature)
	if signature == "" && names.FallbackSignature != "" {
		signature = header.Get(names.FallbackSignature)
	}

	return models.InboundEvent{
		Source:     source,
		Type:       header.Get(names.Event),
		Body:       body,
		Signature:  signature,
		Repository: repositoryPath(source, payload),
		DeliveryID: header.Get(names.Delivery),
		Payload:    payload,
	}, nil
}

// repositoryPath reads repository.full_name (GitHub) or project.path_with_namespace (GitLab).
func repositoryPath(source models.EventSource, payload map[string]any) string {
	object, field := "repository", "full_name"
	if source == models.EventSourceGitLab {
		object, field = "project", "path_with_namespace"
	}
	nested, ok := payload[object].(map[string]any)
	if !ok {
		return ""
	}
	path, _ := nested[field].(string)
	return path
}
