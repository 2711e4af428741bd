package tui

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/roysti10/paperazzi/internal/mirror"
)

const (
	downloadStartedMessage = "Attempting to download…"
	redirectFailedMessage  = "Redirect failed! Please try again"
	notDOIMessage          = "This paper doesn't have a DOI, so it can't be downloaded yet. Try opening it in the browser instead."
	unavailableMessage     = "Download failed! This paper is not available on the mirror yet. Try opening it in the browser instead."
	fetchFailedMessage     = "Download failed! The mirror could not be reached. Please try again."
	canceledMessage        = "Download canceled."
)

type downloadResultMsg struct {
	artifact *mirror.Artifact
	err      error
}

type openResultMsg struct {
	err error
}

func downloadJob(resolver Resolver, link *url.URL) jobRunner {
	return func(ctx context.Context) (tea.Msg, error) {
		artifact, err := resolver.Resolve(ctx, link)
		return downloadResultMsg{artifact: artifact, err: err}, err
	}
}

func openURLCmd(open func(string) error, link *url.URL) tea.Cmd {
	return func() tea.Msg {
		if open == nil || link == nil {
			return openResultMsg{err: errors.New("no browser configured")}
		}
		return openResultMsg{err: open(link.String())}
	}
}

func describeDownloadError(err error) string {
	switch {
	case errors.Is(err, mirror.ErrResolutionFailed):
		return unavailableMessage
	case errors.Is(err, mirror.ErrFetch):
		return fetchFailedMessage
	case errors.Is(err, mirror.ErrIO):
		return fmt.Sprintf("Download failed! %v", err)
	default:
		return fetchFailedMessage
	}
}

func describeArtifact(artifact *mirror.Artifact) string {
	if artifact == nil {
		return "Download complete!"
	}
	if artifact.Pages > 0 {
		return fmt.Sprintf("Download complete! Saved %s (%d pages)", artifact.Filename, artifact.Pages)
	}
	return fmt.Sprintf("Download complete! Saved %s", artifact.Filename)
}
