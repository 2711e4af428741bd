// Package tui is the interactive result browser: one paper on screen at a
// time with paging, abstract scrolling, popups and PDF download.
package tui

import (
	"context"
	"io"
	"log"
	"net/url"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/roysti10/paperazzi/internal/mirror"
	"github.com/roysti10/paperazzi/internal/scholar"
)

// Resolver turns a paper link into a saved PDF.
type Resolver interface {
	Resolve(ctx context.Context, source *url.URL) (*mirror.Artifact, error)
}

// Config wires the browser to its collaborators.
type Config struct {
	Results  *scholar.ResultSet
	Resolver Resolver
	// OpenURL hands a link to the system browser.
	OpenURL func(string) error
	Logger  *log.Logger
}

type stage int

const (
	stageBrowsing stage = iota
	stageDownloading
)

type model struct {
	config  Config
	nav     navigation
	keys    keyMap
	help    help.Model
	spinner spinner.Model
	stage   stage
	layout  pageLayout
	jobs    *jobBus

	activeJob string
	cancelJob context.CancelFunc
	quitting  bool
}

// New returns the browser model for cfg.Results.
func New(cfg Config) tea.Model {
	if cfg.Results == nil {
		cfg.Results = scholar.NewResultSet(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard, "", 0)
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return &model{
		config:  cfg,
		nav:     newNavigation(cfg.Results),
		keys:    newKeyMap(),
		help:    help.New(),
		spinner: sp,
		layout:  newPageLayout(),
		jobs:    newJobBus(cfg.Logger),
	}
}

// shutdown cancels any download and waits for it to unwind, so the process
// does not exit with the PDF half written.
func (m *model) shutdown(grace time.Duration) {
	if m.cancelJob != nil {
		m.cancelJob()
	}
	if !m.jobs.Wait(grace) {
		m.config.Logger.Printf("[jobs] download still running after %s", grace)
	}
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		m.help.Width = m.layout.windowWidth
	case tea.KeyMsg:
		cmd = m.handleKey(msg)
	case spinner.TickMsg:
		if m.stage == stageDownloading {
			m.spinner, cmd = m.spinner.Update(msg)
		}
	case jobResultEnvelope:
		m.handleJobResult(msg)
	case openResultMsg:
		if msg.err != nil {
			m.config.Logger.Printf("[browser] open failed: %v", msg.err)
			m.nav.open(popupError, redirectFailedMessage)
		}
	}
	m.syncBindings()
	return m, cmd
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) {
		m.nav.dismiss()
		m.quitting = true
		if m.cancelJob != nil {
			m.cancelJob()
		}
		return tea.Quit
	}
	if m.stage == stageDownloading {
		return nil
	}

	switch {
	case key.Matches(msg, m.keys.Next):
		m.nav.next()
	case key.Matches(msg, m.keys.Previous):
		m.nav.previous()
	case key.Matches(msg, m.keys.Open):
		if paper, ok := m.nav.current(); ok {
			return openURLCmd(m.config.OpenURL, paper.Link)
		}
	case key.Matches(msg, m.keys.Download):
		return m.startDownload()
	case key.Matches(msg, m.keys.Dismiss):
		m.nav.dismiss()
	case key.Matches(msg, m.keys.ScrollUp):
		m.nav.scrollUp()
	case key.Matches(msg, m.keys.ScrollDown):
		m.nav.scrollDown()
	}
	return nil
}

// startDownload shows the Info popup and returns the job command; the popup
// is drawn before the job runs because commands execute after the frame.
func (m *model) startDownload() tea.Cmd {
	paper, ok := m.nav.current()
	if !ok {
		return nil
	}
	if m.config.Resolver == nil || !mirror.IsDOILink(paper.Link) {
		m.nav.open(popupError, notDOIMessage)
		return nil
	}

	m.nav.open(popupInfo, downloadStartedMessage)
	m.stage = stageDownloading
	ctx, cancel := context.WithCancel(context.Background())
	m.cancelJob = cancel
	id, run := m.jobs.Start(ctx, jobKindDownload, downloadJob(m.config.Resolver, paper.Link))
	m.activeJob = id
	return tea.Batch(run, m.spinner.Tick)
}

func (m *model) handleJobResult(msg jobResultEnvelope) {
	if msg.Snapshot.ID != m.activeJob {
		return
	}
	if m.cancelJob != nil {
		m.cancelJob()
	}
	m.cancelJob = nil
	m.activeJob = ""
	m.stage = stageBrowsing

	result, _ := msg.Payload.(downloadResultMsg)
	switch {
	case msg.Snapshot.Status == jobStatusCanceled:
		m.nav.open(popupError, canceledMessage)
	case result.err != nil:
		m.nav.open(popupError, describeDownloadError(result.err))
	default:
		m.nav.open(popupSuccess, describeArtifact(result.artifact))
	}
}

func (m *model) syncBindings() {
	m.keys.Dismiss.SetEnabled(m.nav.popupOpen())
}
